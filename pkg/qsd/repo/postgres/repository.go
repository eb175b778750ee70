package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/qsd/pkg/qsd"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements qsd.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

var _ qsd.Repository = (*Repository)(nil)

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "url") {
				return qsd.ErrDuplicateURL
			}
			if strings.Contains(pgErr.ConstraintName, "username") {
				return qsd.ErrDuplicateUsername
			}
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			if strings.Contains(pgErr.ConstraintName, "author") {
				return qsd.ErrUserNotFound
			}
			if strings.Contains(pgErr.ConstraintName, "nav_category") {
				return qsd.ErrNavCategoryNotFound
			}
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const recordColumns = `id, url, name, title, description, keywords, content,
	author_id, nav_category_id, disabled, created_at, updated_at`

func scanRecord(row pgx.Row) (*qsd.Record, error) {
	var rec qsd.Record
	err := row.Scan(
		&rec.ID, &rec.URL, &rec.Name, &rec.Title, &rec.Description, &rec.Keywords, &rec.Content,
		&rec.AuthorID, &rec.NavCategoryID, &rec.Disabled, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Record operations

func (r *Repository) CreateRecord(ctx context.Context, record *qsd.Record) error {
	query := `
		INSERT INTO qsd_record (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.URL, record.Name, record.Title, record.Description, record.Keywords,
		record.Content, record.AuthorID, record.NavCategoryID, record.Disabled,
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create record", err)
	}
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (*qsd.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM qsd_record WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qsd.ErrRecordNotFound
		}
		return nil, r.handlePostgresError("get record", err)
	}
	return rec, nil
}

func (r *Repository) GetRecordByURL(ctx context.Context, url string) (*qsd.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM qsd_record WHERE url = $1`
	rec, err := scanRecord(r.db.QueryRow(ctx, query, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qsd.ErrRecordNotFound
		}
		return nil, r.handlePostgresError("get record by url", err)
	}
	return rec, nil
}

func (r *Repository) GetRecordByName(ctx context.Context, name string) (*qsd.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM qsd_record
		WHERE name = $1 AND NOT disabled
		ORDER BY updated_at DESC LIMIT 1`
	rec, err := scanRecord(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qsd.ErrRecordNotFound
		}
		return nil, r.handlePostgresError("get record by name", err)
	}
	return rec, nil
}

func (r *Repository) UpdateRecord(ctx context.Context, record *qsd.Record) error {
	query := `
		UPDATE qsd_record SET
			url = $2, name = $3, title = $4, description = $5, keywords = $6,
			content = $7, author_id = $8, nav_category_id = $9, disabled = $10,
			updated_at = $11
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		record.ID, record.URL, record.Name, record.Title, record.Description, record.Keywords,
		record.Content, record.AuthorID, record.NavCategoryID, record.Disabled, record.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update record", err)
	}
	if tag.RowsAffected() == 0 {
		return qsd.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM qsd_record WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete record", err)
	}
	if tag.RowsAffected() == 0 {
		return qsd.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ListRecords(ctx context.Context, filter qsd.ListRecordsRequest) ([]*qsd.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM qsd_record WHERE TRUE`
	var args []interface{}

	if !filter.IncludeDisabled {
		query += ` AND NOT disabled`
	}
	if filter.URLPrefix != "" {
		args = append(args, filter.URLPrefix+"%")
		query += fmt.Sprintf(` AND url LIKE $%d`, len(args))
	}
	if filter.AuthorID != uuid.Nil {
		args = append(args, filter.AuthorID)
		query += fmt.Sprintf(` AND author_id = $%d`, len(args))
	}
	query += ` ORDER BY url`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list records", err)
	}
	defer rows.Close()

	var records []*qsd.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// User operations

const userColumns = `id, username, email, password_hash, roles, created_at`

func scanUser(row pgx.Row) (*qsd.User, error) {
	var u qsd.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Roles, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *qsd.User) error {
	query := `INSERT INTO qsd_user (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, roles, user.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create user", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*qsd.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM qsd_user WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qsd.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get user", err)
	}
	return u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*qsd.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM qsd_user WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qsd.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get user by username", err)
	}
	return u, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *qsd.User) error {
	query := `UPDATE qsd_user SET username = $2, email = $3, password_hash = $4, roles = $5 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.Roles)
	if err != nil {
		return r.handlePostgresError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return qsd.ErrUserNotFound
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*qsd.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM qsd_user ORDER BY username`)
	if err != nil {
		return nil, r.handlePostgresError("list users", err)
	}
	defer rows.Close()

	var users []*qsd.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Nav category operations

func (r *Repository) CreateNavCategory(ctx context.Context, category *qsd.NavCategory) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO qsd_nav_category (id, name, description) VALUES ($1, $2, $3)`,
		category.ID, category.Name, category.Description)
	if err != nil {
		return r.handlePostgresError("create nav category", err)
	}
	return nil
}

func (r *Repository) GetNavCategory(ctx context.Context, id uuid.UUID) (*qsd.NavCategory, error) {
	var c qsd.NavCategory
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description FROM qsd_nav_category WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qsd.ErrNavCategoryNotFound
		}
		return nil, r.handlePostgresError("get nav category", err)
	}
	return &c, nil
}

func (r *Repository) GetNavCategoryByName(ctx context.Context, name string) (*qsd.NavCategory, error) {
	var c qsd.NavCategory
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description FROM qsd_nav_category WHERE name = $1 ORDER BY name LIMIT 1`, name).
		Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qsd.ErrNavCategoryNotFound
		}
		return nil, r.handlePostgresError("get nav category by name", err)
	}
	return &c, nil
}

func (r *Repository) ListNavCategories(ctx context.Context) ([]*qsd.NavCategory, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM qsd_nav_category ORDER BY name`)
	if err != nil {
		return nil, r.handlePostgresError("list nav categories", err)
	}
	defer rows.Close()

	var categories []*qsd.NavCategory
	for rows.Next() {
		var c qsd.NavCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}
