// Package sqlite implements qsd.Repository on SQLite through the pure-Go
// modernc.org/sqlite driver. Timestamps are stored as Unix nanoseconds and
// roles as a JSON array.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tendant/qsd/pkg/qsd"
	_ "modernc.org/sqlite"
)

// Schema creates the tables used by Repository. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS qsd_user (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	roles TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS qsd_nav_category (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS qsd_record (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	author_id TEXT NOT NULL REFERENCES qsd_user(id),
	nav_category_id TEXT NOT NULL REFERENCES qsd_nav_category(id),
	disabled INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS qsd_record_name_idx ON qsd_record (name);
`

// Repository implements qsd.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ qsd.Repository = (*Repository)(nil)

// New wraps an open database handle
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens the database at dsn (a file path or ":memory:") and applies Schema.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One connection: ":memory:" databases are per connection, and the
	// foreign_keys pragma set in Migrate is too.
	db.SetMaxOpenConns(1)
	r := New(db)
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Migrate applies Schema and enables foreign keys on the current connection.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying database
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) handleError(operation string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: qsd_record.url"):
		return qsd.ErrDuplicateURL
	case strings.Contains(msg, "UNIQUE constraint failed: qsd_user.username"):
		return qsd.ErrDuplicateUsername
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("referenced record not found in %s", operation)
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func toNanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

type scanner interface {
	Scan(dest ...any) error
}

const recordColumns = `id, url, name, title, description, keywords, content,
	author_id, nav_category_id, disabled, created_at, updated_at`

func scanRecord(row scanner) (*qsd.Record, error) {
	var (
		rec                  qsd.Record
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&rec.ID, &rec.URL, &rec.Name, &rec.Title, &rec.Description, &rec.Keywords, &rec.Content,
		&rec.AuthorID, &rec.NavCategoryID, &rec.Disabled, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = fromNanos(createdAt)
	rec.UpdatedAt = fromNanos(updatedAt)
	return &rec, nil
}

// Record operations

func (r *Repository) CreateRecord(ctx context.Context, record *qsd.Record) error {
	query := `INSERT INTO qsd_record (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.URL, record.Name, record.Title, record.Description, record.Keywords,
		record.Content, record.AuthorID, record.NavCategoryID, record.Disabled,
		toNanos(record.CreatedAt), toNanos(record.UpdatedAt))
	if err != nil {
		return r.handleError("create record", err)
	}
	return nil
}

func (r *Repository) getRecordWhere(ctx context.Context, op, where string, args ...any) (*qsd.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM qsd_record WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, qsd.ErrRecordNotFound
		}
		return nil, r.handleError(op, err)
	}
	return rec, nil
}

func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (*qsd.Record, error) {
	return r.getRecordWhere(ctx, "get record", `id = ?`, id)
}

func (r *Repository) GetRecordByURL(ctx context.Context, url string) (*qsd.Record, error) {
	return r.getRecordWhere(ctx, "get record by url", `url = ?`, url)
}

func (r *Repository) GetRecordByName(ctx context.Context, name string) (*qsd.Record, error) {
	return r.getRecordWhere(ctx, "get record by name",
		`name = ? AND disabled = 0 ORDER BY updated_at DESC LIMIT 1`, name)
}

func (r *Repository) UpdateRecord(ctx context.Context, record *qsd.Record) error {
	query := `UPDATE qsd_record SET
			url = ?, name = ?, title = ?, description = ?, keywords = ?, content = ?,
			author_id = ?, nav_category_id = ?, disabled = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		record.URL, record.Name, record.Title, record.Description, record.Keywords, record.Content,
		record.AuthorID, record.NavCategoryID, record.Disabled, toNanos(record.UpdatedAt), record.ID)
	if err != nil {
		return r.handleError("update record", err)
	}
	return requireRow(res, qsd.ErrRecordNotFound)
}

func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM qsd_record WHERE id = ?`, id)
	if err != nil {
		return r.handleError("delete record", err)
	}
	return requireRow(res, qsd.ErrRecordNotFound)
}

func (r *Repository) ListRecords(ctx context.Context, filter qsd.ListRecordsRequest) ([]*qsd.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM qsd_record WHERE 1 = 1`
	var args []any

	if !filter.IncludeDisabled {
		query += ` AND disabled = 0`
	}
	if filter.URLPrefix != "" {
		query += ` AND substr(url, 1, ?) = ?`
		args = append(args, utf8.RuneCountInString(filter.URLPrefix), filter.URLPrefix)
	}
	if filter.AuthorID != uuid.Nil {
		query += ` AND author_id = ?`
		args = append(args, filter.AuthorID)
	}
	query += ` ORDER BY url`
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.handleError("list records", err)
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

func scanUser(row scanner) (*qsd.User, error) {
	var (
		u         qsd.User
		roles     string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roles, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(roles), &u.Roles); err != nil {
		return nil, fmt.Errorf("decode roles for %s: %w", u.Username, err)
	}
	u.CreatedAt = fromNanos(createdAt)
	return &u, nil
}

func encodeRoles(roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	b, err := json.Marshal(roles)
	return string(b), err
}

func (r *Repository) CreateUser(ctx context.Context, user *qsd.User) error {
	roles, err := encodeRoles(user.Roles)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO qsd_user (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, roles, toNanos(user.CreatedAt))
	if err != nil {
		return r.handleError("create user", err)
	}
	return nil
}

func (r *Repository) getUserWhere(ctx context.Context, op, where string, arg any) (*qsd.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM qsd_user WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, qsd.ErrUserNotFound
		}
		return nil, r.handleError(op, err)
	}
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*qsd.User, error) {
	return r.getUserWhere(ctx, "get user", `id = ?`, id)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*qsd.User, error) {
	return r.getUserWhere(ctx, "get user by username", `username = ?`, username)
}

func (r *Repository) UpdateUser(ctx context.Context, user *qsd.User) error {
	roles, err := encodeRoles(user.Roles)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE qsd_user SET username = ?, email = ?, password_hash = ?, roles = ? WHERE id = ?`,
		user.Username, user.Email, user.PasswordHash, roles, user.ID)
	if err != nil {
		return r.handleError("update user", err)
	}
	return requireRow(res, qsd.ErrUserNotFound)
}

func (r *Repository) ListUsers(ctx context.Context) ([]*qsd.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM qsd_user ORDER BY username`)
	if err != nil {
		return nil, r.handleError("list users", err)
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
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO qsd_nav_category (id, name, description) VALUES (?, ?, ?)`,
		category.ID, category.Name, category.Description)
	if err != nil {
		return r.handleError("create nav category", err)
	}
	return nil
}

func (r *Repository) getNavCategoryWhere(ctx context.Context, op, where string, arg any) (*qsd.NavCategory, error) {
	var c qsd.NavCategory
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM qsd_nav_category WHERE `+where, arg).
		Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, qsd.ErrNavCategoryNotFound
		}
		return nil, r.handleError(op, err)
	}
	return &c, nil
}

func (r *Repository) GetNavCategory(ctx context.Context, id uuid.UUID) (*qsd.NavCategory, error) {
	return r.getNavCategoryWhere(ctx, "get nav category", `id = ?`, id)
}

func (r *Repository) GetNavCategoryByName(ctx context.Context, name string) (*qsd.NavCategory, error) {
	return r.getNavCategoryWhere(ctx, "get nav category by name", `name = ? LIMIT 1`, name)
}

func (r *Repository) ListNavCategories(ctx context.Context) ([]*qsd.NavCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM qsd_nav_category ORDER BY name`)
	if err != nil {
		return nil, r.handleError("list nav categories", err)
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

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
