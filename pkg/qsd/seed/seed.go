// Package seed loads YAML fixtures of users, navigation categories and
// records into a fresh installation. Applying the same fixtures twice is a
// no-op: existing users, categories and URLs are left untouched.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/auth"
	"gopkg.in/yaml.v3"
)

// Fixtures is the document format of a seed file.
type Fixtures struct {
	Users         []User        `yaml:"users"`
	NavCategories []NavCategory `yaml:"nav_categories"`
	Records       []Record      `yaml:"records"`
}

type User struct {
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

type NavCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Record references its author and category by name.
type Record struct {
	URL         string `yaml:"url"`
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Keywords    string `yaml:"keywords"`
	Content     string `yaml:"content"`
	Author      string `yaml:"author"`
	NavCategory string `yaml:"nav_category"`
	Disabled    bool   `yaml:"disabled"`
}

// Result counts what Apply created.
type Result struct {
	Users         int
	NavCategories int
	Records       int
}

// Load reads and parses the seed file at path.
func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML seed document.
func Parse(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &fx, nil
}

// Apply creates the missing users, categories and records of fx.
func Apply(ctx context.Context, svc qsd.Service, users *auth.Service, fx *Fixtures) (Result, error) {
	var res Result

	userIDs := make(map[string]uuid.UUID, len(fx.Users))
	for _, u := range fx.Users {
		user, created, err := users.GetOrCreateUser(ctx, auth.CreateUserRequest{
			Username: u.Username,
			Email:    u.Email,
			Password: u.Password,
			Roles:    u.Roles,
		})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		if created {
			res.Users++
		}
		userIDs[user.Username] = user.ID
	}

	existing, err := svc.ListNavCategories(ctx)
	if err != nil {
		return res, fmt.Errorf("list nav categories: %w", err)
	}
	categoryIDs := make(map[string]uuid.UUID, len(existing)+len(fx.NavCategories))
	for _, c := range existing {
		categoryIDs[c.Name] = c.ID
	}
	for _, c := range fx.NavCategories {
		if _, ok := categoryIDs[c.Name]; ok {
			continue
		}
		category, err := svc.CreateNavCategory(ctx, qsd.CreateNavCategoryRequest{
			Name:        c.Name,
			Description: c.Description,
		})
		if err != nil {
			return res, fmt.Errorf("seed nav category %s: %w", c.Name, err)
		}
		categoryIDs[category.Name] = category.ID
		res.NavCategories++
	}

	for _, r := range fx.Records {
		if _, err := svc.GetRecordByURL(ctx, r.URL); err == nil {
			continue
		} else if !errors.Is(err, qsd.ErrRecordNotFound) {
			return res, fmt.Errorf("seed record %s: %w", r.URL, err)
		}

		authorID, ok := userIDs[r.Author]
		if !ok {
			author, err := users.GetUserByUsername(ctx, r.Author)
			if err != nil {
				return res, fmt.Errorf("seed record %s: author %q: %w", r.URL, r.Author, err)
			}
			authorID = author.ID
		}

		var categoryID uuid.UUID
		if r.NavCategory != "" {
			categoryID, ok = categoryIDs[r.NavCategory]
			if !ok {
				return res, fmt.Errorf("seed record %s: nav category %q: %w", r.URL, r.NavCategory, qsd.ErrNavCategoryNotFound)
			}
		}

		if _, err := svc.CreateRecord(ctx, qsd.CreateRecordRequest{
			URL:           r.URL,
			Name:          r.Name,
			Title:         r.Title,
			Description:   r.Description,
			Keywords:      r.Keywords,
			Content:       r.Content,
			AuthorID:      authorID,
			NavCategoryID: categoryID,
			Disabled:      r.Disabled,
		}); err != nil {
			return res, fmt.Errorf("seed record %s: %w", r.URL, err)
		}
		res.Records++
	}

	slog.Info("Seed applied", "users", res.Users, "nav_categories", res.NavCategories, "records", res.Records)
	return res, nil
}
