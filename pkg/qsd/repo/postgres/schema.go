package postgres

import (
	"context"
	"fmt"
)

// Schema creates the tables used by Repository. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS qsd_user (
	id UUID PRIMARY KEY,
	username VARCHAR(150) NOT NULL,
	email VARCHAR(254) NOT NULL DEFAULT '',
	password_hash VARCHAR(255) NOT NULL DEFAULT '',
	roles TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT qsd_user_username_key UNIQUE (username)
);

CREATE TABLE IF NOT EXISTS qsd_nav_category (
	id UUID PRIMARY KEY,
	name VARCHAR(64) NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS qsd_record (
	id UUID PRIMARY KEY,
	url VARCHAR(256) NOT NULL,
	name VARCHAR(256) NOT NULL DEFAULT '',
	title VARCHAR(256) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	author_id UUID NOT NULL REFERENCES qsd_user(id),
	nav_category_id UUID NOT NULL REFERENCES qsd_nav_category(id),
	disabled BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT qsd_record_url_key UNIQUE (url)
);

CREATE INDEX IF NOT EXISTS qsd_record_name_idx ON qsd_record (name);
`

// Migrate applies Schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
