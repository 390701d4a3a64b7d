package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Schema creates the meme table. Identity values are never reused after a
// delete, and blob keys stay unique across live rows.
const Schema = `
CREATE TABLE IF NOT EXISTS meme (
	id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name       VARCHAR(100) NOT NULL CHECK (char_length(name) > 0),
	blob_key   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT ` + constraintNameUnique + ` UNIQUE (name),
	CONSTRAINT ` + constraintBlobKeyUnique + ` UNIQUE (blob_key)
)`

// Migrate applies Schema. It is safe to run on every start.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply meme schema: %w", err)
	}
	return nil
}

// CreateSchema creates a Postgres schema namespace if it does not exist
func CreateSchema(ctx context.Context, db DBTX, schema string) error {
	if schema == "" {
		return nil
	}
	ident := pgx.Identifier{schema}.Sanitize()
	if _, err := db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}
	return nil
}
