package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const latestSchemaFileName = "LATEST_SCHEMA.sql"

//go:embed migration
var migrationFS embed.FS

func NewDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Migrate applies the latest schema to the database.
func Migrate(ctx context.Context, d *sql.DB) error {
	buf, err := migrationFS.ReadFile("migration/" + latestSchemaFileName)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file %q", latestSchemaFileName)
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(buf)); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to apply latest schema")
	}
	return tx.Commit()
}

func CheckTableExists(ctx context.Context, d *sql.DB, tableName string) (bool, error) {
	query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
	var name string
	if err := d.QueryRowContext(ctx, query, tableName).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
