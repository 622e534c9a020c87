// Package migrate wraps goose for the storefront schema.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultDir is relative to the repository root, which is where every
// binary is started from in dev and in the container image.
const DefaultDir = "pkg/migrate/migrations"

var dialectOnce sync.Once
var dialectErr error

func usePostgres() error {
	dialectOnce.Do(func() {
		dialectErr = goose.SetDialect("postgres")
	})
	return dialectErr
}

// Run executes a goose command (up, down, status, version, redo...).
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	switch {
	case db == nil:
		return errors.New("migrate: db is required")
	case dir == "":
		return errors.New("migrate: dir is required")
	}
	if err := usePostgres(); err != nil {
		return fmt.Errorf("migrate: dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("migrate: %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, version string) error {
	target, err := parseVersion(version)
	if err != nil {
		return err
	}
	if err := usePostgres(); err != nil {
		return fmt.Errorf("migrate: dialect: %w", err)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("migrate: read db version: %w", err)
	}

	if current < target {
		err = goose.UpToContext(ctx, db, dir, target)
	} else if current > target {
		err = goose.DownToContext(ctx, db, dir, target)
	}
	if err != nil {
		return fmt.Errorf("migrate: %d -> %d: %w", current, target, err)
	}
	return nil
}

func parseVersion(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("migrate: target version is required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("migrate: version %q is not a YYYYMMDDHHMMSS timestamp", raw)
	}
	return v, nil
}
