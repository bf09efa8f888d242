package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the embedded migrations directory.
const DefaultDir = "migrations"

// Run applies goose migrations from the embedded filesystem.
func Run(ctx context.Context, db *sql.DB, dir string, command string) error {
	if dir == "" {
		dir = DefaultDir
	}

	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	switch command {
	case "up":
		return goose.UpContext(ctx, db, dir)
	case "down":
		return goose.DownContext(ctx, db, dir)
	case "status":
		return goose.StatusContext(ctx, db, dir)
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
}
