// Package migrate prepares storage once, before the server starts: SQL
// schema through goose and the auth indices on Elasticsearch.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/Skotchmaster/recommend_shop/internal/logging"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// Up applies pending migrations to db using the given goose dialect.
func Up(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	l := logging.FromContext(ctx).With("component", "migrate")

	fsys, err := fs.Sub(Migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		l.Info("migration_applied", "version", r.Source.Version, "path", r.Source.Path, "duration_ms", r.Duration.Milliseconds())
	}
	if len(results) == 0 {
		l.Info("migrations_up_to_date")
	}
	return nil
}

// Postgres opens dsn with lib/pq and applies the SQL migrations.
func Postgres(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return Up(ctx, db, goose.DialectPostgres)
}
