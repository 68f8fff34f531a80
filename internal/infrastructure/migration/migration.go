package migration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Migration is one idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

// Migrations lists the schema in apply order.
var Migrations = []Migration{
	{
		Name: "create_resume_sessions",
		SQL: `CREATE TABLE IF NOT EXISTS resume_sessions (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at TIMESTAMPTZ
		)`,
	},
	{
		Name: "create_export_jobs",
		SQL: `CREATE TABLE IF NOT EXISTS export_jobs (
			id UUID PRIMARY KEY,
			session_id TEXT NOT NULL DEFAULT '',
			format TEXT NOT NULL,
			file_name TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			media_type TEXT NOT NULL DEFAULT '',
			pages INTEGER NOT NULL DEFAULT 0,
			data BYTEA,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	},
	{
		Name: "index_export_jobs_session",
		SQL:  `CREATE INDEX IF NOT EXISTS export_jobs_session_idx ON export_jobs (session_id)`,
	},
}

// RunMigrations applies every migration on startup and stops at the first
// failure.
func RunMigrations(ctx context.Context, db execer, log *slog.Logger) error {
	log.Info("Starting database migrations")

	for _, m := range Migrations {
		if _, err := db.Exec(ctx, m.SQL); err != nil {
			log.Error("Migration failed", "name", m.Name, "error", err)
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		log.Info("Migration completed", "name", m.Name)
	}

	log.Info("All migrations completed successfully")
	return nil
}
