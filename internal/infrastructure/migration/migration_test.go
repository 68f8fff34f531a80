package migration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDB struct {
	statements []string
	failOn     string
}

func (r *recordingDB) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	if r.failOn != "" && strings.Contains(sql, r.failOn) {
		return nil, errors.New("permission denied")
	}
	r.statements = append(r.statements, sql)
	return pgconn.CommandTag("CREATE TABLE"), nil
}

func TestRunMigrations(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db := &recordingDB{}
	require.NoError(t, RunMigrations(context.Background(), db, log))
	require.Len(t, db.statements, len(Migrations))
	assert.Contains(t, db.statements[0], "resume_sessions")
	assert.Contains(t, db.statements[1], "export_jobs")

	db = &recordingDB{failOn: "export_jobs ("}
	err := RunMigrations(context.Background(), db, log)
	assert.ErrorContains(t, err, "create_export_jobs")
	assert.Len(t, db.statements, 1)
}
