package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"resume-builder/internal/domain"
)

// JobsRepo persists export jobs, artifact bytes included, in export_jobs.
type JobsRepo struct {
	db querier
}

func NewJobsRepo(db querier) *JobsRepo {
	return &JobsRepo{db: db}
}

func (r *JobsRepo) Save(ctx context.Context, j *domain.ExportJob) error {
	if r.db == nil {
		return nil
	}

	var (
		mediaType string
		pages     int
		data      []byte
	)
	if j.Artifact != nil {
		mediaType, pages, data = j.Artifact.MediaType, j.Artifact.Pages, j.Artifact.Data
	}

	_, err := r.db.Exec(ctx, `INSERT INTO export_jobs (id, session_id, format, file_name, status, error, media_type, pages, data, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error, media_type = EXCLUDED.media_type, pages = EXCLUDED.pages, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		j.ID, j.SessionID, string(j.Format), j.FileName, string(j.Status), j.Error, mediaType, pages, data, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving export job %s: %w", j.ID, err)
	}
	return nil
}

func (r *JobsRepo) Get(ctx context.Context, id uuid.UUID) (*domain.ExportJob, error) {
	if r.db == nil {
		return nil, domain.ErrJobNotFound
	}

	var (
		j                 domain.ExportJob
		format, status    string
		mediaType         string
		pages             int
		data              []byte
		created, modified time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT id, session_id, format, file_name, status, error, media_type, pages, data, created_at, updated_at
		FROM export_jobs WHERE id = $1`, id).
		Scan(&j.ID, &j.SessionID, &format, &j.FileName, &status, &j.Error, &mediaType, &pages, &data, &created, &modified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading export job %s: %w", id, err)
	}

	j.Format, j.Status = domain.Format(format), domain.Status(status)
	j.CreatedAt, j.UpdatedAt = created, modified
	if j.Status == domain.StatusDelivered {
		j.Artifact = &domain.Artifact{
			FileName:  j.FileName,
			MediaType: mediaType,
			Format:    j.Format,
			Pages:     pages,
			Data:      data,
		}
	}
	return &j, nil
}
