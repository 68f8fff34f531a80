package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"resume-builder/internal/domain"
)

// SessionsRepo stores canonical documents in resume_sessions.
type SessionsRepo struct {
	db  querier
	ttl time.Duration
}

func NewSessionsRepo(db querier, ttl time.Duration) *SessionsRepo {
	return &SessionsRepo{db: db, ttl: ttl}
}

func (r *SessionsRepo) Save(ctx context.Context, s *domain.Session) error {
	var expires *time.Time
	if r.ttl > 0 {
		t := s.CreatedAt.Add(r.ttl)
		expires = &t
	}
	_, err := r.db.Exec(ctx, `INSERT INTO resume_sessions (id, content, name, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, name = EXCLUDED.name, expires_at = EXCLUDED.expires_at`,
		s.ID, s.Content, s.Name, s.CreatedAt, expires)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return nil
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx, `SELECT id, content, name, created_at FROM resume_sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`, id).
		Scan(&s.ID, &s.Content, &s.Name, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return &s, nil
}
