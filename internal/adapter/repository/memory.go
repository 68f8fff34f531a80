package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/domain"
)

// MemoryJobs keeps export jobs in process. Stored jobs are copies, so a
// caller mutating its job does not race readers.
type MemoryJobs struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]domain.ExportJob
}

func NewMemoryJobs() *MemoryJobs {
	return &MemoryJobs{jobs: map[uuid.UUID]domain.ExportJob{}}
}

func (m *MemoryJobs) Save(_ context.Context, j *domain.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = *j
	return nil
}

func (m *MemoryJobs) Get(_ context.Context, id uuid.UUID) (*domain.ExportJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &j, nil
}

type memorySession struct {
	session domain.Session
	expires time.Time
}

// MemorySessions keeps sessions in process; ttl zero means no expiry.
type MemorySessions struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{ttl: ttl, now: time.Now, sessions: map[string]memorySession{}}
}

func (m *MemorySessions) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memorySession{session: *s}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	m.sessions[s.ID] = entry
	return nil
}

func (m *MemorySessions) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	s := entry.session
	return &s, nil
}
