package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session keeps the canonical document generated from one form submission
// so later exports can refer to it by ID.
type Session struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSession(content, name string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Content:   content,
		Name:      name,
		CreatedAt: time.Now(),
	}
}
