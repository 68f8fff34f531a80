package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"resume-builder/internal/domain"
	"resume-builder/internal/model"
)

// Generated is the canonical document produced from one submission and
// the session that keeps it.
type Generated struct {
	Content   string
	SessionID string
}

// Generator validates form submissions and renders the canonical document.
type Generator struct {
	sessions SessionsRepo
	log      *slog.Logger
}

func NewGenerator(sessions SessionsRepo, log *slog.Logger) *Generator {
	return &Generator{sessions: sessions, log: log}
}

// Decode checks raw against the request schema and the model rules.
func Decode(raw []byte) (*model.ResumeDocument, error) {
	if err := model.ValidateJSON(raw); err != nil {
		return nil, err
	}
	var doc model.ResumeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.NewValidationError([]string{fmt.Sprintf("body (%v)", err)})
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc.AssignKeys(), nil
}

// Generate renders raw and stores the result in a new session. A session
// store failure is logged and the document is still returned, without an ID.
func (g *Generator) Generate(ctx context.Context, raw []byte) (*Generated, error) {
	doc, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	content, err := RenderMarkdown(doc)
	if err != nil {
		return nil, err
	}

	out := &Generated{Content: content}
	if g.sessions == nil {
		return out, nil
	}
	s := domain.NewSession(content, doc.Name)
	if err := g.sessions.Save(ctx, s); err != nil {
		g.log.Warn("failed to store session", "error", err)
		return out, nil
	}
	out.SessionID = s.ID
	return out, nil
}
