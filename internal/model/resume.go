package model

import (
	"strings"

	"github.com/google/uuid"
)

// Go models that match schema/resume.schema.json, the JSON shape posted by
// the resume form.

type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Linkedin string `json:"linkedin,omitempty"`
}

type ProjectEntry struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
	Achievements string `json:"achievements"`
}

// IsBlank reports whether the project contributes nothing to the document.
func (p ProjectEntry) IsBlank() bool {
	return blank(p.Name, p.Description, p.Technologies, p.Achievements)
}

type WorkEntry struct {
	ID               string         `json:"id,omitempty"`
	JobTitle         string         `json:"jobTitle"`
	Company          string         `json:"company"`
	StartDate        string         `json:"startDate"`
	EndDate          string         `json:"endDate"`
	Responsibilities string         `json:"responsibilities"`
	Projects         []ProjectEntry `json:"projects"`
}

// IsBlank reports whether the entry is an untouched form row.
func (w WorkEntry) IsBlank() bool {
	if !blank(w.JobTitle, w.Company, w.StartDate, w.EndDate, w.Responsibilities) {
		return false
	}
	for _, p := range w.Projects {
		if !p.IsBlank() {
			return false
		}
	}
	return true
}

// FilledProjects returns the non-blank projects in order.
func (w WorkEntry) FilledProjects() []ProjectEntry {
	out := make([]ProjectEntry, 0, len(w.Projects))
	for _, p := range w.Projects {
		if !p.IsBlank() {
			out = append(out, p)
		}
	}
	return out
}

type EducationEntry struct {
	ID           string `json:"id,omitempty"`
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Description  string `json:"description"`
}

func (e EducationEntry) IsBlank() bool {
	return blank(e.School, e.Degree, e.FieldOfStudy, e.StartDate, e.EndDate, e.Description)
}

// ResumeDocument is the aggregate root. Sequence order is render order.
type ResumeDocument struct {
	PersonalInfo
	Summary        string           `json:"summary"`
	WorkExperience []WorkEntry      `json:"workExperience"`
	Education      []EducationEntry `json:"education"`
	Skills         []string         `json:"skills"`
	Certifications []string         `json:"certifications"`
}

// FilledSkills drops empty and whitespace-only skills.
func (r *ResumeDocument) FilledSkills() []string { return filled(r.Skills) }

// FilledCertifications drops empty and whitespace-only certifications.
func (r *ResumeDocument) FilledCertifications() []string { return filled(r.Certifications) }

// AssignKeys returns a copy of r where every repeatable entry carries a
// stable synthetic key. Existing keys are kept, so re-submitting a form does
// not reshuffle identities. r itself is not modified.
func (r *ResumeDocument) AssignKeys() *ResumeDocument {
	out := *r
	out.WorkExperience = make([]WorkEntry, len(r.WorkExperience))
	for i, w := range r.WorkExperience {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		projects := make([]ProjectEntry, len(w.Projects))
		for j, p := range w.Projects {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			projects[j] = p
		}
		w.Projects = projects
		out.WorkExperience[i] = w
	}
	out.Education = make([]EducationEntry, len(r.Education))
	for i, e := range r.Education {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		out.Education[i] = e
	}
	out.Skills = append([]string(nil), r.Skills...)
	out.Certifications = append([]string(nil), r.Certifications...)
	return &out
}

func filled(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
