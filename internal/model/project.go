package model

import "time"

type Project struct {
	ID          string    `json:"_id"`
	Owner       string    `json:"owner,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status,omitempty"` // active / completed / archived
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Milestones is only populated on detail responses. Nil means the
	// field was absent.
	Milestones []Milestone `json:"milestones,omitempty"`
}

// Clone returns a deep copy so callers cannot alias store state.
func (p Project) Clone() Project {
	p.Milestones = CloneMilestones(p.Milestones)
	return p
}

type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CloneProjects deep-copies a project slice, keeping nil as nil.
func CloneProjects(ps []Project) []Project {
	if ps == nil {
		return nil
	}
	out := make([]Project, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}
