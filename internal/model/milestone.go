package model

type Milestone struct {
	ID          string `json:"_id"`
	ProjectID   string `json:"project,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DueDate     Date   `json:"dueDate"`
	Order       int    `json:"order"`
	Status      string `json:"status,omitempty"` // pending / in_progress / completed
}

// MilestoneInput is the body of a creation request.
type MilestoneInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DueDate     Date   `json:"dueDate"`
}

// MilestonePatch is a partial update; nil fields are left untouched and
// are not sent.
type MilestonePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *Date   `json:"dueDate,omitempty"`
	Order       *int    `json:"order,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p MilestonePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.DueDate == nil && p.Order == nil && p.Status == nil
}

// Apply returns m with the patch's set fields written over it.
func (p MilestonePatch) Apply(m Milestone) Milestone {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.DueDate != nil {
		m.DueDate = *p.DueDate
	}
	if p.Order != nil {
		m.Order = *p.Order
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	return m
}

// OrderEntry assigns a display order to one milestone in a reorder request.
type OrderEntry struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// CloneMilestones copies a milestone slice, keeping nil as nil.
func CloneMilestones(ms []Milestone) []Milestone {
	if ms == nil {
		return nil
	}
	out := make([]Milestone, len(ms))
	copy(out, ms)
	return out
}
