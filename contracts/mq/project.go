package mq

import "time"

// Exchange is the topic exchange project events are published to.
const Exchange = "projects.events"

// Routing keys on the events exchange.
const (
	RoutingProjectCreated      = "project.created"
	RoutingMilestoneCreated    = "milestone.created"
	RoutingMilestoneUpdated    = "milestone.updated"
	RoutingMilestonesReordered = "milestones.reordered"
)

type ProjectCreatedPayload struct {
	ProjectID string    `json:"project_id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type MilestonePayload struct {
	MilestoneID string `json:"milestone_id"`
	ProjectID   string `json:"project_id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD
	Order       int    `json:"order"`
	Status      string `json:"status"`
}

type MilestoneOrder struct {
	MilestoneID string `json:"milestone_id"`
	Order       int    `json:"order"`
}

type MilestonesReorderedPayload struct {
	ProjectID string           `json:"project_id"`
	Owner     string           `json:"owner"`
	Orders    []MilestoneOrder `json:"orders"`
}
