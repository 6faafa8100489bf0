package service

import (
	"context"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

type ProjectRepository interface {
	ListByOwner(ctx context.Context, owner string) ([]model.Project, error)
	Insert(ctx context.Context, p *model.Project) error
	// FindByID returns ErrNotFound when the project does not exist or
	// belongs to someone else.
	FindByID(ctx context.Context, owner, projectID string) (model.Project, error)
}

type MilestoneRepository interface {
	FindByProjectID(ctx context.Context, projectID string) ([]model.Milestone, error)
	MaxOrder(ctx context.Context, projectID string) (int, error)
	Insert(ctx context.Context, m *model.Milestone) error
	// Update returns ErrNotFound when no milestone has that id in the project.
	Update(ctx context.Context, projectID, milestoneID string, patch model.MilestonePatch) (model.Milestone, error)
	// Reorder writes each entry's order. Ids outside the project are skipped.
	Reorder(ctx context.Context, projectID string, entries []model.OrderEntry) error
}

// ProjectCache holds project detail responses.
type ProjectCache interface {
	Get(ctx context.Context, projectID string) (model.Project, bool)
	Set(ctx context.Context, p model.Project)
	Invalidate(ctx context.Context, projectID string)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (model.Project, bool) { return model.Project{}, false }
func (nopCache) Set(context.Context, model.Project)                {}
func (nopCache) Invalidate(context.Context, string)                {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }
