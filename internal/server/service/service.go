// Package service implements the project and milestone operations served
// by projectd. Storage, caching and event delivery are behind ports.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	contracts "github.com/johnassefatheeth/pm-f-d/contracts/mq"
	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/pkg/logger"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

const (
	StatusActive  = "active"
	StatusPending = "pending"
)

type Service struct {
	projects   ProjectRepository
	milestones MilestoneRepository
	cache      ProjectCache
	publisher  EventPublisher
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

type Option func(*Service)

// WithCache enables read-through caching of project details.
func WithCache(c ProjectCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func New(projects ProjectRepository, milestones MilestoneRepository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		projects:   projects,
		milestones: milestones,
		cache:      nopCache{},
		publisher:  nopPublisher{},
		logger:     log,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func (s *Service) ListProjects(ctx context.Context, owner string) ([]model.Project, error) {
	if owner == "" {
		return nil, ErrUnauthorized
	}
	list, err := s.projects.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if list == nil {
		list = []model.Project{}
	}
	return list, nil
}

func (s *Service) CreateProject(ctx context.Context, owner string, in model.ProjectInput) (model.Project, error) {
	if owner == "" {
		return model.Project{}, ErrUnauthorized
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Project{}, invalid("Project name is required.")
	}

	now := s.now().UTC()
	p := model.Project{
		ID:          s.newID(),
		Owner:       owner,
		Name:        name,
		Description: in.Description,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Insert(ctx, &p); err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}

	s.publish(ctx, contracts.RoutingProjectCreated, contracts.ProjectCreatedPayload{
		ProjectID: p.ID,
		Owner:     owner,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	})
	return p, nil
}

// GetProject returns the project with its milestones sorted by order.
func (s *Service) GetProject(ctx context.Context, owner, projectID string) (model.Project, error) {
	if owner == "" {
		return model.Project{}, ErrUnauthorized
	}
	if p, ok := s.cache.Get(ctx, projectID); ok && p.Owner == owner {
		return p, nil
	}

	p, err := s.projects.FindByID(ctx, owner, projectID)
	if err != nil {
		return model.Project{}, err
	}
	ms, err := s.milestones.FindByProjectID(ctx, projectID)
	if err != nil {
		return model.Project{}, fmt.Errorf("load milestones: %w", err)
	}
	if ms == nil {
		ms = []model.Milestone{}
	}
	p.Milestones = ms

	s.cache.Set(ctx, p)
	return p, nil
}

func (s *Service) CreateMilestone(ctx context.Context, owner, projectID string, in model.MilestoneInput) (model.Milestone, error) {
	if _, err := s.ownedProject(ctx, owner, projectID); err != nil {
		return model.Milestone{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || in.DueDate.IsZero() {
		return model.Milestone{}, invalid("Milestone name and due date are required.")
	}

	maxOrder, err := s.milestones.MaxOrder(ctx, projectID)
	if err != nil {
		return model.Milestone{}, fmt.Errorf("max milestone order: %w", err)
	}
	m := model.Milestone{
		ID:          s.newID(),
		ProjectID:   projectID,
		Name:        name,
		Description: in.Description,
		DueDate:     in.DueDate,
		Order:       maxOrder + 1,
		Status:      StatusPending,
	}
	if err := s.milestones.Insert(ctx, &m); err != nil {
		return model.Milestone{}, fmt.Errorf("insert milestone: %w", err)
	}

	s.cache.Invalidate(ctx, projectID)
	s.publish(ctx, contracts.RoutingMilestoneCreated, milestonePayload(owner, m))
	return m, nil
}

func (s *Service) UpdateMilestone(ctx context.Context, owner, projectID, milestoneID string, patch model.MilestonePatch) (model.Milestone, error) {
	if _, err := s.ownedProject(ctx, owner, projectID); err != nil {
		return model.Milestone{}, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return model.Milestone{}, invalid("Milestone name cannot be empty.")
	}
	if patch.DueDate != nil && patch.DueDate.IsZero() {
		return model.Milestone{}, invalid("Due date cannot be cleared.")
	}

	m, err := s.milestones.Update(ctx, projectID, milestoneID, patch)
	if err != nil {
		return model.Milestone{}, err
	}

	s.cache.Invalidate(ctx, projectID)
	s.publish(ctx, contracts.RoutingMilestoneUpdated, milestonePayload(owner, m))
	return m, nil
}

// ReorderMilestones applies new orders. Unknown milestone ids are ignored.
func (s *Service) ReorderMilestones(ctx context.Context, owner, projectID string, entries []model.OrderEntry) error {
	if _, err := s.ownedProject(ctx, owner, projectID); err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID == "" {
			return invalid("Every entry needs a milestone id.")
		}
	}

	if err := s.milestones.Reorder(ctx, projectID, entries); err != nil {
		return fmt.Errorf("reorder milestones: %w", err)
	}

	s.cache.Invalidate(ctx, projectID)
	orders := make([]contracts.MilestoneOrder, len(entries))
	for i, e := range entries {
		orders[i] = contracts.MilestoneOrder{MilestoneID: e.ID, Order: e.Order}
	}
	s.publish(ctx, contracts.RoutingMilestonesReordered, contracts.MilestonesReorderedPayload{
		ProjectID: projectID,
		Owner:     owner,
		Orders:    orders,
	})
	return nil
}

func (s *Service) ownedProject(ctx context.Context, owner, projectID string) (model.Project, error) {
	if owner == "" {
		return model.Project{}, ErrUnauthorized
	}
	return s.projects.FindByID(ctx, owner, projectID)
}

// publish is best effort: the write already happened.
func (s *Service) publish(ctx context.Context, routingKey string, payload any) {
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func milestonePayload(owner string, m model.Milestone) contracts.MilestonePayload {
	return contracts.MilestonePayload{
		MilestoneID: m.ID,
		ProjectID:   m.ProjectID,
		Owner:       owner,
		Name:        m.Name,
		DueDate:     m.DueDate.String(),
		Order:       m.Order,
		Status:      m.Status,
	}
}
