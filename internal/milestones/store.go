// Package milestones holds the client-side milestone collection of the
// project being viewed and keeps it in step with the server.
package milestones

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/api"
	"github.com/johnassefatheeth/pm-f-d/internal/events"
	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/pkg/metrics"
)

const storeName = "milestones"

// API is the subset of the remote client the store needs.
type API interface {
	CreateMilestone(ctx context.Context, projectID string, in model.MilestoneInput) (model.Milestone, error)
	UpdateMilestone(ctx context.Context, projectID, milestoneID string, patch model.MilestonePatch) (model.Milestone, error)
	ReorderMilestones(ctx context.Context, projectID string, entries []model.OrderEntry) error
}

// State is a snapshot of the store. An empty Error means no error.
type State struct {
	Milestones []model.Milestone
	IsLoading  bool
	Error      string
}

type Store struct {
	api    API
	bus    *events.Bus
	logger *zap.Logger

	mu    sync.Mutex
	state State

	unsubscribe func()
}

// NewStore returns an empty store subscribed to project detail loads on bus.
func NewStore(client API, bus *events.Bus, logger *zap.Logger) *Store {
	s := &Store{
		api:    client,
		bus:    bus,
		logger: logger.With(zap.String("store", storeName)),
		state:  State{Milestones: []model.Milestone{}},
	}
	s.unsubscribe = events.On(bus, s.onProjectDetailLoaded)
	return s
}

// Close detaches the store from the bus.
func (s *Store) Close() {
	s.unsubscribe()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()
}

// fail records a rejection. The collection is left as it was.
func (s *Store) fail(err error) {
	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Error = api.Message(err)
	s.mu.Unlock()
}

// Create posts a new milestone and, on success, appends it to the
// collection and announces it on the bus.
func (s *Store) Create(ctx context.Context, projectID string, in model.MilestoneInput) (model.Milestone, error) {
	s.begin()
	m, err := s.api.CreateMilestone(ctx, projectID, in)
	metrics.IncrementStoreOperation(storeName, "create", err)
	if err != nil {
		s.fail(err)
		s.logger.Warn("create milestone failed", zap.String("project_id", projectID), zap.Error(err))
		return model.Milestone{}, err
	}

	s.mu.Lock()
	s.state.Milestones = append(s.state.Milestones, m)
	s.state.IsLoading = false
	s.mu.Unlock()

	s.bus.Publish(ctx, events.MilestoneCreated{ProjectID: projectID, Milestone: m})
	return m, nil
}

// Update patches a milestone and replaces the stored entry with the
// server's copy. A milestone the store does not hold is not added.
func (s *Store) Update(ctx context.Context, projectID, milestoneID string, patch model.MilestonePatch) (model.Milestone, error) {
	s.begin()
	m, err := s.api.UpdateMilestone(ctx, projectID, milestoneID, patch)
	metrics.IncrementStoreOperation(storeName, "update", err)
	if err != nil {
		s.fail(err)
		s.logger.Warn("update milestone failed",
			zap.String("project_id", projectID),
			zap.String("milestone_id", milestoneID),
			zap.Error(err),
		)
		return model.Milestone{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	for i := range s.state.Milestones {
		if s.state.Milestones[i].ID == m.ID {
			s.state.Milestones[i] = m
			break
		}
	}
	return m, nil
}

// Reorder submits new orders. On success the submitted orders are written
// onto the matching milestones and the collection is sorted by order; the
// response body plays no part.
func (s *Store) Reorder(ctx context.Context, projectID string, entries []model.OrderEntry) error {
	s.begin()
	err := s.api.ReorderMilestones(ctx, projectID, entries)
	metrics.IncrementStoreOperation(storeName, "reorder", err)
	if err != nil {
		s.fail(err)
		s.logger.Error("reorder milestones failed", zap.String("project_id", projectID), zap.Error(err))
		return err
	}

	orders := make(map[string]int, len(entries))
	for _, e := range entries {
		orders[e.ID] = e.Order
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	for i := range s.state.Milestones {
		if o, ok := orders[s.state.Milestones[i].ID]; ok {
			s.state.Milestones[i].Order = o
		}
	}
	slices.SortStableFunc(s.state.Milestones, func(a, b model.Milestone) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return nil
}

// SetMilestones replaces the collection wholesale. Nil is stored as empty.
func (s *Store) SetMilestones(ms []model.Milestone) {
	cp := model.CloneMilestones(ms)
	if cp == nil {
		cp = []model.Milestone{}
	}
	s.mu.Lock()
	s.state.Milestones = cp
	s.mu.Unlock()
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) onProjectDetailLoaded(_ context.Context, ev events.ProjectDetailLoaded) {
	s.SetMilestones(ev.Milestones)
	s.logger.Debug("milestones aligned with project",
		zap.String("project_id", ev.ProjectID),
		zap.Int("count", len(ev.Milestones)),
	)
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Milestones = model.CloneMilestones(s.state.Milestones)
	return st
}

func (s *Store) Milestones() []model.Milestone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneMilestones(s.state.Milestones)
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLoading
}
