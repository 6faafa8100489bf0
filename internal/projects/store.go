// Package projects holds the client-side project list and the project
// currently being viewed.
package projects

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/api"
	"github.com/johnassefatheeth/pm-f-d/internal/events"
	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/pkg/metrics"
)

const storeName = "projects"

type API interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, in model.ProjectInput) (model.Project, error)
	GetProject(ctx context.Context, projectID string) (model.Project, error)
}

// State is a snapshot of the store. CurrentProject is nil until a detail
// fetch succeeds; an empty Error means no error.
type State struct {
	Projects       []model.Project
	CurrentProject *model.Project
	IsLoading      bool
	Error          string
}

type Store struct {
	api    API
	bus    *events.Bus
	logger *zap.Logger

	mu    sync.Mutex
	state State

	unsubscribe func()
}

func NewStore(client API, bus *events.Bus, logger *zap.Logger) *Store {
	s := &Store{
		api:    client,
		bus:    bus,
		logger: logger.With(zap.String("store", storeName)),
		state:  State{Projects: []model.Project{}},
	}
	s.unsubscribe = events.On(bus, s.onMilestoneCreated)
	return s
}

func (s *Store) Close() {
	s.unsubscribe()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) fail(op string, err error) {
	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Error = api.Message(err)
	s.mu.Unlock()
	s.logger.Warn("project request failed", zap.String("operation", op), zap.Error(err))
}

// FetchAll replaces the project list with the server's.
func (s *Store) FetchAll(ctx context.Context) ([]model.Project, error) {
	s.begin()
	list, err := s.api.ListProjects(ctx)
	metrics.IncrementStoreOperation(storeName, "fetch_all", err)
	if err != nil {
		s.fail("fetch_all", err)
		return nil, err
	}
	if list == nil {
		list = []model.Project{}
	}

	s.mu.Lock()
	s.state.Projects = model.CloneProjects(list)
	s.state.IsLoading = false
	s.mu.Unlock()
	return list, nil
}

// Create posts a new project and appends the server's copy to the list.
func (s *Store) Create(ctx context.Context, in model.ProjectInput) (model.Project, error) {
	s.begin()
	p, err := s.api.CreateProject(ctx, in)
	metrics.IncrementStoreOperation(storeName, "create", err)
	if err != nil {
		s.fail("create", err)
		return model.Project{}, err
	}

	s.mu.Lock()
	s.state.Projects = append(s.state.Projects, p.Clone())
	s.state.IsLoading = false
	s.mu.Unlock()
	return p, nil
}

// FetchDetail loads one project as the current project. Its milestones are
// handed to the milestone store before the current project is set.
func (s *Store) FetchDetail(ctx context.Context, projectID string) (model.Project, error) {
	s.begin()
	p, err := s.api.GetProject(ctx, projectID)
	metrics.IncrementStoreOperation(storeName, "fetch_detail", err)
	if err != nil {
		s.fail("fetch_detail", err)
		return model.Project{}, err
	}

	embedded := model.CloneMilestones(p.Milestones)
	if embedded == nil {
		embedded = []model.Milestone{}
	}
	s.bus.Publish(ctx, events.ProjectDetailLoaded{ProjectID: p.ID, Milestones: embedded})

	current := p.Clone()
	s.mu.Lock()
	s.state.CurrentProject = &current
	s.state.IsLoading = false
	s.mu.Unlock()
	return p, nil
}

// onMilestoneCreated mirrors a new milestone into the current project.
// Nothing happens when no project is loaded.
func (s *Store) onMilestoneCreated(_ context.Context, ev events.MilestoneCreated) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentProject == nil {
		return
	}
	s.state.CurrentProject.Milestones = append(s.state.CurrentProject.Milestones, ev.Milestone)
	s.state.IsLoading = false
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Projects:  model.CloneProjects(s.state.Projects),
		IsLoading: s.state.IsLoading,
		Error:     s.state.Error,
	}
	if s.state.CurrentProject != nil {
		cp := s.state.CurrentProject.Clone()
		st.CurrentProject = &cp
	}
	return st
}

// CurrentProject returns a copy of the loaded project, or false when none is.
func (s *Store) CurrentProject() (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentProject == nil {
		return model.Project{}, false
	}
	return s.state.CurrentProject.Clone(), true
}

func (s *Store) Projects() []model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneProjects(s.state.Projects)
}
