package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/internal/server/service"
)

// Memory keeps projects and milestones in process. projectd uses it when
// no database is configured; tests use it everywhere.
type Memory struct {
	mu         sync.RWMutex
	projects   []model.Project
	milestones map[string][]model.Milestone // by project id
}

func NewMemory() *Memory {
	return &Memory{milestones: make(map[string][]model.Milestone)}
}

// Projects returns m as a service.ProjectRepository.
func (m *Memory) Projects() *MemoryProjects { return (*MemoryProjects)(m) }

// Milestones returns m as a service.MilestoneRepository.
func (m *Memory) Milestones() *MemoryMilestones { return (*MemoryMilestones)(m) }

type MemoryProjects Memory

func (r *MemoryProjects) ListByOwner(_ context.Context, owner string) ([]model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Project{}
	for _, p := range r.projects {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryProjects) Insert(_ context.Context, p *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *p
	stored.Milestones = nil
	r.projects = append(r.projects, stored)
	return nil
}

func (r *MemoryProjects) FindByID(_ context.Context, owner, projectID string) (model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if p.ID == projectID && p.Owner == owner {
			return p, nil
		}
	}
	return model.Project{}, service.ErrNotFound
}

type MemoryMilestones Memory

func (r *MemoryMilestones) FindByProjectID(_ context.Context, projectID string) ([]model.Milestone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := model.CloneMilestones(r.milestones[projectID])
	if out == nil {
		out = []model.Milestone{}
	}
	slices.SortStableFunc(out, func(a, b model.Milestone) int { return cmp.Compare(a.Order, b.Order) })
	return out, nil
}

func (r *MemoryMilestones) MaxOrder(_ context.Context, projectID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	maxOrder := 0
	for _, m := range r.milestones[projectID] {
		maxOrder = max(maxOrder, m.Order)
	}
	return maxOrder, nil
}

func (r *MemoryMilestones) Insert(_ context.Context, m *model.Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.milestones[m.ProjectID] = append(r.milestones[m.ProjectID], *m)
	return nil
}

func (r *MemoryMilestones) Update(_ context.Context, projectID, milestoneID string, patch model.MilestonePatch) (model.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.milestones[projectID]
	for i := range list {
		if list[i].ID == milestoneID {
			list[i] = patch.Apply(list[i])
			return list[i], nil
		}
	}
	return model.Milestone{}, service.ErrNotFound
}

func (r *MemoryMilestones) Reorder(_ context.Context, projectID string, entries []model.OrderEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.milestones[projectID]
	for _, e := range entries {
		for i := range list {
			if list[i].ID == e.ID {
				list[i].Order = e.Order
			}
		}
	}
	return nil
}

var (
	_ service.ProjectRepository   = (*MemoryProjects)(nil)
	_ service.MilestoneRepository = (*MemoryMilestones)(nil)
	_ service.ProjectRepository   = (*PostgresProjects)(nil)
	_ service.MilestoneRepository = (*PostgresMilestones)(nil)
)
