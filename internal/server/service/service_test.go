package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contracts "github.com/johnassefatheeth/pm-f-d/contracts/mq"
	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/internal/server/repository"
	"github.com/johnassefatheeth/pm-f-d/internal/server/service"
)

type published struct {
	key     string
	payload any
}

type recordingPublisher struct {
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.events = append(p.events, published{key: key, payload: payload})
	return p.err
}

func (p *recordingPublisher) keys() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.key
	}
	return out
}

type mapCache struct {
	entries     map[string]model.Project
	invalidated []string
}

func (c *mapCache) Get(_ context.Context, id string) (model.Project, bool) {
	p, ok := c.entries[id]
	return p, ok
}

func (c *mapCache) Set(_ context.Context, p model.Project) { c.entries[p.ID] = p }

func (c *mapCache) Invalidate(_ context.Context, id string) {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}

type fixture struct {
	svc   *service.Service
	pub   *recordingPublisher
	cache *mapCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := repository.NewMemory()
	pub := &recordingPublisher{}
	cache := &mapCache{entries: map[string]model.Project{}}
	svc := service.New(mem.Projects(), mem.Milestones(), zap.NewNop(),
		service.WithCache(cache),
		service.WithPublisher(pub),
	)
	return fixture{svc: svc, pub: pub, cache: cache}
}

var due = model.NewDate(2026, time.August, 15)

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProject(ctx, "alice", model.ProjectInput{Name: "  Apollo ", Description: "moon"})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Apollo", p.Name)
	assert.Equal(t, service.StatusActive, p.Status)
	assert.Equal(t, []string{contracts.RoutingProjectCreated}, f.pub.keys())

	list, err := f.svc.ListProjects(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	others, err := f.svc.ListProjects(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, others)
	assert.Empty(t, others)
}

func TestCreateProject_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateProject(context.Background(), "alice", model.ProjectInput{Name: " "})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.svc.CreateProject(context.Background(), "", model.ProjectInput{Name: "x"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestCreateMilestone_AssignsNextOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, "alice", model.ProjectInput{Name: "Apollo"})
	require.NoError(t, err)

	first, err := f.svc.CreateMilestone(ctx, "alice", p.ID, model.MilestoneInput{Name: "Alpha", DueDate: due})
	require.NoError(t, err)
	second, err := f.svc.CreateMilestone(ctx, "alice", p.ID, model.MilestoneInput{Name: "Beta", DueDate: due})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)
	assert.Equal(t, p.ID, second.ProjectID)
	assert.Equal(t, service.StatusPending, second.Status)
	assert.Equal(t, []string{p.ID, p.ID}, f.cache.invalidated)

	payload, ok := f.pub.events[2].payload.(contracts.MilestonePayload)
	require.True(t, ok)
	assert.Equal(t, contracts.RoutingMilestoneCreated, f.pub.events[2].key)
	assert.Equal(t, "2026-08-15", payload.DueDate)
}

func TestCreateMilestone_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, "alice", model.ProjectInput{Name: "Apollo"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		owner   string
		project string
		in      model.MilestoneInput
		want    error
	}{
		{name: "missing name", owner: "alice", project: p.ID, in: model.MilestoneInput{DueDate: due}, want: service.ErrInvalidInput},
		{name: "missing due date", owner: "alice", project: p.ID, in: model.MilestoneInput{Name: "x"}, want: service.ErrInvalidInput},
		{name: "unknown project", owner: "alice", project: "nope", in: model.MilestoneInput{Name: "x", DueDate: due}, want: service.ErrNotFound},
		{name: "foreign project", owner: "bob", project: p.ID, in: model.MilestoneInput{Name: "x", DueDate: due}, want: service.ErrNotFound},
		{name: "anonymous", owner: "", project: p.ID, in: model.MilestoneInput{Name: "x", DueDate: due}, want: service.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateMilestone(ctx, tt.owner, tt.project, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetProject_OrdersMilestonesAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, "alice", model.ProjectInput{Name: "Apollo"})
	require.NoError(t, err)

	bare, err := f.svc.GetProject(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.NotNil(t, bare.Milestones)
	assert.Empty(t, bare.Milestones)

	a, _ := f.svc.CreateMilestone(ctx, "alice", p.ID, model.MilestoneInput{Name: "A", DueDate: due})
	b, _ := f.svc.CreateMilestone(ctx, "alice", p.ID, model.MilestoneInput{Name: "B", DueDate: due})
	require.NoError(t, f.svc.ReorderMilestones(ctx, "alice", p.ID, []model.OrderEntry{{ID: a.ID, Order: 2}, {ID: b.ID, Order: 1}}))

	got, err := f.svc.GetProject(ctx, "alice", p.ID)
	require.NoError(t, err)
	require.Len(t, got.Milestones, 2)
	assert.Equal(t, b.ID, got.Milestones[0].ID)
	assert.Equal(t, a.ID, got.Milestones[1].ID)

	cached, ok := f.cache.entries[p.ID]
	require.True(t, ok)
	assert.Len(t, cached.Milestones, 2)

	_, err = f.svc.GetProject(ctx, "bob", p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateMilestone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.svc.CreateProject(ctx, "alice", model.ProjectInput{Name: "Apollo"})
	m, _ := f.svc.CreateMilestone(ctx, "alice", p.ID, model.MilestoneInput{Name: "A", DueDate: due})

	status := "in_progress"
	got, err := f.svc.UpdateMilestone(ctx, "alice", p.ID, m.ID, model.MilestonePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", got.Status)
	assert.Equal(t, "A", got.Name)

	_, err = f.svc.UpdateMilestone(ctx, "alice", p.ID, "ghost", model.MilestonePatch{Status: &status})
	assert.ErrorIs(t, err, service.ErrNotFound)

	blank := ""
	_, err = f.svc.UpdateMilestone(ctx, "alice", p.ID, m.ID, model.MilestonePatch{Name: &blank})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestReorderMilestones_RequiresIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.svc.CreateProject(ctx, "alice", model.ProjectInput{Name: "Apollo"})

	err := f.svc.ReorderMilestones(ctx, "alice", p.ID, []model.OrderEntry{{Order: 1}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	p, err := f.svc.CreateProject(context.Background(), "alice", model.ProjectInput{Name: "Apollo"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
}

func TestInvalidInputMessage(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateProject(context.Background(), "alice", model.ProjectInput{})
	assert.Equal(t, fmt.Sprintf("%s: Project name is required.", service.ErrInvalidInput), err.Error())
}
