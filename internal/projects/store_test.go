package projects

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/api"
	"github.com/johnassefatheeth/pm-f-d/internal/events"
	"github.com/johnassefatheeth/pm-f-d/internal/milestones"
	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

type fakeAPI struct {
	list    []model.Project
	created model.Project
	detail  model.Project
	err     error

	milestone model.Milestone
}

func (f *fakeAPI) ListProjects(context.Context) ([]model.Project, error) { return f.list, f.err }

func (f *fakeAPI) CreateProject(context.Context, model.ProjectInput) (model.Project, error) {
	return f.created, f.err
}

func (f *fakeAPI) GetProject(context.Context, string) (model.Project, error) { return f.detail, f.err }

func (f *fakeAPI) CreateMilestone(context.Context, string, model.MilestoneInput) (model.Milestone, error) {
	return f.milestone, f.err
}

func (f *fakeAPI) UpdateMilestone(context.Context, string, string, model.MilestonePatch) (model.Milestone, error) {
	return model.Milestone{}, f.err
}

func (f *fakeAPI) ReorderMilestones(context.Context, string, []model.OrderEntry) error { return f.err }

func setup(t *testing.T, fake *fakeAPI) (*Store, *milestones.Store) {
	t.Helper()
	bus := events.NewBus()
	ps := NewStore(fake, bus, zap.NewNop())
	mst := milestones.NewStore(fake, bus, zap.NewNop())
	t.Cleanup(func() {
		ps.Close()
		mst.Close()
	})
	return ps, mst
}

func TestFetchAll_ReplacesList(t *testing.T) {
	fake := &fakeAPI{list: []model.Project{{ID: "p1"}, {ID: "p2"}}}
	s, _ := setup(t, fake)

	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	fake.list = []model.Project{{ID: "p3"}}
	_, err = s.FetchAll(context.Background())
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, []model.Project{{ID: "p3"}}, st.Projects)
	assert.False(t, st.IsLoading)
}

func TestCreate_Appends(t *testing.T) {
	fake := &fakeAPI{list: []model.Project{{ID: "p1"}}, created: model.Project{ID: "p2", Name: "Apollo"}}
	s, _ := setup(t, fake)
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	_, err = s.Create(context.Background(), model.ProjectInput{Name: "Apollo"})
	require.NoError(t, err)

	got := s.Projects()
	require.Len(t, got, 2)
	assert.Equal(t, "Apollo", got[1].Name)
}

func TestFetchDetail_AlignsMilestoneStore(t *testing.T) {
	fake := &fakeAPI{detail: model.Project{
		ID:         "p1",
		Milestones: []model.Milestone{{ID: "m1", Order: 1}, {ID: "m2", Order: 2}},
	}}
	s, mst := setup(t, fake)

	_, err := s.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)

	cur, ok := s.CurrentProject()
	require.True(t, ok)
	assert.Equal(t, "p1", cur.ID)
	if diff := cmp.Diff(cur.Milestones, mst.Milestones()); diff != "" {
		t.Errorf("milestone store not aligned (-project +store):\n%s", diff)
	}
}

func TestFetchDetail_WithoutMilestones(t *testing.T) {
	fake := &fakeAPI{detail: model.Project{ID: "p1", Name: "Bare"}}
	s, mst := setup(t, fake)
	mst.SetMilestones([]model.Milestone{{ID: "stale"}})

	_, err := s.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)

	assert.Empty(t, mst.Milestones())
	assert.NotNil(t, mst.Milestones())
	assert.Empty(t, mst.State().Error)
	assert.Empty(t, s.State().Error)
}

func TestMilestoneCreated_UpdatesBothStores(t *testing.T) {
	fake := &fakeAPI{
		detail:    model.Project{ID: "p1", Milestones: []model.Milestone{{ID: "m1", Order: 1}}},
		milestone: model.Milestone{ID: "m2", Name: "Beta", Order: 2},
	}
	s, mst := setup(t, fake)
	_, err := s.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)

	_, err = mst.Create(context.Background(), "p1", model.MilestoneInput{Name: "Beta"})
	require.NoError(t, err)

	cur, _ := s.CurrentProject()
	assert.Len(t, mst.Milestones(), 2)
	require.Len(t, cur.Milestones, 2)
	assert.Equal(t, "m2", cur.Milestones[1].ID)
	assert.Equal(t, mst.Milestones()[1], cur.Milestones[1])
	assert.False(t, s.State().IsLoading)
}

func TestMilestoneCreated_WithoutCurrentProjectIsIgnored(t *testing.T) {
	fake := &fakeAPI{milestone: model.Milestone{ID: "m1"}}
	s, mst := setup(t, fake)

	_, err := mst.Create(context.Background(), "p1", model.MilestoneInput{Name: "x"})
	require.NoError(t, err)

	_, ok := s.CurrentProject()
	assert.False(t, ok)
	assert.Len(t, mst.Milestones(), 1)
}

func TestUpdateAndReorder_DoNotTouchCurrentProject(t *testing.T) {
	fake := &fakeAPI{detail: model.Project{ID: "p1", Milestones: []model.Milestone{{ID: "a", Order: 1}, {ID: "b", Order: 2}}}}
	s, mst := setup(t, fake)
	_, err := s.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)

	require.NoError(t, mst.Reorder(context.Background(), "p1", []model.OrderEntry{{ID: "a", Order: 2}, {ID: "b", Order: 1}}))

	cur, _ := s.CurrentProject()
	assert.Equal(t, "a", cur.Milestones[0].ID)
	assert.Equal(t, "b", mst.Milestones()[0].ID)
}

func TestRejection(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		run     func(s *Store) error
	}{
		{
			name:    "fetch all",
			err:     &api.Error{StatusCode: 401, Message: "Not authorized"},
			wantMsg: "Not authorized",
			run:     func(s *Store) error { _, err := s.FetchAll(context.Background()); return err },
		},
		{
			name:    "create",
			err:     errors.New("dial tcp: refused"),
			wantMsg: api.FallbackMessage,
			run: func(s *Store) error {
				_, err := s.Create(context.Background(), model.ProjectInput{Name: "x"})
				return err
			},
		},
		{
			name:    "fetch detail",
			err:     &api.Error{StatusCode: 404, Message: "Project not found"},
			wantMsg: "Project not found",
			run:     func(s *Store) error { _, err := s.FetchDetail(context.Background(), "nope"); return err },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAPI{list: []model.Project{{ID: "p1"}}}
			s, _ := setup(t, fake)
			_, err := s.FetchAll(context.Background())
			require.NoError(t, err)

			fake.err = tt.err
			require.ErrorIs(t, tt.run(s), tt.err)

			st := s.State()
			assert.False(t, st.IsLoading)
			assert.Equal(t, tt.wantMsg, st.Error)
			assert.Equal(t, []model.Project{{ID: "p1"}}, st.Projects)
			assert.Nil(t, st.CurrentProject)

			s.ClearError()
			assert.Empty(t, s.State().Error)
		})
	}
}

func TestState_IsADeepCopy(t *testing.T) {
	fake := &fakeAPI{detail: model.Project{ID: "p1", Milestones: []model.Milestone{{ID: "m1", Name: "A"}}}}
	s, _ := setup(t, fake)
	_, err := s.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)

	st := s.State()
	st.CurrentProject.Milestones[0].Name = "mutated"

	cur, _ := s.CurrentProject()
	assert.Equal(t, "A", cur.Milestones[0].Name)
}
