package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/internal/server/service"
)

func TestMemoryProjects_ScopedByOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Projects()
	require.NoError(t, repo.Insert(ctx, &model.Project{ID: "p1", Owner: "alice", Name: "A"}))
	require.NoError(t, repo.Insert(ctx, &model.Project{ID: "p2", Owner: "bob", Name: "B"}))

	list, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)

	_, err = repo.FindByID(ctx, "alice", "p2")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestMemoryMilestones(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Milestones()
	due := model.NewDate(2026, time.July, 1)
	require.NoError(t, repo.Insert(ctx, &model.Milestone{ID: "a", ProjectID: "p1", Order: 1, DueDate: due}))
	require.NoError(t, repo.Insert(ctx, &model.Milestone{ID: "b", ProjectID: "p1", Order: 2, DueDate: due}))

	maxOrder, err := repo.MaxOrder(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, maxOrder)

	require.NoError(t, repo.Reorder(ctx, "p1", []model.OrderEntry{{ID: "a", Order: 5}, {ID: "ghost", Order: 0}}))
	list, err := repo.FindByProjectID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, 5, list[1].Order)

	status := "completed"
	got, err := repo.Update(ctx, "p1", "a", model.MilestonePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)

	_, err = repo.Update(ctx, "p1", "ghost", model.MilestonePatch{Status: &status})
	assert.ErrorIs(t, err, service.ErrNotFound)

	empty, err := repo.FindByProjectID(ctx, "nope")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
