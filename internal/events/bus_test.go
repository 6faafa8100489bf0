package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(NameMilestoneCreated, func(context.Context, Event) { got = append(got, "first") })
	bus.Subscribe(NameMilestoneCreated, func(context.Context, Event) { got = append(got, "second") })
	bus.Subscribe(NameProjectDetailLoaded, func(context.Context, Event) { got = append(got, "other") })

	bus.Publish(context.Background(), MilestoneCreated{ProjectID: "p1"})

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(NameMilestoneCreated, func(context.Context, Event) { calls++ })

	bus.Publish(context.Background(), MilestoneCreated{})
	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), MilestoneCreated{})

	assert.Equal(t, 1, calls)
}

func TestOn_TypedHandler(t *testing.T) {
	bus := NewBus()
	var got ProjectDetailLoaded
	On(bus, func(_ context.Context, ev ProjectDetailLoaded) { got = ev })

	bus.Publish(context.Background(), ProjectDetailLoaded{
		ProjectID:  "p1",
		Milestones: []model.Milestone{{ID: "m1"}},
	})

	assert.Equal(t, "p1", got.ProjectID)
	assert.Len(t, got.Milestones, 1)
}

func TestBus_HandlerMayPublish(t *testing.T) {
	bus := NewBus()
	var loaded bool
	On(bus, func(ctx context.Context, ev MilestoneCreated) {
		bus.Publish(ctx, ProjectDetailLoaded{ProjectID: ev.ProjectID, Milestones: []model.Milestone{}})
	})
	On(bus, func(context.Context, ProjectDetailLoaded) { loaded = true })

	bus.Publish(context.Background(), MilestoneCreated{ProjectID: "p1"})

	assert.True(t, loaded)
}
