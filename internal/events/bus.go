// Package events is the in-process notification bus the stores use to
// keep each other aligned without importing one another.
package events

import (
	"context"
	"sync"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

const (
	NameMilestoneCreated    = "milestone.created"
	NameProjectDetailLoaded = "project.detail_loaded"
)

type Event interface {
	EventName() string
}

// MilestoneCreated is published after the server accepted a new milestone.
type MilestoneCreated struct {
	ProjectID string
	Milestone model.Milestone
}

func (MilestoneCreated) EventName() string { return NameMilestoneCreated }

// ProjectDetailLoaded carries the embedded milestones of a freshly fetched
// project. Milestones is never nil.
type ProjectDetailLoaded struct {
	ProjectID  string
	Milestones []model.Milestone
}

func (ProjectDetailLoaded) EventName() string { return NameProjectDetailLoaded }

type Handler func(ctx context.Context, ev Event)

type subscription struct {
	id uint64
	fn Handler
}

// Bus delivers events synchronously, in subscription order, on the
// publisher's goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers fn for events named name and returns a function that
// removes the registration.
func (b *Bus) Subscribe(name string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[name]
			for i, s := range list {
				if s.id == id {
					b.subs[name] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish calls every handler subscribed to ev's name. Handlers may
// publish further events.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	list := b.subs[ev.EventName()]
	handlers := make([]Handler, len(list))
	for i, s := range list {
		handlers[i] = s.fn
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
}

// On subscribes a handler typed to a concrete event.
func On[T Event](b *Bus, fn func(ctx context.Context, ev T)) (unsubscribe func()) {
	var zero T
	return b.Subscribe(zero.EventName(), func(ctx context.Context, ev Event) {
		if typed, ok := ev.(T); ok {
			fn(ctx, typed)
		}
	})
}
