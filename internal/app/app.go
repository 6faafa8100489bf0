// Package app wires the client side together: API client, event bus and
// both stores share one lifetime.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/api"
	"github.com/johnassefatheeth/pm-f-d/internal/config"
	"github.com/johnassefatheeth/pm-f-d/internal/events"
	"github.com/johnassefatheeth/pm-f-d/internal/form"
	"github.com/johnassefatheeth/pm-f-d/internal/milestones"
	"github.com/johnassefatheeth/pm-f-d/internal/projects"
	"github.com/johnassefatheeth/pm-f-d/pkg/circuitbreaker"
	"github.com/johnassefatheeth/pm-f-d/pkg/otel"
)

type App struct {
	Config     *config.Client
	Logger     *zap.Logger
	Bus        *events.Bus
	Client     *api.Client
	Projects   *projects.Store
	Milestones *milestones.Store

	shutdownTracing func()
}

// Option adjusts construction, mostly for tests.
type Option func(*buildOptions)

type buildOptions struct {
	clientOpts []api.Option
}

// WithClientOptions appends options to the API client built by New.
func WithClientOptions(opts ...api.Option) Option {
	return func(b *buildOptions) { b.clientOpts = append(b.clientOpts, opts...) }
}

func New(cfg *config.Client, logger *zap.Logger, opts ...Option) (*App, error) {
	var b buildOptions
	for _, opt := range opts {
		opt(&b)
	}

	shutdown, err := otel.Init(cfg.OTel, logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	clientOpts := []api.Option{
		api.WithToken(cfg.API.Token),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger),
		api.WithBreaker(circuitbreaker.Config{
			FailureThreshold:    cfg.Breaker.FailureThreshold,
			SuccessThreshold:    cfg.Breaker.SuccessThreshold,
			Timeout:             cfg.Breaker.Timeout,
			HalfOpenMaxRequests: cfg.Breaker.HalfOpenMaxRequests,
		}),
	}
	client := api.NewClient(cfg.API.BaseURL, append(clientOpts, b.clientOpts...)...)

	bus := events.NewBus()
	return &App{
		Config:          cfg,
		Logger:          logger,
		Bus:             bus,
		Client:          client,
		Projects:        projects.NewStore(client, bus, logger),
		Milestones:      milestones.NewStore(client, bus, logger),
		shutdownTracing: shutdown,
	}, nil
}

// NewMilestoneForm returns a closed creation form for projectID backed by
// the milestone store.
func (a *App) NewMilestoneForm(projectID string, onClose func()) *form.MilestoneForm {
	return form.NewMilestoneForm(projectID, a.Milestones, onClose, a.Logger)
}

func (a *App) Close() {
	a.Projects.Close()
	a.Milestones.Close()
	a.shutdownTracing()
	_ = a.Logger.Sync()
}
