// Package form models the milestone creation dialog: its field values,
// validation and submission against the milestone store.
package form

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/api"
	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

const (
	ValidationMessage  = "Milestone name and due date are required."
	InvalidDateMessage = "Due date must be a valid date (YYYY-MM-DD)."
	FallbackMessage    = "Failed to create milestone."
)

var (
	// ErrValidation is returned when the fields cannot be submitted.
	ErrValidation = errors.New("form: invalid input")
	// ErrBusy is returned when a creation request is already in flight.
	ErrBusy = errors.New("form: request in flight")
)

// Creator is the milestone store as seen by the form.
type Creator interface {
	Create(ctx context.Context, projectID string, in model.MilestoneInput) (model.Milestone, error)
	IsLoading() bool
}

// State is what the dialog renders. DueDate is the raw text typed by the user.
type State struct {
	Open        bool
	Name        string
	Description string
	DueDate     string
	Error       string
	Submitting  bool
}

type MilestoneForm struct {
	projectID string
	creator   Creator
	onClose   func()
	logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// NewMilestoneForm binds a closed, empty form to projectID. onClose may be nil.
func NewMilestoneForm(projectID string, creator Creator, onClose func(), logger *zap.Logger) *MilestoneForm {
	return &MilestoneForm{
		projectID: projectID,
		creator:   creator,
		onClose:   onClose,
		logger:    logger.With(zap.String("form", "create_milestone"), zap.String("project_id", projectID)),
	}
}

func (f *MilestoneForm) Open() {
	f.mu.Lock()
	f.state.Open = true
	f.mu.Unlock()
}

// Close resets every field and the error, then calls onClose.
func (f *MilestoneForm) Close() {
	f.mu.Lock()
	f.state = State{}
	f.mu.Unlock()
	if f.onClose != nil {
		f.onClose()
	}
}

func (f *MilestoneForm) SetName(v string) {
	f.mu.Lock()
	f.state.Name = v
	f.mu.Unlock()
}

func (f *MilestoneForm) SetDescription(v string) {
	f.mu.Lock()
	f.state.Description = v
	f.mu.Unlock()
}

func (f *MilestoneForm) SetDueDate(v string) {
	f.mu.Lock()
	f.state.DueDate = v
	f.mu.Unlock()
}

func (f *MilestoneForm) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates the fields and asks the store to create the milestone.
// On success the form closes; on failure it stays open with a message.
func (f *MilestoneForm) Submit(ctx context.Context) (model.Milestone, error) {
	f.mu.Lock()
	f.state.Error = ""

	rawDate := strings.TrimSpace(f.state.DueDate)
	if strings.TrimSpace(f.state.Name) == "" || rawDate == "" {
		f.state.Error = ValidationMessage
		f.mu.Unlock()
		return model.Milestone{}, ErrValidation
	}
	due, err := model.ParseDate(rawDate)
	if err != nil {
		f.state.Error = InvalidDateMessage
		f.mu.Unlock()
		return model.Milestone{}, errors.Join(ErrValidation, err)
	}
	if f.state.Submitting || f.creator.IsLoading() {
		f.mu.Unlock()
		return model.Milestone{}, ErrBusy
	}
	f.state.Submitting = true
	in := model.MilestoneInput{Name: f.state.Name, Description: f.state.Description, DueDate: due}
	f.mu.Unlock()

	m, err := f.creator.Create(ctx, f.projectID, in)

	if err != nil {
		f.mu.Lock()
		f.state.Submitting = false
		f.state.Error = failureMessage(err)
		f.mu.Unlock()
		f.logger.Info("milestone not created", zap.Error(err))
		return model.Milestone{}, err
	}

	f.Close()
	return m, nil
}

func failureMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}
