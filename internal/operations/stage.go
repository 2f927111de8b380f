package operations

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aeturrell/deploy-api/internal/scraper"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// Step represents a single step of the pipeline
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Execute runs the step, reading and writing shared results through state
	Execute(ctx context.Context, state *RunState) error
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepState represents the runtime state of a step
type StepState struct {
	mu        sync.RWMutex
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Error     error      `json:"-"`
}

// NewStepState creates a pending step state
func NewStepState(id, name string) *StepState {
	return &StepState{ID: id, Name: name, Status: StepStatusPending}
}

// Start marks the step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the step as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns how long the step ran, or has been running
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// RunState is shared by the steps of one run
type RunState struct {
	mu        sync.RWMutex
	ID        string
	Steps     map[string]*StepState
	downloads *scraper.DownloadResult
	dataset   *domain.TidyDataset
}

// NewRunState creates the state of a new run with a random ID
func NewRunState() *RunState {
	return &RunState{
		ID:    uuid.NewString(),
		Steps: make(map[string]*StepState),
	}
}

// SetDownloads records the result of the extract step
func (s *RunState) SetDownloads(result *scraper.DownloadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = result
}

// Downloads returns the extract result, if the step ran
func (s *RunState) Downloads() *scraper.DownloadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.downloads
}

// SetDataset records the dataset assembled by the transform step
func (s *RunState) SetDataset(dataset *domain.TidyDataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = dataset
}

// Dataset returns the assembled dataset, if the transform step ran
func (s *RunState) Dataset() *domain.TidyDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// BaseStep provides ID and Name for step implementations
type BaseStep struct {
	id   string
	name string
}

// NewBaseStep creates a new base step
func NewBaseStep(id, name string) BaseStep {
	return BaseStep{id: id, name: name}
}

// ID returns the step ID
func (b *BaseStep) ID() string {
	return b.id
}

// Name returns the step name
func (b *BaseStep) Name() string {
	return b.name
}
