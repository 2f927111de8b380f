package operations

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aeturrell/deploy-api/internal/infrastructure"
)

// TracerName names the tracer of pipeline runs
const TracerName = "github.com/aeturrell/deploy-api/operations"

// Manager orchestrates pipeline runs
type Manager struct {
	registry *Registry
	metrics  *infrastructure.PipelineMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewManager creates a manager over registry; metrics may be nil
func NewManager(registry *Registry, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		metrics:  metrics,
		tracer:   otel.Tracer(TracerName),
		logger:   logger.With(slog.String("component", "operations")),
	}
}

// Registry returns the registry of steps
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Execute runs the named steps in the given order, or every registered step
// in registration order when none are named. Unknown IDs are rejected before
// anything runs. The run stops at the first failing step.
func (m *Manager) Execute(ctx context.Context, stepIDs ...string) (*RunState, error) {
	steps := m.registry.List()
	if len(stepIDs) > 0 {
		steps = make([]Step, 0, len(stepIDs))
		for _, id := range stepIDs {
			step, err := m.registry.Get(id)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		}
	}

	state := NewRunState()
	for _, step := range steps {
		state.Steps[step.ID()] = NewStepState(step.ID(), step.Name())
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := m.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.Int("run.steps", len(steps)),
		))
	defer span.End()

	start := time.Now()
	m.logger.InfoContext(ctx, "Pipeline run started",
		slog.String("run_id", state.ID),
		slog.Int("steps", len(steps)))

	for _, step := range steps {
		if err := m.executeStep(ctx, step, state); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return state, err
		}
	}

	m.logger.InfoContext(ctx, "Pipeline run completed",
		slog.String("run_id", state.ID),
		slog.Duration("duration", time.Since(start)))
	return state, nil
}

func (m *Manager) executeStep(ctx context.Context, step Step, state *RunState) error {
	stepState := state.Steps[step.ID()]

	ctx, span := m.tracer.Start(ctx, "pipeline.step."+step.ID(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("step.id", step.ID()),
		))
	defer span.End()

	if err := ctx.Err(); err != nil {
		stepState.Fail(err)
		return &StepError{StepID: step.ID(), Err: err}
	}

	stepState.Start()
	m.logger.InfoContext(ctx, "Step started",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))

	err := step.Execute(ctx, state)
	if err != nil {
		stepState.Fail(err)
	} else {
		stepState.Complete()
	}
	m.metrics.RecordStep(ctx, step.ID(), stepState.Duration(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.ErrorContext(ctx, "Step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", stepState.Duration()),
			slog.String("error", err.Error()))
		return &StepError{StepID: step.ID(), Err: err}
	}

	m.logger.InfoContext(ctx, "Step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", stepState.Duration()))
	return nil
}
