package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcStep struct {
	BaseStep
	run func(ctx context.Context, state *RunState) error
}

func newFuncStep(id string, run func(ctx context.Context, state *RunState) error) *funcStep {
	return &funcStep{BaseStep: NewBaseStep(id, "step "+id), run: run}
}

func (s *funcStep) Execute(ctx context.Context, state *RunState) error {
	if s.run == nil {
		return nil
	}
	return s.run(ctx, state)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(newFuncStep("extract", nil)))
	require.NoError(t, r.Register(newFuncStep("transform", nil)))

	assert.Equal(t, 2, r.Count())
	assert.True(t, r.Has("extract"))
	assert.False(t, r.Has("load"))
	assert.Equal(t, []string{"extract", "transform"}, r.ListIDs())

	step, err := r.Get("transform")
	require.NoError(t, err)
	assert.Equal(t, "step transform", step.Name())

	_, err = r.Get("load")
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestRegistryRejects(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFuncStep("extract", nil)))

	tests := []struct {
		name string
		step Step
	}{
		{name: "nil step", step: nil},
		{name: "empty id", step: newFuncStep("", nil)},
		{name: "duplicate id", step: newFuncStep("extract", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, r.Register(tt.step))
		})
	}
	assert.Equal(t, 1, r.Count())
}
