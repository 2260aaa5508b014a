package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	err := Newf("frame length mismatch: got %d, want %d", 441, 480).
		Component("capture").
		Category(CategoryValidation).
		Context("sample_rate", 48000).
		Build()

	require.NotNil(t, err)
	assert.Equal(t, "capture", err.GetComponent())
	assert.Equal(t, string(CategoryValidation), err.GetCategory())
	assert.Equal(t, 48000, err.GetContext()["sample_rate"])
	assert.Contains(t, err.Error(), "frame length mismatch")
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("disposed")
	wrapped := New(fmt.Errorf("write failed: %w", sentinel)).
		Category(CategoryBuffer).
		Build()

	assert.True(t, Is(wrapped, sentinel))
}

func TestCategoryMatching(t *testing.T) {
	t.Parallel()

	validation := ValidationError("zero channel count")
	assert.True(t, IsValidation(validation))
	assert.False(t, IsConfiguration(validation))

	config := ConfigError(NewStd("no capture device"))
	assert.True(t, IsConfiguration(config))
	assert.Equal(t, PriorityCritical, config.GetPriority())
}

func TestCategoryDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  string
		want ErrorCategory
	}{
		{"device error", "failed to open device", CategoryAudioSource},
		{"buffer error", "ring buffer full", CategoryBuffer},
		{"validation error", "invalid sample count", CategoryValidation},
		{"unknown", "something happened", CategoryGeneric},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Newf("%s", tt.msg).Build()
			assert.Equal(t, tt.want, err.Category)
		})
	}
}

func TestPriorityValidation(t *testing.T) {
	t.Parallel()

	err := New(NewStd("test")).Priority("bogus").Build()
	assert.Equal(t, PriorityMedium, err.GetPriority())

	err = New(NewStd("test")).Priority(PriorityHigh).Build()
	assert.Equal(t, PriorityHigh, err.GetPriority())

	err = New(NewStd("test")).Build()
	assert.Empty(t, err.GetPriority())
}

func TestContextCopyIsolated(t *testing.T) {
	t.Parallel()

	err := New(NewStd("test")).Context("k", "v").Build()
	ctx := err.GetContext()
	ctx["k"] = "mutated"
	assert.Equal(t, "v", err.GetContext()["k"])
}
