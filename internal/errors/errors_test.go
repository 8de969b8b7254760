package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	base := fmt.Errorf("device open failed")
	err := New(base).
		Component("myaudio").
		Category(CategoryCaptureUnavailable).
		Context("source", "sysdefault").
		Build()

	assert.Equal(t, "device open failed", err.Error())
	assert.Equal(t, "myaudio", err.Component)
	assert.Equal(t, CategoryCaptureUnavailable, err.Category)
	assert.ErrorIs(t, err, base)
	assert.False(t, err.Timestamp.IsZero())
}

func TestErrorBuilderDefaults(t *testing.T) {
	err := Newf("boom").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Nil(t, err.GetContext())
}

func TestGetContextReturnsCopy(t *testing.T) {
	err := Newf("boom").Context("key", "value").Build()

	ctx := err.GetContext()
	ctx["key"] = "mutated"
	assert.Equal(t, "value", err.GetContext()["key"])
}

func TestHasCategoryThroughWrapping(t *testing.T) {
	inner := Newf("access denied").
		Component("myaudio").
		Category(CategoryCapturePermission).
		Build()
	wrapped := fmt.Errorf("starting session: %w", inner)

	assert.True(t, HasCategory(wrapped, CategoryCapturePermission))
	assert.False(t, HasCategory(wrapped, CategoryCaptureUnavailable))
	assert.False(t, HasCategory(fmt.Errorf("plain"), CategoryCapturePermission))
}

func TestCapturePredicates(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		predicate func(error) bool
	}{
		{CategoryCaptureUnavailable, IsCaptureUnavailable},
		{CategoryCapturePermission, IsCapturePermissionDenied},
		{CategoryCaptureUnsupported, IsCaptureUnsupported},
		{CategoryAnalysisInit, IsAnalysisInitFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := Newf("failure").Category(tt.category).Build()
			assert.True(t, tt.predicate(err))
			assert.False(t, tt.predicate(Newf("other").Category(CategoryGeneric).Build()))
		})
	}
}

func TestEnhancedErrorIsMatchesByCategory(t *testing.T) {
	err := Newf("no input device").Category(CategoryCaptureUnavailable).Build()
	target := &EnhancedError{Category: CategoryCaptureUnavailable}

	require.ErrorIs(t, err, target)
	assert.NotErrorIs(t, err, &EnhancedError{Category: CategoryCapturePermission})
}

func TestLogAttrs(t *testing.T) {
	err := Newf("boom").
		Component("engine").
		Category(CategoryFrameMalformed).
		Context("frame_length", 100).
		Build()

	attrs := err.LogAttrs()
	assert.Contains(t, attrs, "component")
	assert.Contains(t, attrs, "engine")
	assert.Contains(t, attrs, string(CategoryFrameMalformed))
	assert.Contains(t, attrs, "frame_length")
}
