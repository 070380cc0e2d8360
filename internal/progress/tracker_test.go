package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTracker_Start(t *testing.T) {
	tracker := &DefaultTracker{}
	op := tracker.Start("test operation")

	require.NotNil(t, op)
	assert.Equal(t, "test operation", op.Name)
	assert.False(t, op.StartTime.IsZero())
	assert.Equal(t, StatusInProgress, op.Status)
	assert.Empty(t, op.RateHistory)
}

func TestDefaultTracker_StatusTransitions(t *testing.T) {
	tracker := &DefaultTracker{}

	op := tracker.Start("normal operation")
	tracker.Complete()
	assert.Equal(t, StatusCompleted, op.Status)

	op = tracker.Start("failing operation")
	tracker.Error(errors.New("test error"))
	assert.Equal(t, StatusFailed, op.Status)
}

func TestDefaultTracker_EdgeCases(t *testing.T) {
	tracker := &DefaultTracker{}

	tracker.Update(50, 100)
	tracker.Complete()
	tracker.Error(errors.New("test error"))
	assert.Nil(t, tracker.CurrentOperation)
}

func TestOperationObserve(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	op := newOperation("Receiving objects", start)

	op.observe(0, 100, start)
	assert.True(t, op.EstimatedETA.IsZero(), "no rate before the first non-zero sample")

	for i := 1; i <= 5; i++ {
		op.observe(int64(i*10), 100, start.Add(time.Duration(i)*time.Second))
	}

	assert.Equal(t, int64(50), op.LastCurrent)
	assert.Equal(t, int64(100), op.LastTotal)
	assert.InDelta(t, 10.0, op.ProgressRate, 0.001)
	assert.Equal(t, start.Add(10*time.Second), op.EstimatedETA)
	assert.Equal(t, 50, op.Percent())
}

func TestOperationRateHistoryBounded(t *testing.T) {
	start := time.Now()
	op := newOperation("x", start)
	for i := 1; i <= rateHistorySize+5; i++ {
		op.observe(int64(i), 1000, start.Add(time.Duration(i)*time.Millisecond))
		assert.LessOrEqual(t, len(op.RateHistory), rateHistorySize)
	}
}

func TestOperationPercent(t *testing.T) {
	op := newOperation("x", time.Now())
	assert.Equal(t, -1, op.Percent())

	op.LastCurrent, op.LastTotal = 150, 100
	assert.Equal(t, 100, op.Percent())
}
