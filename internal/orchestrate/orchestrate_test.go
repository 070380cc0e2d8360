package orchestrate

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/NicabarNimble/go-gitws/internal/progress"
)

func okTask(name string, value int, delay time.Duration) Task[int] {
	return Task[int]{Name: name, Run: func(ctx context.Context, tr progress.Tracker) (int, error) {
		tr.Start("working")
		time.Sleep(delay)
		return value, nil
	}}
}

func failTask(name string, err error) Task[int] {
	return Task[int]{Name: name, Run: func(context.Context, progress.Tracker) (int, error) {
		return 0, err
	}}
}

func TestRunAllKeepsInputOrder(t *testing.T) {
	boom := errors.New("clone failed")
	var buf bytes.Buffer

	results := RunAll(context.Background(), progress.NewBoard(&buf), []Task[int]{
		okTask("a", 1, 30*time.Millisecond),
		failTask("b", boom),
		okTask("c", 3, 0),
	})

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, Succeeded, results[0].State)
	assert.Equal(t, 1, results[0].Value)

	assert.Equal(t, "b", results[1].Name)
	assert.Equal(t, Failed, results[1].State)
	assert.ErrorIs(t, results[1].Err, boom)

	assert.Equal(t, "c", results[2].Name)
	assert.Equal(t, Succeeded, results[2].State)
	assert.Equal(t, 3, results[2].Value)

	assert.Equal(t, Failed, results[1].State)
	assert.Contains(t, buf.String(), "clone failed")
}

func TestRunAllFailureDoesNotCancelSiblings(t *testing.T) {
	var sawCancel atomic.Bool
	slow := Task[int]{Name: "slow", Run: func(ctx context.Context, _ progress.Tracker) (int, error) {
		select {
		case <-ctx.Done():
			sawCancel.Store(true)
			return 0, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return 1, nil
		}
	}}

	results := RunAll(context.Background(), nil, []Task[int]{failTask("fast", errors.New("x")), slow})
	assert.False(t, sawCancel.Load())
	assert.Equal(t, Succeeded, results[1].State)
}

func TestRunAllRecoversPanics(t *testing.T) {
	results := RunAll(context.Background(), nil, []Task[int]{
		{Name: "bad", Run: func(context.Context, progress.Tracker) (int, error) {
			panic("nil map write")
		}},
		okTask("good", 2, 0),
	})

	assert.Equal(t, Failed, results[0].State)
	var pe *PanicError
	require.ErrorAs(t, results[0].Err, &pe)
	assert.Equal(t, "nil map write", pe.Value)
	assert.NotEmpty(t, pe.Stack)

	assert.Equal(t, Succeeded, results[1].State)
}

func TestRunAllEmpty(t *testing.T) {
	assert.Empty(t, RunAll[int](context.Background(), nil, nil))
}

func TestRunAllOrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		outcomes := rapid.SliceOfN(rapid.Bool(), 0, 12).Draw(t, "outcomes")

		tasks := make([]Task[int], len(outcomes))
		for i, ok := range outcomes {
			if ok {
				tasks[i] = okTask("t", i, time.Duration(len(outcomes)-i)*time.Millisecond)
			} else {
				tasks[i] = failTask("t", errors.New("fail"))
			}
		}

		results := RunAll(context.Background(), nil, tasks)
		if len(results) != len(tasks) {
			t.Fatalf("got %d results for %d tasks", len(results), len(tasks))
		}
		for i, ok := range outcomes {
			if ok && (results[i].State != Succeeded || results[i].Value != i) {
				t.Fatalf("result %d = %+v, want success with value %d", i, results[i], i)
			}
			if !ok && results[i].State != Failed {
				t.Fatalf("result %d = %+v, want failure", i, results[i])
			}
		}
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
