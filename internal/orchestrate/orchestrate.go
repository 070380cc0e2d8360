// Package orchestrate runs independent tasks concurrently and collects
// their results in input order. A failing or panicking task never affects
// the others.
package orchestrate

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/NicabarNimble/go-gitws/internal/progress"
)

// State is the lifecycle position of a task.
type State int

const (
	Pending State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Task is one unit of work. Run reports its progress on the tracker it is
// given.
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context, tracker progress.Tracker) (T, error)
}

// Result is the terminal outcome of a task.
type Result[T any] struct {
	Name  string
	State State
	Value T
	Err   error
}

// PanicError reports a panic recovered from a task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// RunAll starts every task at once and waits for all of them. Each task gets
// its own line on board, or a discarding tracker when board is nil. Results
// are returned in the order of tasks.
func RunAll[T any](ctx context.Context, board *progress.Board, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	trackers := make([]progress.Tracker, len(tasks))
	for i, task := range tasks {
		results[i] = Result[T]{Name: task.Name, State: Pending}
		if board != nil {
			trackers[i] = board.Line(task.Name)
		} else {
			trackers[i] = progress.Discard()
		}
	}

	// Errors stay in their result slot; the group never sees them.
	var g errgroup.Group
	for i := range tasks {
		g.Go(func() error {
			results[i] = runOne(ctx, tasks[i], trackers[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runOne[T any](ctx context.Context, task Task[T], tracker progress.Tracker) (res Result[T]) {
	res = Result[T]{Name: task.Name, State: Running}

	defer func() {
		if r := recover(); r != nil {
			res.State = Failed
			res.Err = &PanicError{Value: r, Stack: debug.Stack()}
			tracker.Error(res.Err)
		}
	}()

	value, err := task.Run(ctx, tracker)
	if err != nil {
		res.State = Failed
		res.Err = err
		tracker.Error(err)
		return res
	}

	res.State = Succeeded
	res.Value = value
	tracker.Complete()
	return res
}
