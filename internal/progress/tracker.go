// Package progress reports the progress of concurrent tasks.
//
// A Tracker receives the phases of one task (Start), counted progress inside
// a phase (Update) and the terminal outcome (Complete or Error). Board
// renders one Tracker line per task on a shared writer.
package progress

import "time"

// Tracker interface defines methods for tracking operation progress
type Tracker interface {
	Start(operation string) *Operation
	Update(current, total int64)
	Complete()
	Error(err error)
}

// Operation status values.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Operation represents a tracked operation
type Operation struct {
	Name         string
	StartTime    time.Time
	Status       string
	LastUpdate   time.Time
	LastCurrent  int64
	LastTotal    int64
	ProgressRate float64 // items per second
	RateHistory  []float64
	EstimatedETA time.Time
}

const (
	rateHistorySize = 10 // Keep last 10 rate measurements for averaging
)

func newOperation(name string, now time.Time) *Operation {
	return &Operation{
		Name:        name,
		StartTime:   now,
		LastUpdate:  now,
		Status:      StatusInProgress,
		RateHistory: make([]float64, 0, rateHistorySize),
	}
}

// Percent returns the completed share of the operation, or -1 when the
// total is unknown.
func (op *Operation) Percent() int {
	if op.LastTotal <= 0 {
		return -1
	}
	p := op.LastCurrent * 100 / op.LastTotal
	if p > 100 {
		p = 100
	}
	return int(p)
}

// observe records a progress sample and refreshes the rate and ETA.
func (op *Operation) observe(current, total int64, now time.Time) {
	if op.LastCurrent > 0 {
		timeDiff := now.Sub(op.LastUpdate).Seconds()
		if timeDiff > 0 {
			currentRate := float64(current-op.LastCurrent) / timeDiff

			if len(op.RateHistory) >= rateHistorySize {
				op.RateHistory = op.RateHistory[1:]
			}
			op.RateHistory = append(op.RateHistory, currentRate)

			var totalRate float64
			for _, rate := range op.RateHistory {
				totalRate += rate
			}
			op.ProgressRate = totalRate / float64(len(op.RateHistory))

			if op.ProgressRate > 0 {
				remainingSeconds := float64(total-current) / op.ProgressRate
				op.EstimatedETA = now.Add(time.Duration(remainingSeconds * float64(time.Second)))
			}
		}
	}

	op.LastUpdate = now
	op.LastCurrent = current
	op.LastTotal = total
}

// DefaultTracker records operations without rendering them.
type DefaultTracker struct {
	CurrentOperation *Operation
}

// Start begins tracking a new operation
func (t *DefaultTracker) Start(operation string) *Operation {
	t.CurrentOperation = newOperation(operation, time.Now())
	return t.CurrentOperation
}

// Update updates the progress of the current operation
func (t *DefaultTracker) Update(current, total int64) {
	if t.CurrentOperation == nil {
		return
	}
	t.CurrentOperation.observe(current, total, time.Now())
}

// Complete marks the operation as completed
func (t *DefaultTracker) Complete() {
	if t.CurrentOperation != nil {
		t.CurrentOperation.Status = StatusCompleted
	}
}

// Error marks the operation as failed with an error
func (t *DefaultTracker) Error(err error) {
	if t.CurrentOperation != nil {
		t.CurrentOperation.Status = StatusFailed
	}
}

// Discard returns a Tracker that drops everything.
func Discard() Tracker {
	return &DefaultTracker{}
}
