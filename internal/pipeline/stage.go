// Package pipeline orchestrates the event study as a sequence of named
// stages over shared run state. Stages run strictly in order; a stage error
// aborts the run, while per-ticker and per-event conditions accumulate as
// warnings on the state and never abort.
package pipeline

import (
	"context"
	"time"
)

// Stage is a single named step of the pipeline
type Stage interface {
	// ID returns the unique identifier for this stage
	ID() string

	// Name returns the human-readable name for this stage
	Name() string

	// Run executes the stage against the shared run state
	Run(ctx context.Context, state *State) error
}

// StageStatus represents the completion status of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// StageResult records one stage's outcome for the run manifest
type StageResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   StageStatus   `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}
