package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	evserrors "evstudy/internal/errors"
	"evstudy/internal/infrastructure"
)

// Manifest summarizes a completed (or failed) run for auditing and reruns
type Manifest struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Stages     []StageResult       `json:"stages"`
	Warnings   []evserrors.Warning `json:"warnings"`
	Events     int                 `json:"events"`
	PanelRows  int                 `json:"panel_rows"`
}

// Runner executes the configured stages in order
type Runner struct {
	stages       []Stage
	manifestPath string
	logger       *slog.Logger
}

// NewRunner creates a pipeline runner. manifestPath may be empty to skip
// manifest persistence, which the tests use.
func NewRunner(stages []Stage, manifestPath string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{stages: stages, manifestPath: manifestPath, logger: logger}
}

// Run executes all stages sequentially against fresh state. The first stage
// error aborts the run; the manifest is written in both outcomes so a failed
// run still leaves an audit record.
func (r *Runner) Run(ctx context.Context) (*State, *Manifest, error) {
	runID := uuid.NewString()
	ctx = infrastructure.WithRunID(ctx, runID)
	state := NewState(runID)

	manifest := &Manifest{RunID: runID, StartedAt: time.Now().UTC()}

	r.logger.InfoContext(ctx, "pipeline run starting", "stages", len(r.stages))

	var runErr error
	for _, stage := range r.stages {
		result := StageResult{ID: stage.ID(), Name: stage.Name(), Status: StageStatusPending}
		start := time.Now()

		r.logger.InfoContext(ctx, "stage starting", "stage", stage.ID())
		err := stage.Run(ctx, state)
		result.Duration = time.Since(start)

		if err != nil {
			result.Status = StageStatusFailed
			result.Error = err.Error()
			manifest.Stages = append(manifest.Stages, result)
			r.logger.ErrorContext(ctx, "stage failed",
				"stage", stage.ID(), "error", err, "duration", result.Duration)
			runErr = fmt.Errorf("stage %s: %w", stage.ID(), err)
			break
		}

		result.Status = StageStatusCompleted
		manifest.Stages = append(manifest.Stages, result)
		r.logger.InfoContext(ctx, "stage completed",
			"stage", stage.ID(), "duration", result.Duration)
	}

	manifest.FinishedAt = time.Now().UTC()
	manifest.Warnings = state.Warnings()
	manifest.Events = len(state.Events)
	manifest.PanelRows = len(state.Panel)

	if r.manifestPath != "" {
		if err := writeManifest(r.manifestPath, manifest); err != nil {
			r.logger.ErrorContext(ctx, "failed to write run manifest", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	if runErr != nil {
		return state, manifest, runErr
	}

	r.logger.InfoContext(ctx, "pipeline run complete",
		"events", manifest.Events,
		"panel_rows", manifest.PanelRows,
		"warnings", len(manifest.Warnings),
	)
	return state, manifest, nil
}

// writeManifest persists the run manifest as JSON
func writeManifest(path string, manifest *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
