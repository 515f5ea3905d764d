package pipeline

import (
	"sync"

	evserrors "evstudy/internal/errors"
	"evstudy/internal/events"
	"evstudy/internal/panel"
	"evstudy/internal/study"
)

// State is the shared run state threaded through the stages. Each stage
// reads the outputs of earlier stages and sets its own; the parameter table
// is set once by estimation and treated as immutable by every consumer.
type State struct {
	RunID string

	Panel    []panel.PriceRecord
	Params   study.ParamTable
	Expanded []study.ExpandedRecord
	Events   []events.Event
	Aligned  []study.AlignedEvent
	CARs     []study.CARRecord
	Labeled  []study.LabeledEvent

	mu       sync.Mutex
	warnings []evserrors.Warning
}

// NewState creates run state for the given run ID
func NewState(runID string) *State {
	return &State{RunID: runID}
}

// AddWarnings appends recoverable warnings to the run record
func (s *State) AddWarnings(warnings ...evserrors.Warning) {
	if len(warnings) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, warnings...)
}

// Warnings returns a copy of the accumulated warnings
func (s *State) Warnings() []evserrors.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]evserrors.Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}
