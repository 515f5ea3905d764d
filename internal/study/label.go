package study

import (
	"fmt"
	"math"

	evserrors "evstudy/internal/errors"
)

// ImpactLabel is the closed classification vocabulary for event impact
type ImpactLabel string

const (
	ImpactLow    ImpactLabel = "Low"
	ImpactMedium ImpactLabel = "Medium"
	ImpactHigh   ImpactLabel = "High"
)

// LabelVocabulary lists the allowed labels in ascending impact order
var LabelVocabulary = []string{string(ImpactLow), string(ImpactMedium), string(ImpactHigh)}

// LabelValue maps each label to the integer the downstream classifier
// consumes. Defined here so this repo and the feature-assembly step cannot
// drift apart.
var LabelValue = map[ImpactLabel]int{
	ImpactLow:    0,
	ImpactMedium: 1,
	ImpactHigh:   2,
}

// ParseImpactLabel validates a string against the label vocabulary
func ParseImpactLabel(s string) (ImpactLabel, error) {
	switch ImpactLabel(s) {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return ImpactLabel(s), nil
	default:
		return "", evserrors.NewLabelDomainError(s, LabelVocabulary)
	}
}

// Thresholds are the magnitude cutoffs for impact classification. Both
// comparisons are strict, so the boundary values themselves fall in the
// lower bucket: |CAR| = High labels Medium, |CAR| = Medium labels Low.
type Thresholds struct {
	Medium float64
	High   float64
}

// DefaultThresholds returns the study's published cutoffs
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 0.01, High: 0.03}
}

// Classify maps a CAR magnitude to its label. The thresholds partition the
// real line: exactly one label applies to every finite CAR.
func (t Thresholds) Classify(car float64) ImpactLabel {
	abs := math.Abs(car)
	switch {
	case abs > t.High:
		return ImpactHigh
	case abs > t.Medium:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Labeler classifies events from one canonical CAR window
type Labeler struct {
	window     Window
	thresholds Thresholds
}

// NewLabeler creates an impact labeler over the given window and thresholds
func NewLabeler(window Window, thresholds Thresholds) *Labeler {
	return &Labeler{window: window, thresholds: thresholds}
}

// LabelEvents classifies every CAR record from its canonical-window CAR.
// A nil CAR is a precondition failure: silently assigning a label to missing
// data would corrupt the downstream training set, so the run aborts instead.
func (l *Labeler) LabelEvents(records []CARRecord) ([]LabeledEvent, error) {
	column := l.window.Column()

	out := make([]LabeledEvent, 0, len(records))
	for _, rec := range records {
		car, ok := rec.CARs[column]
		if !ok {
			return nil, evserrors.NewPreconditionError("events_with_car", column,
				fmt.Sprintf("window %s was not computed for event %s", l.window, rec.EventID))
		}
		if car == nil {
			return nil, evserrors.NewPreconditionError("events_with_car", column,
				fmt.Sprintf("null CAR for event %s cannot be labeled", rec.EventID))
		}

		out = append(out, LabeledEvent{
			CARRecord:   rec,
			ImpactLabel: l.thresholds.Classify(*car),
		})
	}
	return out, nil
}
