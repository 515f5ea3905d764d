package errors

import (
	"fmt"
	"time"
)

// WarningCode identifies the class of a recoverable condition
type WarningCode string

const (
	// WarnMissingData means a ticker has no usable rows during estimation
	// or no price history at all during alignment
	WarnMissingData WarningCode = "MISSING_DATA"

	// WarnNumericDegenerate means a fit had fewer observations than needed
	// for stable parameters (in practice, zero)
	WarnNumericDegenerate WarningCode = "NUMERIC_DEGENERATE"

	// WarnAlignmentGap means an event predates all trading history for its
	// ticker, so no trading date could be resolved
	WarnAlignmentGap WarningCode = "ALIGNMENT_GAP"
)

// Warning is a recoverable condition local to one ticker or one event.
// The affected output fields become null; the run continues.
type Warning struct {
	Code    WarningCode `json:"code"`
	Ticker  string      `json:"ticker,omitempty"`
	EventID string      `json:"event_id,omitempty"`
	Message string      `json:"message"`
}

// String renders the warning for logs and run summaries
func (w Warning) String() string {
	switch {
	case w.EventID != "":
		return fmt.Sprintf("[%s] event %s (ticker %s): %s", w.Code, w.EventID, w.Ticker, w.Message)
	case w.Ticker != "":
		return fmt.Sprintf("[%s] ticker %s: %s", w.Code, w.Ticker, w.Message)
	default:
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
}

// MissingDataWarning reports a ticker with no usable observations
func MissingDataWarning(ticker, message string) Warning {
	return Warning{Code: WarnMissingData, Ticker: ticker, Message: message}
}

// NumericDegenerateWarning reports a fit with too few observations
func NumericDegenerateWarning(ticker string, observations int) Warning {
	return Warning{
		Code:    WarnNumericDegenerate,
		Ticker:  ticker,
		Message: fmt.Sprintf("degenerate fit: %d usable observations", observations),
	}
}

// AlignmentGapWarning reports an event that predates all trading history
func AlignmentGapWarning(eventID, ticker string, eventDate time.Time) Warning {
	return Warning{
		Code:    WarnAlignmentGap,
		Ticker:  ticker,
		EventID: eventID,
		Message: fmt.Sprintf("event date %s precedes all trading history", eventDate.Format("2006-01-02")),
	}
}
