package panel

import (
	"strings"
	"time"
)

// Observation is a single (date, price) point in a raw price series
type Observation struct {
	Date     time.Time
	AdjClose float64
}

// Series is one security's raw price history as delivered by a provider
type Series struct {
	Ticker       string
	Observations []Observation
}

// PriceRecord is one row of the canonical long-format price panel.
// Return and MarketReturn are nil where undefined: the first observed date
// for a ticker has no return, and dates absent from the market index series
// have no market return. Nil is never replaced with zero.
type PriceRecord struct {
	Date         time.Time
	Ticker       string
	AdjClose     float64
	Return       *float64
	MarketReturn *float64
}

// Canonical column names for the long-format panel contract
const (
	ColDate     = "date"
	ColTicker   = "ticker"
	ColAdjClose = "adjusted_close"
)

// NormalizeTicker maps a raw provider symbol to its canonical form:
// trimmed, uppercased, and resolved through the alias table. Alias keys are
// matched case-insensitively because provider exports disagree on case.
func NormalizeTicker(raw string, aliases map[string]string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for from, to := range aliases {
		if strings.ToUpper(from) == s {
			return strings.ToUpper(to)
		}
	}
	return s
}

// Day truncates a timestamp to a calendar date in UTC. All panel and event
// dates pass through here so date equality is plain == on time.Time.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
