package study

import (
	"context"
	"log/slog"
	"time"
)

// CARAggregator sums abnormal returns over event-relative windows
type CARAggregator struct {
	windows []Window
	logger  *slog.Logger
}

// NewCARAggregator creates a CAR aggregator for the configured windows
func NewCARAggregator(windows []Window, logger *slog.Logger) *CARAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CARAggregator{windows: windows, logger: logger}
}

// Compute extends each aligned event with its event-day AR and one CAR per
// window. Window offsets are calendar days; the summation range
// [trading_date+start, trading_date+end] is inclusive on both ends and a
// window matching no panel rows sums to 0. Events without a trading date get
// nil for every window and for the event-day AR.
func (c *CARAggregator) Compute(ctx context.Context, aligned []AlignedEvent, expanded []ExpandedRecord) []CARRecord {
	byTicker := make(map[string][]ExpandedRecord)
	for _, row := range expanded {
		byTicker[row.Ticker] = append(byTicker[row.Ticker], row)
	}

	out := make([]CARRecord, 0, len(aligned))
	for _, ev := range aligned {
		rec := CARRecord{
			AlignedEvent: ev,
			CARs:         make(map[string]*float64, len(c.windows)),
		}

		if ev.TradingDate == nil {
			for _, w := range c.windows {
				rec.CARs[w.Column()] = nil
			}
			out = append(out, rec)
			continue
		}

		history := byTicker[ev.CanonicalTicker]
		rec.AREvent = eventDayAR(history, *ev.TradingDate)

		for _, w := range c.windows {
			car := sumWindow(history, *ev.TradingDate, w)
			rec.CARs[w.Column()] = &car
		}
		out = append(out, rec)
	}

	c.logger.InfoContext(ctx, "cumulative abnormal returns computed",
		"events", len(out), "windows", len(c.windows))

	return out
}

// sumWindow sums AR over rows with date in the inclusive calendar window
// around the trading date. Nil ARs inside the window contribute nothing,
// matching the sum-of-empty-set convention.
func sumWindow(history []ExpandedRecord, tradingDate time.Time, w Window) float64 {
	start := tradingDate.AddDate(0, 0, w.Start)
	end := tradingDate.AddDate(0, 0, w.End)

	var car float64
	for _, row := range history {
		if row.Date.Before(start) || row.Date.After(end) {
			continue
		}
		if row.AR != nil {
			car += *row.AR
		}
	}
	return car
}

// eventDayAR returns the AR of the trading-date row itself, nil if absent
func eventDayAR(history []ExpandedRecord, tradingDate time.Time) *float64 {
	for _, row := range history {
		if row.Date.Equal(tradingDate) {
			if row.AR == nil {
				return nil
			}
			v := *row.AR
			return &v
		}
	}
	return nil
}
