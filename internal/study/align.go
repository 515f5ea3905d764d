package study

import (
	"context"
	"log/slog"
	"sort"

	evserrors "evstudy/internal/errors"
	"evstudy/internal/events"
	"evstudy/internal/panel"
)

// Aligner resolves events to their nearest prior trading day
type Aligner struct {
	aliases            map[string]string
	publisherOverrides map[string]string
	logger             *slog.Logger
}

// NewAligner creates an event aligner. publisherOverrides force a canonical
// ticker by publisher name and take precedence over the generic alias table.
func NewAligner(aliases, publisherOverrides map[string]string, logger *slog.Logger) *Aligner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{
		aliases:            aliases,
		publisherOverrides: publisherOverrides,
		logger:             logger,
	}
}

// Align performs a backward nearest-date join of each event onto the price
// panel, independently per ticker. An event's trading date is the maximum
// panel date at or before its event date for its canonical ticker.
//
// Tickers with no panel rows produce events with all price context nil plus
// a missing-data warning; events that predate all history for their ticker
// produce nils plus an alignment-gap warning. Neither aborts the run.
// Output order follows the input event order.
func (a *Aligner) Align(ctx context.Context, evs []events.Event, rows []panel.PriceRecord) ([]AlignedEvent, []evserrors.Warning) {
	// Panel rows arrive sorted by (ticker, date); group preserving order.
	byTicker := make(map[string][]panel.PriceRecord)
	for _, row := range rows {
		byTicker[row.Ticker] = append(byTicker[row.Ticker], row)
	}

	var warnings []evserrors.Warning
	warnedMissing := make(map[string]bool)

	aligned := make([]AlignedEvent, 0, len(evs))
	for _, ev := range evs {
		ticker := a.canonicalTicker(ev)
		out := AlignedEvent{Event: ev, CanonicalTicker: ticker}

		history := byTicker[ticker]
		if len(history) == 0 {
			if !warnedMissing[ticker] {
				warnedMissing[ticker] = true
				warnings = append(warnings,
					evserrors.MissingDataWarning(ticker, "no rows in price panel"))
				a.logger.WarnContext(ctx, "no price history for event ticker",
					"ticker", ticker, "event_id", ev.EventID)
			}
			aligned = append(aligned, out)
			continue
		}

		if ev.EventDate.IsZero() {
			warnings = append(warnings, evserrors.Warning{
				Code:    evserrors.WarnAlignmentGap,
				Ticker:  ticker,
				EventID: ev.EventID,
				Message: "event has no parseable date",
			})
			aligned = append(aligned, out)
			continue
		}

		// Greatest panel date <= event date. Panel dates are unique per
		// ticker, so the match is unambiguous.
		idx := sort.Search(len(history), func(i int) bool {
			return history[i].Date.After(ev.EventDate)
		}) - 1

		if idx < 0 {
			warnings = append(warnings,
				evserrors.AlignmentGapWarning(ev.EventID, ticker, ev.EventDate))
			a.logger.WarnContext(ctx, "event predates all trading history",
				"event_id", ev.EventID, "ticker", ticker,
				"event_date", ev.EventDate.Format("2006-01-02"))
			aligned = append(aligned, out)
			continue
		}

		match := history[idx]
		tradingDate := match.Date
		adjClose := match.AdjClose
		out.TradingDate = &tradingDate
		out.AdjClose = &adjClose
		out.Return = copyFloat(match.Return)
		out.MarketReturn = copyFloat(match.MarketReturn)
		aligned = append(aligned, out)
	}

	a.logger.InfoContext(ctx, "events aligned to trading days",
		"events", len(aligned), "warnings", len(warnings))

	return aligned, warnings
}

// canonicalTicker applies the publisher override, then the alias table.
// The override wins regardless of the raw ticker value because the catalog
// carries inconsistent symbols for those publishers.
func (a *Aligner) canonicalTicker(ev events.Event) string {
	if forced, ok := a.publisherOverrides[ev.Publisher]; ok {
		return panel.NormalizeTicker(forced, a.aliases)
	}
	return panel.NormalizeTicker(ev.Ticker, a.aliases)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
