package study

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"evstudy/internal/events"
	"evstudy/internal/panel"
)

// Params holds one ticker's fitted market model parameters. Alpha and Beta
// are nil together when the ticker had no usable observations.
type Params struct {
	Ticker string
	Alpha  *float64
	Beta   *float64
}

// Valid reports whether the parameters are usable for expected returns
func (p Params) Valid() bool {
	return p.Alpha != nil && p.Beta != nil
}

// ParamTable maps canonical ticker symbols to fitted parameters. It is
// constructed once by EstimateParams and passed to every consumer; treat it
// as immutable after construction.
type ParamTable map[string]Params

// Lookup returns the parameters for a ticker and whether they exist
func (t ParamTable) Lookup(ticker string) (Params, bool) {
	p, ok := t[ticker]
	return p, ok
}

// Tickers returns the tickers present in the table, unsorted
func (t ParamTable) Tickers() []string {
	out := make([]string, 0, len(t))
	for ticker := range t {
		out = append(out, ticker)
	}
	return out
}

// Window is a CAR summation range in calendar days relative to an event's
// trading date, inclusive on both ends.
type Window struct {
	Start int
	End   int
}

// ParseWindow parses a "start:end" window specification, e.g. "-1:1"
func ParseWindow(spec string) (Window, error) {
	parts := strings.SplitN(strings.TrimSpace(spec), ":", 2)
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("invalid window spec %q: want start:end", spec)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Window{}, fmt.Errorf("invalid window start in %q: %w", spec, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Window{}, fmt.Errorf("invalid window end in %q: %w", spec, err)
	}
	if start > end {
		return Window{}, fmt.Errorf("invalid window %q: start after end", spec)
	}
	return Window{Start: start, End: end}, nil
}

// ParseWindows parses a list of window specifications
func ParseWindows(specs []string) ([]Window, error) {
	windows := make([]Window, 0, len(specs))
	for _, spec := range specs {
		w, err := ParseWindow(spec)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// Column returns the output column name for this window, following the
// established naming: CAR_0_1, CAR_m1_p1, CAR_m5_p5. Offsets are unsigned in
// the name unless the window has a negative bound, in which case negative
// offsets take an m prefix and positive ones a p prefix.
func (w Window) Column() string {
	signed := w.Start < 0 || w.End < 0
	return fmt.Sprintf("CAR_%s_%s", formatOffset(w.Start, signed), formatOffset(w.End, signed))
}

// String renders the window as the conventional (start,end) pair
func (w Window) String() string {
	return fmt.Sprintf("(%d,%d)", w.Start, w.End)
}

func formatOffset(n int, signed bool) string {
	switch {
	case n < 0:
		return fmt.Sprintf("m%d", -n)
	case n > 0 && signed:
		return fmt.Sprintf("p%d", n)
	default:
		return strconv.Itoa(n)
	}
}

// ExpandedRecord is a panel row extended with the market-model expected
// return and abnormal return. Both are nil when the ticker has no fitted
// parameters or the inputs to the formula are nil.
type ExpandedRecord struct {
	panel.PriceRecord
	ExpectedReturn *float64
	AR             *float64
}

// AlignedEvent is an event resolved to its nearest prior trading day, with
// that day's price context attached. TradingDate, AdjClose, Return and
// MarketReturn are nil together when the ticker has no usable price history
// at or before the event date.
type AlignedEvent struct {
	events.Event
	// Ticker after alias normalization and publisher override; the raw
	// catalog value stays on the embedded Event
	CanonicalTicker string
	TradingDate     *time.Time
	AdjClose        *float64
	Return          *float64
	MarketReturn    *float64
}

// CARRecord is an aligned event extended with its event-day abnormal return
// and one CAR value per configured window, keyed by Window.Column().
type CARRecord struct {
	AlignedEvent
	AREvent *float64
	CARs    map[string]*float64
}

// CAR returns the CAR value for a window, or nil when not computed
func (r CARRecord) CAR(w Window) *float64 {
	return r.CARs[w.Column()]
}

// LabeledEvent is a CAR record with its final impact classification
type LabeledEvent struct {
	CARRecord
	ImpactLabel ImpactLabel
}
