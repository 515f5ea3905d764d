package study

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	evserrors "evstudy/internal/errors"
	"evstudy/internal/panel"
)

// Estimator fits the single-factor market model per ticker
type Estimator struct {
	maxConcurrency int
	logger         *slog.Logger
}

// NewEstimator creates a market model estimator. maxConcurrency bounds the
// per-ticker fan-out; values below 1 collapse to sequential estimation.
func NewEstimator(maxConcurrency int, logger *slog.Logger) *Estimator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{maxConcurrency: maxConcurrency, logger: logger}
}

// EstimateParams fits y = alpha + beta*x per ticker over all rows with both
// return and market return present, using closed-form ordinary least squares.
// Tickers with zero qualifying rows get nil parameters and a warning; the
// run continues. No minimum sample size is enforced: a single qualifying
// pair yields a degenerate exact fit, which is logged but not rejected.
func (e *Estimator) EstimateParams(ctx context.Context, rows []panel.PriceRecord) (ParamTable, []evserrors.Warning, error) {
	byTicker := make(map[string][]panel.PriceRecord)
	for _, row := range rows {
		byTicker[row.Ticker] = append(byTicker[row.Ticker], row)
	}

	tickers := make([]string, 0, len(byTicker))
	for ticker := range byTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	table := make(ParamTable, len(tickers))
	var warnings []evserrors.Warning
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)

	for _, ticker := range tickers {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			params, warns := e.fitTicker(gctx, ticker, byTicker[ticker])

			mu.Lock()
			table[ticker] = params
			warnings = append(warnings, warns...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Ticker < warnings[j].Ticker })

	e.logger.InfoContext(ctx, "market model estimation complete",
		"tickers", len(table), "warnings", len(warnings))

	return table, warnings, nil
}

// fitTicker runs the closed-form OLS fit for one ticker
func (e *Estimator) fitTicker(ctx context.Context, ticker string, rows []panel.PriceRecord) (Params, []evserrors.Warning) {
	var xs, ys []float64
	for _, row := range rows {
		if row.Return == nil || row.MarketReturn == nil {
			continue
		}
		xs = append(xs, *row.MarketReturn)
		ys = append(ys, *row.Return)
	}

	if len(xs) == 0 {
		e.logger.WarnContext(ctx, "no usable observations for market model",
			"ticker", ticker)
		return Params{Ticker: ticker},
			[]evserrors.Warning{evserrors.MissingDataWarning(ticker, "no rows with both return and market return")}
	}

	alpha, beta := solveOLS(xs, ys)

	var warnings []evserrors.Warning
	if len(xs) < 2 {
		e.logger.WarnContext(ctx, "degenerate market model fit",
			"ticker", ticker, "observations", len(xs))
		warnings = append(warnings, evserrors.NumericDegenerateWarning(ticker, len(xs)))
	}

	e.logger.DebugContext(ctx, "market model fitted",
		"ticker", ticker, "alpha", alpha, "beta", beta, "observations", len(xs))

	return Params{Ticker: ticker, Alpha: &alpha, Beta: &beta}, warnings
}

// solveOLS solves y = alpha + beta*x by the normal equations on the design
// matrix [1, x]. A degenerate design (single observation, or zero variance
// in x) collapses to the intercept-only fit beta=0, alpha=mean(y), which is
// an exact fit for the single-observation case.
func solveOLS(xs, ys []float64) (alpha, beta float64) {
	n := float64(len(xs))
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}

	denom := n*sxx - sx*sx
	if denom == 0 {
		return sy / n, 0
	}

	beta = (n*sxy - sx*sy) / denom
	alpha = (sy - beta*sx) / n
	return alpha, beta
}
