package panel

import (
	"context"
	"log/slog"
	"sort"
)

// Builder merges raw price series into the canonical panel and derives the
// return columns. The zero value is not usable; construct with NewBuilder.
type Builder struct {
	marketTicker string
	aliases      map[string]string
	logger       *slog.Logger
}

// NewBuilder creates a panel builder. marketTicker is the canonical symbol of
// the designated market index whose returns are joined onto every row.
func NewBuilder(marketTicker string, aliases map[string]string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		marketTicker: NormalizeTicker(marketTicker, aliases),
		aliases:      aliases,
		logger:       logger,
	}
}

// Build unions all series into one panel sorted by (ticker, date), computes
// per-ticker sequential simple returns, and left-joins the market index
// return by date. Duplicate (ticker, date) pairs keep the first occurrence
// encountered; later duplicates are dropped, not averaged.
func (b *Builder) Build(ctx context.Context, series []Series) []PriceRecord {
	var rows []PriceRecord

	type key struct {
		ticker string
		date   int64
	}
	dedupe := make(map[key]struct{})

	for _, s := range series {
		ticker := NormalizeTicker(s.Ticker, b.aliases)
		for _, obs := range s.Observations {
			date := Day(obs.Date)
			k := key{ticker: ticker, date: date.Unix()}
			if _, dup := dedupe[k]; dup {
				continue
			}
			dedupe[k] = struct{}{}
			rows = append(rows, PriceRecord{
				Date:     date,
				Ticker:   ticker,
				AdjClose: obs.AdjClose,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	b.computeReturns(rows)
	b.joinMarketReturns(rows)

	b.logger.InfoContext(ctx, "price panel built",
		"rows", len(rows),
		"series", len(series),
		"market_ticker", b.marketTicker,
	)

	return rows
}

// computeReturns fills the Return column with per-ticker sequential simple
// percentage changes. The first row of each ticker stays nil.
func (b *Builder) computeReturns(rows []PriceRecord) {
	for i := range rows {
		if i == 0 || rows[i].Ticker != rows[i-1].Ticker {
			continue
		}
		prev := rows[i-1].AdjClose
		if prev == 0 {
			continue
		}
		r := (rows[i].AdjClose - prev) / prev
		rows[i].Return = &r
	}
}

// joinMarketReturns left-joins the market index return onto every row by
// date alone. Rows on dates the index did not trade keep a nil market return.
func (b *Builder) joinMarketReturns(rows []PriceRecord) {
	market := make(map[int64]*float64)
	for i := range rows {
		if rows[i].Ticker == b.marketTicker {
			market[rows[i].Date.Unix()] = rows[i].Return
		}
	}

	for i := range rows {
		if r, ok := market[rows[i].Date.Unix()]; ok && r != nil {
			v := *r
			rows[i].MarketReturn = &v
		}
	}
}
