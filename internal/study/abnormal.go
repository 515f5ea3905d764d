package study

import (
	"evstudy/internal/panel"
)

// ComputeAbnormal extends every panel row with the market-model expected
// return and abnormal return. This is a pure, row-independent transform:
//
//	expected_return = alpha + beta * market_return
//	AR              = return - expected_return
//
// A row whose ticker has no valid parameters, or whose market return is nil,
// gets a nil expected return; a nil expected return or nil actual return
// makes AR nil. Nils propagate, they are never replaced with zero.
func ComputeAbnormal(rows []panel.PriceRecord, params ParamTable) []ExpandedRecord {
	out := make([]ExpandedRecord, len(rows))
	for i, row := range rows {
		out[i] = expandRow(row, params)
	}
	return out
}

func expandRow(row panel.PriceRecord, params ParamTable) ExpandedRecord {
	rec := ExpandedRecord{PriceRecord: row}

	p, ok := params.Lookup(row.Ticker)
	if !ok || !p.Valid() || row.MarketReturn == nil {
		return rec
	}

	expected := *p.Alpha + *p.Beta*(*row.MarketReturn)
	rec.ExpectedReturn = &expected

	if row.Return != nil {
		ar := *row.Return - expected
		rec.AR = &ar
	}
	return rec
}
