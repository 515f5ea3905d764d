package exporter

import (
	"sort"

	"evstudy/internal/panel"
	"evstudy/internal/study"
)

// Long-format panel column names, the external contract for price tables
var (
	panelHeaders    = []string{"date", "ticker", "adjusted_close"}
	returnsHeaders  = []string{"date", "ticker", "adjusted_close", "return", "market_return"}
	expandedHeaders = []string{"date", "ticker", "adjusted_close", "return", "market_return", "expected_return", "AR"}
)

// WritePanel writes the canonical long-format price panel
func WritePanel(path string, rows []panel.PriceRecord) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			formatDate(r.Date),
			r.Ticker,
			formatFloat(r.AdjClose),
		})
	}
	return WriteCSV(path, WriteOptions{Headers: panelHeaders, Records: records})
}

// WritePanelWithReturns writes the panel enriched with return columns
func WritePanelWithReturns(path string, rows []panel.PriceRecord) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			formatDate(r.Date),
			r.Ticker,
			formatFloat(r.AdjClose),
			formatNullableFloat(r.Return),
			formatNullableFloat(r.MarketReturn),
		})
	}
	return WriteCSV(path, WriteOptions{Headers: returnsHeaders, Records: records})
}

// WriteExpandedPanel writes the panel with expected return and AR columns
func WriteExpandedPanel(path string, rows []study.ExpandedRecord) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			formatDate(r.Date),
			r.Ticker,
			formatFloat(r.AdjClose),
			formatNullableFloat(r.Return),
			formatNullableFloat(r.MarketReturn),
			formatNullableFloat(r.ExpectedReturn),
			formatNullableFloat(r.AR),
		})
	}
	return WriteCSV(path, WriteOptions{Headers: expandedHeaders, Records: records})
}

// WriteParams writes the fitted market model parameter table sorted by ticker
func WriteParams(path string, table study.ParamTable) error {
	tickers := table.Tickers()
	sort.Strings(tickers)

	records := make([][]string, 0, len(tickers))
	for _, ticker := range tickers {
		p := table[ticker]
		records = append(records, []string{
			ticker,
			formatNullableFloat(p.Alpha),
			formatNullableFloat(p.Beta),
		})
	}
	return WriteCSV(path, WriteOptions{Headers: []string{"ticker", "alpha", "beta"}, Records: records})
}
