package server

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"evstudy/internal/config"
)

// ParamRow is one ticker's fitted market model as served by the API. Null
// parameters (tickers with no usable observations) marshal as JSON null.
type ParamRow struct {
	Ticker string   `json:"ticker"`
	Alpha  *float64 `json:"alpha"`
	Beta   *float64 `json:"beta"`
}

// ResultsStore reads a completed run's output directory. Files are parsed on
// every request: the directory is the source of truth and a rerun replaces
// it in place.
type ResultsStore struct {
	paths *config.Paths
}

// NewResultsStore creates a store over the given run output paths
func NewResultsStore(paths *config.Paths) *ResultsStore {
	return &ResultsStore{paths: paths}
}

// LabeledEvents returns the labeled event table as column-keyed records,
// preserving the CSV's null convention (empty string)
func (s *ResultsStore) LabeledEvents() ([]map[string]string, error) {
	header, rows, err := readCSVTable(s.paths.EventsLabeledCSV, ';')
	if err != nil {
		return nil, err
	}

	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				record[name] = row[i]
			} else {
				record[name] = ""
			}
		}
		out = append(out, record)
	}
	return out, nil
}

// Params returns the fitted market model table
func (s *ResultsStore) Params() ([]ParamRow, error) {
	header, rows, err := readCSVTable(s.paths.ModelParamsCSV, ',')
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"ticker", "alpha", "beta"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("parameter table missing column %q", required)
		}
	}

	out := make([]ParamRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ParamRow{
			Ticker: cell(row, cols["ticker"]),
			Alpha:  parseNullableFloat(cell(row, cols["alpha"])),
			Beta:   parseNullableFloat(cell(row, cols["beta"])),
		})
	}
	return out, nil
}

// ManifestBytes returns the raw run manifest JSON
func (s *ResultsStore) ManifestBytes() ([]byte, error) {
	return os.ReadFile(s.paths.RunManifestJSON)
}

// HasResults reports whether a completed run's labeled output is present
func (s *ResultsStore) HasResults() bool {
	_, err := os.Stat(s.paths.EventsLabeledCSV)
	return err == nil
}

func readCSVTable(path string, separator rune) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = separator
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("empty result table %s", path)
	}
	return all[0], all[1:], nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func parseNullableFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
