package panel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	evserrors "evstudy/internal/errors"
)

// headerProbeRows is how deep into a file the loader looks for a header row.
// Provider exports bury the header under preamble rows (disclaimers, request
// metadata), so probing only the first row is not enough.
const headerProbeRows = 10

// dateLayouts are the date formats accepted in price series, tried in order
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// priceHeaderNames are accepted names for the adjusted close column,
// in priority order. "adj close" variants win over plain "close".
var priceHeaderNames = []string{"adj close", "adj_close", "adjusted close", "adjusted_close", "close", "price"}

// LoadSeriesCSV reads one security's price series from a CSV file. It accepts
// both headered provider exports and headerless files where data rows start
// after arbitrary preamble rows.
func LoadSeriesCSV(path, ticker string) (Series, error) {
	rows, err := readCSV(path)
	if err != nil {
		return Series{}, err
	}
	return seriesFromRows(rows, ticker, filepath.Base(path))
}

// LoadSeriesXLSX reads one security's price series from the first sheet of an
// XLSX workbook, using the same header detection as the CSV loader.
func LoadSeriesXLSX(path, ticker string) (Series, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Series{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Series{}, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Series{}, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return seriesFromRows(rows, ticker, filepath.Base(path))
}

// LoadWideCSV reads a wide-format multi-ticker sheet (one date column, one
// price column per ticker) and melts it into one Series per ticker. Empty
// cells are skipped, so tickers with partial history produce shorter series.
func LoadWideCSV(path string) ([]Series, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	table := filepath.Base(path)
	headerIdx, ok := findWideHeader(rows)
	if !ok {
		return nil, evserrors.NewSchemaError(table, ColDate, observedColumns(rows))
	}

	header := rows[headerIdx]
	dateCol := -1
	for i, cell := range header {
		if normalizeHeader(cell) == "date" {
			dateCol = i
			break
		}
	}
	if dateCol == -1 {
		return nil, evserrors.NewSchemaError(table, ColDate, header)
	}

	series := make(map[string]*Series)
	var order []string
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if i == dateCol || name == "" {
			continue
		}
		series[name] = &Series{Ticker: name}
		order = append(order, name)
	}
	if len(order) == 0 {
		return nil, evserrors.NewSchemaError(table, ColTicker, header)
	}

	for _, row := range rows[headerIdx+1:] {
		if dateCol >= len(row) {
			continue
		}
		date, err := parseDate(row[dateCol])
		if err != nil {
			continue
		}
		for i, cell := range row {
			if i == dateCol || i >= len(header) {
				continue
			}
			name := strings.TrimSpace(header[i])
			s, tracked := series[name]
			if !tracked {
				continue
			}
			price, err := parsePrice(cell)
			if err != nil {
				continue
			}
			s.Observations = append(s.Observations, Observation{Date: date, AdjClose: price})
		}
	}

	out := make([]Series, 0, len(order))
	for _, name := range order {
		out = append(out, *series[name])
	}
	return out, nil
}

// DiscoverSeries loads every price series file in rawDir. Wide multi-ticker
// sheets are detected by their header; single-series files take their ticker
// from the filename prefix (EA_2015_2024.csv loads as EA). The events file is
// skipped, as are files that are neither CSV nor XLSX.
func DiscoverSeries(ctx context.Context, rawDir, eventsFile string, logger *slog.Logger) ([]Series, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var all []Series
	for _, name := range names {
		path := filepath.Join(rawDir, name)
		if eventsFile != "" && filepath.Clean(path) == filepath.Clean(eventsFile) {
			continue
		}

		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			loaded, err := loadCSVFile(path, name)
			if err != nil {
				return nil, err
			}
			all = append(all, loaded...)
			logger.InfoContext(ctx, "loaded price series file",
				"file", name, "series", len(loaded))
		case ".xlsx":
			s, err := LoadSeriesXLSX(path, tickerFromFilename(name))
			if err != nil {
				return nil, err
			}
			all = append(all, s)
			logger.InfoContext(ctx, "loaded price series workbook",
				"file", name, "observations", len(s.Observations))
		default:
			logger.DebugContext(ctx, "skipping non-series file", "file", name)
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no price series found in %s", rawDir)
	}
	return all, nil
}

// loadCSVFile routes a CSV file to the wide or single-series loader based on
// its header shape. A header naming an adjusted close column is always a
// single-series export; a date header with only ticker-named columns is a
// wide sheet.
func loadCSVFile(path, name string) ([]Series, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	_, _, priceCol, headered := findSeriesHeader(rows)
	if headered && priceCol == -1 {
		if headerIdx, ok := findWideHeader(rows); ok && countTickerColumns(rows[headerIdx]) >= 2 {
			return LoadWideCSV(path)
		}
	}

	s, err := seriesFromRows(rows, tickerFromFilename(name), name)
	if err != nil {
		return nil, err
	}
	return []Series{s}, nil
}

// seriesFromRows extracts (date, price) observations from raw cell rows.
// If a header row is found, the date and price columns are taken from it;
// otherwise the loader falls back to positional (date, price) pairs starting
// at the first row that parses, which covers headerless preamble layouts.
func seriesFromRows(rows [][]string, ticker, table string) (Series, error) {
	s := Series{Ticker: ticker}

	headerIdx, dateCol, priceCol, headered := findSeriesHeader(rows)
	if headered {
		if priceCol == -1 {
			return Series{}, evserrors.NewSchemaError(table, ColAdjClose, rows[headerIdx])
		}
		for _, row := range rows[headerIdx+1:] {
			if dateCol >= len(row) || priceCol >= len(row) {
				continue
			}
			date, err := parseDate(row[dateCol])
			if err != nil {
				continue
			}
			price, err := parsePrice(row[priceCol])
			if err != nil {
				continue
			}
			s.Observations = append(s.Observations, Observation{Date: date, AdjClose: price})
		}
		return s, nil
	}

	// Headerless layout: first parseable (date, price) row starts the data
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		date, err := parseDate(row[0])
		if err != nil {
			continue
		}
		price, err := parsePrice(row[1])
		if err != nil {
			continue
		}
		s.Observations = append(s.Observations, Observation{Date: date, AdjClose: price})
	}

	if len(s.Observations) == 0 {
		return Series{}, evserrors.NewSchemaError(table, ColDate, observedColumns(rows))
	}
	return s, nil
}

// findSeriesHeader probes the first rows for a header naming a date column.
// Returns the header row index, date and price column positions, and whether
// a header was found at all. priceCol is -1 when the header names no price
// column, which the caller reports as a schema error.
func findSeriesHeader(rows [][]string) (headerIdx, dateCol, priceCol int, ok bool) {
	limit := len(rows)
	if limit > headerProbeRows {
		limit = headerProbeRows
	}

	for i := 0; i < limit; i++ {
		dc := -1
		for j, cell := range rows[i] {
			if normalizeHeader(cell) == "date" {
				dc = j
				break
			}
		}
		if dc == -1 {
			continue
		}

		pc := -1
		for _, want := range priceHeaderNames {
			for j, cell := range rows[i] {
				if normalizeHeader(cell) == want {
					pc = j
					break
				}
			}
			if pc != -1 {
				break
			}
		}
		return i, dc, pc, true
	}
	return 0, -1, -1, false
}

// findWideHeader reports the row index of a header containing a date column
// plus at least one other named column.
func findWideHeader(rows [][]string) (int, bool) {
	limit := len(rows)
	if limit > headerProbeRows {
		limit = headerProbeRows
	}

	for i := 0; i < limit; i++ {
		hasDate := false
		others := 0
		for _, cell := range rows[i] {
			switch {
			case normalizeHeader(cell) == "date":
				hasDate = true
			case strings.TrimSpace(cell) != "":
				others++
			}
		}
		if hasDate && others >= 1 {
			return i, true
		}
	}
	return 0, false
}

// countTickerColumns counts non-date, non-empty columns in a header row
func countTickerColumns(header []string) int {
	n := 0
	for _, cell := range header {
		if normalizeHeader(cell) != "date" && strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

// readCSV reads all rows of a CSV file, tolerating a UTF-8 BOM and rows with
// varying field counts.
func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = stripBOM(data)

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rows, nil
}

// stripBOM removes a leading UTF-8 byte-order mark if present
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// normalizeHeader lowercases and trims a header cell for comparison
func normalizeHeader(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

// observedColumns returns the first non-empty row for schema error reporting
func observedColumns(rows [][]string) []string {
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return row
			}
		}
	}
	return nil
}

// tickerFromFilename derives a ticker symbol from a series filename prefix,
// e.g. "EA_2015_2024.csv" yields "EA".
func tickerFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if idx := strings.IndexAny(base, "_-."); idx > 0 {
		base = base[:idx]
	}
	return strings.ToUpper(base)
}

// parseDate parses a date cell against the accepted layouts
func parseDate(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parsePrice parses a price cell, tolerating thousands separators
func parsePrice(cell string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	return strconv.ParseFloat(s, 64)
}
