package events

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	evserrors "evstudy/internal/errors"
)

// eventDateLayouts are the accepted catalog date formats, day-first before
// ISO because the catalog is maintained in a European-locale spreadsheet.
var eventDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2006-01-02",
}

// Loader reads the event catalog CSV
type Loader struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewLoader creates an event catalog loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		validate: validator.New(),
		logger:   logger,
	}
}

// Load reads and validates the event catalog. The file is semicolon
// separated; a leading byte-order mark is stripped and header names are
// trimmed before the required-column check. Rows with unparseable dates are
// kept with a zero EventDate and logged, matching the coerce-don't-drop
// policy of the catalog contract. A missing required column is fatal.
func (l *Loader) Load(ctx context.Context, path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event catalog: %w", err)
	}

	data = stripBOM(data)
	data = bytes.ToValidUTF8(data, []byte("?"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse event catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, evserrors.NewSchemaError("events.csv", "event_id", nil)
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	for _, required := range RequiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, evserrors.NewSchemaError("events.csv", required, header)
		}
	}

	var events []Event
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		cell := func(name string) string {
			idx := cols[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		ev := Event{
			EventID:           cell("event_id"),
			Publisher:         cell("publisher"),
			Ticker:            cell("ticker"),
			Studio:            cell("studio"),
			IsRockstar:        cell("is_rockstar") == "1",
			Game:              cell("game"),
			Franchise:         cell("franchise"),
			EventType:         cell("event_type"),
			SentimentRaw:      cell("sentiment"),
			Sentiment:         NormalizeSentiment(cell("sentiment")),
			ImpactExpectation: cell("impact_expectation_manual"),
			SourceURL:         cell("source_url"),
			Notes:             cell("notes"),
		}

		if rawDate := cell("date"); rawDate != "" {
			date, err := parseEventDate(rawDate)
			if err != nil {
				l.logger.WarnContext(ctx, "unparseable event date, coercing to null",
					"event_id", ev.EventID, "raw_date", rawDate, "row", i+2)
			} else {
				ev.EventDate = date
			}
		}

		if err := l.validate.Struct(ev); err != nil {
			return nil, evserrors.NewPreconditionError("events.csv", "event_id",
				fmt.Sprintf("row %d failed validation: %v", i+2, err))
		}

		events = append(events, ev)
	}

	l.logger.InfoContext(ctx, "event catalog loaded", "events", len(events), "path", path)
	return events, nil
}

// parseEventDate parses a catalog date cell, day-first layouts preferred
func parseEventDate(raw string) (time.Time, error) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// isBlank reports whether a CSV row is entirely empty
func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// stripBOM removes a leading UTF-8 byte-order mark if present
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
