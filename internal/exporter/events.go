package exporter

import (
	"evstudy/internal/study"
)

// eventSeparator keeps event outputs on the catalog's semicolon separator
const eventSeparator = ';'

// eventBaseHeaders are the catalog columns carried into every event output.
// source_url and notes are deliberately excluded from persisted output.
var eventBaseHeaders = []string{
	"event_id",
	"event_date",
	"publisher",
	"ticker",
	"studio",
	"is_rockstar",
	"game",
	"franchise",
	"event_type",
	"sentiment",
	"impact_expectation_manual",
}

// alignmentHeaders are the price-context columns added by alignment
var alignmentHeaders = []string{"trading_date", "adjusted_close", "return", "market_return"}

func eventBaseRow(ev study.AlignedEvent) []string {
	date := ""
	if !ev.EventDate.IsZero() {
		date = formatDate(ev.EventDate)
	}
	return []string{
		ev.EventID,
		date,
		ev.Publisher,
		ev.CanonicalTicker,
		ev.Studio,
		formatBool(ev.IsRockstar),
		ev.Game,
		ev.Franchise,
		ev.EventType,
		string(ev.Sentiment),
		ev.ImpactExpectation,
	}
}

func alignmentRow(ev study.AlignedEvent) []string {
	return []string{
		formatNullableDate(ev.TradingDate),
		formatNullableFloat(ev.AdjClose),
		formatNullableFloat(ev.Return),
		formatNullableFloat(ev.MarketReturn),
	}
}

// WriteAlignedEvents writes the event table with resolved trading-day context
func WriteAlignedEvents(path string, events []study.AlignedEvent) error {
	headers := append(append([]string{}, eventBaseHeaders...), alignmentHeaders...)

	records := make([][]string, 0, len(events))
	for _, ev := range events {
		records = append(records, append(eventBaseRow(ev), alignmentRow(ev)...))
	}

	return WriteCSV(path, WriteOptions{
		Headers:   headers,
		Records:   records,
		Separator: eventSeparator,
	})
}

// WriteCAREvents writes aligned events extended with the event-day abnormal
// return and one column per configured CAR window
func WriteCAREvents(path string, records []study.CARRecord, windows []study.Window) error {
	headers := append(append([]string{}, eventBaseHeaders...), alignmentHeaders...)
	headers = append(headers, "AR_event")
	for _, w := range windows {
		headers = append(headers, w.Column())
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := append(eventBaseRow(rec.AlignedEvent), alignmentRow(rec.AlignedEvent)...)
		row = append(row, formatNullableFloat(rec.AREvent))
		for _, w := range windows {
			row = append(row, formatNullableFloat(rec.CARs[w.Column()]))
		}
		rows = append(rows, row)
	}

	return WriteCSV(path, WriteOptions{
		Headers:   headers,
		Records:   rows,
		Separator: eventSeparator,
	})
}

// WriteLabeledEvents writes the final labeled output consumed by the
// downstream feature-assembly step
func WriteLabeledEvents(path string, labeled []study.LabeledEvent, windows []study.Window) error {
	headers := append(append([]string{}, eventBaseHeaders...), alignmentHeaders...)
	headers = append(headers, "AR_event")
	for _, w := range windows {
		headers = append(headers, w.Column())
	}
	headers = append(headers, "impact_label")

	rows := make([][]string, 0, len(labeled))
	for _, ev := range labeled {
		row := append(eventBaseRow(ev.AlignedEvent), alignmentRow(ev.AlignedEvent)...)
		row = append(row, formatNullableFloat(ev.AREvent))
		for _, w := range windows {
			row = append(row, formatNullableFloat(ev.CARs[w.Column()]))
		}
		row = append(row, string(ev.ImpactLabel))
		rows = append(rows, row)
	}

	return WriteCSV(path, WriteOptions{
		Headers:   headers,
		Records:   rows,
		Separator: eventSeparator,
	})
}
