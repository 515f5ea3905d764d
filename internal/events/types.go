// Package events loads and validates the hand-curated event catalog. The
// catalog arrives as semicolon-separated CSV from spreadsheet tooling, so the
// loader tolerates a UTF-8 byte-order mark, stray header whitespace, and
// day-first dates.
package events

import (
	"strings"
	"time"
)

// Sentiment is the closed vocabulary for curated event sentiment. Values
// outside the vocabulary normalize to SentimentOther rather than failing;
// sentiment is descriptive metadata, not part of the output contract.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
	SentimentOther    Sentiment = "other"
)

// NormalizeSentiment maps a raw sentiment string into the closed vocabulary
func NormalizeSentiment(raw string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	case SentimentNeutral:
		return SentimentNeutral
	case SentimentMixed:
		return SentimentMixed
	case "":
		return SentimentOther
	default:
		return SentimentOther
	}
}

// Event is one curated announcement from the event catalog. EventID is
// assigned by the catalog and immutable. EventDate is the zero time when the
// raw date could not be parsed; downstream alignment treats that as an
// unresolvable event rather than an error.
type Event struct {
	EventID           string `validate:"required"`
	EventDate         time.Time
	Publisher         string
	Ticker            string
	Studio            string
	IsRockstar        bool
	Game              string
	Franchise         string
	EventType         string
	Sentiment         Sentiment
	SentimentRaw      string
	ImpactExpectation string
	SourceURL         string
	Notes             string
}

// Required columns of the event catalog contract. The loader fails with a
// SchemaError naming the first missing column.
var RequiredColumns = []string{
	"event_id",
	"date",
	"publisher",
	"ticker",
	"studio",
	"is_rockstar",
	"game",
	"franchise",
	"event_type",
	"sentiment",
	"impact_expectation_manual",
	"source_url",
	"notes",
}
