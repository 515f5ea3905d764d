package events

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evserrors "evstudy/internal/errors"
)

const catalogHeader = "event_id;date;publisher;ticker;studio;is_rockstar;game;franchise;" +
	"event_type;sentiment;impact_expectation_manual;source_url;notes"

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadParsesCatalogRow(t *testing.T) {
	path := writeCatalog(t, catalogHeader+"\n"+
		"EV-0001;17/09/2013;Rockstar Games;TTWO;Rockstar North;1;GTA V;GTA;release;positive;High;https://example.com/gta5;launch day\n")

	events, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "EV-0001", ev.EventID)
	assert.Equal(t, time.Date(2013, 9, 17, 0, 0, 0, 0, time.UTC), ev.EventDate)
	assert.Equal(t, "TTWO", ev.Ticker)
	assert.True(t, ev.IsRockstar)
	assert.Equal(t, SentimentPositive, ev.Sentiment)
	assert.Equal(t, "High", ev.ImpactExpectation)
	assert.Equal(t, "GTA", ev.Franchise)
}

func TestLoadStripsBOMAndHeaderWhitespace(t *testing.T) {
	path := writeCatalog(t, "\xEF\xBB\xBFevent_id; date ;publisher;ticker;studio;is_rockstar;game;franchise;"+
		"event_type;sentiment;impact_expectation_manual;source_url;notes\n"+
		"EV-0002;05/02/2024;Nintendo;NTDOY;Nintendo EPD;0;Zelda;Zelda;announcement;neutral;Low;;\n")

	events, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), events[0].EventDate)
}

func TestLoadMissingColumnIsSchemaError(t *testing.T) {
	path := writeCatalog(t, "event_id;date;publisher;ticker\nEV-1;01/01/2024;EA;EA\n")

	_, err := NewLoader(nil).Load(context.Background(), path)
	require.Error(t, err)

	var schemaErr *evserrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "studio", schemaErr.Field)
	assert.Contains(t, schemaErr.Observed, "ticker")
}

func TestLoadCoercesUnparseableDate(t *testing.T) {
	path := writeCatalog(t, catalogHeader+"\n"+
		"EV-0003;sometime in 2024;EA;EA;DICE;0;Battlefield;Battlefield;delay;negative;Medium;;\n")

	events, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].EventDate.IsZero(), "unparseable date coerces to zero, not an error")
}

func TestLoadSkipsBlankRowsAndNormalizesSentiment(t *testing.T) {
	path := writeCatalog(t, catalogHeader+"\n"+
		";;;;;;;;;;;;\n"+
		"EV-0004;10/03/2024;Ubisoft;;Ubisoft Montreal;0;AC;AC;trailer;Hyped!!;Low;;\n")

	events, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, SentimentOther, events[0].Sentiment)
	assert.Equal(t, "Hyped!!", events[0].SentimentRaw)
	assert.Equal(t, "", events[0].Ticker, "ticker left empty for the publisher override to resolve")
}

func TestLoadMissingEventIDFailsValidation(t *testing.T) {
	path := writeCatalog(t, catalogHeader+"\n"+
		";01/01/2024;EA;EA;DICE;0;Battlefield;Battlefield;delay;negative;Medium;;\n")

	_, err := NewLoader(nil).Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}
