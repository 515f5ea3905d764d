package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evstudy/internal/config"
)

const testEventsCSV = `event_id;date;publisher;ticker;studio;is_rockstar;game;franchise;event_type;sentiment;impact_expectation_manual;source_url;notes
EV001;11/01/2024;Take-Two;TTWO;Rockstar;1;GTA VI;GTA;trailer;positive;high;https://example.com/a;
EV002;13/01/2024;Take-Two;TTWO;Rockstar;1;GTA VI;GTA;announcement;neutral;medium;https://example.com/b;weekend event
`

const testMarketCSV = `Date,Adj Close
2024-01-08,4700.00
2024-01-09,4710.00
2024-01-10,4720.00
2024-01-11,4715.00
2024-01-12,4730.00
`

const testTickerCSV = `Date,Adj Close
2024-01-08,160.00
2024-01-09,161.00
2024-01-10,163.00
2024-01-11,162.00
2024-01-12,164.00
`

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Study.MarketTicker = "SP500"
	cfg.Study.Windows = []string{"0:1", "-1:1", "0:3", "0:5", "-5:5"}
	cfg.Study.LabelWindow = "-1:1"
	cfg.Study.MediumThreshold = 0.01
	cfg.Study.HighThreshold = 0.03
	cfg.Study.MaxConcurrency = 2
	cfg.Study.TickerAliases = config.DefaultAliases()
	cfg.Study.PublisherOverrides = config.DefaultPublisherOverrides()
	return cfg
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()

	base := t.TempDir()
	paths, err := config.NewPaths(config.PathsConfig{DataDir: "data"}, base)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readSemicolonCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunnerFullPipeline(t *testing.T) {
	paths := testPaths(t)
	writeFixture(t, filepath.Join(paths.RawDir, "SP500.csv"), testMarketCSV)
	writeFixture(t, filepath.Join(paths.RawDir, "TTWO.csv"), testTickerCSV)
	writeFixture(t, paths.EventsCSV, testEventsCSV)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	stages, err := NewStages(testConfig(), paths, logger)
	require.NoError(t, err)
	require.Len(t, stages, 6)

	runner := NewRunner(stages, paths.RunManifestJSON, logger)
	state, manifest, err := runner.Run(context.Background())
	require.NoError(t, err)

	// All six stages completed in order
	require.Len(t, manifest.Stages, 6)
	wantOrder := []string{
		StageIDBuildPanel, StageIDEstimateParams, StageIDComputeAR,
		StageIDAlignEvents, StageIDAggregateCAR, StageIDLabelImpact,
	}
	for i, result := range manifest.Stages {
		assert.Equal(t, wantOrder[i], result.ID)
		assert.Equal(t, StageStatusCompleted, result.Status)
	}

	// Panel: 5 days x 2 tickers
	assert.Len(t, state.Panel, 10)
	assert.Len(t, state.Events, 2)
	assert.Len(t, state.Aligned, 2)
	assert.Len(t, state.CARs, 2)
	assert.Len(t, state.Labeled, 2)

	// Both tickers got parameters
	_, ok := state.Params.Lookup("SP500")
	assert.True(t, ok)
	_, ok = state.Params.Lookup("TTWO")
	assert.True(t, ok)

	// Every well-known output exists
	for _, path := range []string{
		paths.PricesLongCSV, paths.PricesReturnsCSV, paths.PricesARCSV,
		paths.ModelParamsCSV, paths.EventsReturnsCSV, paths.EventsCARCSV,
		paths.EventsLabeledCSV, paths.RunManifestJSON,
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected output %s", path)
	}

	// The labeled output carries the header, both events, and a vocabulary label
	rows := readSemicolonCSV(t, paths.EventsLabeledCSV)
	require.Len(t, rows, 3)
	header := rows[0]
	assert.Equal(t, "event_id", header[0])
	assert.Equal(t, "impact_label", header[len(header)-1])
	for _, row := range rows[1:] {
		label := row[len(row)-1]
		assert.Contains(t, []string{"Low", "Medium", "High"}, label)
	}

	// The weekend event aligned backward to the prior Friday
	aligned := readSemicolonCSV(t, paths.EventsReturnsCSV)
	require.Len(t, aligned, 3)
	var tradingDates []string
	dateCol := -1
	for i, name := range aligned[0] {
		if name == "trading_date" {
			dateCol = i
		}
	}
	require.GreaterOrEqual(t, dateCol, 0)
	for _, row := range aligned[1:] {
		tradingDates = append(tradingDates, row[dateCol])
	}
	assert.Contains(t, tradingDates, "2024-01-11")
	assert.Contains(t, tradingDates, "2024-01-12")
}

func TestRunnerManifestPersisted(t *testing.T) {
	paths := testPaths(t)
	writeFixture(t, filepath.Join(paths.RawDir, "SP500.csv"), testMarketCSV)
	writeFixture(t, filepath.Join(paths.RawDir, "TTWO.csv"), testTickerCSV)
	writeFixture(t, paths.EventsCSV, testEventsCSV)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	stages, err := NewStages(testConfig(), paths, logger)
	require.NoError(t, err)

	runner := NewRunner(stages, paths.RunManifestJSON, logger)
	_, manifest, err := runner.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(paths.RunManifestJSON)
	require.NoError(t, err)

	var persisted Manifest
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, manifest.RunID, persisted.RunID)
	assert.Len(t, persisted.Stages, 6)
	assert.Equal(t, 2, persisted.Events)
	assert.Equal(t, 10, persisted.PanelRows)
	assert.False(t, persisted.FinishedAt.Before(persisted.StartedAt))
}

func TestRunnerStageFailureAborts(t *testing.T) {
	paths := testPaths(t)
	// Raw directory exists but holds no price files

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	stages, err := NewStages(testConfig(), paths, logger)
	require.NoError(t, err)

	runner := NewRunner(stages, paths.RunManifestJSON, logger)
	_, manifest, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), StageIDBuildPanel)

	// Only the failed stage is recorded; the manifest is still written
	require.Len(t, manifest.Stages, 1)
	assert.Equal(t, StageStatusFailed, manifest.Stages[0].Status)
	assert.NotEmpty(t, manifest.Stages[0].Error)

	_, statErr := os.Stat(paths.RunManifestJSON)
	assert.NoError(t, statErr)
}

func TestNewStagesRejectsBadWindows(t *testing.T) {
	paths := testPaths(t)
	logger := slog.Default()

	cfg := testConfig()
	cfg.Study.Windows = []string{"0:1", "oops"}
	_, err := NewStages(cfg, paths, logger)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "window"))

	cfg = testConfig()
	cfg.Study.LabelWindow = "5:-5"
	_, err = NewStages(cfg, paths, logger)
	require.Error(t, err)
}

func TestLabelImpactStageSkipsNullCAR(t *testing.T) {
	paths := testPaths(t)
	writeFixture(t, filepath.Join(paths.RawDir, "SP500.csv"), testMarketCSV)
	writeFixture(t, filepath.Join(paths.RawDir, "TTWO.csv"), testTickerCSV)

	// EV003 references a ticker with no price history: it survives alignment
	// and the CAR table with nulls, but is excluded from labeling.
	events := testEventsCSV +
		"EV003;10/01/2024;Ubisoft;NOSUCH;Ubisoft Montreal;0;Assassin's Creed;AC;delay;negative;low;https://example.com/c;\n"
	writeFixture(t, paths.EventsCSV, events)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := testConfig()
	cfg.Study.PublisherOverrides = nil
	stages, err := NewStages(cfg, paths, logger)
	require.NoError(t, err)

	runner := NewRunner(stages, "", logger)
	state, _, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, state.CARs, 3)
	assert.Len(t, state.Labeled, 2)
	for _, labeled := range state.Labeled {
		assert.NotEqual(t, "EV003", labeled.EventID)
	}
}
