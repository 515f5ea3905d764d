package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for every file the pipeline reads or
// writes; components receive a *Paths and never build paths themselves.
type Paths struct {
	DataDir      string
	RawDir       string
	ProcessedDir string
	LogsDir      string

	// Raw inputs
	EventsCSV string

	// Well-known pipeline outputs
	PricesLongCSV     string
	PricesReturnsCSV  string
	PricesARCSV       string
	ModelParamsCSV    string
	EventsReturnsCSV  string
	EventsCARCSV      string
	EventsLabeledCSV  string
	RunManifestJSON   string
}

// NewPaths builds the path set rooted at the given base directory. When base
// is empty the configured data directory is resolved against the current
// working directory.
func NewPaths(cfg PathsConfig, base string) (*Paths, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		base = wd
	}

	dataDir := cfg.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(base, dataDir)
	}

	rawDir := cfg.RawDir
	if rawDir == "" {
		rawDir = filepath.Join(dataDir, "raw")
	} else if !filepath.IsAbs(rawDir) {
		rawDir = filepath.Join(base, rawDir)
	}

	processedDir := cfg.ProcessedDir
	if processedDir == "" {
		processedDir = filepath.Join(dataDir, "processed")
	} else if !filepath.IsAbs(processedDir) {
		processedDir = filepath.Join(base, processedDir)
	}

	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = filepath.Join(base, "logs")
	} else if !filepath.IsAbs(logsDir) {
		logsDir = filepath.Join(base, logsDir)
	}

	return &Paths{
		DataDir:      dataDir,
		RawDir:       rawDir,
		ProcessedDir: processedDir,
		LogsDir:      logsDir,

		EventsCSV: filepath.Join(rawDir, "events.csv"),

		PricesLongCSV:    filepath.Join(processedDir, "prices_long.csv"),
		PricesReturnsCSV: filepath.Join(processedDir, "prices_with_returns.csv"),
		PricesARCSV:      filepath.Join(processedDir, "prices_with_ar.csv"),
		ModelParamsCSV:   filepath.Join(processedDir, "market_model_params.csv"),
		EventsReturnsCSV: filepath.Join(processedDir, "events_with_returns.csv"),
		EventsCARCSV:     filepath.Join(processedDir, "events_with_car.csv"),
		EventsLabeledCSV: filepath.Join(processedDir, "events_labeled.csv"),
		RunManifestJSON:  filepath.Join(processedDir, "run_manifest.json"),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.RawDir, p.ProcessedDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
