package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"evstudy/internal/config"
	"evstudy/internal/events"
	"evstudy/internal/exporter"
	"evstudy/internal/panel"
	"evstudy/internal/study"
)

// Stage identifiers, in execution order
const (
	StageIDBuildPanel     = "build_panel"
	StageIDEstimateParams = "estimate_params"
	StageIDComputeAR      = "compute_ar"
	StageIDAlignEvents    = "align_events"
	StageIDAggregateCAR   = "aggregate_car"
	StageIDLabelImpact    = "label_impact"
)

// NewStages wires the six study stages from configuration. Window specs are
// parsed once here so a malformed spec fails the run before any file IO.
func NewStages(cfg *config.Config, paths *config.Paths, logger *slog.Logger) ([]Stage, error) {
	windows, err := study.ParseWindows(cfg.Study.Windows)
	if err != nil {
		return nil, fmt.Errorf("invalid event window configuration: %w", err)
	}

	labelWindow, err := study.ParseWindow(cfg.Study.LabelWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid label window configuration: %w", err)
	}

	thresholds := study.Thresholds{
		Medium: cfg.Study.MediumThreshold,
		High:   cfg.Study.HighThreshold,
	}

	return []Stage{
		&BuildPanelStage{
			rawDir:       paths.RawDir,
			eventsFile:   paths.EventsCSV,
			longPath:     paths.PricesLongCSV,
			returnsPath:  paths.PricesReturnsCSV,
			marketTicker: cfg.Study.MarketTicker,
			aliases:      cfg.Study.TickerAliases,
			logger:       logger,
		},
		&EstimateParamsStage{
			outPath:        paths.ModelParamsCSV,
			maxConcurrency: cfg.Study.MaxConcurrency,
			logger:         logger,
		},
		&ComputeARStage{
			outPath: paths.PricesARCSV,
			logger:  logger,
		},
		&AlignEventsStage{
			eventsFile:         paths.EventsCSV,
			outPath:            paths.EventsReturnsCSV,
			aliases:            cfg.Study.TickerAliases,
			publisherOverrides: cfg.Study.PublisherOverrides,
			logger:             logger,
		},
		&AggregateCARStage{
			outPath: paths.EventsCARCSV,
			windows: windows,
			logger:  logger,
		},
		&LabelImpactStage{
			outPath:    paths.EventsLabeledCSV,
			windows:    windows,
			window:     labelWindow,
			thresholds: thresholds,
			logger:     logger,
		},
	}, nil
}

// BuildPanelStage discovers raw price files, builds the long panel with
// simple returns, joins the market return column, and writes the panel CSVs.
type BuildPanelStage struct {
	rawDir       string
	eventsFile   string
	longPath     string
	returnsPath  string
	marketTicker string
	aliases      map[string]string
	logger       *slog.Logger
}

func (s *BuildPanelStage) ID() string   { return StageIDBuildPanel }
func (s *BuildPanelStage) Name() string { return "Build Price Panel" }

func (s *BuildPanelStage) Run(ctx context.Context, state *State) error {
	series, err := panel.DiscoverSeries(ctx, s.rawDir, s.eventsFile, s.logger)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no price series found in %s", s.rawDir)
	}

	builder := panel.NewBuilder(s.marketTicker, s.aliases, s.logger)
	state.Panel = builder.Build(ctx, series)

	if err := exporter.WritePanel(s.longPath, state.Panel); err != nil {
		return fmt.Errorf("failed to write long panel: %w", err)
	}
	if err := exporter.WritePanelWithReturns(s.returnsPath, state.Panel); err != nil {
		return fmt.Errorf("failed to write returns panel: %w", err)
	}

	s.logger.InfoContext(ctx, "price panel built",
		"series", len(series), "rows", len(state.Panel))
	return nil
}

// EstimateParamsStage fits the per-ticker market model and writes the
// parameter table
type EstimateParamsStage struct {
	outPath        string
	maxConcurrency int
	logger         *slog.Logger
}

func (s *EstimateParamsStage) ID() string   { return StageIDEstimateParams }
func (s *EstimateParamsStage) Name() string { return "Estimate Market Model" }

func (s *EstimateParamsStage) Run(ctx context.Context, state *State) error {
	estimator := study.NewEstimator(s.maxConcurrency, s.logger)
	table, warnings, err := estimator.EstimateParams(ctx, state.Panel)
	if err != nil {
		return err
	}
	state.Params = table
	state.AddWarnings(warnings...)

	if err := exporter.WriteParams(s.outPath, table); err != nil {
		return fmt.Errorf("failed to write model parameters: %w", err)
	}

	s.logger.InfoContext(ctx, "market model estimated",
		"tickers", len(table), "warnings", len(warnings))
	return nil
}

// ComputeARStage expands the panel with expected and abnormal returns
type ComputeARStage struct {
	outPath string
	logger  *slog.Logger
}

func (s *ComputeARStage) ID() string   { return StageIDComputeAR }
func (s *ComputeARStage) Name() string { return "Compute Abnormal Returns" }

func (s *ComputeARStage) Run(ctx context.Context, state *State) error {
	state.Expanded = study.ComputeAbnormal(state.Panel, state.Params)

	if err := exporter.WriteExpandedPanel(s.outPath, state.Expanded); err != nil {
		return fmt.Errorf("failed to write abnormal return panel: %w", err)
	}

	s.logger.InfoContext(ctx, "abnormal returns computed", "rows", len(state.Expanded))
	return nil
}

// AlignEventsStage loads the event catalog and joins each event to the most
// recent trading day at or before its date
type AlignEventsStage struct {
	eventsFile         string
	outPath            string
	aliases            map[string]string
	publisherOverrides map[string]string
	logger             *slog.Logger
}

func (s *AlignEventsStage) ID() string   { return StageIDAlignEvents }
func (s *AlignEventsStage) Name() string { return "Align Events" }

func (s *AlignEventsStage) Run(ctx context.Context, state *State) error {
	loader := events.NewLoader(s.logger)
	evs, err := loader.Load(ctx, s.eventsFile)
	if err != nil {
		return err
	}
	state.Events = evs

	aligner := study.NewAligner(s.aliases, s.publisherOverrides, s.logger)
	aligned, warnings := aligner.Align(ctx, evs, state.Panel)
	state.Aligned = aligned
	state.AddWarnings(warnings...)

	if err := exporter.WriteAlignedEvents(s.outPath, aligned); err != nil {
		return fmt.Errorf("failed to write aligned events: %w", err)
	}

	s.logger.InfoContext(ctx, "events aligned",
		"events", len(aligned), "warnings", len(warnings))
	return nil
}

// AggregateCARStage sums abnormal returns over each configured window
type AggregateCARStage struct {
	outPath string
	windows []study.Window
	logger  *slog.Logger
}

func (s *AggregateCARStage) ID() string   { return StageIDAggregateCAR }
func (s *AggregateCARStage) Name() string { return "Aggregate CAR Windows" }

func (s *AggregateCARStage) Run(ctx context.Context, state *State) error {
	aggregator := study.NewCARAggregator(s.windows, s.logger)
	state.CARs = aggregator.Compute(ctx, state.Aligned, state.Expanded)

	if err := exporter.WriteCAREvents(s.outPath, state.CARs, s.windows); err != nil {
		return fmt.Errorf("failed to write CAR table: %w", err)
	}

	s.logger.InfoContext(ctx, "CAR windows aggregated", "events", len(state.CARs))
	return nil
}

// LabelImpactStage classifies events by canonical-window CAR magnitude.
// Events whose canonical CAR is null (no trading-day alignment, or no usable
// abnormal returns) stay in the CAR output but are excluded here: a label
// over missing data would be fabricated, and per-event gaps never abort the
// run.
type LabelImpactStage struct {
	outPath    string
	windows    []study.Window
	window     study.Window
	thresholds study.Thresholds
	logger     *slog.Logger
}

func (s *LabelImpactStage) ID() string   { return StageIDLabelImpact }
func (s *LabelImpactStage) Name() string { return "Label Event Impact" }

func (s *LabelImpactStage) Run(ctx context.Context, state *State) error {
	column := s.window.Column()

	labelable := make([]study.CARRecord, 0, len(state.CARs))
	for _, rec := range state.CARs {
		if car, ok := rec.CARs[column]; !ok || car == nil {
			s.logger.WarnContext(ctx, "event excluded from labeling",
				"event_id", rec.EventID, "window", column)
			continue
		}
		labelable = append(labelable, rec)
	}

	labeler := study.NewLabeler(s.window, s.thresholds)
	labeled, err := labeler.LabelEvents(labelable)
	if err != nil {
		return err
	}
	state.Labeled = labeled

	if err := exporter.WriteLabeledEvents(s.outPath, labeled, s.windows); err != nil {
		return fmt.Errorf("failed to write labeled events: %w", err)
	}

	s.logger.InfoContext(ctx, "events labeled",
		"labeled", len(labeled), "excluded", len(state.CARs)-len(labeled))
	return nil
}
