package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Study   StudyConfig   `yaml:"study" envconfig:"STUDY"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR"`
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// StudyConfig contains the event study parameters. The defaults reproduce the
// published study: S&P 500 as the market index, five calendar-day CAR windows,
// and magnitude thresholds at 1% and 3% on the CAR(-1,+1) window.
type StudyConfig struct {
	MarketTicker    string   `yaml:"market_ticker" envconfig:"MARKET_TICKER"`
	Windows         []string `yaml:"windows" envconfig:"WINDOWS"`
	LabelWindow     string   `yaml:"label_window" envconfig:"LABEL_WINDOW"`
	MediumThreshold float64  `yaml:"medium_threshold" envconfig:"MEDIUM_THRESHOLD"`
	HighThreshold   float64  `yaml:"high_threshold" envconfig:"HIGH_THRESHOLD"`
	MaxConcurrency  int      `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY"`

	// TickerAliases maps raw provider symbols to the canonical symbols used
	// throughout the panel. PublisherOverrides force a ticker by publisher
	// name and take precedence over the alias table.
	TickerAliases      map[string]string `yaml:"ticker_aliases"`
	PublisherOverrides map[string]string `yaml:"publisher_overrides"`
}

// ServerConfig contains HTTP server configuration for the results API
type ServerConfig struct {
	Port            int `yaml:"port" envconfig:"PORT"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec" envconfig:"READ_TIMEOUT_SEC"`
	WriteTimeoutSec int `yaml:"write_timeout_sec" envconfig:"WRITE_TIMEOUT_SEC"`
}

// DefaultAliases returns the built-in symbol alias table. The index symbol
// from the price provider and the Paris-listed Ubisoft symbol both map to the
// canonical symbols the panel uses.
func DefaultAliases() map[string]string {
	return map[string]string{
		"^GSPC":  "SP500",
		"UBI.PA": "UBSFY",
	}
}

// DefaultPublisherOverrides returns the built-in publisher override table.
// Ubisoft events carry inconsistent ticker values upstream, so they are
// force-mapped to the canonical ADR symbol.
func DefaultPublisherOverrides() map[string]string {
	return map[string]string{
		"Ubisoft": "UBSFY",
	}
}

// Load loads configuration from environment variables and an optional
// config file (EVS_CONFIG_FILE, default evstudy.yaml in the working
// directory). Environment values take precedence over the file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("EVS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Logging.Format == "" {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}
	if envConfig.Logging.Output == "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if envConfig.Logging.FilePath == "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if envConfig.Paths.DataDir == "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if envConfig.Paths.RawDir == "" {
		envConfig.Paths.RawDir = fileConfig.Paths.RawDir
	}
	if envConfig.Paths.ProcessedDir == "" {
		envConfig.Paths.ProcessedDir = fileConfig.Paths.ProcessedDir
	}
	if envConfig.Paths.LogsDir == "" {
		envConfig.Paths.LogsDir = fileConfig.Paths.LogsDir
	}
	if envConfig.Study.MarketTicker == "" {
		envConfig.Study.MarketTicker = fileConfig.Study.MarketTicker
	}
	if len(envConfig.Study.Windows) == 0 {
		envConfig.Study.Windows = fileConfig.Study.Windows
	}
	if envConfig.Study.LabelWindow == "" {
		envConfig.Study.LabelWindow = fileConfig.Study.LabelWindow
	}
	if envConfig.Study.MediumThreshold == 0 {
		envConfig.Study.MediumThreshold = fileConfig.Study.MediumThreshold
	}
	if envConfig.Study.HighThreshold == 0 {
		envConfig.Study.HighThreshold = fileConfig.Study.HighThreshold
	}
	if envConfig.Study.MaxConcurrency == 0 {
		envConfig.Study.MaxConcurrency = fileConfig.Study.MaxConcurrency
	}
	if len(envConfig.Study.TickerAliases) == 0 {
		envConfig.Study.TickerAliases = fileConfig.Study.TickerAliases
	}
	if len(envConfig.Study.PublisherOverrides) == 0 {
		envConfig.Study.PublisherOverrides = fileConfig.Study.PublisherOverrides
	}
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeoutSec == 0 {
		envConfig.Server.ReadTimeoutSec = fileConfig.Server.ReadTimeoutSec
	}
	if envConfig.Server.WriteTimeoutSec == 0 {
		envConfig.Server.WriteTimeoutSec = fileConfig.Server.WriteTimeoutSec
	}

	return envConfig
}

// applyDefaults fills in any value still unset after the env and file layers.
// Defaults live here rather than in struct tags so a config file can override
// them without the env layer clobbering it first.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/evstudy.log"
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = "data"
	}
	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = "logs"
	}
	if c.Study.MarketTicker == "" {
		c.Study.MarketTicker = "SP500"
	}
	if len(c.Study.Windows) == 0 {
		c.Study.Windows = []string{"0:1", "-1:1", "0:3", "0:5", "-5:5"}
	}
	if c.Study.LabelWindow == "" {
		c.Study.LabelWindow = "-1:1"
	}
	if c.Study.MediumThreshold == 0 {
		c.Study.MediumThreshold = 0.01
	}
	if c.Study.HighThreshold == 0 {
		c.Study.HighThreshold = 0.03
	}
	if c.Study.MaxConcurrency == 0 {
		c.Study.MaxConcurrency = 4
	}
	if len(c.Study.TickerAliases) == 0 {
		c.Study.TickerAliases = DefaultAliases()
	}
	if len(c.Study.PublisherOverrides) == 0 {
		c.Study.PublisherOverrides = DefaultPublisherOverrides()
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 15
	}
}

// validate checks the configuration for invalid values
func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.Study.MarketTicker == "" {
		return fmt.Errorf("market ticker must not be empty")
	}
	if c.Study.MediumThreshold <= 0 || c.Study.HighThreshold <= 0 {
		return fmt.Errorf("label thresholds must be positive: medium=%.4f high=%.4f",
			c.Study.MediumThreshold, c.Study.HighThreshold)
	}
	if c.Study.HighThreshold <= c.Study.MediumThreshold {
		return fmt.Errorf("high threshold %.4f must exceed medium threshold %.4f",
			c.Study.HighThreshold, c.Study.MediumThreshold)
	}
	if c.Study.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1, got %d", c.Study.MaxConcurrency)
	}
	if len(c.Study.Windows) == 0 {
		return fmt.Errorf("at least one CAR window must be configured")
	}

	return nil
}

// getConfigFilePath returns the path to the configuration file
func getConfigFilePath() string {
	if path := os.Getenv("EVS_CONFIG_FILE"); path != "" {
		return path
	}
	return "evstudy.yaml"
}
