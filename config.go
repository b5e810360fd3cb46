package catalog

import (
	"fmt"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for catalog.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values.
type Config struct {
	Matching MatchingConfig `yaml:"matching"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Log      LogConfig      `yaml:"log"`
}

// MatchingConfig holds Column Matcher configuration.
type MatchingConfig struct {
	// SuggestThreshold is the score below which a match is reported as unmapped.
	// The thresholds have no env-default: cleanenv replaces an explicit 0 with it. NewConfig sets them.
	SuggestThreshold float64 `yaml:"suggest_threshold" env:"CATALOG_SUGGEST_THRESHOLD"`
	// ConfidentThreshold is the score a best match must exceed to count as matched.
	ConfidentThreshold float64 `yaml:"confident_threshold" env:"CATALOG_CONFIDENT_THRESHOLD"`
	// Scorer is "dice" or "levenshtein".
	Scorer string `yaml:"scorer" env:"CATALOG_SCORER" env-default:"dice"`
	// PhysicalNamesOnly stops logical column names from being scored.
	// Zero values are replaced by env-default, so every boolean here defaults to false.
	PhysicalNamesOnly bool `yaml:"physical_names_only" env:"CATALOG_PHYSICAL_NAMES_ONLY" env-default:"false"`
	// Singularize singularizes words before scoring.
	Singularize bool `yaml:"singularize" env:"CATALOG_SINGULARIZE" env-default:"false"`
	// CacheSize enables an LRU of pair scores when greater than zero.
	CacheSize int `yaml:"cache_size" env:"CATALOG_SCORE_CACHE_SIZE" env-default:"0"`
}

// IngestConfig holds parser layer configuration.
type IngestConfig struct {
	SampleRows int `yaml:"sample_rows" env:"CATALOG_SAMPLE_ROWS" env-default:"5"`
	Workers    int `yaml:"workers" env:"CATALOG_WORKERS" env-default:"4"`
	// Encoding applies to CSV, TSV, LTSV and JSON files.
	Encoding     string `yaml:"encoding" env:"CATALOG_ENCODING" env-default:"utf-8"`
	CSVDelimiter string `yaml:"csv_delimiter" env:"CATALOG_CSV_DELIMITER" env-default:","`
	LazyQuotes   bool   `yaml:"lazy_quotes" env:"CATALOG_LAZY_QUOTES" env-default:"false"`
	XMLRecordTag string `yaml:"xml_record_tag" env:"CATALOG_XML_RECORD_TAG" env-default:""`
	ExcelSheet   string `yaml:"excel_sheet" env:"CATALOG_EXCEL_SHEET" env-default:""`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level" env:"CATALOG_LOG_LEVEL" env-default:"info"`
	// Format is "console" or "json".
	Format string `yaml:"format" env:"CATALOG_LOG_FORMAT" env-default:"console"`
}

// NewConfig returns a Config holding the defaults that are not env-default tags.
// Pass it to cleanenv (or LoadConfig) to fill in the rest.
func NewConfig() *Config {
	return &Config{
		Matching: MatchingConfig{
			SuggestThreshold:   DefaultSuggestThreshold,
			ConfidentThreshold: DefaultConfidentThreshold,
		},
	}
}

// LoadConfig reads configuration from a YAML file with environment variable overrides.
// An empty path reads the environment (and defaults) only.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every configuration value.
func (c *Config) Validate() error {
	m := c.Matching
	if !inUnitInterval(m.SuggestThreshold) {
		return fmt.Errorf("%w: matching.suggest_threshold %v is outside [0,1]", ErrInvalidConfig, m.SuggestThreshold)
	}
	if !inUnitInterval(m.ConfidentThreshold) {
		return fmt.Errorf("%w: matching.confident_threshold %v is outside [0,1]", ErrInvalidConfig, m.ConfidentThreshold)
	}
	if m.SuggestThreshold > m.ConfidentThreshold {
		return fmt.Errorf("%w: matching.suggest_threshold exceeds matching.confident_threshold", ErrInvalidConfig)
	}
	if _, err := ScorerByName(m.Scorer); err != nil {
		return err
	}
	if m.CacheSize < 0 {
		return fmt.Errorf("%w: matching.cache_size cannot be negative", ErrInvalidConfig)
	}

	in := c.Ingest
	if in.SampleRows < MinSampleRows {
		return fmt.Errorf("%w: ingest.sample_rows must be at least %d", ErrInvalidConfig, MinSampleRows)
	}
	if in.Workers < 1 {
		return fmt.Errorf("%w: ingest.workers must be at least 1", ErrInvalidConfig)
	}
	if _, err := ParseEncoding(in.Encoding); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.CSVDelimiter) != 1 {
		return fmt.Errorf("%w: ingest.csv_delimiter must be a single character", ErrInvalidConfig)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// Matcher builds a Matcher from the matching configuration.
func (c *Config) Matcher(logger *zap.Logger) (*Matcher, error) {
	scorer, err := ScorerByName(c.Matching.Scorer)
	if err != nil {
		return nil, err
	}
	if c.Matching.CacheSize > 0 {
		if scorer, err = NewCachedScorer(scorer, c.Matching.CacheSize); err != nil {
			return nil, err
		}
	}
	return NewMatcher(
		WithSuggestThreshold(c.Matching.SuggestThreshold),
		WithConfidentThreshold(c.Matching.ConfidentThreshold),
		WithScorer(scorer),
		WithLogicalNames(!c.Matching.PhysicalNamesOnly),
		WithSingularize(c.Matching.Singularize),
		WithMatcherLogger(logger),
	)
}

// FormatTable builds the per-file-type settings from the ingest configuration.
func (c *Config) FormatTable() (FormatTable, error) {
	encoding, err := ParseEncoding(c.Ingest.Encoding)
	if err != nil {
		return FormatTable{}, err
	}
	delimiter, _ := utf8.DecodeRuneInString(c.Ingest.CSVDelimiter)

	formats := DefaultFormatTable()
	for _, ft := range []FileType{FileTypeCSV, FileTypeTSV, FileTypeLTSV, FileTypeJSON} {
		settings := formats.Settings(ft)
		settings.Encoding = encoding
		settings.LazyQuotes = c.Ingest.LazyQuotes
		if ft == FileTypeCSV {
			settings.Delimiter = delimiter
		}
		formats = formats.With(ft, settings)
	}
	formats = formats.With(FileTypeXLSX, FormatSettings{Sheet: c.Ingest.ExcelSheet})
	formats = formats.With(FileTypeXML, FormatSettings{RecordTag: c.Ingest.XMLRecordTag})
	return formats, nil
}

// Ingestor builds an Ingestor from the ingest configuration.
func (c *Config) Ingestor(logger *zap.Logger) (*Ingestor, error) {
	formats, err := c.FormatTable()
	if err != nil {
		return nil, err
	}
	return NewIngestor(
		WithFormatSettings(formats),
		WithSampleRows(c.Ingest.SampleRows),
		WithWorkers(c.Ingest.Workers),
		WithIngestLogger(logger),
	)
}

// NewLogger builds a zap logger writing to stderr from the log configuration.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}

	var logConfig zap.Config
	switch cfg.Format {
	case "json":
		logConfig = zap.NewProductionConfig()
	case "console", "":
		logConfig = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalidConfig, cfg.Format)
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)
	return logConfig.Build()
}
