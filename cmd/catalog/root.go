package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nao1215/catalog"
	"github.com/nao1215/catalog/dictionary"
	"github.com/nao1215/catalog/domain/model"
)

// cliConfig extends the library configuration with the dictionary location.
type cliConfig struct {
	catalog.Config `yaml:",inline"`
	Dictionary     dictionaryConfig `yaml:"dictionary"`
}

// newCLIConfig returns the defaults that cleanenv must not fill in. A mapping
// section in YAML overrides DefaultMapping key by key, and "" drops a column.
func newCLIConfig() *cliConfig {
	return &cliConfig{
		Config:     *catalog.NewConfig(),
		Dictionary: dictionaryConfig{Mapping: dictionary.DefaultMapping()},
	}
}

// dictionaryConfig locates the data dictionary: a file, or a database table.
type dictionaryConfig struct {
	Path    string             `yaml:"path" env:"CATALOG_DICTIONARY_PATH" env-default:""`
	Driver  string             `yaml:"driver" env:"CATALOG_DICTIONARY_DRIVER" env-default:""`
	DSN     string             `yaml:"dsn" env:"CATALOG_DICTIONARY_DSN" env-default:""`
	Mapping dictionary.Mapping `yaml:"mapping"`
}

// app holds the flag values and the components built from them.
type app struct {
	configFile string
	logLevel   string
	output     string

	dictionaryPath string
	driver         string
	dsn            string

	out    io.Writer
	cfg    *cliConfig
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Infer column types of data files and match them to a data dictionary",
		Long: `catalog reads CSV, TSV, LTSV, Excel, Parquet, JSON and XML files (optionally
compressed with gzip, bzip2, xz or zstd), infers a semantic type for every column
from a few sample rows, and fuzzy-matches the columns against the tables of a data
dictionary kept in a file or in SQLite, PostgreSQL or SQL Server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync() // Ignore sync error on stderr
			}
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Configuration file path (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "Logging level (debug, info, warn, error); overrides the configuration")
	flags.StringVarP(&a.output, "output", "o", outputText, "Output format (text, json, yaml)")
	flags.StringVar(&a.dictionaryPath, "dictionary", "", "Dictionary file path")
	flags.StringVar(&a.driver, "driver", "", "Dictionary database driver (sqlite, pgx, sqlserver)")
	flags.StringVar(&a.dsn, "dsn", "", "Dictionary database connection string")

	rootCmd.AddCommand(newInferCmd(a), newMatchCmd(a), newRankCmd(a))
	return rootCmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := validateOutput(a.output); err != nil {
		return err
	}

	cfg := newCLIConfig()
	if a.configFile == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(a.configFile, cfg); err != nil {
		return fmt.Errorf("failed to read %s: %w", a.configFile, err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := catalog.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// loadDictionary reads the dictionary named by flags, falling back to the configuration.
func (a *app) loadDictionary(ctx context.Context, ingestor *catalog.Ingestor) ([]model.DictionaryEntry, error) {
	path := firstNonEmpty(a.dictionaryPath, a.cfg.Dictionary.Path)
	driver := firstNonEmpty(a.driver, a.cfg.Dictionary.Driver)
	dsn := firstNonEmpty(a.dsn, a.cfg.Dictionary.DSN)

	var (
		src    dictionary.Source
		closer io.Closer
	)
	switch {
	case path != "":
		fileSource, err := dictionary.NewFileSource(path, ingestor)
		if err != nil {
			return nil, err
		}
		src = fileSource
	case driver != "":
		d, err := dictionary.ParseDriver(driver)
		if err != nil {
			return nil, err
		}
		sqlSource, err := dictionary.Open(ctx, dictionary.Config{
			Driver:  d,
			DSN:     dsn,
			Mapping: a.cfg.Dictionary.Mapping,
			Logger:  a.logger,
		})
		if err != nil {
			return nil, err
		}
		src, closer = sqlSource, sqlSource
	default:
		return nil, errors.New("no dictionary: use --dictionary or --driver and --dsn")
	}
	if closer != nil {
		defer func() {
			if err := closer.Close(); err != nil {
				a.logger.Warn("Failed to close dictionary", zap.Error(err))
			}
		}()
	}

	entries, err := src.Entries(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Dictionary loaded",
		zap.Int("entries", len(entries)),
		zap.Int("tables", len(dictionary.TableNames(entries))))
	return entries, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
