// Package config loads and validates configuration for the batch
// analyzer and structured extractor binaries from flags and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Output formats
	FormatJSON = "json"
	FormatCSV  = "csv"

	// Default values
	DefaultPattern     = "*.pdf"
	DefaultLogLevel    = "info"
	DefaultRetries     = 3
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// MaxWorkers is the hard cap on parallel workers.
	MaxWorkers = 8

	envPrefix = "PDFBATCH"
)

// Common holds configuration shared by both binaries.
type Common struct {
	Inputs      []string
	Workers     int // 0 = auto-detect
	Pattern     string
	Recursive   bool
	FileTimeout time.Duration // 0 = no per-file budget
	MaxFileSize int64
	LogLevel    string
	Version     string
}

// BatchConfig configures the batch analysis binary.
type BatchConfig struct {
	Common
	Output string
	Format string
}

// ExtractConfig configures the structured extraction binary.
type ExtractConfig struct {
	Common
	OutputDir  string
	Schema     string
	APIKey     string
	Model      string
	MaxRetries int
}

// WorkerCount resolves the effective worker count: the configured
// value, or available parallelism capped at MaxWorkers.
func (c *Common) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	n := runtime.NumCPU()
	if n > MaxWorkers {
		n = MaxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// LoadBatchFromFlags parses command line flags for the batch analyzer.
func LoadBatchFromFlags() (*BatchConfig, error) {
	cfg := &BatchConfig{
		Common: defaultCommon(),
		Format: FormatJSON,
	}

	setupViperEnvironment()
	viper.SetDefault("output", cfg.Output)
	viper.SetDefault("format", cfg.Format)
	defineCommonFlags(&cfg.Common)
	pflag.StringP("output", "o", cfg.Output, "Output file path (JSON or CSV)")
	pflag.StringP("format", "f", cfg.Format, "Output format: json or csv")
	bindCommonFlags()
	bindFlag("output")
	bindFlag("format")

	pflag.Parse()

	populateCommon(&cfg.Common)
	cfg.Output = viper.GetString("output")
	cfg.Format = viper.GetString("format")
	cfg.Inputs = pflag.Args()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadExtractFromFlags parses command line flags for the structured
// extractor. The AI credential comes only from the ANTHROPIC_API_KEY
// environment variable, never from a flag.
func LoadExtractFromFlags() (*ExtractConfig, error) {
	cfg := &ExtractConfig{
		Common:     defaultCommon(),
		OutputDir:  "./extracted_data",
		Schema:     "client",
		MaxRetries: DefaultRetries,
	}

	setupViperEnvironment()
	viper.SetDefault("output", cfg.OutputDir)
	viper.SetDefault("schema", cfg.Schema)
	viper.SetDefault("model", cfg.Model)
	viper.SetDefault("retries", cfg.MaxRetries)
	defineCommonFlags(&cfg.Common)
	pflag.StringP("output", "o", cfg.OutputDir, "Directory for extracted records")
	pflag.String("schema", cfg.Schema, "Extraction schema name")
	pflag.String("model", cfg.Model, "AI model name (empty selects the default)")
	pflag.Int("retries", cfg.MaxRetries, "Retry budget for transient AI provider failures")
	bindCommonFlags()
	for _, name := range []string{"output", "schema", "model", "retries"} {
		bindFlag(name)
	}

	pflag.Parse()

	populateCommon(&cfg.Common)
	cfg.OutputDir = viper.GetString("output")
	cfg.Schema = viper.GetString("schema")
	cfg.Model = viper.GetString("model")
	cfg.MaxRetries = viper.GetInt("retries")
	cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.Inputs = pflag.Args()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultCommon() Common {
	return Common{
		Pattern:     DefaultPattern,
		MaxFileSize: DefaultMaxFileSize,
		LogLevel:    DefaultLogLevel,
		Version:     "1.0.0",
	}
}

// setupViperEnvironment configures viper with the environment prefix.
func setupViperEnvironment() {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
}

// defineCommonFlags sets up the flags both binaries share.
func defineCommonFlags(cfg *Common) {
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("pattern", cfg.Pattern)
	viper.SetDefault("recursive", cfg.Recursive)
	viper.SetDefault("timeout", 0)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("loglevel", cfg.LogLevel)

	pflag.IntP("workers", "w", cfg.Workers, "Number of parallel workers (0 = auto, max 8)")
	pflag.StringP("pattern", "p", cfg.Pattern, "File pattern to match in directories")
	pflag.BoolP("recursive", "r", cfg.Recursive, "Process directories recursively")
	pflag.Int("timeout", 0, "Per-file analysis budget in seconds (0 = none)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindCommonFlags binds the shared flags to viper.
func bindCommonFlags() {
	for _, name := range []string{"workers", "pattern", "recursive", "timeout", "maxfilesize", "loglevel"} {
		bindFlag(name)
	}
}

func bindFlag(name string) {
	_ = viper.BindPFlag(name, pflag.Lookup(name))
}

// populateCommon fills the shared config from viper.
func populateCommon(cfg *Common) {
	cfg.Workers = viper.GetInt("workers")
	cfg.Pattern = viper.GetString("pattern")
	cfg.Recursive = viper.GetBool("recursive")
	cfg.FileTimeout = time.Duration(viper.GetInt("timeout")) * time.Second
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.LogLevel = viper.GetString("loglevel")
}

// validate checks the shared configuration.
func (c *Common) validate() error {
	if len(c.Inputs) == 0 {
		return errors.New("at least one input file or directory is required")
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 0 and %d", MaxWorkers)
	}
	if c.Pattern == "" {
		return errors.New("file pattern cannot be empty")
	}
	if _, err := filepath.Match(c.Pattern, "probe.pdf"); err != nil {
		return fmt.Errorf("invalid file pattern %q: %w", c.Pattern, err)
	}
	if c.FileTimeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// Validate checks the batch analyzer configuration.
func (c *BatchConfig) Validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}
	if c.Output == "" {
		return errors.New("output path is required")
	}
	if c.Format != FormatJSON && c.Format != FormatCSV {
		return fmt.Errorf("format must be either %q or %q", FormatJSON, FormatCSV)
	}
	return nil
}

// Validate checks the structured extractor configuration. Schema name
// validity is checked at lookup time by the schema package.
func (c *ExtractConfig) Validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.Schema == "" {
		return errors.New("schema name is required")
	}
	if c.MaxRetries < 1 {
		return errors.New("retry budget must be at least 1")
	}
	return nil
}

// AIEnabled reports whether an AI provider credential is configured.
func (c *ExtractConfig) AIEnabled() bool {
	return c.APIKey != ""
}
