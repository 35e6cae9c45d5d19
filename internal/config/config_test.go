package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validBatchConfig() *BatchConfig {
	return &BatchConfig{
		Common: Common{
			Inputs:      []string{"docs/"},
			Workers:     4,
			Pattern:     DefaultPattern,
			MaxFileSize: DefaultMaxFileSize,
			LogLevel:    DefaultLogLevel,
		},
		Output: "report.json",
		Format: FormatJSON,
	}
}

func TestBatchConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*BatchConfig)
		wantErr string
	}{
		{
			name:   "valid json config",
			modify: func(c *BatchConfig) {},
		},
		{
			name:   "valid csv config",
			modify: func(c *BatchConfig) { c.Format = FormatCSV },
		},
		{
			name:   "auto workers",
			modify: func(c *BatchConfig) { c.Workers = 0 },
		},
		{
			name:    "no inputs",
			modify:  func(c *BatchConfig) { c.Inputs = nil },
			wantErr: "at least one input",
		},
		{
			name:    "negative workers",
			modify:  func(c *BatchConfig) { c.Workers = -1 },
			wantErr: "workers must be between",
		},
		{
			name:    "too many workers",
			modify:  func(c *BatchConfig) { c.Workers = 9 },
			wantErr: "workers must be between",
		},
		{
			name:    "empty pattern",
			modify:  func(c *BatchConfig) { c.Pattern = "" },
			wantErr: "pattern cannot be empty",
		},
		{
			name:    "malformed pattern",
			modify:  func(c *BatchConfig) { c.Pattern = "[" },
			wantErr: "invalid file pattern",
		},
		{
			name:    "negative timeout",
			modify:  func(c *BatchConfig) { c.FileTimeout = -time.Second },
			wantErr: "timeout cannot be negative",
		},
		{
			name:    "zero max file size",
			modify:  func(c *BatchConfig) { c.MaxFileSize = 0 },
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "bad log level",
			modify:  func(c *BatchConfig) { c.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "missing output",
			modify:  func(c *BatchConfig) { c.Output = "" },
			wantErr: "output path is required",
		},
		{
			name:    "bad format",
			modify:  func(c *BatchConfig) { c.Format = "xml" },
			wantErr: "format must be either",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBatchConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestExtractConfigValidate(t *testing.T) {
	valid := func() *ExtractConfig {
		return &ExtractConfig{
			Common: Common{
				Inputs:      []string{"case.pdf"},
				Pattern:     DefaultPattern,
				MaxFileSize: DefaultMaxFileSize,
				LogLevel:    DefaultLogLevel,
			},
			OutputDir:  "./extracted_data",
			Schema:     "client",
			MaxRetries: DefaultRetries,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing output directory", func(t *testing.T) {
		cfg := valid()
		cfg.OutputDir = ""
		assert.ErrorContains(t, cfg.Validate(), "output directory is required")
	})

	t.Run("missing schema", func(t *testing.T) {
		cfg := valid()
		cfg.Schema = ""
		assert.ErrorContains(t, cfg.Validate(), "schema name is required")
	})

	t.Run("zero retries", func(t *testing.T) {
		cfg := valid()
		cfg.MaxRetries = 0
		assert.ErrorContains(t, cfg.Validate(), "retry budget")
	})

	t.Run("ai enabled only with key", func(t *testing.T) {
		cfg := valid()
		assert.False(t, cfg.AIEnabled())
		cfg.APIKey = "sk-test"
		assert.True(t, cfg.AIEnabled())
	})
}

func TestWorkerCount(t *testing.T) {
	c := Common{Workers: 3}
	assert.Equal(t, 3, c.WorkerCount())

	c.Workers = 0
	got := c.WorkerCount()
	assert.GreaterOrEqual(t, got, 1)
	assert.LessOrEqual(t, got, MaxWorkers)
}
