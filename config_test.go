package schemata

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Validation.ValidateJSON {
		t.Error("Expected JSON validation to be disabled by default")
	}
	if !config.Validation.CacheDocuments {
		t.Error("Expected document caching to be enabled by default")
	}

	if !config.Batch.EnableParallelProcessing {
		t.Error("Expected parallel processing to be enabled by default")
	}
	if config.Batch.ParallelThreshold != 64 {
		t.Errorf("Expected parallel threshold to be 64, got %d", config.Batch.ParallelThreshold)
	}
	if config.Batch.MaxParallelWorkers != 4 {
		t.Errorf("Expected max parallel workers to be 4, got %d", config.Batch.MaxParallelWorkers)
	}

	if config.Registry.DefinitionTable != "schemata_definitions" {
		t.Errorf("Expected definition table to be 'schemata_definitions', got %s", config.Registry.DefinitionTable)
	}

	if config.Logging.Level != "info" {
		t.Errorf("Expected log level to be 'info', got %s", config.Logging.Level)
	}
}

func TestConfigValidationDetailed(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorField  string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(),
			expectError: false,
		},
		{
			name: "parallel without workers",
			config: &Config{
				Batch: BatchConfig{EnableParallelProcessing: true, MaxParallelWorkers: 0},
			},
			expectError: true,
			errorField:  "batch.maxParallelWorkers",
		},
		{
			name: "negative parallel threshold",
			config: &Config{
				Batch: BatchConfig{EnableParallelProcessing: true, MaxParallelWorkers: 2, ParallelThreshold: -1},
			},
			expectError: true,
			errorField:  "batch.parallelThreshold",
		},
		{
			name: "sequential ignores worker count",
			config: &Config{
				Batch: BatchConfig{EnableParallelProcessing: false},
			},
			expectError: false,
		},
		{
			name: "negative max batch size",
			config: &Config{
				Batch: BatchConfig{MaxBatchSize: -5},
			},
			expectError: true,
			errorField:  "batch.maxBatchSize",
		},
		{
			name: "unknown log format",
			config: &Config{
				Logging: LoggingConfig{Format: "xml"},
			},
			expectError: true,
			errorField:  "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("Expected validation error but got none")
				} else if configErr, ok := err.(*ConfigError); ok {
					if configErr.Field != tt.errorField {
						t.Errorf("Expected error field %s, got %s", tt.errorField, configErr.Field)
					}
				} else {
					t.Errorf("Expected ConfigError, got %T", err)
				}
			} else {
				if err != nil {
					t.Errorf("Expected no validation error but got: %v", err)
				}
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "test.field",
		Message: "test message",
	}

	expected := "config validation error for field 'test.field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message %s, got %s", expected, err.Error())
	}
}
