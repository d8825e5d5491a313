package schemata

// Config consolidates validator, registry and logging settings
type Config struct {
	Validation ValidationConfig `json:"validation" koanf:"validation"`
	Batch      BatchConfig      `json:"batch" koanf:"batch"`
	Registry   RegistryConfig   `json:"registry" koanf:"registry"`
	Logging    LoggingConfig    `json:"logging" koanf:"logging"`
}

// ValidationConfig contains per-call defaults
type ValidationConfig struct {
	// ValidateJSON is the default for ParseOptions.ValidateJSON.
	ValidateJSON bool `json:"validateJson" koanf:"validateJson"`
	// CacheDocuments memoizes generated documents per definition.
	CacheDocuments bool `json:"cacheDocuments" koanf:"cacheDocuments"`
}

// BatchConfig contains ParseMany settings
type BatchConfig struct {
	EnableParallelProcessing bool `json:"enableParallelProcessing" koanf:"enableParallelProcessing"`
	ParallelThreshold        int  `json:"parallelThreshold" koanf:"parallelThreshold"`
	MaxParallelWorkers       int  `json:"maxParallelWorkers" koanf:"maxParallelWorkers"`
	MaxBatchSize             int  `json:"maxBatchSize" koanf:"maxBatchSize"`
}

// RegistryConfig contains definition registry settings
type RegistryConfig struct {
	// DefinitionDirectory holds *.yaml, *.yml or *.json definition files.
	DefinitionDirectory string `json:"definitionDirectory" koanf:"definitionDirectory"`
	// DefinitionTable is the Postgres table read by the database-backed source.
	DefinitionTable string `json:"definitionTable" koanf:"definitionTable"`
	// DatabaseURL is the Postgres connection string for the database-backed source.
	DatabaseURL string `json:"databaseUrl" koanf:"databaseUrl"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `json:"level" koanf:"level"`
	Format      string `json:"format" koanf:"format"` // json or console
	Development bool   `json:"development" koanf:"development"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Validation: ValidationConfig{
			ValidateJSON:   false,
			CacheDocuments: true,
		},
		Batch: BatchConfig{
			EnableParallelProcessing: true,
			ParallelThreshold:        64,
			MaxParallelWorkers:       4,
			MaxBatchSize:             10000,
		},
		Registry: RegistryConfig{
			DefinitionTable: "schemata_definitions",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Batch.EnableParallelProcessing {
		if c.Batch.MaxParallelWorkers <= 0 {
			return &ConfigError{Field: "batch.maxParallelWorkers", Message: "must be greater than 0"}
		}
		if c.Batch.ParallelThreshold < 0 {
			return &ConfigError{Field: "batch.parallelThreshold", Message: "must not be negative"}
		}
	}

	if c.Batch.MaxBatchSize < 0 {
		return &ConfigError{Field: "batch.maxBatchSize", Message: "must not be negative"}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be json or console"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
