package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/lychee-technology/schemata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loadConfig reads path on top of schemata.DefaultConfig. An empty path keeps
// the defaults; SCHEMATA_DATABASE_URL overrides registry.databaseUrl.
func loadConfig(path string) (*schemata.Config, error) {
	cfg := schemata.DefaultConfig()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	cfg.Registry.DatabaseURL = getenvDefault("SCHEMATA_DATABASE_URL", cfg.Registry.DatabaseURL)
	cfg.Batch.MaxParallelWorkers = getenvDefaultInt("SCHEMATA_MAX_PARALLEL_WORKERS", cfg.Batch.MaxParallelWorkers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger replaces the global logger according to cfg.
func setupLogger(cfg schemata.LoggingConfig) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format != "" {
		zc.Encoding = cfg.Format
	}

	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
