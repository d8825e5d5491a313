package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/schemata"
	"github.com/lychee-technology/schemata/internal"
)

// NewValidator creates a Validator for def with the provided configuration.
// This is the primary way for external projects to create a Validator instance.
// A nil config falls back to schemata.DefaultConfig().
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/schemata"
//	    "github.com/lychee-technology/schemata/factory"
//	)
//
//	post := schemata.NewDefinition("post").
//	    Field("title", schemata.Text(), schemata.Required()).
//	    MustBuild()
//	v, err := factory.NewValidator(post, schemata.DefaultConfig())
//	if err != nil {
//	    // handle error
//	}
//	record, err := v.Parse(ctx, map[string]any{"title": "hello"})
func NewValidator(def *schemata.Definition, config *schemata.Config) (schemata.Validator, error) {
	return internal.NewValidator(def, config)
}

// NewValidatorFromRegistry looks up name in registry and creates its Validator.
func NewValidatorFromRegistry(registry schemata.DefinitionRegistry, name string, config *schemata.Config) (schemata.Validator, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	def, err := registry.GetDefinition(name)
	if err != nil {
		return nil, err
	}
	return internal.NewValidator(def, config)
}

// NewRegistry creates an in-memory registry holding defs and everything they
// reference.
func NewRegistry(defs ...*schemata.Definition) (schemata.DefinitionRegistry, error) {
	return internal.NewDefinitionRegistry(defs...)
}

// NewRegistryFromDirectory loads every *.json, *.yaml and *.yml definition file
// in dir. Entity references between files are resolved by definition name.
func NewRegistryFromDirectory(dir string) (schemata.DefinitionRegistry, error) {
	return internal.NewFileDefinitionRegistry(dir)
}

// NewRegistryFromPostgres loads definitions stored as JSON documents in
// config.Registry.DefinitionTable.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, config.Registry.DatabaseURL)
//	registry, err := factory.NewRegistryFromPostgres(ctx, pool, config)
func NewRegistryFromPostgres(ctx context.Context, pool *pgxpool.Pool, config *schemata.Config) (schemata.DefinitionRegistry, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if config == nil {
		config = schemata.DefaultConfig()
	}
	loader := internal.NewPostgresDefinitionLoader(pool, config.Registry.DefinitionTable)
	return loader.LoadRegistry(ctx)
}

// NewRegistryFromConfig picks the registry source from config.Registry: the
// definition directory when set, otherwise the Postgres table at DatabaseURL.
// The returned close function releases the database pool, if one was opened.
func NewRegistryFromConfig(ctx context.Context, config *schemata.Config) (schemata.DefinitionRegistry, func(), error) {
	if config == nil {
		config = schemata.DefaultConfig()
	}
	noop := func() {}

	if config.Registry.DefinitionDirectory != "" {
		registry, err := NewRegistryFromDirectory(config.Registry.DefinitionDirectory)
		return registry, noop, err
	}
	if config.Registry.DatabaseURL == "" {
		return nil, noop, fmt.Errorf("either registry.definitionDirectory or registry.databaseUrl must be set")
	}

	pool, err := pgxpool.New(ctx, config.Registry.DatabaseURL)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create database pool: %w", err)
	}
	registry, err := NewRegistryFromPostgres(ctx, pool, config)
	if err != nil {
		pool.Close()
		return nil, noop, err
	}
	return registry, pool.Close, nil
}

// RegisterTelemetryEmitter installs fn as the receiver of validation
// measurements: parse latency per path, parse outcomes and batch sizes.
// Passing nil disables telemetry.
func RegisterTelemetryEmitter(fn func(ctx context.Context, name string, labels map[string]string, value any)) {
	internal.RegisterTelemetryEmitter(fn)
}
