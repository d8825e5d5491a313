package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/schemata"
	"github.com/lychee-technology/schemata/factory"
	"go.uber.org/zap"
)

// Server exposes the definitions of a registry over HTTP.
type Server struct {
	validators *validatorCache
	mux        *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(registry schemata.DefinitionRegistry, config *schemata.Config) *Server {
	return &Server{
		validators: newValidatorCache(registry, config),
		mux:        http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/api/v1/definitions", s.handleList)
	s.mux.HandleFunc("/api/v1/definitions/", s.apiHandler)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// databaseConfig holds the pool settings read from the environment.
type databaseConfig struct {
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Timeout         time.Duration
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	config := schemata.DefaultConfig()
	config.Registry.DefinitionDirectory = os.Getenv("SCHEMA_DIR")
	config.Registry.DefinitionTable = getEnv("DEFINITION_TABLE", config.Registry.DefinitionTable)
	config.Validation.ValidateJSON = getEnvBool("VALIDATE_JSON", config.Validation.ValidateJSON)
	config.Batch.MaxParallelWorkers = getEnvInt("MAX_PARALLEL_WORKERS", config.Batch.MaxParallelWorkers)
	config.Batch.MaxBatchSize = getEnvInt("MAX_BATCH_SIZE", config.Batch.MaxBatchSize)
	if err := config.Validate(); err != nil {
		sugar.Fatalf("invalid configuration: %v", err)
	}
	sugar.Infof("schemaDir: %s", config.Registry.DefinitionDirectory)

	ctx := context.Background()
	var registry schemata.DefinitionRegistry
	if config.Registry.DefinitionDirectory != "" {
		registry, err = factory.NewRegistryFromDirectory(config.Registry.DefinitionDirectory)
		if err != nil {
			sugar.Fatalf("failed to load definitions: %v", err)
		}
	} else {
		dbConfig := databaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "schemata"),
			Username:        getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getEnvInt("DB_MAX_CONNECTIONS", 5),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", 3600)) * time.Second,
			ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
			Timeout:         time.Duration(getEnvInt("DB_TIMEOUT_SECONDS", 30)) * time.Second,
		}
		pool, err := createDatabasePoolFromConfig(ctx, dbConfig)
		if err != nil {
			sugar.Fatalf("failed to create database pool: %v", err)
		}
		defer pool.Close()

		registry, err = factory.NewRegistryFromPostgres(ctx, pool, config)
		if err != nil {
			sugar.Fatalf("failed to load definitions: %v", err)
		}
	}

	server := NewServer(registry, config)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

// createDatabasePoolFromConfig creates a PostgreSQL connection pool from config.
// Definitions are read once at startup, so the pool stays small.
func createDatabasePoolFromConfig(ctx context.Context, config databaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
		config.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(config.MaxConnections)
	poolConfig.MinConns = int32(config.MaxIdleConns)
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = config.ConnMaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = config.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
