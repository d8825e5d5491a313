package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/schemata/internal"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

type initDBOptions struct {
	databaseURL     string
	host            string
	port            int
	database        string
	user            string
	password        string
	sslMode         string
	definitionTable string
	definitionDir   string
}

func initDBCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-db",
		Usage: "Create the definition table and register the definition files of a directory",
		Flags: commonFlags(
			&cli.StringFlag{Name: "db-host", Value: getenvDefault("DB_HOST", "localhost"), Usage: "database host"},
			&cli.IntFlag{Name: "db-port", Value: int64(getenvDefaultInt("DB_PORT", 5432)), Usage: "database port"},
			&cli.StringFlag{Name: "db-name", Value: getenvDefault("DB_NAME", "schemata"), Usage: "database name"},
			&cli.StringFlag{Name: "db-user", Value: getenvDefault("DB_USER", "postgres"), Usage: "database user"},
			&cli.StringFlag{Name: "db-password", Value: getenvDefault("DB_PASSWORD", "postgres"), Usage: "database password"},
			&cli.StringFlag{Name: "db-ssl-mode", Value: getenvDefault("DB_SSL_MODE", "disable"), Usage: "database sslmode"},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			opts := initDBOptions{
				databaseURL:     cfg.Registry.DatabaseURL,
				host:            c.String("db-host"),
				port:            int(c.Int64("db-port")),
				database:        c.String("db-name"),
				user:            c.String("db-user"),
				password:        c.String("db-password"),
				sslMode:         c.String("db-ssl-mode"),
				definitionTable: cfg.Registry.DefinitionTable,
				definitionDir:   cfg.Registry.DefinitionDirectory,
			}
			return initDatabase(ctx, opts)
		},
	}
}

func initDatabase(ctx context.Context, opts initDBOptions) error {
	connString := opts.databaseURL
	if connString == "" {
		connString = buildConnString(opts)
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := withTx(ctx, conn, func(tx pgx.Tx) error {
		return ensureDefinitionTable(ctx, tx, opts)
	}); err != nil {
		return err
	}

	zap.S().Infow("Database initialized", "table", opts.definitionTable)
	return nil
}

func buildConnString(opts initDBOptions) string {
	hostPort := fmt.Sprintf("%s:%d", opts.host, opts.port)

	var userInfo *url.Userinfo
	if opts.password != "" {
		userInfo = url.UserPassword(opts.user, opts.password)
	} else {
		userInfo = url.User(opts.user)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   hostPort,
		Path:   "/" + opts.database,
	}

	q := url.Values{}
	if opts.sslMode != "" {
		q.Set("sslmode", opts.sslMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func ensureDefinitionTable(ctx context.Context, tx pgx.Tx, opts initDBOptions) error {
	table := quoteIdentifier(opts.definitionTable)

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name       TEXT PRIMARY KEY,
		definition JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, table)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure definition table: %w", err)
	}
	zap.S().Infow("Ensured definition table", "table", opts.definitionTable)

	if opts.definitionDir == "" {
		return nil
	}
	return registerDefinitions(ctx, tx, opts.definitionTable, opts.definitionDir)
}

// registerDefinitions upserts every definition file of dir. The whole set is
// resolved first, so dangling or cyclic references abort the transaction.
func registerDefinitions(ctx context.Context, tx pgx.Tx, table, dir string) error {
	registry, err := internal.NewFileDefinitionRegistry(dir)
	if err != nil {
		return err
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (name, definition) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET definition = EXCLUDED.definition, updated_at = now()`,
		quoteIdentifier(table),
	)

	names := registry.ListDefinitions()
	for _, name := range names {
		def, err := registry.GetDefinition(name)
		if err != nil {
			return err
		}
		data, err := json.Marshal(internal.DocumentFromDefinition(def))
		if err != nil {
			return fmt.Errorf("encode definition %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, insertSQL, name, data); err != nil {
			return fmt.Errorf("register definition %s: %w", name, err)
		}
		zap.S().Infow("Registered definition", "name", name)
	}

	zap.S().Infow("Registered definitions from directory", "count", len(names), "dir", dir)
	return nil
}

func withTx(ctx context.Context, conn *pgxpool.Conn, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func quoteIdentifier(name string) string {
	return pgx.Identifier(splitIdentifier(name)).Sanitize()
}

func splitIdentifier(name string) []string {
	parts := strings.Split(name, ".")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return []string{name}
	}
	return result
}
