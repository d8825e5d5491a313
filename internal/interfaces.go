package internal

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/schemata"
)

// definitionQuerier is the subset of pgxpool.Pool used to load definitions.
type definitionQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var (
	_ schemata.Validator          = (*Validator)(nil)
	_ schemata.CompiledSchema     = (*CompiledSchema)(nil)
	_ schemata.DefinitionRegistry = (*definitionRegistry)(nil)
)
