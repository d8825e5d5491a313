package internal

import (
	"context"
	"fmt"

	"github.com/lychee-technology/schemata"
	"go.uber.org/zap"
)

// PostgresDefinitionLoader reads definition documents stored as JSON in a
// table with the columns (name text, definition jsonb).
type PostgresDefinitionLoader struct {
	pool      definitionQuerier
	tableName string
}

// NewPostgresDefinitionLoader creates a loader over tableName.
func NewPostgresDefinitionLoader(pool definitionQuerier, tableName string) *PostgresDefinitionLoader {
	return &PostgresDefinitionLoader{
		pool:      pool,
		tableName: tableName,
	}
}

// LoadRegistry loads every row and resolves the documents into a registry.
func (l *PostgresDefinitionLoader) LoadRegistry(ctx context.Context) (schemata.DefinitionRegistry, error) {
	docs, err := l.LoadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	defs, err := BuildDefinitions(docs)
	if err != nil {
		return nil, err
	}
	return &definitionRegistry{definitions: defs}, nil
}

// LoadDocuments returns the stored documents ordered by name.
func (l *PostgresDefinitionLoader) LoadDocuments(ctx context.Context) ([]DefinitionDocument, error) {
	query := fmt.Sprintf("SELECT name, definition FROM %s ORDER BY name", sanitizeIdentifier(l.tableName))

	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query definition table: %w", err)
	}
	defer rows.Close()

	var docs []DefinitionDocument
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("failed to scan definition row: %w", err)
		}

		doc, err := ParseDefinitionDocument(data, l.tableName+"."+name)
		if err != nil {
			return nil, err
		}
		if doc.Name == "" {
			doc.Name = name
		} else if doc.Name != name {
			zap.S().Warnw("definition name differs from row name; using row name", "row", name, "document", doc.Name)
			doc.Name = name
		}
		docs = append(docs, doc)
		zap.S().Debugw("Loaded definition", "name", name, "fields", len(doc.Fields))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definition rows: %w", err)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no definitions found in table: %s", l.tableName)
	}

	zap.S().Infow("Loaded definitions from database", "count", len(docs), "table", l.tableName)
	return docs, nil
}
