package internal

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var selectDefinitions = regexp.QuoteMeta(`SELECT name, definition FROM "schemata_definitions" ORDER BY name`)

func TestPostgresDefinitionLoader_LoadRegistry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"name", "definition"}).
		AddRow("profile", []byte(profileJSON)).
		AddRow("user", []byte(`{"name": "account", "fields": [{"name": "name", "type": "string"}, {"name": "profile", "type": {"entity": "profile"}}]}`))
	mock.ExpectQuery(selectDefinitions).WillReturnRows(rows)

	loader := NewPostgresDefinitionLoader(mock, "schemata_definitions")
	registry, err := loader.LoadRegistry(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"profile", "user"}, registry.ListDefinitions())
	user, err := registry.GetDefinition("user")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "profile"}, user.Fields.Names())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDefinitionLoader_LoadDocuments(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"name", "definition"}).
		AddRow("profile", []byte(`{"fields": [{"name": "bio", "type": "string"}]}`))
	mock.ExpectQuery(selectDefinitions).WillReturnRows(rows)

	loader := NewPostgresDefinitionLoader(mock, "schemata_definitions")
	docs, err := loader.LoadDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "profile", docs[0].Name)
	assert.Equal(t, "bio", docs[0].Fields[0].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDefinitionLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr string
	}{
		{
			name: "query failure",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(selectDefinitions).WillReturnError(errors.New("connection refused"))
			},
			wantErr: "failed to query definition table",
		},
		{
			name: "empty table",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(selectDefinitions).WillReturnRows(pgxmock.NewRows([]string{"name", "definition"}))
			},
			wantErr: "no definitions found in table",
		},
		{
			name: "malformed document",
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"name", "definition"}).AddRow("broken", []byte("{"))
				mock.ExpectQuery(selectDefinitions).WillReturnRows(rows)
			},
			wantErr: "schemata_definitions.broken",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)
			loader := NewPostgresDefinitionLoader(mock, "schemata_definitions")
			_, err = loader.LoadDocuments(context.Background())
			assert.ErrorContains(t, err, tt.wantErr)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
