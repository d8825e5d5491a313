package main

import (
	"net/url"
	"testing"

	"github.com/lychee-technology/schemata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantName   string
		wantAction string
		wantErr    bool
	}{
		{name: "definition only", path: "/api/v1/definitions/post", wantName: "post"},
		{name: "trailing slash", path: "/api/v1/definitions/post/", wantName: "post"},
		{name: "with action", path: "/api/v1/definitions/post/validate", wantName: "post", wantAction: "validate"},
		{name: "empty", path: "/api/v1/definitions/", wantErr: true},
		{name: "too deep", path: "/api/v1/definitions/a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, action, err := parsePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantAction, action)
		})
	}
}

func TestParseOptions(t *testing.T) {
	apply := func(opts []schemata.ParseOption, initial bool) bool {
		o := schemata.ParseOptions{ValidateJSON: initial}
		for _, opt := range opts {
			opt(&o)
		}
		return o.ValidateJSON
	}

	opts, err := parseOptions(url.Values{})
	require.NoError(t, err)
	assert.True(t, apply(opts, true), "absent parameter keeps the configured default")

	opts, err = parseOptions(url.Values{"json_schema": {"true"}})
	require.NoError(t, err)
	assert.True(t, apply(opts, false))

	opts, err = parseOptions(url.Values{"json_schema": {"0"}})
	require.NoError(t, err)
	assert.False(t, apply(opts, true))

	_, err = parseOptions(url.Values{"json_schema": {"maybe"}})
	assert.Error(t, err)
}
