package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/lychee-technology/schemata"
	"github.com/lychee-technology/schemata/internal"
)

const maxBodyBytes = 10 << 20

// parsePath parses /api/v1/definitions/{name} or /api/v1/definitions/{name}/{action}
func parsePath(path string) (name string, action string, err error) {
	path = strings.TrimPrefix(path, "/api/v1/definitions/")
	path = strings.Trim(path, "/")

	if path == "" {
		return "", "", fmt.Errorf("empty definition name")
	}

	parts := strings.Split(path, "/")

	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid path format")
	}
}

// parseOptions reads the json_schema query parameter. When it is absent the
// validator's configured default applies.
func parseOptions(queryParams url.Values) ([]schemata.ParseOption, error) {
	raw := queryParams.Get("json_schema")
	if raw == "" {
		return nil, nil
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid json_schema value: %s", raw)
	}
	if enabled {
		return []schemata.ParseOption{schemata.WithJSONValidation()}, nil
	}
	return []schemata.ParseOption{schemata.WithoutJSONValidation()}, nil
}

// APIResponse is the standard error response format
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// failureResponse carries a validation failure in its structured form.
type failureResponse struct {
	Valid bool  `json:"valid"`
	Error error `json:"error"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, data)
}

// writeFailure maps err to a status code. Input validation failures keep
// their structure in the body.
func writeFailure(w http.ResponseWriter, err error) error {
	var (
		report     *schemata.ErrorReport
		violations *schemata.ViolationError
		batchErr   *schemata.BatchError
		schemaErr  *schemata.SchemataError
	)
	switch {
	case errors.As(err, &report), errors.As(err, &violations):
		return writeJSON(w, http.StatusUnprocessableEntity, failureResponse{Valid: false, Error: err})
	case errors.As(err, &batchErr):
		return writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &schemaErr):
		switch schemaErr.Type {
		case schemata.ErrorTypeNotFound:
			return writeError(w, http.StatusNotFound, schemaErr.Error())
		case schemata.ErrorTypeCodec, schemata.ErrorTypeValidation:
			return writeError(w, http.StatusBadRequest, schemaErr.Error())
		}
	}
	return writeError(w, http.StatusInternalServerError, err.Error())
}

// readJSONBody reads and decodes the request body into a generic JSON tree
func readJSONBody(w http.ResponseWriter, r *http.Request) (any, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return internal.NewCodec().Decode(data)
}
