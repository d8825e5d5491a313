package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lychee-technology/schemata"
	"github.com/lychee-technology/schemata/internal"
	"go.uber.org/zap"
)

// validationResult is the outcome of validating one document.
type validationResult struct {
	Index  int            `json:"index"`
	Valid  bool           `json:"valid"`
	Record map[string]any `json:"record,omitempty"`
	Error  error          `json:"error,omitempty"`
}

// batchResponse is returned when the request body is an array.
type batchResponse struct {
	Valid   bool               `json:"valid"`
	Total   int                `json:"total"`
	Invalid int                `json:"invalid"`
	Results []validationResult `json:"results"`
}

// handleList handles GET /api/v1/definitions
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"definitions": s.validators.names()})
}

// handleDefinition handles GET /api/v1/definitions/{name}
func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	v, err := s.validators.get(name)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, internal.DocumentFromDefinition(v.Definition()))
}

// handleSchema handles GET /api/v1/definitions/{name}/schema
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	v, err := s.validators.get(name)
	if err != nil {
		writeFailure(w, err)
		return
	}
	data, err := v.JSONSchema().MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("render JSON schema: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleValidate handles POST /api/v1/definitions/{name}/validate?json_schema=true
//
// The body is either one document or an array of documents.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	v, err := s.validators.get(name)
	if err != nil {
		writeFailure(w, err)
		return
	}

	opts, err := parseOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rawBody, err := readJSONBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	switch body := rawBody.(type) {
	case map[string]any:
		rec, err := v.Parse(r.Context(), body, opts...)
		if err != nil {
			writeFailure(w, err)
			return
		}
		dumped, err := v.Dump(rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeSuccess(w, http.StatusOK, validationResult{Valid: true, Record: dumped})
	case []any:
		if len(body) == 0 {
			writeError(w, http.StatusBadRequest, "empty array not allowed")
			return
		}
		s.validateBatch(w, r, v, body, opts)
	default:
		writeError(w, http.StatusBadRequest, "body must be an object or array")
	}
}

func (s *Server) validateBatch(w http.ResponseWriter, r *http.Request, v schemata.Validator, docs []any, opts []schemata.ParseOption) {
	resp := batchResponse{Valid: true, Total: len(docs), Results: make([]validationResult, len(docs))}
	for i := range resp.Results {
		resp.Results[i] = validationResult{Index: i, Valid: true}
	}

	records, err := v.ParseMany(r.Context(), docs, opts...)
	var batchErr *schemata.BatchError
	switch {
	case err == nil:
		for i, rec := range records {
			dumped, err := v.Dump(rec)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			resp.Results[i].Record = dumped
		}
	case errors.As(err, &batchErr):
		resp.Valid = false
		resp.Invalid = len(batchErr.Failures)
		for _, failure := range batchErr.Failures {
			resp.Results[failure.Index].Valid = false
			resp.Results[failure.Index].Error = failure.Err
		}
	default:
		writeFailure(w, err)
		return
	}

	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeSuccess(w, status, resp)
}

// apiHandler dispatches /api/v1/definitions/{name}[/{action}]
func (s *Server) apiHandler(w http.ResponseWriter, r *http.Request) {
	name, action, err := parsePath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}
	zap.S().Debugw("handling request", "method", r.Method, "definition", name, "action", action)

	switch action {
	case "":
		s.handleDefinition(w, r, name)
	case "schema":
		s.handleSchema(w, r, name)
	case "validate":
		s.handleValidate(w, r, name)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown action: %s", action))
	}
}
