package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sheetbridge/sheetbridge/internal/core"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSchemas returns all registered target schemas.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ListSchemas())
}

// handleAnalyze accepts a multipart upload and runs the detection and
// mapping-suggestion pipeline over it.
//
// Form fields: "file" (required), "schema" (required), "sheet" (optional
// xlsx sheet name).
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+1024)

	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, r, fmt.Errorf("file too large: %w", err), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("malformed multipart upload: %w", err), http.StatusBadRequest)
		return
	}

	schemaKey := r.FormValue("schema")
	if schemaKey == "" {
		s.respondError(w, r, errors.New("unknown schema: none given"), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("empty file: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	result, err := s.service.Analyze(r.Context(), schemaKey, header.Filename, data, r.FormValue("sheet"))
	if err != nil {
		s.respondError(w, r, err, analyzeStatus(err))
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// analyzeStatus maps analysis errors to HTTP status codes.
func analyzeStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownSchema):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyAnalyses):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// validateRequest is the body of POST /api/mapping/validate.
type validateRequest struct {
	Schema  string             `json:"schema"`
	Mapping core.ColumnMapping `json:"mapping"`
}

// handleValidateMapping checks a mapping against its schema and the formula
// allow-list without converting any rows.
func (s *Server) handleValidateMapping(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	issues, err := s.service.ValidateMapping(req.Schema, req.Mapping)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

// convertRequest is the body of the preview and convert endpoints.
type convertRequest struct {
	Mapping core.ColumnMapping `json:"mapping"`
	Limit   int                `json:"limit,omitempty"`
}

// handlePreview converts the first rows of a session for display.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	records, err := s.service.Preview(r.Context(), sessionID, req.Mapping, req.Limit)
	if err != nil {
		s.respondError(w, r, err, sessionStatus(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"records":  records,
		"rowCount": len(records),
	})
}

// handleConvert converts all rows of a session.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	result, err := s.service.Convert(r.Context(), sessionID, req.Mapping)
	if err != nil {
		s.respondError(w, r, err, sessionStatus(err))
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// sessionStatus maps session errors to HTTP status codes.
func sessionStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownSchema):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoTableDetected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
