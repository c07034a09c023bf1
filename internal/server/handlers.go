package server

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/edumoraes/blingsync/internal/common"
)

// bnRequest is the body accepted by the preview and patch endpoints.
// "bn" is the canonical field; "text" is accepted as an alias.
type bnRequest struct {
	BN             string `json:"bn"`
	Text           string `json:"text"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (r *bnRequest) raw() string {
	if r.BN != "" {
		return r.BN
	}
	return r.Text
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "blingsync",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handlePreview parses pasted BN text without touching the catalog.
// Partially-bad input still produces a preview.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req bnRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.raw() == "" {
		writeError(w, http.StatusBadRequest, "body field 'bn' (or 'text') is required")
		return
	}

	parsed := s.app.ParserService.Parse(req.raw())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"cleaned_lines": parsed.CleanedLines,
		"items":         parsed.Records,
		"errors":        parsed.Errors,
	})
}

// handlePatch parses and applies the pasted BN text. The batch result is
// returned as-is: partial success is first-class, not coerced into a
// single boolean.
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	var req bnRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.raw() == "" {
		writeError(w, http.StatusBadRequest, "body field 'bn' (or 'text') is required")
		return
	}

	idemKey := req.IdempotencyKey
	if idemKey == "" {
		idemKey = r.Header.Get("Idempotency-Key")
	}

	parsed := s.app.ParserService.Parse(req.raw())
	if len(parsed.Records) == 0 {
		writeError(w, http.StatusBadRequest, "no records found in input")
		return
	}

	batch, err := s.app.UpdaterService.PatchRecords(r.Context(), parsed.Records, idemKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !batch.Succeeded() {
		// No-op unless Sentry was initialized at startup.
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("batch", batch.IdempotencyKey)
			scope.SetExtra("failures", len(batch.Failures))
			scope.SetExtra("results", len(batch.Results))
			sentry.CaptureMessage("bn patch batch completed with failures")
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      batch.Succeeded(),
		"batch":   batch,
		"preview": parsed,
	})
}
