// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package api

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/tomtom215/audiolog/internal/database"
	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/models"
)

// ImportRunner is the import surface the handlers need. Satisfied by
// *importer.Importer.
type ImportRunner interface {
	Run(ctx context.Context, r io.Reader, mode string) (*models.ImportResult, error)
}

// Import handles POST /api/v1/import.
//
// The scrobble history arrives either as a multipart form with a "file"
// part or as a raw CSV request body. The mode query parameter (or form
// field) selects "append" (default) or "replace".
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Import.MaxBodyBytes)

	body, mode, err := h.importBody(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	defer body.Close() //nolint:errcheck // best-effort cleanup

	req := ImportRequest{Mode: mode}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	if mode == "" {
		mode = database.ImportModeAppend
	}

	result, err := h.importer.Run(r.Context(), body, mode)
	if err != nil {
		h.respondImportError(rw, err)
		return
	}

	logging.Info().
		Str("batch_id", result.BatchID).
		Str("mode", result.Mode).
		Int("scrobbles_added", result.ScrobblesAdded).
		Int("rows_skipped", result.RowsSkipped).
		Msg("Import completed")

	rw.Success(result)
}

// importBody returns the CSV stream and requested mode from either a
// multipart upload or a raw body.
func (h *Handler) importBody(r *http.Request) (io.ReadCloser, string, error) {
	mode := r.URL.Query().Get("mode")

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.cfg.Import.MaxBodyBytes); err != nil {
			return nil, "", errBadUpload("failed to parse multipart form: " + err.Error())
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, "", errBadUpload(`multipart form must carry a "file" part`)
		}

		if formMode := r.FormValue("mode"); formMode != "" {
			mode = formMode
		}
		return file, mode, nil
	}

	return r.Body, mode, nil
}

type uploadError string

func (e uploadError) Error() string { return string(e) }

func errBadUpload(msg string) error { return uploadError(msg) }

// respondImportError maps importer failures to HTTP statuses: a running
// import conflicts, an unusable file is the caller's fault, everything
// else is a store failure.
func (h *Handler) respondImportError(rw *ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already in progress"):
		rw.Conflict("an import is already in progress")
	case strings.Contains(msg, "no usable rows"), strings.Contains(msg, "failed to parse"):
		rw.BadRequest(msg)
	default:
		logging.Error().Err(err).Msg("Import failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "import failed")
	}
}
