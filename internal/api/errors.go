// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/stats"
)

// respondStatsError maps a statistics engine error to an HTTP response.
// The engine's error kinds carry the machine-readable code; this layer
// only picks the status.
func respondStatsError(rw *ResponseWriter, err error) {
	kind := stats.KindOf(err)

	var details interface{}
	var statsErr *stats.Error
	if errors.As(err, &statsErr) && statsErr.Param != "" {
		d := map[string]interface{}{"param": statsErr.Param}
		if len(statsErr.Allowed) > 0 {
			d["allowed"] = statsErr.Allowed
		}
		details = d
	}

	switch kind {
	case stats.KindInvalidParameter, stats.KindTooManyBuckets:
		rw.ErrorWithDetails(http.StatusBadRequest, kind.Code(), err.Error(), details)
	case stats.KindNotFound:
		rw.Error(http.StatusNotFound, kind.Code(), err.Error())
	case stats.KindStoreUnavailable:
		logging.Error().Err(err).Msg("Statistics store unavailable")
		rw.Error(http.StatusServiceUnavailable, kind.Code(), "statistics store unavailable")
	default:
		logging.Error().Err(err).Msg("Unexpected statistics error")
		rw.InternalError("an unexpected error occurred")
	}
}
