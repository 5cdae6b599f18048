// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

/*
Package api provides the HTTP REST API layer for Audiolog.

It exposes the listening statistics engine over JSON endpoints and serves
as the only interface between clients and the backend services.

Key Components:

  - Router: HTTP route configuration and middleware stack integration
  - Handler: Request handlers for statistics, detail, and import endpoints
  - Response formatting: Standardized JSON envelope with request metadata
  - Error handling: Machine-readable error codes mapped to HTTP statuses
  - Rate limiting: Per-endpoint-class limits (stats, import, health)
  - CORS: Cross-Origin Resource Sharing for dashboard frontends

Endpoints:

1. Health (/api/v1/health/):
  - Liveness (live), readiness (ready), and a combined status report

2. Statistics (/api/v1/stats/):
  - Rankings (top-artists, top-albums, top-tracks)
  - Time-series charts with calendar-aligned buckets (chart)
  - Library summary and recent listening activity (summary, recent-tracks)

3. Entity detail (/api/v1/artists/{ref}, /api/v1/albums/{ref}):
  - Per-artist and per-album profiles, looked up by id or exact name

4. Import (/api/v1/import):
  - CSV scrobble history upload in append or replace mode

5. Metrics (/metrics):
  - Prometheus scrape endpoint

Usage Example:

	import (
	    "github.com/tomtom215/audiolog/internal/api"
	)

	handler := api.NewHandler(statsService, imp, db, cfg)
	router := api.NewRouter(handler, cfg)
	srv := &http.Server{Addr: ":3866", Handler: router.Setup()}

Error Responses:

All errors share one shape:

	{
	  "success": false,
	  "error": {
	    "code": "INVALID_PARAMETER",
	    "message": "limit must be between 1 and 100",
	    "request_id": "a1b2c3d4"
	  }
	}

Codes map to statuses as follows: INVALID_PARAMETER and TOO_MANY_BUCKETS
are 400, NOT_FOUND is 404, CONFLICT is 409, TOO_MANY_REQUESTS is 429,
STORE_UNAVAILABLE is 503.
*/
package api
