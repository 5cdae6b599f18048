// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

// Request structs validate the transport shape of parameters with
// go-playground/validator tags before they reach the statistics engine;
// the engine re-validates semantics (window arithmetic, entity
// existence) with its own error taxonomy.

package api

import (
	"github.com/tomtom215/audiolog/internal/validation"
)

// RankRequest represents the validated query parameters for the ranking
// endpoints (/stats/top-artists, /stats/top-albums, /stats/top-tracks).
//
// Fields:
//   - Period: Relative window token (7d/30d/90d/180d/365d/all)
//   - From, To: Explicit calendar date range, takes precedence over Period
//   - Limit: Result list size (1-100, 0 = server default)
type RankRequest struct {
	Period string `validate:"omitempty,oneof=7d 30d 90d 180d 365d all"`
	From   string `validate:"omitempty,datetime=2006-01-02"`
	To     string `validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `validate:"omitempty,min=1,max=100"`
}

// ChartRequest represents the validated query parameters for /stats/chart.
//
// Fields:
//   - Granularity: Bucket size (daily/monthly/yearly/auto)
//   - Period, From, To: Window selection, same semantics as RankRequest
//   - ArtistID, AlbumID: Optional entity scope
type ChartRequest struct {
	Granularity string `validate:"omitempty,oneof=daily monthly yearly auto"`
	Period      string `validate:"omitempty,oneof=7d 30d 90d 180d 365d all"`
	From        string `validate:"omitempty,datetime=2006-01-02"`
	To          string `validate:"omitempty,datetime=2006-01-02"`
	ArtistID    int64  `validate:"omitempty,min=1"`
	AlbumID     int64  `validate:"omitempty,min=1"`
}

// DetailRequest represents the validated parameters for the entity
// drill-down endpoints (/artists/{ref}, /albums/{ref}).
type DetailRequest struct {
	Ref    string `validate:"required,min=1"`
	Period string `validate:"omitempty,oneof=7d 30d 90d 180d 365d all"`
	From   string `validate:"omitempty,datetime=2006-01-02"`
	To     string `validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `validate:"omitempty,min=1,max=100"`
}

// RecentRequest represents the validated query parameters for /stats/recent.
type RecentRequest struct {
	Limit int `validate:"omitempty,min=1,max=50"`
}

// ImportRequest represents the validated parameters for POST /import.
type ImportRequest struct {
	Mode string `validate:"omitempty,oneof=append replace"`
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or an APIError otherwise.
func validateRequest(v interface{}) *APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}
