// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

/*
Package validation provides struct validation using go-playground/validator v10.

This package wraps the go-playground/validator library to provide a thread-safe
singleton validator instance with user-friendly error messages. It integrates
with the API's error format for consistent error responses.

# Overview

The package provides:
  - Thread-safe singleton validator (initialized once, cached struct info)
  - Error translation to human-readable messages
  - APIError conversion matching the API's VALIDATION_ERROR format

# Quick Start

	type RankRequest struct {
	    Target string `validate:"required,oneof=artist album track"`
	    Period string `validate:"omitempty,oneof=7d 30d 90d 180d 365d all"`
	    Limit  int    `validate:"omitempty,min=1,max=100"`
	}

	func handler(w http.ResponseWriter, r *http.Request) {
	    req := RankRequest{...}
	    if verr := validation.ValidateStruct(&req); verr != nil {
	        apiErr := verr.ToAPIError()
	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
	        return
	    }
	    // proceed with valid request
	}

# Common Validation Tags

String validations:
  - required: Field must not be empty
  - min=n: Minimum length n characters
  - max=n: Maximum length n characters
  - datetime=2006-01-02: Valid calendar date

Numeric validations:
  - gte, lte, gt, lt: Numeric bounds
  - min=n, max=n: Minimum/maximum value

Enum validations:
  - oneof=a b c: Must be one of the specified values

# Error Types

ValidationError represents a single field validation failure and exposes
Field(), Tag(), Param(), Value(), and Error(). RequestValidationError
aggregates multiple field errors; ToAPIError converts the aggregate to
the API's error shape:

	// Single field error
	{
	    "code": "VALIDATION_ERROR",
	    "message": "Limit must be at most 100",
	    "details": {"field": "Limit", "tag": "max", "value": 250}
	}

	// Multiple field errors
	{
	    "code": "VALIDATION_ERROR",
	    "message": "Target: must be one of: artist album track; Limit: ...",
	    "details": {"fields": [...]}
	}

# Thread Safety

GetValidator returns the same instance for all callers. The underlying
validator caches struct metadata, so repeated validation of the same
request types is cheap.
*/
package validation
