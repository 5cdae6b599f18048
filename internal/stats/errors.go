// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package stats

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures. The API layer maps kinds to HTTP
// status codes; the engine itself never sees HTTP.
type Kind int

const (
	// KindInvalidParameter is a request parameter outside its allowed
	// set. Maps to 400.
	KindInvalidParameter Kind = iota + 1
	// KindNotFound is an entity reference that resolves to nothing.
	// Maps to 404.
	KindNotFound
	// KindTooManyBuckets is a chart request whose window and
	// granularity would exceed the bucket cap. Maps to 400.
	KindTooManyBuckets
	// KindStoreUnavailable is a store read failure. Never masked as an
	// empty result. Maps to 503.
	KindStoreUnavailable
)

// Code returns the machine-readable error code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindInvalidParameter:
		return "INVALID_PARAMETER"
	case KindNotFound:
		return "NOT_FOUND"
	case KindTooManyBuckets:
		return "TOO_MANY_BUCKETS"
	case KindStoreUnavailable:
		return "STORE_UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

// Error is the engine's error type. Param and Allowed are populated for
// invalid parameters so the API can tell the caller what would have been
// accepted.
type Error struct {
	Kind    Kind
	Param   string
	Allowed []string
	Message string
	cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// ErrInvalidParameter builds an invalid-parameter error naming the
// offending parameter and, when the domain is enumerable, its allowed
// values.
func ErrInvalidParameter(param, message string, allowed ...string) *Error {
	return &Error{
		Kind:    KindInvalidParameter,
		Param:   param,
		Allowed: allowed,
		Message: fmt.Sprintf("invalid %s: %s", param, message),
	}
}

// ErrNotFound builds a not-found error for an entity reference.
func ErrNotFound(entityType, ref string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %q not found", entityType, ref),
	}
}

// ErrTooManyBuckets builds the over-cap error for a chart request.
func ErrTooManyBuckets(buckets, limit int) *Error {
	return &Error{
		Kind:    KindTooManyBuckets,
		Message: fmt.Sprintf("window spans %d buckets, limit is %d; use a coarser granularity or a narrower window", buckets, limit),
	}
}

// ErrStoreUnavailable wraps a store read failure.
func ErrStoreUnavailable(err error) *Error {
	return &Error{
		Kind:    KindStoreUnavailable,
		Message: "statistics store unavailable",
		cause:   err,
	}
}

// KindOf extracts the Kind from an error chain, or 0 when the error did
// not originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
