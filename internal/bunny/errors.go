// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bunny

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound     = errors.New("provider: resource not found")
	ErrUnauthorized = errors.New("provider: access denied")
	ErrUpstream     = errors.New("provider: request rejected")
	ErrUnavailable  = errors.New("provider: host unreachable or transport failure")
	ErrBadResponse  = errors.New("provider: invalid response format or malformed data")
)

// ProviderError wraps a sentinel with the upstream status and raw body.
// Body is for server-side logs only.
type ProviderError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("bunny: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Sentinel, e.Err}
	}
	return []error{e.Sentinel}
}

// StatusCode returns the upstream HTTP status, or 0 when no response was received.
func (e *ProviderError) StatusCode() int {
	return e.Status
}

func sentinelFor(status int) error {
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return ErrUpstream
	}
}

// UpstreamStatus extracts the provider status from err, if it carries one.
func UpstreamStatus(err error) (int, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Status > 0 {
		return pe.Status, true
	}
	return 0, false
}
