// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAborted is the terminal error of an upload stopped with Abort.
	ErrAborted = errors.New("upload aborted")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("upload already started")
	// ErrOffsetMismatch means the endpoint acknowledged a different offset than the one sent.
	ErrOffsetMismatch = errors.New("upload offset mismatch")
	// ErrForeignLocation means the endpoint redirected the upload to another origin.
	ErrForeignLocation = errors.New("upload location outside endpoint origin")
)

// ProtocolError is a non-success answer of the upload endpoint.
// Expired or invalid authorization surfaces here like any other rejection.
type ProtocolError struct {
	Op     string
	Status int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("tus %s: unexpected status %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// Retryable reports whether a fresh attempt may succeed.
func (e *ProtocolError) Retryable() bool {
	switch {
	case e.Status >= 500:
		return true
	case e.Status == http.StatusConflict, e.Status == http.StatusLocked:
		return true
	}
	return false
}

// Gone reports whether the upload resource no longer exists.
func (e *ProtocolError) Gone() bool {
	return e.Status == http.StatusNotFound || e.Status == http.StatusGone
}
