// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldVideoID   = "video_id"
	FieldLibraryID = "library_id"
	FieldUploadURL = "upload_url"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldAction    = "action"

	// Transfer fields
	FieldOffset  = "offset"
	FieldSize    = "size"
	FieldAttempt = "attempt"

	// Upstream fields
	FieldUpstreamStatus = "upstream_status"
	FieldUpstreamBody   = "upstream_body"
	FieldOperation      = "operation"
)
