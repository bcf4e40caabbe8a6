// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Control plane attributes
	ActionKey  = "videoplane.action"
	VideoIDKey = "videoplane.video_id"

	// Provider attributes
	ProviderOperationKey = "provider.operation"
	ProviderLibraryKey   = "provider.library_id"

	// Upload attributes
	UploadSizeKey     = "upload.size"
	UploadOffsetKey   = "upload.offset"
	UploadChunkKey    = "upload.chunk_size"
	UploadAttemptKey  = "upload.attempt"
	UploadResumedKey  = "upload.resumed"
	UploadOutcomeKey  = "upload.outcome"
	UploadEndpointKey = "upload.endpoint"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes. Empty url is omitted.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
	if url != "" {
		attrs = append(attrs, attribute.String(HTTPURLKey, url))
	}
	return attrs
}

// ActionAttributes creates control-plane dispatch attributes.
func ActionAttributes(action, videoID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ActionKey, action)}
	if videoID != "" {
		attrs = append(attrs, attribute.String(VideoIDKey, videoID))
	}
	return attrs
}

// UploadAttributes creates span attributes for one resumable upload.
func UploadAttributes(videoID, endpoint string, size, chunkSize int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(VideoIDKey, videoID),
		attribute.String(UploadEndpointKey, endpoint),
		attribute.Int64(UploadSizeKey, size),
		attribute.Int64(UploadChunkKey, chunkSize),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
