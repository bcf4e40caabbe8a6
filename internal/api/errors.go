// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/videoplane/internal/bunny"
	"github.com/ManuGH/videoplane/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {error: msg}. CORS headers are already set by ServeHTTP.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// providerStatus maps a provider failure onto the response status. Only a
// status the provider actually answered with passes through; transport
// failures and anything else are internal.
func providerStatus(err error) (int, bool) {
	if status, ok := bunny.UpstreamStatus(err); ok {
		return status, true
	}
	return http.StatusInternalServerError, false
}

// providerFailure answers a failed upstream call with a generic message.
// The upstream body only ever reaches the server log.
func (h *Handler) providerFailure(w http.ResponseWriter, r *http.Request, action string, err error, msg string) {
	status, upstream := providerStatus(err)

	logger := log.WithComponentFromContext(r.Context(), "api")
	evt := logger.Error().
		Err(err).
		Str(log.FieldEvent, "provider.failed").
		Str(log.FieldAction, action).
		Int("status", status)
	var pe *bunny.ProviderError
	if errors.As(err, &pe) {
		evt = evt.Int(log.FieldUpstreamStatus, pe.Status).Str(log.FieldUpstreamBody, pe.Body)
	}
	evt.Msg("provider request failed")

	if !upstream {
		writeError(w, status, msgInternal)
		return
	}
	writeError(w, status, msg)
}

func (h *Handler) internalFailure(w http.ResponseWriter, r *http.Request, action string, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Error().
		Err(err).
		Str(log.FieldEvent, "action.failed").
		Str(log.FieldAction, action).
		Msg("internal error")
	writeError(w, http.StatusInternalServerError, msgInternal)
}
