// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

const defaultRPM = 600

// KeyByIPAndAction gives every action of a client its own budget, so a
// status polling loop cannot starve uploads of the same client.
func KeyByIPAndAction(r *http.Request) (string, error) {
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return ip + "|" + r.URL.Query().Get("action"), nil
}

// RateLimit allows limit requests per window and key. Rejections carry the
// same {error} body and CORS headers as every other response.
func RateLimit(limit int, window time.Duration, keyFuncs ...httprate.KeyFunc) func(http.Handler) http.Handler {
	if len(keyFuncs) == 0 {
		keyFuncs = []httprate.KeyFunc{httprate.KeyByIP}
	}
	retryAfter := strconv.Itoa(max(1, int(window.Seconds())))
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(keyFuncs...),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			SetCORSHeaders(w.Header())
			w.Header().Set("Retry-After", retryAfter)
			writeJSONError(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
}

// APIRateLimit limits each client IP and action to rpm requests per minute.
func APIRateLimit(rpm int) func(http.Handler) http.Handler {
	if rpm <= 0 {
		rpm = defaultRPM
	}
	return RateLimit(rpm, time.Minute, KeyByIPAndAction)
}
