// SPDX-License-Identifier: MIT

package config

import (
	"net/url"
	"strings"
)

const redacted = "REDACTED"

// Environment keys and query parameters containing one of these
// (case-insensitive) are never logged in clear.
var sensitiveKeywords = []string{
	"password",
	"secret",
	"token",
	"signature",
	"apikey",
	"api_key",
	"accesskey",
	"auth",
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}

// MaskURL hides user info and sensitive query values of rawURL.
func MaskURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return redacted
	}
	if u.User != nil {
		u.User = url.User(redacted)
	}
	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if isSensitiveKey(k) {
				q.Set(k, redacted)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
