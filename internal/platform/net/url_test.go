// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeURL(t *testing.T) {
	assert.Equal(t, "https://video.example.test/tusupload/abc", SanitizeURL("https://user:pw@video.example.test/tusupload/abc?sig=1"))
	assert.Equal(t, "invalid-url-redacted", SanitizeURL("http://[::1"))
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Video.Example.TEST", want: "video.example.test"},
		{in: "example.test.", want: "example.test"},
		{in: "bücher.example", want: "xn--bcher-kva.example"},
		{in: "[::1]", want: "::1"},
		{in: "127.0.0.1", want: "127.0.0.1"},
		{in: "", wantErr: true},
		{in: "host:8080", wantErr: true},
		{in: "user@host", wantErr: true},
		{in: "host/path", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeHost(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSameOrigin(t *testing.T) {
	parse := func(s string) *url.URL {
		u, err := url.Parse(s)
		require.NoError(t, err)
		return u
	}
	base := parse("https://video.example.test/tusupload")

	assert.True(t, SameOrigin(base, parse("https://VIDEO.example.test:443/tusupload/abc")))
	assert.True(t, SameOrigin(parse("http://127.0.0.1:8080/a"), parse("http://127.0.0.1:8080/b")))
	assert.False(t, SameOrigin(base, parse("http://video.example.test/tusupload/abc")))
	assert.False(t, SameOrigin(base, parse("https://evil.example.test/tusupload/abc")))
	assert.False(t, SameOrigin(base, parse("https://video.example.test:8443/x")))
	assert.False(t, SameOrigin(base, parse("ftp://video.example.test/x")))
}
