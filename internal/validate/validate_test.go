// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Checks(t *testing.T) {
	tests := []struct {
		name  string
		check func(v *Validator)
		fail  bool
	}{
		{"url ok", func(v *Validator) { v.URL("u", "https://video.example.test", []string{"https"}) }, false},
		{"url empty", func(v *Validator) { v.URL("u", "", nil) }, true},
		{"url no host", func(v *Validator) { v.URL("u", "/relative", nil) }, true},
		{"url scheme", func(v *Validator) { v.URL("u", "ftp://host", []string{"http", "https"}) }, true},
		{"url malformed", func(v *Validator) { v.URL("u", "http://[::1", nil) }, true},
		{"not empty", func(v *Validator) { v.NotEmpty("s", "x") }, false},
		{"whitespace", func(v *Validator) { v.NotEmpty("s", "  ") }, true},
		{"one of", func(v *Validator) { v.OneOf("e", "grpc", []string{"grpc", "http"}) }, false},
		{"not one of", func(v *Validator) { v.OneOf("e", "kafka", []string{"grpc", "http"}) }, true},
		{"positive", func(v *Validator) { v.Positive("n", 1) }, false},
		{"zero not positive", func(v *Validator) { v.Positive("n", 0) }, true},
		{"non-negative", func(v *Validator) { v.NonNegative("n", 0) }, false},
		{"negative", func(v *Validator) { v.NonNegative("n", -1) }, true},
		{"duration", func(v *Validator) { v.PositiveDuration("d", time.Second) }, false},
		{"zero duration", func(v *Validator) { v.PositiveDuration("d", 0) }, true},
		{"float in range", func(v *Validator) { v.FloatRange("f", 0.5, 0, 1) }, false},
		{"float out of range", func(v *Validator) { v.FloatRange("f", 1.5, 0, 1) }, true},
		{"listen any", func(v *Validator) { v.ListenAddr("l", ":8080") }, false},
		{"listen host", func(v *Validator) { v.ListenAddr("l", "127.0.0.1:0") }, false},
		{"listen no port", func(v *Validator) { v.ListenAddr("l", "8080") }, true},
		{"listen named port", func(v *Validator) { v.ListenAddr("l", ":http-alt") }, true},
		{"listen port range", func(v *Validator) { v.ListenAddr("l", ":70000") }, true},
		{"log level", func(v *Validator) { v.LogLevel("lvl", "WARN") }, false},
		{"log level trace", func(v *Validator) { v.LogLevel("lvl", "trace") }, true},
		{"log level empty", func(v *Validator) { v.LogLevel("lvl", "") }, true},
		{"log level unknown", func(v *Validator) { v.LogLevel("lvl", "verbose") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			tt.check(v)
			if tt.fail {
				require.Error(t, v.Err())
			} else {
				require.NoError(t, v.Err())
			}
		})
	}
}

func TestValidator_CollectsAllErrors(t *testing.T) {
	v := New()
	v.NotEmpty("provider.apiKey", "")
	v.Positive("api.rateLimitRpm", 0)
	v.AddError("api.path", "path must start with /", "video")

	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, []string{"provider.apiKey", "api.rateLimitRpm", "api.path"}, Fields(err))
	assert.Contains(t, err.Error(), "validation failed for api.path: path must start with /")

	var fe Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "provider.apiKey", fe.Field)

	assert.Nil(t, Fields(errors.New("other")))
}

func TestValidator_ErrIsSnapshot(t *testing.T) {
	v := New()
	v.NotEmpty("a", "")
	err := v.Err()
	v.NotEmpty("b", "")
	assert.Equal(t, []string{"a"}, Fields(err))
}

func TestValidator_DistinctMasksValue(t *testing.T) {
	v := New()
	v.Distinct("tokenAuthKey", "same", "apiKey", "same")
	var fe Error
	require.ErrorAs(t, v.Err(), &fe)
	assert.Equal(t, "***", fe.Value)
	assert.NotContains(t, v.Err().Error(), "same")

	v = New()
	v.Distinct("tokenAuthKey", "", "apiKey", "")
	assert.NoError(t, v.Err(), "empty values are reported by NotEmpty")
}
