// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestEnvValue(t *testing.T) {
	env := mapLookup(map[string]string{
		"STR":      "from-env",
		"EMPTY":    "",
		"SPACED":   "  42 ",
		"BAD_INT":  "forty",
		"DURATION": "1m30s",
		"FLOAT":    "0.25",
	})
	nop := zerolog.Nop()

	assert.Equal(t, "from-env", envValue(nop, env, "STR", "def", parseString))
	assert.Equal(t, "def", envValue(nop, env, "UNSET", "def", parseString))
	assert.Equal(t, "def", envValue(nop, env, "EMPTY", "def", parseString))
	assert.Equal(t, 42, envValue(nop, env, "SPACED", 7, strconv.Atoi))
	assert.Equal(t, 7, envValue(nop, env, "BAD_INT", 7, strconv.Atoi))
	assert.Equal(t, 90*time.Second, envValue(nop, env, "DURATION", time.Second, time.ParseDuration))
	assert.InDelta(t, 0.25, envValue(nop, env, "FLOAT", 1.0, parseFloat), 1e-9)
}

func TestParseBool(t *testing.T) {
	for _, in := range []string{"true", "TRUE", "1", "yes", "on"} {
		v, err := parseBool(in)
		require.NoError(t, err, in)
		assert.True(t, v, in)
	}
	for _, in := range []string{"false", "0", "No", "off"} {
		v, err := parseBool(in)
		require.NoError(t, err, in)
		assert.False(t, v, in)
	}
	_, err := parseBool("maybe")
	require.Error(t, err)
}

func TestEnvValue_SensitiveValuesNotLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	env := mapLookup(map[string]string{
		EnvAPIKey:  "api-secret",
		EnvTimeout: "not-a-duration",
		EnvListen:  ":9090",
	})

	assert.Equal(t, "api-secret", envValue(logger, env, EnvAPIKey, "", parseString))
	assert.Equal(t, time.Second, envValue(logger, env, EnvTimeout, time.Second, time.ParseDuration))
	assert.Equal(t, ":9090", envValue(logger, env, EnvListen, ":8080", parseString))

	out := buf.String()
	assert.NotContains(t, out, "api-secret")
	assert.Contains(t, out, `"sensitive":true`)
	assert.Contains(t, out, "not-a-duration")
	assert.Contains(t, out, `"value":":9090"`)
}

func TestLoader_WithLookup(t *testing.T) {
	l := NewLoader("", "dev").WithLookup(mapLookup(map[string]string{
		EnvAPIKey:     "api-secret",
		EnvLibraryID:  "4242",
		EnvTokenKey:   "embed-secret",
		EnvIngressRPM: "120",
		EnvTracing:    "yes",
	}))
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.API.RateLimitRPM)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Contains(t, l.ConsumedEnvKeys, EnvShutdown)
}
