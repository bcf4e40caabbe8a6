// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/videoplane/internal/config"
	"github.com/ManuGH/videoplane/internal/health"
	"github.com/ManuGH/videoplane/internal/platform/httpx"
)

func setProviderEnv(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "api-secret")
	t.Setenv(config.EnvLibraryID, "4242")
	t.Setenv(config.EnvTokenKey, "embed-secret")
}

func TestConfigCLI_Validate(t *testing.T) {
	setProviderEnv(t)
	var stdout, stderr bytes.Buffer

	code := configCLI([]string{"validate"}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "environment is valid")
}

func TestConfigCLI_ValidateFile(t *testing.T) {
	setProviderEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  listenAddr: \":9090\"\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := configCLI([]string{"validate", "-f", path}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), path)
}

func TestConfigCLI_ValidateFails(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvLibraryID, "")
	t.Setenv(config.EnvTokenKey, "")

	var stdout, stderr bytes.Buffer
	code := configCLI([]string{"validate"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "provider.apiKey")
}

func TestConfigCLI_DumpMasksSecrets(t *testing.T) {
	setProviderEnv(t)

	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := configCLI([]string{"dump", "--format", format}, &stdout, &stderr)
			require.Equal(t, 0, code, stderr.String())
			assert.Contains(t, stdout.String(), "4242")
			assert.Contains(t, stdout.String(), "***")
			assert.NotContains(t, stdout.String(), "api-secret")
			assert.NotContains(t, stdout.String(), "embed-secret")
		})
	}
}

func TestConfigCLI_Usage(t *testing.T) {
	setProviderEnv(t)
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, configCLI(nil, &stdout, &stderr))
	assert.Equal(t, 2, configCLI([]string{"explode"}, &stdout, &stderr))
	assert.Equal(t, 2, configCLI([]string{"dump", "--format", "toml"}, &stdout, &stderr))
}

func TestProbe(t *testing.T) {
	hm := health.NewManager("test")
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", hm.ServeHealth)
	mux.HandleFunc("/readyz", hm.ServeReady)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := httpx.NewClient(2 * time.Second)
	ctx := context.Background()
	require.NoError(t, probe(ctx, client, srv.URL, "ready"))
	require.NoError(t, probe(ctx, client, srv.URL, "live"))

	hm.Drain()
	require.Error(t, probe(ctx, client, srv.URL, "ready"))
	require.NoError(t, probe(ctx, client, srv.URL, "live"))
}
