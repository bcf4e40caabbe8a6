// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/videoplane/internal/api"
	"github.com/ManuGH/videoplane/internal/bunny"
	"github.com/ManuGH/videoplane/internal/client"
	"github.com/ManuGH/videoplane/internal/config"
	"github.com/ManuGH/videoplane/internal/signing"
	"github.com/ManuGH/videoplane/internal/upload"
)

func newControlPlane(t *testing.T) (*bunny.MockServer, string) {
	t.Helper()
	ms := bunny.NewMockServer("4242", "api-secret")
	t.Cleanup(ms.Close)

	h, err := api.NewHandler(config.ProviderConfig{
		APIKey:       "api-secret",
		LibraryID:    "4242",
		TokenAuthKey: "embed-secret",
		UploadURL:    ms.UploadURL(),
		EmbedBaseURL: "https://embed.example.test/embed",
	}, bunny.New(ms.URL, "4242", "api-secret", bunny.Options{}))
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return ms, srv.URL + "/api/video"
}

func writeFile(t *testing.T, name string, size int) (string, []byte) {
	t.Helper()
	data := bytes.Repeat([]byte("0123456789abcdef"), size/16+1)[:size]
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, data
}

func TestRun_UploadsAndPrintsEmbedURL(t *testing.T) {
	ms, endpoint := newControlPlane(t)
	path, data := writeFile(t, "holiday.mp4", 10_000)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-server", endpoint,
		"-file", path,
		"-chunk-size", "4096",
		"-poll=false",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	got, complete := ms.Uploaded("mock-0001")
	assert.True(t, complete)
	assert.Equal(t, data, got)
	assert.Equal(t, "holiday", ms.Metadata("mock-0001")["title"])
	assert.Equal(t, "video/mp4", ms.Metadata("mock-0001")["filetype"])

	out := stdout.String()
	assert.Contains(t, out, "Created video mock-0001 in library 4242")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "Uploaded 10000 bytes")
	assert.Contains(t, out, "Embed URL: https://embed.example.test/embed/4242/mock-0001?token=")
}

func TestRun_WaitsForProcessing(t *testing.T) {
	ms, endpoint := newControlPlane(t)
	path, _ := writeFile(t, "clip.webm", 2048)

	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if _, complete := ms.Uploaded("mock-0001"); complete {
				ms.SetStatus("mock-0001", 4)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-server", endpoint,
		"-file", path,
		"-title", "Clip",
		"-poll-interval", "10ms",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Ready:")
	assert.Contains(t, stdout.String(), "Embed URL:")
}

func TestRun_ProcessingFailed(t *testing.T) {
	ms, endpoint := newControlPlane(t)
	path, _ := writeFile(t, "broken.mov", 512)

	go func() {
		for ms.Calls("tus-patch") == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		ms.SetStatus("mock-0001", 5)
	}()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-server", endpoint,
		"-file", path,
		"-poll-interval", "10ms",
	}, &stdout, &stderr)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "Processing failed")
}

func TestRun_ResumeFileClearedOnSuccess(t *testing.T) {
	_, endpoint := newControlPlane(t)
	path, _ := writeFile(t, "a.mp4", 3000)
	resume := filepath.Join(t.TempDir(), "resume.json")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-server", endpoint,
		"-file", path,
		"-chunk-size", "1000",
		"-resume-file", resume,
		"-poll=false",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	raw, err := os.ReadFile(resume)
	require.NoError(t, err)
	var entries map[string]string
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Empty(t, entries)
}

func TestRun_ResumesAfterInterrupt(t *testing.T) {
	ms, endpoint := newControlPlane(t)
	const chunk, size = 64, 64_000
	path, data := writeFile(t, "long.mp4", size)
	resume := filepath.Join(t.TempDir(), "resume.json")
	args := []string{
		"-server", endpoint,
		"-file", path,
		"-chunk-size", "64",
		"-resume-file", resume,
		"-poll=false",
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for ms.Calls("tus-patch") < 2 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	var stdout, stderr bytes.Buffer
	require.Equal(t, exitInterrupted, run(ctx, args, &stdout, &stderr), stderr.String())
	assert.Contains(t, stderr.String(), "Rerun with -resume-file")

	raw, err := os.ReadFile(resume)
	require.NoError(t, err)
	var entries map[string]string
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Len(t, entries, 2, "session and upload entry are kept")

	patchesBefore := ms.Calls("tus-patch")
	stdout.Reset()
	stderr.Reset()
	require.Equal(t, exitOK, run(context.Background(), args, &stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), "Resuming video mock-0001")

	assert.Equal(t, 1, ms.Calls("create"), "no second video is created")
	assert.Equal(t, 1, ms.Calls("tus-create"))
	assert.GreaterOrEqual(t, ms.Calls("tus-head"), 1)
	assert.Less(t, ms.Calls("tus-patch")-patchesBefore, size/chunk, "only the tail is sent")

	got, complete := ms.Uploaded("mock-0001")
	assert.True(t, complete)
	assert.Equal(t, data, got)

	raw, err = os.ReadFile(resume)
	require.NoError(t, err)
	entries = nil
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Empty(t, entries)
}

func TestRun_ExpiredSessionStartsOver(t *testing.T) {
	ms, endpoint := newControlPlane(t)
	path, data := writeFile(t, "old.mp4", 1000)
	resume := filepath.Join(t.TempDir(), "resume.json")

	info, err := os.Stat(path)
	require.NoError(t, err)
	store := upload.NewFileStore(resume)
	stale := client.Created{
		VideoID:   "gone-video",
		LibraryID: "4242",
		TusConfig: signing.UploadAuthorization{
			UploadURL:      ms.UploadURL(),
			ExpirationTime: time.Now().Add(-time.Minute).Unix(),
			Signature:      "stale",
			VideoID:        "gone-video",
			LibraryID:      "4242",
		},
	}
	require.NoError(t, newSessionStore(store, path, info).save(stale))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-server", endpoint, "-file", path, "-resume-file", resume, "-poll=false"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Created video mock-0001")
	assert.Equal(t, 1, ms.Calls("create"))

	got, complete := ms.Uploaded("mock-0001")
	assert.True(t, complete)
	assert.Equal(t, data, got)
}

func TestRun_UploadRejected(t *testing.T) {
	ms, endpoint := newControlPlane(t)
	path, _ := writeFile(t, "a.mp4", 100)
	ms.FailNext("tus-create", 403)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-server", endpoint, "-file", path, "-poll=false"}, &stdout, &stderr)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "Upload failed")
	assert.Equal(t, 1, ms.Calls("tus-create"))
}

func TestRun_CreateFails(t *testing.T) {
	ms, endpoint := newControlPlane(t)
	path, _ := writeFile(t, "a.mp4", 100)
	ms.FailNext("create", 500)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-server", endpoint, "-file", path}, &stdout, &stderr)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "Failed to create video")
}

func TestRun_Interrupted(t *testing.T) {
	_, endpoint := newControlPlane(t)
	path, _ := writeFile(t, "a.mp4", 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-server", endpoint, "-file", path, "-resume-file", filepath.Join(t.TempDir(), "r.json")}, &stdout, &stderr)
	// create itself observes the cancelled context
	assert.Equal(t, exitFailure, code)
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer

	_, err := parseFlags(nil, &stderr)
	require.Error(t, err)

	_, err = parseFlags([]string{"-file", "x.mp4", "-chunk-size", "0"}, &stderr)
	require.Error(t, err)

	o, err := parseFlags([]string{"-file", "/tmp/My Trip.mov"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "My Trip", o.title)
	assert.Equal(t, "video/quicktime", mimeType(o.file))
	assert.Equal(t, "video/mp4", mimeType("CLIP.MP4"))
	assert.Equal(t, "video/x-matroska", mimeType("a.mkv"))
	assert.Equal(t, "application/octet-stream", mimeType("capture.raw-unknown"))
	assert.Equal(t, "application/octet-stream", mimeType("noext"))

	assert.Equal(t, exitUsage, run(context.Background(), []string{"-chunk-size", "5"}, &stderr, &stderr))
}
