// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package client is a Go client for the control-plane HTTP surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/videoplane/internal/log"
	"github.com/ManuGH/videoplane/internal/platform/httpx"
	"github.com/ManuGH/videoplane/internal/signing"
	"github.com/ManuGH/videoplane/internal/video"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 5 * time.Second
	maxResponseBytes    = 1 << 20
)

// ErrProcessingFailed is returned by WaitReady when the provider reports
// the video as failed.
var ErrProcessingFailed = errors.New("client: video processing failed")

// APIError is a non-2xx answer from the control plane.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("control plane: HTTP %d", e.Status)
	}
	return fmt.Sprintf("control plane: HTTP %d: %s", e.Status, e.Message)
}

// Client calls one control-plane endpoint, e.g. http://host:8080/api/video.
type Client struct {
	endpoint string
	http     *http.Client
}

// Options configures the client.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New returns a client for endpoint.
func New(endpoint string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(opts.Timeout)
	}
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		http:     hc,
	}
}

// Created is the answer to a create action.
type Created struct {
	VideoID   string                      `json:"videoId"`
	LibraryID string                      `json:"libraryId"`
	TusConfig signing.UploadAuthorization `json:"tusConfig"`
}

// Create registers a new video and returns its upload authorization.
func (c *Client) Create(ctx context.Context, title string) (Created, error) {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return Created{}, fmt.Errorf("encode create request: %w", err)
	}
	var out Created
	if err := c.do(ctx, http.MethodPost, url.Values{"action": {"create"}}, body, &out); err != nil {
		return Created{}, err
	}
	if out.VideoID == "" {
		return Created{}, errors.New("client: create response without videoId")
	}
	return out, nil
}

// Status returns the projected processing state of a video.
func (c *Client) Status(ctx context.Context, videoID string) (video.Status, error) {
	var out video.Status
	q := url.Values{"action": {"status"}, "videoId": {videoID}}
	if err := c.do(ctx, http.MethodGet, q, nil, &out); err != nil {
		return video.Status{}, err
	}
	return out, nil
}

// Delete removes a video.
func (c *Client) Delete(ctx context.Context, videoID string) error {
	var out struct {
		Success bool `json:"success"`
	}
	q := url.Values{"action": {"delete"}, "videoId": {videoID}}
	if err := c.do(ctx, http.MethodDelete, q, nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return errors.New("client: delete not acknowledged")
	}
	return nil
}

// EmbedToken returns a signed, time-limited player URL.
func (c *Client) EmbedToken(ctx context.Context, videoID string) (string, error) {
	var out struct {
		EmbedURL string `json:"embedUrl"`
	}
	q := url.Values{"action": {"embed-token"}, "videoId": {videoID}}
	if err := c.do(ctx, http.MethodGet, q, nil, &out); err != nil {
		return "", err
	}
	return out.EmbedURL, nil
}

// WaitReady polls Status every interval until the video is ready, has
// failed, or ctx is done. Errors come with the last status seen; a failed
// video returns ErrProcessingFailed.
func (c *Client) WaitReady(ctx context.Context, videoID string, interval time.Duration) (video.Status, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := log.WithComponentFromContext(ctx, "client")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var last video.Status
	for {
		st, err := c.Status(ctx, videoID)
		if err != nil {
			return last, err
		}
		last = st
		switch st.Status {
		case video.StateReady:
			return st, nil
		case video.StateError:
			return st, fmt.Errorf("%w: %s (provider status %d)", ErrProcessingFailed, videoID, st.BunnyStatus)
		}
		logger.Debug().
			Str(log.FieldVideoID, videoID).
			Int("bunny_status", st.BunnyStatus).
			Msg("video still processing")

		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method string, q url.Values, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+"?"+q.Encode(), rdr)
	if err != nil {
		return fmt.Errorf("build %s request: %w", q.Get("action"), err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", q.Get("action"), err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", q.Get("action"), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", q.Get("action"), err)
	}
	return nil
}
