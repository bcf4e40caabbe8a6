// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bunny is the client for the video provider's library REST API.
// It issues exactly one request per call; retries belong to callers.
package bunny

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/videoplane/internal/platform/httpx"
	"github.com/ManuGH/videoplane/internal/telemetry"
	"github.com/ManuGH/videoplane/internal/video"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://video.bunnycdn.com"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "videoplane"
	maxBodyBytes     = 1 << 20
)

// Client talks to one provider library.
type Client struct {
	base      string
	libraryID string
	apiKey    string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// Options configures the client.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	// RateLimit caps outbound requests per second; zero disables limiting.
	RateLimit rate.Limit
	RateBurst int
	UserAgent string
}

// New returns a client for the library identified by libraryID.
func New(baseURL, libraryID, apiKey string, opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(opts.Timeout)
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		base:      base,
		libraryID: libraryID,
		apiKey:    apiKey,
		http:      hc,
		limiter:   limiter,
		userAgent: ua,
	}
}

// LibraryID returns the library this client operates on.
func (c *Client) LibraryID() string {
	return c.libraryID
}

type videoPayload struct {
	GUID           string `json:"guid"`
	VideoLibraryID int64  `json:"videoLibraryId"`
	Title          string `json:"title"`
	Length         int    `json:"length"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Status         int    `json:"status"`
}

func (p videoPayload) asset(libraryID string) video.Asset {
	return video.Asset{
		VideoID:   p.GUID,
		LibraryID: libraryID,
		Title:     p.Title,
		State:     video.ProviderState(p.Status),
		Length:    p.Length,
		Width:     p.Width,
		Height:    p.Height,
	}
}

// CreateVideo creates an empty video object the upload will fill.
func (c *Client) CreateVideo(ctx context.Context, title string) (video.Asset, error) {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return video.Asset{}, fmt.Errorf("encode create request: %w", err)
	}
	var p videoPayload
	if err := c.do(ctx, "create", http.MethodPost, c.videosPath(""), body, &p); err != nil {
		return video.Asset{}, err
	}
	if p.GUID == "" {
		return video.Asset{}, &ProviderError{Sentinel: ErrBadResponse, Operation: "create", Status: 0, Body: "missing guid"}
	}
	return p.asset(c.libraryID), nil
}

// GetVideo fetches the current state of a video.
func (c *Client) GetVideo(ctx context.Context, videoID string) (video.Asset, error) {
	var p videoPayload
	if err := c.do(ctx, "get", http.MethodGet, c.videosPath(videoID), nil, &p); err != nil {
		return video.Asset{}, err
	}
	if p.GUID == "" {
		p.GUID = videoID
	}
	return p.asset(c.libraryID), nil
}

// DeleteVideo removes a video and all its renditions.
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.videosPath(videoID), nil, nil)
}

func (c *Client) videosPath(videoID string) string {
	p := "/library/" + url.PathEscape(c.libraryID) + "/videos"
	if videoID != "" {
		p += "/" + url.PathEscape(videoID)
	}
	return p
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	tracer := telemetry.Tracer("videoplane.bunny")
	ctx, span := tracer.Start(ctx, "bunny."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.ProviderOperationKey, op),
		attribute.String(telemetry.ProviderLibraryKey, c.libraryID),
	)

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(&ProviderError{Sentinel: ErrUnavailable, Operation: op, Err: err})
		}
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fail(fmt.Errorf("build %s request: %w", op, err))
	}
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		recordRequest(op, 0, time.Since(start), err)
		return fail(&ProviderError{Sentinel: ErrUnavailable, Operation: op, Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	recordRequest(op, resp.StatusCode, time.Since(start), readErr)
	span.SetAttributes(telemetry.HTTPAttributes(method, path, "", resp.StatusCode)...)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(&ProviderError{
			Sentinel:  sentinelFor(resp.StatusCode),
			Operation: op,
			Status:    resp.StatusCode,
			Body:      strings.TrimSpace(string(raw)),
		})
	}
	if readErr != nil {
		return fail(&ProviderError{Sentinel: ErrBadResponse, Operation: op, Err: readErr})
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fail(&ProviderError{Sentinel: ErrBadResponse, Operation: op, Err: err})
		}
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
