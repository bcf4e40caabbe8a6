// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api implements the video control plane: a single stateless
// endpoint dispatching on the action query parameter.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/videoplane/internal/api/middleware"
	"github.com/ManuGH/videoplane/internal/config"
	"github.com/ManuGH/videoplane/internal/log"
	"github.com/ManuGH/videoplane/internal/signing"
	"github.com/ManuGH/videoplane/internal/telemetry"
	"github.com/ManuGH/videoplane/internal/video"
)

const (
	ActionCreate     = "create"
	ActionStatus     = "status"
	ActionDelete     = "delete"
	ActionEmbedToken = "embed-token"

	DefaultTitle = "Untitled Video"

	maxCreateBody = 64 << 10
)

const (
	msgVideoIDRequired = "videoId is required"
	msgInvalidAction   = "Invalid action. Use: create, status, delete, embed-token"
	msgCreateFailed    = "Failed to create video"
	msgStatusFailed    = "Failed to get video status"
	msgDeleteFailed    = "Failed to delete video"
	msgInternal        = "Internal server error"
	msgInvalidJSON     = "Invalid JSON body"
)

// Provider is the remote video host. Implementations issue exactly one
// upstream request per call.
type Provider interface {
	CreateVideo(ctx context.Context, title string) (video.Asset, error)
	GetVideo(ctx context.Context, videoID string) (video.Asset, error)
	DeleteVideo(ctx context.Context, videoID string) error
}

// Handler serves the four control-plane actions. It holds no per-request
// state and is safe for concurrent use.
type Handler struct {
	provider  Provider
	signer    *signing.Signer
	libraryID string
	embedBase string
}

type handlerOptions struct {
	now func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*handlerOptions)

// WithClock overrides the clock used when minting authorizations.
func WithClock(now func() time.Time) HandlerOption {
	return func(o *handlerOptions) { o.now = now }
}

// NewHandler builds a handler from the provider configuration. The keys in
// cfg are only ever used to derive signatures.
func NewHandler(cfg config.ProviderConfig, provider Provider, opts ...HandlerOption) (*Handler, error) {
	if provider == nil {
		return nil, errors.New("api: provider is required")
	}
	o := handlerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	signer, err := signing.NewSigner(cfg.Keys(), cfg.UploadURL, signing.WithClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	embedBase := strings.TrimRight(cfg.EmbedBaseURL, "/")
	if embedBase == "" {
		embedBase = config.DefaultEmbedBaseURL
	}
	return &Handler{
		provider:  provider,
		signer:    signer,
		libraryID: cfg.LibraryID,
		embedBase: embedBase,
	}, nil
}

type createRequest struct {
	Title string `json:"title"`
}

type createResponse struct {
	VideoID   string                      `json:"videoId"`
	LibraryID string                      `json:"libraryId"`
	TusConfig signing.UploadAuthorization `json:"tusConfig"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

type embedResponse struct {
	EmbedURL string `json:"embedUrl"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.SetCORSHeaders(w.Header())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	action := r.URL.Query().Get("action")
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Error().
				Str(log.FieldEvent, "action.panic").
				Str(log.FieldAction, action).
				Interface("panic_value", rec).
				Msg("panic during action dispatch")
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
	}()

	switch action {
	case ActionCreate:
		h.create(w, r)
	case ActionStatus:
		h.status(w, r)
	case ActionDelete:
		h.delete(w, r)
	case ActionEmbedToken:
		h.embedToken(w, r)
	default:
		writeError(w, http.StatusBadRequest, msgInvalidAction)
	}
}

// videoID returns the required videoId parameter, answering 400 when absent.
// The returned request carries the id for every log line downstream.
func videoID(w http.ResponseWriter, r *http.Request) (*http.Request, string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("videoId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, msgVideoIDRequired)
		return r, "", false
	}
	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.ActionAttributes(r.URL.Query().Get("action"), id)...)
	return r.WithContext(log.ContextWithVideoID(r.Context(), id)), id, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.Body != nil {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBody))
		if err := decodeSingle(dec, &req); err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}

	asset, err := h.provider.CreateVideo(r.Context(), title)
	if err != nil {
		h.providerFailure(w, r, ActionCreate, err, msgCreateFailed)
		return
	}
	auth, err := h.signer.MintUpload(asset.VideoID)
	if err != nil {
		h.internalFailure(w, r, ActionCreate, err)
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "video.created").
		Str(log.FieldVideoID, asset.VideoID).
		Int64("expires", auth.ExpirationTime).
		Msg("video created, upload authorization minted")

	writeJSON(w, http.StatusOK, createResponse{
		VideoID:   asset.VideoID,
		LibraryID: h.libraryID,
		TusConfig: auth,
	})
}

// decodeSingle decodes at most one JSON value and rejects anything after it.
// An empty body is allowed.
func decodeSingle(dec *json.Decoder, v any) error {
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	r, id, ok := videoID(w, r)
	if !ok {
		return
	}
	asset, err := h.provider.GetVideo(r.Context(), id)
	if err != nil {
		h.providerFailure(w, r, ActionStatus, err, msgStatusFailed)
		return
	}
	writeJSON(w, http.StatusOK, video.StatusOf(asset))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	r, id, ok := videoID(w, r)
	if !ok {
		return
	}
	if err := h.provider.DeleteVideo(r.Context(), id); err != nil {
		h.providerFailure(w, r, ActionDelete, err, msgDeleteFailed)
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().Str(log.FieldEvent, "video.deleted").Msg("video deleted")

	writeJSON(w, http.StatusOK, deleteResponse{Success: true})
}

func (h *Handler) embedToken(w http.ResponseWriter, r *http.Request) {
	r, id, ok := videoID(w, r)
	if !ok {
		return
	}
	auth, err := h.signer.MintEmbed(id)
	if err != nil {
		h.internalFailure(w, r, ActionEmbedToken, err)
		return
	}
	writeJSON(w, http.StatusOK, embedResponse{EmbedURL: h.embedURL(auth)})
}

// embedURL renders {base}/{libraryId}/{videoId}?token=..&expires=..
func (h *Handler) embedURL(a signing.EmbedAuthorization) string {
	return fmt.Sprintf("%s/%s/%s?token=%s&expires=%d",
		h.embedBase, url.PathEscape(h.libraryID), url.PathEscape(a.VideoID), a.Token, a.Expires)
}
