// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package upload drives a resumable tus 1.0.0 transfer of one file to a
// provider upload endpoint using a signed upload authorization.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	xglog "github.com/ManuGH/videoplane/internal/log"
	"github.com/ManuGH/videoplane/internal/platform/httpx"
	"github.com/ManuGH/videoplane/internal/retry"
	"github.com/ManuGH/videoplane/internal/signing"
	"github.com/ManuGH/videoplane/internal/telemetry"
)

const (
	DefaultChunkSize   int64 = 8 << 20
	defaultEventBuffer       = 64
)

// Options configures an Upload. Zero values select defaults.
type Options struct {
	ChunkSize   int64
	Policy      retry.Policy
	HTTPClient  *http.Client
	Store       Store
	Title       string
	FileType    string
	Observer    Observer
	EventBuffer int
}

// Upload is one transfer session. It is started once and ends with exactly
// one Result.
type Upload struct {
	src    io.ReaderAt
	size   int64
	auth   signing.UploadAuthorization
	opts   Options
	client *http.Client
	logger zerolog.Logger
	tracer trace.Tracer

	started atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	aborted bool

	events   chan Event
	done     chan struct{}
	result   Result
	reported float64
}

// New prepares an upload of size bytes read from src. Nothing is sent before Start.
func New(src io.ReaderAt, size int64, auth signing.UploadAuthorization, opts Options) (*Upload, error) {
	if src == nil {
		return nil, errors.New("upload: nil source")
	}
	if size < 0 {
		return nil, fmt.Errorf("upload: negative size %d", size)
	}
	if auth.UploadURL == "" || auth.VideoID == "" {
		return nil, errors.New("upload: authorization without upload URL or video id")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if len(opts.Policy.Delays) == 0 {
		opts.Policy = retry.DefaultPolicy()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	client := opts.HTTPClient
	if client == nil {
		client = httpx.NewTransferClient(0)
	}

	return &Upload{
		src:    src,
		size:   size,
		auth:   auth,
		opts:   opts,
		client: client,
		logger: xglog.WithComponent("upload").With().Str(xglog.FieldVideoID, auth.VideoID).Logger(),
		tracer: telemetry.Tracer("videoplane/upload"),
		events: make(chan Event, opts.EventBuffer),
		done:   make(chan struct{}),
	}, nil
}

// Start begins the transfer in the background. Cancelling ctx fails the
// upload; use Abort to abandon it without reporting an error.
func (u *Upload) Start(ctx context.Context) error {
	if !u.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	u.mu.Lock()
	u.cancel = cancel
	if u.aborted {
		cancel()
	}
	u.mu.Unlock()

	go u.run(runCtx)
	return nil
}

// Abort stops the transfer. The stored resume entry is kept so a later
// upload of the same file can continue.
func (u *Upload) Abort() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.aborted = true
	if u.cancel != nil {
		u.cancel()
	}
}

func (u *Upload) isAborted() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.aborted
}

// Events returns the event stream. Progress events are dropped when the
// buffer is full; the terminal event is always delivered and the channel is
// closed after it.
func (u *Upload) Events() <-chan Event { return u.events }

// Done is closed once the Result is available and all callbacks have returned.
func (u *Upload) Done() <-chan struct{} { return u.done }

// Wait blocks until the upload finishes.
func (u *Upload) Wait() Result {
	<-u.done
	return u.result
}

// Run starts the upload and waits for its Result.
func (u *Upload) Run(ctx context.Context) Result {
	if err := u.Start(ctx); err != nil {
		return Result{Err: err}
	}
	return u.Wait()
}

func (u *Upload) run(ctx context.Context) {
	ctx, span := u.tracer.Start(ctx, "upload.transfer",
		trace.WithAttributes(telemetry.UploadAttributes(u.auth.VideoID, u.auth.UploadURL, u.size, u.opts.ChunkSize)...))
	defer span.End()
	started := time.Now()

	res := u.transfer(ctx)
	if res.Err != nil && u.isAborted() {
		res.Err = ErrAborted
	}

	outcome := "success"
	switch {
	case res.Aborted():
		outcome = "aborted"
	case res.Err != nil:
		outcome = "error"
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String(telemetry.UploadOutcomeKey, outcome))
	uploadsTotal.WithLabelValues(outcome).Inc()

	ev := u.logger.Info()
	if outcome == "error" {
		ev = u.logger.Error().Err(res.Err)
	}
	ev.Str(xglog.FieldEvent, "upload."+outcome).
		Int64(xglog.FieldSize, res.Bytes).
		Dur("duration", time.Since(started)).
		Msg("upload finished")

	u.finish(res, outcome)
}

func (u *Upload) finish(res Result, outcome string) {
	u.result = res
	obs := u.opts.Observer
	switch outcome {
	case "success":
		if obs.OnSuccess != nil {
			obs.OnSuccess(res)
		}
		u.emitTerminal(Event{Kind: EventSuccess, Progress: Progress{Sent: res.Bytes, Total: u.size}, Result: res})
	case "aborted":
		u.emitTerminal(Event{Kind: EventAborted, Progress: Progress{Sent: res.Bytes, Total: u.size}, Result: res})
	default:
		if obs.OnError != nil {
			obs.OnError(res.Err)
		}
		u.emitTerminal(Event{Kind: EventError, Progress: Progress{Sent: res.Bytes, Total: u.size}, Result: res})
	}
	close(u.events)
	close(u.done)
}

// emitTerminal makes room by dropping the oldest buffered event when needed.
// The upload goroutine is the only sender, so the final send cannot block.
func (u *Upload) emitTerminal(ev Event) {
	select {
	case u.events <- ev:
		return
	default:
	}
	select {
	case <-u.events:
	default:
	}
	u.events <- ev
}

// progress reports a chunk boundary. Reported values never decrease even if
// the endpoint rewinds.
func (u *Upload) progress(sent int64) {
	p := Progress{Sent: sent, Total: u.size}
	pct := p.Percent()
	if pct < u.reported {
		return
	}
	u.reported = pct
	if u.opts.Observer.OnProgress != nil {
		u.opts.Observer.OnProgress(p)
	}
	select {
	case u.events <- Event{Kind: EventProgress, Progress: p}:
	default:
	}
}

func (u *Upload) transfer(ctx context.Context) Result {
	fp := Fingerprint(u.auth.VideoID, u.size)
	target, offset, err := u.locate(ctx, fp)
	if err != nil {
		return Result{UploadURL: target, Err: err}
	}
	u.progress(offset)

	buf := make([]byte, min(u.opts.ChunkSize, max(u.size, 1)))
	for offset < u.size {
		err := retry.Do(ctx, u.opts.Policy, func(ctx context.Context, attempt int) error {
			if attempt > 0 {
				off, err := u.head(ctx, target)
				if err != nil {
					return classify(ctx, err)
				}
				if off != offset {
					u.logger.Debug().Int64(xglog.FieldOffset, off).Msg("offset recovered from endpoint")
					offset = off
				}
				if offset >= u.size {
					return nil
				}
			}
			n := min(u.opts.ChunkSize, u.size-offset)
			chunk := buf[:n]
			read, err := u.src.ReadAt(chunk, offset)
			if err != nil && !errors.Is(err, io.EOF) {
				return retry.Permanent(fmt.Errorf("read source at %d: %w", offset, err))
			}
			if int64(read) < n {
				// source shorter than the declared size
				return retry.Permanent(fmt.Errorf("read source at %d: got %d of %d bytes: %w", offset, read, n, io.ErrUnexpectedEOF))
			}
			next, err := u.patch(ctx, target, offset, chunk)
			if err != nil {
				return classify(ctx, err)
			}
			bytesSent.Add(float64(next - offset))
			offset = next
			return nil
		}, u.onRetry(ctx, "patch"))
		if err != nil {
			return Result{UploadURL: target, Bytes: offset, Err: err}
		}
		u.progress(offset)
	}

	if u.opts.Store != nil {
		if err := u.opts.Store.Delete(fp); err != nil {
			u.logger.Warn().Err(err).Msg("failed to clear resume entry")
		}
	}
	return Result{UploadURL: target, Bytes: offset}
}

// locate resumes a stored upload or creates a new one.
func (u *Upload) locate(ctx context.Context, fp string) (string, int64, error) {
	if u.opts.Store != nil {
		stored, ok, err := u.opts.Store.Get(fp)
		if err != nil {
			u.logger.Warn().Err(err).Msg("resume store unavailable, starting fresh")
		}
		if ok {
			var off int64
			err := retry.Do(ctx, u.opts.Policy, func(ctx context.Context, _ int) error {
				var err error
				off, err = u.head(ctx, stored)
				return classify(ctx, err)
			}, u.onRetry(ctx, "head"))
			var pe *ProtocolError
			switch {
			case err == nil && off <= u.size:
				resumedTotal.Inc()
				trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(telemetry.UploadResumedKey, true))
				u.logger.Info().Str(xglog.FieldUploadURL, stored).Int64(xglog.FieldOffset, off).Msg("resuming upload")
				return stored, off, nil
			case err == nil, errors.As(err, &pe) && pe.Gone():
				u.logger.Info().Str(xglog.FieldUploadURL, stored).Msg("stored upload is gone, creating a new one")
				if err := u.opts.Store.Delete(fp); err != nil {
					u.logger.Warn().Err(err).Msg("failed to clear resume entry")
				}
			default:
				return stored, 0, err
			}
		}
	}

	var target string
	err := retry.Do(ctx, u.opts.Policy, func(ctx context.Context, _ int) error {
		var err error
		target, err = u.create(ctx)
		return classify(ctx, err)
	}, u.onRetry(ctx, "create"))
	if err != nil {
		return "", 0, err
	}
	u.logger.Debug().Str(xglog.FieldUploadURL, target).Msg("upload created")
	if u.opts.Store != nil {
		if err := u.opts.Store.Put(fp, target); err != nil {
			u.logger.Warn().Err(err).Msg("failed to store resume entry")
		}
	}
	return target, 0, nil
}

func (u *Upload) onRetry(ctx context.Context, op string) retry.Hook {
	span := trace.SpanFromContext(ctx)
	return func(attempt int, err error, next time.Duration) {
		chunkRetries.WithLabelValues(op).Inc()
		span.AddEvent("retry", trace.WithAttributes(
			attribute.String(telemetry.ProviderOperationKey, op),
			attribute.Int(telemetry.UploadAttemptKey, attempt+1),
		))
		u.logger.Warn().Err(err).
			Str(xglog.FieldOperation, op).
			Int(xglog.FieldAttempt, attempt+1).
			Dur("retry_in", next).
			Msg("upload request failed, retrying")
	}
}

// classify marks errors that another attempt cannot fix.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return retry.Permanent(err)
	}
	var pe *ProtocolError
	if errors.As(err, &pe) && !pe.Retryable() {
		return retry.Permanent(err)
	}
	if errors.Is(err, ErrForeignLocation) {
		return retry.Permanent(err)
	}
	return err
}
