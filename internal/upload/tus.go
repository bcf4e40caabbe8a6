// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	xgnet "github.com/ManuGH/videoplane/internal/platform/net"
)

const (
	tusVersion       = "1.0.0"
	offsetStreamType = "application/offset+octet-stream"
)

func (u *Upload) newRequest(ctx context.Context, method, target string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Tus-Resumable", tusVersion)
	req.Header.Set("AuthorizationSignature", u.auth.Signature)
	req.Header.Set("AuthorizationExpire", strconv.FormatInt(u.auth.ExpirationTime, 10))
	req.Header.Set("VideoId", u.auth.VideoID)
	req.Header.Set("LibraryId", u.auth.LibraryID)
	return req, nil
}

func (u *Upload) send(req *http.Request, op string) (*http.Response, error) {
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tus %s: %w", op, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return resp, nil
}

func encodeMetadata(pairs [][2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		parts = append(parts, kv[0]+" "+base64.StdEncoding.EncodeToString([]byte(kv[1])))
	}
	return strings.Join(parts, ",")
}

// create registers a new upload resource and returns its absolute URL.
func (u *Upload) create(ctx context.Context) (string, error) {
	req, err := u.newRequest(ctx, http.MethodPost, u.auth.UploadURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Upload-Length", strconv.FormatInt(u.size, 10))
	if md := encodeMetadata([][2]string{{"filetype", u.opts.FileType}, {"title", u.opts.Title}}); md != "" {
		req.Header.Set("Upload-Metadata", md)
	}

	resp, err := u.send(req, "create")
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", &ProtocolError{Op: "create", Status: resp.StatusCode}
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", fmt.Errorf("tus create: response without Location header")
	}
	base, err := url.Parse(u.auth.UploadURL)
	if err != nil {
		return "", fmt.Errorf("tus create: parse endpoint: %w", err)
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("tus create: parse Location %q: %w", loc, err)
	}
	target := base.ResolveReference(ref)
	// Signed headers only go back to the endpoint that issued them.
	if !xgnet.SameOrigin(base, target) {
		return "", fmt.Errorf("tus create: %w: %s", ErrForeignLocation, xgnet.SanitizeURL(target.String()))
	}
	return target.String(), nil
}

// head asks the endpoint how many bytes it holds.
func (u *Upload) head(ctx context.Context, target string) (int64, error) {
	req, err := u.newRequest(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := u.send(req, "head")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return 0, &ProtocolError{Op: "head", Status: resp.StatusCode}
	}
	return parseOffset(resp, "head")
}

// patch sends chunk at offset and returns the acknowledged offset.
func (u *Upload) patch(ctx context.Context, target string, offset int64, chunk []byte) (int64, error) {
	req, err := u.newRequest(ctx, http.MethodPatch, target, chunk)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", offsetStreamType)
	req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))
	req.ContentLength = int64(len(chunk))

	resp, err := u.send(req, "patch")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return 0, &ProtocolError{Op: "patch", Status: resp.StatusCode}
	}
	next, err := parseOffset(resp, "patch")
	if err != nil {
		return 0, err
	}
	if next != offset+int64(len(chunk)) {
		return next, fmt.Errorf("%w: sent %d bytes at %d, endpoint reports %d", ErrOffsetMismatch, len(chunk), offset, next)
	}
	return next, nil
}

func parseOffset(resp *http.Response, op string) (int64, error) {
	raw := resp.Header.Get("Upload-Offset")
	off, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || off < 0 {
		return 0, fmt.Errorf("%w: tus %s returned Upload-Offset %q", ErrOffsetMismatch, op, raw)
	}
	return off, nil
}
