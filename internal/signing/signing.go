// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package signing mints the time-boxed credentials handed to clients: the
// upload authorization for the resumable upload endpoint and the embed
// token for playback. Both are SHA-256 digests over a fixed field order and
// are verified only by the video provider.
package signing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Validity is the lifetime of every minted authorization.
const Validity = 3600 * time.Second

// UploadAuthorization permits one resumable upload to a specific video.
type UploadAuthorization struct {
	UploadURL      string `json:"uploadUrl"`
	ExpirationTime int64  `json:"expirationTime"`
	Signature      string `json:"signature"`
	VideoID        string `json:"videoId"`
	LibraryID      string `json:"libraryId"`
}

// Expired reports whether the authorization is no longer accepted at now.
func (a UploadAuthorization) Expired(now time.Time) bool {
	return now.Unix() >= a.ExpirationTime
}

// EmbedAuthorization permits playback of a specific video.
type EmbedAuthorization struct {
	VideoID string `json:"videoId"`
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

// Expired reports whether the token is no longer accepted at now.
func (a EmbedAuthorization) Expired(now time.Time) bool {
	return now.Unix() >= a.Expires
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// UploadSignature computes sha256(libraryID || apiKey || expires || videoID).
func UploadSignature(libraryID, apiKey string, expires int64, videoID string) string {
	return digest(libraryID, apiKey, strconv.FormatInt(expires, 10), videoID)
}

// EmbedToken computes sha256(tokenKey || videoID || expires).
func EmbedToken(tokenKey, videoID string, expires int64) string {
	return digest(tokenKey, videoID, strconv.FormatInt(expires, 10))
}

// VerifyUpload recomputes the upload signature and compares it in constant time.
func VerifyUpload(a UploadAuthorization, apiKey string) bool {
	if a.Signature == "" || apiKey == "" {
		return false
	}
	want := UploadSignature(a.LibraryID, apiKey, a.ExpirationTime, a.VideoID)
	return subtle.ConstantTimeCompare([]byte(a.Signature), []byte(want)) == 1
}

// VerifyEmbed recomputes the embed token and compares it in constant time.
func VerifyEmbed(a EmbedAuthorization, tokenKey string) bool {
	if a.Token == "" || tokenKey == "" {
		return false
	}
	want := EmbedToken(tokenKey, a.VideoID, a.Expires)
	return subtle.ConstantTimeCompare([]byte(a.Token), []byte(want)) == 1
}
