// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package signing

import (
	"errors"
	"time"
)

var (
	ErrMissingKey     = errors.New("signing: missing key")
	ErrSharedKey      = errors.New("signing: upload and embed keys must differ")
	ErrMissingVideoID = errors.New("signing: missing video id")
)

// Keys holds the secrets for both signing domains.
type Keys struct {
	LibraryID    string
	APIKey       string // upload domain
	TokenAuthKey string // embed domain
}

// Validate rejects incomplete key sets and key reuse across domains.
func (k Keys) Validate() error {
	if k.LibraryID == "" || k.APIKey == "" || k.TokenAuthKey == "" {
		return ErrMissingKey
	}
	if k.APIKey == k.TokenAuthKey {
		return ErrSharedKey
	}
	return nil
}

// Signer mints authorizations. Expiry is always mint time + Validity.
type Signer struct {
	keys      Keys
	uploadURL string
	now       func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// NewSigner returns a Signer for the given keys. uploadURL is copied into
// every UploadAuthorization.
func NewSigner(keys Keys, uploadURL string, opts ...Option) (*Signer, error) {
	if err := keys.Validate(); err != nil {
		return nil, err
	}
	s := &Signer{keys: keys, uploadURL: uploadURL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Signer) expiry() int64 {
	return s.now().Add(Validity).Unix()
}

// LibraryID returns the library the signer mints for.
func (s *Signer) LibraryID() string {
	return s.keys.LibraryID
}

// MintUpload issues an UploadAuthorization for videoID.
func (s *Signer) MintUpload(videoID string) (UploadAuthorization, error) {
	if videoID == "" {
		return UploadAuthorization{}, ErrMissingVideoID
	}
	exp := s.expiry()
	return UploadAuthorization{
		UploadURL:      s.uploadURL,
		ExpirationTime: exp,
		Signature:      UploadSignature(s.keys.LibraryID, s.keys.APIKey, exp, videoID),
		VideoID:        videoID,
		LibraryID:      s.keys.LibraryID,
	}, nil
}

// MintEmbed issues an EmbedAuthorization for videoID.
func (s *Signer) MintEmbed(videoID string) (EmbedAuthorization, error) {
	if videoID == "" {
		return EmbedAuthorization{}, ErrMissingVideoID
	}
	exp := s.expiry()
	return EmbedAuthorization{
		VideoID: videoID,
		Token:   EmbedToken(s.keys.TokenAuthKey, videoID, exp),
		Expires: exp,
	}, nil
}
