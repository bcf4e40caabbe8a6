// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuGH/videoplane/internal/client"
	"github.com/ManuGH/videoplane/internal/upload"
)

// sessionStore keeps the create answer for a local file next to the upload
// entries, so a rerun continues the same video instead of creating a new one.
type sessionStore struct {
	store upload.Store
	key   string
	size  int64
}

// fileKey identifies a local file by absolute path, size and modification
// time. Editing the file starts a fresh video.
func fileKey(path string, info os.FileInfo) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return fmt.Sprintf("file:%s:%d:%d", abs, info.Size(), info.ModTime().UnixNano())
}

func newSessionStore(store upload.Store, path string, info os.FileInfo) *sessionStore {
	return &sessionStore{store: store, key: fileKey(path, info), size: info.Size()}
}

// load returns the saved session if its upload authorization is still valid
// at deadline. An expired session is dropped.
func (s *sessionStore) load(deadline time.Time) (client.Created, bool, error) {
	raw, ok, err := s.store.Get(s.key)
	if err != nil || !ok {
		return client.Created{}, false, err
	}
	var c client.Created
	if err := json.Unmarshal([]byte(raw), &c); err != nil || c.VideoID == "" {
		_ = s.store.Delete(s.key)
		return client.Created{}, false, fmt.Errorf("discarding unreadable session for %s", s.key)
	}
	if c.TusConfig.Expired(deadline) {
		return client.Created{}, false, s.drop(c)
	}
	return c, true, nil
}

func (s *sessionStore) save(c client.Created) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.store.Put(s.key, string(raw))
}

// drop forgets the session and the upload entry that belongs to it.
func (s *sessionStore) drop(c client.Created) error {
	if err := s.store.Delete(upload.Fingerprint(c.VideoID, s.size)); err != nil {
		return err
	}
	return s.store.Delete(s.key)
}
