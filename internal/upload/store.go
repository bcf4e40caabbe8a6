// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/google/renameio/v2"
)

// Store remembers the upload URL of unfinished transfers so a later run can
// resume instead of starting over.
type Store interface {
	Get(fingerprint string) (string, bool, error)
	Put(fingerprint, uploadURL string) error
	Delete(fingerprint string) error
}

// Fingerprint identifies one file bound for one video.
func Fingerprint(videoID string, size int64) string {
	return videoID + ":" + strconv.FormatInt(size, 10)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.Mutex
	urls map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{urls: make(map[string]string)}
}

func (s *MemoryStore) Get(fingerprint string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.urls[fingerprint]
	return u, ok, nil
}

func (s *MemoryStore) Put(fingerprint, uploadURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls[fingerprint] = uploadURL
	return nil
}

func (s *MemoryStore) Delete(fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.urls, fingerprint)
	return nil
}

// FileStore persists entries as a JSON object. Every write replaces the file
// atomically so a crash never leaves a torn document behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resume store: %w", err)
	}
	entries := make(map[string]string)
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode resume store %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *FileStore) save(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resume store: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("atomically replace resume store: %w", err)
	}
	return nil
}

func (s *FileStore) Get(fingerprint string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	u, ok := entries[fingerprint]
	return u, ok, nil
}

func (s *FileStore) Put(fingerprint, uploadURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[fingerprint] = uploadURL
	return s.save(entries)
}

func (s *FileStore) Delete(fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := entries[fingerprint]; !ok {
		return nil
	}
	delete(entries, fingerprint)
	return s.save(entries)
}
