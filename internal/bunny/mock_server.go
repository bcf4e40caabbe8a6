// SPDX-License-Identifier: MIT
package bunny

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/videoplane/internal/signing"
)

// MockServer is an in-memory provider: the library REST API plus the
// resumable upload endpoint, for tests and local development.
type MockServer struct {
	*httptest.Server
	mu        sync.Mutex
	libraryID string
	apiKey    string
	now       func() time.Time
	nextID    int
	videos    map[string]*mockVideo
	uploads   map[string]*mockUpload
	failures  map[string][]int // queued status codes per operation
	calls     map[string]int
}

type mockVideo struct {
	payload videoPayload
}

type mockUpload struct {
	videoID  string
	length   int64
	data     []byte
	metadata map[string]string
}

// NewMockServer starts a mock provider for libraryID authenticated by apiKey.
func NewMockServer(libraryID, apiKey string) *MockServer {
	m := &MockServer{
		libraryID: libraryID,
		apiKey:    apiKey,
		now:       time.Now,
		videos:    make(map[string]*mockVideo),
		uploads:   make(map[string]*mockUpload),
		failures:  make(map[string][]int),
		calls:     make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/library/", m.handleLibrary)
	mux.HandleFunc("/tusupload", m.handleTusCreate)
	mux.HandleFunc("/tusupload/", m.handleTusResource)
	m.Server = httptest.NewServer(mux)
	return m
}

// UploadURL is the resumable upload endpoint of the mock.
func (m *MockServer) UploadURL() string {
	return m.URL + "/tusupload"
}

// FailNext queues status codes returned by the next calls of op
// ("create", "get", "delete", "tus-create", "tus-head", "tus-patch").
func (m *MockServer) FailNext(op string, statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], statuses...)
}

// Calls returns how many requests op has received.
func (m *MockServer) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of requests received on any endpoint.
func (m *MockServer) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// SetStatus forces the provider processing code of a video.
func (m *MockServer) SetStatus(videoID string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.videos[videoID]; ok {
		v.payload.Status = status
	}
}

// PutVideo seeds a video record.
func (m *MockServer) PutVideo(videoID, title string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[videoID] = &mockVideo{payload: videoPayload{GUID: videoID, Title: title, Status: status}}
}

// Uploaded returns the bytes received for a video and whether the transfer completed.
func (m *MockServer) Uploaded(videoID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.uploads {
		if u.videoID == videoID {
			return append([]byte(nil), u.data...), int64(len(u.data)) == u.length
		}
	}
	return nil, false
}

// Metadata returns the decoded Upload-Metadata of a video's upload.
func (m *MockServer) Metadata(videoID string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.uploads {
		if u.videoID == videoID {
			return u.metadata
		}
	}
	return nil
}

// hit counts a call and pops a queued failure. Caller must hold m.mu.
func (m *MockServer) hit(op string) int {
	m.calls[op]++
	q := m.failures[op]
	if len(q) == 0 {
		return 0
	}
	m.failures[op] = q[1:]
	return q[0]
}

func writeMockJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (m *MockServer) handleLibrary(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// /library/{id}/videos[/{videoId}]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[2] != "videos" {
		http.NotFound(w, r)
		return
	}
	op := map[string]string{http.MethodPost: "create", http.MethodGet: "get", http.MethodDelete: "delete"}[r.Method]
	if op == "" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if status := m.hit(op); status != 0 {
		writeMockJSON(w, status, map[string]any{"success": false, "message": "injected failure", "statusCode": status})
		return
	}
	if parts[1] != m.libraryID || r.Header.Get("AccessKey") != m.apiKey {
		writeMockJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Authorization has been denied"})
		return
	}

	switch op {
	case "create":
		var in struct {
			Title string `json:"title"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		m.nextID++
		id := fmt.Sprintf("mock-%04d", m.nextID)
		lib, _ := strconv.ParseInt(m.libraryID, 10, 64)
		v := &mockVideo{payload: videoPayload{GUID: id, VideoLibraryID: lib, Title: in.Title}}
		m.videos[id] = v
		writeMockJSON(w, http.StatusOK, v.payload)
	case "get", "delete":
		if len(parts) != 4 {
			http.NotFound(w, r)
			return
		}
		v, ok := m.videos[parts[3]]
		if !ok {
			writeMockJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Video not found"})
			return
		}
		if op == "delete" {
			delete(m.videos, parts[3])
			writeMockJSON(w, http.StatusOK, map[string]any{"success": true, "statusCode": 200})
			return
		}
		writeMockJSON(w, http.StatusOK, v.payload)
	}
}

func (m *MockServer) authorized(r *http.Request) bool {
	exp, err := strconv.ParseInt(r.Header.Get("AuthorizationExpire"), 10, 64)
	if err != nil || m.now().Unix() >= exp {
		return false
	}
	return signing.VerifyUpload(signing.UploadAuthorization{
		Signature:      r.Header.Get("AuthorizationSignature"),
		ExpirationTime: exp,
		VideoID:        r.Header.Get("VideoId"),
		LibraryID:      r.Header.Get("LibraryId"),
	}, m.apiKey)
}

func parseMetadata(h string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(h, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), " ", 2)
		if kv[0] == "" {
			continue
		}
		val := ""
		if len(kv) == 2 {
			if dec, err := base64.StdEncoding.DecodeString(kv[1]); err == nil {
				val = string(dec)
			}
		}
		out[kv[0]] = val
	}
	return out
}

func (m *MockServer) handleTusCreate(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.Header().Set("Tus-Resumable", "1.0.0")
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if status := m.hit("tus-create"); status != 0 {
		w.WriteHeader(status)
		return
	}
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	length, err := strconv.ParseInt(r.Header.Get("Upload-Length"), 10, 64)
	if err != nil || length < 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	m.nextID++
	id := fmt.Sprintf("u%04d", m.nextID)
	m.uploads[id] = &mockUpload{
		videoID:  r.Header.Get("VideoId"),
		length:   length,
		metadata: parseMetadata(r.Header.Get("Upload-Metadata")),
	}
	w.Header().Set("Location", "/tusupload/"+id)
	w.WriteHeader(http.StatusCreated)
}

func (m *MockServer) handleTusResource(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.Header().Set("Tus-Resumable", "1.0.0")

	op := map[string]string{http.MethodHead: "tus-head", http.MethodPatch: "tus-patch"}[r.Method]
	if op == "" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if status := m.hit(op); status != 0 {
		w.WriteHeader(status)
		return
	}
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	u, ok := m.uploads[strings.TrimPrefix(r.URL.Path, "/tusupload/")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if op == "tus-head" {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Upload-Offset", strconv.Itoa(len(u.data)))
		w.Header().Set("Upload-Length", strconv.FormatInt(u.length, 10))
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Header.Get("Content-Type") != "application/offset+octet-stream" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}
	off, err := strconv.ParseInt(r.Header.Get("Upload-Offset"), 10, 64)
	if err != nil || off != int64(len(u.data)) {
		w.WriteHeader(http.StatusConflict)
		return
	}
	chunk, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if int64(len(u.data)+len(chunk)) > u.length {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}
	u.data = append(u.data, chunk...)
	if int64(len(u.data)) == u.length {
		if v, ok := m.videos[u.videoID]; ok {
			v.payload.Status = 1
		}
	}
	w.Header().Set("Upload-Offset", strconv.Itoa(len(u.data)))
	w.WriteHeader(http.StatusNoContent)
}
