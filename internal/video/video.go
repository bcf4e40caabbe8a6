// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package video holds the remote asset model and the projection of provider
// processing codes onto the states exposed to clients.
package video

// ProviderState is the provider's numeric processing code.
type ProviderState int

const (
	ProviderCreated     ProviderState = 0
	ProviderUploaded    ProviderState = 1
	ProviderProcessing  ProviderState = 2
	ProviderTranscoding ProviderState = 3
	ProviderFinished    ProviderState = 4
	ProviderError       ProviderState = 5
)

func (s ProviderState) String() string {
	switch s {
	case ProviderCreated:
		return "created"
	case ProviderUploaded:
		return "uploaded"
	case ProviderProcessing:
		return "processing"
	case ProviderTranscoding:
		return "transcoding"
	case ProviderFinished:
		return "finished"
	case ProviderError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the externally visible processing state.
type State string

const (
	StateReady      State = "ready"
	StateProcessing State = "processing"
	StateError      State = "error"
)

// Project maps a provider code onto State. The mapping is total: anything
// not finished or failed is reported as processing.
func Project(s ProviderState) State {
	switch {
	case s == ProviderFinished:
		return StateReady
	case s == ProviderError:
		return StateError
	case s >= ProviderUploaded && s <= ProviderTranscoding:
		return StateProcessing
	default:
		return StateProcessing
	}
}

// Terminal reports whether polling can stop.
func (s State) Terminal() bool {
	return s == StateReady || s == StateError
}

// Asset is the provider's record of a video. It is only ever observed,
// never mutated locally.
type Asset struct {
	VideoID   string        `json:"videoId"`
	LibraryID string        `json:"libraryId,omitempty"`
	Title     string        `json:"title"`
	State     ProviderState `json:"-"`
	Length    int           `json:"length"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
}

// Status is the projected view returned by the status action.
type Status struct {
	VideoID     string `json:"videoId"`
	Status      State  `json:"status"`
	BunnyStatus int    `json:"bunnyStatus"`
	Title       string `json:"title"`
	Length      int    `json:"length"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// StatusOf projects an asset into its client-facing status.
func StatusOf(a Asset) Status {
	return Status{
		VideoID:     a.VideoID,
		Status:      Project(a.State),
		BunnyStatus: int(a.State),
		Title:       a.Title,
		Length:      a.Length,
		Width:       a.Width,
		Height:      a.Height,
	}
}
