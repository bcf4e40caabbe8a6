// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import "errors"

// Progress is the acknowledged position of a transfer.
type Progress struct {
	Sent  int64
	Total int64
}

// Percent returns Sent/Total in the range [0, 100]. An empty file is complete.
func (p Progress) Percent() float64 {
	if p.Total <= 0 || p.Sent >= p.Total {
		return 100
	}
	if p.Sent <= 0 {
		return 0
	}
	return float64(p.Sent) * 100 / float64(p.Total)
}

// Result is the terminal outcome of an upload.
type Result struct {
	UploadURL string
	Bytes     int64
	Err       error
}

func (r Result) OK() bool { return r.Err == nil }

// Aborted reports whether the upload ended through Abort.
func (r Result) Aborted() bool { return errors.Is(r.Err, ErrAborted) }

type EventKind int

const (
	EventProgress EventKind = iota
	EventSuccess
	EventError
	EventAborted
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventSuccess:
		return "success"
	case EventError:
		return "error"
	case EventAborted:
		return "aborted"
	}
	return "unknown"
}

// Event is an item of the upload event stream. Result is only set on the
// terminal event.
type Event struct {
	Kind     EventKind
	Progress Progress
	Result   Result
}

// Terminal reports whether no further events follow.
func (e Event) Terminal() bool { return e.Kind != EventProgress }

// Observer receives callbacks from the upload goroutine. Any field may be nil.
// Exactly one of OnSuccess or OnError fires per upload unless it is aborted,
// in which case neither does.
type Observer struct {
	OnProgress func(Progress)
	OnSuccess  func(Result)
	OnError    func(error)
}
