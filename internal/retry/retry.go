// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package retry runs an operation under a bounded delay schedule.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy is an ordered delay schedule. Delays[i] is waited before attempt i,
// so len(Delays) is the total attempt budget. A leading zero means the first
// attempt runs immediately.
type Policy struct {
	Delays []time.Duration
}

// DefaultPolicy retries immediately, then after 3s, 5s, 10s and 20s.
func DefaultPolicy() Policy {
	return Policy{Delays: []time.Duration{0, 3 * time.Second, 5 * time.Second, 10 * time.Second, 20 * time.Second}}
}

// Attempts returns the attempt budget. An empty schedule still allows one attempt.
func (p Policy) Attempts() int {
	if len(p.Delays) == 0 {
		return 1
	}
	return len(p.Delays)
}

func (p Policy) delay(attempt int) time.Duration {
	if attempt < 0 || attempt >= len(p.Delays) {
		return 0
	}
	if d := p.Delays[attempt]; d > 0 {
		return d
	}
	return 0
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the unwrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return "retry budget exhausted: " + e.Last.Error()
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Hook observes a failed attempt before the next delay.
type Hook func(attempt int, err error, next time.Duration)

// Do calls fn until it succeeds, returns a Permanent error, the schedule is
// exhausted, or ctx is done. attempt is zero-based.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error, hooks ...Hook) error {
	n := p.Attempts()
	var last error
	for attempt := 0; attempt < n; attempt++ {
		if err := sleepWithContext(ctx, p.delay(attempt)); err != nil {
			if last != nil {
				return errors.Join(err, last)
			}
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}
		if cerr := ctx.Err(); cerr != nil {
			if errors.Is(err, cerr) {
				return err
			}
			return errors.Join(cerr, err)
		}
		last = err
		if attempt+1 < n {
			for _, h := range hooks {
				h(attempt, err, p.delay(attempt+1))
			}
		}
	}
	return &ExhaustedError{Attempts: n, Last: last}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
