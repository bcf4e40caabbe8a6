// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func fastPolicy(n int) Policy {
	d := make([]time.Duration, n)
	for i := 1; i < n; i++ {
		d[i] = time.Millisecond
	}
	return Policy{Delays: d}
}

func TestDefaultPolicySchedule(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 5, p.Attempts())
	assert.Equal(t, time.Duration(0), p.Delays[0])
	for i := 1; i < len(p.Delays); i++ {
		assert.Greater(t, p.Delays[i], p.Delays[i-1], "delays must increase")
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	var seen []int
	err := Do(context.Background(), fastPolicy(4), func(_ context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return errFlaky
		}
		return nil
	}, func(attempt int, err error, _ time.Duration) {
		seen = append(seen, attempt)
		assert.ErrorIs(t, err, errFlaky)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(context.Context, int) error {
		calls++
		return errFlaky
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 3, ex.Attempts)
	assert.ErrorIs(t, err, errFlaky)
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(context.Context, int) error {
		calls++
		return Permanent(errFlaky)
	})
	assert.Equal(t, 1, calls)
	assert.Same(t, errFlaky, err)
	assert.False(t, IsPermanent(err))
	assert.True(t, IsPermanent(Permanent(errFlaky)))
	assert.Nil(t, Permanent(nil))
}

func TestDoHonoursCancellationDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Delays: []time.Duration{0, time.Hour}}

	start := time.Now()
	err := Do(ctx, p, func(context.Context, int) error {
		cancel()
		return errFlaky
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestEmptyPolicyAllowsOneAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func(context.Context, int) error {
		calls++
		return errFlaky
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errFlaky)
}
