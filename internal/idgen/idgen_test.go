package idgen

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MachineID(t *testing.T) {
	tests := []struct {
		id      uint16
		wantErr bool
	}{
		{0, false},
		{1, false},
		{1023, false},
		{1024, true},
		{math.MaxUint16, true},
	}
	for _, tt := range tests {
		g, err := New(tt.id)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidMachineID), "id %d", tt.id)
			assert.Nil(t, g)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.id, g.MachineID())
		assert.Equal(t, DefaultEpoch, g.Epoch())
	}
}

func TestNew_InvalidEpoch(t *testing.T) {
	_, err := New(1, WithEpoch(-1))
	assert.True(t, errors.Is(err, ErrInvalidEpoch))
}

func TestGenerate_Sequential(t *testing.T) {
	g, err := New(7)
	require.NoError(t, err)

	const n = 100_000
	seen := make(map[int64]struct{}, n)
	var lastTS int64
	for i := 0; i < n; i++ {
		id, err := g.Generate()
		require.NoError(t, err)
		require.Positive(t, id)
		require.LessOrEqual(t, id, int64(math.MaxInt64))

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}

		ts := id >> timestampShift
		require.GreaterOrEqual(t, ts, lastTS)
		lastTS = ts
	}
	assert.Len(t, seen, n)
}

func TestGenerate_Concurrent(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	const workers, perWorker = 8, 10_000
	results := make([][]int64, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				id, err := g.Generate()
				if err != nil {
					t.Errorf("generate: %v", err)
					return
				}
				ids = append(ids, id)
			}
			results[w] = ids
		}(w)
	}
	wg.Wait()

	seen := make(map[int64]struct{}, workers*perWorker)
	for _, ids := range results {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestGenerate_ClockMovedBackwards(t *testing.T) {
	now := DefaultEpoch + 10_000
	g, err := New(1, WithClock(func() int64 { return now }))
	require.NoError(t, err)

	first, err := g.Generate()
	require.NoError(t, err)

	now -= 5
	_, err = g.Generate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClockMovedBackwards))

	// The generator does not advance its state on failure.
	now += 5
	next, err := g.Generate()
	require.NoError(t, err)
	assert.Greater(t, next, first)
}

func TestGenerate_SequenceExhaustion(t *testing.T) {
	const base = DefaultEpoch + 1_000
	var calls atomic.Int64
	clock := func() int64 {
		// Frozen for one full millisecond of sequence space plus the call that wraps.
		if calls.Add(1) <= maxSequence+2 {
			return base
		}
		return base + 1
	}
	g, err := New(9, WithClock(clock))
	require.NoError(t, err)

	ids, err := g.GenerateN(maxSequence + 1)
	require.NoError(t, err)
	last := g.Decompose(ids[len(ids)-1])
	assert.Equal(t, base, last.UnixMilli)
	assert.Equal(t, uint16(maxSequence), last.Sequence)

	id, err := g.Generate()
	require.NoError(t, err)
	parts := g.Decompose(id)
	assert.Equal(t, base+1, parts.UnixMilli)
	assert.Equal(t, uint16(0), parts.Sequence)
	assert.Greater(t, id, ids[len(ids)-1])
}

func TestGenerate_ClockRegressesWhileWaiting(t *testing.T) {
	const base = DefaultEpoch + 1_000
	var (
		calls     atomic.Int64
		recovered atomic.Bool
	)
	clock := func() int64 {
		switch {
		case recovered.Load():
			return base + 1
		case calls.Add(1) <= maxSequence+2:
			return base
		default:
			return base - 500
		}
	}
	g, err := New(2, WithClock(clock))
	require.NoError(t, err)

	ids, err := g.GenerateN(maxSequence + 1)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate()
		done <- err
	}()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrClockMovedBackwards))
	case <-time.After(2 * time.Second):
		t.Fatal("Generate blocked on a regressed clock")
	}

	// State is untouched by the failed call.
	recovered.Store(true)
	id, err := g.Generate()
	require.NoError(t, err)
	parts := g.Decompose(id)
	assert.Equal(t, base+1, parts.UnixMilli)
	assert.Equal(t, uint16(0), parts.Sequence)
	assert.Greater(t, id, ids[len(ids)-1])
}

func TestGenerate_NeverZero(t *testing.T) {
	now := DefaultEpoch
	g, err := New(0, WithClock(func() int64 { return now }))
	require.NoError(t, err)

	_, err = g.Generate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimestampOverflow))

	now++
	id, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<timestampShift, id)
}

func TestGenerate_TimestampOverflow(t *testing.T) {
	g, err := New(1, WithEpoch(0), WithClock(func() int64 { return maxElapsed + 1 }))
	require.NoError(t, err)
	_, err = g.Generate()
	assert.True(t, errors.Is(err, ErrTimestampOverflow))

	g, err = New(1, WithEpoch(DefaultEpoch), WithClock(func() int64 { return DefaultEpoch - 1 }))
	require.NoError(t, err)
	_, err = g.Generate()
	assert.True(t, errors.Is(err, ErrTimestampOverflow))
}

func TestDecompose(t *testing.T) {
	const ts = DefaultEpoch + 123_456
	g, err := New(1023, WithClock(func() int64 { return ts }))
	require.NoError(t, err)

	ids, err := g.GenerateN(3)
	require.NoError(t, err)

	for i, id := range ids {
		p := g.Decompose(id)
		assert.Equal(t, ts, p.UnixMilli)
		assert.Equal(t, uint16(1023), p.MachineID)
		assert.Equal(t, uint16(i), p.Sequence)
	}
	assert.Equal(t, int64(ts), Decompose(ids[0], DefaultEpoch).Time().UnixMilli())
}
