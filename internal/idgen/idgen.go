// Package idgen mints unique, time-ordered 64-bit entity identifiers.
//
// Layout (most significant bit first):
//
//	| 1 bit unused | 41 bits ms since epoch | 10 bits machine id | 12 bits sequence |
//
// A Generator is safe for concurrent use. Every call to Generate runs as one
// critical section, so two callers never observe the same
// (timestamp, sequence) pair.
//
// Import Path: ontoforge.io/ontoforge/internal/idgen
package idgen

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

const (
	timestampBits = 41
	machineBits   = 10
	sequenceBits  = 12

	// MaxMachineID is the largest accepted machine identifier.
	MaxMachineID = 1<<machineBits - 1
	maxSequence  = 1<<sequenceBits - 1
	maxElapsed   = 1<<timestampBits - 1

	machineShift   = sequenceBits
	timestampShift = sequenceBits + machineBits
)

// DefaultEpoch is 2023-01-01T00:00:00Z in Unix milliseconds.
const DefaultEpoch int64 = 1672531200000

var (
	ErrInvalidMachineID    = errors.New("machine id out of range")
	ErrClockMovedBackwards = errors.New("clock moved backwards")
	ErrTimestampOverflow   = errors.New("timestamp outside the representable range")
	ErrInvalidEpoch        = errors.New("invalid epoch")
)

// Clock returns the current time in Unix milliseconds.
type Clock func() int64

// Option configures a Generator.
type Option func(*Generator)

// WithEpoch sets the custom epoch in Unix milliseconds.
func WithEpoch(ms int64) Option {
	return func(g *Generator) { g.epoch = ms }
}

// WithClock replaces the wall clock. Used by tests.
func WithClock(c Clock) Option {
	return func(g *Generator) {
		if c != nil {
			g.now = c
		}
	}
}

// Generator is a snowflake-style ID generator bound to one machine id.
type Generator struct {
	mu            sync.Mutex
	machineID     int64
	epoch         int64
	now           Clock
	lastTimestamp int64
	sequence      int64
}

// New creates a generator. machineID must be in [0, MaxMachineID].
func New(machineID uint16, opts ...Option) (*Generator, error) {
	if machineID > MaxMachineID {
		return nil, fmt.Errorf("%w: %d (valid range 0-%d)", ErrInvalidMachineID, machineID, MaxMachineID)
	}
	g := &Generator{
		machineID:     int64(machineID),
		epoch:         DefaultEpoch,
		now:           func() int64 { return time.Now().UnixMilli() },
		lastTimestamp: -1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.epoch < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEpoch, g.epoch)
	}
	return g, nil
}

// Generate returns the next identifier.
//
// It fails with ErrClockMovedBackwards when the clock reads earlier than the
// previous call, including while it waits out an exhausted millisecond; the
// caller decides whether to retry. When the 4096 sequence values of the
// current millisecond are used up, Generate waits for the next millisecond.
// Generator state only advances when an identifier is returned.
func (g *Generator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.now()
	if current < g.lastTimestamp {
		return 0, fmt.Errorf("%w: by %dms", ErrClockMovedBackwards, g.lastTimestamp-current)
	}

	var sequence int64
	if current == g.lastTimestamp {
		sequence = (g.sequence + 1) & maxSequence
		if sequence == 0 {
			next, err := g.waitNext(g.lastTimestamp)
			if err != nil {
				return 0, err
			}
			current = next
		}
	}

	elapsed := current - g.epoch
	if elapsed < 0 || elapsed > maxElapsed {
		return 0, fmt.Errorf("%w: %dms since epoch %d", ErrTimestampOverflow, elapsed, g.epoch)
	}
	id := elapsed<<timestampShift | g.machineID<<machineShift | sequence
	if id <= 0 {
		return 0, fmt.Errorf("%w: id %d", ErrTimestampOverflow, id)
	}

	g.lastTimestamp = current
	g.sequence = sequence
	return id, nil
}

// GenerateN returns n identifiers in increasing order.
func (g *Generator) GenerateN(n int) ([]int64, error) {
	ids := make([]int64, 0, n)
	for range n {
		id, err := g.Generate()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *Generator) waitNext(last int64) (int64, error) {
	ts := g.now()
	for ts <= last {
		if ts < last {
			return 0, fmt.Errorf("%w: by %dms", ErrClockMovedBackwards, last-ts)
		}
		runtime.Gosched()
		ts = g.now()
	}
	return ts, nil
}

// MachineID returns the generator's machine id.
func (g *Generator) MachineID() uint16 { return uint16(g.machineID) }

// Epoch returns the generator's epoch in Unix milliseconds.
func (g *Generator) Epoch() int64 { return g.epoch }

// Decompose splits id using the generator's epoch.
func (g *Generator) Decompose(id int64) Parts { return Decompose(id, g.epoch) }

// Parts are the components of an identifier.
type Parts struct {
	// UnixMilli is the mint time in Unix milliseconds.
	UnixMilli int64  `json:"unix_milli"`
	MachineID uint16 `json:"machine_id"`
	Sequence  uint16 `json:"sequence"`
}

// Time returns the mint time.
func (p Parts) Time() time.Time { return time.UnixMilli(p.UnixMilli).UTC() }

// Decompose splits id into its components relative to epoch.
func Decompose(id, epoch int64) Parts {
	return Parts{
		UnixMilli: id>>timestampShift + epoch,
		MachineID: uint16(id >> machineShift & MaxMachineID),
		Sequence:  uint16(id & maxSequence),
	}
}
