// Package trail holds the fixed-capacity history of rendered positions.
//
// A [Buffer] is allocated once at full capacity and fills front to back.
// When it is full it freezes: older points are never evicted, so the
// drawn polyline is the earliest part of the trajectory.
package trail

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultCapacity matches the polyline size of the live view.
const DefaultCapacity = 5000

type Buffer struct {
	points  []r3.Vec
	written int
}

func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("trail: capacity must be positive, got %d", capacity)
	}
	return &Buffer{points: make([]r3.Vec, capacity)}, nil
}

// TryAppend stores p in the next free slot. It reports false and leaves the
// buffer untouched once the buffer is full.
func (b *Buffer) TryAppend(p r3.Vec) bool {
	if b.written >= len(b.points) {
		return false
	}
	b.points[b.written] = p
	b.written++
	return true
}

// Drawable returns the backing storage and the number of valid entries.
// Only points[:count] may be read.
func (b *Buffer) Drawable() (points []r3.Vec, count int) {
	return b.points, b.written
}

// Points returns a copy of the valid prefix.
func (b *Buffer) Points() []r3.Vec {
	out := make([]r3.Vec, b.written)
	copy(out, b.points[:b.written])
	return out
}

func (b *Buffer) Len() int   { return b.written }
func (b *Buffer) Cap() int   { return len(b.points) }
func (b *Buffer) Full() bool { return b.written == len(b.points) }
