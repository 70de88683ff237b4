package lidar

import "gonum.org/v1/gonum/spatial/r3"

// DotBuffer is the persistent scan: a fixed-capacity ring of DotSamples in
// insertion order. A candidate closer than minDist to any resident is
// rejected; an accepted candidate on a full buffer evicts the oldest
// resident. Storage is allocated once in NewDotBuffer.
type DotBuffer struct {
	slots []DotSample
	head  int // slot of the oldest resident
	size  int
	next  uint64

	minDist float64
	grid    *spatialGrid // nil for linear scan or when dedup is disabled

	accepted uint64
	rejected uint64
	evicted  uint64
}

// NewDotBuffer creates an empty buffer. A minDist of zero disables dedup.
// capacity must be positive.
func NewDotBuffer(capacity int, minDist float64, mode DedupMode) *DotBuffer {
	b := &DotBuffer{
		slots:   make([]DotSample, capacity),
		minDist: minDist,
	}
	if mode == DedupGrid && minDist > 0 {
		b.grid = newSpatialGrid(minDist, capacity)
	}
	return b
}

// Len returns the number of resident samples.
func (b *DotBuffer) Len() int { return b.size }

// Cap returns the hard capacity.
func (b *DotBuffer) Cap() int { return len(b.slots) }

// TooClose reports whether p lies strictly within the dedup radius of a
// resident sample.
func (b *DotBuffer) TooClose(p r3.Vec) bool {
	if b.minDist <= 0 || b.size == 0 {
		return false
	}
	r2 := b.minDist * b.minDist
	if b.grid != nil {
		return b.grid.near(p, r2, b.slots)
	}
	for i := 0; i < b.size; i++ {
		if r3.Norm2(r3.Sub(b.slots[b.slot(i)].Position, p)) < r2 {
			return true
		}
	}
	return false
}

// Insert offers a candidate. It returns the stored sample and true when the
// candidate was accepted, or false when it was too close to a resident.
func (b *DotBuffer) Insert(p r3.Vec, c Color) (DotSample, bool) {
	if b.TooClose(p) {
		b.rejected++
		return DotSample{}, false
	}

	sample := DotSample{Position: p, Color: c, Index: b.next}
	b.next++

	var slot int
	if b.size == len(b.slots) {
		slot = b.head
		if b.grid != nil {
			b.grid.remove(slot, b.slots[slot].Position)
		}
		b.head = (b.head + 1) % len(b.slots)
		b.evicted++
	} else {
		slot = b.slot(b.size)
		b.size++
	}

	b.slots[slot] = sample
	if b.grid != nil {
		b.grid.add(slot, p)
	}
	b.accepted++
	return sample, true
}

// At returns the i-th resident, 0 being the oldest.
func (b *DotBuffer) At(i int) DotSample {
	return b.slots[b.slot(i)]
}

// Oldest returns the oldest resident, or false when empty.
func (b *DotBuffer) Oldest() (DotSample, bool) {
	if b.size == 0 {
		return DotSample{}, false
	}
	return b.slots[b.head], true
}

// Each calls fn for every resident from oldest to newest until fn returns
// false. It does not modify the buffer.
func (b *DotBuffer) Each(fn func(DotSample) bool) {
	for i := 0; i < b.size; i++ {
		if !fn(b.slots[b.slot(i)]) {
			return
		}
	}
}

// Samples appends the residents, oldest first, to dst.
func (b *DotBuffer) Samples(dst []DotSample) []DotSample {
	for i := 0; i < b.size; i++ {
		dst = append(dst, b.slots[b.slot(i)])
	}
	return dst
}

// Reset drops every resident. Insertion indices keep increasing.
func (b *DotBuffer) Reset() {
	clear(b.slots)
	b.head = 0
	b.size = 0
	if b.grid != nil {
		b.grid.reset()
	}
}

// Counters returns cumulative accepted, rejected and evicted totals.
func (b *DotBuffer) Counters() (accepted, rejected, evicted uint64) {
	return b.accepted, b.rejected, b.evicted
}

func (b *DotBuffer) slot(i int) int {
	return (b.head + i) % len(b.slots)
}
