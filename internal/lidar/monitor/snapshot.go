package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/lidarpaint/internal/lidar"
)

// Source is the read side of a scanner.
type Source interface {
	Stats() lidar.Stats
	Dots(dst []lidar.DotView) []lidar.DotView
	Beams(dst []lidar.BeamView) []lidar.BeamView
}

// Snapshot is a frozen copy of a scanner's outputs after one frame. It is
// never mutated once published.
type Snapshot struct {
	RunID string
	Frame uint64
	Time  time.Time
	Stats lidar.Stats
	Dots  []lidar.DotView
	Beams []lidar.BeamView
}

// EnabledBeams counts the visible beams.
func (s Snapshot) EnabledBeams() int {
	n := 0
	for _, b := range s.Beams {
		if b.Enabled {
			n++
		}
	}
	return n
}

// Publisher hands the latest snapshot from the frame loop to HTTP handlers
// and plotters on other goroutines.
type Publisher struct {
	runID string

	mu     sync.RWMutex
	latest *Snapshot
	frame  uint64
}

// NewPublisher returns a publisher with a fresh run id.
func NewPublisher() *Publisher {
	return &Publisher{runID: uuid.NewString()}
}

// RunID identifies this run in logs, snapshots and plot titles.
func (p *Publisher) RunID() string { return p.runID }

// Publish copies src's current outputs into a new snapshot. Call it from the
// goroutine that ticks the scanner.
func (p *Publisher) Publish(src Source, now time.Time) Snapshot {
	snap := Snapshot{
		RunID: p.runID,
		Time:  now,
		Stats: src.Stats(),
		Dots:  src.Dots(nil),
		Beams: src.Beams(nil),
	}

	p.mu.Lock()
	p.frame++
	snap.Frame = p.frame
	p.latest = &snap
	p.mu.Unlock()

	diagf("published frame %d: dots=%d beams=%d", snap.Frame, len(snap.Dots), snap.EnabledBeams())
	return snap
}

// Latest returns the most recent snapshot, or false before the first Publish.
func (p *Publisher) Latest() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return Snapshot{}, false
	}
	return *p.latest, true
}
