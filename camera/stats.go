package camera

import (
	"sync"
	"time"

	"github.com/brandondube/ringo"
)

// Stats accumulates acquisition statistics for one camera.  The frame
// rate is measured over a trailing window of delivery times.  All
// methods are safe for concurrent use; the ring itself is not, so the
// mutex here is load bearing.
type Stats struct {
	mu         sync.Mutex
	times      ringo.CircleF64
	window     int
	delivered  uint64
	incomplete uint64
	dropped    uint64
}

// NewStats returns a Stats measuring frame rate over the last window
// deliveries.
func NewStats(window int) *Stats {
	s := &Stats{window: window}
	s.times.Init(window)
	return s
}

// RecordDelivery notes a frame handed to the consumer at time t.
func (s *Stats) RecordDelivery(t time.Time, complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered++
	if !complete {
		s.incomplete++
	}
	s.times.Append(float64(t.UnixNano()) / 1e9)
}

// RecordDrop notes a frame overwritten in the buffer ring before the
// consumer collected it.
func (s *Stats) RecordDrop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped++
}

// FPS returns the frame rate over the trailing window, zero until two
// frames have been delivered.
func (s *Stats) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fpsLocked()
}

func (s *Stats) fpsLocked() float64 {
	buf := s.times.Contiguous()
	if len(buf) < 2 {
		return 0
	}
	first := buf[0]
	last := buf[len(buf)-1]
	if last <= first {
		return 0
	}
	return float64(len(buf)-1) / (last - first)
}

// FrameStats is a point-in-time copy of the counters.
type FrameStats struct {
	// Delivered counts frames handed to the consumer
	Delivered uint64 `json:"delivered" yaml:"delivered"`

	// Incomplete counts delivered frames with missing payload
	Incomplete uint64 `json:"incomplete" yaml:"incomplete"`

	// Dropped counts frames lost to ring overwrite
	Dropped uint64 `json:"dropped" yaml:"dropped"`

	// FPS is the frame rate over the trailing window
	FPS float64 `json:"fps" yaml:"fps"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() FrameStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FrameStats{
		Delivered:  s.delivered,
		Incomplete: s.incomplete,
		Dropped:    s.dropped,
		FPS:        s.fpsLocked(),
	}
}

// Reset zeroes the counters and clears the rate window.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.times.Init(s.window)
	s.delivered = 0
	s.incomplete = 0
	s.dropped = 0
}
