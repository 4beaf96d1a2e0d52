package camera_test

import (
	"testing"
	"time"

	"github.com/candelalabs/gencam/camera"
)

func TestStatsCounters(t *testing.T) {
	s := camera.NewStats(8)
	base := time.Unix(1000, 0)
	s.RecordDelivery(base, true)
	s.RecordDelivery(base.Add(100*time.Millisecond), false)
	s.RecordDelivery(base.Add(200*time.Millisecond), true)
	s.RecordDrop()
	snap := s.Snapshot()
	if snap.Delivered != 3 {
		t.Errorf("expected 3 delivered, got %d", snap.Delivered)
	}
	if snap.Incomplete != 1 {
		t.Errorf("expected 1 incomplete, got %d", snap.Incomplete)
	}
	if snap.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", snap.Dropped)
	}
}

func TestStatsFPS(t *testing.T) {
	s := camera.NewStats(8)
	if fps := s.FPS(); fps != 0 {
		t.Errorf("expected 0 FPS with no frames, got %f", fps)
	}
	base := time.Unix(1000, 0)
	s.RecordDelivery(base, true)
	if fps := s.FPS(); fps != 0 {
		t.Errorf("expected 0 FPS with one frame, got %f", fps)
	}
	// 3 frames over 0.2s -> 10 FPS
	s.RecordDelivery(base.Add(100*time.Millisecond), true)
	s.RecordDelivery(base.Add(200*time.Millisecond), true)
	fps := s.FPS()
	if fps < 9.99 || fps > 10.01 {
		t.Errorf("expected 10 FPS, got %f", fps)
	}
}

func TestStatsWindowSlides(t *testing.T) {
	// window of 3: only the last 3 deliveries set the rate
	s := camera.NewStats(3)
	base := time.Unix(1000, 0)
	s.RecordDelivery(base, true)
	s.RecordDelivery(base.Add(10*time.Second), true)
	// three fast frames push the slow ones out
	s.RecordDelivery(base.Add(10*time.Second+100*time.Millisecond), true)
	s.RecordDelivery(base.Add(10*time.Second+200*time.Millisecond), true)
	fps := s.FPS()
	if fps < 9.99 || fps > 10.01 {
		t.Errorf("expected window to slide to 10 FPS, got %f", fps)
	}
}

func TestStatsReset(t *testing.T) {
	s := camera.NewStats(4)
	s.RecordDelivery(time.Unix(1000, 0), true)
	s.RecordDelivery(time.Unix(1001, 0), true)
	s.Reset()
	snap := s.Snapshot()
	if snap.Delivered != 0 || snap.FPS != 0 {
		t.Errorf("expected zeroed stats after reset, got %+v", snap)
	}
}
