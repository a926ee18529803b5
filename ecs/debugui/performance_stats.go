package debugui

import (
	"time"

	"github.com/plus3/fission/ecs"
)

// PerformanceStats keeps a ring of recent frame times next to the latest
// store and system snapshots.
type PerformanceStats struct {
	frames []float32 // milliseconds
	next   int
	filled int

	Storage *ecs.StorageStats
	Systems *ecs.SchedulerStats
}

func NewPerformanceStats(historyFrames int) *PerformanceStats {
	return &PerformanceStats{frames: make([]float32, max(historyFrames, 1))}
}

// Record adds one frame and refreshes the snapshots from manager.
func (ps *PerformanceStats) Record(frame time.Duration, manager *ecs.SystemManager) {
	ps.frames[ps.next] = float32(frame.Seconds() * 1000)
	ps.next = (ps.next + 1) % len(ps.frames)
	ps.filled = min(ps.filled+1, len(ps.frames))

	ps.Storage = manager.Storage().CollectStats()
	ps.Systems = manager.Stats()
}

// History returns the recorded frame times in milliseconds, oldest first.
func (ps *PerformanceStats) History() []float32 {
	history := make([]float32, 0, ps.filled)
	start := (ps.next - ps.filled + len(ps.frames)) % len(ps.frames)
	for i := range ps.filled {
		history = append(history, ps.frames[(start+i)%len(ps.frames)])
	}
	return history
}

// AvgFrameTime averages the recorded frames, in milliseconds.
func (ps *PerformanceStats) AvgFrameTime() float32 {
	if ps.filled == 0 {
		return 0
	}
	var total float32
	for _, ms := range ps.History() {
		total += ms
	}
	return total / float32(ps.filled)
}

type FrameTimer struct {
	last time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{last: time.Now()}
}

// Delta returns the time since the previous call (or since construction).
func (ft *FrameTimer) Delta() time.Duration {
	now := time.Now()
	delta := now.Sub(ft.last)
	ft.last = now
	return delta
}
