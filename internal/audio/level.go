package audio

import (
	"math"
	"sync/atomic"
)

const (
	levelGain      = 10.0
	levelSmoothing = 0.8
)

// LevelMeter turns sample blocks into a smoothed [0,1] input level.
// Observe runs on the audio path; Tick runs on the poller.
type LevelMeter struct {
	pending  atomic.Uint64
	smoothed atomic.Uint64
}

// NewLevelMeter returns a meter at zero.
func NewLevelMeter() *LevelMeter {
	return &LevelMeter{}
}

// Observe records the instantaneous level of one block: RMS scaled by 10, clamped.
func (m *LevelMeter) Observe(samples []float32) {
	m.pending.Store(math.Float64bits(BlockLevel(samples)))
}

// Tick folds the latest observation into the smoothed level and returns it.
func (m *LevelMeter) Tick() float64 {
	current := math.Float64frombits(m.pending.Load())
	prev := math.Float64frombits(m.smoothed.Load())
	next := clampUnit(levelSmoothing*prev + (1-levelSmoothing)*current)
	m.smoothed.Store(math.Float64bits(next))
	return next
}

// Level returns the last smoothed value.
func (m *LevelMeter) Level() float64 {
	return math.Float64frombits(m.smoothed.Load())
}

func (m *LevelMeter) Reset() {
	m.pending.Store(0)
	m.smoothed.Store(0)
}

// BlockLevel computes min(1, rms*10) for samples; empty input is silent.
func BlockLevel(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return clampUnit(rms * levelGain)
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
