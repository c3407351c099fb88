package audio

import (
	"math"
	"sync"

	"github.com/gopxl/beep"
)

// Meter constants.
const (
	// FloorDB is the level reported for silence.
	FloorDB           = -160.0
	defaultMeterWidth = 1024
)

// Meter passes audio through and tracks the windowed RMS power of each
// channel over the last width samples.
type Meter struct {
	s beep.Streamer

	mu     sync.Mutex
	sq     [2][]float64
	sum    [2]float64
	pos    int
	filled int
}

// NewMeter wraps s with a window of width samples.
func NewMeter(s beep.Streamer, width int) *Meter {
	if width <= 0 {
		width = defaultMeterWidth
	}
	return &Meter{
		s:  s,
		sq: [2][]float64{make([]float64, width), make([]float64, width)},
	}
}

// Stream implements beep.Streamer.
func (m *Meter) Stream(samples [][2]float64) (int, bool) {
	n, ok := m.s.Stream(samples)
	width := len(m.sq[0])
	m.mu.Lock()
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			v := samples[i][ch] * samples[i][ch]
			m.sum[ch] += v - m.sq[ch][m.pos]
			m.sq[ch][m.pos] = v
		}
		m.pos = (m.pos + 1) % width
		if m.filled < width {
			m.filled++
		}
	}
	m.mu.Unlock()
	return n, ok
}

// Err implements beep.Streamer.
func (m *Meter) Err() error { return m.s.Err() }

// Level returns the mean over channels of the windowed power in dBFS,
// never below FloorDB.
func (m *Meter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.filled == 0 {
		return FloorDB
	}
	var total float64
	for ch := 0; ch < 2; ch++ {
		total += toDB(m.sum[ch] / float64(m.filled))
	}
	return total / 2
}

func toDB(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return FloorDB
	}
	return math.Max(10*math.Log10(meanSquare), FloorDB)
}
