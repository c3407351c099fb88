package beatclock

import "time"

// Ticker is the periodic time source behind a Clock.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type systemTicker struct {
	t *time.Ticker
}

// NewSystemTicker wraps time.Ticker. It is the default factory.
func NewSystemTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// ManualTicker fires only when Tick is called. Used in tests.
type ManualTicker struct {
	ch chan time.Time
}

// NewManualTicker creates a ManualTicker with room for one pending tick.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time, 1)}
}

// C returns the tick channel.
func (m *ManualTicker) C() <-chan time.Time { return m.ch }

// Stop is a no-op; the clock stops reading C.
func (m *ManualTicker) Stop() {}

// Tick delivers one tick, blocking until there is room.
func (m *ManualTicker) Tick() { m.ch <- time.Now() }
