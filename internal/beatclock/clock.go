// Package beatclock fires a recurring beat callback at a fixed interval.
//
// The first beat arrives one full interval after Start. Once Stop returns
// the callback is never invoked again, even for a tick that was already
// pending.
package beatclock

import (
	"fmt"
	"sync"
	"time"
)

// Option applies a configuration option to the Clock.
type Option func(*Clock)

// WithTickerFactory replaces the system ticker.
func WithTickerFactory(f TickerFactory) Option {
	return func(c *Clock) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// Clock is safe for concurrent use. onBeat runs while the clock lock is
// held, so it must not call back into the Clock.
type Clock struct {
	mu        sync.Mutex
	onBeat    func()
	newTicker TickerFactory

	running  bool
	gen      uint64
	interval time.Duration
	beats    uint64
	stop     chan struct{}
	done     chan struct{}
}

// New creates a stopped clock.
func New(onBeat func(), opts ...Option) *Clock {
	c := &Clock{
		onBeat:    onBeat,
		newTicker: NewSystemTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins firing every interval. A running schedule is stopped first.
func (c *Clock) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.running = true
	c.interval = interval
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.gen, c.newTicker(interval), c.stop, c.done)
	return nil
}

// Stop cancels future beats and waits for the schedule to exit. Idempotent.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stop)
	done := c.done
	c.mu.Unlock()
	<-done
}

// Running reports whether a schedule is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Interval returns the interval of the last Start.
func (c *Clock) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Beats returns how many beats fired since the clock was created.
func (c *Clock) Beats() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beats
}

func (c *Clock) loop(gen uint64, t Ticker, stop, done chan struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			c.fire(gen)
		}
	}
}

func (c *Clock) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.gen != gen {
		return
	}
	c.beats++
	if c.onBeat != nil {
		c.onBeat()
	}
}
