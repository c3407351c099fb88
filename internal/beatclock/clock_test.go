package beatclock_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/notebeat/internal/beatclock"
)

// tickers hands out manual tickers and remembers them.
type tickers struct {
	mu  sync.Mutex
	all []*beatclock.ManualTicker
	got []time.Duration
}

func (f *tickers) factory(d time.Duration) beatclock.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := beatclock.NewManualTicker()
	f.all = append(f.all, t)
	f.got = append(f.got, d)
	return t
}

func (f *tickers) last() *beatclock.ManualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.all[len(f.all)-1]
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestClock(t *testing.T) {
	Convey("Given a clock on manual tickers", t, func() {
		var beats atomic.Int64
		f := &tickers{}
		c := beatclock.New(func() { beats.Add(1) }, beatclock.WithTickerFactory(f.factory))
		Reset(c.Stop)

		Convey("When started with a non-positive interval", func() {
			err := c.Start(0)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, beatclock.ErrInvalidInterval), ShouldBeTrue)
				So(c.Running(), ShouldBeFalse)
			})
		})

		Convey("When started", func() {
			So(c.Start(625*time.Millisecond), ShouldBeNil)

			Convey("Then nothing fires before the first interval", func() {
				So(c.Running(), ShouldBeTrue)
				So(c.Interval(), ShouldEqual, 625*time.Millisecond)
				So(beats.Load(), ShouldEqual, 0)
			})

			Convey("Then each tick fires one beat", func() {
				tk := f.last()
				for i := 0; i < 3; i++ {
					tk.Tick()
				}
				So(waitFor(func() bool { return beats.Load() == 3 }), ShouldBeTrue)
				So(c.Beats(), ShouldEqual, 3)
			})

			Convey("Then Stop is idempotent", func() {
				c.Stop()
				c.Stop()
				So(c.Running(), ShouldBeFalse)
			})

			Convey("Then restarting replaces the schedule", func() {
				first := f.last()
				So(c.Start(time.Second), ShouldBeNil)
				second := f.last()
				So(second, ShouldNotEqual, first)

				// The old ticker is no longer read.
				first.Tick()
				second.Tick()
				So(waitFor(func() bool { return beats.Load() == 1 }), ShouldBeTrue)
				time.Sleep(20 * time.Millisecond)
				So(beats.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestClockNoBeatAfterStop(t *testing.T) {
	Convey("Given a clock whose tick is pending when Stop is called", t, func() {
		for round := 0; round < 200; round++ {
			var stopped atomic.Bool
			var late atomic.Int64
			f := &tickers{}
			c := beatclock.New(func() {
				if stopped.Load() {
					late.Add(1)
				}
			}, beatclock.WithTickerFactory(f.factory))

			So(c.Start(time.Millisecond), ShouldBeNil)
			f.last().Tick()
			c.Stop()
			stopped.Store(true)

			time.Sleep(time.Millisecond)

			So(late.Load(), ShouldEqual, 0)
		}
	})
}

func TestClockSystemTicker(t *testing.T) {
	Convey("Given a clock on the system ticker", t, func() {
		var beats atomic.Int64
		c := beatclock.New(func() { beats.Add(1) })

		Convey("When it runs for a few intervals", func() {
			So(c.Start(5*time.Millisecond), ShouldBeNil)
			ok := waitFor(func() bool { return beats.Load() >= 3 })
			c.Stop()
			after := beats.Load()
			time.Sleep(30 * time.Millisecond)

			Convey("Then beats fired and stopped with the clock", func() {
				So(ok, ShouldBeTrue)
				So(beats.Load(), ShouldEqual, after)
			})
		})
	})
}
