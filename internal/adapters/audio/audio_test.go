package audio_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/notebeat/internal/adapters/audio"
	"github.com/okian/notebeat/internal/beatclock"
	"github.com/okian/notebeat/internal/domain/tempo"
	"github.com/okian/notebeat/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var testFormat = beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}

// constant emits the same value on both channels forever.
func constant(v float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})
}

func bufferedTrack(n int, v float64) *audio.Track {
	buf := beep.NewBuffer(testFormat)
	buf.Append(beep.Take(n, constant(v)))
	return audio.NewTrack("test", buf.Streamer(0, buf.Len()), testFormat)
}

// brokenStreamer ends early and reports a decoder error.
type brokenStreamer struct {
	pos int
	n   int
	err error
}

func (b *brokenStreamer) Stream(samples [][2]float64) (int, bool) {
	if b.pos >= b.n {
		b.err = errors.New("corrupt frame")
		return 0, false
	}
	k := min(len(samples), b.n-b.pos)
	b.pos += k
	return k, true
}
func (b *brokenStreamer) Err() error    { return b.err }
func (b *brokenStreamer) Len() int      { return b.n * 2 }
func (b *brokenStreamer) Position() int { return b.pos }
func (b *brokenStreamer) Seek(p int) error {
	b.pos = p
	return nil
}

type recorder struct {
	mu       sync.Mutex
	beats    int
	finished []bool
	gens     []uint64
	done     chan bool
}

func newRecorder() *recorder { return &recorder{done: make(chan bool, 4)} }

func (r *recorder) OnBeat() {
	r.mu.Lock()
	r.beats++
	r.mu.Unlock()
}

func (r *recorder) OnFinished(gen uint64, success bool) {
	r.mu.Lock()
	r.finished = append(r.finished, success)
	r.gens = append(r.gens, gen)
	r.mu.Unlock()
	r.done <- success
}

func (r *recorder) beatCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.beats
}

func (r *recorder) lastGeneration() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[len(r.gens)-1]
}

func (r *recorder) finishedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.finished)
}

type tickerSource struct {
	mu sync.Mutex
	t  *beatclock.ManualTicker
}

func (s *tickerSource) factory(time.Duration) beatclock.Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t = beatclock.NewManualTicker()
	return s.t
}

func (s *tickerSource) current() *beatclock.ManualTicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestLoad(t *testing.T) {
	Convey("Given track files on disk", t, func() {
		dir := t.TempDir()

		Convey("When the file does not exist", func() {
			_, err := audio.Load(filepath.Join(dir, "missing.mp3"))

			Convey("Then loading fails", func() {
				So(errors.Is(err, audio.ErrLoadTrack), ShouldBeTrue)
			})
		})

		Convey("When the extension is unknown", func() {
			p := filepath.Join(dir, "song.ogg")
			So(os.WriteFile(p, []byte("OggS"), 0o600), ShouldBeNil)
			_, err := audio.Load(p)

			Convey("Then the format is rejected", func() {
				So(errors.Is(err, audio.ErrUnsupportedFormat), ShouldBeTrue)
			})
		})

		Convey("When a wav file is malformed", func() {
			p := filepath.Join(dir, "bad.wav")
			So(os.WriteFile(p, []byte("not a wav"), 0o600), ShouldBeNil)
			_, err := audio.Load(p)

			Convey("Then loading fails", func() {
				So(errors.Is(err, audio.ErrLoadTrack), ShouldBeTrue)
			})
		})

		Convey("When a valid wav file is loaded", func() {
			p := filepath.Join(dir, "tone.wav")
			f, err := os.Create(p)
			So(err, ShouldBeNil)
			So(wav.Encode(f, beep.Take(800, constant(0.25)), testFormat), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			tr, err := audio.Load(p)
			So(err, ShouldBeNil)
			Reset(func() { _ = tr.Close() })

			Convey("Then its length and format are known", func() {
				So(tr.Name(), ShouldEqual, "tone.wav")
				So(tr.Len(), ShouldEqual, 800)
				So(tr.Duration(), ShouldEqual, 100*time.Millisecond)
				So(tr.Format().SampleRate, ShouldEqual, testFormat.SampleRate)
			})
		})
	})
}

func TestMeter(t *testing.T) {
	Convey("Given a meter", t, func() {
		Convey("When nothing has streamed", func() {
			m := audio.NewMeter(constant(1), 64)
			So(m.Level(), ShouldEqual, audio.FloorDB)
		})

		Convey("When full scale audio streams", func() {
			m := audio.NewMeter(constant(1), 64)
			m.Stream(make([][2]float64, 128))
			So(m.Level(), ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("When half scale audio streams", func() {
			m := audio.NewMeter(constant(0.5), 64)
			m.Stream(make([][2]float64, 32))
			So(m.Level(), ShouldAlmostEqual, -6.0206, 1e-3)
		})

		Convey("When silence streams", func() {
			m := audio.NewMeter(constant(0), 64)
			m.Stream(make([][2]float64, 64))
			So(m.Level(), ShouldEqual, audio.FloorDB)
		})
	})
}

func TestController(t *testing.T) {
	Convey("Given a controller on a manual output", t, func() {
		out := audio.NewManualOutput()
		rec := newRecorder()
		src := &tickerSource{}
		c := audio.NewController(
			bufferedTrack(1000, 0.5),
			tempo.MustNew(96, tempo.Quarter),
			out,
			audio.WithListener(rec),
			audio.WithClockOptions(beatclock.WithTickerFactory(src.factory)),
			audio.WithMeterWidth(100),
		)
		Reset(c.Stop)

		Convey("When idle", func() {
			So(c.IsPlaying(), ShouldBeFalse)
			So(c.AverageLevel(), ShouldEqual, audio.FloorDB)
		})

		Convey("When started", func() {
			c.PlayOrToggle()

			Convey("Then audio plays and beats reach the listener", func() {
				So(c.IsPlaying(), ShouldBeTrue)
				So(out.Active(), ShouldEqual, 1)
				src.current().Tick()
				src.current().Tick()
				So(eventually(func() bool { return rec.beatCount() == 2 }), ShouldBeTrue)
			})

			Convey("Then the level follows the audio", func() {
				out.Pump(200)
				So(c.AverageLevel(), ShouldAlmostEqual, -6.0206, 1e-3)
				So(c.Track().Position(), ShouldEqual, 200)
			})

			Convey("Then reaching the end raises OnFinished once", func() {
				gen := c.Generation()
				out.Pump(600)
				out.Pump(600)
				out.Pump(600)
				So(<-rec.done, ShouldBeTrue)
				So(eventually(func() bool { return !c.IsPlaying() }), ShouldBeTrue)
				time.Sleep(10 * time.Millisecond)
				So(rec.finishedCount(), ShouldEqual, 1)
				So(rec.lastGeneration(), ShouldEqual, gen)
				So(c.Generation(), ShouldNotEqual, gen)
				So(out.Active(), ShouldEqual, 0)
			})

			Convey("Then an explicit stop does not raise OnFinished", func() {
				out.Pump(100)
				c.Stop()
				c.Stop()
				So(c.State(), ShouldEqual, audio.Stopped)
				So(out.Active(), ShouldEqual, 0)
				So(c.Track().Position(), ShouldEqual, 0)
				time.Sleep(10 * time.Millisecond)
				So(rec.finishedCount(), ShouldEqual, 0)
			})

			Convey("Then toggling pauses without losing the position", func() {
				out.Pump(100)
				c.PlayOrToggle()
				So(c.State(), ShouldEqual, audio.Paused)
				out.Pump(300)
				So(c.Track().Position(), ShouldEqual, 100)

				c.PlayOrToggle()
				So(c.State(), ShouldEqual, audio.Playing)
				out.Pump(300)
				So(c.Track().Position(), ShouldEqual, 400)
			})

			Convey("Then no beat arrives while paused", func() {
				c.PlayOrToggle()
				src.current().Tick()
				time.Sleep(10 * time.Millisecond)
				So(rec.beatCount(), ShouldEqual, 0)
			})

			Convey("Then playing again after stop starts from the top", func() {
				first := c.Generation()
				out.Pump(300)
				c.Stop()
				c.PlayOrToggle()
				So(c.Generation(), ShouldBeGreaterThan, first)
				So(c.Track().Position(), ShouldEqual, 0)
				out.Pump(50)
				So(c.Track().Position(), ShouldEqual, 50)
			})
		})
	})

	Convey("Given a track that fails mid-stream", t, func() {
		out := audio.NewManualOutput()
		rec := newRecorder()
		tr := audio.NewTrack("broken", &brokenStreamer{n: 100}, testFormat)
		c := audio.NewController(tr, tempo.MustNew(120, tempo.Quarter), out, audio.WithListener(rec))
		Reset(c.Stop)

		Convey("When it drains", func() {
			c.PlayOrToggle()
			out.Pump(500)

			Convey("Then OnFinished reports failure", func() {
				So(<-rec.done, ShouldBeFalse)
			})
		})
	})
}

func TestNullOutput(t *testing.T) {
	Convey("Given a null output", t, func() {
		out := audio.NewNullOutput(testFormat.SampleRate, 5*time.Millisecond)
		Reset(out.Close)
		rec := newRecorder()
		c := audio.NewController(bufferedTrack(200, 0.1), tempo.MustNew(96, tempo.Quarter), out, audio.WithListener(rec))
		Reset(c.Stop)

		Convey("When a short track plays", func() {
			c.PlayOrToggle()

			Convey("Then it finishes in real time without a device", func() {
				var ok, timedOut bool
				select {
				case ok = <-rec.done:
				case <-time.After(2 * time.Second):
					timedOut = true
				}
				So(timedOut, ShouldBeFalse)
				So(ok, ShouldBeTrue)
			})
		})
	})
}
