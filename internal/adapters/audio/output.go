package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Output is the audio sink the controller plays into. Lock guards
// changes to streamers that are currently playing.
type Output interface {
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// SpeakerOutput plays on the default sound device.
type SpeakerOutput struct{}

// NewSpeakerOutput initializes the device at the track's sample rate.
// The speaker is process-global, so only one SpeakerOutput is useful.
func NewSpeakerOutput(sr beep.SampleRate, buffer time.Duration) (*SpeakerOutput, error) {
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return nil, fmt.Errorf("%w: init speaker: %w", ErrOutput, err)
	}
	return &SpeakerOutput{}, nil
}

func (*SpeakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (*SpeakerOutput) Clear()               { speaker.Clear() }
func (*SpeakerOutput) Lock()                { speaker.Lock() }
func (*SpeakerOutput) Unlock()              { speaker.Unlock() }

// Close releases the device.
func (*SpeakerOutput) Close() { speaker.Close() }

// NullOutput consumes audio in real time without a sound device.
type NullOutput struct {
	mu     sync.Mutex
	mixer  beep.Mixer
	sr     beep.SampleRate
	period time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewNullOutput starts a device-less sink pulling one buffer every period.
func NewNullOutput(sr beep.SampleRate, period time.Duration) *NullOutput {
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	o := &NullOutput{
		sr:     sr,
		period: period,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *NullOutput) run() {
	defer close(o.done)
	buf := make([][2]float64, o.sr.N(o.period))
	t := time.NewTicker(o.period)
	defer t.Stop()
	for {
		select {
		case <-o.stop:
			return
		case <-t.C:
			o.mu.Lock()
			o.mixer.Stream(buf)
			o.mu.Unlock()
		}
	}
}

func (o *NullOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.mixer.Add(s)
	o.mu.Unlock()
}

func (o *NullOutput) Clear() {
	o.mu.Lock()
	o.mixer.Clear()
	o.mu.Unlock()
}

func (o *NullOutput) Lock()   { o.mu.Lock() }
func (o *NullOutput) Unlock() { o.mu.Unlock() }

// Close stops the pull loop.
func (o *NullOutput) Close() {
	select {
	case <-o.stop:
	default:
		close(o.stop)
	}
	<-o.done
}

// ManualOutput only advances when Pump is called. Tests drive playback with it.
type ManualOutput struct {
	mu    sync.Mutex
	mixer beep.Mixer
}

// NewManualOutput creates an idle ManualOutput.
func NewManualOutput() *ManualOutput { return &ManualOutput{} }

func (o *ManualOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.mixer.Add(s)
	o.mu.Unlock()
}

func (o *ManualOutput) Clear() {
	o.mu.Lock()
	o.mixer.Clear()
	o.mu.Unlock()
}

func (o *ManualOutput) Lock()   { o.mu.Lock() }
func (o *ManualOutput) Unlock() { o.mu.Unlock() }

// Pump streams n samples through everything playing.
func (o *ManualOutput) Pump(n int) {
	buf := make([][2]float64, n)
	o.mu.Lock()
	o.mixer.Stream(buf)
	o.mu.Unlock()
}

// Active returns the number of streamers still playing.
func (o *ManualOutput) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mixer.Len()
}
