package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// Track is a decoded song that can be rewound and replayed.
type Track struct {
	name     string
	format   beep.Format
	streamer beep.StreamSeekCloser
}

// Load decodes a .wav or .mp3 file. The file stays open until Close.
func Load(path string) (*Track, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrLoadTrack, path, err)
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".mp3":
		s, format, err = mp3.Decode(f)
	default:
		_ = f.Close()
		return nil, fmt.Errorf("%w %q: %w: %s", ErrLoadTrack, path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w %q: %w", ErrLoadTrack, path, err)
	}
	return &Track{name: filepath.Base(path), format: format, streamer: s}, nil
}

// NewTrack wraps an in-memory streamer, for generated or buffered audio.
func NewTrack(name string, s beep.StreamSeeker, format beep.Format) *Track {
	return &Track{name: name, format: format, streamer: nopCloser{s}}
}

// Name returns the file name of the track.
func (t *Track) Name() string { return t.name }

// Format returns the decoded sample format.
func (t *Track) Format() beep.Format { return t.format }

// Len returns the length in samples.
func (t *Track) Len() int { return t.streamer.Len() }

// Duration returns the playing time.
func (t *Track) Duration() time.Duration { return t.format.SampleRate.D(t.streamer.Len()) }

// Position returns the current sample position.
func (t *Track) Position() int { return t.streamer.Position() }

// Err reports a decoding error hit during streaming.
func (t *Track) Err() error { return t.streamer.Err() }

// Rewind seeks back to the first sample.
func (t *Track) Rewind() error {
	if err := t.streamer.Seek(0); err != nil {
		return fmt.Errorf("rewind %s: %w", t.name, err)
	}
	return nil
}

// Close releases the underlying file.
func (t *Track) Close() error { return t.streamer.Close() }

type nopCloser struct {
	beep.StreamSeeker
}

func (nopCloser) Close() error { return nil }
