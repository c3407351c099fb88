package audio

import "errors"

// Sentinel errors for the audio adapter.
var (
	ErrLoadTrack         = errors.New("load track")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrOutput            = errors.New("audio output")
)
