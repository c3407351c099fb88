package autoplay

import "time"

// Session states as reported by the service.
const (
	StateMenu     = "menu"
	StatePlaying  = "playing"
	StateFinished = "finished"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DefaultPollInterval  = 100 * time.Millisecond
	FinishPollInterval   = 50 * time.Millisecond
	FinishWait           = 5 * time.Second
	PercentageMultiplier = 100
)
