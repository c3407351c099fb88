package autoplay

import "time"

// Config holds configuration for an automated game.
type Config struct {
	BaseURL      string        // Base URL of the service
	Player       string        // Player name recorded with the score
	Duration     time.Duration // How long to play before stopping; zero plays until the track ends
	PollInterval time.Duration // Delay between object listings
	Workers      int           // Number of concurrent tappers
	Timeout      time.Duration // HTTP request timeout
	Skip         int           // Leave every Nth object untouched; zero taps everything
	Verbose      bool          // Enable verbose logging
}

// Object is a live note as listed by GET /objects.
type Object struct {
	ID       string     `json:"id"`
	Color    *string    `json:"color"`
	Points   int        `json:"points"`
	Position [3]float64 `json:"position"`
}

// HitRequest is the body of POST /hits.
type HitRequest struct {
	ObjectID string `json:"object_id"`
	TapID    string `json:"tap_id"`
}

// HitResponse is the reply to POST /hits.
type HitResponse struct {
	Applied   bool   `json:"applied"`
	ObjectID  string `json:"object_id"`
	Delta     int    `json:"delta"`
	Score     int    `json:"score"`
	Duplicate bool   `json:"duplicate"`
}

// Session is the session snapshot returned by the service.
type Session struct {
	State      string `json:"state"`
	Score      int    `json:"score"`
	FinalScore int    `json:"final_score"`
	Paused     bool   `json:"paused"`
	Message    string `json:"message"`
	Player     string `json:"player"`
	Run        uint64 `json:"run"`
}

// CommandResponse is the reply to a session command.
type CommandResponse struct {
	Applied bool    `json:"applied"`
	Session Session `json:"session"`
}

// Highscore is one high-score table entry.
type Highscore struct {
	Rank   int    `json:"rank"`
	Player string `json:"player"`
	Score  int    `json:"score"`
	Games  int    `json:"games"`
}

// Stats holds game statistics.
type Stats struct {
	Polls       int
	Seen        int
	Skipped     int
	HitsApplied int
	HitsMissed  int
	HitsFailed  int
	DeltaSum    int
	FinalScore  int
	Rank        int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
