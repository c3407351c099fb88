// Package autoplay drives a notebeat game over HTTP: it starts a session,
// taps notes as they appear and checks the final score against the points
// it was awarded.
package autoplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/notebeat/pkg/logger"
)

// Errors returned by Run.
var (
	ErrSessionInUse = errors.New("a game is already running")
	ErrNotStarted   = errors.New("game did not start")
)

// Run plays one game and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := *config
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	log := logger.Get().Named("autoplay")
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting notebeat autoplay",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("player", cfg.Player),
		logger.Duration("duration", cfg.Duration),
		logger.Int("workers", cfg.Workers),
		logger.Int("skip", cfg.Skip))

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Get the session back to the menu
	if err := ensureMenu(ctx, client); err != nil {
		return nil, err
	}

	// Step 3: Start the game
	res, err := client.Start(ctx, cfg.Player)
	if err != nil {
		return nil, fmt.Errorf("start failed: %w", err)
	}
	if !res.Applied || res.Session.State != StatePlaying {
		return nil, fmt.Errorf("%w: state %s", ErrNotStarted, res.Session.State)
	}
	run := res.Session.Run
	log.Info(ctx, "game started", logger.Int64("run", int64(run)))

	// Step 4: Tap notes until the deadline or the end of the track
	if err := play(ctx, &cfg, client, stats); err != nil {
		return stats, err
	}

	// Step 5: Stop if the track is still playing
	final, err := finish(ctx, client)
	if err != nil {
		return stats, err
	}
	stats.FinalScore = final.FinalScore

	// Step 6: Verify results
	var entry *Highscore
	if cfg.Player != "" {
		hs, err := client.Rank(ctx, cfg.Player)
		if err != nil {
			return stats, fmt.Errorf("highscore lookup failed: %w", err)
		}
		entry = &hs
		stats.Rank = hs.Rank
	}
	if err := verifyResults(stats, final, entry); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Dismiss the end message
	if _, err := client.Acknowledge(ctx); err != nil {
		log.Warn(ctx, "acknowledge failed", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func ensureMenu(ctx context.Context, client *Client) error {
	s, err := client.Session(ctx)
	if err != nil {
		return fmt.Errorf("session lookup failed: %w", err)
	}
	switch s.State {
	case StatePlaying:
		return ErrSessionInUse
	case StateFinished:
		if _, err := client.Acknowledge(ctx); err != nil {
			return fmt.Errorf("acknowledge failed: %w", err)
		}
	}
	return nil
}

// play polls /objects and feeds unseen notes to a pool of tappers.
func play(ctx context.Context, cfg *Config, client *Client, stats *Stats) error {
	log := logger.Get().Named("autoplay")

	var deadline <-chan time.Time
	if cfg.Duration > 0 {
		t := time.NewTimer(cfg.Duration)
		defer t.Stop()
		deadline = t.C
	}

	var (
		applied  int64
		missed   int64
		failed   int64
		deltaSum int64
	)
	targets := make(chan Object, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for obj := range targets {
				hit, err := client.Hit(ctx, HitRequest{ObjectID: obj.ID, TapID: uuid.NewString()})
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "tap failed", logger.String("object", obj.ID), logger.Error(err))
					}
				case hit.Applied:
					atomic.AddInt64(&applied, 1)
					atomic.AddInt64(&deltaSum, int64(hit.Delta))
					if cfg.Verbose {
						log.Debug(ctx, "note exploded",
							logger.String("object", obj.ID),
							logger.Int("delta", hit.Delta),
							logger.Int("score", hit.Score))
					}
				default:
					atomic.AddInt64(&missed, 1)
				}
			}
		}()
	}

	seen := make(map[string]struct{})
	err := func() error {
		defer close(targets)
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for {
			s, err := client.Session(ctx)
			if err != nil {
				return fmt.Errorf("session poll failed: %w", err)
			}
			if s.State != StatePlaying {
				log.Info(ctx, "track ended", logger.String("state", s.State))
				return nil
			}

			objects, err := client.Objects(ctx)
			if err != nil {
				return fmt.Errorf("object poll failed: %w", err)
			}
			stats.Polls++
			for _, obj := range objects {
				if _, ok := seen[obj.ID]; ok {
					continue
				}
				seen[obj.ID] = struct{}{}
				stats.Seen++
				if cfg.Skip > 0 && stats.Seen%cfg.Skip == 0 {
					stats.Skipped++
					continue
				}
				select {
				case targets <- obj:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-deadline:
				return nil
			case <-ticker.C:
			}
		}
	}()
	wg.Wait()

	stats.HitsApplied = int(atomic.LoadInt64(&applied))
	stats.HitsMissed = int(atomic.LoadInt64(&missed))
	stats.HitsFailed = int(atomic.LoadInt64(&failed))
	stats.DeltaSum = int(atomic.LoadInt64(&deltaSum))
	return err
}

// finish stops a running game and waits for the finished snapshot.
func finish(ctx context.Context, client *Client) (Session, error) {
	s, err := client.Session(ctx)
	if err != nil {
		return s, fmt.Errorf("session lookup failed: %w", err)
	}
	if s.State == StatePlaying {
		res, err := client.Stop(ctx)
		if err != nil {
			return s, fmt.Errorf("stop failed: %w", err)
		}
		s = res.Session
	}

	deadline := time.Now().Add(FinishWait)
	for s.State != StateFinished {
		if time.Now().After(deadline) {
			return s, fmt.Errorf("%w: game never finished, state %s", ErrNotStarted, s.State)
		}
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-time.After(FinishPollInterval):
		}
		if s, err = client.Session(ctx); err != nil {
			return s, fmt.Errorf("session lookup failed: %w", err)
		}
	}
	return s, nil
}

// displayFinalStats logs the final game statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var hitRate float64
	if stats.Seen > 0 {
		hitRate = float64(stats.HitsApplied) / float64(stats.Seen) * PercentageMultiplier
	}
	log.Info(ctx, "final statistics",
		logger.Int("polls", stats.Polls),
		logger.Int("notesSeen", stats.Seen),
		logger.Int("notesSkipped", stats.Skipped),
		logger.Int("hitsApplied", stats.HitsApplied),
		logger.Int("hitsMissed", stats.HitsMissed),
		logger.Int("hitsFailed", stats.HitsFailed),
		logger.Int("finalScore", stats.FinalScore),
		logger.Int("rank", stats.Rank),
		logger.Float64("hitRate", hitRate),
		logger.String("duration", stats.Duration.String()))
}
