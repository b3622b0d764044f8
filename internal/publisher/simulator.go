package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nerrad567/temppub/internal/infrastructure/config"
	"github.com/nerrad567/temppub/internal/reading"
)

// ValuePublisher publishes one reading. *Publisher satisfies it.
type ValuePublisher interface {
	Publish(ctx context.Context, value any) (bool, error)
}

// Simulator publishes random readings on a fixed interval.
type Simulator struct {
	pub      ValuePublisher
	interval time.Duration
	minValue float64
	maxValue float64
	logger   Logger

	mu        sync.Mutex
	rng       *rand.Rand
	published int
	failed    int
}

// NewSimulator creates a simulator drawing values uniformly from
// [cfg.MinValue, cfg.MaxValue].
func NewSimulator(pub ValuePublisher, cfg config.SimulationConfig, logger Logger) (*Simulator, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: publisher is required", ErrInvalidOptions)
	}
	if cfg.MinValue > cfg.MaxValue {
		return nil, fmt.Errorf("%w: simulation min %.1f above max %.1f", ErrInvalidOptions, cfg.MinValue, cfg.MaxValue)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("%w: simulation interval cannot be negative", ErrInvalidOptions)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulator{
		pub:      pub,
		interval: cfg.Interval,
		minValue: cfg.MinValue,
		maxValue: cfg.MaxValue,
		logger:   logger,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // simulated readings, not security sensitive
	}, nil
}

// SetRand replaces the random source, for reproducible runs.
func (s *Simulator) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

// Next returns the next simulated reading, rounded to one decimal and
// kept inside [min, max].
func (s *Simulator) Next() float64 {
	s.mu.Lock()
	f := s.rng.Float64()
	s.mu.Unlock()

	v := reading.Round(s.minValue + f*(s.maxValue-s.minValue))
	return min(max(v, s.minValue), s.maxValue)
}

// Stats returns the number of published and failed readings so far.
func (s *Simulator) Stats() (published, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published, s.failed
}

// Run publishes one reading per interval until ctx is cancelled.
//
// A reading that exhausts its attempts is logged and the loop goes on.
// Run returns nil on cancellation. A reading rejected as invalid stops
// the loop with that error.
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("simulation started",
		"interval", s.interval.String(),
		"min", s.minValue,
		"max", s.maxValue,
	)

	for ctx.Err() == nil {
		value := s.Next()
		ok, err := s.pub.Publish(ctx, value)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("simulated reading %.1f: %w", value, err)
		}

		s.mu.Lock()
		if ok {
			s.published++
		} else {
			s.failed++
		}
		s.mu.Unlock()

		if !ok {
			s.logger.Warn("simulated reading not published", "value", value)
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	published, failed := s.Stats()
	s.logger.Info("simulation stopped", "published", published, "failed", failed)
	return nil
}
