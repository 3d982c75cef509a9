package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/invoice-api/config"
	"github.com/ledgerline/invoice-api/internal/observability/statsd"
	"github.com/ledgerline/invoice-api/internal/ports"
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Store   ports.SessionStore   // Required: session store
	Config  config.SweeperConfig // Required: sweeper configuration
	Logger  *slog.Logger         // Optional: structured logger
	Metrics statsd.Sink          // Optional: metrics sink (StatsD-compatible)
	Now     func() time.Time     // Optional clock override for tests
}

// SweeperService purges expired sessions independent of request traffic.
// Request-time expiry handling already deletes sessions it happens to see;
// the sweeper catches everything abandoned without a further request.
type SweeperService struct {
	store   ports.SessionStore
	config  config.SweeperConfig
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Store == nil {
		return nil, errors.New("SessionStore is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cfg := opts.Config
	if cfg.Interval <= 0 {
		cfg.Sanitize()
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sweeper_service")
		logger.Debug("SweeperService initialized", "interval", cfg.Interval)
	}

	return &SweeperService{
		store:   opts.Store,
		config:  cfg,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
// Store failures are logged and the loop continues on the next tick.
func (s *SweeperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting session sweeper", "interval", s.config.Interval)
	}

	// Jitter prevents a thundering herd when multiple instances start together
	s.waitWithJitter(ctx)
	if ctx.Err() != nil {
		return s.finish(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Sweep immediately after jitter
	if _, err := s.Sweep(ctx); err != nil {
		s.logSweepError(err)
	}

	for {
		select {
		case <-ctx.Done():
			return s.finish(ctx)
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logSweepError(err)
			}
		}
	}
}

// finish maps context cancellation to a clean shutdown result.
func (s *SweeperService) finish(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "session sweeper stopping", "reason", ctx.Err())
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// Sweep removes every session whose expiry has passed and returns the count.
func (s *SweeperService) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := s.now()

	count, err := s.store.DeleteExpiredBefore(ctx, cutoff)
	s.emitSweepMetrics(count, time.Since(start), err)
	if err != nil {
		return count, fmt.Errorf("sweep expired sessions: %w", err)
	}

	if count > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "expired sessions reaped",
			"count", count,
			"cutoff", cutoff,
		)
	}

	return count, nil
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos))

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

func (s *SweeperService) emitSweepMetrics(count int64, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}

	result := "success"
	switch {
	case isContextCancellation(err):
		return
	case err != nil:
		result = "error"
	case count == 0:
		result = "noop"
	}

	tags := map[string]string{"result": result}
	s.metrics.Count("sweeper.cleanup", 1, tags)
	s.metrics.Timing("sweeper.cleanup_duration", elapsed, statsd.CloneTags(tags))

	if err == nil {
		if count > 0 {
			s.metrics.Count("sweeper.sessions_reaped", count, nil)
		}
		s.metrics.Gauge("sweeper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *SweeperService) logSweepError(err error) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug("sweep cancelled by context", "error", err)
		return
	}

	s.logger.Error("sweep failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
