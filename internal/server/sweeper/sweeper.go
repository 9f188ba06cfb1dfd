// Package sweeper periodically removes token pairs whose refresh window has
// closed. It runs in its own goroutine, independent of request handling.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/logging"
	"github.com/dmitrijs2005/itemkeeper/internal/server/metrics"
)

const (
	// DefaultTimeout bounds a single sweep.
	DefaultTimeout  = 5 * time.Minute
	// DefaultInterval replaces a non-positive interval, which a ticker cannot use.
	DefaultInterval = 24 * time.Hour
)

// TokenSweeper deletes expired tokens and reports how many were removed.
type TokenSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type Sweeper struct {
	tokens   TokenSweeper
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New builds a Sweeper running every interval.
func New(tokens TokenSweeper, interval time.Duration, log logging.Logger, m *metrics.Metrics) *Sweeper {
	log = log.With("component", "sweeper")
	if interval <= 0 {
		log.Warn(context.Background(), "non-positive sweep interval, using default",
			"interval", interval.String(), "default", DefaultInterval.String())
		interval = DefaultInterval
	}
	return &Sweeper{
		tokens:   tokens,
		interval: interval,
		timeout:  DefaultTimeout,
		log:      log,
		metrics:  m,
		now:      time.Now,
		started:  make(chan struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop. The loop ends on Stop or when ctx is done.
// Calling Start more than once has no effect.
func (s *Sweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		close(s.started)
		go s.loop(ctx)
	})
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	select {
	case <-s.started:
		<-s.doneCh
	default:
	}
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.doneCh)

	s.log.Info(ctx, "sweeper started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)

		case <-s.stopCh:
			s.log.Info(ctx, "sweeper stopped")
			return

		case <-ctx.Done():
			s.log.Info(ctx, "sweeper stopped", "reason", ctx.Err().Error())
			return
		}
	}
}

// RunOnce performs a single sweep under its own timeout.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	n, err := s.tokens.Sweep(ctx)
	if err != nil {
		s.metrics.SweepFailed()
		s.log.Error(ctx, "token sweep failed", "error", err)
		return 0, err
	}

	s.metrics.SweepCompleted(n, started)
	s.log.Info(ctx, "expired tokens removed", "deleted", n, "took", s.now().Sub(started).String())
	return n, nil
}
