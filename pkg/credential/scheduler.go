package credential

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// RefreshScheduler runs batch token refreshes on a cron schedule, so pools
// built from composite records stay ahead of token expiry instead of
// waiting for failures.
type RefreshScheduler struct {
	pool        *Pool
	cron        *cron.Cron
	schedule    string
	concurrency int
	logger      *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewRefreshScheduler creates a scheduler over pool. schedule is a standard
// cron expression; concurrency bounds simultaneous sign-in calls per run.
func NewRefreshScheduler(pool *Pool, schedule string, concurrency int, logger *slog.Logger) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{
		pool:        pool,
		cron:        cron.New(),
		schedule:    schedule,
		concurrency: concurrency,
		logger:      logger.With("component", "credential.scheduler"),
	}
}

// Start begins scheduled refreshing. An empty schedule disables the
// scheduler without error.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("Refresh schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runRefresh(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Refresh scheduler started",
		"schedule", s.schedule,
		"concurrency", s.concurrency,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *RefreshScheduler) runRefresh(ctx context.Context) {
	s.logger.Info("Starting scheduled batch refresh")

	result := s.pool.BatchRefresh(ctx, s.concurrency)
	if result.Total == 0 {
		s.logger.Debug("Scheduled refresh found no refreshable entries")
		return
	}

	s.logger.Info("Scheduled batch refresh completed",
		"refreshed", result.Refreshed,
		"failed", result.Failed,
		"total", result.Total,
	)
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("Refresh scheduler stopped")
	}
}
