package credential

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"z2api-hq/z2api/pkg/telemetry/logging"
)

// RecoveryLoop periodically re-probes failed credentials, attempts
// re-authentication for those still failing, and permanently evicts
// credentials that remain unusable after a refresh.
type RecoveryLoop struct {
	pool          *Pool
	logger        *slog.Logger
	interval      time.Duration
	retryInterval time.Duration
}

// NewRecoveryLoop builds a loop over pool. interval is the normal cycle
// period; retryInterval is the shortened sleep used after a cycle fails
// unexpectedly.
func NewRecoveryLoop(pool *Pool, interval, retryInterval time.Duration, logger *slog.Logger) *RecoveryLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryLoop{
		pool:          pool,
		logger:        logger,
		interval:      interval,
		retryInterval: retryInterval,
	}
}

// Run executes recovery cycles until ctx is cancelled. Each iteration
// evaluates the failed set first and sleeps after, so the first cycle runs
// immediately on start. A fault inside one cycle never terminates the
// loop; it degrades to the retry interval.
func (l *RecoveryLoop) Run(ctx context.Context) {
	l.logger.Info("Credential recovery loop started",
		"interval", l.interval,
		"retry_interval", l.retryInterval,
	)

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		wait := l.interval
		if err := l.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Credential recovery loop stopped")
				return
			}
			l.logger.Error("Recovery cycle failed", "error", err)
			wait = l.retryInterval
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			l.logger.Info("Credential recovery loop stopped")
			return
		case <-timer.C:
		}
	}
}

// runCycle processes one snapshot of the failed set. Panics are converted
// to errors so the caller can apply the retry interval.
func (l *RecoveryLoop) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovery cycle panic: %v", r)
		}
	}()

	failed := l.pool.failedSnapshot()
	if len(failed) == 0 {
		return nil
	}

	l.logger.Info("Running recovery for failed credentials",
		"failed", len(failed),
	)

	var toEvict []string
	for _, entry := range failed {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		token := entry.EffectiveToken()
		if token != "" && l.pool.HealthCheck(ctx, token) {
			l.pool.MarkSuccess(token)
			continue
		}

		if !entry.HasCredentials() {
			l.logger.Warn("Failed credential has no recovery path, evicting",
				"entry", logging.Token(entry.Raw()),
			)
			toEvict = append(toEvict, entry.Raw())
			continue
		}

		res := l.pool.RefreshSingle(ctx, entry.Raw())
		if !res.Success {
			l.logger.Warn("Recovery refresh failed, evicting",
				"email", logging.Email(entry.Email()),
				"reason", res.Message,
			)
			toEvict = append(toEvict, entry.Raw())
			continue
		}

		if !l.pool.HealthCheck(ctx, res.Token) {
			// The refreshed entry replaced the old one in place; evict
			// it by its new raw form.
			newRaw := NewComposite(entry.Email(), entry.Password(), res.Token).Raw()
			l.logger.Warn("Refreshed credential still unhealthy, evicting",
				"email", logging.Email(entry.Email()),
			)
			toEvict = append(toEvict, newRaw)
		}
	}

	l.pool.evict(toEvict)
	return nil
}
