package service

import (
	"context"
	"time"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/cenkalti/backoff/v4"
)

// retryOnConflict re-runs fn while it fails with a concurrency conflict.
// fn must be a whole unit of work so a retry starts from a fresh transaction.
func (p ServiceParams) retryOnConflict(ctx context.Context, operation string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	if d := p.Config.Ledger.RetryInitialInterval; d > 0 {
		b.InitialInterval = d
		b.MaxInterval = 10 * d
	}
	b.MaxElapsedTime = 5 * time.Second

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !ierr.IsConcurrencyConflict(err) {
			return backoff.Permanent(err)
		}

		p.Metrics.ConflictRetries.WithLabelValues(operation).Inc()
		p.Logger.Warnw("concurrency conflict, retrying",
			"operation", operation,
			"attempt", attempt,
			"error", err,
		)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.Config.Ledger.MaxRetries), ctx))
}

// publish emits a ledger event after commit. Failures are logged and never surface.
func (p ServiceParams) publish(ctx context.Context, eventName, entityID string, version int, payload interface{}) {
	if p.EventPublisher == nil {
		return
	}
	if err := p.EventPublisher.Publish(ctx, eventName, entityID, version, payload); err != nil {
		p.Logger.Errorw("failed to publish ledger event",
			"event_name", eventName,
			"entity_id", entityID,
			"error", err,
		)
		p.Sentry.CaptureException(err)
	}
}
