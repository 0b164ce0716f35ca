package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/logger"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ledgerRunner runs ledger transactions with retry, metrics and logging.
// Services embed it to share one way of mutating the ledger.
type ledgerRunner struct {
	scope   LedgerScope
	retry   RetryPolicy
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

func newLedgerRunner(scope LedgerScope, logger *zap.Logger) ledgerRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return ledgerRunner{
		scope:  scope,
		retry:  DefaultRetryPolicy(),
		logger: logger,
	}
}

// SetRetryPolicy sets the policy for retrying transient failures
func (r *ledgerRunner) SetRetryPolicy(policy RetryPolicy) {
	r.retry = policy
}

// SetLedgerMetrics sets the ledger metrics collector
func (r *ledgerRunner) SetLedgerMetrics(lm *telemetry.LedgerMetrics) {
	r.metrics = lm
}

// run executes fn in a fresh transaction per attempt, retrying transient failures
func (r *ledgerRunner) run(ctx context.Context, op string, fn func(repos LedgerRepositories) error) error {
	start := time.Now()
	err := r.retry.Do(ctx, func() error {
		return r.scope.Execute(ctx, fn)
	}, func(err error, wait time.Duration) {
		r.metrics.RecordRetry(ctx, op, shared.CodeOf(err))
		r.log(ctx).Warn("Retrying ledger transaction",
			zap.String("operation", op),
			zap.String("code", shared.CodeOf(err)),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		var exceeded *shipping.QuantityExceededError
		if errors.As(err, &exceeded) {
			r.metrics.RecordQuantityRejected(ctx, op)
		}
		return err
	}
	r.metrics.RecordMutation(ctx, op, time.Since(start))
	return nil
}

// log returns the runner logger enriched with the request correlation fields of ctx
func (r *ledgerRunner) log(ctx context.Context) *zap.Logger {
	return logger.For(ctx, r.logger)
}
