package shipping

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"go.uber.org/zap/zaptest"
)

// scriptedScope fails Execute with the queued errors before letting fn run
type scriptedScope struct {
	failures []error
	calls    int
}

func (s *scriptedScope) Execute(ctx context.Context, fn func(repos LedgerRepositories) error) error {
	s.calls++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return err
	}
	return fn(nil)
}

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestRunner_RetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"lock timeout", fmt.Errorf("%w: canceling statement", shared.ErrLockTimeout)},
		{"deadlock", shared.ErrDeadlock},
		{"version conflict", shared.ErrConcurrencyConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := &scriptedScope{failures: []error{tt.err, tt.err}}
			runner := newLedgerRunner(scope, zaptest.NewLogger(t))
			runner.SetRetryPolicy(fastRetry(3))

			ran := false
			err := runner.run(context.Background(), opCreateItem, func(LedgerRepositories) error {
				ran = true
				return nil
			})
			require.NoError(t, err)
			assert.True(t, ran)
			assert.Equal(t, 3, scope.calls)
		})
	}
}

func TestRunner_GivesUpAfterMaxAttempts(t *testing.T) {
	scope := &scriptedScope{failures: []error{shared.ErrLockTimeout, shared.ErrLockTimeout, shared.ErrLockTimeout}}
	runner := newLedgerRunner(scope, nil)
	runner.SetRetryPolicy(fastRetry(3))

	err := runner.run(context.Background(), opCreateItem, func(LedgerRepositories) error { return nil })
	assert.ErrorIs(t, err, shared.ErrLockTimeout)
	assert.Equal(t, 3, scope.calls)
}

func TestRunner_DoesNotRetryBusinessErrors(t *testing.T) {
	scope := &scriptedScope{}
	runner := newLedgerRunner(scope, nil)
	runner.SetRetryPolicy(fastRetry(5))

	exceeded := &shipping.QuantityExceededError{PurchaseOrderID: uuid.New(), OrderedQuantity: 500, AlreadyShipped: 500, Requested: 1}
	err := runner.run(context.Background(), opCreateItem, func(LedgerRepositories) error { return exceeded })

	var got *shipping.QuantityExceededError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, int64(0), got.Available())
	assert.Equal(t, 1, scope.calls)
}

func TestRunner_SingleAttemptPolicy(t *testing.T) {
	scope := &scriptedScope{failures: []error{shared.ErrDeadlock}}
	runner := newLedgerRunner(scope, nil)
	runner.SetRetryPolicy(RetryPolicy{MaxAttempts: 1})

	err := runner.run(context.Background(), opDeleteItem, func(LedgerRepositories) error { return nil })
	assert.ErrorIs(t, err, shared.ErrDeadlock)
	assert.Equal(t, 1, scope.calls)
}

func TestRunner_StopsOnCancelledContext(t *testing.T) {
	scope := &scriptedScope{failures: []error{shared.ErrLockTimeout, shared.ErrLockTimeout, shared.ErrLockTimeout}}
	runner := newLedgerRunner(scope, nil)
	runner.SetRetryPolicy(RetryPolicy{MaxAttempts: 3, InitialInterval: time.Hour, MaxInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runner.run(ctx, opCreateItem, func(LedgerRepositories) error { return nil })
	require.Error(t, err)
	assert.Equal(t, 1, scope.calls)
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, p.InitialInterval)
	assert.Equal(t, time.Second, p.MaxInterval)
}
