package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics tracks quantity ledger activity: mutations, rejections, retries and
// anomalies. All Record methods are safe to call on a nil receiver.
type LedgerMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	mutationsTotal        *Counter
	quantityRejectedTotal *Counter
	retriesTotal          *Counter
	replaysTotal          *Counter
	anomaliesDetected     *Counter
	mutationDuration      *Histogram

	// Gauge refreshed by the periodic collector
	ordersWithAnomalies *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	healthProvider LedgerHealthProvider
}

// LedgerHealthProvider reports ledger-wide anomaly counts for periodic collection.
// This lets the telemetry layer read ledger state without depending on the domain.
type LedgerHealthProvider interface {
	// CountOrdersWithAnomalies returns, per anomaly name, how many purchase orders show it
	CountOrdersWithAnomalies(ctx context.Context) (map[string]int64, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	HealthProvider LedgerHealthProvider
}

// NewLedgerMetrics creates a new LedgerMetrics instance.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		healthProvider: cfg.HealthProvider,
	}

	var err error
	if lm.mutationsTotal, err = NewCounter(cfg.Meter,
		"mj_ledger_mutations_total", "Committed quantity ledger mutations", "{mutations}"); err != nil {
		return nil, err
	}
	if lm.quantityRejectedTotal, err = NewCounter(cfg.Meter,
		"mj_ledger_quantity_rejected_total", "Packing list items rejected for exceeding the ordered quantity", "{items}"); err != nil {
		return nil, err
	}
	if lm.retriesTotal, err = NewCounter(cfg.Meter,
		"mj_ledger_retries_total", "Ledger transactions retried after a transient failure", "{retries}"); err != nil {
		return nil, err
	}
	if lm.replaysTotal, err = NewCounter(cfg.Meter,
		"mj_ledger_idempotent_replays_total", "Creates answered from an existing idempotency key", "{requests}"); err != nil {
		return nil, err
	}
	if lm.anomaliesDetected, err = NewCounter(cfg.Meter,
		"mj_ledger_anomalies_detected_total", "Quantity anomalies observed while serving requests", "{anomalies}"); err != nil {
		return nil, err
	}
	if lm.mutationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "mj_ledger_mutation_duration_seconds",
		Description: "Duration of ledger mutations including retries",
		Unit:        "s",
		Boundaries:  MutationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if lm.ordersWithAnomalies, err = NewGauge(cfg.Meter,
		"mj_ledger_orders_with_anomalies", "Purchase orders currently showing a quantity anomaly", "{orders}"); err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordMutation records a committed ledger mutation and its duration.
func (lm *LedgerMetrics) RecordMutation(ctx context.Context, operation string, d time.Duration) {
	if lm == nil {
		return
	}
	lm.mutationsTotal.Inc(ctx, AttrLedgerOperation.String(operation))
	lm.mutationDuration.RecordDuration(ctx, d, AttrLedgerOperation.String(operation))
}

// RecordQuantityRejected records an item rejected with QUANTITY_EXCEEDED.
func (lm *LedgerMetrics) RecordQuantityRejected(ctx context.Context, operation string) {
	if lm == nil {
		return
	}
	lm.quantityRejectedTotal.Inc(ctx, AttrLedgerOperation.String(operation))
}

// RecordRetry records a retried transaction and the error code that caused it.
func (lm *LedgerMetrics) RecordRetry(ctx context.Context, operation, code string) {
	if lm == nil {
		return
	}
	lm.retriesTotal.Inc(ctx, AttrLedgerOperation.String(operation), AttrErrorCode.String(code))
}

// RecordReplay records a create answered from an idempotency key.
func (lm *LedgerMetrics) RecordReplay(ctx context.Context) {
	if lm == nil {
		return
	}
	lm.replaysTotal.Inc(ctx)
}

// RecordAnomaly records an anomaly observed on a read or write path.
func (lm *LedgerMetrics) RecordAnomaly(ctx context.Context, anomaly string) {
	if lm == nil {
		return
	}
	lm.anomaliesDetected.Inc(ctx, AttrAnomaly.String(anomaly))
}

// StartPeriodicCollection starts refreshing the anomaly gauge every interval.
// This is non-blocking; use Stop() to stop collection.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if lm == nil {
		return
	}
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go lm.runPeriodicCollection(ctx, interval)
	})
}

func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.collectHealth(ctx)

	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			lm.logger.Info("Context cancelled, stopping periodic ledger metrics collection")
			return
		case <-ticker.C:
			lm.collectHealth(ctx)
		}
	}
}

func (lm *LedgerMetrics) collectHealth(ctx context.Context) {
	if lm.healthProvider == nil {
		lm.logger.Debug("No ledger health provider configured, skipping anomaly collection")
		return
	}

	counts, err := lm.healthProvider.CountOrdersWithAnomalies(ctx)
	if err != nil {
		lm.logger.Warn("Failed to count ledger anomalies", zap.Error(err))
		return
	}
	for anomaly, count := range counts {
		lm.ordersWithAnomalies.Record(ctx, count, AttrAnomaly.String(anomaly))
		if count > 0 {
			lm.logger.Warn("Purchase orders with quantity anomalies",
				zap.String("anomaly", anomaly),
				zap.Int64("orders", count),
			)
		}
	}
}

// Stop stops the periodic collection.
func (lm *LedgerMetrics) Stop() {
	if lm == nil {
		return
	}
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Ledger attribute keys
var (
	AttrLedgerOperation = attribute.Key("ledger.operation")
	AttrErrorCode       = attribute.Key("error.code")
	AttrAnomaly         = attribute.Key("ledger.anomaly")
)
