package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Statement classes reported on db metrics. Row lock acquisitions are split from plain
// selects so that purchase order lock waits can be watched on their own.
const (
	StatementSelect    = "SELECT"
	StatementLockRows  = "SELECT_FOR_UPDATE"
	StatementInsert    = "INSERT"
	StatementUpdate    = "UPDATE"
	StatementDelete    = "DELETE"
	StatementSet       = "SET"
	StatementOther     = "OTHER"
	dbInstrumentPlugin = "mj:db_instrumentation"
)

// DBConfig configures database tracing and metrics
type DBConfig struct {
	TraceEnabled      bool          // register otelgorm spans
	LogFullSQL        bool          // include query variables in spans (dev only)
	SlowQueryThresh   time.Duration // default 200ms
	PoolStatsInterval time.Duration // default 15s
	DBSystem          string        // default "postgresql"
}

// DefaultDBConfig returns the secure defaults: no tracing, variables hidden
func DefaultDBConfig() DBConfig {
	return DBConfig{
		SlowQueryThresh:   200 * time.Millisecond,
		PoolStatsInterval: 15 * time.Second,
		DBSystem:          "postgresql",
	}
}

// DBInstrumentation is a gorm plugin that times every statement, feeds query metrics,
// tags the active span and optionally registers otelgorm.
type DBInstrumentation struct {
	config DBConfig
	logger *zap.Logger

	queryTotal      *Counter
	queryErrors     *Counter
	slowQueryTotal  *Counter
	queryDuration   *Histogram
	lockWait        *Histogram
	poolConnections *Gauge

	mu       sync.RWMutex
	sqlDB    *sql.DB
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBInstrumentation creates the plugin. A nil meter disables metrics; spans are still
// annotated when tracing is enabled.
func NewDBInstrumentation(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultDBConfig()
	if cfg.SlowQueryThresh == 0 {
		cfg.SlowQueryThresh = defaults.SlowQueryThresh
	}
	if cfg.PoolStatsInterval == 0 {
		cfg.PoolStatsInterval = defaults.PoolStatsInterval
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = defaults.DBSystem
	}

	d := &DBInstrumentation{
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	if meter == nil {
		return d, nil
	}

	var err error
	if d.queryTotal, err = NewCounter(meter, "db_query_total", "Database statements by class", "{query}"); err != nil {
		return nil, err
	}
	if d.queryErrors, err = NewCounter(meter, "db_query_errors_total", "Failed database statements by class", "{query}"); err != nil {
		return nil, err
	}
	if d.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Statements slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	if d.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if d.lockWait, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_row_lock_wait_seconds",
		Description: "Time spent acquiring row locks with SELECT ... FOR UPDATE",
		Unit:        "s",
		Boundaries:  LockWaitBuckets,
	}); err != nil {
		return nil, err
	}
	if d.poolConnections, err = NewGauge(meter, "db_pool_connections", "Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	return d, nil
}

// Name implements gorm.Plugin
func (d *DBInstrumentation) Name() string {
	return dbInstrumentPlugin
}

// Initialize implements gorm.Plugin
func (d *DBInstrumentation) Initialize(db *gorm.DB) error {
	if d.config.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(d.config.DBSystem)}
		if !d.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		d.mu.Lock()
		d.sqlDB = sqlDB
		d.mu.Unlock()
	}

	cb := db.Callback()
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("mj_db:before_create", d.before),
		cb.Create().After("gorm:create").Register("mj_db:after_create", d.after),
		cb.Query().Before("gorm:query").Register("mj_db:before_query", d.before),
		cb.Query().After("gorm:query").Register("mj_db:after_query", d.after),
		cb.Update().Before("gorm:update").Register("mj_db:before_update", d.before),
		cb.Update().After("gorm:update").Register("mj_db:after_update", d.after),
		cb.Delete().Before("gorm:delete").Register("mj_db:before_delete", d.before),
		cb.Delete().After("gorm:delete").Register("mj_db:after_delete", d.after),
		cb.Row().Before("gorm:row").Register("mj_db:before_row", d.before),
		cb.Row().After("gorm:row").Register("mj_db:after_row", d.after),
		cb.Raw().Before("gorm:raw").Register("mj_db:before_raw", d.before),
		cb.Raw().After("gorm:raw").Register("mj_db:after_raw", d.after),
	); err != nil {
		return err
	}

	d.logger.Info("Database instrumentation registered",
		zap.Bool("tracing", d.config.TraceEnabled),
		zap.Bool("log_full_sql", d.config.LogFullSQL),
		zap.Duration("slow_query_threshold", d.config.SlowQueryThresh),
	)
	return nil
}

type dbStartKey struct{}

func (d *DBInstrumentation) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, dbStartKey{}, time.Now())
}

func (d *DBInstrumentation) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	var elapsed time.Duration
	if start, ok := ctx.Value(dbStartKey{}).(time.Time); ok {
		elapsed = time.Since(start)
	}
	class := ClassifyStatement(db.Statement.SQL.String())
	failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)
	slow := elapsed > d.config.SlowQueryThresh

	if d.queryTotal != nil {
		opAttr := AttrDBOperation.String(class)
		d.queryTotal.Inc(ctx, opAttr)
		d.queryDuration.RecordDuration(ctx, elapsed, opAttr)
		if failed {
			d.queryErrors.Inc(ctx, opAttr)
		}
		if slow {
			d.slowQueryTotal.Inc(ctx, AttrDBTable.String(tableOrUnknown(db.Statement.Table)))
		}
		if class == StatementLockRows {
			d.lockWait.RecordDuration(ctx, elapsed, AttrDBTable.String(tableOrUnknown(db.Statement.Table)))
		}
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.String("db.statement.class", class))
	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if failed {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if class == StatementLockRows {
		span.AddEvent("row_lock_acquired", trace.WithAttributes(
			attribute.Int64("wait_ms", elapsed.Milliseconds()),
		))
	}
	if slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", d.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

// StartPoolStatsCollection records pool stats every PoolStatsInterval until Stop or ctx ends
func (d *DBInstrumentation) StartPoolStatsCollection(ctx context.Context) {
	d.mu.RLock()
	sqlDB := d.sqlDB
	d.mu.RUnlock()
	if sqlDB == nil || d.poolConnections == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.config.PoolStatsInterval)
		defer ticker.Stop()

		d.collectPoolStats(ctx, sqlDB)
		for {
			select {
			case <-ticker.C:
				d.collectPoolStats(ctx, sqlDB)
			case <-d.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (d *DBInstrumentation) collectPoolStats(ctx context.Context, sqlDB *sql.DB) {
	stats := sqlDB.Stats()
	d.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	d.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	d.poolConnections.Record(ctx, int64(stats.MaxOpenConnections), AttrDBState.String("max"))
}

// Stop ends pool stats collection. Safe to call more than once.
func (d *DBInstrumentation) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.wg.Wait()
	})
}

// ClassifyStatement maps a SQL statement to one of the Statement* classes
func ClassifyStatement(sql string) string {
	s := strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case strings.HasPrefix(s, "SELECT"):
		if strings.Contains(s, " FOR UPDATE") {
			return StatementLockRows
		}
		return StatementSelect
	case strings.HasPrefix(s, "INSERT"):
		return StatementInsert
	case strings.HasPrefix(s, "UPDATE"):
		return StatementUpdate
	case strings.HasPrefix(s, "DELETE"):
		return StatementDelete
	case strings.HasPrefix(s, "SET"):
		return StatementSet
	default:
		return StatementOther
	}
}

func tableOrUnknown(table string) string {
	if table == "" {
		return "unknown"
	}
	return table
}
