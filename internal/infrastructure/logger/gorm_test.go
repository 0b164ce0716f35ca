package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

const lockSQL = `SELECT * FROM "purchase_orders" WHERE id = $1 FOR UPDATE`

func observedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func statement(rows int64) func() (string, int64) {
	return func() (string, int64) { return lockSQL, rows }
}

func TestNewGormLogger_Defaults(t *testing.T) {
	l, _ := observedGorm(gormlogger.Warn)
	assert.Equal(t, gormlogger.Warn, l.level)
	assert.Equal(t, defaultSlowQuery, l.slowQuery)

	l, _ = observedGorm(gormlogger.Warn, WithSlowThreshold(time.Second))
	assert.Equal(t, time.Second, l.slowQuery)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	l, _ := observedGorm(gormlogger.Info)
	quiet, ok := l.LogMode(gormlogger.Silent).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Silent, quiet.level)
	assert.Equal(t, gormlogger.Info, l.level)
}

func TestGormLogger_Messages(t *testing.T) {
	l, recorded := observedGorm(gormlogger.Warn)
	ctx := WithRequestID(context.Background(), "req-7")

	l.Info(ctx, "migrated %d tables", 5)
	l.Warn(ctx, "pool at %d%%", 90)
	l.Error(ctx, "dial %s failed", "db:5432")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "pool at 90%", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, "dial db:5432 failed", logs[1].Message)
	assert.Equal(t, "req-7", logs[1].ContextMap()["request_id"])
}

func TestGormLogger_Trace(t *testing.T) {
	lockTimeout := &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}
	deadlock := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	uniqueViolation := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}

	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		want    string
		wantLvl zapcore.Level
	}{
		{"statement at info", gormlogger.Info, 0, nil, "SQL", zapcore.DebugLevel},
		{"statement hidden at warn", gormlogger.Warn, 0, nil, "", 0},
		{"slow statement", gormlogger.Warn, time.Second, nil, "Slow SQL", zapcore.WarnLevel},
		{"constraint error", gormlogger.Error, 0, uniqueViolation, "SQL error", zapcore.ErrorLevel},
		{"lock timeout", gormlogger.Error, 0, lockTimeout, "SQL aborted", zapcore.WarnLevel},
		{"deadlock", gormlogger.Error, 0, errors.Join(errors.New("tx"), deadlock), "SQL aborted", zapcore.WarnLevel},
		{"cancelled", gormlogger.Error, 0, context.Canceled, "SQL aborted", zapcore.WarnLevel},
		{"record not found", gormlogger.Info, 0, gormlogger.ErrRecordNotFound, "", 0},
		{"silent", gormlogger.Silent, time.Second, uniqueViolation, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, recorded := observedGorm(tt.level)
			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), statement(1), tt.err)

			logs := recorded.All()
			if tt.want == "" {
				assert.Empty(t, logs)
				return
			}
			require.Len(t, logs, 1)
			assert.Equal(t, tt.want, logs[0].Message)
			assert.Equal(t, tt.wantLvl, logs[0].Level)
			assert.Equal(t, lockSQL, logs[0].ContextMap()["sql"])
		})
	}
}

func TestGormLogger_TraceCarriesCorrelationFields(t *testing.T) {
	l, recorded := observedGorm(gormlogger.Info)
	ctx := WithIdempotencyKey(WithRequestID(context.Background(), "req-9"), "pl-item-42")

	l.Trace(ctx, time.Now(), statement(3), nil)

	require.Len(t, recorded.All(), 1)
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "pl-item-42", fields["idempotency_key"])
	assert.Equal(t, int64(3), fields["rows"])
}

func TestGormLogger_SlowThresholdDisabled(t *testing.T) {
	l, recorded := observedGorm(gormlogger.Warn, WithSlowThreshold(0))
	l.Trace(context.Background(), time.Now().Add(-time.Hour), statement(0), nil)
	assert.Empty(t, recorded.All())
}

func TestMapGormLogLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"debug":   gormlogger.Info,
		"verbose": gormlogger.Warn,
		"":        gormlogger.Warn,
	}
	for name, want := range cases {
		assert.Equal(t, want, MapGormLogLevel(name), "level %q", name)
	}
}
