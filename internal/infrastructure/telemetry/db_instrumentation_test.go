package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type lockedRow struct {
	ID       uint `gorm:"primaryKey"`
	Quantity int64
}

func openInstrumentedDB(t *testing.T, cfg DBConfig) (*gorm.DB, *sdkmetric.ManualReader, *DBInstrumentation) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&lockedRow{}))

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	inst, err := NewDBInstrumentation(meter, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Use(inst))
	t.Cleanup(inst.Stop)
	return db, reader, inst
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestClassifyStatement(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{`SELECT * FROM "purchase_orders" WHERE id = $1`, StatementSelect},
		{`SELECT * FROM "purchase_orders" WHERE id = $1 LIMIT 1 FOR UPDATE`, StatementLockRows},
		{`  insert into packing_list_items values (1)`, StatementInsert},
		{`UPDATE purchase_orders SET version = 2`, StatementUpdate},
		{`DELETE FROM korea_arrivals`, StatementDelete},
		{`SET LOCAL lock_timeout = '5000ms'`, StatementSet},
		{`WITH x AS (SELECT 1) SELECT * FROM x`, StatementOther},
		{``, StatementOther},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatement(tt.sql))
		})
	}
}

func TestNewDBInstrumentation_Defaults(t *testing.T) {
	inst, err := NewDBInstrumentation(nil, DBConfig{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, inst.config.SlowQueryThresh)
	assert.Equal(t, 15*time.Second, inst.config.PoolStatsInterval)
	assert.Equal(t, "postgresql", inst.config.DBSystem)
	assert.False(t, inst.config.TraceEnabled)
	assert.Nil(t, inst.queryTotal)
	assert.Equal(t, dbInstrumentPlugin, inst.Name())
}

func TestDBInstrumentation_CountsStatements(t *testing.T) {
	db, reader, _ := openInstrumentedDB(t, DBConfig{})

	require.NoError(t, db.Create(&lockedRow{Quantity: 10}).Error)
	var row lockedRow
	require.NoError(t, db.First(&row).Error)
	require.NoError(t, db.Model(&row).Update("quantity", 20).Error)

	metrics := collect(t, reader)
	require.Contains(t, metrics, "db_query_total")
	sum, ok := metrics["db_query_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byOp := map[string]int64{}
	for _, dp := range sum.DataPoints {
		op, _ := dp.Attributes.Value(AttrDBOperation)
		byOp[op.AsString()] += dp.Value
	}
	assert.GreaterOrEqual(t, byOp[StatementInsert], int64(1))
	assert.GreaterOrEqual(t, byOp[StatementSelect], int64(1))
	assert.GreaterOrEqual(t, byOp[StatementUpdate], int64(1))
	assert.Contains(t, metrics, "db_query_duration_seconds")
}

func TestDBInstrumentation_SlowQueryAnnotatesSpan(t *testing.T) {
	db, reader, _ := openInstrumentedDB(t, DBConfig{SlowQueryThresh: time.Nanosecond})

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	ctx, span := tp.Tracer("test").Start(context.Background(), "ledger")

	require.NoError(t, db.WithContext(ctx).Create(&lockedRow{Quantity: 1}).Error)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	var slow bool
	for _, ev := range ended[0].Events() {
		if ev.Name == "slow_query_warning" {
			slow = true
		}
	}
	assert.True(t, slow)

	metrics := collect(t, reader)
	assert.Contains(t, metrics, "db_slow_query_total")
}

func TestDBInstrumentation_StopIsIdempotent(t *testing.T) {
	_, _, inst := openInstrumentedDB(t, DBConfig{PoolStatsInterval: time.Millisecond})
	inst.StartPoolStatsCollection(context.Background())
	time.Sleep(5 * time.Millisecond)

	assert.NotPanics(t, func() {
		inst.Stop()
		inst.Stop()
	})
}
