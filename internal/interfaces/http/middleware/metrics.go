package middleware

import (
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// attrHTTPStatusClass groups status codes (2xx, 4xx, ...) for error-rate queries
var attrHTTPStatusClass = attribute.Key("http.status_class")

// Body size buckets in bytes. Ledger payloads are small JSON documents; list responses
// can reach a few megabytes.
var (
	requestSizeBuckets  = []float64{100, 500, 1_000, 5_000, 10_000, 50_000, 100_000, 500_000, 1_000_000}
	responseSizeBuckets = []float64{100, 500, 1_000, 5_000, 10_000, 50_000, 100_000, 500_000, 1_000_000, 5_000_000}
)

// HTTPMetricsConfig configures the request metrics middleware
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	ServiceName   string
	Enabled       bool
	Logger        *zap.Logger // optional, reports instrument setup failures
}

func DefaultHTTPMetricsConfig() HTTPMetricsConfig {
	return HTTPMetricsConfig{ServiceName: "mj-shipping-ledger", Enabled: true}
}

type httpInstruments struct {
	requests     *telemetry.Counter
	duration     *telemetry.Histogram
	requestSize  *telemetry.Histogram
	responseSize *telemetry.Histogram
	inFlight     metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var (
		in  httpInstruments
		err error
	)
	if in.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}"); err != nil {
		return nil, err
	}
	histograms := []struct {
		dst  **telemetry.Histogram
		opts telemetry.HistogramOpts
	}{
		{&in.duration, telemetry.HistogramOpts{
			Name: "http_server_request_duration_seconds", Description: "HTTP request latency in seconds",
			Unit: "s", Boundaries: telemetry.HTTPDurationBuckets,
		}},
		{&in.requestSize, telemetry.HistogramOpts{
			Name: "http_server_request_size_bytes", Description: "HTTP request body size in bytes",
			Unit: "By", Boundaries: requestSizeBuckets,
		}},
		{&in.responseSize, telemetry.HistogramOpts{
			Name: "http_server_response_size_bytes", Description: "HTTP response body size in bytes",
			Unit: "By", Boundaries: responseSizeBuckets,
		}},
	}
	for _, h := range histograms {
		if *h.dst, err = telemetry.NewHistogram(meter, h.opts); err != nil {
			return nil, err
		}
	}
	if in.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of HTTP requests being served"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return &in, nil
}

func passThrough(c *gin.Context) {
	c.Next()
}

// HTTPMetrics records per-request metrics on the provider's "http.server" meter:
// http_server_request_total by method, route, status code and status class,
// latency and body size histograms by method and route, and the in-flight gauge.
// It passes requests through untouched when metrics are disabled.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	in, err := newHTTPInstruments(cfg.MeterProvider.Meter("http.server"))
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}
	return in.middleware
}

// HTTPMetricsWithMeter is HTTPMetrics on an existing meter
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	in, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}
	return in.middleware
}

func (in *httpInstruments) middleware(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()
	reqSize := getRequestSize(c)

	in.inFlight.Add(ctx, 1)
	c.Next()
	in.inFlight.Add(ctx, -1)

	status := c.Writer.Status()
	// histograms skip the status to keep cardinality low
	route := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(routePattern(c)),
	}
	in.requests.Inc(ctx, slices.Concat(route, []attribute.KeyValue{
		telemetry.AttrHTTPStatusCode.Int(status),
		attrHTTPStatusClass.String(HTTPMetricsStatusGroup(status)),
	})...)
	in.duration.RecordDuration(ctx, time.Since(start), route...)
	if reqSize > 0 {
		in.requestSize.Record(ctx, float64(reqSize), route...)
	}
	if size := c.Writer.Size(); size > 0 {
		in.responseSize.Record(ctx, float64(size), route...)
	}
}

// routePattern returns the matched route (e.g. "/api/v1/purchase-orders/:id") so IDs never
// become label values
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func getRequestSize(c *gin.Context) int64 {
	return max(c.Request.ContentLength, 0)
}

// HTTPMetricsStatusGroup returns the status class of a response code
func HTTPMetricsStatusGroup(statusCode int) string {
	switch statusCode / 100 {
	case 2:
		return "2xx"
	case 3:
		return "3xx"
	case 4:
		return "4xx"
	case 5:
		return "5xx"
	}
	return "other"
}
