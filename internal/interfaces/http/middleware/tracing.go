// Package middleware provides the gin middleware of the shipping ledger API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxIdempotencyKeyLength caps the idempotency key recorded on spans
const MaxIdempotencyKeyLength = 128

// errorCodeKey holds the API error code written for the request
const errorCodeKey = "ledger_error_code"

// Span attribute keys set by the ledger middleware
var (
	spanAttrRequestID      = attribute.Key("request_id")
	spanAttrIdempotencyKey = attribute.Key("idempotency_key")
	spanAttrErrorCode      = attribute.Key("ledger.error_code")
	spanAttrStatusCode     = attribute.Key("http.status_code")
)

// TracingConfig configures the otelgin server spans
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

func DefaultTracingConfig() TracingConfig {
	return TracingConfig{ServiceName: "mj-shipping-ledger", Enabled: true}
}

// Tracing is TracingWithConfig(DefaultTracingConfig())
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig starts one server span per request named "METHOD route", for example
// "POST /api/v1/packing-lists/:id/items".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector copies the request ID and Idempotency-Key onto the server span.
// It must run after RequestID and TracingWithConfig.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(spanAttrRequestID.String(id))
			}
			if key := c.GetHeader(logger.IdempotencyHeader); key != "" {
				span.SetAttributes(spanAttrIdempotencyKey.String(truncate(key, MaxIdempotencyKeyLength)))
			}
		}
		c.Next()
	}
}

// SpanErrorMarker sets an error status on the server span of every 4xx and 5xx response,
// tagging it with the API error code and the errors attached to the gin context.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		status := c.Writer.Status()
		if !span.IsRecording() || status < http.StatusBadRequest {
			return
		}

		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(spanAttrStatusCode.Int(status))
		if code := ErrorCode(c); code != "" {
			span.SetAttributes(spanAttrErrorCode.String(code))
		}
		for _, e := range c.Errors {
			span.RecordError(e.Err)
		}
	}
}

// SetErrorCode records the API error code of the response being written
func SetErrorCode(c *gin.Context, code string) {
	c.Set(errorCodeKey, code)
}

// ErrorCode returns the code recorded by SetErrorCode
func ErrorCode(c *gin.Context) string {
	return c.GetString(errorCodeKey)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
