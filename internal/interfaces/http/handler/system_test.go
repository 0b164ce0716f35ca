package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/dto"
)

type fakePinger struct {
	err      error
	deadline bool
}

func (p *fakePinger) Ping(ctx context.Context) error {
	_, p.deadline = ctx.Deadline()
	return p.err
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		status   int
		expected HealthResponse
	}{
		{"database reachable", nil, http.StatusOK, HealthResponse{Status: "healthy", Database: "ok"}},
		{"database down", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Database: "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pinger := &fakePinger{err: tt.pingErr}
			h := NewSystemHandler(pinger, "mj-shipping-ledger", "test")

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
			h.Health(c)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, pinger.deadline)

			var body HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expected.Status, body.Status)
			assert.Equal(t, tt.expected.Database, body.Database)
			_, err := time.Parse(time.RFC3339, body.Time)
			assert.NoError(t, err)
		})
	}
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler(&fakePinger{}, "mj-shipping-ledger", "1.2.3")
	assert.False(t, h.startTime.IsZero())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool               `json:"success"`
		Data    SystemInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "mj-shipping-ledger", resp.Data.Name)
	assert.Equal(t, "1.2.3", resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
	assert.NotEmpty(t, resp.Data.Uptime)
}

func TestSystemHandler_NoRoute(t *testing.T) {
	h := NewSystemHandler(&fakePinger{}, "mj-shipping-ledger", "test")
	engine := gin.New()
	engine.NoRoute(h.NoRoute)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRouteNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "DELETE /api/v1/nowhere")
}
