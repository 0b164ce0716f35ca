package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	assert.Len(t, r.registrars, 1)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterWithNoRoute(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithNoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "nothing here")
	})).Setup()

	w := serve(engine, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "nothing here", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("purchase-orders", "/purchase-orders")
		assert.Equal(t, "purchase-orders", g.Name())
		assert.Equal(t, "/purchase-orders", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g := NewDomainGroup("test", "/test").
			GET("/items", ok).
			POST("/items", ok).
			PUT("/items/:id", ok).
			PATCH("/items/:id", ok).
			DELETE("/items/:id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
		}{
			{http.MethodGet, "/api/v1/test/items"},
			{http.MethodPost, "/api/v1/test/items"},
			{http.MethodPut, "/api/v1/test/items/123"},
			{http.MethodPatch, "/api/v1/test/items/123"},
			{http.MethodDelete, "/api/v1/test/items/123"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "route %s %s", tt.method, tt.path)
			assert.Equal(t, tt.method, w.Body.String())
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/test/items")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("packing-lists", "/packing-lists")
		g.Group("items", "/items").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "items list")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/packing-lists/items")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "items list", w.Body.String())
	})
}

func TestDomainGroupRoutes(t *testing.T) {
	noop := func(*gin.Context) {}
	g := NewDomainGroup("packing-lists", "/packing-lists").
		POST("", noop).Describe("Create").
		GET("/:id", noop)
	g.Group("items", "/items").DELETE("/:id", noop).Describe("Delete item")

	routes := g.Routes("/api/v1")
	require.Len(t, routes, 3)
	assert.Equal(t, RouteInfo{Method: http.MethodPost, Path: "/api/v1/packing-lists", Description: "Create"}, routes[0])
	assert.Equal(t, RouteInfo{Method: http.MethodGet, Path: "/api/v1/packing-lists/:id"}, routes[1])
	assert.Equal(t, RouteInfo{Method: http.MethodDelete, Path: "/api/v1/packing-lists/items/:id", Description: "Delete item"}, routes[2])
}

func TestDescribeWithoutRoutes(t *testing.T) {
	g := NewDomainGroup("empty", "/empty").Describe("ignored")
	assert.Empty(t, g.Routes(""))
}

func testHandlers() Handlers {
	return Handlers{
		PurchaseOrders:   handler.NewPurchaseOrderHandler(nil, nil),
		Queries:          handler.NewShippingQueryHandler(nil, nil),
		PackingLists:     handler.NewPackingListHandler(nil, nil),
		FactoryShipments: handler.NewFactoryShipmentHandler(nil),
		Arrivals:         handler.NewArrivalHandler(nil),
		System:           handler.NewSystemHandler(nil, "mj-shipping-ledger", "test"),
	}
}

func TestSetupShippingRoutes(t *testing.T) {
	engine := gin.New()
	routes := SetupShippingRoutes(engine, testHandlers())

	registered := make(map[string]bool)
	for _, info := range engine.Routes() {
		registered[info.Method+" "+info.Path] = true
	}

	expected := []string{
		"GET /health",
		"POST /api/v1/purchase-orders",
		"GET /api/v1/purchase-orders",
		"GET /api/v1/purchase-orders/:id",
		"PATCH /api/v1/purchase-orders/:id/quantity",
		"GET /api/v1/purchase-orders/:id/shipping-summary",
		"GET /api/v1/purchase-orders/:id/shipping-cost",
		"GET /api/v1/purchase-orders/:id/delivery-status",
		"GET /api/v1/purchase-orders/:id/movements",
		"GET /api/v1/purchase-orders/:id/packing-list-items",
		"GET /api/v1/purchase-orders/:id/factory-shipments",
		"POST /api/v1/purchase-orders/:id/factory-shipments",
		"PUT /api/v1/factory-shipments/:id",
		"DELETE /api/v1/factory-shipments/:id",
		"POST /api/v1/packing-lists",
		"GET /api/v1/packing-lists",
		"GET /api/v1/packing-lists/:id",
		"PATCH /api/v1/packing-lists/:id",
		"DELETE /api/v1/packing-lists/:id",
		"POST /api/v1/packing-lists/:id/items",
		"PUT /api/v1/packing-list-items/:id",
		"DELETE /api/v1/packing-list-items/:id",
		"POST /api/v1/packing-list-items/:id/arrivals",
		"GET /api/v1/packing-list-items/:id/arrivals",
		"PUT /api/v1/korea-arrivals/:id",
		"DELETE /api/v1/korea-arrivals/:id",
		"GET /api/v1/system/info",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}

	// /health is outside the versioned API
	assert.Len(t, routes, len(expected)-1)
	for _, route := range routes {
		assert.NotEmpty(t, route.Description, "%s %s", route.Method, route.Path)
	}
}

func TestSetupShippingRoutes_NoRouteAndBadID(t *testing.T) {
	engine := gin.New()
	SetupShippingRoutes(engine, testHandlers())

	w := serve(engine, http.MethodGet, "/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ROUTE_NOT_FOUND")

	// ID parsing fails before any service is touched
	w = serve(engine, http.MethodGet, "/api/v1/purchase-orders/not-a-uuid/shipping-summary")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid purchase order ID format")
}
