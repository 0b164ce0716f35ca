package router

import (
	"github.com/gin-gonic/gin"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers of the shipping ledger
type Handlers struct {
	PurchaseOrders   *handler.PurchaseOrderHandler
	Queries          *handler.ShippingQueryHandler
	PackingLists     *handler.PackingListHandler
	FactoryShipments *handler.FactoryShipmentHandler
	Arrivals         *handler.ArrivalHandler
	System           *handler.SystemHandler
}

// ShippingGroups builds the route groups served under /api/<version>
func ShippingGroups(h Handlers) []*DomainGroup {
	orders := NewDomainGroup("purchase-orders", "/purchase-orders").
		POST("", h.PurchaseOrders.Create).Describe("Create purchase order").
		GET("", h.PurchaseOrders.List).Describe("List purchase orders").
		GET("/:id", h.PurchaseOrders.GetByID).Describe("Get purchase order").
		PATCH("/:id/quantity", h.PurchaseOrders.UpdateOrderedQuantity).Describe("Change ordered quantity").
		GET("/:id/shipping-summary", h.Queries.GetShippingSummary).Describe("Shipping summary").
		GET("/:id/shipping-cost", h.Queries.GetShippingCost).Describe("Shipping cost").
		GET("/:id/delivery-status", h.Queries.GetDeliveryStatus).Describe("Delivery status").
		GET("/:id/movements", h.Queries.ListMovements).Describe("Movement history").
		GET("/:id/packing-list-items", h.Queries.ListPackingListItems).Describe("Packing list items of an order").
		GET("/:id/factory-shipments", h.FactoryShipments.ListByPurchaseOrder).Describe("List factory shipments").
		POST("/:id/factory-shipments", h.FactoryShipments.Record).Describe("Record factory shipment")

	shipments := NewDomainGroup("factory-shipments", "/factory-shipments").
		PUT("/:id", h.FactoryShipments.Update).Describe("Replace factory shipment").
		DELETE("/:id", h.FactoryShipments.Delete).Describe("Delete factory shipment")

	packingLists := NewDomainGroup("packing-lists", "/packing-lists").
		POST("", h.PackingLists.Create).Describe("Create packing list").
		GET("", h.PackingLists.List).Describe("List packing lists").
		GET("/:id", h.PackingLists.GetByID).Describe("Get packing list").
		PATCH("/:id", h.PackingLists.Update).Describe("Update packing list header").
		DELETE("/:id", h.PackingLists.Delete).Describe("Delete packing list").
		POST("/:id/items", h.PackingLists.CreateItem).Describe("Add packing list item")

	items := NewDomainGroup("packing-list-items", "/packing-list-items").
		PUT("/:id", h.PackingLists.UpdateItem).Describe("Replace packing list item").
		DELETE("/:id", h.PackingLists.DeleteItem).Describe("Delete packing list item").
		POST("/:id/arrivals", h.Arrivals.Record).Describe("Record Korea arrival").
		GET("/:id/arrivals", h.Arrivals.ListByItem).Describe("List Korea arrivals")

	arrivals := NewDomainGroup("korea-arrivals", "/korea-arrivals").
		PUT("/:id", h.Arrivals.Update).Describe("Correct Korea arrival").
		DELETE("/:id", h.Arrivals.Delete).Describe("Delete Korea arrival")

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).Describe("System information")

	return []*DomainGroup{orders, shipments, packingLists, items, arrivals, system}
}

// SetupShippingRoutes registers the health check, the versioned API and the
// not-found handler on engine. It returns the registered API routes.
func SetupShippingRoutes(engine *gin.Engine, h Handlers, opts ...RouterOption) []RouteInfo {
	engine.GET("/health", h.System.Health)

	opts = append(opts, WithNoRoute(h.System.NoRoute))
	r := NewRouter(engine, opts...)

	groups := ShippingGroups(h)
	var routes []RouteInfo
	for _, group := range groups {
		r.Register(group)
		routes = append(routes, group.Routes(r.BasePath())...)
	}
	r.Setup()
	return routes
}
