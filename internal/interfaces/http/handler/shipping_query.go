package handler

import (
	"github.com/gin-gonic/gin"
	shippingapp "github.com/venpus/mjshop-sub003/internal/application/shipping"
)

// ShippingQueryHandler serves the derived per-order views: summary, cost, delivery
// status, movement log and the packing list items linked to an order.
type ShippingQueryHandler struct {
	BaseHandler
	queryService       *shippingapp.QueryService
	packingListService *shippingapp.PackingListService
}

// NewShippingQueryHandler creates a new ShippingQueryHandler
func NewShippingQueryHandler(queryService *shippingapp.QueryService, packingListService *shippingapp.PackingListService) *ShippingQueryHandler {
	return &ShippingQueryHandler{
		queryService:       queryService,
		packingListService: packingListService,
	}
}

// GetShippingSummary godoc
// @Summary      Quantity breakdown of a purchase order
// @Description  Ordered, shipped, unshipped, in-transit and arrived quantities plus anomaly flags
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[shipping.ShippingSummary]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-orders/{id}/shipping-summary [get]
func (h *ShippingQueryHandler) GetShippingSummary(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	summary, err := h.queryService.GetShippingSummary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetShippingCost godoc
// @Summary      Shipping cost attributed to a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[shipping.ShippingCost]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-orders/{id}/shipping-cost [get]
func (h *ShippingQueryHandler) GetShippingCost(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	cost, err := h.queryService.GetShippingCost(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cost)
}

// GetDeliveryStatus godoc
// @Summary      Derived delivery status of a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[shippingapp.DeliveryStatusResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-orders/{id}/delivery-status [get]
func (h *ShippingQueryHandler) GetDeliveryStatus(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	status, err := h.queryService.GetDeliveryStatus(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// ListMovements godoc
// @Summary      Quantity movement log of a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id        path  string true  "Purchase order ID" format(uuid)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "recorded_at or order_version"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} APIResponse[[]shippingapp.MovementResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-orders/{id}/movements [get]
func (h *ShippingQueryHandler) ListMovements(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	var filter shippingapp.ListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	movements, err := h.queryService.ListMovements(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movements)
}

// ListPackingListItems godoc
// @Summary      Packing list items shipping a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[[]shippingapp.PackingListItemResponse]
// @Router       /purchase-orders/{id}/packing-list-items [get]
func (h *ShippingQueryHandler) ListPackingListItems(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	items, err := h.packingListService.ListItemsByPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}
