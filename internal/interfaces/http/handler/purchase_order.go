package handler

import (
	"github.com/gin-gonic/gin"
	shippingapp "github.com/venpus/mjshop-sub003/internal/application/shipping"
)

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService  *shippingapp.PurchaseOrderService
	ledgerService *shippingapp.LedgerService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *shippingapp.PurchaseOrderService, ledgerService *shippingapp.LedgerService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		orderService:  orderService,
		ledgerService: ledgerService,
	}
}

// Create godoc
// @Summary      Create a purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        request body shippingapp.CreatePurchaseOrderRequest true "Purchase order"
// @Success      201 {object} APIResponse[shippingapp.PurchaseOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req shippingapp.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID godoc
// @Summary      Get a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[shippingapp.PurchaseOrderResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List godoc
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Param        search    query string false "Order number or product name"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "Sort field"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} APIResponse[[]shippingapp.PurchaseOrderResponse]
// @Router       /purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter shippingapp.ListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// UpdateOrderedQuantity godoc
// @Summary      Change the ordered quantity
// @Description  Rejected with ORDERED_BELOW_SHIPPED when the new quantity is below what packing lists already carry
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id      path string true "Purchase order ID" format(uuid)
// @Param        request body shippingapp.UpdateOrderedQuantityRequest true "New quantity"
// @Success      200 {object} APIResponse[shippingapp.PurchaseOrderResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /purchase-orders/{id}/quantity [patch]
func (h *PurchaseOrderHandler) UpdateOrderedQuantity(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	var req shippingapp.UpdateOrderedQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.ledgerService.UpdateOrderedQuantity(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}
