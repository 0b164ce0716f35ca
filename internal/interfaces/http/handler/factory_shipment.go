package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	shippingapp "github.com/venpus/mjshop-sub003/internal/application/shipping"
)

// FactoryShipmentHandler handles factory shipment endpoints
type FactoryShipmentHandler struct {
	BaseHandler
	shipmentService *shippingapp.FactoryShipmentService
}

// NewFactoryShipmentHandler creates a new FactoryShipmentHandler
func NewFactoryShipmentHandler(shipmentService *shippingapp.FactoryShipmentService) *FactoryShipmentHandler {
	return &FactoryShipmentHandler{shipmentService: shipmentService}
}

// RecordFactoryShipmentRequest is the body of a manual factory shipment; the purchase
// order comes from the path.
type RecordFactoryShipmentRequest struct {
	ShippedDate    time.Time  `json:"shipped_date" binding:"required"`
	Quantity       int64      `json:"quantity" binding:"required,gt=0"`
	TrackingNumber string     `json:"tracking_number" binding:"max=100"`
	ReceivedDate   *time.Time `json:"received_date"`
}

// ListByPurchaseOrder godoc
// @Summary      List factory shipments of a purchase order
// @Tags         factory-shipments
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[[]shippingapp.FactoryShipmentResponse]
// @Router       /purchase-orders/{id}/factory-shipments [get]
func (h *FactoryShipmentHandler) ListByPurchaseOrder(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	shipments, err := h.shipmentService.ListByPurchaseOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shipments)
}

// Record godoc
// @Summary      Record a factory shipment
// @Tags         factory-shipments
// @Accept       json
// @Produce      json
// @Param        id      path string true "Purchase order ID" format(uuid)
// @Param        request body RecordFactoryShipmentRequest true "Shipment"
// @Success      201 {object} APIResponse[shippingapp.FactoryShipmentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /purchase-orders/{id}/factory-shipments [post]
func (h *FactoryShipmentHandler) Record(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id", "purchase order")
	if !ok {
		return
	}

	var req RecordFactoryShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	shipment, err := h.shipmentService.Record(c.Request.Context(), shippingapp.FactoryShipmentRequest{
		PurchaseOrderID: orderID,
		ShippedDate:     req.ShippedDate,
		Quantity:        req.Quantity,
		TrackingNumber:  req.TrackingNumber,
		ReceivedDate:    req.ReceivedDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, shipment)
}

// Update godoc
// @Summary      Replace a manual factory shipment
// @Description  Shipments mirrored from a packing list item are rejected with SYNTHETIC_SHIPMENT
// @Tags         factory-shipments
// @Accept       json
// @Produce      json
// @Param        id      path string true "Factory shipment ID" format(uuid)
// @Param        request body shippingapp.UpdateFactoryShipmentRequest true "Shipment"
// @Success      200 {object} APIResponse[shippingapp.FactoryShipmentResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /factory-shipments/{id} [put]
func (h *FactoryShipmentHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "factory shipment")
	if !ok {
		return
	}

	var req shippingapp.UpdateFactoryShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	shipment, err := h.shipmentService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shipment)
}

// Delete godoc
// @Summary      Delete a manual factory shipment
// @Tags         factory-shipments
// @Param        id path string true "Factory shipment ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /factory-shipments/{id} [delete]
func (h *FactoryShipmentHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "factory shipment")
	if !ok {
		return
	}

	if err := h.shipmentService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
