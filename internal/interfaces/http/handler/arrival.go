package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	shippingapp "github.com/venpus/mjshop-sub003/internal/application/shipping"
)

// ArrivalHandler handles Korea arrival endpoints
type ArrivalHandler struct {
	BaseHandler
	arrivalService *shippingapp.ArrivalService
}

// NewArrivalHandler creates a new ArrivalHandler
func NewArrivalHandler(arrivalService *shippingapp.ArrivalService) *ArrivalHandler {
	return &ArrivalHandler{arrivalService: arrivalService}
}

// RecordArrivalRequest is the body of a Korea arrival; the item comes from the path
type RecordArrivalRequest struct {
	ArrivalDate time.Time `json:"arrival_date" binding:"required"`
	Quantity    int64     `json:"quantity" binding:"required,gt=0"`
	Note        string    `json:"note" binding:"max=500"`
}

// Record godoc
// @Summary      Record goods received in Korea
// @Description  Arrivals above the item quantity are accepted and flagged with exceeds_item
// @Tags         korea-arrivals
// @Accept       json
// @Produce      json
// @Param        id      path string true "Packing list item ID" format(uuid)
// @Param        request body RecordArrivalRequest true "Arrival"
// @Success      201 {object} APIResponse[shippingapp.ArrivalResult]
// @Failure      404 {object} ErrorResponse
// @Router       /packing-list-items/{id}/arrivals [post]
func (h *ArrivalHandler) Record(c *gin.Context) {
	itemID, ok := h.ParamUUID(c, "id", "packing list item")
	if !ok {
		return
	}

	var req RecordArrivalRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.arrivalService.Record(c.Request.Context(), shippingapp.RecordArrivalRequest{
		PackingListItemID: itemID,
		ArrivalDate:       req.ArrivalDate,
		Quantity:          req.Quantity,
		Note:              req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListByItem godoc
// @Summary      List Korea arrivals of a packing list item
// @Tags         korea-arrivals
// @Produce      json
// @Param        id path string true "Packing list item ID" format(uuid)
// @Success      200 {object} APIResponse[[]shippingapp.ArrivalResponse]
// @Router       /packing-list-items/{id}/arrivals [get]
func (h *ArrivalHandler) ListByItem(c *gin.Context) {
	itemID, ok := h.ParamUUID(c, "id", "packing list item")
	if !ok {
		return
	}

	arrivals, err := h.arrivalService.ListByItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, arrivals)
}

// Update godoc
// @Summary      Correct a Korea arrival
// @Tags         korea-arrivals
// @Accept       json
// @Produce      json
// @Param        id      path string true "Korea arrival ID" format(uuid)
// @Param        request body shippingapp.UpdateArrivalRequest true "Arrival"
// @Success      200 {object} APIResponse[shippingapp.ArrivalResult]
// @Failure      404 {object} ErrorResponse
// @Router       /korea-arrivals/{id} [put]
func (h *ArrivalHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "korea arrival")
	if !ok {
		return
	}

	var req shippingapp.UpdateArrivalRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.arrivalService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete godoc
// @Summary      Delete a Korea arrival
// @Tags         korea-arrivals
// @Param        id path string true "Korea arrival ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /korea-arrivals/{id} [delete]
func (h *ArrivalHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "korea arrival")
	if !ok {
		return
	}

	if err := h.arrivalService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
