package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	shippingapp "github.com/venpus/mjshop-sub003/internal/application/shipping"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/logger"
)

// maxIdempotencyKeyLength matches the packing_list_items.idempotency_key column
const maxIdempotencyKeyLength = 100

// PackingListHandler handles packing list and packing list item endpoints
type PackingListHandler struct {
	BaseHandler
	packingListService *shippingapp.PackingListService
	ledgerService      *shippingapp.LedgerService
}

// NewPackingListHandler creates a new PackingListHandler
func NewPackingListHandler(packingListService *shippingapp.PackingListService, ledgerService *shippingapp.LedgerService) *PackingListHandler {
	return &PackingListHandler{
		packingListService: packingListService,
		ledgerService:      ledgerService,
	}
}

// Create godoc
// @Summary      Create a packing list
// @Tags         packing-lists
// @Accept       json
// @Produce      json
// @Param        request body shippingapp.CreatePackingListRequest true "Packing list header"
// @Success      201 {object} APIResponse[shippingapp.PackingListResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /packing-lists [post]
func (h *PackingListHandler) Create(c *gin.Context) {
	var req shippingapp.CreatePackingListRequest
	if !h.BindJSON(c, &req) {
		return
	}

	list, err := h.packingListService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, list)
}

// GetByID godoc
// @Summary      Get a packing list with its items
// @Tags         packing-lists
// @Produce      json
// @Param        id path string true "Packing list ID" format(uuid)
// @Success      200 {object} APIResponse[shippingapp.PackingListResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /packing-lists/{id} [get]
func (h *PackingListHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "packing list")
	if !ok {
		return
	}

	list, err := h.packingListService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, list)
}

// List godoc
// @Summary      List packing lists
// @Tags         packing-lists
// @Produce      json
// @Param        search    query string false "Code or logistics company"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]shippingapp.PackingListResponse]
// @Router       /packing-lists [get]
func (h *PackingListHandler) List(c *gin.Context) {
	var filter shippingapp.ListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	lists, total, err := h.packingListService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, lists, total, filter.Page, filter.PageSize)
}

// Update godoc
// @Summary      Update a packing list header
// @Description  Sets the warehouse arrival date or shipping cost. clear_* flags remove a recorded value.
// @Tags         packing-lists
// @Accept       json
// @Produce      json
// @Param        id      path string true "Packing list ID" format(uuid)
// @Param        request body shippingapp.UpdatePackingListRequest true "Fields to change"
// @Success      200 {object} APIResponse[shippingapp.PackingListResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /packing-lists/{id} [patch]
func (h *PackingListHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "packing list")
	if !ok {
		return
	}

	var req shippingapp.UpdatePackingListRequest
	if !h.BindJSON(c, &req) {
		return
	}

	list, err := h.packingListService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, list)
}

// Delete godoc
// @Summary      Delete a packing list
// @Description  Removes its items, their Korea arrivals and mirrored factory shipments, releasing the quantities
// @Tags         packing-lists
// @Produce      json
// @Param        id path string true "Packing list ID" format(uuid)
// @Success      200 {object} APIResponse[shippingapp.DeletionResult]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /packing-lists/{id} [delete]
func (h *PackingListHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "packing list")
	if !ok {
		return
	}

	result, err := h.ledgerService.DeletePackingList(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CreateItem godoc
// @Summary      Add an item to a packing list
// @Description  Linked items are checked against the purchase order's remaining quantity under a row lock.
// @Description  A repeated Idempotency-Key returns the item created by the first request.
// @Tags         packing-lists
// @Accept       json
// @Produce      json
// @Param        id              path   string true  "Packing list ID" format(uuid)
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request         body   shippingapp.PackingListItemRequest true "Item"
// @Success      201 {object} APIResponse[shippingapp.ItemMutationResult]
// @Success      200 {object} APIResponse[shippingapp.ItemMutationResult] "Replayed"
// @Failure      409 {object} ErrorResponse "Retryable lock failure"
// @Failure      422 {object} ErrorResponse "QUANTITY_EXCEEDED"
// @Router       /packing-lists/{id}/items [post]
func (h *PackingListHandler) CreateItem(c *gin.Context) {
	listID, ok := h.ParamUUID(c, "id", "packing list")
	if !ok {
		return
	}

	var req shippingapp.PackingListItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.PackingListID = listID
	req.ItemID = nil
	if key := strings.TrimSpace(c.GetHeader(logger.IdempotencyHeader)); key != "" {
		if len(key) > maxIdempotencyKeyLength {
			h.BadRequest(c, "Idempotency-Key must be at most 100 characters")
			return
		}
		req.IdempotencyKey = key
	}

	result, err := h.ledgerService.CreateOrUpdatePackingListItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Replayed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// UpdateItem godoc
// @Summary      Replace a packing list item
// @Description  The item's own previous quantity is excluded from the remaining-quantity check
// @Tags         packing-list-items
// @Accept       json
// @Produce      json
// @Param        id      path string true "Packing list item ID" format(uuid)
// @Param        request body shippingapp.PackingListItemRequest true "Item"
// @Success      200 {object} APIResponse[shippingapp.ItemMutationResult]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "QUANTITY_EXCEEDED"
// @Router       /packing-list-items/{id} [put]
func (h *PackingListHandler) UpdateItem(c *gin.Context) {
	itemID, ok := h.ParamUUID(c, "id", "packing list item")
	if !ok {
		return
	}

	var req shippingapp.PackingListItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.ItemID = &itemID
	req.IdempotencyKey = ""

	result, err := h.ledgerService.CreateOrUpdatePackingListItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// DeleteItem godoc
// @Summary      Delete a packing list item
// @Tags         packing-list-items
// @Produce      json
// @Param        id path string true "Packing list item ID" format(uuid)
// @Success      200 {object} APIResponse[shippingapp.DeletionResult]
// @Failure      404 {object} ErrorResponse
// @Router       /packing-list-items/{id} [delete]
func (h *PackingListHandler) DeleteItem(c *gin.Context) {
	itemID, ok := h.ParamUUID(c, "id", "packing list item")
	if !ok {
		return
	}

	result, err := h.ledgerService.DeletePackingListItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
