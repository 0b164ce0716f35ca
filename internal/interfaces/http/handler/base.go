package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/logger"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/dto"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler holds the response helpers shared by the ledger handlers
type BaseHandler struct{}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes a failed envelope and records code for the span error marker
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	h.fail(c, statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) fail(c *gin.Context, statusCode int, resp dto.Response) {
	middleware.SetErrorCode(c, resp.Error.Code)
	c.JSON(statusCode, resp)
}

// BindJSON decodes and validates the body into req. On failure the 4xx response is
// already written and false is returned.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// BindQuery is BindJSON for query parameters
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// ParamUUID parses the named path parameter, answering 400 when it is not a UUID
func (h *BaseHandler) ParamUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// HandleError writes the response for an error returned by an application service.
// A quantity violation is a 422 whose details carry the available quantity. Other domain
// errors map by code, with lock and version failures flagged retryable. Anything else is
// logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var exceeded *shipping.QuantityExceededError
	if errors.As(err, &exceeded) {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeQuantityExceeded, exceeded.Error(), requestID)
		resp.Error.Details = quantityDetails(exceeded)
		h.fail(c, http.StatusUnprocessableEntity, resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		statusCode := dto.GetHTTPStatus(domainErr.Code)
		if statusCode >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		h.fail(c, statusCode, dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, requestID))
		return
	}

	_ = c.Error(err)
	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.fail(c, http.StatusInternalServerError,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An unexpected error occurred", requestID))
}

func quantityDetails(e *shipping.QuantityExceededError) map[string]any {
	return map[string]any{
		"purchase_order_id":  e.PurchaseOrderID,
		"ordered_quantity":   e.OrderedQuantity,
		"already_shipped":    e.AlreadyShipped,
		"requested":          e.Requested,
		"available_quantity": e.Available(),
	}
}
