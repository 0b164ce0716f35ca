package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order registration and lookup.
// Quantity changes go through LedgerService.UpdateOrderedQuantity.
type PurchaseOrderService struct {
	orderRepo shipping.PurchaseOrderRepository
	logger    *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(orderRepo shipping.PurchaseOrderRepository, logger *zap.Logger) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// Create registers a new purchase order
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	exists, err := s.orderRepo.ExistsByOrderNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Purchase order number already exists")
	}

	orderDate := time.Now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}
	po, err := shipping.NewPurchaseOrder(req.OrderNumber, req.ProductName, req.FactoryName, req.OrderedQuantity, orderDate)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, po); err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order created",
		zap.String("purchase_order_id", po.ID.String()),
		zap.String("order_number", po.OrderNumber),
		zap.Int64("ordered_quantity", po.OrderedQuantity),
	)
	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, filter ListFilter) ([]PurchaseOrderResponse, int64, error) {
	domainFilter := filter.toDomain()

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToPurchaseOrderResponse(&orders[i])
	}
	return responses, total, nil
}
