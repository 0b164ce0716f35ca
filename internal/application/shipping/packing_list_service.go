package shipping

import (
	"context"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"go.uber.org/zap"
)

// PackingListService manages packing list headers and reads their items.
// Item mutations and deletes go through LedgerService.
type PackingListService struct {
	listRepo    shipping.PackingListRepository
	itemRepo    shipping.PackingListItemRepository
	arrivalRepo shipping.KoreaArrivalRepository
	logger      *zap.Logger
}

// NewPackingListService creates a new PackingListService
func NewPackingListService(
	listRepo shipping.PackingListRepository,
	itemRepo shipping.PackingListItemRepository,
	arrivalRepo shipping.KoreaArrivalRepository,
	logger *zap.Logger,
) *PackingListService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackingListService{
		listRepo:    listRepo,
		itemRepo:    itemRepo,
		arrivalRepo: arrivalRepo,
		logger:      logger,
	}
}

// Create creates a packing list header
func (s *PackingListService) Create(ctx context.Context, req CreatePackingListRequest) (*PackingListResponse, error) {
	exists, err := s.listRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Packing list code already exists")
	}

	list, err := shipping.NewPackingList(req.Code, req.ShipmentDate, req.LogisticsCompany)
	if err != nil {
		return nil, err
	}
	if err := list.SetWeight(req.WeightKg); err != nil {
		return nil, err
	}
	if err := list.SetShippingCost(req.ShippingCost); err != nil {
		return nil, err
	}
	if err := s.listRepo.Save(ctx, list); err != nil {
		return nil, err
	}

	s.logger.Info("Packing list created",
		zap.String("packing_list_id", list.ID.String()),
		zap.String("code", list.Code),
	)
	response := ToPackingListResponse(list)
	return &response, nil
}

// Update applies a partial header update. Header fields never change quantities, so no
// purchase order lock is taken.
func (s *PackingListService) Update(ctx context.Context, id uuid.UUID, req UpdatePackingListRequest) (*PackingListResponse, error) {
	list, err := s.listRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ShipmentDate != nil || req.LogisticsCompany != nil {
		shipmentDate := list.ShipmentDate
		if req.ShipmentDate != nil {
			shipmentDate = *req.ShipmentDate
		}
		company := list.LogisticsCompany
		if req.LogisticsCompany != nil {
			company = *req.LogisticsCompany
		}
		if err := list.Reschedule(shipmentDate, company); err != nil {
			return nil, err
		}
	}

	switch {
	case req.ClearWarehouseArrival:
		list.ClearWarehouseArrival()
	case req.WarehouseArrivalDate != nil:
		if err := list.RecordWarehouseArrival(*req.WarehouseArrivalDate); err != nil {
			return nil, err
		}
	}

	if req.WeightKg != nil {
		if err := list.SetWeight(req.WeightKg); err != nil {
			return nil, err
		}
	}

	switch {
	case req.ClearShippingCost:
		if err := list.SetShippingCost(nil); err != nil {
			return nil, err
		}
	case req.ShippingCost != nil:
		if err := list.SetShippingCost(req.ShippingCost); err != nil {
			return nil, err
		}
	}

	if err := s.listRepo.Save(ctx, list); err != nil {
		return nil, err
	}
	return s.withItems(ctx, list)
}

// GetByID retrieves a packing list with its items and their arrived quantities
func (s *PackingListService) GetByID(ctx context.Context, id uuid.UUID) (*PackingListResponse, error) {
	list, err := s.listRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, list)
}

// List retrieves packing list headers with filtering and pagination
func (s *PackingListService) List(ctx context.Context, filter ListFilter) ([]PackingListResponse, int64, error) {
	domainFilter := filter.toDomain()

	lists, err := s.listRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.listRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PackingListResponse, len(lists))
	for i := range lists {
		responses[i] = ToPackingListResponse(&lists[i])
	}
	return responses, total, nil
}

// ListItemsByPurchaseOrder returns every packing list item linked to a purchase order
func (s *PackingListService) ListItemsByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]PackingListItemResponse, error) {
	items, err := s.itemRepo.FindByPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	return s.itemResponses(ctx, items)
}

func (s *PackingListService) withItems(ctx context.Context, list *shipping.PackingList) (*PackingListResponse, error) {
	items, err := s.itemRepo.FindByPackingList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	response := ToPackingListResponse(list)
	response.Items, err = s.itemResponses(ctx, items)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		response.TotalQuantity += item.TotalQuantity
	}
	return &response, nil
}

func (s *PackingListService) itemResponses(ctx context.Context, items []shipping.PackingListItem) ([]PackingListItemResponse, error) {
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	arrived, err := s.arrivalRepo.SumByPackingListItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	responses := make([]PackingListItemResponse, len(items))
	for i := range items {
		responses[i] = ToPackingListItemResponse(&items[i], arrived[items[i].ID])
	}
	return responses, nil
}
