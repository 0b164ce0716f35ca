package shipping

import (
	"context"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// QueryService serves the derived views. Each view is computed from a single read so it
// reflects one committed state of the ledger.
type QueryService struct {
	orderRepo    shipping.PurchaseOrderRepository
	readRepo     shipping.ShippingReadRepository
	movementRepo shipping.MovementRepository
	metrics      *telemetry.LedgerMetrics
	logger       *zap.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(
	orderRepo shipping.PurchaseOrderRepository,
	readRepo shipping.ShippingReadRepository,
	movementRepo shipping.MovementRepository,
	logger *zap.Logger,
) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		orderRepo:    orderRepo,
		readRepo:     readRepo,
		movementRepo: movementRepo,
		logger:       logger,
	}
}

// SetLedgerMetrics sets the ledger metrics collector
func (s *QueryService) SetLedgerMetrics(lm *telemetry.LedgerMetrics) {
	s.metrics = lm
}

// GetShippingSummary returns the reconciled quantities of a purchase order
func (s *QueryService) GetShippingSummary(ctx context.Context, purchaseOrderID uuid.UUID) (*shipping.ShippingSummary, error) {
	summary, _, err := s.summary(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetShippingCost returns the shipping cost attributed to a purchase order
func (s *QueryService) GetShippingCost(ctx context.Context, purchaseOrderID uuid.UUID) (*shipping.ShippingCost, error) {
	if _, err := s.orderRepo.FindByID(ctx, purchaseOrderID); err != nil {
		return nil, err
	}
	loads, err := s.readRepo.PackingListLoads(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	cost := shipping.AttributeShippingCost(purchaseOrderID, loads)
	return &cost, nil
}

// GetDeliveryStatus returns the derived delivery status of a purchase order
func (s *QueryService) GetDeliveryStatus(ctx context.Context, purchaseOrderID uuid.UUID) (*DeliveryStatusResponse, error) {
	summary, meta, err := s.summary(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	status := shipping.DeriveDeliveryStatus(*summary, meta)
	return &DeliveryStatusResponse{
		PurchaseOrderID: purchaseOrderID,
		Status:          status,
		Stage:           status.Stage(),
		Summary:         *summary,
	}, nil
}

// ListMovements returns the quantity movement log of a purchase order, newest first
func (s *QueryService) ListMovements(ctx context.Context, purchaseOrderID uuid.UUID, filter ListFilter) ([]MovementResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, purchaseOrderID); err != nil {
		return nil, err
	}
	movements, err := s.movementRepo.FindByPurchaseOrder(ctx, purchaseOrderID, filter.toDomain())
	if err != nil {
		return nil, err
	}
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses, nil
}

func (s *QueryService) summary(ctx context.Context, purchaseOrderID uuid.UUID) (*shipping.ShippingSummary, shipping.ArrivalMetadata, error) {
	snapshot, err := s.readRepo.OrderSnapshot(ctx, purchaseOrderID)
	if err != nil {
		return nil, shipping.ArrivalMetadata{}, err
	}
	summary := shipping.ComputeSummary(purchaseOrderID, snapshot.Totals)
	if summary.HasAnomalies() {
		for _, anomaly := range summary.Anomalies {
			s.metrics.RecordAnomaly(ctx, string(anomaly))
		}
		s.logger.Warn("Purchase order shows quantity anomalies",
			zap.String("purchase_order_id", purchaseOrderID.String()),
			zap.Any("anomalies", summary.Anomalies),
			zap.Int64("ordered", summary.OrderedQuantity),
			zap.Int64("shipped", summary.ShippedQuantity),
			zap.Int64("arrived", summary.ArrivedQuantity),
		)
	}
	return &summary, shipping.ArrivalMetadata{WarehouseArrivalRecorded: snapshot.WarehouseArrivalRecorded}, nil
}
