package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FactoryShipmentService records factory-to-forwarder movements. These never count toward
// the packed quantity, so the purchase order is not locked; rows mirroring a packing list
// item are maintained by LedgerService and cannot be edited here.
type FactoryShipmentService struct {
	ledgerRunner
	shipmentRepo shipping.FactoryShipmentRepository
}

// NewFactoryShipmentService creates a new FactoryShipmentService
func NewFactoryShipmentService(scope LedgerScope, shipmentRepo shipping.FactoryShipmentRepository, logger *zap.Logger) *FactoryShipmentService {
	return &FactoryShipmentService{
		ledgerRunner: newLedgerRunner(scope, logger),
		shipmentRepo: shipmentRepo,
	}
}

// Record records a manual factory shipment
func (s *FactoryShipmentService) Record(ctx context.Context, req FactoryShipmentRequest) (*FactoryShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opRecordFactory,
		telemetry.WithAttribute(telemetry.SpanAttrPurchaseOrderID, req.PurchaseOrderID.String()))
	defer span.End()

	var response FactoryShipmentResponse
	err := s.run(ctx, opRecordFactory, func(repos LedgerRepositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, req.PurchaseOrderID)
		if err != nil {
			return err
		}
		shipment, err := shipping.NewFactoryShipment(po.ID, req.ShippedDate, req.Quantity, req.TrackingNumber)
		if err != nil {
			return err
		}
		if err := markReceived(shipment, req.ReceivedDate); err != nil {
			return err
		}
		if err := repos.FactoryShipments().Save(ctx, shipment); err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx,
			shipping.NewMovement(po.ID, shipping.MovementFactoryShipped, shipment.Quantity, po.Version)); err != nil {
			return err
		}
		response = ToFactoryShipmentResponse(shipment)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &response, nil
}

// Update replaces a manual factory shipment's fields
func (s *FactoryShipmentService) Update(ctx context.Context, id uuid.UUID, req UpdateFactoryShipmentRequest) (*FactoryShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opUpdateFactory,
		telemetry.WithAttribute(telemetry.SpanAttrFactoryShipmentID, id.String()))
	defer span.End()

	var response FactoryShipmentResponse
	err := s.run(ctx, opUpdateFactory, func(repos LedgerRepositories) error {
		shipment, err := repos.FactoryShipments().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if shipment.IsSynthetic() {
			return shipping.ErrSyntheticShipment
		}
		previous := shipment.Quantity
		if err := shipment.Update(req.ShippedDate, req.Quantity, req.TrackingNumber); err != nil {
			return err
		}
		if req.ReceivedDate == nil {
			shipment.ReceivedDate = nil
		} else if err := markReceived(shipment, req.ReceivedDate); err != nil {
			return err
		}
		if err := repos.FactoryShipments().Save(ctx, shipment); err != nil {
			return err
		}
		if delta := shipment.Quantity - previous; delta != 0 {
			if err := repos.Movements().Append(ctx,
				shipping.NewMovement(shipment.PurchaseOrderID, shipping.MovementFactoryShipped, delta, 0)); err != nil {
				return err
			}
		}
		response = ToFactoryShipmentResponse(shipment)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &response, nil
}

// Delete removes a manual factory shipment
func (s *FactoryShipmentService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opDeleteFactory,
		telemetry.WithAttribute(telemetry.SpanAttrFactoryShipmentID, id.String()))
	defer span.End()

	err := s.run(ctx, opDeleteFactory, func(repos LedgerRepositories) error {
		shipment, err := repos.FactoryShipments().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if shipment.IsSynthetic() {
			return shipping.ErrSyntheticShipment
		}
		if err := repos.FactoryShipments().Delete(ctx, shipment.ID); err != nil {
			return err
		}
		return repos.Movements().Append(ctx,
			shipping.NewMovement(shipment.PurchaseOrderID, shipping.MovementFactoryShipped, -shipment.Quantity, 0))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("Factory shipment deleted", zap.String("factory_shipment_id", id.String()))
	return nil
}

// ListByPurchaseOrder lists factory shipments of a purchase order
func (s *FactoryShipmentService) ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]FactoryShipmentResponse, error) {
	shipments, err := s.shipmentRepo.FindByPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	responses := make([]FactoryShipmentResponse, len(shipments))
	for i := range shipments {
		responses[i] = ToFactoryShipmentResponse(&shipments[i])
	}
	return responses, nil
}

func markReceived(shipment *shipping.FactoryShipment, receivedDate *time.Time) error {
	if receivedDate == nil {
		return nil
	}
	return shipment.MarkReceived(*receivedDate)
}
