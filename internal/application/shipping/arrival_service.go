package shipping

import (
	"context"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ArrivalService records quantities received in Korea. Arrivals are not capped by the
// item quantity; an over-arrival is accepted and surfaced as ARRIVAL_EXCEEDS_ITEM.
type ArrivalService struct {
	ledgerRunner
	arrivalRepo shipping.KoreaArrivalRepository
}

// NewArrivalService creates a new ArrivalService
func NewArrivalService(scope LedgerScope, arrivalRepo shipping.KoreaArrivalRepository, logger *zap.Logger) *ArrivalService {
	return &ArrivalService{
		ledgerRunner: newLedgerRunner(scope, logger),
		arrivalRepo:  arrivalRepo,
	}
}

// Record records an arrival against a packing list item
func (s *ArrivalService) Record(ctx context.Context, req RecordArrivalRequest) (*ArrivalResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opRecordArrival,
		telemetry.WithAttribute(telemetry.SpanAttrPackingListItemID, req.PackingListItemID.String()))
	defer span.End()

	var result *ArrivalResult
	err := s.run(ctx, opRecordArrival, func(repos LedgerRepositories) error {
		item, err := repos.Items().FindByID(ctx, req.PackingListItemID)
		if err != nil {
			return err
		}
		version, err := lockItemOrder(ctx, repos, item)
		if err != nil {
			return err
		}
		arrival, err := shipping.NewKoreaArrival(item.ID, req.ArrivalDate, req.Quantity, req.Note)
		if err != nil {
			return err
		}
		if err := repos.Arrivals().Save(ctx, arrival); err != nil {
			return err
		}
		if err := appendItemMovement(ctx, repos, item, version, shipping.MovementArrived, arrival.Quantity); err != nil {
			return err
		}
		result, err = arrivalResult(ctx, repos, item, arrival)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.reportOverArrival(ctx, result)
	return result, nil
}

// Update corrects an arrival's date, quantity and note
func (s *ArrivalService) Update(ctx context.Context, id uuid.UUID, req UpdateArrivalRequest) (*ArrivalResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opUpdateArrival,
		telemetry.WithAttribute(telemetry.SpanAttrArrivalID, id.String()))
	defer span.End()

	var result *ArrivalResult
	err := s.run(ctx, opUpdateArrival, func(repos LedgerRepositories) error {
		arrival, err := repos.Arrivals().FindByID(ctx, id)
		if err != nil {
			return err
		}
		item, err := repos.Items().FindByID(ctx, arrival.PackingListItemID)
		if err != nil {
			return err
		}
		version, err := lockItemOrder(ctx, repos, item)
		if err != nil {
			return err
		}
		previous := arrival.Quantity
		if err := arrival.Update(req.ArrivalDate, req.Quantity, req.Note); err != nil {
			return err
		}
		if err := repos.Arrivals().Save(ctx, arrival); err != nil {
			return err
		}
		delta := arrival.Quantity - previous
		kind := shipping.MovementArrived
		if delta < 0 {
			kind = shipping.MovementArrivalRemoved
		}
		if delta != 0 {
			if err := appendItemMovement(ctx, repos, item, version, kind, delta); err != nil {
				return err
			}
		}
		result, err = arrivalResult(ctx, repos, item, arrival)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.reportOverArrival(ctx, result)
	return result, nil
}

// Delete removes an arrival
func (s *ArrivalService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opDeleteArrival,
		telemetry.WithAttribute(telemetry.SpanAttrArrivalID, id.String()))
	defer span.End()

	err := s.run(ctx, opDeleteArrival, func(repos LedgerRepositories) error {
		arrival, err := repos.Arrivals().FindByID(ctx, id)
		if err != nil {
			return err
		}
		item, err := repos.Items().FindByID(ctx, arrival.PackingListItemID)
		if err != nil {
			return err
		}
		version, err := lockItemOrder(ctx, repos, item)
		if err != nil {
			return err
		}
		if err := repos.Arrivals().Delete(ctx, arrival.ID); err != nil {
			return err
		}
		return appendItemMovement(ctx, repos, item, version, shipping.MovementArrivalRemoved, -arrival.Quantity)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// ListByItem lists the arrivals recorded for a packing list item
func (s *ArrivalService) ListByItem(ctx context.Context, itemID uuid.UUID) ([]ArrivalResponse, error) {
	arrivals, err := s.arrivalRepo.FindByPackingListItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	responses := make([]ArrivalResponse, len(arrivals))
	for i := range arrivals {
		responses[i] = ToArrivalResponse(&arrivals[i])
	}
	return responses, nil
}

func (s *ArrivalService) reportOverArrival(ctx context.Context, result *ArrivalResult) {
	if !result.ExceedsItem {
		return
	}
	s.metrics.RecordAnomaly(ctx, string(shipping.AnomalyArrivalExceedsItem))
	s.logger.Warn("Arrived quantity exceeds packing list item quantity",
		zap.String("packing_list_item_id", result.Arrival.PackingListItemID.String()),
		zap.Int64("item_quantity", result.ItemTotalQuantity),
		zap.Int64("arrived_quantity", result.ItemArrivedQuantity),
	)
}

// lockItemOrder locks the purchase order a linked item ships against and returns its version.
// Unlinked items have no order and report version 0.
func lockItemOrder(ctx context.Context, repos LedgerRepositories, item *shipping.PackingListItem) (int, error) {
	if !item.IsLinked() {
		return 0, nil
	}
	po, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, *item.PurchaseOrderID)
	if err != nil {
		return 0, err
	}
	return po.Version, nil
}

// appendItemMovement logs an arrival change; arrivals on unlinked items have no order to log against
func appendItemMovement(ctx context.Context, repos LedgerRepositories, item *shipping.PackingListItem, version int, kind shipping.MovementKind, delta int64) error {
	if !item.IsLinked() {
		return nil
	}
	return repos.Movements().Append(ctx, shipping.NewMovement(*item.PurchaseOrderID, kind, delta, version).ForItem(item))
}

func arrivalResult(ctx context.Context, repos LedgerRepositories, item *shipping.PackingListItem, arrival *shipping.KoreaArrival) (*ArrivalResult, error) {
	arrived, err := repos.Arrivals().SumByPackingListItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return &ArrivalResult{
		Arrival:             ToArrivalResponse(arrival),
		ItemTotalQuantity:   item.TotalQuantity,
		ItemArrivedQuantity: arrived,
		ExceedsItem:         arrived > item.TotalQuantity,
	}, nil
}
