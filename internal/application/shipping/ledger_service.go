package shipping

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Ledger operation names used in logs, spans and metrics
const (
	opCreateItem      = "create_item"
	opUpdateItem      = "update_item"
	opDeleteItem      = "delete_item"
	opDeleteList      = "delete_packing_list"
	opResizeOrder     = "resize_order"
	opRecordArrival   = "record_arrival"
	opUpdateArrival   = "update_arrival"
	opDeleteArrival   = "delete_arrival"
	opRecordFactory   = "record_factory_shipment"
	opUpdateFactory   = "update_factory_shipment"
	opDeleteFactory   = "delete_factory_shipment"
	spanServiceLedger = "shipping_ledger"
)

// LedgerService performs every mutation that changes a purchase order's shipped quantity.
// Each mutation runs in one transaction that locks the purchase order row before it reads
// the already shipped quantity, so concurrent writers against the same order serialize and
// the packed total can never exceed the ordered quantity.
type LedgerService struct {
	ledgerRunner
	items       shipping.PackingListItemRepository
	arrivals    shipping.KoreaArrivalRepository
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
}

// NewLedgerService creates a new LedgerService.
// items and arrivals are used outside transactions to answer idempotent replays.
func NewLedgerService(scope LedgerScope, items shipping.PackingListItemRepository, arrivals shipping.KoreaArrivalRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		ledgerRunner: newLedgerRunner(scope, logger),
		items:        items,
		arrivals:     arrivals,
		idemConfig:   shared.DefaultIdempotencyConfig(),
	}
}

// SetIdempotencyStore sets the fast-path idempotency store
func (s *LedgerService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idemConfig = cfg
}

// lockOrder loads and locks the purchase order, returning the quantity already packed
// against it excluding excludeItemID
func lockOrder(ctx context.Context, repos LedgerRepositories, purchaseOrderID, excludeItemID uuid.UUID) (*shipping.PurchaseOrder, int64, error) {
	po, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, purchaseOrderID)
	if err != nil {
		return nil, 0, err
	}
	shipped, err := repos.Items().SumQuantityByPurchaseOrder(ctx, purchaseOrderID, excludeItemID)
	if err != nil {
		return nil, 0, err
	}
	return po, shipped, nil
}

// bumpOrder advances the locked order's version and returns it for the movement log
func bumpOrder(ctx context.Context, repos LedgerRepositories, po *shipping.PurchaseOrder) (int, error) {
	po.BumpVersion()
	if err := repos.PurchaseOrders().SaveWithLock(ctx, po); err != nil {
		return 0, err
	}
	return po.Version, nil
}

// CreateOrUpdatePackingListItem creates a packing list item, or replaces an existing one when
// req.ItemID is set. Linked items are validated against the locked purchase order: the
// quantity already packed (excluding the item being replaced) plus the new quantity may not
// exceed the ordered quantity.
func (s *LedgerService) CreateOrUpdatePackingListItem(ctx context.Context, req PackingListItemRequest) (*ItemMutationResult, error) {
	op := opCreateItem
	if req.ItemID != nil {
		op = opUpdateItem
	}
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, op,
		telemetry.WithAttribute(telemetry.SpanAttrPackingListID, req.PackingListID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrRequestedQuantity, req.TotalQuantity))
	defer span.End()

	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if req.ItemID == nil && req.IdempotencyKey != "" {
		if result, ok := s.replayFromStore(ctx, req.IdempotencyKey); ok {
			return result, nil
		}
	}

	var result *ItemMutationResult
	err := s.run(ctx, op, func(repos LedgerRepositories) error {
		var err error
		if req.ItemID == nil {
			result, err = s.createItem(ctx, repos, req)
		} else {
			result, err = s.updateItem(ctx, repos, req)
		}
		return err
	})
	if err != nil && req.ItemID == nil && req.IdempotencyKey != "" && errors.Is(err, shared.ErrAlreadyExists) {
		// a concurrent create with the same key won the unique index
		if existing, findErr := s.items.FindByIdempotencyKey(ctx, req.IdempotencyKey); findErr == nil {
			if replay, replayErr := s.replayResult(ctx, existing); replayErr == nil {
				s.metrics.RecordReplay(ctx)
				return replay, nil
			}
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.logRejection(ctx, op, req, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrIdempotentReplay, result.Replayed)
	if result.Replayed {
		s.metrics.RecordReplay(ctx)
	} else {
		s.log(ctx).Info("Packing list item saved",
			zap.String("operation", op),
			zap.String("item_id", result.Item.ID.String()),
			zap.String("packing_list_id", result.Item.PackingListID.String()),
			zap.Int64("quantity", result.Item.TotalQuantity),
		)
	}
	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Remember(ctx, req.IdempotencyKey, result.Item.ID, s.idemConfig.TTL); err != nil {
			s.log(ctx).Warn("Failed to remember idempotency key", zap.String("key", req.IdempotencyKey), zap.Error(err))
		}
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *LedgerService) replayFromStore(ctx context.Context, key string) (*ItemMutationResult, bool) {
	if s.idempotency == nil {
		return nil, false
	}
	itemID, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		s.log(ctx).Warn("Idempotency lookup failed, falling back to database", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		// item deleted since; the key is free again
		_ = s.idempotency.Forget(ctx, key)
		return nil, false
	}
	result, err := s.replayResult(ctx, item)
	if err != nil {
		s.log(ctx).Warn("Idempotent replay failed, falling back to database", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	s.metrics.RecordReplay(ctx)
	return result, true
}

// replayResult reports an existing item with its arrived quantity, as findReplay does
func (s *LedgerService) replayResult(ctx context.Context, item *shipping.PackingListItem) (*ItemMutationResult, error) {
	arrived, err := s.arrivals.SumByPackingListItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return &ItemMutationResult{Item: ToPackingListItemResponse(item, arrived), Replayed: true}, nil
}

func (s *LedgerService) createItem(ctx context.Context, repos LedgerRepositories, req PackingListItemRequest) (*ItemMutationResult, error) {
	list, err := repos.PackingLists().FindByID(ctx, req.PackingListID)
	if err != nil {
		return nil, err
	}

	item, err := shipping.NewPackingListItem(list.ID, req.PurchaseOrderID, req.details(), req.TotalQuantity)
	if err != nil {
		return nil, err
	}
	item.WithIdempotencyKey(req.IdempotencyKey)
	if req.DirectFromFactory && !item.IsLinked() {
		return nil, shared.NewDomainError("INVALID_PURCHASE_ORDER", "Direct factory shipments require a purchase order")
	}

	result := &ItemMutationResult{}
	var po *shipping.PurchaseOrder
	if item.IsLinked() {
		var shipped int64
		po, shipped, err = lockOrder(ctx, repos, *item.PurchaseOrderID, uuid.Nil)
		if err != nil {
			return nil, err
		}
		// checked after the lock so a committed duplicate is visible
		if replay, ok, err := findReplay(ctx, repos, item.IdempotencyKey); err != nil || ok {
			return replay, err
		}
		if err := po.CheckShipment(shipped, item.TotalQuantity); err != nil {
			return nil, err
		}
		remaining := po.Remaining(shipped + item.TotalQuantity)
		result.RemainingQuantity = &remaining
	} else if replay, ok, err := findReplay(ctx, repos, item.IdempotencyKey); err != nil || ok {
		return replay, err
	}

	if err := repos.Items().Save(ctx, item); err != nil {
		return nil, err
	}

	if po != nil {
		version, err := bumpOrder(ctx, repos, po)
		if err != nil {
			return nil, err
		}
		movements := []*shipping.QuantityMovement{
			shipping.NewMovement(po.ID, shipping.MovementOverseasShipped, item.TotalQuantity, version).ForItem(item),
		}
		if req.DirectFromFactory {
			shipment, err := shipping.NewDirectFactoryShipment(item, list)
			if err != nil {
				return nil, err
			}
			if err := repos.FactoryShipments().Save(ctx, shipment); err != nil {
				return nil, err
			}
			movements = append(movements,
				shipping.NewMovement(po.ID, shipping.MovementFactoryShipped, shipment.Quantity, version).ForItem(item))
		}
		if err := repos.Movements().Append(ctx, movements...); err != nil {
			return nil, err
		}
	}

	result.Item = ToPackingListItemResponse(item, 0)
	return result, nil
}

func findReplay(ctx context.Context, repos LedgerRepositories, key *string) (*ItemMutationResult, bool, error) {
	if key == nil {
		return nil, false, nil
	}
	existing, err := repos.Items().FindByIdempotencyKey(ctx, *key)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	arrived, err := repos.Arrivals().SumByPackingListItem(ctx, existing.ID)
	if err != nil {
		return nil, false, err
	}
	return &ItemMutationResult{Item: ToPackingListItemResponse(existing, arrived), Replayed: true}, true, nil
}

func (s *LedgerService) updateItem(ctx context.Context, repos LedgerRepositories, req PackingListItemRequest) (*ItemMutationResult, error) {
	item, err := repos.Items().FindByID(ctx, *req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.PackingListID != uuid.Nil && item.PackingListID != req.PackingListID {
		return nil, shared.ErrNotFound
	}
	list, err := repos.PackingLists().FindByID(ctx, item.PackingListID)
	if err != nil {
		return nil, err
	}

	previousOrder := item.PurchaseOrderID
	previousQty := item.TotalQuantity
	if err := item.Apply(req.PurchaseOrderID, req.details(), req.TotalQuantity); err != nil {
		return nil, err
	}

	result := &ItemMutationResult{}
	var po *shipping.PurchaseOrder
	if item.IsLinked() {
		var shipped int64
		// the item's own previous quantity is excluded so a replayed update is a no-op
		po, shipped, err = lockOrder(ctx, repos, *item.PurchaseOrderID, item.ID)
		if err != nil {
			return nil, err
		}
		if err := po.CheckShipment(shipped, item.TotalQuantity); err != nil {
			return nil, err
		}
		remaining := po.Remaining(shipped + item.TotalQuantity)
		result.RemainingQuantity = &remaining
	}

	if err := repos.Items().Save(ctx, item); err != nil {
		return nil, err
	}

	var movements []*shipping.QuantityMovement
	sameOrder := previousOrder != nil && item.LinkedTo(*previousOrder)
	if previousOrder != nil && !sameOrder {
		movements = append(movements,
			shipping.NewMovement(*previousOrder, shipping.MovementOverseasReleased, -previousQty, 0).ForItem(item))
	}

	if err := s.syncMirroredShipments(ctx, repos, item, list, req.DirectFromFactory); err != nil {
		return nil, err
	}

	if po != nil {
		delta := item.TotalQuantity
		kind := shipping.MovementOverseasShipped
		if sameOrder {
			delta = item.TotalQuantity - previousQty
			kind = shipping.MovementOverseasAdjusted
		}
		if delta != 0 {
			version, err := bumpOrder(ctx, repos, po)
			if err != nil {
				return nil, err
			}
			movements = append(movements, shipping.NewMovement(po.ID, kind, delta, version).ForItem(item))
		}
	}
	if len(movements) > 0 {
		if err := repos.Movements().Append(ctx, movements...); err != nil {
			return nil, err
		}
	}

	arrived, err := repos.Arrivals().SumByPackingListItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	result.Item = ToPackingListItemResponse(item, arrived)
	return result, nil
}

// syncMirroredShipments keeps the factory rows that mirror item in line with it. An item
// that lost its purchase order link drops its mirror.
func (s *LedgerService) syncMirroredShipments(ctx context.Context, repos LedgerRepositories, item *shipping.PackingListItem, list *shipping.PackingList, direct bool) error {
	mirrors, err := repos.FactoryShipments().FindByPackingListItem(ctx, item.ID)
	if err != nil {
		return err
	}

	if !item.IsLinked() {
		if len(mirrors) > 0 {
			_, err = repos.FactoryShipments().DeleteByPackingListItems(ctx, []uuid.UUID{item.ID})
		}
		return err
	}

	if len(mirrors) == 0 {
		if !direct {
			return nil
		}
		shipment, err := shipping.NewDirectFactoryShipment(item, list)
		if err != nil {
			return err
		}
		return repos.FactoryShipments().Save(ctx, shipment)
	}

	for i := range mirrors {
		mirror := &mirrors[i]
		if i > 0 {
			if err := repos.FactoryShipments().Delete(ctx, mirror.ID); err != nil {
				return err
			}
			continue
		}
		mirror.SyncWithItem(item, list)
		if err := repos.FactoryShipments().Save(ctx, mirror); err != nil {
			return err
		}
	}
	return nil
}

// DeletePackingListItem deletes an item together with its arrivals and mirrored factory
// rows. The quantity it carried is released back to its purchase order.
func (s *LedgerService) DeletePackingListItem(ctx context.Context, itemID uuid.UUID) (*DeletionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opDeleteItem,
		telemetry.WithAttribute(telemetry.SpanAttrPackingListItemID, itemID.String()))
	defer span.End()

	var (
		result *DeletionResult
		key    *string
	)
	err := s.run(ctx, opDeleteItem, func(repos LedgerRepositories) error {
		item, err := repos.Items().FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		key = item.IdempotencyKey
		result, err = deleteItems(ctx, repos, item.PackingListID, []shipping.PackingListItem{*item})
		if err != nil {
			return err
		}
		return repos.Items().Delete(ctx, item.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result.ItemsDeleted = 1

	if key != nil && s.idempotency != nil {
		if err := s.idempotency.Forget(ctx, *key); err != nil {
			s.log(ctx).Warn("Failed to forget idempotency key", zap.String("key", *key), zap.Error(err))
		}
	}
	s.log(ctx).Info("Packing list item deleted",
		zap.String("item_id", itemID.String()),
		zap.Int64("arrivals_deleted", result.ArrivalsDeleted),
		zap.Int64("factory_shipments_deleted", result.FactoryShipmentsDeleted),
	)
	telemetry.SetOK(span)
	return result, nil
}

// DeletePackingList deletes a packing list with all its items, their arrivals and their
// mirrored factory rows in one transaction.
func (s *LedgerService) DeletePackingList(ctx context.Context, packingListID uuid.UUID) (*DeletionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opDeleteList,
		telemetry.WithAttribute(telemetry.SpanAttrPackingListID, packingListID.String()))
	defer span.End()

	var (
		result *DeletionResult
		keys   []string
	)
	err := s.run(ctx, opDeleteList, func(repos LedgerRepositories) error {
		list, err := repos.PackingLists().FindByID(ctx, packingListID)
		if err != nil {
			return err
		}
		items, err := repos.Items().FindByPackingList(ctx, list.ID)
		if err != nil {
			return err
		}
		keys = keys[:0]
		for _, item := range items {
			if item.IdempotencyKey != nil {
				keys = append(keys, *item.IdempotencyKey)
			}
		}
		result, err = deleteItems(ctx, repos, list.ID, items)
		if err != nil {
			return err
		}
		if result.ItemsDeleted, err = repos.Items().DeleteByPackingList(ctx, list.ID); err != nil {
			return err
		}
		return repos.PackingLists().Delete(ctx, list.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.idempotency != nil {
		for _, key := range keys {
			if err := s.idempotency.Forget(ctx, key); err != nil {
				s.log(ctx).Warn("Failed to forget idempotency key", zap.String("key", key), zap.Error(err))
			}
		}
	}
	s.log(ctx).Info("Packing list deleted",
		zap.String("packing_list_id", packingListID.String()),
		zap.Int64("items_deleted", result.ItemsDeleted),
		zap.Int64("arrivals_deleted", result.ArrivalsDeleted),
	)
	telemetry.SetOK(span)
	return result, nil
}

// deleteItems removes the arrivals and mirrored factory rows of items and logs the
// released quantities. The items themselves are left to the caller.
func deleteItems(ctx context.Context, repos LedgerRepositories, packingListID uuid.UUID, items []shipping.PackingListItem) (*DeletionResult, error) {
	result := &DeletionResult{PackingListID: packingListID, Released: []ReleasedQuantity{}}
	if len(items) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	arrivedByItem, err := repos.Arrivals().SumByPackingListItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	if result.ArrivalsDeleted, err = repos.Arrivals().DeleteByPackingListItems(ctx, ids); err != nil {
		return nil, err
	}
	if result.FactoryShipmentsDeleted, err = repos.FactoryShipments().DeleteByPackingListItems(ctx, ids); err != nil {
		return nil, err
	}

	released := map[uuid.UUID]int64{}
	var order []uuid.UUID
	var movements []*shipping.QuantityMovement
	for i := range items {
		item := &items[i]
		if !item.IsLinked() {
			continue
		}
		poID := *item.PurchaseOrderID
		if _, seen := released[poID]; !seen {
			order = append(order, poID)
		}
		released[poID] += item.TotalQuantity
		movements = append(movements,
			shipping.NewMovement(poID, shipping.MovementOverseasReleased, -item.TotalQuantity, 0).ForItem(item))
		if arrived := arrivedByItem[item.ID]; arrived > 0 {
			movements = append(movements,
				shipping.NewMovement(poID, shipping.MovementArrivalRemoved, -arrived, 0).ForItem(item))
		}
	}
	for _, poID := range order {
		result.Released = append(result.Released, ReleasedQuantity{PurchaseOrderID: poID, Quantity: released[poID]})
	}
	if len(movements) > 0 {
		if err := repos.Movements().Append(ctx, movements...); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// UpdateOrderedQuantity changes a purchase order's ordered quantity under the same lock the
// item mutations take, so it can never drop below what is already packed.
func (s *LedgerService) UpdateOrderedQuantity(ctx context.Context, purchaseOrderID uuid.UUID, req UpdateOrderedQuantityRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanServiceLedger, opResizeOrder,
		telemetry.WithAttribute(telemetry.SpanAttrPurchaseOrderID, purchaseOrderID.String()))
	defer span.End()

	var response PurchaseOrderResponse
	err := s.run(ctx, opResizeOrder, func(repos LedgerRepositories) error {
		po, shipped, err := lockOrder(ctx, repos, purchaseOrderID, uuid.Nil)
		if err != nil {
			return err
		}
		previous := po.OrderedQuantity
		if err := po.ChangeOrderedQuantity(req.OrderedQuantity, shipped); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().SaveWithLock(ctx, po); err != nil {
			return err
		}
		if delta := po.OrderedQuantity - previous; delta != 0 {
			if err := repos.Movements().Append(ctx,
				shipping.NewMovement(po.ID, shipping.MovementOrderResized, delta, po.Version)); err != nil {
				return err
			}
		}
		response = ToPurchaseOrderResponse(po)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return &response, nil
}

func (s *LedgerService) logRejection(ctx context.Context, op string, req PackingListItemRequest, err error) {
	var exceeded *shipping.QuantityExceededError
	if errors.As(err, &exceeded) {
		s.log(ctx).Info("Packing list item rejected",
			zap.String("operation", op),
			zap.String("purchase_order_id", exceeded.PurchaseOrderID.String()),
			zap.Int64("ordered", exceeded.OrderedQuantity),
			zap.Int64("already_shipped", exceeded.AlreadyShipped),
			zap.Int64("requested", exceeded.Requested),
		)
		return
	}
	if shared.CodeOf(err) == "" {
		s.log(ctx).Error("Packing list item mutation failed",
			zap.String("operation", op),
			zap.String("packing_list_id", req.PackingListID.String()),
			zap.Error(err),
		)
	}
}
