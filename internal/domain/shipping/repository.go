package shipping

import (
	"context"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds a purchase order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate loads the order and holds a row lock on it until the transaction ends.
	// Only meaningful inside a LedgerScope transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindAll finds purchase orders with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)

	// Count counts purchase orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByOrderNumber checks if an order number is taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// Save creates or updates a purchase order
	Save(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock saves with optimistic locking; order.Version must already be bumped
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
}

// PackingListRepository defines the interface for packing list persistence
type PackingListRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PackingList, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]PackingList, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, list *PackingList) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PackingListItemRepository defines the interface for packing list item persistence
type PackingListItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PackingListItem, error)

	// FindByIdempotencyKey returns ErrNotFound when no item was created with key
	FindByIdempotencyKey(ctx context.Context, key string) (*PackingListItem, error)

	FindByPackingList(ctx context.Context, packingListID uuid.UUID) ([]PackingListItem, error)
	FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]PackingListItem, error)

	// SumQuantityByPurchaseOrder sums item quantities linked to the order, leaving out
	// excludeItemID (pass uuid.Nil to include everything)
	SumQuantityByPurchaseOrder(ctx context.Context, purchaseOrderID, excludeItemID uuid.UUID) (int64, error)

	Save(ctx context.Context, item *PackingListItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPackingList(ctx context.Context, packingListID uuid.UUID) (int64, error)
}

// FactoryShipmentRepository defines the interface for factory shipment persistence
type FactoryShipmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FactoryShipment, error)
	FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]FactoryShipment, error)
	FindByPackingListItem(ctx context.Context, itemID uuid.UUID) ([]FactoryShipment, error)
	Save(ctx context.Context, shipment *FactoryShipment) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPackingListItems(ctx context.Context, itemIDs []uuid.UUID) (int64, error)
}

// KoreaArrivalRepository defines the interface for Korea arrival persistence
type KoreaArrivalRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*KoreaArrival, error)
	FindByPackingListItem(ctx context.Context, itemID uuid.UUID) ([]KoreaArrival, error)
	SumByPackingListItem(ctx context.Context, itemID uuid.UUID) (int64, error)
	SumByPackingListItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	Save(ctx context.Context, arrival *KoreaArrival) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPackingListItems(ctx context.Context, itemIDs []uuid.UUID) (int64, error)
}

// MovementRepository persists the append-only quantity movement log
type MovementRepository interface {
	Append(ctx context.Context, movements ...*QuantityMovement) error
	FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID, filter shared.Filter) ([]QuantityMovement, error)
}

// OrderSnapshot is a single-statement read of everything the derived views need
type OrderSnapshot struct {
	Totals                   QuantityTotals
	WarehouseArrivalRecorded bool
}

// ShippingReadRepository answers the derived-view queries
type ShippingReadRepository interface {
	// OrderSnapshot returns ErrNotFound when the purchase order does not exist
	OrderSnapshot(ctx context.Context, purchaseOrderID uuid.UUID) (*OrderSnapshot, error)

	// PackingListLoads lists every packing list carrying the order
	PackingListLoads(ctx context.Context, purchaseOrderID uuid.UUID) ([]PackingListLoad, error)
}
