package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
)

// ListFilter represents pagination and search options for list endpoints
type ListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ListFilter) toDomain() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	return filter
}

// ============================================
// Purchase orders
// ============================================

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	OrderNumber     string     `json:"order_number" binding:"required,max=50"`
	ProductName     string     `json:"product_name" binding:"required,max=200"`
	FactoryName     string     `json:"factory_name" binding:"max=200"`
	OrderedQuantity int64      `json:"ordered_quantity" binding:"required,gt=0"`
	OrderDate       *time.Time `json:"order_date"`
}

// UpdateOrderedQuantityRequest represents a request to change a purchase order's quantity
type UpdateOrderedQuantityRequest struct {
	OrderedQuantity int64 `json:"ordered_quantity" binding:"required,gt=0"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID              uuid.UUID `json:"id"`
	OrderNumber     string    `json:"order_number"`
	ProductName     string    `json:"product_name"`
	FactoryName     string    `json:"factory_name"`
	OrderedQuantity int64     `json:"ordered_quantity"`
	OrderDate       time.Time `json:"order_date"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToPurchaseOrderResponse converts a domain purchase order to a response
func ToPurchaseOrderResponse(po *shipping.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:              po.ID,
		OrderNumber:     po.OrderNumber,
		ProductName:     po.ProductName,
		FactoryName:     po.FactoryName,
		OrderedQuantity: po.OrderedQuantity,
		OrderDate:       po.OrderDate,
		Version:         po.Version,
		CreatedAt:       po.CreatedAt,
		UpdatedAt:       po.UpdatedAt,
	}
}

// ============================================
// Packing lists
// ============================================

// CreatePackingListRequest represents a request to create a packing list header
type CreatePackingListRequest struct {
	Code             string           `json:"code" binding:"required,max=50"`
	ShipmentDate     time.Time        `json:"shipment_date" binding:"required"`
	LogisticsCompany string           `json:"logistics_company" binding:"max=100"`
	WeightKg         *decimal.Decimal `json:"weight_kg"`
	ShippingCost     *decimal.Decimal `json:"shipping_cost"`
}

// UpdatePackingListRequest represents a partial update of a packing list header.
// Nil fields are left untouched; the Clear flags remove a recorded value.
type UpdatePackingListRequest struct {
	ShipmentDate          *time.Time       `json:"shipment_date"`
	LogisticsCompany      *string          `json:"logistics_company" binding:"omitempty,max=100"`
	WarehouseArrivalDate  *time.Time       `json:"warehouse_arrival_date"`
	ClearWarehouseArrival bool             `json:"clear_warehouse_arrival"`
	WeightKg              *decimal.Decimal `json:"weight_kg"`
	ShippingCost          *decimal.Decimal `json:"shipping_cost"`
	ClearShippingCost     bool             `json:"clear_shipping_cost"`
}

// PackingListResponse represents a packing list in API responses
type PackingListResponse struct {
	ID                   uuid.UUID                 `json:"id"`
	Code                 string                    `json:"code"`
	ShipmentDate         time.Time                 `json:"shipment_date"`
	LogisticsCompany     string                    `json:"logistics_company"`
	WarehouseArrivalDate *time.Time                `json:"warehouse_arrival_date,omitempty"`
	WeightKg             *decimal.Decimal          `json:"weight_kg,omitempty"`
	ShippingCost         *decimal.Decimal          `json:"shipping_cost,omitempty"`
	CostEntered          bool                      `json:"cost_entered"`
	TotalQuantity        int64                     `json:"total_quantity"`
	Items                []PackingListItemResponse `json:"items,omitempty"`
	CreatedAt            time.Time                 `json:"created_at"`
	UpdatedAt            time.Time                 `json:"updated_at"`
}

// ToPackingListResponse converts a domain packing list to a response without items
func ToPackingListResponse(list *shipping.PackingList) PackingListResponse {
	return PackingListResponse{
		ID:                   list.ID,
		Code:                 list.Code,
		ShipmentDate:         list.ShipmentDate,
		LogisticsCompany:     list.LogisticsCompany,
		WarehouseArrivalDate: list.WarehouseArrivalDate,
		WeightKg:             list.WeightKg,
		ShippingCost:         list.ShippingCost,
		CostEntered:          list.CostEntered(),
		CreatedAt:            list.CreatedAt,
		UpdatedAt:            list.UpdatedAt,
	}
}

// PackingListItemRequest creates or replaces a packing list item.
// ItemID nil means create. IdempotencyKey deduplicates creates.
type PackingListItemRequest struct {
	ItemID            *uuid.UUID           `json:"-"`
	PackingListID     uuid.UUID            `json:"-"`
	PurchaseOrderID   *uuid.UUID           `json:"purchase_order_id"`
	ProductName       string               `json:"product_name" binding:"max=200"`
	BoxCount          int                  `json:"box_count" binding:"min=0"`
	Unit              shipping.PackageUnit `json:"unit" binding:"omitempty,oneof=BOX BAG"`
	TotalQuantity     int64                `json:"total_quantity" binding:"required,gt=0"`
	DirectFromFactory bool                 `json:"direct_from_factory"`
	IdempotencyKey    string               `json:"idempotency_key" binding:"max=100"`
}

func (r PackingListItemRequest) details() shipping.ItemDetails {
	return shipping.ItemDetails{
		ProductName: r.ProductName,
		BoxCount:    r.BoxCount,
		Unit:        r.Unit,
	}
}

// PackingListItemResponse represents a packing list item in API responses
type PackingListItemResponse struct {
	ID              uuid.UUID            `json:"id"`
	PackingListID   uuid.UUID            `json:"packing_list_id"`
	PurchaseOrderID *uuid.UUID           `json:"purchase_order_id,omitempty"`
	ProductName     string               `json:"product_name"`
	BoxCount        int                  `json:"box_count"`
	Unit            shipping.PackageUnit `json:"unit"`
	TotalQuantity   int64                `json:"total_quantity"`
	ArrivedQuantity int64                `json:"arrived_quantity"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ToPackingListItemResponse converts a domain item to a response
func ToPackingListItemResponse(item *shipping.PackingListItem, arrived int64) PackingListItemResponse {
	return PackingListItemResponse{
		ID:              item.ID,
		PackingListID:   item.PackingListID,
		PurchaseOrderID: item.PurchaseOrderID,
		ProductName:     item.ProductName,
		BoxCount:        item.BoxCount,
		Unit:            item.Unit,
		TotalQuantity:   item.TotalQuantity,
		ArrivedQuantity: arrived,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

// ItemMutationResult is returned by a create or update of a packing list item
type ItemMutationResult struct {
	Item PackingListItemResponse `json:"item"`
	// Replayed is true when the idempotency key matched an existing item
	Replayed bool `json:"replayed"`
	// RemainingQuantity is what the linked purchase order can still ship after this change
	RemainingQuantity *int64 `json:"remaining_quantity,omitempty"`
}

// ReleasedQuantity is the quantity returned to a purchase order by a delete
type ReleasedQuantity struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	Quantity        int64     `json:"quantity"`
}

// DeletionResult summarises the rows removed by a cascading delete
type DeletionResult struct {
	PackingListID           uuid.UUID          `json:"packing_list_id"`
	ItemsDeleted            int64              `json:"items_deleted"`
	ArrivalsDeleted         int64              `json:"arrivals_deleted"`
	FactoryShipmentsDeleted int64              `json:"factory_shipments_deleted"`
	Released                []ReleasedQuantity `json:"released"`
}

// ============================================
// Factory shipments
// ============================================

// FactoryShipmentRequest records a manual factory shipment
type FactoryShipmentRequest struct {
	PurchaseOrderID uuid.UUID  `json:"purchase_order_id" binding:"required"`
	ShippedDate     time.Time  `json:"shipped_date" binding:"required"`
	Quantity        int64      `json:"quantity" binding:"required,gt=0"`
	TrackingNumber  string     `json:"tracking_number" binding:"max=100"`
	ReceivedDate    *time.Time `json:"received_date"`
}

// UpdateFactoryShipmentRequest replaces a manual factory shipment's fields
type UpdateFactoryShipmentRequest struct {
	ShippedDate    time.Time  `json:"shipped_date" binding:"required"`
	Quantity       int64      `json:"quantity" binding:"required,gt=0"`
	TrackingNumber string     `json:"tracking_number" binding:"max=100"`
	ReceivedDate   *time.Time `json:"received_date"`
}

// FactoryShipmentResponse represents a factory shipment in API responses
type FactoryShipmentResponse struct {
	ID                uuid.UUID  `json:"id"`
	PurchaseOrderID   uuid.UUID  `json:"purchase_order_id"`
	ShippedDate       time.Time  `json:"shipped_date"`
	Quantity          int64      `json:"quantity"`
	TrackingNumber    string     `json:"tracking_number"`
	ReceivedDate      *time.Time `json:"received_date,omitempty"`
	PackingListItemID *uuid.UUID `json:"packing_list_item_id,omitempty"`
	Synthetic         bool       `json:"synthetic"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ToFactoryShipmentResponse converts a domain factory shipment to a response
func ToFactoryShipmentResponse(f *shipping.FactoryShipment) FactoryShipmentResponse {
	return FactoryShipmentResponse{
		ID:                f.ID,
		PurchaseOrderID:   f.PurchaseOrderID,
		ShippedDate:       f.ShippedDate,
		Quantity:          f.Quantity,
		TrackingNumber:    f.TrackingNumber,
		ReceivedDate:      f.ReceivedDate,
		PackingListItemID: f.PackingListItemID,
		Synthetic:         f.IsSynthetic(),
		CreatedAt:         f.CreatedAt,
	}
}

// ============================================
// Korea arrivals
// ============================================

// RecordArrivalRequest records goods received in Korea for a packing list item
type RecordArrivalRequest struct {
	PackingListItemID uuid.UUID `json:"packing_list_item_id" binding:"required"`
	ArrivalDate       time.Time `json:"arrival_date" binding:"required"`
	Quantity          int64     `json:"quantity" binding:"required,gt=0"`
	Note              string    `json:"note" binding:"max=500"`
}

// UpdateArrivalRequest corrects a recorded arrival
type UpdateArrivalRequest struct {
	ArrivalDate time.Time `json:"arrival_date" binding:"required"`
	Quantity    int64     `json:"quantity" binding:"required,gt=0"`
	Note        string    `json:"note" binding:"max=500"`
}

// ArrivalResponse represents a Korea arrival in API responses
type ArrivalResponse struct {
	ID                uuid.UUID `json:"id"`
	PackingListItemID uuid.UUID `json:"packing_list_item_id"`
	ArrivalDate       time.Time `json:"arrival_date"`
	Quantity          int64     `json:"quantity"`
	Note              string    `json:"note,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ToArrivalResponse converts a domain arrival to a response
func ToArrivalResponse(a *shipping.KoreaArrival) ArrivalResponse {
	return ArrivalResponse{
		ID:                a.ID,
		PackingListItemID: a.PackingListItemID,
		ArrivalDate:       a.ArrivalDate,
		Quantity:          a.Quantity,
		Note:              a.Note,
		CreatedAt:         a.CreatedAt,
	}
}

// ArrivalResult is returned after recording or correcting an arrival
type ArrivalResult struct {
	Arrival             ArrivalResponse `json:"arrival"`
	ItemTotalQuantity   int64           `json:"item_total_quantity"`
	ItemArrivedQuantity int64           `json:"item_arrived_quantity"`
	// ExceedsItem flags an arrival total above what the item carried
	ExceedsItem bool `json:"exceeds_item"`
}

// ============================================
// Derived views
// ============================================

// DeliveryStatusResponse is the derived delivery status with the summary behind it
type DeliveryStatusResponse struct {
	PurchaseOrderID uuid.UUID                `json:"purchase_order_id"`
	Status          shipping.DeliveryStatus  `json:"status"`
	Stage           int                      `json:"stage"`
	Summary         shipping.ShippingSummary `json:"summary"`
}

// MovementResponse represents a quantity movement log entry
type MovementResponse struct {
	ID                uuid.UUID             `json:"id"`
	PurchaseOrderID   uuid.UUID             `json:"purchase_order_id"`
	PackingListID     *uuid.UUID            `json:"packing_list_id,omitempty"`
	PackingListItemID *uuid.UUID            `json:"packing_list_item_id,omitempty"`
	Kind              shipping.MovementKind `json:"kind"`
	Delta             int64                 `json:"delta"`
	OrderVersion      int                   `json:"order_version"`
	RecordedAt        time.Time             `json:"recorded_at"`
}

// ToMovementResponse converts a domain movement to a response
func ToMovementResponse(m *shipping.QuantityMovement) MovementResponse {
	return MovementResponse{
		ID:                m.ID,
		PurchaseOrderID:   m.PurchaseOrderID,
		PackingListID:     m.PackingListID,
		PackingListItemID: m.PackingListItemID,
		Kind:              m.Kind,
		Delta:             m.Delta,
		OrderVersion:      m.OrderVersion,
		RecordedAt:        m.RecordedAt,
	}
}
