package shipping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
)

// PackageUnit is the unit a packing list item's boxes are counted in
type PackageUnit string

const (
	PackageUnitBox PackageUnit = "BOX"
	PackageUnitBag PackageUnit = "BAG"
)

// IsValid reports whether the unit is known
func (u PackageUnit) IsValid() bool {
	return u == PackageUnitBox || u == PackageUnitBag
}

// PackingList is one overseas consignment. ShippingCost is nil until the forwarder bills it.
type PackingList struct {
	shared.BaseEntity
	Code                 string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	ShipmentDate         time.Time        `gorm:"not null"`
	LogisticsCompany     string           `gorm:"type:varchar(100)"`
	WarehouseArrivalDate *time.Time       `gorm:"index"`
	WeightKg             *decimal.Decimal `gorm:"type:decimal(18,3)"`
	ShippingCost         *decimal.Decimal `gorm:"type:decimal(18,2)"`
}

// TableName returns the table name for GORM
func (PackingList) TableName() string {
	return "packing_lists"
}

// NewPackingList creates a packing list header
func NewPackingList(code string, shipmentDate time.Time, logisticsCompany string) (*PackingList, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("INVALID_CODE", "Packing list code cannot be empty")
	}
	if len(code) > 50 {
		return nil, invalid("INVALID_CODE", "Packing list code cannot exceed 50 characters")
	}
	if shipmentDate.IsZero() {
		return nil, invalid("INVALID_SHIPMENT_DATE", "Shipment date is required")
	}
	return &PackingList{
		BaseEntity:       shared.NewBaseEntity(),
		Code:             code,
		ShipmentDate:     shipmentDate,
		LogisticsCompany: strings.TrimSpace(logisticsCompany),
	}, nil
}

// Reschedule changes the shipment date and forwarder
func (p *PackingList) Reschedule(shipmentDate time.Time, logisticsCompany string) error {
	if shipmentDate.IsZero() {
		return invalid("INVALID_SHIPMENT_DATE", "Shipment date is required")
	}
	if p.WarehouseArrivalDate != nil && p.WarehouseArrivalDate.Before(shipmentDate) {
		return invalid("INVALID_SHIPMENT_DATE", "Shipment date cannot be after the warehouse arrival date")
	}
	p.ShipmentDate = shipmentDate
	p.LogisticsCompany = strings.TrimSpace(logisticsCompany)
	p.Touch()
	return nil
}

// RecordWarehouseArrival sets the date the consignment reached the domestic warehouse
func (p *PackingList) RecordWarehouseArrival(date time.Time) error {
	if date.IsZero() {
		return invalid("INVALID_ARRIVAL_DATE", "Warehouse arrival date is required")
	}
	if date.Before(p.ShipmentDate) {
		return invalid("INVALID_ARRIVAL_DATE", "Warehouse arrival date cannot be before the shipment date")
	}
	p.WarehouseArrivalDate = &date
	p.Touch()
	return nil
}

// ClearWarehouseArrival removes a recorded warehouse arrival date
func (p *PackingList) ClearWarehouseArrival() {
	p.WarehouseArrivalDate = nil
	p.Touch()
}

// HasArrivedAtWarehouse reports whether a warehouse arrival date is recorded
func (p *PackingList) HasArrivedAtWarehouse() bool {
	return p.WarehouseArrivalDate != nil
}

// SetShippingCost records the billed cost; nil clears it
func (p *PackingList) SetShippingCost(cost *decimal.Decimal) error {
	if cost != nil && cost.IsNegative() {
		return invalid("INVALID_SHIPPING_COST", "Shipping cost cannot be negative")
	}
	p.ShippingCost = cost
	p.Touch()
	return nil
}

// SetWeight records the gross weight; nil clears it
func (p *PackingList) SetWeight(weightKg *decimal.Decimal) error {
	if weightKg != nil && weightKg.IsNegative() {
		return invalid("INVALID_WEIGHT", "Weight cannot be negative")
	}
	p.WeightKg = weightKg
	p.Touch()
	return nil
}

// CostEntered reports whether a non-zero shipping cost has been recorded
func (p *PackingList) CostEntered() bool {
	return costEntered(p.ShippingCost)
}

// ItemDetails are the descriptive fields of a packing list item
type ItemDetails struct {
	ProductName string
	BoxCount    int
	Unit        PackageUnit
}

func (d ItemDetails) normalize() (ItemDetails, error) {
	d.ProductName = strings.TrimSpace(d.ProductName)
	if d.Unit == "" {
		d.Unit = PackageUnitBox
	}
	if !d.Unit.IsValid() {
		return d, invalid("INVALID_UNIT", "Unit must be BOX or BAG")
	}
	if d.BoxCount < 0 {
		return d, invalid("INVALID_BOX_COUNT", "Box count cannot be negative")
	}
	return d, nil
}

// PackingListItem carries a quantity of one product in a packing list. Items linked to a
// purchase order count toward the order's shipped quantity.
type PackingListItem struct {
	shared.BaseEntity
	PackingListID   uuid.UUID   `gorm:"type:uuid;not null;index"`
	PurchaseOrderID *uuid.UUID  `gorm:"type:uuid;index"`
	ProductName     string      `gorm:"type:varchar(200)"`
	BoxCount        int         `gorm:"not null;default:0"`
	Unit            PackageUnit `gorm:"type:varchar(10);not null;default:'BOX'"`
	TotalQuantity   int64       `gorm:"not null"`
	IdempotencyKey  *string     `gorm:"type:varchar(100);uniqueIndex"`
}

// TableName returns the table name for GORM
func (PackingListItem) TableName() string {
	return "packing_list_items"
}

// NewPackingListItem creates an item in a packing list, optionally linked to a purchase order
func NewPackingListItem(packingListID uuid.UUID, purchaseOrderID *uuid.UUID, details ItemDetails, quantity int64) (*PackingListItem, error) {
	if packingListID == uuid.Nil {
		return nil, invalid("INVALID_PACKING_LIST", "Packing list is required")
	}
	item := &PackingListItem{
		BaseEntity:    shared.NewBaseEntity(),
		PackingListID: packingListID,
	}
	if err := item.Apply(purchaseOrderID, details, quantity); err != nil {
		return nil, err
	}
	return item, nil
}

// Apply replaces the item's link, details and quantity
func (i *PackingListItem) Apply(purchaseOrderID *uuid.UUID, details ItemDetails, quantity int64) error {
	if quantity <= 0 {
		return invalid("INVALID_QUANTITY", "Quantity must be positive")
	}
	d, err := details.normalize()
	if err != nil {
		return err
	}
	if purchaseOrderID != nil && *purchaseOrderID == uuid.Nil {
		purchaseOrderID = nil
	}
	i.PurchaseOrderID = purchaseOrderID
	i.ProductName = d.ProductName
	i.BoxCount = d.BoxCount
	i.Unit = d.Unit
	i.TotalQuantity = quantity
	i.Touch()
	return nil
}

// WithIdempotencyKey attaches the client supplied key used to deduplicate creation
func (i *PackingListItem) WithIdempotencyKey(key string) *PackingListItem {
	key = strings.TrimSpace(key)
	if key == "" {
		i.IdempotencyKey = nil
		return i
	}
	i.IdempotencyKey = &key
	return i
}

// IsLinked reports whether the item counts toward a purchase order
func (i *PackingListItem) IsLinked() bool {
	return i.PurchaseOrderID != nil
}

// LinkedTo reports whether the item counts toward the given purchase order
func (i *PackingListItem) LinkedTo(purchaseOrderID uuid.UUID) bool {
	return i.PurchaseOrderID != nil && *i.PurchaseOrderID == purchaseOrderID
}
