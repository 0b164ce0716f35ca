package shipping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
)

// FactoryShipment is a factory-to-forwarder movement for a purchase order.
// Rows with PackingListItemID set mirror an item shipped directly from the factory.
type FactoryShipment struct {
	shared.BaseEntity
	PurchaseOrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ShippedDate       time.Time `gorm:"not null"`
	Quantity          int64     `gorm:"not null"`
	TrackingNumber    string    `gorm:"type:varchar(100)"`
	ReceivedDate      *time.Time
	PackingListItemID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (FactoryShipment) TableName() string {
	return "factory_shipments"
}

// NewFactoryShipment records a manual factory shipment
func NewFactoryShipment(purchaseOrderID uuid.UUID, shippedDate time.Time, quantity int64, trackingNumber string) (*FactoryShipment, error) {
	if purchaseOrderID == uuid.Nil {
		return nil, invalid("INVALID_PURCHASE_ORDER", "Purchase order is required")
	}
	f := &FactoryShipment{
		BaseEntity:      shared.NewBaseEntity(),
		PurchaseOrderID: purchaseOrderID,
	}
	if err := f.Update(shippedDate, quantity, trackingNumber); err != nil {
		return nil, err
	}
	return f, nil
}

// NewDirectFactoryShipment mirrors a linked packing list item that left the factory directly
func NewDirectFactoryShipment(item *PackingListItem, list *PackingList) (*FactoryShipment, error) {
	if !item.IsLinked() {
		return nil, invalid("INVALID_PURCHASE_ORDER", "Direct factory shipments require a purchase order")
	}
	f, err := NewFactoryShipment(*item.PurchaseOrderID, list.ShipmentDate, item.TotalQuantity, list.Code)
	if err != nil {
		return nil, err
	}
	itemID := item.ID
	f.PackingListItemID = &itemID
	return f, nil
}

// Update replaces the shipment's date, quantity and tracking number
func (f *FactoryShipment) Update(shippedDate time.Time, quantity int64, trackingNumber string) error {
	if quantity <= 0 {
		return invalid("INVALID_QUANTITY", "Quantity must be positive")
	}
	if shippedDate.IsZero() {
		return invalid("INVALID_SHIPPED_DATE", "Shipped date is required")
	}
	f.ShippedDate = shippedDate
	f.Quantity = quantity
	f.TrackingNumber = strings.TrimSpace(trackingNumber)
	f.Touch()
	return nil
}

// SyncWithItem keeps a mirrored row in line with its packing list item
func (f *FactoryShipment) SyncWithItem(item *PackingListItem, list *PackingList) {
	if item.PurchaseOrderID != nil {
		f.PurchaseOrderID = *item.PurchaseOrderID
	}
	f.Quantity = item.TotalQuantity
	f.ShippedDate = list.ShipmentDate
	f.TrackingNumber = list.Code
	f.Touch()
}

// MarkReceived records when the forwarder received the goods
func (f *FactoryShipment) MarkReceived(date time.Time) error {
	if date.Before(f.ShippedDate) {
		return invalid("INVALID_RECEIVED_DATE", "Received date cannot be before the shipped date")
	}
	f.ReceivedDate = &date
	f.Touch()
	return nil
}

// IsReceived reports whether the forwarder has received the goods
func (f *FactoryShipment) IsReceived() bool {
	return f.ReceivedDate != nil
}

// IsSynthetic reports whether the row mirrors a packing list item
func (f *FactoryShipment) IsSynthetic() bool {
	return f.PackingListItemID != nil
}
