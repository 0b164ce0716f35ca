package shipping

import (
	"time"

	"github.com/google/uuid"
)

// MovementKind classifies an entry in the quantity movement log
type MovementKind string

const (
	MovementOverseasShipped  MovementKind = "OVERSEAS_SHIPPED"
	MovementOverseasAdjusted MovementKind = "OVERSEAS_ADJUSTED"
	MovementOverseasReleased MovementKind = "OVERSEAS_RELEASED"
	MovementFactoryShipped   MovementKind = "FACTORY_SHIPPED"
	MovementArrived          MovementKind = "ARRIVED"
	MovementArrivalRemoved   MovementKind = "ARRIVAL_REMOVED"
	MovementOrderResized     MovementKind = "ORDER_RESIZED"
)

// QuantityMovement is an append-only record of a signed quantity change against a purchase order.
// Rows are never updated; the mutable tables stay the source of truth.
type QuantityMovement struct {
	ID                uuid.UUID    `gorm:"type:uuid;primary_key"`
	PurchaseOrderID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	PackingListID     *uuid.UUID   `gorm:"type:uuid"`
	PackingListItemID *uuid.UUID   `gorm:"type:uuid"`
	Kind              MovementKind `gorm:"type:varchar(30);not null"`
	Delta             int64        `gorm:"not null"`
	OrderVersion      int          `gorm:"not null;default:0"`
	RecordedAt        time.Time    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (QuantityMovement) TableName() string {
	return "quantity_movements"
}

// NewMovement creates a movement for a purchase order at the given order version
func NewMovement(purchaseOrderID uuid.UUID, kind MovementKind, delta int64, orderVersion int) *QuantityMovement {
	return &QuantityMovement{
		ID:              uuid.New(),
		PurchaseOrderID: purchaseOrderID,
		Kind:            kind,
		Delta:           delta,
		OrderVersion:    orderVersion,
		RecordedAt:      time.Now(),
	}
}

// ForItem attaches the packing list item (and its list) the movement came from
func (m *QuantityMovement) ForItem(item *PackingListItem) *QuantityMovement {
	itemID := item.ID
	listID := item.PackingListID
	m.PackingListItemID = &itemID
	m.PackingListID = &listID
	return m
}
