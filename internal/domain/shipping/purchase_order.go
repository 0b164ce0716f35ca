package shipping

import (
	"strings"
	"time"

	"github.com/venpus/mjshop-sub003/internal/domain/shared"
)

// PurchaseOrder is the upstream order every shipped quantity is reconciled against.
// Version is bumped on every ledger mutation that touches the order.
type PurchaseOrder struct {
	shared.BaseEntity
	OrderNumber     string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProductName     string    `gorm:"type:varchar(200);not null"`
	FactoryName     string    `gorm:"type:varchar(200)"`
	OrderedQuantity int64     `gorm:"not null"`
	OrderDate       time.Time `gorm:"not null"`
	Version         int       `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a purchase order with a positive ordered quantity
func NewPurchaseOrder(orderNumber, productName, factoryName string, orderedQuantity int64, orderDate time.Time) (*PurchaseOrder, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, invalid("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, invalid("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if strings.TrimSpace(productName) == "" {
		return nil, invalid("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if orderedQuantity <= 0 {
		return nil, invalid("INVALID_QUANTITY", "Ordered quantity must be positive")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	return &PurchaseOrder{
		BaseEntity:      shared.NewBaseEntity(),
		OrderNumber:     orderNumber,
		ProductName:     strings.TrimSpace(productName),
		FactoryName:     strings.TrimSpace(factoryName),
		OrderedQuantity: orderedQuantity,
		OrderDate:       orderDate,
		Version:         1,
	}, nil
}

// Remaining returns how much can still be packed given the quantity already shipped
func (po *PurchaseOrder) Remaining(alreadyShipped int64) int64 {
	return clampZero(po.OrderedQuantity - alreadyShipped)
}

// CheckShipment verifies that adding requested on top of alreadyShipped stays within the order
func (po *PurchaseOrder) CheckShipment(alreadyShipped, requested int64) error {
	if requested <= 0 {
		return invalid("INVALID_QUANTITY", "Quantity must be positive")
	}
	if alreadyShipped+requested > po.OrderedQuantity {
		return &QuantityExceededError{
			PurchaseOrderID: po.ID,
			OrderedQuantity: po.OrderedQuantity,
			AlreadyShipped:  alreadyShipped,
			Requested:       requested,
		}
	}
	return nil
}

// ChangeOrderedQuantity edits the ordered quantity; it may never drop below what is already shipped
func (po *PurchaseOrder) ChangeOrderedQuantity(quantity, alreadyShipped int64) error {
	if quantity <= 0 {
		return invalid("INVALID_QUANTITY", "Ordered quantity must be positive")
	}
	if quantity < alreadyShipped {
		return newOrderedBelowShippedError(quantity, alreadyShipped)
	}
	po.OrderedQuantity = quantity
	po.BumpVersion()
	return nil
}

// BumpVersion marks the order as mutated by the ledger
func (po *PurchaseOrder) BumpVersion() {
	po.Version++
	po.Touch()
}
