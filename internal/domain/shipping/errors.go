package shipping

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
)

// Ledger error codes
const (
	CodeQuantityExceeded    = "QUANTITY_EXCEEDED"
	CodeOrderedBelowShipped = "ORDERED_BELOW_SHIPPED"
	CodeSyntheticShipment   = "SYNTHETIC_SHIPMENT"
)

// ErrQuantityExceeded is the sentinel every QuantityExceededError unwraps to
var ErrQuantityExceeded = shared.NewDomainError(CodeQuantityExceeded, "Requested quantity exceeds the purchase order's remaining quantity")

// ErrSyntheticShipment is returned when a factory shipment that mirrors a packing list item
// is edited directly instead of through its item
var ErrSyntheticShipment = shared.NewDomainError(CodeSyntheticShipment, "Factory shipment is managed by its packing list item")

// QuantityExceededError reports a rejected packing list item quantity together with the
// figures the caller needs to present the remaining allowance.
type QuantityExceededError struct {
	PurchaseOrderID uuid.UUID
	OrderedQuantity int64
	AlreadyShipped  int64
	Requested       int64
}

// Available is the quantity that could still be shipped against the purchase order
func (e *QuantityExceededError) Available() int64 {
	return clampZero(e.OrderedQuantity - e.AlreadyShipped)
}

// Error implements the error interface
func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("purchase order %s: requested quantity %d exceeds available quantity %d (ordered %d, already shipped %d)",
		e.PurchaseOrderID, e.Requested, e.Available(), e.OrderedQuantity, e.AlreadyShipped)
}

// Unwrap exposes the QUANTITY_EXCEEDED domain error
func (e *QuantityExceededError) Unwrap() error {
	return ErrQuantityExceeded
}

func newOrderedBelowShippedError(ordered, shipped int64) *shared.DomainError {
	return shared.NewDomainError(CodeOrderedBelowShipped,
		fmt.Sprintf("Ordered quantity %d cannot be lower than the %d already packed for shipment", ordered, shipped))
}

func invalid(code, message string) *shared.DomainError {
	return shared.NewDomainError(code, message)
}

func clampZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
