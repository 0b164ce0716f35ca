package shipping

// DeliveryStatus is the derived delivery stage of a purchase order
type DeliveryStatus string

const (
	DeliveryStatusAwaitingShipment  DeliveryStatus = "AWAITING_SHIPMENT"
	DeliveryStatusInTransitOverseas DeliveryStatus = "IN_TRANSIT_OVERSEAS"
	DeliveryStatusInTransitDomestic DeliveryStatus = "IN_TRANSIT_DOMESTIC"
	DeliveryStatusArrived           DeliveryStatus = "ARRIVED"
)

// String returns the string representation
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a known status
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusAwaitingShipment, DeliveryStatusInTransitOverseas,
		DeliveryStatusInTransitDomestic, DeliveryStatusArrived:
		return true
	}
	return false
}

// Stage orders the statuses along the delivery path, starting at 0
func (s DeliveryStatus) Stage() int {
	switch s {
	case DeliveryStatusAwaitingShipment:
		return 0
	case DeliveryStatusInTransitOverseas:
		return 1
	case DeliveryStatusInTransitDomestic:
		return 2
	case DeliveryStatusArrived:
		return 3
	}
	return -1
}

// ArrivalMetadata carries the non-quantity facts the status depends on
type ArrivalMetadata struct {
	// WarehouseArrivalRecorded is true when any packing list carrying the order has a
	// warehouse arrival date
	WarehouseArrivalRecorded bool
}

// DeriveDeliveryStatus maps a shipping summary to its delivery status. The first matching
// rule wins: any arrival, nothing shipped, warehouse reached, otherwise overseas.
func DeriveDeliveryStatus(summary ShippingSummary, meta ArrivalMetadata) DeliveryStatus {
	switch {
	case summary.ArrivedQuantity > 0:
		return DeliveryStatusArrived
	case summary.ShippedQuantity == 0:
		return DeliveryStatusAwaitingShipment
	case meta.WarehouseArrivalRecorded:
		return DeliveryStatusInTransitDomestic
	default:
		return DeliveryStatusInTransitOverseas
	}
}
