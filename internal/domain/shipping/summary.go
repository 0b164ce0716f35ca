package shipping

import "github.com/google/uuid"

// Anomaly flags a ledger state that violates a quantity invariant. Anomalies are reported,
// never silently clamped away.
type Anomaly string

const (
	// AnomalyOvershipped means packed quantity exceeds the ordered quantity
	AnomalyOvershipped Anomaly = "OVERSHIPPED"
	// AnomalyOverArrived means arrived quantity exceeds the packed quantity
	AnomalyOverArrived Anomaly = "OVER_ARRIVED"
	// AnomalyArrivalExceedsItem means at least one item received more than it carried
	AnomalyArrivalExceedsItem Anomaly = "ARRIVAL_EXCEEDS_ITEM"
)

// QuantityTotals are the raw sums a shipping summary is derived from
type QuantityTotals struct {
	Ordered          int64
	Shipped          int64
	Arrived          int64
	FactoryShipped   int64
	FactoryReceived  int64
	OverArrivedItems int64
}

// ShippingSummary is the reconciled quantity view of one purchase order
type ShippingSummary struct {
	PurchaseOrderID         uuid.UUID `json:"purchase_order_id"`
	OrderedQuantity         int64     `json:"ordered_quantity"`
	ShippedQuantity         int64     `json:"shipped_quantity"`
	ArrivedQuantity         int64     `json:"arrived_quantity"`
	UnshippedQuantity       int64     `json:"unshipped_quantity"`
	InTransitQuantity       int64     `json:"in_transit_quantity"`
	FactoryShippedQuantity  int64     `json:"factory_shipped_quantity"`
	FactoryReceivedQuantity int64     `json:"factory_received_quantity"`
	Anomalies               []Anomaly `json:"anomalies"`
}

// ComputeSummary derives the shipping summary from raw totals.
// Without anomalies, unshipped + in transit + arrived always equals ordered.
func ComputeSummary(purchaseOrderID uuid.UUID, t QuantityTotals) ShippingSummary {
	s := ShippingSummary{
		PurchaseOrderID:         purchaseOrderID,
		OrderedQuantity:         t.Ordered,
		ShippedQuantity:         t.Shipped,
		ArrivedQuantity:         t.Arrived,
		UnshippedQuantity:       clampZero(t.Ordered - t.Shipped),
		InTransitQuantity:       clampZero(t.Shipped - t.Arrived),
		FactoryShippedQuantity:  t.FactoryShipped,
		FactoryReceivedQuantity: t.FactoryReceived,
		Anomalies:               []Anomaly{},
	}
	if t.Shipped > t.Ordered {
		s.Anomalies = append(s.Anomalies, AnomalyOvershipped)
	}
	if t.Arrived > t.Shipped {
		s.Anomalies = append(s.Anomalies, AnomalyOverArrived)
	}
	if t.OverArrivedItems > 0 {
		s.Anomalies = append(s.Anomalies, AnomalyArrivalExceedsItem)
	}
	return s
}

// HasAnomalies reports whether any invariant is violated
func (s ShippingSummary) HasAnomalies() bool {
	return len(s.Anomalies) > 0
}

// HasAnomaly reports whether the given anomaly is flagged
func (s ShippingSummary) HasAnomaly(a Anomaly) bool {
	for _, got := range s.Anomalies {
		if got == a {
			return true
		}
	}
	return false
}
