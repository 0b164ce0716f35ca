package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrdering_Column(t *testing.T) {
	tests := []struct {
		name      string
		ordering  ordering
		requested string
		want      string
	}{
		{"allowed", purchaseOrderOrdering, "order_date", "order_date"},
		{"padded", purchaseOrderOrdering, "  factory_name ", "factory_name"},
		{"empty falls back", purchaseOrderOrdering, "", "created_at"},
		{"fallback itself", packingListOrdering, "shipment_date", "shipment_date"},
		{"unknown column", packingListOrdering, "cost_krw", "shipment_date"},
		{"case sensitive", packingListOrdering, "CODE", "shipment_date"},
		{"injection", purchaseOrderOrdering, "id; DROP TABLE purchase_orders;--", "created_at"},
		{"movement delta", movementOrdering, "delta", "delta"},
		{"movement id not exposed", movementOrdering, "id", "recorded_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ordering.column(tt.requested))
		})
	}
}

func TestDirection(t *testing.T) {
	cases := map[string]string{
		"":         "DESC",
		"asc":      "ASC",
		" ASC ":    "ASC",
		"desc":     "DESC",
		"sideways": "DESC",
		"ASC;--":   "DESC",
	}
	for in, want := range cases {
		assert.Equal(t, want, direction(in), "input %q", in)
	}
}

func TestSearchPattern(t *testing.T) {
	assert.Equal(t, "%po-2026%", searchPattern("  PO-2026 "))
	assert.Equal(t, "%%", searchPattern(""))
}
