package shipping

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const costScale = 4

// PackingListLoad describes how much of one packing list belongs to a purchase order
type PackingListLoad struct {
	PackingListID uuid.UUID
	Code          string
	ShippingCost  *decimal.Decimal
	ListQuantity  int64
	OrderQuantity int64
}

// PackingListCostShare is the part of one packing list's cost attributed to a purchase order
type PackingListCostShare struct {
	PackingListID    uuid.UUID       `json:"packing_list_id"`
	Code             string          `json:"code"`
	CostEntered      bool            `json:"cost_entered"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	ListQuantity     int64           `json:"list_quantity"`
	OrderQuantity    int64           `json:"order_quantity"`
	UnitShippingCost decimal.Decimal `json:"unit_shipping_cost"`
	AttributedCost   decimal.Decimal `json:"attributed_cost"`
}

// ShippingCost is the shipping cost attributed to one purchase order
type ShippingCost struct {
	PurchaseOrderID     uuid.UUID              `json:"purchase_order_id"`
	ShippedQuantity     int64                  `json:"shipped_quantity"`
	CostedQuantity      int64                  `json:"costed_quantity"`
	TotalCost           decimal.Decimal        `json:"total_cost"`
	UnitCost            decimal.Decimal        `json:"unit_cost"`
	CostPending         bool                   `json:"cost_pending"`
	PendingPackingLists int                    `json:"pending_packing_lists"`
	Shares              []PackingListCostShare `json:"shares"`
}

// AttributeShippingCost splits each packing list's cost over its quantity and charges the
// purchase order for the units it contributed. A list whose cost is unset or zero adds
// nothing and is reported as pending. UnitCost covers the costed units only.
func AttributeShippingCost(purchaseOrderID uuid.UUID, loads []PackingListLoad) ShippingCost {
	result := ShippingCost{
		PurchaseOrderID: purchaseOrderID,
		TotalCost:       decimal.Zero,
		UnitCost:        decimal.Zero,
		Shares:          make([]PackingListCostShare, 0, len(loads)),
	}

	for _, load := range loads {
		share := PackingListCostShare{
			PackingListID:    load.PackingListID,
			Code:             load.Code,
			ShippingCost:     decimal.Zero,
			ListQuantity:     load.ListQuantity,
			OrderQuantity:    load.OrderQuantity,
			UnitShippingCost: decimal.Zero,
			AttributedCost:   decimal.Zero,
		}
		result.ShippedQuantity += load.OrderQuantity

		share.CostEntered = costEntered(load.ShippingCost)
		if !share.CostEntered {
			result.PendingPackingLists++
			result.Shares = append(result.Shares, share)
			continue
		}
		share.ShippingCost = *load.ShippingCost
		if load.ListQuantity > 0 {
			listQty := decimal.NewFromInt(load.ListQuantity)
			share.UnitShippingCost = share.ShippingCost.DivRound(listQty, costScale)
			share.AttributedCost = share.ShippingCost.
				Mul(decimal.NewFromInt(load.OrderQuantity)).
				DivRound(listQty, costScale)
			result.CostedQuantity += load.OrderQuantity
		}
		result.TotalCost = result.TotalCost.Add(share.AttributedCost)
		result.Shares = append(result.Shares, share)
	}

	result.CostPending = result.PendingPackingLists > 0
	if result.CostedQuantity > 0 {
		result.UnitCost = result.TotalCost.DivRound(decimal.NewFromInt(result.CostedQuantity), costScale)
	}
	return result
}

func costEntered(cost *decimal.Decimal) bool {
	return cost != nil && cost.IsPositive()
}
