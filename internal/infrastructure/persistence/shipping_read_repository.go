package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"gorm.io/gorm"
)

// orderSnapshotSQL reads every total of one order in a single statement so the
// figures come from the same snapshot.
const orderSnapshotSQL = `
SELECT
	po.ordered_quantity AS ordered,
	(SELECT CAST(COALESCE(SUM(i.total_quantity), 0) AS BIGINT)
		FROM packing_list_items i WHERE i.purchase_order_id = po.id) AS shipped,
	(SELECT CAST(COALESCE(SUM(a.quantity), 0) AS BIGINT)
		FROM korea_arrivals a JOIN packing_list_items i ON i.id = a.packing_list_item_id
		WHERE i.purchase_order_id = po.id) AS arrived,
	(SELECT CAST(COALESCE(SUM(f.quantity), 0) AS BIGINT)
		FROM factory_shipments f WHERE f.purchase_order_id = po.id) AS factory_shipped,
	(SELECT CAST(COALESCE(SUM(f.quantity), 0) AS BIGINT)
		FROM factory_shipments f WHERE f.purchase_order_id = po.id AND f.received_date IS NOT NULL) AS factory_received,
	(SELECT COUNT(*) FROM packing_list_items i
		WHERE i.purchase_order_id = po.id
		AND i.total_quantity < (SELECT COALESCE(SUM(a.quantity), 0) FROM korea_arrivals a WHERE a.packing_list_item_id = i.id)) AS over_arrived_items,
	CASE WHEN EXISTS (
		SELECT 1 FROM packing_list_items i JOIN packing_lists pl ON pl.id = i.packing_list_id
		WHERE i.purchase_order_id = po.id AND pl.warehouse_arrival_date IS NOT NULL
	) THEN 1 ELSE 0 END AS warehouse_arrived
FROM purchase_orders po
WHERE po.id = ?`

const packingListLoadsSQL = `
SELECT
	pl.id AS packing_list_id,
	pl.code AS code,
	pl.shipping_cost AS shipping_cost,
	(SELECT CAST(COALESCE(SUM(all_i.total_quantity), 0) AS BIGINT)
		FROM packing_list_items all_i WHERE all_i.packing_list_id = pl.id) AS list_quantity,
	CAST(SUM(i.total_quantity) AS BIGINT) AS order_quantity
FROM packing_lists pl
JOIN packing_list_items i ON i.packing_list_id = pl.id
WHERE i.purchase_order_id = ?
GROUP BY pl.id, pl.code, pl.shipping_cost, pl.shipment_date
ORDER BY pl.shipment_date ASC, pl.code ASC`

const anomalyCountsSQL = `
SELECT
	(SELECT COUNT(*) FROM purchase_orders po
		WHERE po.ordered_quantity < (SELECT COALESCE(SUM(i.total_quantity), 0)
			FROM packing_list_items i WHERE i.purchase_order_id = po.id)) AS overshipped,
	(SELECT COUNT(*) FROM purchase_orders po
		WHERE (SELECT COALESCE(SUM(i.total_quantity), 0) FROM packing_list_items i WHERE i.purchase_order_id = po.id)
			< (SELECT COALESCE(SUM(a.quantity), 0) FROM korea_arrivals a
				JOIN packing_list_items i ON i.id = a.packing_list_item_id
				WHERE i.purchase_order_id = po.id)) AS over_arrived,
	(SELECT COUNT(DISTINCT i.purchase_order_id) FROM packing_list_items i
		WHERE i.purchase_order_id IS NOT NULL
		AND i.total_quantity < (SELECT COALESCE(SUM(a.quantity), 0) FROM korea_arrivals a WHERE a.packing_list_item_id = i.id)) AS arrival_exceeds_item`

// GormShippingReadRepository answers the derived-view queries with aggregate SQL
type GormShippingReadRepository struct {
	db *gorm.DB
}

// NewGormShippingReadRepository creates a new GormShippingReadRepository
func NewGormShippingReadRepository(db *gorm.DB) *GormShippingReadRepository {
	return &GormShippingReadRepository{db: db}
}

type orderSnapshotRow struct {
	Ordered          int64
	Shipped          int64
	Arrived          int64
	FactoryShipped   int64
	FactoryReceived  int64
	OverArrivedItems int64
	WarehouseArrived int64
}

// OrderSnapshot returns the totals of one purchase order
func (r *GormShippingReadRepository) OrderSnapshot(ctx context.Context, purchaseOrderID uuid.UUID) (*shipping.OrderSnapshot, error) {
	var rows []orderSnapshotRow
	if err := r.db.WithContext(ctx).Raw(orderSnapshotSQL, purchaseOrderID).Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	row := rows[0]
	return &shipping.OrderSnapshot{
		Totals: shipping.QuantityTotals{
			Ordered:          row.Ordered,
			Shipped:          row.Shipped,
			Arrived:          row.Arrived,
			FactoryShipped:   row.FactoryShipped,
			FactoryReceived:  row.FactoryReceived,
			OverArrivedItems: row.OverArrivedItems,
		},
		WarehouseArrivalRecorded: row.WarehouseArrived > 0,
	}, nil
}

type packingListLoadRow struct {
	PackingListID uuid.UUID
	Code          string
	ShippingCost  decimal.NullDecimal
	ListQuantity  int64
	OrderQuantity int64
}

// PackingListLoads lists every packing list carrying the order with both the order's
// share and the list's overall quantity
func (r *GormShippingReadRepository) PackingListLoads(ctx context.Context, purchaseOrderID uuid.UUID) ([]shipping.PackingListLoad, error) {
	var rows []packingListLoadRow
	if err := r.db.WithContext(ctx).Raw(packingListLoadsSQL, purchaseOrderID).Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	loads := make([]shipping.PackingListLoad, 0, len(rows))
	for _, row := range rows {
		load := shipping.PackingListLoad{
			PackingListID: row.PackingListID,
			Code:          row.Code,
			ListQuantity:  row.ListQuantity,
			OrderQuantity: row.OrderQuantity,
		}
		if row.ShippingCost.Valid {
			cost := row.ShippingCost.Decimal
			load.ShippingCost = &cost
		}
		loads = append(loads, load)
	}
	return loads, nil
}

// CountOrdersWithAnomalies counts purchase orders per anomaly across the whole ledger
func (r *GormShippingReadRepository) CountOrdersWithAnomalies(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var row struct {
		Overshipped        int64
		OverArrived        int64
		ArrivalExceedsItem int64
	}
	if err := r.db.WithContext(ctx).Raw(anomalyCountsSQL).Scan(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return map[string]int64{
		string(shipping.AnomalyOvershipped):        row.Overshipped,
		string(shipping.AnomalyOverArrived):        row.OverArrived,
		string(shipping.AnomalyArrivalExceedsItem): row.ArrivalExceedsItem,
	}, nil
}

var _ shipping.ShippingReadRepository = (*GormShippingReadRepository)(nil)
