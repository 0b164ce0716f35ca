package shipping_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	app "github.com/venpus/mjshop-sub003/internal/application/shipping"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/persistence"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// ledgerFixture wires every shipping service to one in-memory sqlite database
type ledgerFixture struct {
	db        *gorm.DB
	orders    *app.PurchaseOrderService
	lists     *app.PackingListService
	ledger    *app.LedgerService
	factory   *app.FactoryShipmentService
	arrivals  *app.ArrivalService
	queries   *app.QueryService
	itemRepo  *persistence.GormPackingListItemRepository
	arrivalDB *persistence.GormKoreaArrivalRepository
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	d, err := persistence.Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.DB.AutoMigrate(persistence.LedgerModels()...))

	db := d.DB
	scope := persistence.NewGormLedgerScope(db, 0)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db)
	listRepo := persistence.NewGormPackingListRepository(db)
	itemRepo := persistence.NewGormPackingListItemRepository(db)
	arrivalRepo := persistence.NewGormKoreaArrivalRepository(db)

	return &ledgerFixture{
		db:        db,
		orders:    app.NewPurchaseOrderService(orderRepo, nil),
		lists:     app.NewPackingListService(listRepo, itemRepo, arrivalRepo, nil),
		ledger:    app.NewLedgerService(scope, itemRepo, arrivalRepo, nil),
		factory:   app.NewFactoryShipmentService(scope, persistence.NewGormFactoryShipmentRepository(db), nil),
		arrivals:  app.NewArrivalService(scope, arrivalRepo, nil),
		queries:   app.NewQueryService(orderRepo, persistence.NewGormShippingReadRepository(db), persistence.NewGormMovementRepository(db), nil),
		itemRepo:  itemRepo,
		arrivalDB: arrivalRepo,
	}
}

func (f *ledgerFixture) order(t *testing.T, number string, ordered int64) uuid.UUID {
	t.Helper()
	po, err := f.orders.Create(context.Background(), app.CreatePurchaseOrderRequest{
		OrderNumber:     number,
		ProductName:     "Canvas tote",
		FactoryName:     "Yiwu Factory",
		OrderedQuantity: ordered,
		OrderDate:       &testDay,
	})
	require.NoError(t, err)
	return po.ID
}

func (f *ledgerFixture) list(t *testing.T, code string, cost *decimal.Decimal) uuid.UUID {
	t.Helper()
	pl, err := f.lists.Create(context.Background(), app.CreatePackingListRequest{
		Code:             code,
		ShipmentDate:     testDay,
		LogisticsCompany: "CJ Logistics",
		ShippingCost:     cost,
	})
	require.NoError(t, err)
	return pl.ID
}

func (f *ledgerFixture) item(t *testing.T, listID, poID uuid.UUID, qty int64) app.PackingListItemResponse {
	t.Helper()
	result, err := f.ledger.CreateOrUpdatePackingListItem(context.Background(), itemRequest(listID, poID, qty))
	require.NoError(t, err)
	return result.Item
}

func (f *ledgerFixture) summary(t *testing.T, poID uuid.UUID) *shipping.ShippingSummary {
	t.Helper()
	s, err := f.queries.GetShippingSummary(context.Background(), poID)
	require.NoError(t, err)
	return s
}

func itemRequest(listID, poID uuid.UUID, qty int64) app.PackingListItemRequest {
	id := poID
	return app.PackingListItemRequest{
		PackingListID:   listID,
		PurchaseOrderID: &id,
		ProductName:     "Canvas tote",
		BoxCount:        2,
		Unit:            shipping.PackageUnitBox,
		TotalQuantity:   qty,
	}
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
