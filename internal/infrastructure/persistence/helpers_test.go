package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// newTestDB opens an in-memory sqlite database with the ledger schema.
// One connection keeps every statement on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, d.DB.AutoMigrate(LedgerModels()...))
	return d.DB
}

func seedOrder(t *testing.T, db *gorm.DB, number string, ordered int64) *shipping.PurchaseOrder {
	t.Helper()
	po, err := shipping.NewPurchaseOrder(number, "Canvas tote", "Yiwu Factory", ordered, testDay)
	require.NoError(t, err)
	require.NoError(t, NewGormPurchaseOrderRepository(db).Save(context.Background(), po))
	return po
}

func seedList(t *testing.T, db *gorm.DB, code string, shipped time.Time, cost *decimal.Decimal) *shipping.PackingList {
	t.Helper()
	pl, err := shipping.NewPackingList(code, shipped, "CJ Logistics")
	require.NoError(t, err)
	require.NoError(t, pl.SetShippingCost(cost))
	require.NoError(t, NewGormPackingListRepository(db).Save(context.Background(), pl))
	return pl
}

func seedItem(t *testing.T, db *gorm.DB, list *shipping.PackingList, po *shipping.PurchaseOrder, qty int64) *shipping.PackingListItem {
	t.Helper()
	var poID *uuid.UUID
	if po != nil {
		id := po.ID
		poID = &id
	}
	item, err := shipping.NewPackingListItem(list.ID, poID, shipping.ItemDetails{ProductName: "Canvas tote", BoxCount: 1}, qty)
	require.NoError(t, err)
	require.NoError(t, NewGormPackingListItemRepository(db).Save(context.Background(), item))
	return item
}

func seedArrival(t *testing.T, db *gorm.DB, item *shipping.PackingListItem, qty int64) *shipping.KoreaArrival {
	t.Helper()
	arrival, err := shipping.NewKoreaArrival(item.ID, testDay.AddDate(0, 0, 10), qty, "")
	require.NoError(t, err)
	require.NoError(t, NewGormKoreaArrivalRepository(db).Save(context.Background(), arrival))
	return arrival
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
