package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
)

func TestGormPurchaseOrderRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)

	po := seedOrder(t, db, "PO-2026-001", 500)
	seedOrder(t, db, "PO-2026-002", 100)

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, "PO-2026-001", got.OrderNumber)
		assert.EqualValues(t, 500, got.OrderedQuantity)
	})

	t.Run("find for update outside a transaction still reads", func(t *testing.T) {
		got, err := repo.FindByIDForUpdate(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, po.ID, got.ID)
	})

	t.Run("missing order maps to not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "po-2026-00"
		orders, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, orders, 2)

		filter.Search = "002"
		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("rejects unknown sort field", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "ordered_quantity; DROP TABLE purchase_orders"
		orders, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("exists by order number", func(t *testing.T) {
		exists, err := repo.ExistsByOrderNumber(ctx, "PO-2026-001")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByOrderNumber(ctx, "PO-404")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate order number maps to already exists", func(t *testing.T) {
		dup, err := shipping.NewPurchaseOrder("PO-2026-001", "Other", "", 1, testDay)
		require.NoError(t, err)
		err = repo.Save(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestGormPurchaseOrderRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	po := seedOrder(t, db, "PO-LOCK", 100)

	first, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)

	require.NoError(t, first.ChangeOrderedQuantity(150, 0))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, stale.ChangeOrderedQuantity(90, 0))
	err = repo.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 150, got.OrderedQuantity)
	assert.Equal(t, 2, got.Version)
}

func TestGormPackingListItemRepository_Sums(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	items := NewGormPackingListItemRepository(db)

	po := seedOrder(t, db, "PO-SUM", 500)
	other := seedOrder(t, db, "PO-OTHER", 500)
	list := seedList(t, db, "PL-001", testDay, nil)
	a := seedItem(t, db, list, po, 120)
	seedItem(t, db, list, po, 80)
	seedItem(t, db, list, other, 300)
	seedItem(t, db, list, nil, 999)

	total, err := items.SumQuantityByPurchaseOrder(ctx, po.ID, uuid.Nil)
	require.NoError(t, err)
	assert.EqualValues(t, 200, total)

	excluding, err := items.SumQuantityByPurchaseOrder(ctx, po.ID, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 80, excluding)

	none, err := items.SumQuantityByPurchaseOrder(ctx, uuid.New(), uuid.Nil)
	require.NoError(t, err)
	assert.Zero(t, none)

	linked, err := items.FindByPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 2)

	inList, err := items.FindByPackingList(ctx, list.ID)
	require.NoError(t, err)
	assert.Len(t, inList, 4)
}

func TestGormPackingListItemRepository_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	items := NewGormPackingListItemRepository(db)
	po := seedOrder(t, db, "PO-IDEM", 100)
	list := seedList(t, db, "PL-IDEM", testDay, nil)

	poID := po.ID
	item, err := shipping.NewPackingListItem(list.ID, &poID, shipping.ItemDetails{}, 10)
	require.NoError(t, err)
	item.WithIdempotencyKey("req-1")
	require.NoError(t, items.Save(ctx, item))

	got, err := items.FindByIdempotencyKey(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, err = items.FindByIdempotencyKey(ctx, "req-2")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	dup, err := shipping.NewPackingListItem(list.ID, &poID, shipping.ItemDetails{}, 10)
	require.NoError(t, err)
	dup.WithIdempotencyKey("req-1")
	assert.ErrorIs(t, items.Save(ctx, dup), shared.ErrAlreadyExists)
}

func TestGormDeletes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	lists := NewGormPackingListRepository(db)
	items := NewGormPackingListItemRepository(db)
	arrivals := NewGormKoreaArrivalRepository(db)
	factory := NewGormFactoryShipmentRepository(db)

	po := seedOrder(t, db, "PO-DEL", 500)
	list := seedList(t, db, "PL-DEL", testDay, nil)
	i1 := seedItem(t, db, list, po, 100)
	i2 := seedItem(t, db, list, po, 50)
	seedArrival(t, db, i1, 40)
	seedArrival(t, db, i2, 50)

	mirror, err := shipping.NewDirectFactoryShipment(i1, list)
	require.NoError(t, err)
	require.NoError(t, factory.Save(ctx, mirror))

	ids := []uuid.UUID{i1.ID, i2.ID}

	removed, err := arrivals.DeleteByPackingListItems(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	removed, err = factory.DeleteByPackingListItems(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = items.DeleteByPackingList(ctx, list.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	require.NoError(t, lists.Delete(ctx, list.ID))
	assert.ErrorIs(t, lists.Delete(ctx, list.ID), shared.ErrNotFound)

	removed, err = arrivals.DeleteByPackingListItems(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestGormKoreaArrivalRepository_Sums(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	arrivals := NewGormKoreaArrivalRepository(db)

	po := seedOrder(t, db, "PO-ARR", 500)
	list := seedList(t, db, "PL-ARR", testDay, nil)
	i1 := seedItem(t, db, list, po, 100)
	i2 := seedItem(t, db, list, po, 100)
	i3 := seedItem(t, db, list, po, 100)
	seedArrival(t, db, i1, 30)
	seedArrival(t, db, i1, 20)
	seedArrival(t, db, i2, 100)

	sum, err := arrivals.SumByPackingListItem(ctx, i1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, sum)

	sums, err := arrivals.SumByPackingListItems(ctx, []uuid.UUID{i1.ID, i2.ID, i3.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{i1.ID: 50, i2.ID: 100}, sums)

	listed, err := arrivals.FindByPackingListItem(ctx, i1.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestGormMovementRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormMovementRepository(db)
	po := seedOrder(t, db, "PO-MOV", 500)
	list := seedList(t, db, "PL-MOV", testDay, nil)
	item := seedItem(t, db, list, po, 100)

	first := shipping.NewMovement(po.ID, shipping.MovementOverseasShipped, 100, 2).ForItem(item)
	second := shipping.NewMovement(po.ID, shipping.MovementOverseasAdjusted, -20, 3).ForItem(item)
	second.RecordedAt = first.RecordedAt.Add(time.Second)
	require.NoError(t, repo.Append(ctx, first, second))
	require.NoError(t, repo.Append(ctx))

	got, err := repo.FindByPurchaseOrder(ctx, po.ID, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, shipping.MovementOverseasShipped, got[0].Kind)
	assert.EqualValues(t, -20, got[1].Delta)
	assert.Equal(t, item.ID, *got[1].PackingListItemID)
}

func TestGormShippingReadRepository_OrderSnapshot(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	read := NewGormShippingReadRepository(db)
	factory := NewGormFactoryShipmentRepository(db)

	po := seedOrder(t, db, "PO-SNAP", 500)
	list := seedList(t, db, "PL-SNAP-1", testDay, nil)
	i1 := seedItem(t, db, list, po, 200)
	i2 := seedItem(t, db, list, po, 100)
	seedArrival(t, db, i1, 150)
	seedArrival(t, db, i2, 120)

	shipment, err := shipping.NewFactoryShipment(po.ID, testDay, 250, "TRK-1")
	require.NoError(t, err)
	require.NoError(t, shipment.MarkReceived(testDay.AddDate(0, 0, 2)))
	require.NoError(t, factory.Save(ctx, shipment))
	pending, err := shipping.NewFactoryShipment(po.ID, testDay, 50, "TRK-2")
	require.NoError(t, err)
	require.NoError(t, factory.Save(ctx, pending))

	snap, err := read.OrderSnapshot(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.QuantityTotals{
		Ordered:          500,
		Shipped:          300,
		Arrived:          270,
		FactoryShipped:   300,
		FactoryReceived:  250,
		OverArrivedItems: 1,
	}, snap.Totals)
	assert.False(t, snap.WarehouseArrivalRecorded)

	require.NoError(t, list.RecordWarehouseArrival(testDay.AddDate(0, 0, 12)))
	require.NoError(t, NewGormPackingListRepository(db).Save(ctx, list))

	snap, err = read.OrderSnapshot(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, snap.WarehouseArrivalRecorded)

	_, err = read.OrderSnapshot(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormShippingReadRepository_PackingListLoads(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	read := NewGormShippingReadRepository(db)

	po := seedOrder(t, db, "PO-COST", 500)
	other := seedOrder(t, db, "PO-COST-2", 500)
	early := seedList(t, db, "PL-A", testDay, decimalPtr("100000"))
	late := seedList(t, db, "PL-B", testDay.AddDate(0, 0, 7), nil)
	seedItem(t, db, early, po, 60)
	seedItem(t, db, early, po, 40)
	seedItem(t, db, early, other, 100)
	seedItem(t, db, late, po, 30)

	loads, err := read.PackingListLoads(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, loads, 2)

	assert.Equal(t, early.ID, loads[0].PackingListID)
	assert.Equal(t, "PL-A", loads[0].Code)
	require.NotNil(t, loads[0].ShippingCost)
	assert.Equal(t, "100000", loads[0].ShippingCost.String())
	assert.EqualValues(t, 200, loads[0].ListQuantity)
	assert.EqualValues(t, 100, loads[0].OrderQuantity)

	assert.Equal(t, "PL-B", loads[1].Code)
	assert.Nil(t, loads[1].ShippingCost)
	assert.EqualValues(t, 30, loads[1].ListQuantity)

	none, err := read.PackingListLoads(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormShippingReadRepository_CountOrdersWithAnomalies(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	read := NewGormShippingReadRepository(db)

	healthy := seedOrder(t, db, "PO-OK", 500)
	overArrived := seedOrder(t, db, "PO-BAD", 500)
	list := seedList(t, db, "PL-H", testDay, nil)
	seedItem(t, db, list, healthy, 100)
	item := seedItem(t, db, list, overArrived, 100)
	seedArrival(t, db, item, 130)

	counts, err := read.CountOrdersWithAnomalies(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		string(shipping.AnomalyOvershipped):        0,
		string(shipping.AnomalyOverArrived):        1,
		string(shipping.AnomalyArrivalExceedsItem): 1,
	}, counts)
}
