package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.PurchaseOrder, error) {
	var order shipping.PurchaseOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// FindByIDForUpdate loads the order with SELECT ... FOR UPDATE. Concurrent writers on the
// same order queue behind this lock until the surrounding transaction ends.
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*shipping.PurchaseOrder, error) {
	var order shipping.PurchaseOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// FindAll finds purchase orders with filtering
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipping.PurchaseOrder, error) {
	var orders []shipping.PurchaseOrder
	query := purchaseOrderOrdering.apply(r.search(ctx, filter), filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, translateError(err)
	}
	return orders, nil
}

// Count counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.search(ctx, filter).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *GormPurchaseOrderRepository) search(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&shipping.PurchaseOrder{})
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(product_name) LIKE ? OR LOWER(factory_name) LIKE ?",
			pattern, pattern, pattern)
	}
	return query
}

// ExistsByOrderNumber checks if an order number is taken
func (r *GormPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&shipping.PurchaseOrder{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Save creates or updates a purchase order
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *shipping.PurchaseOrder) error {
	return translateError(r.db.WithContext(ctx).Save(order).Error)
}

// SaveWithLock writes the order only if the stored version is the one it was loaded with.
// The caller has already bumped order.Version.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *shipping.PurchaseOrder) error {
	result := r.db.WithContext(ctx).Model(&shipping.PurchaseOrder{}).
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Updates(map[string]any{
			"order_number":     order.OrderNumber,
			"product_name":     order.ProductName,
			"factory_name":     order.FactoryName,
			"ordered_quantity": order.OrderedQuantity,
			"order_date":       order.OrderDate,
			"version":          order.Version,
			"updated_at":       order.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: purchase order %s is no longer at version %d",
			shared.ErrConcurrencyConflict, order.ID, order.Version-1)
	}
	return nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ shipping.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
