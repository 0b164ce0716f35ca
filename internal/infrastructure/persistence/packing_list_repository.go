package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormPackingListRepository implements PackingListRepository using GORM
type GormPackingListRepository struct {
	db *gorm.DB
}

// NewGormPackingListRepository creates a new GormPackingListRepository
func NewGormPackingListRepository(db *gorm.DB) *GormPackingListRepository {
	return &GormPackingListRepository{db: db}
}

// FindByID finds a packing list by ID
func (r *GormPackingListRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.PackingList, error) {
	var list shipping.PackingList
	if err := r.db.WithContext(ctx).First(&list, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &list, nil
}

// FindAll finds packing lists with filtering
func (r *GormPackingListRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipping.PackingList, error) {
	var lists []shipping.PackingList
	query := packingListOrdering.apply(r.search(ctx, filter), filter)
	if err := query.Find(&lists).Error; err != nil {
		return nil, translateError(err)
	}
	return lists, nil
}

// Count counts packing lists matching the filter
func (r *GormPackingListRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.search(ctx, filter).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *GormPackingListRepository) search(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&shipping.PackingList{})
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(logistics_company) LIKE ?", pattern, pattern)
	}
	return query
}

// ExistsByCode checks if a packing list code is taken
func (r *GormPackingListRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&shipping.PackingList{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Save creates or updates a packing list
func (r *GormPackingListRepository) Save(ctx context.Context, list *shipping.PackingList) error {
	return translateError(r.db.WithContext(ctx).Save(list).Error)
}

// Delete removes a packing list row. Items must be removed first by the caller.
func (r *GormPackingListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&shipping.PackingList{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormPackingListItemRepository implements PackingListItemRepository using GORM
type GormPackingListItemRepository struct {
	db *gorm.DB
}

// NewGormPackingListItemRepository creates a new GormPackingListItemRepository
func NewGormPackingListItemRepository(db *gorm.DB) *GormPackingListItemRepository {
	return &GormPackingListItemRepository{db: db}
}

// FindByID finds a packing list item by ID
func (r *GormPackingListItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.PackingListItem, error) {
	var item shipping.PackingListItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindByIdempotencyKey finds the item created with key
func (r *GormPackingListItemRepository) FindByIdempotencyKey(ctx context.Context, key string) (*shipping.PackingListItem, error) {
	var item shipping.PackingListItem
	if err := r.db.WithContext(ctx).First(&item, "idempotency_key = ?", key).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindByPackingList lists the items of a packing list in creation order
func (r *GormPackingListItemRepository) FindByPackingList(ctx context.Context, packingListID uuid.UUID) ([]shipping.PackingListItem, error) {
	var items []shipping.PackingListItem
	err := r.db.WithContext(ctx).
		Where("packing_list_id = ?", packingListID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

// FindByPurchaseOrder lists every item linked to a purchase order
func (r *GormPackingListItemRepository) FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]shipping.PackingListItem, error) {
	var items []shipping.PackingListItem
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

// SumQuantityByPurchaseOrder sums item quantities linked to the order, leaving out excludeItemID
func (r *GormPackingListItemRepository) SumQuantityByPurchaseOrder(ctx context.Context, purchaseOrderID, excludeItemID uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Model(&shipping.PackingListItem{}).
		Select("CAST(COALESCE(SUM(total_quantity), 0) AS BIGINT)").
		Where("purchase_order_id = ?", purchaseOrderID)
	if excludeItemID != uuid.Nil {
		query = query.Where("id <> ?", excludeItemID)
	}

	var total int64
	if err := query.Scan(&total).Error; err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

// Save creates or updates a packing list item
func (r *GormPackingListItemRepository) Save(ctx context.Context, item *shipping.PackingListItem) error {
	return translateError(r.db.WithContext(ctx).Save(item).Error)
}

// Delete removes a packing list item
func (r *GormPackingListItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&shipping.PackingListItem{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByPackingList removes every item of a packing list and reports how many went
func (r *GormPackingListItemRepository) DeleteByPackingList(ctx context.Context, packingListID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&shipping.PackingListItem{}, "packing_list_id = ?", packingListID)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

var (
	_ shipping.PackingListRepository     = (*GormPackingListRepository)(nil)
	_ shipping.PackingListItemRepository = (*GormPackingListItemRepository)(nil)
)
