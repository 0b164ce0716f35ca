package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormKoreaArrivalRepository implements KoreaArrivalRepository using GORM
type GormKoreaArrivalRepository struct {
	db *gorm.DB
}

// NewGormKoreaArrivalRepository creates a new GormKoreaArrivalRepository
func NewGormKoreaArrivalRepository(db *gorm.DB) *GormKoreaArrivalRepository {
	return &GormKoreaArrivalRepository{db: db}
}

// FindByID finds an arrival by ID
func (r *GormKoreaArrivalRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.KoreaArrival, error) {
	var arrival shipping.KoreaArrival
	if err := r.db.WithContext(ctx).First(&arrival, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &arrival, nil
}

// FindByPackingListItem lists the arrivals of an item, oldest first
func (r *GormKoreaArrivalRepository) FindByPackingListItem(ctx context.Context, itemID uuid.UUID) ([]shipping.KoreaArrival, error) {
	var arrivals []shipping.KoreaArrival
	err := r.db.WithContext(ctx).
		Where("packing_list_item_id = ?", itemID).
		Order("arrival_date ASC, id ASC").
		Find(&arrivals).Error
	if err != nil {
		return nil, translateError(err)
	}
	return arrivals, nil
}

// SumByPackingListItem sums the arrived quantity of one item
func (r *GormKoreaArrivalRepository) SumByPackingListItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&shipping.KoreaArrival{}).
		Select("CAST(COALESCE(SUM(quantity), 0) AS BIGINT)").
		Where("packing_list_item_id = ?", itemID).
		Scan(&total).Error
	if err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

// SumByPackingListItems sums arrived quantities per item. Items without arrivals are absent.
func (r *GormKoreaArrivalRepository) SumByPackingListItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	sums := make(map[uuid.UUID]int64, len(itemIDs))
	if len(itemIDs) == 0 {
		return sums, nil
	}

	var rows []struct {
		PackingListItemID uuid.UUID
		Total             int64
	}
	err := r.db.WithContext(ctx).Model(&shipping.KoreaArrival{}).
		Select("packing_list_item_id, CAST(SUM(quantity) AS BIGINT) AS total").
		Where("packing_list_item_id IN ?", itemIDs).
		Group("packing_list_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	for _, row := range rows {
		sums[row.PackingListItemID] = row.Total
	}
	return sums, nil
}

// Save creates or updates an arrival
func (r *GormKoreaArrivalRepository) Save(ctx context.Context, arrival *shipping.KoreaArrival) error {
	return translateError(r.db.WithContext(ctx).Save(arrival).Error)
}

// Delete removes an arrival
func (r *GormKoreaArrivalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&shipping.KoreaArrival{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByPackingListItems removes every arrival of itemIDs
func (r *GormKoreaArrivalRepository) DeleteByPackingListItems(ctx context.Context, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&shipping.KoreaArrival{}, "packing_list_item_id IN ?", itemIDs)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

var _ shipping.KoreaArrivalRepository = (*GormKoreaArrivalRepository)(nil)
