package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormFactoryShipmentRepository implements FactoryShipmentRepository using GORM
type GormFactoryShipmentRepository struct {
	db *gorm.DB
}

// NewGormFactoryShipmentRepository creates a new GormFactoryShipmentRepository
func NewGormFactoryShipmentRepository(db *gorm.DB) *GormFactoryShipmentRepository {
	return &GormFactoryShipmentRepository{db: db}
}

// FindByID finds a factory shipment by ID
func (r *GormFactoryShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.FactoryShipment, error) {
	var shipment shipping.FactoryShipment
	if err := r.db.WithContext(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &shipment, nil
}

// FindByPurchaseOrder lists factory shipments of an order, oldest first
func (r *GormFactoryShipmentRepository) FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]shipping.FactoryShipment, error) {
	var shipments []shipping.FactoryShipment
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("shipped_date ASC, id ASC").
		Find(&shipments).Error
	if err != nil {
		return nil, translateError(err)
	}
	return shipments, nil
}

// FindByPackingListItem lists the shipments mirroring a packing list item
func (r *GormFactoryShipmentRepository) FindByPackingListItem(ctx context.Context, itemID uuid.UUID) ([]shipping.FactoryShipment, error) {
	var shipments []shipping.FactoryShipment
	if err := r.db.WithContext(ctx).Where("packing_list_item_id = ?", itemID).Find(&shipments).Error; err != nil {
		return nil, translateError(err)
	}
	return shipments, nil
}

// Save creates or updates a factory shipment
func (r *GormFactoryShipmentRepository) Save(ctx context.Context, shipment *shipping.FactoryShipment) error {
	return translateError(r.db.WithContext(ctx).Save(shipment).Error)
}

// Delete removes a factory shipment
func (r *GormFactoryShipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&shipping.FactoryShipment{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByPackingListItems removes the shipments mirroring any of itemIDs
func (r *GormFactoryShipmentRepository) DeleteByPackingListItems(ctx context.Context, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&shipping.FactoryShipment{}, "packing_list_item_id IN ?", itemIDs)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

var _ shipping.FactoryShipmentRepository = (*GormFactoryShipmentRepository)(nil)
