package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormMovementRepository persists the append-only quantity movement log
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts movements in one statement. Rows are never updated afterwards.
func (r *GormMovementRepository) Append(ctx context.Context, movements ...*shipping.QuantityMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(movements).Error)
}

// FindByPurchaseOrder pages through the movements of an order, oldest first by default
func (r *GormMovementRepository) FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID, filter shared.Filter) ([]shipping.QuantityMovement, error) {
	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "recorded_at", "asc"
	}
	query := r.db.WithContext(ctx).Where("purchase_order_id = ?", purchaseOrderID)
	query = movementOrdering.apply(query, filter)

	var movements []shipping.QuantityMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, translateError(err)
	}
	return movements, nil
}

var _ shipping.MovementRepository = (*GormMovementRepository)(nil)
