package persistence

import (
	"context"
	"fmt"
	"time"

	appshipping "github.com/venpus/mjshop-sub003/internal/application/shipping"
	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormLedgerScope implements LedgerScope using GORM transactions.
// On PostgreSQL every transaction bounds its row-lock waits with lock_timeout.
type GormLedgerScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormLedgerScope creates a new GormLedgerScope. A zero lockTimeout waits indefinitely.
func NewGormLedgerScope(db *gorm.DB, lockTimeout time.Duration) *GormLedgerScope {
	return &GormLedgerScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// If fn succeeds, the transaction is committed.
func (s *GormLedgerScope) Execute(ctx context.Context, fn func(repos appshipping.LedgerRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.applyLockTimeout(tx); err != nil {
			return err
		}
		return fn(&gormLedgerRepositories{tx: tx})
	})
	return translateError(err)
}

func (s *GormLedgerScope) applyLockTimeout(tx *gorm.DB) error {
	if s.lockTimeout <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	// SET does not accept bind parameters
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	return nil
}

// gormLedgerRepositories hands out repositories bound to one transaction
type gormLedgerRepositories struct {
	tx *gorm.DB
}

func (r *gormLedgerRepositories) PurchaseOrders() shipping.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormLedgerRepositories) PackingLists() shipping.PackingListRepository {
	return NewGormPackingListRepository(r.tx)
}

func (r *gormLedgerRepositories) Items() shipping.PackingListItemRepository {
	return NewGormPackingListItemRepository(r.tx)
}

func (r *gormLedgerRepositories) FactoryShipments() shipping.FactoryShipmentRepository {
	return NewGormFactoryShipmentRepository(r.tx)
}

func (r *gormLedgerRepositories) Arrivals() shipping.KoreaArrivalRepository {
	return NewGormKoreaArrivalRepository(r.tx)
}

func (r *gormLedgerRepositories) Movements() shipping.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

var (
	_ appshipping.LedgerScope        = (*GormLedgerScope)(nil)
	_ appshipping.LedgerRepositories = (*gormLedgerRepositories)(nil)
)
