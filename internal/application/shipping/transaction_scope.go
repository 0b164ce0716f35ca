package shipping

import (
	"context"

	"github.com/venpus/mjshop-sub003/internal/domain/shipping"
)

// LedgerScope provides transactional access to the shipping repositories.
// Every quantity-affecting mutation runs inside exactly one Execute call, so its reads,
// validation and writes commit or roll back together.
type LedgerScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos LedgerRepositories) error) error
}

// LedgerRepositories provides access to all shipping repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type LedgerRepositories interface {
	PurchaseOrders() shipping.PurchaseOrderRepository
	PackingLists() shipping.PackingListRepository
	Items() shipping.PackingListItemRepository
	FactoryShipments() shipping.FactoryShipmentRepository
	Arrivals() shipping.KoreaArrivalRepository
	Movements() shipping.MovementRepository
}
