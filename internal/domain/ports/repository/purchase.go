package repository

import (
	"context"

	"servido-backend/internal/domain/model"
)

// -----------------------------
// Purchases
// -----------------------------

// PendingPurchaseRepository holds in-flight orders keyed by purchase
// id. Delete is the commit marker: once a terminal webhook removed the
// record, FindByID returns ErrNotFound and that not-found is the
// idempotency boundary for duplicate deliveries.
type PendingPurchaseRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PendingPurchase) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PendingPurchase, error)
	Delete(ctx context.Context, tx Tx, id string) error
}

// PurchaseRepository is the append-only archive of settled orders.
type PurchaseRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Purchase) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Purchase, error)
	ListByBuyer(ctx context.Context, tx Tx, buyerID string) ([]*model.Purchase, error)
}

// FailedPurchaseRepository archives settlement-time stock shortfalls.
type FailedPurchaseRepository interface {
	Save(ctx context.Context, tx Tx, f *model.FailedPurchaseLine) error
	ListByBuyer(ctx context.Context, tx Tx, buyerID string) ([]*model.FailedPurchaseLine, error)
}
