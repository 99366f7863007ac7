package repository

import (
	"context"
	"time"

	"servido-backend/internal/domain/model"
)

// -----------------------------
// Subscriptions
// -----------------------------

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	// FindActiveByUser returns the newest active subscription or ErrNotFound.
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.SubscriptionStatus, autoRenew bool) error
	// ListOverdue returns active subscriptions whose end date lies before now.
	ListOverdue(ctx context.Context, tx Tx, now time.Time) ([]*model.Subscription, error)
}

type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Transaction, error)
}
