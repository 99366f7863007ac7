// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/adapter"
	"servido-backend/internal/domain/ports/repository"
	"servido-backend/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase manages seller subscriptions: checkout for a
// plan, reconciliation of the recurring payment webhook, cancellation
// and expiry.
type SubscriptionUseCase interface {
	// CreatePreference opens a provider checkout session for a seller
	// plan and returns the redirect URL.
	CreatePreference(ctx context.Context, userID string, plan model.PlanType) (string, error)
	// HandleApproved grants the 30-day window: subscription record,
	// seller role upsert with merged snapshot, audit transaction.
	HandleApproved(ctx context.Context, ref model.SubscriptionReference, info *adapter.PaymentInfo) error
	// HandleRejected records the failed attempt for audit and changes
	// nothing else.
	HandleRejected(ctx context.Context, ref model.SubscriptionReference, info *adapter.PaymentInfo) error
	// Cancel turns the user's active subscription off explicitly.
	Cancel(ctx context.Context, userID string) error
	// StatusFor returns the user's current subscription, lazily
	// expiring it when the window has passed.
	StatusFor(ctx context.Context, userID string) (*model.Subscription, error)
	// FinishExpired sweeps overdue active subscriptions; returns the
	// number transitioned.
	FinishExpired(ctx context.Context) (int, error)
	// Transactions lists the user's payment audit records.
	Transactions(ctx context.Context, userID string) ([]*model.Transaction, error)
}

type subscriptionUC struct {
	users   repository.UserRepository
	subs    repository.SubscriptionRepository
	txns    repository.TransactionRepository
	gateway adapter.PaymentGateway // subscription credential set
	urls    CheckoutURLs
	log     *zerolog.Logger
}

func NewSubscriptionUseCase(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	txns repository.TransactionRepository,
	gateway adapter.PaymentGateway,
	urls CheckoutURLs,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{users: users, subs: subs, txns: txns, gateway: gateway, urls: urls, log: &l}
}

func (u *subscriptionUC) CreatePreference(ctx context.Context, userID string, plan model.PlanType) (string, error) {
	if userID == "" || !model.ValidPlan(plan) {
		return "", domain.ErrInvalidArgument
	}
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return "", fmt.Errorf("user %s: %w", userID, err)
	}

	ref := model.SubscriptionReference{UserID: userID, PlanType: plan}
	pref, err := u.gateway.CreatePreference(ctx, adapter.PreferenceRequest{
		Items: []adapter.PreferenceItem{{
			ID:        "subscription_" + string(plan),
			Title:     fmt.Sprintf("Seller plan %s", plan),
			Quantity:  1,
			UnitPrice: model.PlanPrice(plan),
		}},
		ExternalReference: ref.String(),
		PayerEmail:        user.Email,
		NotificationURL:   u.urls.Notification,
		BackURLs: adapter.BackURLs{
			Success: u.urls.SuccessReturn,
			Failure: u.urls.FailureReturn,
		},
	})
	if err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Msg("subscription preference creation failed")
		return "", err
	}

	u.log.Info().Str("user_id", userID).Str("plan", string(plan)).Str("preference_id", pref.ID).
		Msg("subscription preference created")
	return pref.RedirectURL, nil
}

func (u *subscriptionUC) HandleApproved(ctx context.Context, ref model.SubscriptionReference, info *adapter.PaymentInfo) error {
	// Provider deliveries are at-least-once; an active subscription
	// already granted for this payment id means this is a replay.
	existing, err := u.subs.FindActiveByUser(ctx, repository.NoTX, ref.UserID)
	switch {
	case err == nil && existing.PaymentID == info.ID:
		u.log.Info().Str("user_id", ref.UserID).Str("payment_id", info.ID).
			Msg("duplicate subscription approval ignored")
		return nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return err
	}

	sub, err := model.NewSubscription(ref.UserID, ref.PlanType, info.ID)
	if err != nil {
		return err
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}

	// Merge semantics: only role and the denormalized snapshot change,
	// the rest of the user record survives.
	if err := u.users.UpsertRole(ctx, repository.NoTX, ref.UserID, model.RoleSeller, sub.Snapshot()); err != nil {
		return fmt.Errorf("upsert seller role: %w", err)
	}

	txn := model.NewTransaction(ref.UserID, info.TransactionAmount, info.Status, info.ID, ref.PlanType)
	if err := u.txns.Save(ctx, repository.NoTX, txn); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}

	metrics.IncSubscription("approved")
	u.log.Info().
		Str("user_id", ref.UserID).
		Str("plan", string(ref.PlanType)).
		Str("payment_id", info.ID).
		Time("end_date", sub.EndDate).
		Msg("subscription activated")
	return nil
}

func (u *subscriptionUC) HandleRejected(ctx context.Context, ref model.SubscriptionReference, info *adapter.PaymentInfo) error {
	// Mirrors the purchase discard path at audit level only: the
	// attempt is recorded, no entitlement or role changes.
	txn := model.NewTransaction(ref.UserID, info.TransactionAmount, info.Status, info.ID, ref.PlanType)
	if err := u.txns.Save(ctx, repository.NoTX, txn); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	metrics.IncSubscription(info.Status)
	u.log.Info().Str("user_id", ref.UserID).Str("status", info.Status).Msg("subscription payment not approved")
	return nil
}

func (u *subscriptionUC) Cancel(ctx context.Context, userID string) error {
	sub, err := u.subs.FindActiveByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return err
	}
	if err := u.subs.UpdateStatus(ctx, repository.NoTX, sub.ID, model.SubscriptionStatusCancelled, false); err != nil {
		return err
	}
	sub.Status = model.SubscriptionStatusCancelled
	sub.AutoRenew = false
	// Role survives until the paid window runs out; only the snapshot
	// changes here.
	if err := u.users.UpsertRole(ctx, repository.NoTX, userID, model.RoleSeller, sub.Snapshot()); err != nil {
		return err
	}
	metrics.IncSubscription("cancelled")
	u.log.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Msg("subscription cancelled")
	return nil
}

func (u *subscriptionUC) StatusFor(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := u.subs.FindActiveByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveSub
		}
		return nil, err
	}
	if sub.IsOverdue(time.Now()) {
		if err := u.subs.UpdateStatus(ctx, repository.NoTX, sub.ID, model.SubscriptionStatusExpired, sub.AutoRenew); err != nil {
			return nil, err
		}
		sub.Status = model.SubscriptionStatusExpired
	}
	return sub, nil
}

func (u *subscriptionUC) FinishExpired(ctx context.Context) (int, error) {
	overdue, err := u.subs.ListOverdue(ctx, repository.NoTX, time.Now())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sub := range overdue {
		if err := u.subs.UpdateStatus(ctx, repository.NoTX, sub.ID, model.SubscriptionStatusExpired, sub.AutoRenew); err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("expiry update failed")
			continue
		}
		sub.Status = model.SubscriptionStatusExpired
		if err := u.users.UpsertRole(ctx, repository.NoTX, sub.UserID, model.RoleSeller, sub.Snapshot()); err != nil {
			u.log.Error().Err(err).Str("user_id", sub.UserID).Msg("snapshot refresh failed")
		}
		n++
	}
	return n, nil
}

func (u *subscriptionUC) Transactions(ctx context.Context, userID string) ([]*model.Transaction, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.txns.ListByUser(ctx, repository.NoTX, userID)
}
