// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/adapter"
	"servido-backend/internal/domain/ports/repository"
	"servido-backend/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// notificationType is the only provider event kind the reconciler acts
// on; everything else is acknowledged and dropped.
const notificationTypePayment = "payment"

// lockTTL bounds how long a webhook delivery may hold the
// per-reference lock before a crashed handler stops blocking retries.
const lockTTL = 30 * time.Second

// Locker serializes concurrent webhook deliveries for the same
// external reference. Satisfied by the redis-backed locker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// WebhookUseCase reconciles asynchronous payment notifications.
//
// Per purchase id the state machine is pending → approved-committed or
// pending → discarded; both terminal states are reached by deleting the
// pending record, so a duplicate delivery observes ErrNotFound and is a
// no-op. The pending record is never recreated on not-found.
type WebhookUseCase interface {
	// HandlePaymentNotification resolves a product-payment webhook.
	HandlePaymentNotification(ctx context.Context, notifType, paymentID string) error
	// HandleSubscriptionNotification resolves a webhook delivered by
	// the subscription credential set.
	HandleSubscriptionNotification(ctx context.Context, notifType, paymentID string) error
}

type webhookUC struct {
	gateway    adapter.PaymentGateway // product payments account
	subGateway adapter.PaymentGateway // subscription payments account
	pending    repository.PendingPurchaseRepository
	purchases  repository.PurchaseRepository
	failed     repository.FailedPurchaseRepository
	products   repository.ProductRepository
	subs       SubscriptionUseCase
	locker     Locker
	tm         repository.TransactionManager
	log        *zerolog.Logger
}

func NewWebhookUseCase(
	gateway, subGateway adapter.PaymentGateway,
	pending repository.PendingPurchaseRepository,
	purchases repository.PurchaseRepository,
	failed repository.FailedPurchaseRepository,
	products repository.ProductRepository,
	subs SubscriptionUseCase,
	locker Locker,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *webhookUC {
	l := logger.With().Str("component", "WebhookUC").Logger()
	return &webhookUC{
		gateway:    gateway,
		subGateway: subGateway,
		pending:    pending,
		purchases:  purchases,
		failed:     failed,
		products:   products,
		subs:       subs,
		locker:     locker,
		tm:         tm,
		log:        &l,
	}
}

func (u *webhookUC) HandlePaymentNotification(ctx context.Context, notifType, paymentID string) error {
	return u.handle(ctx, u.gateway, notifType, paymentID)
}

func (u *webhookUC) HandleSubscriptionNotification(ctx context.Context, notifType, paymentID string) error {
	return u.handle(ctx, u.subGateway, notifType, paymentID)
}

func (u *webhookUC) handle(ctx context.Context, gw adapter.PaymentGateway, notifType, paymentID string) error {
	if paymentID == "" {
		return domain.ErrInvalidArgument
	}
	if notifType != notificationTypePayment {
		u.log.Debug().Str("type", notifType).Msg("ignoring non-payment notification")
		return nil
	}

	// The webhook body is untrusted and minimal (type + id); the
	// external reference and status come from a provider lookup.
	info, err := gw.GetPayment(ctx, paymentID)
	if err != nil {
		u.log.Error().Err(err).Str("payment_id", paymentID).Msg("payment lookup failed")
		return err
	}

	ref, err := model.ParseExternalReference(info.ExternalReference)
	if err != nil {
		// Foreign or malformed reference: acknowledged, nothing to settle.
		u.log.Warn().Str("external_reference", info.ExternalReference).Msg("unrecognized external reference")
		return nil
	}

	switch r := ref.(type) {
	case model.PurchaseReference:
		return u.reconcilePurchase(ctx, r, info)
	case model.SubscriptionReference:
		return u.reconcileSubscription(ctx, r, info)
	default:
		return nil
	}
}

func (u *webhookUC) reconcilePurchase(ctx context.Context, ref model.PurchaseReference, info *adapter.PaymentInfo) error {
	token, err := u.locker.TryLock(ctx, "webhook:"+ref.String(), lockTTL)
	if err != nil {
		u.log.Warn().Str("purchase_id", ref.PurchaseID).Msg("concurrent delivery in flight, dropping")
		return domain.ErrLockUnavailable
	}
	defer func() { _ = u.locker.Unlock(ctx, "webhook:"+ref.String(), token) }()

	pp, err := u.pending.FindByID(ctx, repository.NoTX, ref.PurchaseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown id or already settled: this not-found IS the
			// idempotency boundary, do not recreate anything.
			metrics.IncWebhook("duplicate_or_unknown")
			u.log.Info().Str("purchase_id", ref.PurchaseID).Msg("no pending purchase for reference")
		}
		return err
	}

	switch info.Status {
	case adapter.PaymentStatusApproved:
		return u.commit(ctx, pp, info)
	case adapter.PaymentStatusRejected, adapter.PaymentStatusCancelled:
		if err := u.pending.Delete(ctx, repository.NoTX, pp.ID); err != nil {
			return err
		}
		metrics.IncWebhook("discarded")
		u.log.Info().Str("purchase_id", pp.ID).Str("status", info.Status).Msg("pending purchase discarded")
		return nil
	default:
		// Intermediate provider status; leave the record pending and
		// wait for a later delivery.
		metrics.IncWebhook("intermediate")
		u.log.Debug().Str("purchase_id", pp.ID).Str("status", info.Status).Msg("intermediate status, keeping pending")
		return nil
	}
}

// commit settles an approved order: per-line conditional stock
// decrement, archive the purchase, delete the pending record.
func (u *webhookUC) commit(ctx context.Context, pp *model.PendingPurchase, info *adapter.PaymentInfo) error {
	for _, line := range pp.Lines {
		applied, err := u.products.DecrementStock(ctx, repository.NoTX, line.ProductID, line.Quantity)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Product deleted between checkout and settlement.
				u.log.Warn().Str("product_id", line.ProductID).Msg("product gone at settlement")
				continue
			}
			return err
		}
		if !applied {
			// Stock ran out after checkout validation. The order still
			// commits; the shortfall is archived per line.
			fl := &model.FailedPurchaseLine{
				ID:        model.NewPurchaseID(),
				Reason:    "insufficient stock at settlement",
				Line:      line,
				BuyerID:   pp.BuyerID,
				PaymentID: info.ID,
				CreatedAt: time.Now(),
			}
			if err := u.failed.Save(ctx, repository.NoTX, fl); err != nil {
				u.log.Error().Err(err).Str("product_id", line.ProductID).Msg("failed purchase line write failed")
			}
			metrics.IncStockShortfall()
			continue
		}
	}

	purchase := &model.Purchase{
		ID:           pp.ID,
		BuyerID:      pp.BuyerID,
		BuyerEmail:   pp.BuyerEmail,
		Lines:        pp.Lines,
		Subtotal:     pp.Subtotal,
		ShippingCost: pp.ShippingCost,
		FinalTotal:   pp.FinalTotal,
		PaymentID:    info.ID,
		Status:       info.Status,
		CreatedAt:    time.Now(),
	}

	// Archive and commit-marker delete travel together so a crash
	// between the two cannot leave a settled order both archived and
	// pending.
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.purchases.Save(ctx, tx, purchase); err != nil {
			return err
		}
		return u.pending.Delete(ctx, tx, pp.ID)
	})
	if err != nil {
		return fmt.Errorf("commit purchase %s: %w", pp.ID, err)
	}

	metrics.IncWebhook("committed")
	metrics.AddRevenue(purchase.FinalTotal)
	u.log.Info().
		Str("purchase_id", pp.ID).
		Str("payment_id", info.ID).
		Float64("final_total", purchase.FinalTotal).
		Msg("purchase committed")
	return nil
}

func (u *webhookUC) reconcileSubscription(ctx context.Context, ref model.SubscriptionReference, info *adapter.PaymentInfo) error {
	switch info.Status {
	case adapter.PaymentStatusApproved:
		return u.subs.HandleApproved(ctx, ref, info)
	case adapter.PaymentStatusRejected, adapter.PaymentStatusCancelled:
		return u.subs.HandleRejected(ctx, ref, info)
	default:
		u.log.Debug().Str("user_id", ref.UserID).Str("status", info.Status).Msg("intermediate subscription status")
		return nil
	}
}
