// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/adapter"
	"servido-backend/internal/domain/ports/repository"
	"servido-backend/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CartLine is one requested product/quantity pair from the client.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Totals is the priced breakdown returned alongside the preference.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Final    float64 `json:"final"`
}

// CheckoutResult carries the provider session plus our computed totals.
type CheckoutResult struct {
	PreferenceID string `json:"preferenceId"`
	RedirectURL  string `json:"redirectUrl"`
	PurchaseID   string `json:"purchaseId"`
	Totals       Totals `json:"totals"`
}

type CheckoutUseCase interface {
	// CreatePreference validates the cart against the catalog, opens a
	// provider checkout session and persists the pending purchase.
	CreatePreference(ctx context.Context, buyerID, buyerEmail string, lines []CartLine, shippingCost float64) (*CheckoutResult, error)
	// History lists the buyer's settled purchases.
	History(ctx context.Context, buyerID string) ([]*model.Purchase, error)
	// GetPurchase returns one settled purchase, scoped to its buyer.
	GetPurchase(ctx context.Context, buyerID, purchaseID string) (*model.Purchase, error)
	// FailedLines lists settlement-time stock shortfalls recorded for
	// the buyer.
	FailedLines(ctx context.Context, buyerID string) ([]*model.FailedPurchaseLine, error)
}

// CheckoutURLs groups the callback endpoints stamped on every
// preference.
type CheckoutURLs struct {
	Notification   string // server-to-server webhook endpoint
	SuccessReturn  string
	FailureReturn  string
	PendingReturn  string
}

type checkoutUC struct {
	products  repository.ProductRepository
	pending   repository.PendingPurchaseRepository
	purchases repository.PurchaseRepository
	failed    repository.FailedPurchaseRepository
	gateway   adapter.PaymentGateway
	urls      CheckoutURLs
	log       *zerolog.Logger
}

func NewCheckoutUseCase(
	products repository.ProductRepository,
	pending repository.PendingPurchaseRepository,
	purchases repository.PurchaseRepository,
	failed repository.FailedPurchaseRepository,
	gateway adapter.PaymentGateway,
	urls CheckoutURLs,
	logger *zerolog.Logger,
) *checkoutUC {
	l := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{products: products, pending: pending, purchases: purchases, failed: failed, gateway: gateway, urls: urls, log: &l}
}

func (u *checkoutUC) CreatePreference(ctx context.Context, buyerID, buyerEmail string, lines []CartLine, shippingCost float64) (*CheckoutResult, error) {
	if buyerID == "" || buyerEmail == "" || len(lines) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if shippingCost < 0 {
		shippingCost = 0
	}

	validated := make([]model.PurchaseLine, 0, len(lines))
	items := make([]adapter.PreferenceItem, 0, len(lines))
	var subtotal float64

	for i, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			return nil, fmt.Errorf("line %d: %w", i, domain.ErrInvalidArgument)
		}
		p, err := u.products.FindByID(ctx, repository.NoTX, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		if !p.Available {
			return nil, fmt.Errorf("product %s: %w", p.Title, domain.ErrUnavailable)
		}
		if !p.HasStockFor(line.Quantity) {
			return nil, fmt.Errorf("product %s: %w", p.Title, domain.ErrInsufficientStock)
		}

		validated = append(validated, model.PurchaseLine{
			ProductID: p.ID,
			Quantity:  line.Quantity,
			SellerID:  p.SellerID,
			Name:      p.Title,
			Price:     p.Price,
			Stock:     p.Stock,
		})
		items = append(items, adapter.PreferenceItem{
			ID:        p.ID,
			Title:     p.Title,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
		})
		subtotal += p.Price * float64(line.Quantity)
	}

	purchaseID := model.NewPurchaseID()
	ref := model.PurchaseReference{PurchaseID: purchaseID}

	pref, err := u.gateway.CreatePreference(ctx, adapter.PreferenceRequest{
		Items:             items,
		ExternalReference: ref.String(),
		PayerEmail:        buyerEmail,
		ShippingCost:      shippingCost,
		NotificationURL:   u.urls.Notification,
		BackURLs: adapter.BackURLs{
			Success: u.urls.SuccessReturn,
			Failure: u.urls.FailureReturn,
			Pending: u.urls.PendingReturn,
		},
	})
	if err != nil {
		u.log.Error().Err(err).Str("purchase_id", purchaseID).Msg("provider preference creation failed")
		return nil, err
	}

	pp, err := model.NewPendingPurchase(purchaseID, buyerID, buyerEmail, validated, shippingCost)
	if err != nil {
		return nil, err
	}
	pp.PreferenceID = pref.ID

	// Persist before returning; the webhook can only settle what it can
	// look up. No stock is reserved here: two concurrent checkouts may
	// both validate against the same snapshot, and the shortfall is
	// absorbed at settlement time instead.
	if err := u.pending.Save(ctx, repository.NoTX, pp); err != nil {
		u.log.Error().Err(err).Str("purchase_id", purchaseID).Msg("pending purchase write failed")
		return nil, err
	}

	metrics.IncCheckout()
	u.log.Info().
		Str("purchase_id", purchaseID).
		Str("preference_id", pref.ID).
		Float64("final_total", pp.FinalTotal).
		Int("lines", len(validated)).
		Msg("checkout preference created")

	return &CheckoutResult{
		PreferenceID: pref.ID,
		RedirectURL:  pref.RedirectURL,
		PurchaseID:   purchaseID,
		Totals: Totals{
			Subtotal: pp.Subtotal,
			Shipping: pp.ShippingCost,
			Final:    pp.FinalTotal,
		},
	}, nil
}

func (u *checkoutUC) History(ctx context.Context, buyerID string) ([]*model.Purchase, error) {
	if buyerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.purchases.ListByBuyer(ctx, repository.NoTX, buyerID)
}

// GetPurchase hides other buyers' orders behind ErrNotFound rather
// than leaking their existence.
func (u *checkoutUC) GetPurchase(ctx context.Context, buyerID, purchaseID string) (*model.Purchase, error) {
	if buyerID == "" || purchaseID == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, err := u.purchases.FindByID(ctx, repository.NoTX, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.BuyerID != buyerID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (u *checkoutUC) FailedLines(ctx context.Context, buyerID string) ([]*model.FailedPurchaseLine, error) {
	if buyerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.failed.ListByBuyer(ctx, repository.NoTX, buyerID)
}
