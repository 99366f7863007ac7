package adapter

import "context"

// PreferenceItem mirrors one validated cart line onto the provider's
// checkout session.
type PreferenceItem struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice float64
}

type BackURLs struct {
	Success string
	Failure string
	Pending string
}

// PreferenceRequest describes the checkout session we ask the provider
// to host. ExternalReference is echoed back unchanged in webhooks and
// is our only join key to the pending purchase.
type PreferenceRequest struct {
	Items             []PreferenceItem
	ExternalReference string
	PayerEmail        string
	ShippingCost      float64
	NotificationURL   string
	BackURLs          BackURLs
}

// Preference is the provider's created session: the id plus the URL
// the buyer is redirected to.
type Preference struct {
	ID          string
	RedirectURL string
}

// PaymentInfo is the provider's view of a settled (or settling)
// payment, looked up by payment id when a webhook arrives. The webhook
// payload itself is untrusted and carries only the id.
type PaymentInfo struct {
	ID                string
	Status            string
	ExternalReference string
	TransactionAmount float64
}

// Provider-reported payment statuses the reconciler dispatches on. Any
// other value is an intermediate state and leaves records untouched.
const (
	PaymentStatusApproved  = "approved"
	PaymentStatusRejected  = "rejected"
	PaymentStatusCancelled = "cancelled"
)

// PaymentGateway is the outbound port to the payment provider. Two
// instances are wired at startup: one per credential set (product
// payments and subscription payments).
type PaymentGateway interface {
	Name() string
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
}
