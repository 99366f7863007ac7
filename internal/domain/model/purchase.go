package model

import (
	"crypto/rand"
	"time"

	"servido-backend/internal/domain"

	"github.com/oklog/ulid/v2"
)

type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "pending" // awaiting a terminal webhook
)

// PurchaseLine is the snapshot of one validated cart line. Price and
// Stock capture the catalog state at checkout time; settlement re-reads
// the live stock, these fields are kept for the audit trail.
type PurchaseLine struct {
	ProductID    string  `json:"productId"`
	Quantity     int     `json:"quantity"`
	SellerID     string  `json:"sellerId"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Stock        *int    `json:"stock,omitempty"`
	PaidToSeller bool    `json:"paidToSeller"`
}

// PendingPurchase is the in-flight order created at checkout. It lives
// under its purchase id until a terminal webhook commits or discards
// it; the delete is the commit marker, so a given id is settled at most
// once.
type PendingPurchase struct {
	ID           string         `json:"id"`
	BuyerID      string         `json:"buyerId"`
	BuyerEmail   string         `json:"buyerEmail"`
	Lines        []PurchaseLine `json:"products"`
	Subtotal     float64        `json:"totalAmount"`
	ShippingCost float64        `json:"shippingCost"`
	FinalTotal   float64        `json:"finalTotal"`
	Status       PurchaseStatus `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	PreferenceID string         `json:"preferenceId"`
}

// Purchase is the finalized, append-only order record written on
// approved settlement. Never mutated by this flow afterwards.
type Purchase struct {
	ID            string         `json:"id"`
	BuyerID       string         `json:"buyerId"`
	BuyerEmail    string         `json:"buyerEmail"`
	Lines         []PurchaseLine `json:"products"`
	Subtotal      float64        `json:"totalAmount"`
	ShippingCost  float64        `json:"shippingCost"`
	FinalTotal    float64        `json:"finalTotal"`
	PaymentID     string         `json:"paymentId"`
	Status        string         `json:"status"` // provider-reported status
	PaidToSellers bool           `json:"paidToSellers"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// FailedPurchaseLine records a line that could not be settled because
// stock ran out between checkout and webhook delivery. Diagnostic
// trail only; it never blocks the rest of the order.
type FailedPurchaseLine struct {
	ID        string       `json:"id"`
	Reason    string       `json:"reason"`
	Line      PurchaseLine `json:"line"`
	BuyerID   string       `json:"buyerId"`
	PaymentID string       `json:"paymentId"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewPurchaseID returns a collision-resistant purchase identifier. A
// ULID keeps the creation timestamp embedded in the id while the 80
// random bits make a silent merge of two orders practically impossible.
func NewPurchaseID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewPendingPurchase assembles the in-flight record from validated
// lines. Totals are recomputed here so the persisted record can never
// disagree with the line snapshots.
func NewPendingPurchase(id, buyerID, buyerEmail string, lines []PurchaseLine, shippingCost float64) (*PendingPurchase, error) {
	if id == "" || buyerID == "" || buyerEmail == "" || len(lines) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if shippingCost < 0 {
		shippingCost = 0
	}
	var subtotal float64
	for _, l := range lines {
		subtotal += l.Price * float64(l.Quantity)
	}
	return &PendingPurchase{
		ID:           id,
		BuyerID:      buyerID,
		BuyerEmail:   buyerEmail,
		Lines:        lines,
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		FinalTotal:   subtotal + shippingCost,
		Status:       PurchaseStatusPending,
		CreatedAt:    time.Now(),
	}, nil
}
