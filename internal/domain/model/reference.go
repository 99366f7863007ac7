package model

import (
	"fmt"
	"strings"

	"servido-backend/internal/domain"
)

// External references are the join key between a checkout preference
// and the webhook that settles it. They are parsed exactly once at
// webhook entry into one of the typed variants below; the rest of the
// pipeline never touches the raw string again.

const (
	purchaseRefPrefix     = "purchase_"
	subscriptionRefPrefix = "subscription_"
)

// ExternalReference is the tagged union of reference kinds the webhook
// dispatcher understands.
type ExternalReference interface {
	isExternalReference()
	String() string
}

// PurchaseReference points at a pending purchase by its purchase id.
type PurchaseReference struct {
	PurchaseID string
}

func (PurchaseReference) isExternalReference() {}

func (r PurchaseReference) String() string { return purchaseRefPrefix + r.PurchaseID }

// SubscriptionReference identifies the user and plan a recurring
// seller-subscription payment belongs to.
type SubscriptionReference struct {
	UserID   string
	PlanType PlanType
}

func (SubscriptionReference) isExternalReference() {}

func (r SubscriptionReference) String() string {
	return fmt.Sprintf("%s%s_%s", subscriptionRefPrefix, r.UserID, r.PlanType)
}

// ParseExternalReference decodes a provider-echoed reference string.
// Unknown shapes return ErrInvalidArgument; the caller decides whether
// that is fatal (it is not for webhooks, which ignore foreign refs).
func ParseExternalReference(raw string) (ExternalReference, error) {
	switch {
	case strings.HasPrefix(raw, purchaseRefPrefix):
		id := strings.TrimPrefix(raw, purchaseRefPrefix)
		if id == "" {
			return nil, domain.ErrInvalidArgument
		}
		return PurchaseReference{PurchaseID: id}, nil
	case strings.HasPrefix(raw, subscriptionRefPrefix):
		rest := strings.TrimPrefix(raw, subscriptionRefPrefix)
		// user ids carry no underscores; the plan type is the last segment
		idx := strings.LastIndex(rest, "_")
		if idx <= 0 || idx == len(rest)-1 {
			return nil, domain.ErrInvalidArgument
		}
		return SubscriptionReference{
			UserID:   rest[:idx],
			PlanType: PlanType(rest[idx+1:]),
		}, nil
	default:
		return nil, domain.ErrInvalidArgument
	}
}
