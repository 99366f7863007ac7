package model

import (
	"time"

	"servido-backend/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type PlanType string

const (
	PlanBasic   PlanType = "basic"
	PlanPremium PlanType = "premium"
)

// subscriptionWindow is the fixed validity granted per approved payment.
const subscriptionWindow = 30 * 24 * time.Hour

// PlanPrice returns the monthly price in ARS for a seller plan.
func PlanPrice(plan PlanType) float64 {
	if plan == PlanPremium {
		return 1999
	}
	return 999
}

func ValidPlan(plan PlanType) bool {
	return plan == PlanBasic || plan == PlanPremium
}

// Subscription is a seller entitlement window opened by an approved
// subscription payment. Status moves active→expired lazily once the
// end date has passed, or active→cancelled explicitly.
type Subscription struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	PlanType  PlanType           `json:"planType"`
	Status    SubscriptionStatus `json:"status"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`
	PaymentID string             `json:"paymentId"`
	AutoRenew bool               `json:"autoRenew"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (s *Subscription) IsZero() bool { return s == nil || s.ID == "" }

// IsOverdue reports whether an active subscription has outlived its
// window and should transition to expired.
func (s *Subscription) IsOverdue(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.After(s.EndDate)
}

// NewSubscription opens a 30-day window from the approval instant.
func NewSubscription(userID string, plan PlanType, paymentID string) (*Subscription, error) {
	if userID == "" || paymentID == "" || !ValidPlan(plan) {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanType:  plan,
		Status:    SubscriptionStatusActive,
		StartDate: now,
		EndDate:   now.Add(subscriptionWindow),
		PaymentID: paymentID,
		AutoRenew: true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Snapshot returns the denormalized view embedded on the user record.
func (s *Subscription) Snapshot() *SubscriptionSnapshot {
	return &SubscriptionSnapshot{
		Status:        s.Status,
		Plan:          s.PlanType,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		LastPaymentID: s.PaymentID,
	}
}
