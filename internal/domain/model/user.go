package model

import (
	"time"

	"servido-backend/internal/domain"
)

type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleSeller UserRole = "seller"
)

// SubscriptionSnapshot is the denormalized view of a seller's current
// subscription kept on the user record. It is written with merge
// semantics by the subscription flow and read by the frontend; the
// subscriptions collection stays the source of truth.
type SubscriptionSnapshot struct {
	Status        SubscriptionStatus `json:"status"`
	Plan          PlanType           `json:"plan"`
	StartDate     time.Time          `json:"startDate"`
	EndDate       time.Time          `json:"endDate"`
	LastPaymentID string             `json:"lastPaymentId"`
}

type User struct {
	ID           string                `json:"id"`
	Email        string                `json:"email"`
	DisplayName  string                `json:"displayName,omitempty"`
	Role         UserRole              `json:"role"`
	IsSubscribed bool                  `json:"isSubscribed"`
	Subscription *SubscriptionSnapshot `json:"subscription,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

func NewUser(id, email string) (*User, error) {
	if id == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		Role:      RoleBuyer,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UserPatch carries profile fields a merge-update may change. Nil
// fields are left untouched.
type UserPatch struct {
	Email       *string
	DisplayName *string
}
