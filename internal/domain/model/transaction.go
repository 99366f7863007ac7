package model

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is the append-only audit record written for every
// subscription payment outcome. Never updated.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"` // provider-reported status
	PaymentID string    `json:"paymentId"`
	PlanType  PlanType  `json:"planType"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewTransaction(userID string, amount float64, status, paymentID string, plan PlanType) *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Status:    status,
		PaymentID: paymentID,
		PlanType:  plan,
		CreatedAt: time.Now(),
	}
}
