package model

import (
	"time"

	"servido-backend/internal/domain"

	"github.com/google/uuid"
)

// Service is a non-stocked catalog entry (e.g. an installation or a
// repair job). It shares the product listing surface but never takes
// part in stock reconciliation.
type Service struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Available   bool      `json:"available"`
	SellerID    string    `json:"sellerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Service) IsZero() bool { return s == nil || s.ID == "" }

func NewService(title, category string, price float64, sellerID string) (*Service, error) {
	if title == "" || category == "" || price <= 0 || sellerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Service{
		ID:        uuid.NewString(),
		Title:     title,
		Category:  category,
		Price:     price,
		Available: true,
		SellerID:  sellerID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
