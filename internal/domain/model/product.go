package model

import (
	"time"

	"servido-backend/internal/domain"

	"github.com/google/uuid"
)

// Product is a catalog entry owned by a seller. Stock is a pointer:
// nil means the seller declared no stock limit and the product sells
// without decrementing anything.
type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand,omitempty"`
	Images      []string `json:"images,omitempty"`
	Price       float64  `json:"price"`
	Stock       *int     `json:"stock,omitempty"`
	Available   bool     `json:"available"`
	SellerID    string   `json:"sellerId"`
	Discount    float64  `json:"discount,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Product) IsZero() bool { return p == nil || p.ID == "" }

// HasStockFor reports whether the product can cover the requested
// quantity. Products without a declared stock are unlimited.
func (p *Product) HasStockFor(quantity int) bool {
	return p.Stock == nil || *p.Stock >= quantity
}

// NewProduct validates and constructs a catalog product.
func NewProduct(title, category string, price float64, stock *int, sellerID string) (*Product, error) {
	if title == "" || category == "" || price <= 0 || sellerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if stock != nil && *stock < 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Product{
		ID:        uuid.NewString(),
		Title:     title,
		Category:  category,
		Price:     price,
		Stock:     stock,
		Available: true,
		SellerID:  sellerID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ProductFilter narrows catalog listings. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Brand    string
	MinPrice float64
	MaxPrice float64
	Search   string
	SellerID string
}
