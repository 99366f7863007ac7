package repository

import (
	"context"

	"servido-backend/internal/domain/model"
)

// -----------------------------
// Catalog
// -----------------------------

type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	List(ctx context.Context, tx Tx, filter model.ProductFilter) ([]*model.Product, error)
	Update(ctx context.Context, tx Tx, p *model.Product) error
	Delete(ctx context.Context, tx Tx, id string) error
	// DecrementStock atomically decrements stock by quantity and
	// reports whether it applied. It applies when the product has no
	// declared stock (unlimited, no-op decrement) or when stock covers
	// the quantity; otherwise it returns false with no change.
	DecrementStock(ctx context.Context, tx Tx, id string, quantity int) (bool, error)
}

type ServiceRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Service) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Service, error)
	ListBySeller(ctx context.Context, tx Tx, sellerID string) ([]*model.Service, error)
	Update(ctx context.Context, tx Tx, s *model.Service) error
	Delete(ctx context.Context, tx Tx, id string) error
}
