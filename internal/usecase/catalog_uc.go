// File: internal/usecase/catalog_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ CatalogUseCase = (*catalogUC)(nil)

// ProductInput carries the client-supplied fields for create/update.
type ProductInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Images      []string `json:"images"`
	Price       float64  `json:"price"`
	Stock       *int     `json:"stock"`
	Available   *bool    `json:"available"`
	Discount    float64  `json:"discount"`
}

type ServiceInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Available   *bool   `json:"available"`
}

// CatalogUseCase covers product and service CRUD for the storefront.
type CatalogUseCase interface {
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, sellerID string, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListServices(ctx context.Context, sellerID string) ([]*model.Service, error)
	GetService(ctx context.Context, id string) (*model.Service, error)
	CreateService(ctx context.Context, sellerID string, in ServiceInput) (*model.Service, error)
	UpdateService(ctx context.Context, id string, in ServiceInput) (*model.Service, error)
	DeleteService(ctx context.Context, id string) error
}

type catalogUC struct {
	products repository.ProductRepository
	services repository.ServiceRepository
	log      *zerolog.Logger
}

func NewCatalogUseCase(products repository.ProductRepository, services repository.ServiceRepository, logger *zerolog.Logger) *catalogUC {
	l := logger.With().Str("component", "CatalogUC").Logger()
	return &catalogUC{products: products, services: services, log: &l}
}

func (u *catalogUC) ListProducts(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	return u.products.List(ctx, repository.NoTX, filter)
}

func (u *catalogUC) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.products.FindByID(ctx, repository.NoTX, id)
}

func (u *catalogUC) CreateProduct(ctx context.Context, sellerID string, in ProductInput) (*model.Product, error) {
	p, err := model.NewProduct(in.Title, in.Category, in.Price, in.Stock, sellerID)
	if err != nil {
		return nil, err
	}
	p.Description = in.Description
	p.Brand = in.Brand
	p.Images = in.Images
	p.Discount = in.Discount
	if in.Available != nil {
		p.Available = *in.Available
	}
	if err := u.products.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	u.log.Info().Str("product_id", p.ID).Str("seller_id", sellerID).Msg("product created")
	return p, nil
}

func (u *catalogUC) UpdateProduct(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	p, err := u.products.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if in.Title != "" {
		p.Title = in.Title
	}
	if in.Category != "" {
		p.Category = in.Category
	}
	if in.Price > 0 {
		p.Price = in.Price
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Brand != "" {
		p.Brand = in.Brand
	}
	if len(in.Images) > 0 {
		p.Images = in.Images
	}
	if in.Stock != nil {
		p.Stock = in.Stock
	}
	if in.Available != nil {
		p.Available = *in.Available
	}
	if in.Discount > 0 {
		p.Discount = in.Discount
	}
	p.UpdatedAt = time.Now()
	if err := u.products.Update(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *catalogUC) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	return u.products.Delete(ctx, repository.NoTX, id)
}

func (u *catalogUC) ListServices(ctx context.Context, sellerID string) ([]*model.Service, error) {
	return u.services.ListBySeller(ctx, repository.NoTX, sellerID)
}

func (u *catalogUC) GetService(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.services.FindByID(ctx, repository.NoTX, id)
}

func (u *catalogUC) CreateService(ctx context.Context, sellerID string, in ServiceInput) (*model.Service, error) {
	s, err := model.NewService(in.Title, in.Category, in.Price, sellerID)
	if err != nil {
		return nil, err
	}
	s.Description = in.Description
	if in.Available != nil {
		s.Available = *in.Available
	}
	if err := u.services.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *catalogUC) UpdateService(ctx context.Context, id string, in ServiceInput) (*model.Service, error) {
	s, err := u.services.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if in.Title != "" {
		s.Title = in.Title
	}
	if in.Category != "" {
		s.Category = in.Category
	}
	if in.Price > 0 {
		s.Price = in.Price
	}
	if in.Description != "" {
		s.Description = in.Description
	}
	if in.Available != nil {
		s.Available = *in.Available
	}
	s.UpdatedAt = time.Now()
	if err := u.services.Update(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *catalogUC) DeleteService(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	return u.services.Delete(ctx, repository.NoTX, id)
}
