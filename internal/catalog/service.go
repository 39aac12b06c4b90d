package catalog

import (
	"context"
	"errors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, errors.New("invalid product ID")
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, product Product) (Product, error) {
	if err := validateProduct(product); err != nil {
		return Product{}, err
	}
	return s.repo.CreateProduct(ctx, product)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, product Product) error {
	if id == "" {
		return errors.New("invalid product ID")
	}
	if err := validateProduct(product); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, id, product)
}

func (s *Service) ListPlants(ctx context.Context) ([]Plant, error) {
	return s.repo.ListPlants(ctx)
}

func (s *Service) GetPlant(ctx context.Context, id string) (Plant, error) {
	if id == "" {
		return Plant{}, errors.New("invalid plant ID")
	}
	return s.repo.GetPlant(ctx, id)
}

func (s *Service) CreatePlant(ctx context.Context, plant Plant) (Plant, error) {
	if plant.Name == "" {
		return Plant{}, errors.New("plant name required")
	}
	return s.repo.CreatePlant(ctx, plant)
}

func validateProduct(product Product) error {
	if product.Name == "" {
		return errors.New("product name required")
	}
	if product.Unit == "" {
		return errors.New("product unit required")
	}
	if product.RestockQuantity != nil && *product.RestockQuantity <= 0 {
		return errors.New("restock quantity must be positive")
	}
	return nil
}
