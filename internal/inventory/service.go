package inventory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/supplylink/supplylink/internal/catalog"
	"github.com/supplylink/supplylink/internal/shared"
)

// ProductCatalog is the read surface the stock service needs from the
// product catalog.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// casAttempts bounds optimistic-concurrency retries before surfacing the
// conflict to the caller.
const casAttempts = 3

// Service owns stock movements and the reorder-threshold rules.
type Service struct {
	repo           Repository
	products       ProductCatalog
	defaultRestock int
	logger         *slog.Logger
}

func NewService(repo Repository, products ProductCatalog, defaultRestock int, logger *slog.Logger) *Service {
	if defaultRestock <= 0 {
		defaultRestock = 100
	}
	return &Service{repo: repo, products: products, defaultRestock: defaultRestock, logger: logger}
}

func (s *Service) List(ctx context.Context, plantID string) ([]Item, error) {
	if plantID == "" {
		return nil, errors.New("plant ID required")
	}
	return s.repo.List(ctx, plantID)
}

func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	if item.PlantID == "" || item.ProductID == "" {
		return Item{}, errors.New("plant and product required")
	}
	if item.Quantity < 0 || item.ReorderThreshold < 0 {
		return Item{}, shared.ErrInvalidQuantity
	}
	if s.products != nil {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return Item{}, err
		}
		if item.Unit == "" {
			item.Unit = product.Unit
		} else if !product.AcceptsUnit(item.Unit) {
			return Item{}, shared.ErrInvalidItem
		}
	}
	return s.repo.Create(ctx, item)
}

func (s *Service) SetThreshold(ctx context.Context, id string, threshold int) error {
	if threshold < 0 {
		return shared.ErrInvalidQuantity
	}
	return s.repo.UpdateThreshold(ctx, id, threshold)
}

// Consume withdraws stock. The read-check-write cycle runs under a version
// compare-and-swap with a bounded retry; losers that keep losing see
// shared.ErrConflict and callers may retry at their level.
func (s *Service) Consume(ctx context.Context, id string, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, shared.ErrInvalidQuantity
	}
	return s.adjust(ctx, id, -quantity)
}

// Restock adds stock. A zero quantity means "use the suggested amount"
// (product override or the configured default).
func (s *Service) Restock(ctx context.Context, id string, quantity int) (Item, error) {
	if quantity < 0 {
		return Item{}, shared.ErrInvalidQuantity
	}
	if quantity == 0 {
		item, err := s.repo.Get(ctx, id)
		if err != nil {
			return Item{}, err
		}
		quantity, err = s.SuggestRestock(ctx, item)
		if err != nil {
			return Item{}, err
		}
	}
	return s.adjust(ctx, id, quantity)
}

func (s *Service) adjust(ctx context.Context, id string, delta int) (Item, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		item, err := s.repo.Get(ctx, id)
		if err != nil {
			return Item{}, err
		}
		next := item.Quantity + delta
		if next < 0 {
			return Item{}, shared.ErrInsufficientStock
		}
		err = s.repo.CompareAndSetQuantity(ctx, id, next, item.Version)
		if errors.Is(err, shared.ErrConflict) {
			continue
		}
		if err != nil {
			return Item{}, err
		}
		item.Quantity = next
		item.Version++
		return item, nil
	}
	if s.logger != nil {
		s.logger.Warn("stock adjustment lost the version race", slog.String("item_id", id), slog.Int("attempts", casAttempts))
	}
	return Item{}, shared.ErrConflict
}

// SuggestRestock resolves the quantity to reorder for an item: the product's
// restock override when set, the configured default otherwise.
func (s *Service) SuggestRestock(ctx context.Context, item Item) (int, error) {
	if s.products == nil {
		return s.defaultRestock, nil
	}
	product, err := s.products.GetProduct(ctx, item.ProductID)
	if errors.Is(err, shared.ErrNotFound) {
		return s.defaultRestock, nil
	}
	if err != nil {
		return 0, err
	}
	if product.RestockQuantity != nil && *product.RestockQuantity > 0 {
		return *product.RestockQuantity, nil
	}
	return s.defaultRestock, nil
}

func (s *Service) LowStock(ctx context.Context, plantID string) ([]Item, error) {
	return s.repo.ListLowStock(ctx, plantID)
}

func (s *Service) PlantIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListPlantIDs(ctx)
}
