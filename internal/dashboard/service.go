package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/supplylink/supplylink/internal/actions"
	"github.com/supplylink/supplylink/internal/inventory"
	"github.com/supplylink/supplylink/internal/orders"
	"github.com/supplylink/supplylink/internal/vendors"
)

const (
	cacheKey = "supplylink:dashboard:summary"
	cacheTTL = 30 * time.Second
)

// OrderCounter supplies order counts per lifecycle status.
type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[orders.OrderStatus]int, error)
}

// ActionLister supplies the unresolved action queue.
type ActionLister interface {
	ListPending(ctx context.Context) ([]actions.Request, error)
}

// VendorLister supplies the vendor roster.
type VendorLister interface {
	List(ctx context.Context) ([]vendors.Vendor, error)
}

// StockLister supplies items below their reorder threshold.
type StockLister interface {
	LowStock(ctx context.Context, plantID string) ([]inventory.Item, error)
}

// Summary is the admin landing-page aggregate.
type Summary struct {
	OrdersByStatus  map[string]int `json:"ordersByStatus"`
	TotalOrders     int            `json:"totalOrders"`
	TotalOrdersText string         `json:"totalOrdersText"`
	PendingActions  int            `json:"pendingActions"`
	VendorsByStatus map[string]int `json:"vendorsByStatus"`
	LowStockItems   int            `json:"lowStockItems"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}

var numberPrinter = message.NewPrinter(language.English)

// Service aggregates cross-module counts for the admin dashboard, cached in
// redis for a short window since exactness is not worth four queries per
// page load.
type Service struct {
	orders    OrderCounter
	actions   ActionLister
	vendors   VendorLister
	inventory StockLister
	cache     *redis.Client
	logger    *slog.Logger
}

func NewService(orderCounter OrderCounter, actionLister ActionLister, vendorLister VendorLister, stockLister StockLister, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{orders: orderCounter, actions: actionLister, vendors: vendorLister, inventory: stockLister, cache: cache, logger: logger}
}

// Summary returns the cached aggregate, rebuilding it on a miss.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached Summary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	summary, err := s.build(ctx)
	if err != nil {
		return Summary{}, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil && s.logger != nil {
				s.logger.Warn("dashboard cache write failed", slog.Any("error", err))
			}
		}
	}
	return summary, nil
}

// Invalidate drops the cached aggregate so the next read rebuilds it.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKey).Err()
}

func (s *Service) build(ctx context.Context) (Summary, error) {
	orderCounts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return Summary{}, err
	}
	pending, err := s.actions.ListPending(ctx)
	if err != nil {
		return Summary{}, err
	}
	roster, err := s.vendors.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	lowStock, err := s.inventory.LowStock(ctx, "")
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		OrdersByStatus:  map[string]int{},
		VendorsByStatus: map[string]int{},
		PendingActions:  len(pending),
		LowStockItems:   len(lowStock),
		GeneratedAt:     time.Now().UTC(),
	}
	for status, count := range orderCounts {
		summary.OrdersByStatus[string(status)] = count
		summary.TotalOrders += count
	}
	summary.TotalOrdersText = numberPrinter.Sprintf("%d", summary.TotalOrders)
	for _, vendor := range roster {
		summary.VendorsByStatus[string(vendor.Status)]++
	}
	return summary, nil
}
