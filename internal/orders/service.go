package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/supplylink/supplylink/internal/catalog"
	"github.com/supplylink/supplylink/internal/shared"
	"github.com/supplylink/supplylink/internal/vendors"
)

// ProductCatalog is the read surface the order service needs from the
// product catalog.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// VendorDirectory gates order placement to approved vendors.
type VendorDirectory interface {
	Get(ctx context.Context, id string) (vendors.Vendor, error)
}

// cancelAttempts bounds the version-race retries of a forced cancellation.
const cancelAttempts = 3

// CreateOrderInput is the request to place a new purchase order.
type CreateOrderInput struct {
	VendorID             string
	PlantID              string
	ExpectedDeliveryDate time.Time
	Notes                string
	Items                []ItemInput
}

// ItemInput is a requested line item.
type ItemInput struct {
	ProductID string
	Quantity  int
	Unit      string
}

// Service owns the purchase-order lifecycle.
type Service struct {
	repo     Repository
	products ProductCatalog
	vendors  VendorDirectory
	audit    *shared.AuditLogger
	clock    shared.Clock
	logger   *slog.Logger
}

func NewService(repo Repository, products ProductCatalog, vendorDir VendorDirectory, audit *shared.AuditLogger, clock shared.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, products: products, vendors: vendorDir, audit: audit, clock: clock, logger: logger}
}

// Create validates and persists a new order. The header is written first so
// the order survives item-write failures; when any item write fails the
// order is returned with the items that did persist alongside
// shared.ErrPartialItemWrite.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (PurchaseOrder, error) {
	if len(input.Items) == 0 {
		return PurchaseOrder{}, shared.ErrEmptyOrder
	}
	if input.VendorID == "" || input.PlantID == "" {
		return PurchaseOrder{}, errors.New("vendor and plant required")
	}
	if s.vendors != nil {
		vendor, err := s.vendors.Get(ctx, input.VendorID)
		if err != nil {
			return PurchaseOrder{}, err
		}
		if vendor.Status != vendors.StatusApproved {
			return PurchaseOrder{}, shared.ErrVendorNotApproved
		}
	}
	now := s.clock.Now()
	if dateOnly(input.ExpectedDeliveryDate).Before(dateOnly(now)) {
		return PurchaseOrder{}, shared.ErrPastDeliveryDate
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return PurchaseOrder{}, shared.ErrInvalidItem
		}
		if s.products != nil {
			product, err := s.products.GetProduct(ctx, item.ProductID)
			if err != nil {
				return PurchaseOrder{}, fmt.Errorf("%w: unknown product %s", shared.ErrInvalidItem, item.ProductID)
			}
			if item.Unit != "" && !product.AcceptsUnit(item.Unit) {
				return PurchaseOrder{}, fmt.Errorf("%w: unit %q not accepted for %s", shared.ErrInvalidItem, item.Unit, product.Name)
			}
		}
	}

	actorID := ""
	if actor := shared.ActorFromContext(ctx); actor != nil {
		actorID = actor.UserID
	}
	order, err := s.repo.CreateOrder(ctx, PurchaseOrder{
		OrderNumber:          newOrderNumber(now),
		VendorID:             input.VendorID,
		PlantID:              input.PlantID,
		Status:               StatusPending,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		Notes:                input.Notes,
		CreatedBy:            actorID,
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	var itemErr error
	for _, in := range input.Items {
		item, err := s.repo.AddItem(ctx, Item{
			OrderID:   order.ID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Unit:      in.Unit,
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Error("order item write failed", slog.String("order_id", order.ID), slog.String("product_id", in.ProductID), slog.Any("error", err))
			}
			itemErr = shared.ErrPartialItemWrite
			continue
		}
		order.Items = append(order.Items, item)
	}

	s.record(ctx, "order.created", order.ID, map[string]any{"order_number": order.OrderNumber, "vendor_id": order.VendorID, "items": len(order.Items)})
	return order, itemErr
}

func (s *Service) Get(ctx context.Context, id string) (PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, vendorID string) ([]PurchaseOrder, error) {
	return s.repo.List(ctx, vendorID)
}

// Advance moves the order one step forward, or accepts a no-op refresh of
// the current status; expectedDelivery, when non-nil, rewrites the promised
// date in the same write. Reaching DELIVERED stamps the actual delivery date
// exactly once; a lost version race surfaces as shared.ErrConflict and the
// caller re-fetches.
func (s *Service) Advance(ctx context.Context, id string, next OrderStatus, expectedDelivery *time.Time) (PurchaseOrder, error) {
	if !next.Valid() || next == StatusCancelled {
		return PurchaseOrder{}, shared.ErrIllegalTransition
	}
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if order.Status.Terminal() {
		return PurchaseOrder{}, shared.ErrTerminalOrder
	}
	if !CanTransition(order.Status, next) {
		return PurchaseOrder{}, shared.ErrIllegalTransition
	}
	if next == order.Status && expectedDelivery == nil {
		return order, nil
	}

	var stamp *time.Time
	if next == StatusDelivered {
		now := s.clock.Now()
		stamp = &now
	}
	if err := s.repo.CompareAndSetStatus(ctx, id, next, order.Version, stamp, expectedDelivery); err != nil {
		return PurchaseOrder{}, err
	}

	previous := order.Status
	order.Status = next
	order.Version++
	if stamp != nil && order.ActualDeliveryDate == nil {
		order.ActualDeliveryDate = stamp
	}
	if expectedDelivery != nil {
		order.ExpectedDeliveryDate = *expectedDelivery
	}
	s.record(ctx, "order.status_changed", id, map[string]any{"from": string(previous), "to": string(next)})
	return order, nil
}

// UpdateExpectedDeliveryDate rewrites the promised date on a still-open
// order without touching its status.
func (s *Service) UpdateExpectedDeliveryDate(ctx context.Context, id string, date time.Time) error {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Status.Terminal() {
		return shared.ErrTerminalOrder
	}
	if err := s.repo.CompareAndSetStatus(ctx, id, order.Status, order.Version, nil, &date); err != nil {
		return err
	}
	s.record(ctx, "order.delivery_date_changed", id, map[string]any{"expected_delivery_date": date.Format("2006-01-02")})
	return nil
}

// ForceCancel moves the order to CANCELLED outside the forward progression.
// Only an approved CANCEL action request reaches this path. Cancelling an
// already-cancelled order is a no-op; a delivered order cannot be cancelled.
func (s *Service) ForceCancel(ctx context.Context, id string) (PurchaseOrder, error) {
	for attempt := 0; attempt < cancelAttempts; attempt++ {
		order, err := s.repo.Get(ctx, id)
		if err != nil {
			return PurchaseOrder{}, err
		}
		if order.Status == StatusCancelled {
			return order, nil
		}
		if order.Status == StatusDelivered {
			return PurchaseOrder{}, shared.ErrTerminalOrder
		}
		err = s.repo.CompareAndSetStatus(ctx, id, StatusCancelled, order.Version, nil, nil)
		if errors.Is(err, shared.ErrConflict) {
			continue
		}
		if err != nil {
			return PurchaseOrder{}, err
		}
		previous := order.Status
		order.Status = StatusCancelled
		order.Version++
		s.record(ctx, "order.cancelled", id, map[string]any{"from": string(previous)})
		return order, nil
	}
	return PurchaseOrder{}, shared.ErrConflict
}

// UpdateItemQuantity changes one line item's quantity on a still-mutable
// order. Zero-quantity handling is the caller's policy decision.
func (s *Service) UpdateItemQuantity(ctx context.Context, orderID, itemID string, quantity int) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status.Terminal() {
		return shared.ErrTerminalOrder
	}
	if !ownsItem(order, itemID) {
		return shared.ErrNotFound
	}
	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return err
	}
	s.record(ctx, "order.item_updated", orderID, map[string]any{"item_id": itemID, "quantity": quantity})
	return nil
}

// RemoveItem deletes a line item, refusing to leave the order empty.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID string) error {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status.Terminal() {
		return shared.ErrTerminalOrder
	}
	if !ownsItem(order, itemID) {
		return shared.ErrNotFound
	}
	if len(order.Items) <= 1 {
		return shared.ErrEmptyOrder
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.record(ctx, "order.item_removed", orderID, map[string]any{"item_id": itemID})
	return nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[OrderStatus]int, error) {
	return s.repo.CountByStatus(ctx)
}

func ownsItem(order PurchaseOrder, itemID string) bool {
	for _, item := range order.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("PO-%s-%s", now.UTC().Format("20060102"), suffix)
}

func (s *Service) record(ctx context.Context, action, orderID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actorID := ""
	if actor := shared.ActorFromContext(ctx); actor != nil {
		actorID = actor.UserID
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase_order",
		EntityID: orderID,
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}
