// Package workflow coordinates multi-module operations: resolving an action
// request and applying what the approval implies for the purchase order.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/supplylink/supplylink/internal/actions"
	"github.com/supplylink/supplylink/internal/orders"
	"github.com/supplylink/supplylink/internal/shared"
)

// ZeroQuantityPolicy controls what an approved UPDATE does with a proposed
// quantity of zero.
const (
	ZeroQuantityReject = "reject"
	ZeroQuantityRemove = "remove"
)

// ActionStore is the slice of the action service the coordinator drives.
type ActionStore interface {
	Get(ctx context.Context, id string) (actions.Request, error)
	Approve(ctx context.Context, id, vendorID, resolvedBy, response string) (actions.Request, error)
	Reject(ctx context.Context, id, vendorID, resolvedBy, response string) (actions.Request, error)
}

// OrderMutator is the slice of the order service the coordinator drives.
type OrderMutator interface {
	Get(ctx context.Context, id string) (orders.PurchaseOrder, error)
	ForceCancel(ctx context.Context, id string) (orders.PurchaseOrder, error)
	UpdateExpectedDeliveryDate(ctx context.Context, orderID string, date time.Time) error
	UpdateItemQuantity(ctx context.Context, orderID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, orderID, itemID string) error
}

// KeyStore guards the apply step against double execution.
type KeyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Coordinator implements the approve/reject saga. The resolution record is
// flipped first so the decision is durable, then the order consequence is
// applied under an idempotency key with one retry on a version race.
type Coordinator struct {
	actions    ActionStore
	orders     OrderMutator
	keys       KeyStore
	zeroPolicy string
	logger     *slog.Logger
}

func NewCoordinator(actionStore ActionStore, orderMutator OrderMutator, keys KeyStore, zeroPolicy string, logger *slog.Logger) *Coordinator {
	if zeroPolicy != ZeroQuantityRemove {
		zeroPolicy = ZeroQuantityReject
	}
	return &Coordinator{actions: actionStore, orders: orderMutator, keys: keys, zeroPolicy: zeroPolicy, logger: logger}
}

// ApproveAction resolves a pending request on behalf of the owning vendor
// and applies its consequence: CANCEL force-cancels the order, UPDATE
// rewrites the proposed delivery date and line items, RETURN is recorded
// with no order mutation. Validation that would make the approval
// unapplyable happens before the record is flipped.
func (c *Coordinator) ApproveAction(ctx context.Context, requestID, vendorID, resolvedBy, response string) (actions.Request, error) {
	request, err := c.actions.Get(ctx, requestID)
	if err != nil {
		return actions.Request{}, err
	}
	if request.VendorID != vendorID {
		return actions.Request{}, shared.ErrForbidden
	}
	if request.Status != actions.StatusPending {
		return actions.Request{}, shared.ErrAlreadyResolved
	}

	order, err := c.orders.Get(ctx, request.OrderID)
	if err != nil {
		return actions.Request{}, err
	}
	if !request.Type.ApplicableTo(order.Status) {
		return actions.Request{}, shared.ErrActionNotApplicable
	}
	if request.Type == actions.TypeUpdate && c.zeroPolicy == ZeroQuantityReject && request.Changes != nil {
		for _, change := range request.Changes.Items {
			if change.NewQuantity == 0 {
				return actions.Request{}, shared.ErrInvalidQuantity
			}
		}
	}

	resolved, err := c.actions.Approve(ctx, requestID, vendorID, resolvedBy, response)
	if err != nil {
		return actions.Request{}, err
	}

	if err := c.apply(ctx, resolved); err != nil {
		// The approval record stands; surface the failure so an operator
		// can reconcile the order.
		if c.logger != nil {
			c.logger.Error("approved action could not be applied",
				slog.String("request_id", requestID),
				slog.String("type", string(resolved.Type)),
				slog.Any("error", err))
		}
		return resolved, err
	}
	return resolved, nil
}

// RejectAction resolves a pending request as rejected on behalf of the
// owning vendor. No order mutation.
func (c *Coordinator) RejectAction(ctx context.Context, requestID, vendorID, resolvedBy, response string) (actions.Request, error) {
	return c.actions.Reject(ctx, requestID, vendorID, resolvedBy, response)
}

func (c *Coordinator) apply(ctx context.Context, request actions.Request) error {
	if request.Type == actions.TypeReturn {
		// Return requests live on as history; nothing changes on the order.
		return nil
	}

	key := "action-apply:" + request.ID
	if c.keys != nil {
		err := c.keys.CheckAndInsert(ctx, key, "workflow")
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	err := c.applyOnce(ctx, request)
	if errors.Is(err, shared.ErrConflict) {
		err = c.applyOnce(ctx, request)
	}
	if err != nil && c.keys != nil {
		if delErr := c.keys.Delete(ctx, key); delErr != nil && c.logger != nil {
			c.logger.Warn("idempotency key rollback failed", slog.String("key", key), slog.Any("error", delErr))
		}
	}
	return err
}

func (c *Coordinator) applyOnce(ctx context.Context, request actions.Request) error {
	switch request.Type {
	case actions.TypeCancel:
		_, err := c.orders.ForceCancel(ctx, request.OrderID)
		return err
	case actions.TypeUpdate:
		if request.Changes == nil {
			return nil
		}
		if request.Changes.ExpectedDeliveryDate != nil {
			if err := c.orders.UpdateExpectedDeliveryDate(ctx, request.OrderID, *request.Changes.ExpectedDeliveryDate); err != nil {
				return err
			}
		}
		for _, change := range request.Changes.Items {
			if change.NewQuantity == 0 {
				if err := c.orders.RemoveItem(ctx, request.OrderID, change.ItemID); err != nil {
					return err
				}
				continue
			}
			if err := c.orders.UpdateItemQuantity(ctx, request.OrderID, change.ItemID, change.NewQuantity); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}
