package actions

import (
	"context"
	"log/slog"
	"strings"

	"github.com/supplylink/supplylink/internal/orders"
	"github.com/supplylink/supplylink/internal/shared"
)

// OrderSource is the read surface the action service needs from the order
// module.
type OrderSource interface {
	Get(ctx context.Context, id string) (orders.PurchaseOrder, error)
}

// Notifier is told about freshly proposed requests so the vendor can be
// alerted out of band. A nil notifier disables the alerts.
type Notifier interface {
	ActionProposed(ctx context.Context, request Request) error
}

// Service owns action-request records: admins propose changes, the owning
// vendor resolves them. Applying the consequences of an approval is the
// workflow coordinator's job, not this service's.
type Service struct {
	repo     Repository
	orders   OrderSource
	audit    *shared.AuditLogger
	notifier Notifier
	clock    shared.Clock
	logger   *slog.Logger
}

func NewService(repo Repository, orderSource OrderSource, audit *shared.AuditLogger, notifier Notifier, clock shared.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, orders: orderSource, audit: audit, notifier: notifier, clock: clock, logger: logger}
}

// Propose files a new change request against an order. The request type must
// be applicable to the order's current status and a justification message is
// mandatory. Several pending requests may coexist on one order.
func (s *Service) Propose(ctx context.Context, orderID string, actionType Type, message string, changes *ProposedChanges) (Request, error) {
	if !actionType.Valid() {
		return Request{}, shared.ErrActionNotApplicable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return Request{}, shared.ErrEmptyMessage
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Request{}, err
	}
	if !actionType.ApplicableTo(order.Status) {
		return Request{}, shared.ErrActionNotApplicable
	}
	if actionType != TypeUpdate || changes.Empty() {
		changes = nil
	}
	if changes != nil {
		for _, change := range changes.Items {
			if change.NewQuantity < 0 {
				return Request{}, shared.ErrInvalidQuantity
			}
			if !hasItem(order, change.ItemID) {
				return Request{}, shared.ErrInvalidItem
			}
		}
	}

	request, err := s.repo.Create(ctx, Request{
		OrderID:   orderID,
		VendorID:  order.VendorID,
		Type:      actionType,
		Message:   message,
		Changes:   changes,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return Request{}, err
	}
	s.record(ctx, "action.proposed", request.ID, map[string]any{"order_id": orderID, "type": string(actionType)})
	if s.notifier != nil {
		if err := s.notifier.ActionProposed(ctx, request); err != nil && s.logger != nil {
			s.logger.Warn("action notification failed", slog.String("request_id", request.ID), slog.Any("error", err))
		}
	}
	return request, nil
}

func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]Request, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

func (s *Service) ListByVendor(ctx context.Context, vendorID string) ([]Request, error) {
	return s.repo.ListByVendor(ctx, vendorID)
}

func (s *Service) ListPending(ctx context.Context) ([]Request, error) {
	return s.repo.ListPending(ctx)
}

// Approve marks a pending request APPROVED on behalf of the vendor owning
// the order. An empty response defaults to "Approved". Exactly one of two
// racing resolutions wins.
func (s *Service) Approve(ctx context.Context, id, vendorID, resolvedBy, response string) (Request, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		response = "Approved"
	}
	return s.resolve(ctx, id, StatusApproved, vendorID, resolvedBy, response)
}

// Reject marks a pending request REJECTED. A response explaining the
// rejection is mandatory.
func (s *Service) Reject(ctx context.Context, id, vendorID, resolvedBy, response string) (Request, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return Request{}, shared.ErrResponseRequired
	}
	return s.resolve(ctx, id, StatusRejected, vendorID, resolvedBy, response)
}

func (s *Service) resolve(ctx context.Context, id string, status Status, vendorID, resolvedBy, response string) (Request, error) {
	request, err := s.repo.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if request.VendorID != vendorID {
		return Request{}, shared.ErrForbidden
	}
	if request.Status != StatusPending {
		return Request{}, shared.ErrAlreadyResolved
	}
	now := s.clock.Now()
	if err := s.repo.Resolve(ctx, id, status, response, resolvedBy, now); err != nil {
		return Request{}, err
	}
	request.Status = status
	request.Response = response
	request.ResolvedBy = resolvedBy
	request.ResolvedAt = &now
	s.record(ctx, "action.resolved", id, map[string]any{"status": string(status)})
	return request, nil
}

func hasItem(order orders.PurchaseOrder, itemID string) bool {
	for _, item := range order.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func (s *Service) record(ctx context.Context, action, requestID string, meta map[string]any) {
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
		Entity:   "action_request",
		EntityID: requestID,
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}
