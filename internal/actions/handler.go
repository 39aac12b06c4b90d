package actions

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/supplylink/supplylink/internal/auth"
	"github.com/supplylink/supplylink/internal/platform/httpx"
	"github.com/supplylink/supplylink/internal/shared"
)

// Resolver applies a resolution decision end to end: the record flip plus
// whatever the approval implies for the order. The workflow coordinator
// implements it.
type Resolver interface {
	ApproveAction(ctx context.Context, requestID, vendorID, resolvedBy, response string) (Request, error)
	RejectAction(ctx context.Context, requestID, vendorID, resolvedBy, response string) (Request, error)
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	resolver  Resolver
	guard     auth.Middleware
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, resolver Resolver, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, resolver: resolver, guard: guard, validator: validator.New()}
}

// MountRoutes attaches action-request routes. Admins raise change requests
// against orders; the vendor owning the order reviews and resolves them.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin))
		r.Post("/orders/{id}/actions", h.propose)
		r.Get("/actions/pending", h.pending)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleVendor))
		r.Get("/actions/mine", h.mine)
		r.Post("/actions/{id}/approve", h.approve)
		r.Post("/actions/{id}/reject", h.reject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin, shared.RoleVendor))
		r.Get("/orders/{id}/actions", h.listByOrder)
	})
}

type proposeRequest struct {
	Type            string                  `json:"type" validate:"required,oneof=UPDATE CANCEL RETURN"`
	Message         string                  `json:"message" validate:"required"`
	ProposedChanges *proposedChangesRequest `json:"proposedChanges" validate:"omitempty"`
}

type proposedChangesRequest struct {
	ExpectedDeliveryDate string              `json:"expectedDeliveryDate" validate:"omitempty"`
	ItemChanges          []itemChangeRequest `json:"itemChanges" validate:"omitempty,dive"`
}

type itemChangeRequest struct {
	ItemID      string `json:"itemId" validate:"required"`
	NewQuantity int    `json:"newQuantity" validate:"gte=0"`
}

type resolveRequest struct {
	Response string `json:"response"`
}

func (h *Handler) propose(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var changes *ProposedChanges
	if req.ProposedChanges != nil {
		changes = &ProposedChanges{}
		if req.ProposedChanges.ExpectedDeliveryDate != "" {
			parsed, err := time.Parse("2006-01-02", req.ProposedChanges.ExpectedDeliveryDate)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expectedDeliveryDate must be YYYY-MM-DD")
				return
			}
			changes.ExpectedDeliveryDate = &parsed
		}
		for _, c := range req.ProposedChanges.ItemChanges {
			changes.Items = append(changes.Items, ItemChange{ItemID: c.ItemID, NewQuantity: c.NewQuantity})
		}
	}
	request, err := h.service.Propose(r.Context(), chi.URLParam(r, "id"), Type(req.Type), req.Message, changes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, request)
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	requests, err := h.service.ListByVendor(r.Context(), actor.VendorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, requests)
}

func (h *Handler) listByOrder(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListByOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if actor.Role == shared.RoleVendor {
		for _, req := range requests {
			if req.VendorID != actor.VendorID {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
		}
	}
	httpx.JSON(w, http.StatusOK, requests)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListPending(r.Context())
	if err != nil {
		h.logger.Error("list pending actions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, requests)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if actor.VendorID == "" {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	request, err := h.resolver.ApproveAction(r.Context(), chi.URLParam(r, "id"), actor.VendorID, actor.UserID, req.Response)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if actor.VendorID == "" {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	request, err := h.resolver.RejectAction(r.Context(), chi.URLParam(r, "id"), actor.VendorID, actor.UserID, req.Response)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}
