package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/supplylink/supplylink/internal/auth"
	"github.com/supplylink/supplylink/internal/platform/httpx"
	"github.com/supplylink/supplylink/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     auth.Middleware
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes attaches order routes. Admin places orders; both roles read
// them (vendors only their own) and move them through the lifecycle.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin))
		r.Post("/orders", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin, shared.RoleVendor))
		r.Get("/orders", h.list)
		r.Get("/orders/{id}", h.get)
		r.Put("/orders/{id}/status", h.updateStatus)
	})
}

type createOrderRequest struct {
	VendorID             string             `json:"vendorId" validate:"required"`
	PlantID              string             `json:"plantId" validate:"required"`
	ExpectedDeliveryDate string             `json:"expectedDeliveryDate" validate:"required"`
	Notes                string             `json:"notes"`
	Items                []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type orderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Unit      string `json:"unit"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	// ExpectedDeliveryDate optionally moves the promised date in the same
	// update, including on a no-op status refresh.
	ExpectedDeliveryDate string `json:"expectedDeliveryDate" validate:"omitempty"`
}

type orderResponse struct {
	PurchaseOrder
	AllowedNextStatuses []OrderStatus `json:"allowedNextStatuses"`
}

func toOrderResponse(order PurchaseOrder) orderResponse {
	return orderResponse{PurchaseOrder: order, AllowedNextStatuses: AllowedNextStatuses(order.Status)}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	expected, err := time.Parse("2006-01-02", req.ExpectedDeliveryDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expectedDeliveryDate must be YYYY-MM-DD")
		return
	}

	items := make([]ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ItemInput{ProductID: item.ProductID, Quantity: item.Quantity, Unit: item.Unit})
	}
	order, err := h.service.Create(r.Context(), CreateOrderInput{
		VendorID:             req.VendorID,
		PlantID:              req.PlantID,
		ExpectedDeliveryDate: expected,
		Notes:                req.Notes,
		Items:                items,
	})
	if errors.Is(err, shared.ErrPartialItemWrite) {
		// The order exists; report what persisted and let the client retry
		// the missing items.
		h.logger.Warn("order created with incomplete items", slog.String("order_id", order.ID))
		httpx.JSON(w, http.StatusMultiStatus, toOrderResponse(order))
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	vendorID := ""
	if actor.Role == shared.RoleVendor {
		vendorID = actor.VendorID
	}
	orders, err := h.service.List(r.Context(), vendorID)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.authorizedOrder(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	order, ok := h.authorizedOrder(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var expected *time.Time
	if req.ExpectedDeliveryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpectedDeliveryDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expectedDeliveryDate must be YYYY-MM-DD")
			return
		}
		expected = &parsed
	}
	updated, err := h.service.Advance(r.Context(), order.ID, OrderStatus(req.Status), expected)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(updated))
}

// authorizedOrder loads the order and enforces vendor ownership.
func (h *Handler) authorizedOrder(w http.ResponseWriter, r *http.Request) (PurchaseOrder, bool) {
	order, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return PurchaseOrder{}, false
	}
	actor := shared.ActorFromContext(r.Context())
	if actor.Role == shared.RoleVendor && actor.VendorID != order.VendorID {
		httpx.RespondError(w, shared.ErrForbidden)
		return PurchaseOrder{}, false
	}
	return order, true
}
