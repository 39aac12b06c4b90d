package inventory

import (
	"log/slog"
	"net/http"

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

// MountRoutes attaches inventory routes. All stock operations are admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin))
		r.Get("/inventory", h.list)
		r.Post("/inventory", h.create)
		r.Get("/inventory/low-stock", h.lowStock)
		r.Get("/inventory/{id}", h.get)
		r.Put("/inventory/{id}/threshold", h.setThreshold)
		r.Post("/inventory/{id}/consume", h.consume)
		r.Post("/inventory/{id}/restock", h.restock)
	})
}

type createItemRequest struct {
	PlantID          string `json:"plantId" validate:"required"`
	ProductID        string `json:"productId" validate:"required"`
	Quantity         int    `json:"quantityAvailable" validate:"gte=0"`
	Unit             string `json:"unit"`
	ReorderThreshold int    `json:"reorderLevel" validate:"gte=0"`
}

type thresholdRequest struct {
	ReorderThreshold int `json:"reorderLevel" validate:"gte=0"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type itemResponse struct {
	Item
	LowStock         bool `json:"lowStock"`
	SuggestedRestock int  `json:"suggestedRestock,omitempty"`
}

func (h *Handler) respondItem(w http.ResponseWriter, r *http.Request, status int, item Item) {
	resp := itemResponse{Item: item, LowStock: item.IsLowStock()}
	if resp.LowStock {
		if qty, err := h.service.SuggestRestock(r.Context(), item); err == nil {
			resp.SuggestedRestock = qty
		}
	}
	httpx.JSON(w, status, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), r.URL.Query().Get("plantId"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse{Item: item, LowStock: item.IsLowStock()})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondItem(w, r, http.StatusOK, item)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	item, err := h.service.Create(r.Context(), Item{
		PlantID:          req.PlantID,
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		Unit:             req.Unit,
		ReorderThreshold: req.ReorderThreshold,
	})
	if err != nil {
		h.logger.Error("create inventory item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respondItem(w, r, http.StatusCreated, item)
}

func (h *Handler) setThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.SetThreshold(r.Context(), chi.URLParam(r, "id"), req.ReorderThreshold); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) consume(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	item, err := h.service.Consume(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondItem(w, r, http.StatusOK, item)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	item, err := h.service.Restock(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondItem(w, r, http.StatusOK, item)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context(), r.URL.Query().Get("plantId"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp := itemResponse{Item: item, LowStock: true}
		if qty, err := h.service.SuggestRestock(r.Context(), item); err == nil {
			resp.SuggestedRestock = qty
		}
		out = append(out, resp)
	}
	httpx.JSON(w, http.StatusOK, out)
}
