package workflow

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/supplylink/supplylink/internal/auth"
	"github.com/supplylink/supplylink/internal/platform/httpx"
	"github.com/supplylink/supplylink/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	planner *RestockPlanner
	guard   auth.Middleware
}

func NewHandler(logger *slog.Logger, planner *RestockPlanner, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, planner: planner, guard: guard}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin))
		r.Get("/inventory/{id}/order-draft", h.orderDraft)
	})
}

type draftItemResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Unit      string `json:"unit"`
}

type draftResponse struct {
	PlantID string              `json:"plantId"`
	Items   []draftItemResponse `json:"items"`
}

func (h *Handler) orderDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.planner.OrderDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := draftResponse{PlantID: draft.PlantID}
	for _, item := range draft.Items {
		out.Items = append(out.Items, draftItemResponse{ProductID: item.ProductID, Quantity: item.Quantity, Unit: item.Unit})
	}
	httpx.JSON(w, http.StatusOK, out)
}
