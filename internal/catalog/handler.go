package catalog

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

// MountRoutes attaches catalog routes. Reads are open to both roles;
// writes are admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin, shared.RoleVendor))
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/plants", h.listPlants)
		r.Get("/plants/{id}", h.getPlant)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin))
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Post("/plants", h.createPlant)
	})
}

type productRequest struct {
	Name            string   `json:"name" validate:"required"`
	Unit            string   `json:"unit" validate:"required"`
	AcceptedUnits   []string `json:"acceptedUnits"`
	RestockQuantity *int     `json:"restockQuantity" validate:"omitempty,gt=0"`
}

type plantRequest struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.service.CreateProduct(r.Context(), Product{
		Name:            req.Name,
		Unit:            req.Unit,
		AcceptedUnits:   req.AcceptedUnits,
		RestockQuantity: req.RestockQuantity,
	})
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), Product{
		Name:            req.Name,
		Unit:            req.Unit,
		AcceptedUnits:   req.AcceptedUnits,
		RestockQuantity: req.RestockQuantity,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := h.service.ListPlants(r.Context())
	if err != nil {
		h.logger.Error("list plants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, plants)
}

func (h *Handler) getPlant(w http.ResponseWriter, r *http.Request) {
	plant, err := h.service.GetPlant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, plant)
}

func (h *Handler) createPlant(w http.ResponseWriter, r *http.Request) {
	var req plantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	plant, err := h.service.CreatePlant(r.Context(), Plant{Name: req.Name, Location: req.Location})
	if err != nil {
		h.logger.Error("create plant", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, plant)
}
