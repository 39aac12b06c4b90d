package vendors

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/supplylink/supplylink/internal/auth"
	"github.com/supplylink/supplylink/internal/platform/httpx"
	"github.com/supplylink/supplylink/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	users     *auth.Service
	guard     auth.Middleware
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, users *auth.Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, users: users, guard: guard, validator: validator.New()}
}

// MountRoutes attaches vendor routes. Admin manages the roster and status;
// vendors manage their own profile and documents under /vendors/me.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleAdmin))
		r.Get("/vendors", h.list)
		r.Post("/vendors", h.onboard)
		r.Get("/vendors/metrics", h.listMetrics)
		r.Get("/vendors/{id}", h.get)
		r.Put("/vendors/{id}/status", h.setStatus)
		r.Get("/vendors/{id}/documents", h.listDocuments)
		r.Get("/vendors/{id}/metrics", h.metrics)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.RoleVendor))
		r.Get("/vendors/me", h.me)
		r.Put("/vendors/me", h.updateProfile)
		r.Get("/vendors/me/documents", h.myDocuments)
		r.Post("/vendors/me/documents", h.addDocument)
		r.Delete("/vendors/me/documents/{docID}", h.deleteDocument)
		r.Get("/vendors/me/metrics", h.myMetrics)
	})
}

type addressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type onboardRequest struct {
	Name         string         `json:"name" validate:"required"`
	ContactEmail string         `json:"contactEmail" validate:"required,email"`
	ContactPhone string         `json:"contactPhone"`
	Address      addressRequest `json:"address"`
}

type onboardResponse struct {
	Vendor   Vendor `json:"vendor"`
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

type profileRequest struct {
	Name         string         `json:"name" validate:"required"`
	ContactEmail string         `json:"contactEmail" validate:"required,email"`
	ContactPhone string         `json:"contactPhone"`
	Address      addressRequest `json:"address"`
}

type documentRequest struct {
	DocumentName string `json:"documentName" validate:"required"`
	DocumentType string `json:"documentType" validate:"required"`
	URL          string `json:"url" validate:"required,url"`
}

type documentResponse struct {
	VendorDocument
	DocumentTypeLabel string `json:"documentTypeLabel"`
}

func toDocumentResponses(docs []VendorDocument) []documentResponse {
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{VendorDocument: d, DocumentTypeLabel: DocumentTypeLabel(d.DocumentType)})
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list vendors", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	// ?status=APPROVED narrows the roster, e.g. for order-target pickers.
	if status := VendorStatus(r.URL.Query().Get("status")); status != "" {
		filtered := vendors[:0]
		for _, v := range vendors {
			if v.Status == status {
				filtered = append(filtered, v)
			}
		}
		vendors = filtered
	}
	httpx.JSON(w, http.StatusOK, vendors)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendor)
}

// onboard creates the vendor record together with its portal login. The
// generated password is included in the response exactly once.
func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	vendorID := uuid.NewString()
	user, password, err := h.users.CreateVendorUser(r.Context(), req.ContactEmail, vendorID)
	if err != nil {
		h.logger.Error("create vendor user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	vendor, err := h.service.Create(r.Context(), Vendor{
		ID:           vendorID,
		UserID:       user.ID,
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      Address(req.Address),
	})
	if err != nil {
		h.logger.Error("create vendor", slog.String("user_id", user.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, onboardResponse{Vendor: vendor, UserID: user.ID, Password: password})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	vendor, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), VendorStatus(req.Status), req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendor)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDocumentResponses(docs))
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Metrics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) listMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.ListMetrics(r.Context())
	if err != nil {
		h.logger.Error("list metrics", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, metrics)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.ownVendor(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, vendor)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.ownVendor(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.UpdateProfile(r.Context(), vendor.ID, req.Name, req.ContactEmail, req.ContactPhone, Address(req.Address))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) myDocuments(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.ownVendor(w, r)
	if !ok {
		return
	}
	docs, err := h.service.ListDocuments(r.Context(), vendor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDocumentResponses(docs))
}

func (h *Handler) addDocument(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.ownVendor(w, r)
	if !ok {
		return
	}
	var req documentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	doc, err := h.service.AddDocument(r.Context(), vendor.ID, VendorDocument{
		DocumentName: req.DocumentName,
		DocumentType: req.DocumentType,
		URL:          req.URL,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, documentResponse{VendorDocument: doc, DocumentTypeLabel: DocumentTypeLabel(doc.DocumentType)})
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.ownVendor(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDocument(r.Context(), vendor.ID, chi.URLParam(r, "docID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) myMetrics(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.ownVendor(w, r)
	if !ok {
		return
	}
	m, err := h.service.Metrics(r.Context(), vendor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

// ownVendor resolves the acting vendor from the request context.
func (h *Handler) ownVendor(w http.ResponseWriter, r *http.Request) (Vendor, bool) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil || actor.VendorID == "" {
		httpx.RespondError(w, shared.ErrForbidden)
		return Vendor{}, false
	}
	vendor, err := h.service.Get(r.Context(), actor.VendorID)
	if err != nil {
		httpx.RespondError(w, err)
		return Vendor{}, false
	}
	return vendor, true
}
