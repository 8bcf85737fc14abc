package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"backoffice/internal/platform/middleware"
	dErrors "backoffice/pkg/domain-errors"
	"backoffice/pkg/platform/httputil"
)

// Handler exposes the laboratory and category lookup endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the catalog routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/laboratories", h.handleListLaboratories)
	r.Post("/laboratories", h.handleCreateLaboratory)
	r.Get("/categories", h.handleListCategories)
	r.Post("/categories", h.handleCreateCategory)
}

func (h *Handler) handleListLaboratories(w http.ResponseWriter, r *http.Request) {
	labs, err := h.service.ListLaboratories(r.Context())
	if err != nil {
		h.logError(r, "list laboratories", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": labs})
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logError(r, "list categories", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": cats})
}

type createEntryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateLaboratory(w http.ResponseWriter, r *http.Request) {
	h.createEntry(w, r, func(name string) (any, error) {
		id, err := h.service.ResolveLaboratory(r.Context(), name)
		return map[string]any{"id": id, "name": name}, err
	})
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	h.createEntry(w, r, func(name string) (any, error) {
		id, err := h.service.ResolveCategory(r.Context(), name)
		return map[string]any{"id": id, "name": name}, err
	})
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request, create func(string) (any, error)) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	name := normalizeName(req.Name)
	if name == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "name is required"))
		return
	}

	body, err := create(name)
	if err != nil {
		h.logError(r, "create catalog entry", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"data": body})
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}
