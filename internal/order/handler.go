package order

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"backoffice/internal/platform/middleware"
	dErrors "backoffice/pkg/domain-errors"
	"backoffice/pkg/platform/httputil"
)

// Handler exposes the order endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the order routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/status", h.handleUpdateStatus)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	o, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logError(r, "create order", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"data": orderBody(o)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid order id"))
		return
	}

	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logError(r, "get order", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": orderBody(o)})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	orders, total, err := h.service.List(r.Context(), r.URL.Query().Get("clientCode"), page, pageSize)
	if err != nil {
		h.logError(r, "list orders", err)
		httputil.WriteError(w, err)
		return
	}

	bodies := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		bodies = append(bodies, orderBody(o))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": bodies, "total": total})
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid order id"))
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) && !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logError(r, "update order status", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": orderBody(o)})
}

// orderBody renders an order with its derived total.
func orderBody(o Order) map[string]any {
	return map[string]any{
		"id":         o.ID,
		"clientCode": o.ClientCode,
		"status":     o.Status,
		"lines":      o.Lines,
		"notes":      o.Notes,
		"total":      o.Total(),
		"createdAt":  o.CreatedAt,
		"updatedAt":  o.UpdatedAt,
	}
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}
