// Package handler exposes the product import and CRUD endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"backoffice/internal/platform/middleware"
	"backoffice/internal/product/models"
	"backoffice/internal/product/service"
	"backoffice/internal/product/store"
	"backoffice/internal/reconcile"
	dErrors "backoffice/pkg/domain-errors"
	"backoffice/pkg/platform/httputil"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the product routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/import/analyze", h.handleAnalyze)
		r.Post("/import/commit", h.handleCommit)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{code}", h.handleGet)
		r.Put("/{code}", h.handleUpdate)
	})
}

type analyzeRequest struct {
	Products []reconcile.RawRecord `json:"products"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Products) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "products batch is required"))
		return
	}

	report, err := h.service.AnalyzeImport(r.Context(), req.Products)
	if err != nil {
		h.logError(r, "analyze product import", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "batch analyzed",
		"summary": report.Summary,
		"data": map[string]any{
			"newRecords":         emptySlice(report.New),
			"currentRecords":     emptySlice(report.Current),
			"conflictingRecords": emptySlice(report.Conflicting),
			"invalidRows":        emptySlice(report.Invalid),
		},
	})
}

type commitRequest struct {
	Data struct {
		NewRecords []models.Product `json:"newRecords"`
	} `json:"data"`
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Data.NewRecords) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "newRecords is required"))
		return
	}

	report, err := h.service.CommitImport(r.Context(), req.Data.NewRecords)
	if err != nil {
		h.logError(r, "commit product import", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "batch committed",
		"data": map[string]any{
			"createdCount":     report.CreatedCount,
			"duplicateRecords": emptySlice(report.DuplicateRecords),
		},
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		h.logError(r, "create product", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"data": created})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logError(r, "get product", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": p})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	p.Code = chi.URLParam(r, "code")

	updated, err := h.service.Update(r.Context(), p)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logError(r, "update product", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": updated})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := store.ListQuery{
		Search:   r.URL.Query().Get("search"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
	}

	items, total, err := h.service.List(r.Context(), q)
	if err != nil {
		h.logError(r, "list products", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  emptySlice(items),
		"total": total,
	})
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// emptySlice keeps empty buckets rendering as [] instead of null.
func emptySlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}
