package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	clientmodels "backoffice/internal/client/models"
	productmodels "backoffice/internal/product/models"
	"backoffice/internal/reconcile"
	dErrors "backoffice/pkg/domain-errors"
	"backoffice/pkg/platform/sentinel"
)

// ClientDirectory resolves client codes. The client store satisfies it.
type ClientDirectory interface {
	FindByCode(ctx context.Context, code string) (clientmodels.Client, error)
}

// ProductDirectory resolves product codes. The product store satisfies it.
type ProductDirectory interface {
	FindByCode(ctx context.Context, code string) (productmodels.Product, error)
}

// Service validates and persists orders.
type Service struct {
	orders   Store
	clients  ClientDirectory
	products ProductDirectory
}

func NewService(orders Store, clients ClientDirectory, products ProductDirectory) *Service {
	return &Service{orders: orders, clients: clients, products: products}
}

// CreateRequest is one order to place.
type CreateRequest struct {
	ClientCode string `json:"clientCode"`
	Notes      string `json:"notes"`
	Lines      []struct {
		ProductCode string `json:"productCode"`
		Quantity    int    `json:"quantity"`
	} `json:"lines"`
}

// Create validates the client and every product line, snapshots the current
// unit prices, and persists a pending order.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Order, error) {
	clientCode := reconcile.AlphaNumKey(req.ClientCode)
	if _, err := s.clients.FindByCode(ctx, clientCode); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Order{}, dErrors.New(dErrors.CodeInvalidInput, "client not found")
		}
		return Order{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve order client")
	}
	if len(req.Lines) == 0 {
		return Order{}, dErrors.New(dErrors.CodeBadRequest, "order lines are required")
	}

	lines := make([]Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return Order{}, dErrors.New(dErrors.CodeInvalidInput, "line quantity must be positive")
		}
		code := reconcile.AlphaNumKey(l.ProductCode)
		p, err := s.products.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return Order{}, dErrors.Newf(dErrors.CodeInvalidInput, "product %s not found", code)
			}
			return Order{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve order product")
		}
		lines = append(lines, Line{ProductCode: p.Code, Quantity: l.Quantity, UnitPrice: p.UnitPrice})
	}

	now := time.Now()
	o := Order{
		ID:         uuid.New(),
		ClientCode: clientCode,
		Status:     StatusPending,
		Lines:      lines,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return Order{}, dErrors.Wrap(err, dErrors.CodeInternal, "create order")
	}
	return o, nil
}

// Get fetches one order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Order{}, dErrors.New(dErrors.CodeNotFound, "order not found")
		}
		return Order{}, dErrors.Wrap(err, dErrors.CodeInternal, "find order")
	}
	return o, nil
}

// List returns one page of orders, optionally restricted to a client.
func (s *Service) List(ctx context.Context, clientCode string, page, pageSize int) ([]Order, int, error) {
	out, total, err := s.orders.ListByClient(ctx, reconcile.AlphaNumKey(clientCode), page, pageSize)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list orders")
	}
	return out, total, nil
}

// UpdateStatus moves an order through its lifecycle, rejecting transitions
// the lifecycle does not allow.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, dErrors.New(dErrors.CodeBadRequest, "unknown order status")
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, status) {
		return Order{}, dErrors.Newf(dErrors.CodeConflict, "cannot move order from %s to %s", o.Status, status)
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return Order{}, dErrors.Wrap(err, dErrors.CodeInternal, "update order status")
	}
	return s.Get(ctx, id)
}
