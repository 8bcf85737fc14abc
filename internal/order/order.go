// Package order implements client orders: creation against the client and
// product stores, paginated listing, and a small status lifecycle.
package order

import (
	"time"

	"github.com/google/uuid"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions maps each status to the states reachable from it. Orders are
// cancelable until delivered; delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusDelivered, StatusCancelled},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Line is one product position in an order. UnitPrice is snapshotted from the
// product at creation time so later price changes do not rewrite history.
type Line struct {
	ProductCode string  `json:"productCode"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Order is one client order with its lines.
type Order struct {
	ID         uuid.UUID `json:"id"`
	ClientCode string    `json:"clientCode"`
	Status     Status    `json:"status"`
	Lines      []Line    `json:"lines"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Total is the order value, derived from the lines.
func (o Order) Total() float64 {
	var total float64
	for _, l := range o.Lines {
		total += float64(l.Quantity) * l.UnitPrice
	}
	return total
}
