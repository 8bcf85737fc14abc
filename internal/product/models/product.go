// Package models defines the product record and its normalization from
// uploaded rows.
package models

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/reconcile"
)

// Key formats for the product domain: a product code is three letters
// followed by three digits, a barcode resolves to thirteen digits.
var (
	CodeFormat    = reconcile.KeyFormat{Name: "product code", Letters: 3, Digits: 3}
	BarcodeFormat = reconcile.DigitFormat{Name: "barcode", Digits: 13}
)

// Product is a normalized product record. Code and Barcode are independently
// unique across the store. Laboratory and Category carry the normalized
// display names; the matching catalog row ids are resolved before any write.
type Product struct {
	Code         string    `json:"code"`
	Barcode      string    `json:"barcode"`
	Description  string    `json:"description"`
	Laboratory   string    `json:"laboratory"`
	LaboratoryID uuid.UUID `json:"laboratoryId,omitzero"`
	Category     string    `json:"category"`
	CategoryID   uuid.UUID `json:"categoryId,omitzero"`
	UnitPrice    float64   `json:"unitPrice"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// RecordKeys exposes the natural keys to the reconciliation engine.
func (p Product) RecordKeys() reconcile.Keys {
	return reconcile.Keys{Primary: p.Code, Secondary: p.Barcode}
}

// PayloadEqual reports whether two records describe the same product beyond
// their keys. Used to decide whether a re-uploaded row is a no-op or a drift
// that must be surfaced instead of silently overwritten.
func (p Product) PayloadEqual(other Product) bool {
	return p.Description == other.Description &&
		p.LaboratoryID == other.LaboratoryID &&
		p.CategoryID == other.CategoryID &&
		p.UnitPrice == other.UnitPrice
}

// FromRaw normalizes one uploaded row into a Product, or reports why it
// cannot. Laboratory and category names are normalized here but resolved to
// catalog ids by the service. Purely structural, no store access.
func FromRaw(raw reconcile.RawRecord) (Product, []string) {
	p := Product{
		Code:        reconcile.AlphaNumKey(raw["code"]),
		Barcode:     reconcile.DigitKey(raw["barcode"]),
		Description: reconcile.FreeText(raw["description"]),
		Laboratory:  reconcile.FreeText(raw["laboratory"]),
		Category:    reconcile.FreeText(raw["category"]),
	}

	var errs []string
	if err := CodeFormat.Check(p.Code); err != nil {
		errs = append(errs, err.Error())
	}
	if err := BarcodeFormat.Check(p.Barcode); err != nil {
		errs = append(errs, err.Error())
	}
	price, err := parsePrice(raw["unitPrice"])
	if err != nil {
		errs = append(errs, err.Error())
	}
	p.UnitPrice = price

	if len(errs) > 0 {
		return Product{}, errs
	}
	return p, nil
}

// Normalize re-runs key normalization on a record that arrived already typed
// and validates the formats.
func (p Product) Normalize() (Product, []string) {
	p.Code = reconcile.AlphaNumKey(p.Code)
	p.Barcode = reconcile.DigitKey(p.Barcode)
	p.Description = reconcile.FreeText(p.Description)
	p.Laboratory = reconcile.FreeText(p.Laboratory)
	p.Category = reconcile.FreeText(p.Category)

	var errs []string
	if err := CodeFormat.Check(p.Code); err != nil {
		errs = append(errs, err.Error())
	}
	if err := BarcodeFormat.Check(p.Barcode); err != nil {
		errs = append(errs, err.Error())
	}
	if p.UnitPrice < 0 {
		errs = append(errs, "unit price must not be negative")
	}
	if len(errs) > 0 {
		return Product{}, errs
	}
	return p, nil
}

func parsePrice(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, errors.New("unit price is required")
	case float64:
		if n < 0 {
			return 0, errors.New("unit price must not be negative")
		}
		return n, nil
	case int:
		if n < 0 {
			return 0, errors.New("unit price must not be negative")
		}
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || f < 0 {
			return 0, errors.New("unit price must be a non-negative number")
		}
		return f, nil
	default:
		return 0, errors.New("unit price must be a number")
	}
}
