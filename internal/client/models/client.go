// Package models defines the client record and its normalization from
// uploaded rows.
package models

import (
	"time"

	"backoffice/internal/reconcile"
)

// Key formats for the client domain: a client code is three letters followed
// by three digits, a tax id resolves to eleven digits.
var (
	CodeFormat  = reconcile.KeyFormat{Name: "client code", Letters: 3, Digits: 3}
	TaxIDFormat = reconcile.DigitFormat{Name: "tax id", Digits: 11}
)

// Client is a normalized client record. Code and TaxID are independently
// unique across the store.
type Client struct {
	Code         string    `json:"code"`
	TaxID        string    `json:"taxId"`
	BusinessName string    `json:"businessName"`
	ContactName  string    `json:"contactName"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// RecordKeys exposes the natural keys to the reconciliation engine.
func (c Client) RecordKeys() reconcile.Keys {
	return reconcile.Keys{Primary: c.Code, Secondary: c.TaxID}
}

// FromRaw normalizes one uploaded row into a Client, or reports why it
// cannot. Descriptive fields are defaulted, never rejected; only key format
// problems invalidate a row. Purely structural, no store access.
func FromRaw(raw reconcile.RawRecord) (Client, []string) {
	c := Client{
		Code:         reconcile.AlphaNumKey(raw["code"]),
		TaxID:        reconcile.DigitKey(raw["taxId"]),
		BusinessName: reconcile.FreeText(raw["businessName"]),
		ContactName:  reconcile.FreeText(raw["contactName"]),
		Address:      reconcile.FreeText(raw["address"]),
		Phone:        reconcile.DigitKey(raw["phone"]),
		Email:        reconcile.FreeText(raw["email"]),
	}

	var errs []string
	if err := CodeFormat.Check(c.Code); err != nil {
		errs = append(errs, err.Error())
	}
	if err := TaxIDFormat.Check(c.TaxID); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return Client{}, errs
	}
	return c, nil
}

// Normalize re-runs key normalization on a record that arrived already
// typed (the commit endpoint receives records echoed back from analyze) and
// validates the formats. Normalizers are idempotent, so canonical input
// passes through unchanged.
func (c Client) Normalize() (Client, []string) {
	c.Code = reconcile.AlphaNumKey(c.Code)
	c.TaxID = reconcile.DigitKey(c.TaxID)
	c.BusinessName = reconcile.FreeText(c.BusinessName)
	c.ContactName = reconcile.FreeText(c.ContactName)
	c.Address = reconcile.FreeText(c.Address)
	c.Phone = reconcile.DigitKey(c.Phone)
	c.Email = reconcile.FreeText(c.Email)

	var errs []string
	if err := CodeFormat.Check(c.Code); err != nil {
		errs = append(errs, err.Error())
	}
	if err := TaxIDFormat.Check(c.TaxID); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return Client{}, errs
	}
	return c, nil
}
