// Package reconcile implements the two-phase bulk-import pipeline shared by
// the client and product domains: field normalization, key format checks,
// batch classification against the persisted store, and duplicate-tolerant
// bulk commits.
//
// The package is transport- and store-agnostic. Domain services feed it
// normalized candidates and a store snapshot, and adapt its results to wire
// responses.
package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawRecord is one uploaded row exactly as received, field name to
// external-format value. Never mutated, only read.
type RawRecord map[string]any

// DefaultFreeText is substituted for blank descriptive fields. It is
// uppercase so FreeText stays idempotent over its own output.
const DefaultFreeText = "NO INITIAL DATA"

// AlphaNumKey normalizes a letters-and-digits business key: uppercase, strip
// everything outside [A-Z0-9], then reassemble as all letters (input order)
// followed by all digits (input order). Spreadsheet exports arrive with
// unreliable separators and encoding artifacts between the two runs, but the
// runs themselves are well-ordered, so the reordering loses nothing.
func AlphaNumKey(v any) string {
	s, ok := stringify(v)
	if !ok {
		return ""
	}
	s = strings.ToUpper(s)

	var letters, digits strings.Builder
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			letters.WriteRune(r)
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		}
	}
	return letters.String() + digits.String()
}

// DigitKey normalizes a numeric identifier: strip every non-digit, keep
// digit order. "20-12345678-3" becomes "20123456783".
func DigitKey(v any) string {
	s, ok := stringify(v)
	if !ok {
		return ""
	}

	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// FreeText normalizes a descriptive field: trim, uppercase, and substitute
// DefaultFreeText when nothing remains. Non-text input yields "" like the
// other normalizers.
func FreeText(v any) string {
	s, ok := stringify(v)
	if !ok {
		return ""
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultFreeText
	}
	return s
}

// stringify accepts string and number values; everything else is rejected.
// Floats format without exponent notation so numeric spreadsheet cells keep
// their digits.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int8, int16, int32, int64:
		return strconv.FormatInt(toInt64(t), 10), true
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(toUint64(t), 10), true
	default:
		return "", false
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	}
	return 0
}

func toUint64(v any) uint64 {
	switch t := v.(type) {
	case uint:
		return uint64(t)
	case uint8:
		return uint64(t)
	case uint16:
		return uint64(t)
	case uint32:
		return uint64(t)
	case uint64:
		return t
	}
	return 0
}
