package pricing

import (
	"encoding/json"
	"sort"
	"strconv"
)

// ParseLineItems decodes a quote request body. Two shapes are accepted:
//
//	[{"item": "Glossy paper", "quantity": 500}, ...]
//	{"Glossy paper": 500, "Cardstock": 100}
//
// List input preserves the caller's order; mapping input is normalized to
// key order. Quantities may arrive as numbers or numeric strings; a value
// that cannot be coerced becomes zero and is later skipped by Calculate.
// A body that matches neither shape yields an InvalidInputError, and a
// body that decodes to no lines yields ErrEmptyQuote.
func ParseLineItems(raw []byte) ([]LineItem, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &InvalidInputError{Reason: "body is not valid JSON: " + err.Error()}
	}

	switch v := decoded.(type) {
	case []any:
		lines := make([]LineItem, 0, len(v))
		for _, entry := range v {
			obj, ok := entry.(map[string]any)
			if !ok {
				return nil, &InvalidInputError{Reason: `list entries must be objects with "item" and "quantity"`}
			}
			name, _ := obj["item"].(string)
			lines = append(lines, LineItem{Item: name, Quantity: coerceQuantity(obj["quantity"])})
		}
		if len(lines) == 0 {
			return nil, ErrEmptyQuote
		}
		return lines, nil

	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]LineItem, 0, len(names))
		for _, name := range names {
			lines = append(lines, LineItem{Item: name, Quantity: coerceQuantity(v[name])})
		}
		if len(lines) == 0 {
			return nil, ErrEmptyQuote
		}
		return lines, nil

	default:
		return nil, &InvalidInputError{Reason: "expected a list of line items or a name-to-quantity mapping"}
	}
}

// coerceQuantity converts a decoded JSON value to a unit count. Callers
// sometimes send quantities as strings; anything unconvertible maps to
// zero, which Calculate treats as a quiet skip rather than an error.
func coerceQuantity(v any) int64 {
	switch q := v.(type) {
	case float64:
		return int64(q)
	case string:
		if n, err := strconv.ParseInt(q, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(q, 64); err == nil {
			return int64(f)
		}
		return 0
	default:
		return 0
	}
}
