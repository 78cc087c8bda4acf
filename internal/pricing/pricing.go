// Package pricing computes itemized customer quotes: per-line bulk
// discount tiers plus a final "friendly rounding" of the grand total.
// The engine is pure; it reads the catalog and touches no ledger state.
package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/beaverschoice/paperd/internal/catalog"
)

// ErrEmptyQuote is returned when a decoded request contains no line items.
var ErrEmptyQuote = errors.New("no items provided in the quote request")

// InvalidInputError reports a request body that could not be decoded into
// line items at all (as opposed to individual bad lines, which are
// quietly skipped or reported per line).
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid quote input: " + e.Reason
}

// LineItem is one requested (item, quantity) pair. A Quantity of zero
// marks a line whose quantity failed coercion; Calculate skips it.
type LineItem struct {
	Item     string
	Quantity int64
}

// QuoteLine is the priced result for a single line. NotFound lines carry
// only the requested name; their amounts are zero and they contribute
// nothing to the totals.
type QuoteLine struct {
	Item           string
	NotFound       bool
	Quantity       int64
	UnitPrice      decimal.Decimal
	Subtotal       decimal.Decimal
	DiscountRate   decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// QuoteResult is a full itemized quote.
type QuoteResult struct {
	Reference     string
	Lines         []QuoteLine
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	RawTotal      decimal.Decimal
	Total         decimal.Decimal
	Explanation   string
}

// Engine prices line items against a catalog.
type Engine struct {
	catalog *catalog.Catalog
}

func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{catalog: cat}
}

// DiscountRate returns the bulk discount for a single line's quantity:
// below 100 units no discount, 100-499 units 5%, 500-999 units 10%,
// 1000 and up 15%. Tiers apply per line, never to the aggregate.
func DiscountRate(quantity int64) decimal.Decimal {
	switch {
	case quantity < 100:
		return decimal.Zero
	case quantity < 500:
		return decimal.RequireFromString("0.05")
	case quantity < 1000:
		return decimal.RequireFromString("0.10")
	default:
		return decimal.RequireFromString("0.15")
	}
}

// FriendlyRound rounds a raw grand total to a coarser denomination for
// presentation: below 100 to the nearest 5, below 500 to the nearest 10,
// otherwise to the nearest 50. Applied once to the total, never per line.
// The precision loss is deliberate and must stay reproducible.
func FriendlyRound(raw decimal.Decimal) decimal.Decimal {
	var step decimal.Decimal
	switch {
	case raw.LessThan(decimal.NewFromInt(100)):
		step = decimal.NewFromInt(5)
	case raw.LessThan(decimal.NewFromInt(500)):
		step = decimal.NewFromInt(10)
	default:
		step = decimal.NewFromInt(50)
	}
	return raw.Div(step).Round(0).Mul(step)
}

// Calculate prices the given lines. Lines with non-positive quantities
// are skipped without error; lines whose item is not in the catalog are
// reported as not found but do not abort the rest. An empty line set
// (before quantity filtering) returns ErrEmptyQuote.
func (e *Engine) Calculate(lines []LineItem) (QuoteResult, error) {
	if len(lines) == 0 {
		return QuoteResult{}, ErrEmptyQuote
	}

	result := QuoteResult{
		Reference:     uuid.New().String(),
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}

		item, err := e.catalog.Lookup(line.Item)
		if err != nil {
			result.Lines = append(result.Lines, QuoteLine{Item: line.Item, NotFound: true})
			continue
		}

		qty := decimal.NewFromInt(line.Quantity)
		subtotal := qty.Mul(item.UnitPrice)
		rate := DiscountRate(line.Quantity)
		discount := subtotal.Mul(rate)

		result.Lines = append(result.Lines, QuoteLine{
			Item:           item.Name,
			Quantity:       line.Quantity,
			UnitPrice:      item.UnitPrice,
			Subtotal:       subtotal,
			DiscountRate:   rate,
			DiscountAmount: discount,
			Total:          subtotal.Sub(discount),
		})
		result.Subtotal = result.Subtotal.Add(subtotal)
		result.TotalDiscount = result.TotalDiscount.Add(discount)
	}

	result.RawTotal = result.Subtotal.Sub(result.TotalDiscount)
	result.Total = FriendlyRound(result.RawTotal)
	result.Explanation = explain(result)
	return result, nil
}

func explain(r QuoteResult) string {
	msg := "Thank you for your order! "
	if r.TotalDiscount.IsPositive() {
		msg += fmt.Sprintf("We've applied bulk discounts totaling $%s due to your order quantities. ", r.TotalDiscount.StringFixed(2))
	}
	msg += fmt.Sprintf("The final total has been rounded to $%s for your convenience.", r.Total.StringFixed(2))
	return msg
}
