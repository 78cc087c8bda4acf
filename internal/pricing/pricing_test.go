package pricing

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/beaverschoice/paperd/internal/catalog"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDiscountRate_TierBoundaries(t *testing.T) {
	cases := []struct {
		quantity int64
		want     string
	}{
		{1, "0"},
		{99, "0"},
		{100, "0.05"},
		{499, "0.05"},
		{500, "0.10"},
		{999, "0.10"},
		{1000, "0.15"},
		{25000, "0.15"},
	}
	for _, tc := range cases {
		if got := DiscountRate(tc.quantity); !got.Equal(dec(tc.want)) {
			t.Errorf("DiscountRate(%d) = %s, want %s", tc.quantity, got, tc.want)
		}
	}
}

func TestFriendlyRound(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"97.30", "95"},
		{"98.00", "100"},
		{"99.99", "100"},
		{"2.40", "0"},
		{"2.50", "5"},
		{"102.00", "100"},
		{"482.00", "480"},
		{"486.00", "490"},
		{"499.99", "500"},
		{"530.00", "550"},
		{"524.00", "500"},
		{"1275.00", "1300"},
	}
	for _, tc := range cases {
		if got := FriendlyRound(dec(tc.raw)); !got.Equal(dec(tc.want)) {
			t.Errorf("FriendlyRound(%s) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestCalculate_SingleDiscountedLine(t *testing.T) {
	eng := NewEngine(catalog.Default())

	// 500 x Glossy paper at 0.20: subtotal 100, 10% tier, raw 90.
	result, err := eng.Calculate([]LineItem{{Item: "Glossy paper", Quantity: 500}})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if result.Reference == "" {
		t.Error("quote has no reference")
	}
	if len(result.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(result.Lines))
	}
	line := result.Lines[0]
	if !line.Subtotal.Equal(dec("100")) {
		t.Errorf("line subtotal = %s, want 100", line.Subtotal)
	}
	if !line.DiscountAmount.Equal(dec("10")) {
		t.Errorf("line discount = %s, want 10", line.DiscountAmount)
	}
	if !result.RawTotal.Equal(dec("90")) {
		t.Errorf("raw total = %s, want 90", result.RawTotal)
	}
	if !result.Total.Equal(dec("90")) {
		t.Errorf("total = %s, want 90 (already a multiple of 5)", result.Total)
	}
}

func TestCalculate_DiscountPerLineNotAggregate(t *testing.T) {
	eng := NewEngine(catalog.Default())

	// Two 60-unit lines sum to 120 units, but neither line reaches the
	// 100-unit tier on its own.
	result, err := eng.Calculate([]LineItem{
		{Item: "Glossy paper", Quantity: 60},
		{Item: "Matte paper", Quantity: 60},
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !result.TotalDiscount.IsZero() {
		t.Errorf("discount = %s, want zero when no single line reaches a tier", result.TotalDiscount)
	}
}

func TestCalculate_RoundingOnlyOnGrandTotal(t *testing.T) {
	eng := NewEngine(catalog.Default())

	// 120 x Matte paper at 0.18: subtotal 21.60, 5% -> raw 20.52,
	// rounded to nearest 5 -> 20.
	result, err := eng.Calculate([]LineItem{{Item: "Matte paper", Quantity: 120}})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !result.Lines[0].Total.Equal(dec("20.52")) {
		t.Errorf("line total = %s, want unrounded 20.52", result.Lines[0].Total)
	}
	if !result.RawTotal.Equal(dec("20.52")) {
		t.Errorf("raw total = %s, want 20.52", result.RawTotal)
	}
	if !result.Total.Equal(dec("20")) {
		t.Errorf("total = %s, want 20", result.Total)
	}
}

func TestCalculate_UnknownItemReportedNotFatal(t *testing.T) {
	eng := NewEngine(catalog.Default())

	result, err := eng.Calculate([]LineItem{
		{Item: "Unobtainium paper", Quantity: 10},
		{Item: "Glossy paper", Quantity: 500},
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(result.Lines))
	}
	if !result.Lines[0].NotFound {
		t.Error("unknown item not flagged")
	}
	if !result.Lines[0].Subtotal.IsZero() {
		t.Errorf("unknown line contributes %s to subtotal", result.Lines[0].Subtotal)
	}
	if !result.RawTotal.Equal(dec("90")) {
		t.Errorf("raw total = %s, want 90 from the known line only", result.RawTotal)
	}
}

func TestCalculate_NonPositiveQuantitiesSkipped(t *testing.T) {
	eng := NewEngine(catalog.Default())

	result, err := eng.Calculate([]LineItem{
		{Item: "Glossy paper", Quantity: 0},
		{Item: "Matte paper", Quantity: -5},
		{Item: "A4 paper", Quantity: 100},
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("got %d lines, want 1 after skipping non-positive quantities", len(result.Lines))
	}
	if result.Lines[0].Item != "A4 paper" {
		t.Errorf("surviving line = %q, want A4 paper", result.Lines[0].Item)
	}
}

func TestCalculate_EmptyInput(t *testing.T) {
	eng := NewEngine(catalog.Default())

	if _, err := eng.Calculate(nil); !errors.Is(err, ErrEmptyQuote) {
		t.Errorf("error = %v, want ErrEmptyQuote", err)
	}
}

func TestCalculate_ExplanationMentionsDiscountOnlyWhenApplied(t *testing.T) {
	eng := NewEngine(catalog.Default())

	withDiscount, err := eng.Calculate([]LineItem{{Item: "Glossy paper", Quantity: 500}})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !strings.Contains(withDiscount.Explanation, "bulk discounts totaling $10.00") {
		t.Errorf("explanation missing discount note: %q", withDiscount.Explanation)
	}

	noDiscount, err := eng.Calculate([]LineItem{{Item: "Glossy paper", Quantity: 50}})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if strings.Contains(noDiscount.Explanation, "discount") {
		t.Errorf("explanation mentions discount without one: %q", noDiscount.Explanation)
	}
	if !strings.Contains(noDiscount.Explanation, "rounded to $10.00") {
		t.Errorf("explanation missing rounded total: %q", noDiscount.Explanation)
	}
}

func TestParseLineItems_ListPreservesOrder(t *testing.T) {
	raw := []byte(`[{"item": "Matte paper", "quantity": 200}, {"item": "A4 paper", "quantity": 50}]`)

	lines, err := ParseLineItems(raw)
	if err != nil {
		t.Fatalf("ParseLineItems: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Item != "Matte paper" || lines[1].Item != "A4 paper" {
		t.Errorf("order not preserved: %v", lines)
	}
	if lines[0].Quantity != 200 || lines[1].Quantity != 50 {
		t.Errorf("quantities wrong: %v", lines)
	}
}

func TestParseLineItems_MappingSortedByName(t *testing.T) {
	raw := []byte(`{"Matte paper": 200, "A4 paper": 50}`)

	lines, err := ParseLineItems(raw)
	if err != nil {
		t.Fatalf("ParseLineItems: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Item != "A4 paper" || lines[1].Item != "Matte paper" {
		t.Errorf("mapping not normalized to name order: %v", lines)
	}
}

func TestParseLineItems_StringQuantitiesCoerced(t *testing.T) {
	raw := []byte(`[{"item": "A4 paper", "quantity": "250"}, {"item": "Matte paper", "quantity": "lots"}]`)

	lines, err := ParseLineItems(raw)
	if err != nil {
		t.Fatalf("ParseLineItems: %v", err)
	}
	if lines[0].Quantity != 250 {
		t.Errorf("quantity = %d, want coerced 250", lines[0].Quantity)
	}
	if lines[1].Quantity != 0 {
		t.Errorf("uncoercible quantity = %d, want 0", lines[1].Quantity)
	}
}

func TestParseLineItems_BadShapes(t *testing.T) {
	var invalid *InvalidInputError

	for _, raw := range []string{`"just a string"`, `42`, `[1, 2, 3]`, `not json`} {
		_, err := ParseLineItems([]byte(raw))
		if !errors.As(err, &invalid) {
			t.Errorf("ParseLineItems(%s) error = %v, want *InvalidInputError", raw, err)
		}
	}

	for _, raw := range []string{`[]`, `{}`} {
		_, err := ParseLineItems([]byte(raw))
		if !errors.Is(err, ErrEmptyQuote) {
			t.Errorf("ParseLineItems(%s) error = %v, want ErrEmptyQuote", raw, err)
		}
	}
}
