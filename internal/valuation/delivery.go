package valuation

import (
	"strings"
	"time"
)

// Lead time tiers for supplier deliveries, keyed by order quantity.
const (
	smallOrderUnits  = 10
	mediumOrderUnits = 100
	largeOrderUnits  = 1000
)

// EstimateDelivery computes the supplier delivery date for an order
// placed on base: up to 10 units ship same day, up to 100 in one day, up
// to 1000 in four, anything larger in seven. The label is the
// human-readable lead time.
func EstimateDelivery(base time.Time, quantity int64) (time.Time, string) {
	var days int
	var label string
	switch {
	case quantity <= smallOrderUnits:
		days, label = 0, "Same day"
	case quantity <= mediumOrderUnits:
		days, label = 1, "1 business day"
	case quantity <= largeOrderUnits:
		days, label = 4, "4 business days"
	default:
		days, label = 7, "7 business days"
	}
	return base.AddDate(0, 0, days), label
}

// SupplierDeliveryDate is EstimateDelivery for a raw date string. An
// unparsable order date falls back to today's wall-clock date; this is
// documented behavior, not an error.
func SupplierDeliveryDate(orderDate string, quantity int64) (time.Time, string) {
	base, err := ParseDate(orderDate)
	if err != nil {
		base = time.Now()
	}
	return EstimateDelivery(base, quantity)
}

// ParseDate accepts a calendar day, optionally with a time suffix
// ("2025-04-01" or "2025-04-01T09:30:00"), and keeps the day part.
func ParseDate(s string) (time.Time, error) {
	day, _, _ := strings.Cut(s, "T")
	return time.Parse("2006-01-02", day)
}
