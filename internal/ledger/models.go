// Package ledger persists the append-only transaction log that every
// derived quantity (stock, cash, asset value) is computed from. No row is
// ever updated or deleted; point-in-time queries select rows with
// transaction_date <= asOf, ties broken by insertion order.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Kind is the transaction type. The wire strings match the historical
// schema so report totals stay comparable across implementations.
type Kind string

const (
	KindStockOrder Kind = "stock_orders"
	KindSale       Kind = "sales"
)

// DateLayout is the calendar-day granularity used throughout the ledger.
// ISO dates compare lexicographically, which the as-of queries rely on.
const DateLayout = "2006-01-02"

// Transaction is a single immutable ledger entry. ItemName is empty and
// Units zero only for the opening-balance row, which is stored with SQL
// NULLs in those columns (see AppendOpeningBalance).
type Transaction struct {
	ID       int64
	ItemName string
	Kind     Kind
	Units    int64
	Price    decimal.Decimal
	Date     time.Time
}

// ItemStock pairs an item with its derived stock level.
type ItemStock struct {
	ItemName string
	Stock    int64
}

// InventoryRecord is the seeded reference row for an item: only the
// minimum threshold is authoritative here; current stock is always
// recomputed from the ledger.
type InventoryRecord struct {
	ItemName      string
	MinStockLevel int64
}

// QuoteRecord is a seeded historical quote joined with its original
// request text. Read-only at runtime; used by the history search.
type QuoteRecord struct {
	OriginalRequest string
	TotalAmount     decimal.Decimal
	Explanation     string
	JobType         string
	OrderSize       string
	EventType       string
	OrderDate       time.Time
}

// ValidationError reports a malformed transaction rejected before any
// write happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid transaction: " + e.Reason
}

// PersistenceError wraps a storage failure on append. The failed append
// left no partial state: each transaction is a single atomic row.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (t Transaction) validate() error {
	if t.Kind != KindStockOrder && t.Kind != KindSale {
		return &ValidationError{Reason: fmt.Sprintf("unknown kind %q", t.Kind)}
	}
	if t.ItemName == "" {
		return &ValidationError{Reason: "item name is required"}
	}
	if t.Units <= 0 {
		return &ValidationError{Reason: "units must be positive"}
	}
	if t.Price.IsNegative() {
		return &ValidationError{Reason: "price cannot be negative"}
	}
	if t.Date.IsZero() {
		return &ValidationError{Reason: "transaction date is required"}
	}
	return nil
}
