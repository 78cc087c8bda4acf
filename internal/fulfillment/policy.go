// Package fulfillment coordinates a sale against current stock and
// decides when a replenishment purchase must be appended to the ledger.
// Every multi-step sequence (stock check, optional reorder, sale) runs
// under a per-item lock so two concurrent fulfillments of the same item
// cannot both read pre-reorder stock and double-order.
package fulfillment

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beaverschoice/paperd/internal/catalog"
	"github.com/beaverschoice/paperd/internal/ledger"
	"github.com/beaverschoice/paperd/internal/valuation"
)

// defaultMinStockLevel applies to items that were never part of the
// seeded inventory reference.
const defaultMinStockLevel = 100

// InsufficientFundsError signals that a reorder's cost exceeds the cash
// balance as of the order date. The caller can retry with a smaller
// quantity or postpone; no transaction was appended.
type InsufficientFundsError struct {
	Cost      decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: cost $%s exceeds available cash $%s",
		e.Cost.StringFixed(2), e.Available.StringFixed(2))
}

// ReorderConfirmation describes a stock-order transaction appended by
// PlaceReorder or by the automatic reorder step of Fulfill.
type ReorderConfirmation struct {
	TransactionID int64
	ItemName      string
	Quantity      int64
	UnitPrice     decimal.Decimal
	Cost          decimal.Decimal
	OrderDate     time.Time
	DeliveryDate  time.Time
	LeadTime      string
}

// FulfillResult is the outcome of a completed fulfillment. At most one of
// Reorder and ReorderDeclined is set: the former when an automatic
// replenishment was appended ahead of the sale, the latter when one was
// needed but unaffordable (the sale still records).
type FulfillResult struct {
	TransactionID   int64
	ItemName        string
	Quantity        int64
	SalePrice       decimal.Decimal
	OrderDate       time.Time
	DeliveryDate    time.Time
	LeadTime        string
	UpdatedCash     decimal.Decimal
	UpdatedStock    int64
	BackOrdered     bool
	Reorder         *ReorderConfirmation
	ReorderDeclined *InsufficientFundsError
}

// Policy couples inventory state to ledger writes.
type Policy struct {
	store     *ledger.Store
	catalog   *catalog.Catalog
	valuation *valuation.Engine
	locks     *itemLocks
}

func NewPolicy(store *ledger.Store, cat *catalog.Catalog, val *valuation.Engine) *Policy {
	return &Policy{
		store:     store,
		catalog:   cat,
		valuation: val,
		locks:     newItemLocks(),
	}
}

// PlaceReorder appends a stock-order transaction for the item at catalog
// cost, after checking affordability against the cash balance as of the
// order date.
func (p *Policy) PlaceReorder(itemName string, quantity int64, orderDate time.Time) (ReorderConfirmation, error) {
	if quantity <= 0 {
		return ReorderConfirmation{}, &ledger.ValidationError{Reason: "quantity must be positive"}
	}
	item, err := p.catalog.Lookup(itemName)
	if err != nil {
		return ReorderConfirmation{}, err
	}

	unlock := p.locks.lock(item.Name)
	defer unlock()

	return p.reorderLocked(item, quantity, orderDate)
}

// reorderLocked performs the affordability check and the stock-order
// append. Callers must hold the item lock.
func (p *Policy) reorderLocked(item catalog.Item, quantity int64, orderDate time.Time) (ReorderConfirmation, error) {
	cost := decimal.NewFromInt(quantity).Mul(item.UnitPrice)

	cash, err := p.valuation.CashBalance(orderDate)
	if err != nil {
		return ReorderConfirmation{}, fmt.Errorf("checking cash balance: %w", err)
	}
	if cost.GreaterThan(cash.Balance) {
		return ReorderConfirmation{}, &InsufficientFundsError{Cost: cost, Available: cash.Balance}
	}

	id, err := p.store.Append(ledger.Transaction{
		ItemName: item.Name,
		Kind:     ledger.KindStockOrder,
		Units:    quantity,
		Price:    cost,
		Date:     orderDate,
	})
	if err != nil {
		return ReorderConfirmation{}, err
	}

	delivery, lead := valuation.EstimateDelivery(orderDate, quantity)
	slog.Info("reorder placed",
		"item", item.Name, "units", quantity, "cost", cost.StringFixed(2), "transaction_id", id)

	return ReorderConfirmation{
		TransactionID: id,
		ItemName:      item.Name,
		Quantity:      quantity,
		UnitPrice:     item.UnitPrice,
		Cost:          cost,
		OrderDate:     orderDate,
		DeliveryDate:  delivery,
		LeadTime:      lead,
	}, nil
}

// Fulfill records a sale at the caller-supplied price (never derived from
// the catalog; negotiated pricing is allowed). If the projected post-sale
// stock would breach the minimum threshold, a replenishment stock-order
// is appended before the sale so its cost hits the cash balance ahead of
// the sale's revenue. Selling more units than are in stock is permitted
// (back-order) and reported as a warning, not an error.
func (p *Policy) Fulfill(itemName string, quantity int64, price decimal.Decimal, orderDate time.Time) (FulfillResult, error) {
	if quantity <= 0 {
		return FulfillResult{}, &ledger.ValidationError{Reason: "quantity must be positive"}
	}
	if price.IsNegative() {
		return FulfillResult{}, &ledger.ValidationError{Reason: "price cannot be negative"}
	}
	item, err := p.catalog.Lookup(itemName)
	if err != nil {
		return FulfillResult{}, err
	}

	unlock := p.locks.lock(item.Name)
	defer unlock()

	result := FulfillResult{
		ItemName:  item.Name,
		Quantity:  quantity,
		SalePrice: price,
		OrderDate: orderDate,
	}

	stock, err := p.valuation.StockLevel(item.Name, orderDate)
	if err != nil {
		return FulfillResult{}, fmt.Errorf("checking stock level: %w", err)
	}

	// Reorder decision uses pre-reorder stock; the threshold check and the
	// append happen under the same item lock.
	minLevel := p.MinStockLevel(item.Name)
	if stockAfterSale := stock - quantity; stockAfterSale < minLevel {
		reorderQty := 2*minLevel - stockAfterSale
		if reorderQty > 0 {
			conf, err := p.reorderLocked(item, reorderQty, orderDate)
			switch e := err.(type) {
			case nil:
				result.Reorder = &conf
				stock += reorderQty
			case *InsufficientFundsError:
				result.ReorderDeclined = e
				slog.Warn("auto-reorder declined",
					"item", item.Name, "units", reorderQty,
					"cost", e.Cost.StringFixed(2), "available", e.Available.StringFixed(2))
			default:
				return FulfillResult{}, fmt.Errorf("auto-reorder: %w", err)
			}
		}
	}

	if stock < quantity && stock > 0 {
		result.BackOrdered = true
	}

	id, err := p.store.Append(ledger.Transaction{
		ItemName: item.Name,
		Kind:     ledger.KindSale,
		Units:    quantity,
		Price:    price,
		Date:     orderDate,
	})
	if err != nil {
		return FulfillResult{}, err
	}
	result.TransactionID = id

	cash, err := p.valuation.CashBalance(orderDate)
	if err != nil {
		return FulfillResult{}, fmt.Errorf("reading updated cash: %w", err)
	}
	result.UpdatedCash = cash.Balance

	updatedStock, err := p.valuation.StockLevel(item.Name, orderDate)
	if err != nil {
		return FulfillResult{}, fmt.Errorf("reading updated stock: %w", err)
	}
	result.UpdatedStock = updatedStock

	result.DeliveryDate, result.LeadTime = valuation.EstimateDelivery(orderDate, quantity)
	return result, nil
}

// MinStockLevel reads an item's seeded reorder threshold, falling back
// to the default for items outside the seeded inventory.
func (p *Policy) MinStockLevel(itemName string) int64 {
	level, err := p.store.MinStockLevel(itemName)
	if err != nil {
		return defaultMinStockLevel
	}
	return level
}
