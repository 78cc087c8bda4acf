// Package valuation derives point-in-time views from the ledger: stock
// per item, cash balance, and the financial report. Nothing here is
// stored; every value is recomputed from the transaction log on demand.
package valuation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beaverschoice/paperd/internal/catalog"
	"github.com/beaverschoice/paperd/internal/ledger"
)

// Engine answers derived-state queries against an explicit store handle.
type Engine struct {
	store   *ledger.Store
	catalog *catalog.Catalog
}

func New(store *ledger.Store, cat *catalog.Catalog) *Engine {
	return &Engine{store: store, catalog: cat}
}

// StockLevel reports the derived stock of one item as of a date. An item
// with no transactions yields zero, not an error.
func (e *Engine) StockLevel(itemName string, asOf time.Time) (int64, error) {
	return e.store.StockLevelAsOf(itemName, asOf)
}

// AllPositiveStock reports derived stock per item as of a date, limited
// to strictly positive totals and sorted by item name. Items that have
// sold through to zero or below are absent.
func (e *Engine) AllPositiveStock(asOf time.Time) ([]ledger.ItemStock, error) {
	return e.store.PositiveStockAsOf(asOf)
}

// CashSummary is the cash balance with its revenue/cost breakdown.
type CashSummary struct {
	Balance        decimal.Decimal
	SalesTotal     decimal.Decimal
	PurchasesTotal decimal.Decimal
}

// CashBalance computes sales revenue minus purchase cost as of a date.
// An empty ledger yields a zero balance.
func (e *Engine) CashBalance(asOf time.Time) (CashSummary, error) {
	sales, purchases, err := e.store.CashTotalsAsOf(asOf)
	if err != nil {
		return CashSummary{}, fmt.Errorf("computing cash totals: %w", err)
	}
	return CashSummary{
		Balance:        sales.Sub(purchases),
		SalesTotal:     sales,
		PurchasesTotal: purchases,
	}, nil
}

// ReportLine is one inventory row of the financial report.
type ReportLine struct {
	ItemName  string
	Stock     int64
	UnitPrice decimal.Decimal
	Value     decimal.Decimal
}

// Report is the company-wide financial picture as of a date.
type Report struct {
	AsOf           time.Time
	CashBalance    decimal.Decimal
	InventoryValue decimal.Decimal
	TotalAssets    decimal.Decimal
	Inventory      []ReportLine
}

// FinancialReport values every seeded inventory item at catalog price and
// adds the cash balance. Zero-stock items are listed at value zero rather
// than dropped. Cash and stock come from a single ledger snapshot so the
// report cannot exhibit read skew.
func (e *Engine) FinancialReport(asOf time.Time) (Report, error) {
	snap, err := e.store.SnapshotAsOf(asOf)
	if err != nil {
		return Report{}, fmt.Errorf("reading ledger snapshot: %w", err)
	}

	items, err := e.store.InventoryItems()
	if err != nil {
		return Report{}, fmt.Errorf("reading inventory reference: %w", err)
	}

	report := Report{
		AsOf:           asOf,
		CashBalance:    snap.Sales.Sub(snap.Purchases),
		InventoryValue: decimal.Zero,
	}
	for _, rec := range items {
		item, err := e.catalog.Lookup(rec.ItemName)
		if err != nil {
			return Report{}, fmt.Errorf("inventory row %q has no catalog entry: %w", rec.ItemName, err)
		}
		stock := snap.Stock[rec.ItemName]
		value := decimal.NewFromInt(stock).Mul(item.UnitPrice)
		report.InventoryValue = report.InventoryValue.Add(value)
		report.Inventory = append(report.Inventory, ReportLine{
			ItemName:  rec.ItemName,
			Stock:     stock,
			UnitPrice: item.UnitPrice,
			Value:     value,
		})
	}
	report.TotalAssets = report.CashBalance.Add(report.InventoryValue)
	return report, nil
}
