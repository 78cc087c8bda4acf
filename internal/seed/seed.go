// Package seed performs the one-time bootstrap of a fresh ledger: the
// opening cash balance, an initial stock-order per inventory item, the
// minimum-threshold reference rows, and the historical quote data used by
// the history search. Running against a non-empty ledger is a no-op.
package seed

import (
	"embed"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beaverschoice/paperd/internal/catalog"
	"github.com/beaverschoice/paperd/internal/ledger"
)

//go:embed data/*.csv
var dataFS embed.FS

// Options control the seeded starting state.
type Options struct {
	OpeningBalance decimal.Decimal
	SeedDate       time.Time
}

// DefaultOptions mirrors the historical bootstrap: $50,000 opening cash
// dated January 1st, 2025.
func DefaultOptions() Options {
	return Options{
		OpeningBalance: decimal.NewFromInt(50000),
		SeedDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Run seeds the store if and only if its ledger is empty.
func Run(store *ledger.Store, cat *catalog.Catalog, opts Options) error {
	n, err := store.CountTransactions()
	if err != nil {
		return fmt.Errorf("checking ledger state: %w", err)
	}
	if n > 0 {
		slog.Debug("ledger already seeded", "transactions", n)
		return nil
	}

	if _, err := store.AppendOpeningBalance(opts.OpeningBalance, opts.SeedDate); err != nil {
		return fmt.Errorf("seeding opening balance: %w", err)
	}

	if err := seedInventory(store, cat, opts.SeedDate); err != nil {
		return err
	}
	if err := seedQuoteHistory(store, opts.SeedDate); err != nil {
		return err
	}

	slog.Info("seeded fresh ledger",
		"opening_balance", opts.OpeningBalance.StringFixed(2),
		"seed_date", opts.SeedDate.Format(ledger.DateLayout))
	return nil
}

// seedInventory reads the inventory CSV and records, per item, one
// initial stock-order transaction (the seed quantity) plus the
// minimum-threshold reference row.
func seedInventory(store *ledger.Store, cat *catalog.Catalog, seedDate time.Time) error {
	rows, err := readCSV("data/inventory.csv", 3)
	if err != nil {
		return err
	}

	for _, row := range rows {
		name := row[0]
		item, err := cat.Lookup(name)
		if err != nil {
			return fmt.Errorf("seed inventory row %q: %w", name, err)
		}
		stock, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return fmt.Errorf("seed inventory row %q: bad stock %q: %w", name, row[1], err)
		}
		minLevel, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return fmt.Errorf("seed inventory row %q: bad min stock level %q: %w", name, row[2], err)
		}

		if _, err := store.Append(ledger.Transaction{
			ItemName: item.Name,
			Kind:     ledger.KindStockOrder,
			Units:    stock,
			Price:    decimal.NewFromInt(stock).Mul(item.UnitPrice),
			Date:     seedDate,
		}); err != nil {
			return fmt.Errorf("seeding stock for %q: %w", name, err)
		}
		if err := store.SaveInventoryRecord(ledger.InventoryRecord{
			ItemName:      item.Name,
			MinStockLevel: minLevel,
		}); err != nil {
			return fmt.Errorf("seeding threshold for %q: %w", name, err)
		}
	}
	return nil
}

// seedQuoteHistory loads the historical request/quote pairs consulted by
// the history search. All rows share the seed date, matching the original
// import.
func seedQuoteHistory(store *ledger.Store, seedDate time.Time) error {
	rows, err := readCSV("data/quotes.csv", 6)
	if err != nil {
		return err
	}

	for i, row := range rows {
		total, err := decimal.NewFromString(row[1])
		if err != nil {
			return fmt.Errorf("seed quote row %d: bad total %q: %w", i+1, row[1], err)
		}
		requestID, err := store.SaveQuoteRequest(row[0])
		if err != nil {
			return fmt.Errorf("seed quote row %d: %w", i+1, err)
		}
		if err := store.SaveQuote(requestID, ledger.QuoteRecord{
			TotalAmount: total,
			Explanation: row[2],
			JobType:     row[3],
			OrderSize:   row[4],
			EventType:   row[5],
			OrderDate:   seedDate,
		}); err != nil {
			return fmt.Errorf("seed quote row %d: %w", i+1, err)
		}
	}
	return nil
}

// readCSV loads an embedded CSV, skipping the header row and enforcing a
// fixed field count.
func readCSV(path string, fields int) ([][]string, error) {
	f, err := dataFS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: no rows", path)
	}
	return records[1:], nil
}
