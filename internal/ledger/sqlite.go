package ledger

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the transaction log, the
// inventory reference table, and the seeded quote history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "paperd.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Transactions ---

// Append validates and durably inserts a transaction, returning its
// store-assigned id. The insert is committed before Append returns.
func (s *Store) Append(t Transaction) (int64, error) {
	if err := t.validate(); err != nil {
		return 0, err
	}

	res, err := s.db.Exec(`
		INSERT INTO transactions (item_name, transaction_type, units, price, transaction_date)
		VALUES (?, ?, ?, ?, ?)`,
		t.ItemName, string(t.Kind), t.Units, t.Price.String(), t.Date.Format(DateLayout),
	)
	if err != nil {
		return 0, &PersistenceError{Op: "append", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &PersistenceError{Op: "append", Err: err}
	}
	return id, nil
}

// AppendOpeningBalance records the seed cash balance. It is bookkept as a
// sale with NULL item and units so that historical report totals match;
// this is the only row allowed to carry NULLs.
func (s *Store) AppendOpeningBalance(amount decimal.Decimal, date time.Time) (int64, error) {
	if amount.IsNegative() {
		return 0, &ValidationError{Reason: "opening balance cannot be negative"}
	}
	res, err := s.db.Exec(`
		INSERT INTO transactions (item_name, transaction_type, units, price, transaction_date)
		VALUES (NULL, ?, NULL, ?, ?)`,
		string(KindSale), amount.String(), date.Format(DateLayout),
	)
	if err != nil {
		return 0, &PersistenceError{Op: "append opening balance", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &PersistenceError{Op: "append opening balance", Err: err}
	}
	return id, nil
}

// QueryAsOf returns all transactions dated on or before asOf, optionally
// filtered to one item, ordered by date then insertion order.
func (s *Store) QueryAsOf(asOf time.Time, itemName string) ([]Transaction, error) {
	query := `
		SELECT id, COALESCE(item_name, ''), transaction_type, COALESCE(units, 0), price, transaction_date
		FROM transactions
		WHERE transaction_date <= ?`
	args := []any{asOf.Format(DateLayout)}
	if itemName != "" {
		query += " AND item_name = ?"
		args = append(args, itemName)
	}
	query += " ORDER BY transaction_date ASC, id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func scanTransaction(rows *sql.Rows) (Transaction, error) {
	var t Transaction
	var kind, priceStr, dateStr string
	if err := rows.Scan(&t.ID, &t.ItemName, &kind, &t.Units, &priceStr, &dateStr); err != nil {
		return Transaction{}, err
	}
	t.Kind = Kind(kind)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parsing price for transaction %d: %w", t.ID, err)
	}
	t.Price = price
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parsing date for transaction %d: %w", t.ID, err)
	}
	t.Date = date
	return t, nil
}

// StockLevelAsOf derives the stock of one item as of a date: stock-order
// units in, sale units out. An item with no transactions reports zero.
func (s *Store) StockLevelAsOf(itemName string, asOf time.Time) (int64, error) {
	var stock int64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN transaction_type = 'stock_orders' THEN units
		                         WHEN transaction_type = 'sales' THEN -units ELSE 0 END), 0)
		FROM transactions
		WHERE item_name = ? AND transaction_date <= ?`,
		itemName, asOf.Format(DateLayout),
	).Scan(&stock)
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// PositiveStockAsOf derives stock per item as of a date, keeping only
// strictly positive totals, sorted by item name.
func (s *Store) PositiveStockAsOf(asOf time.Time) ([]ItemStock, error) {
	rows, err := s.db.Query(`
		SELECT item_name,
		       SUM(CASE WHEN transaction_type = 'stock_orders' THEN units
		                WHEN transaction_type = 'sales' THEN -units ELSE 0 END) AS stock
		FROM transactions
		WHERE item_name IS NOT NULL AND transaction_date <= ?
		GROUP BY item_name HAVING stock > 0
		ORDER BY item_name ASC`,
		asOf.Format(DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ItemStock
	for rows.Next() {
		var is ItemStock
		if err := rows.Scan(&is.ItemName, &is.Stock); err != nil {
			return nil, err
		}
		results = append(results, is)
	}
	return results, rows.Err()
}

// CashTotalsAsOf sums sale revenue and purchase cost up to asOf.
// Prices are stored as decimal text, so the fold runs in Go rather than
// SQL to keep exact arithmetic.
func (s *Store) CashTotalsAsOf(asOf time.Time) (sales, purchases decimal.Decimal, err error) {
	rows, err := s.db.Query(`
		SELECT transaction_type, price FROM transactions WHERE transaction_date <= ?`,
		asOf.Format(DateLayout),
	)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	sales, purchases = decimal.Zero, decimal.Zero
	for rows.Next() {
		var kind, priceStr string
		if err := rows.Scan(&kind, &priceStr); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("parsing stored price %q: %w", priceStr, err)
		}
		switch Kind(kind) {
		case KindSale:
			sales = sales.Add(price)
		case KindStockOrder:
			purchases = purchases.Add(price)
		}
	}
	return sales, purchases, rows.Err()
}

// Snapshot is a consistent point-in-time fold over the ledger: cash
// totals and per-item stock derived from the same set of rows.
type Snapshot struct {
	Sales     decimal.Decimal
	Purchases decimal.Decimal
	Stock     map[string]int64
}

// SnapshotAsOf folds cash and stock in a single statement so that callers
// combining both views (the financial report) cannot see read skew.
func (s *Store) SnapshotAsOf(asOf time.Time) (Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT COALESCE(item_name, ''), transaction_type, COALESCE(units, 0), price
		FROM transactions
		WHERE transaction_date <= ?`,
		asOf.Format(DateLayout),
	)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	snap := Snapshot{Sales: decimal.Zero, Purchases: decimal.Zero, Stock: make(map[string]int64)}
	for rows.Next() {
		var item, kind, priceStr string
		var units int64
		if err := rows.Scan(&item, &kind, &units, &priceStr); err != nil {
			return Snapshot{}, err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return Snapshot{}, fmt.Errorf("parsing stored price %q: %w", priceStr, err)
		}
		switch Kind(kind) {
		case KindSale:
			snap.Sales = snap.Sales.Add(price)
			if item != "" {
				snap.Stock[item] -= units
			}
		case KindStockOrder:
			snap.Purchases = snap.Purchases.Add(price)
			if item != "" {
				snap.Stock[item] += units
			}
		}
	}
	return snap, rows.Err()
}

// CountTransactions reports the total number of ledger rows. Used by the
// seed bootstrap to decide whether the ledger is virgin.
func (s *Store) CountTransactions() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&n)
	return n, err
}

// --- Inventory reference ---

func (s *Store) SaveInventoryRecord(rec InventoryRecord) error {
	if rec.MinStockLevel <= 0 {
		return &ValidationError{Reason: "min stock level must be positive"}
	}
	_, err := s.db.Exec(`
		INSERT INTO inventory (item_name, min_stock_level) VALUES (?, ?)
		ON CONFLICT(item_name) DO UPDATE SET min_stock_level = excluded.min_stock_level`,
		rec.ItemName, rec.MinStockLevel,
	)
	return err
}

// MinStockLevel returns the seeded threshold for an item, or ErrNotFound
// when the item was never part of the seeded inventory.
func (s *Store) MinStockLevel(itemName string) (int64, error) {
	var level int64
	err := s.db.QueryRow("SELECT min_stock_level FROM inventory WHERE item_name = ?", itemName).Scan(&level)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return level, err
}

// InventoryItems returns every seeded inventory reference row, sorted by
// item name. The financial report iterates these, including items whose
// derived stock has reached zero.
func (s *Store) InventoryItems() ([]InventoryRecord, error) {
	rows, err := s.db.Query("SELECT item_name, min_stock_level FROM inventory ORDER BY item_name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []InventoryRecord
	for rows.Next() {
		var rec InventoryRecord
		if err := rows.Scan(&rec.ItemName, &rec.MinStockLevel); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// --- Quote history ---

// SaveQuoteRequest stores a historical request text and returns its id.
func (s *Store) SaveQuoteRequest(response string) (int64, error) {
	res, err := s.db.Exec("INSERT INTO quote_requests (response) VALUES (?)", response)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SaveQuote stores a historical quote row linked to a request.
func (s *Store) SaveQuote(requestID int64, q QuoteRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO quotes (request_id, total_amount, quote_explanation, job_type, order_size, event_type, order_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		requestID, q.TotalAmount.String(), q.Explanation, q.JobType, q.OrderSize, q.EventType,
		q.OrderDate.Format(DateLayout),
	)
	return err
}

// SearchQuotes returns the most recent quotes whose original request text
// or explanation contains every term as a case-insensitive substring.
func (s *Store) SearchQuotes(terms []string, limit int) ([]QuoteRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	var conditions []string
	var args []any
	for _, term := range terms {
		conditions = append(conditions, "(LOWER(qr.response) LIKE ? OR LOWER(q.quote_explanation) LIKE ?)")
		pattern := "%" + strings.ToLower(term) + "%"
		args = append(args, pattern, pattern)
	}
	where := "1=1"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	query := `
		SELECT qr.response, q.total_amount, q.quote_explanation, q.job_type, q.order_size, q.event_type, q.order_date
		FROM quotes q
		JOIN quote_requests qr ON q.request_id = qr.id
		WHERE ` + where + `
		ORDER BY q.order_date DESC, q.id DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []QuoteRecord
	for rows.Next() {
		var q QuoteRecord
		var totalStr, dateStr string
		if err := rows.Scan(&q.OriginalRequest, &totalStr, &q.Explanation, &q.JobType, &q.OrderSize, &q.EventType, &dateStr); err != nil {
			return nil, err
		}
		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("parsing stored quote total %q: %w", totalStr, err)
		}
		q.TotalAmount = total
		date, err := time.Parse(DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing stored quote date %q: %w", dateStr, err)
		}
		q.OrderDate = date
		results = append(results, q)
	}
	return results, rows.Err()
}
