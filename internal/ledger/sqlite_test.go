package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return d
}

func mustAppend(t *testing.T, s *Store, tx Transaction) int64 {
	t.Helper()
	id, err := s.Append(tx)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	return id
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMigrations_AppliedInOrder(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) < 2 {
		t.Fatalf("got %d migrations, want at least 2", len(versions))
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations out of order: %v", versions)
		}
	}
}

func TestAppend_AssignsIncreasingIDs(t *testing.T) {
	s := openTestStore(t)
	d := day(t, "2025-02-01")

	id1 := mustAppend(t, s, Transaction{ItemName: "A4 paper", Kind: KindStockOrder, Units: 100, Price: dec("5.00"), Date: d})
	id2 := mustAppend(t, s, Transaction{ItemName: "A4 paper", Kind: KindSale, Units: 40, Price: dec("3.00"), Date: d})

	if id2 <= id1 {
		t.Errorf("ids not increasing: %d then %d", id1, id2)
	}
}

func TestAppend_Validation(t *testing.T) {
	s := openTestStore(t)
	d := day(t, "2025-02-01")

	cases := []struct {
		name string
		tx   Transaction
	}{
		{"unknown kind", Transaction{ItemName: "A4 paper", Kind: "refund", Units: 1, Price: dec("1"), Date: d}},
		{"missing item", Transaction{Kind: KindSale, Units: 1, Price: dec("1"), Date: d}},
		{"zero units", Transaction{ItemName: "A4 paper", Kind: KindSale, Units: 0, Price: dec("1"), Date: d}},
		{"negative units", Transaction{ItemName: "A4 paper", Kind: KindSale, Units: -5, Price: dec("1"), Date: d}},
		{"negative price", Transaction{ItemName: "A4 paper", Kind: KindSale, Units: 1, Price: dec("-1"), Date: d}},
		{"zero date", Transaction{ItemName: "A4 paper", Kind: KindSale, Units: 1, Price: dec("1")}},
	}
	for _, tc := range cases {
		_, err := s.Append(tc.tx)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: error = %v, want *ValidationError", tc.name, err)
		}
	}

	n, err := s.CountTransactions()
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if n != 0 {
		t.Errorf("rejected transactions were persisted: count = %d", n)
	}
}

func TestStockLevelAsOf(t *testing.T) {
	s := openTestStore(t)

	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindStockOrder, Units: 200, Price: dec("30.00"), Date: day(t, "2025-01-10")})
	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindSale, Units: 50, Price: dec("9.00"), Date: day(t, "2025-01-20")})
	mustAppend(t, s, Transaction{ItemName: "Flyers", Kind: KindStockOrder, Units: 80, Price: dec("12.00"), Date: day(t, "2025-01-15")})

	cases := []struct {
		asOf string
		want int64
	}{
		{"2025-01-09", 0},
		{"2025-01-10", 200},
		{"2025-01-19", 200},
		{"2025-01-20", 150},
		{"2025-06-01", 150},
	}
	for _, tc := range cases {
		got, err := s.StockLevelAsOf("Cardstock", day(t, tc.asOf))
		if err != nil {
			t.Fatalf("StockLevelAsOf(%s): %v", tc.asOf, err)
		}
		if got != tc.want {
			t.Errorf("StockLevelAsOf(%s) = %d, want %d", tc.asOf, got, tc.want)
		}
	}
}

func TestStockLevelAsOf_UnknownItemIsZero(t *testing.T) {
	s := openTestStore(t)

	got, err := s.StockLevelAsOf("Vellum", day(t, "2025-06-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}
}

func TestPastQueriesStableUnderNewWrites(t *testing.T) {
	s := openTestStore(t)

	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindStockOrder, Units: 100, Price: dec("15.00"), Date: day(t, "2025-01-10")})

	before, err := s.StockLevelAsOf("Cardstock", day(t, "2025-01-31"))
	if err != nil {
		t.Fatalf("StockLevelAsOf: %v", err)
	}

	// Later-dated writes must not change January's answer.
	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindSale, Units: 60, Price: dec("9.00"), Date: day(t, "2025-02-15")})

	after, err := s.StockLevelAsOf("Cardstock", day(t, "2025-01-31"))
	if err != nil {
		t.Fatalf("StockLevelAsOf: %v", err)
	}
	if before != after {
		t.Errorf("historical stock changed: %d -> %d", before, after)
	}
}

func TestPositiveStockAsOf_ExcludesSoldOut(t *testing.T) {
	s := openTestStore(t)
	d := day(t, "2025-03-01")

	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindStockOrder, Units: 100, Price: dec("15.00"), Date: d})
	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindSale, Units: 100, Price: dec("20.00"), Date: d})
	mustAppend(t, s, Transaction{ItemName: "A4 paper", Kind: KindStockOrder, Units: 10, Price: dec("0.50"), Date: d})

	stocks, err := s.PositiveStockAsOf(d)
	if err != nil {
		t.Fatalf("PositiveStockAsOf: %v", err)
	}
	if len(stocks) != 1 {
		t.Fatalf("got %d rows, want 1 (sold-out item excluded)", len(stocks))
	}
	if stocks[0].ItemName != "A4 paper" || stocks[0].Stock != 10 {
		t.Errorf("got %+v, want A4 paper with 10 units", stocks[0])
	}
}

func TestOpeningBalanceCountsAsRevenue(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.AppendOpeningBalance(dec("50000"), day(t, "2025-01-01")); err != nil {
		t.Fatalf("AppendOpeningBalance: %v", err)
	}
	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindStockOrder, Units: 100, Price: dec("15.00"), Date: day(t, "2025-01-02")})

	sales, purchases, err := s.CashTotalsAsOf(day(t, "2025-01-31"))
	if err != nil {
		t.Fatalf("CashTotalsAsOf: %v", err)
	}
	if !sales.Equal(dec("50000")) {
		t.Errorf("sales = %s, want 50000", sales)
	}
	if !purchases.Equal(dec("15.00")) {
		t.Errorf("purchases = %s, want 15.00", purchases)
	}

	// The NULL-item opening row must not pollute per-item stock.
	stocks, err := s.PositiveStockAsOf(day(t, "2025-01-31"))
	if err != nil {
		t.Fatalf("PositiveStockAsOf: %v", err)
	}
	for _, st := range stocks {
		if st.ItemName == "" {
			t.Error("opening balance row leaked into stock listing")
		}
	}
}

func TestAppendOpeningBalance_RejectsNegative(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AppendOpeningBalance(dec("-1"), day(t, "2025-01-01"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("error = %v, want *ValidationError", err)
	}
}

func TestCashTotals_ExactDecimalArithmetic(t *testing.T) {
	s := openTestStore(t)
	d := day(t, "2025-03-01")

	// 0.1 + 0.2 style values that float math would mangle.
	for i := 0; i < 10; i++ {
		mustAppend(t, s, Transaction{ItemName: "Sticky notes", Kind: KindSale, Units: 1, Price: dec("0.10"), Date: d})
	}

	sales, _, err := s.CashTotalsAsOf(d)
	if err != nil {
		t.Fatalf("CashTotalsAsOf: %v", err)
	}
	if !sales.Equal(dec("1.00")) {
		t.Errorf("sales = %s, want exactly 1.00", sales)
	}
}

func TestSnapshotAsOf_MatchesSeparateQueries(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.AppendOpeningBalance(dec("1000"), day(t, "2025-01-01")); err != nil {
		t.Fatalf("AppendOpeningBalance: %v", err)
	}
	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindStockOrder, Units: 100, Price: dec("15.00"), Date: day(t, "2025-01-02")})
	mustAppend(t, s, Transaction{ItemName: "Cardstock", Kind: KindSale, Units: 30, Price: dec("6.00"), Date: day(t, "2025-01-03")})

	asOf := day(t, "2025-01-31")
	snap, err := s.SnapshotAsOf(asOf)
	if err != nil {
		t.Fatalf("SnapshotAsOf: %v", err)
	}

	sales, purchases, err := s.CashTotalsAsOf(asOf)
	if err != nil {
		t.Fatalf("CashTotalsAsOf: %v", err)
	}
	if !snap.Sales.Equal(sales) || !snap.Purchases.Equal(purchases) {
		t.Errorf("snapshot cash %s/%s, separate queries %s/%s", snap.Sales, snap.Purchases, sales, purchases)
	}

	stock, err := s.StockLevelAsOf("Cardstock", asOf)
	if err != nil {
		t.Fatalf("StockLevelAsOf: %v", err)
	}
	if snap.Stock["Cardstock"] != stock {
		t.Errorf("snapshot stock = %d, separate query = %d", snap.Stock["Cardstock"], stock)
	}
}

func TestQueryAsOf_OrderedByDateThenInsertion(t *testing.T) {
	s := openTestStore(t)

	// Inserted out of date order on purpose.
	mustAppend(t, s, Transaction{ItemName: "Flyers", Kind: KindSale, Units: 5, Price: dec("1.00"), Date: day(t, "2025-02-10")})
	mustAppend(t, s, Transaction{ItemName: "Flyers", Kind: KindStockOrder, Units: 50, Price: dec("7.50"), Date: day(t, "2025-01-05")})
	mustAppend(t, s, Transaction{ItemName: "Flyers", Kind: KindSale, Units: 3, Price: dec("0.60"), Date: day(t, "2025-02-10")})

	txs, err := s.QueryAsOf(day(t, "2025-12-31"), "Flyers")
	if err != nil {
		t.Fatalf("QueryAsOf: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	if !txs[0].Date.Equal(day(t, "2025-01-05")) {
		t.Errorf("first transaction dated %s, want 2025-01-05", txs[0].Date.Format(DateLayout))
	}
	// Same-date rows keep insertion order.
	if txs[1].Units != 5 || txs[2].Units != 3 {
		t.Errorf("same-date ordering wrong: units %d then %d, want 5 then 3", txs[1].Units, txs[2].Units)
	}
}

func TestMinStockLevel(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveInventoryRecord(InventoryRecord{ItemName: "A4 paper", MinStockLevel: 120}); err != nil {
		t.Fatalf("SaveInventoryRecord: %v", err)
	}

	level, err := s.MinStockLevel("A4 paper")
	if err != nil {
		t.Fatalf("MinStockLevel: %v", err)
	}
	if level != 120 {
		t.Errorf("level = %d, want 120", level)
	}

	if _, err := s.MinStockLevel("Vellum"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSaveInventoryRecord_Upsert(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveInventoryRecord(InventoryRecord{ItemName: "A4 paper", MinStockLevel: 120}); err != nil {
		t.Fatalf("SaveInventoryRecord: %v", err)
	}
	if err := s.SaveInventoryRecord(InventoryRecord{ItemName: "A4 paper", MinStockLevel: 90}); err != nil {
		t.Fatalf("SaveInventoryRecord upsert: %v", err)
	}

	level, err := s.MinStockLevel("A4 paper")
	if err != nil {
		t.Fatalf("MinStockLevel: %v", err)
	}
	if level != 90 {
		t.Errorf("level = %d, want updated 90", level)
	}

	items, err := s.InventoryItems()
	if err != nil {
		t.Fatalf("InventoryItems: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d rows, want 1 after upsert", len(items))
	}
}

func saveQuote(t *testing.T, s *Store, request, explanation, date string, total decimal.Decimal) {
	t.Helper()
	id, err := s.SaveQuoteRequest(request)
	if err != nil {
		t.Fatalf("SaveQuoteRequest: %v", err)
	}
	if err := s.SaveQuote(id, QuoteRecord{
		TotalAmount: total,
		Explanation: explanation,
		OrderDate:   day(t, date),
	}); err != nil {
		t.Fatalf("SaveQuote: %v", err)
	}
}

func TestSearchQuotes_ConjunctiveAcrossColumns(t *testing.T) {
	s := openTestStore(t)

	saveQuote(t, s, "need glossy paper for a wedding", "Glossy paper with bulk discount", "2025-01-10", dec("90"))
	saveQuote(t, s, "flyers for a fundraiser", "Flyers at the 10% tier", "2025-01-11", dec("45"))

	// One term hits the request, the other hits the explanation.
	got, err := s.SearchQuotes([]string{"wedding", "discount"}, 5)
	if err != nil {
		t.Fatalf("SearchQuotes: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].OriginalRequest != "need glossy paper for a wedding" {
		t.Errorf("wrong match: %q", got[0].OriginalRequest)
	}

	// A term that matches nothing excludes otherwise-matching rows.
	got, err = s.SearchQuotes([]string{"wedding", "cardboard"}, 5)
	if err != nil {
		t.Fatalf("SearchQuotes: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0 for a failed conjunct", len(got))
	}
}

func TestSearchQuotes_CaseInsensitive(t *testing.T) {
	s := openTestStore(t)

	saveQuote(t, s, "Need GLOSSY paper", "explanation", "2025-01-10", dec("90"))

	got, err := s.SearchQuotes([]string{"glossy"}, 5)
	if err != nil {
		t.Fatalf("SearchQuotes: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d results, want 1", len(got))
	}
}

func TestSearchQuotes_MostRecentFirstWithLimit(t *testing.T) {
	s := openTestStore(t)

	for i, date := range []string{"2025-01-01", "2025-01-03", "2025-01-02"} {
		saveQuote(t, s, "poster paper order", "poster explanation", date, decimal.NewFromInt(int64(i+1)))
	}

	got, err := s.SearchQuotes([]string{"poster"}, 2)
	if err != nil {
		t.Fatalf("SearchQuotes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want limit 2", len(got))
	}
	if !got[0].OrderDate.After(got[1].OrderDate) {
		t.Errorf("results not most-recent-first: %s then %s",
			got[0].OrderDate.Format(DateLayout), got[1].OrderDate.Format(DateLayout))
	}
}
