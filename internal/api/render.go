package api

import (
	"github.com/beaverschoice/paperd/internal/catalog"
	"github.com/beaverschoice/paperd/internal/fulfillment"
	"github.com/beaverschoice/paperd/internal/ledger"
	"github.com/beaverschoice/paperd/internal/pricing"
	"github.com/beaverschoice/paperd/internal/valuation"
)

// Wire DTOs shared by the HTTP handlers and the MCP tools. All money is
// rendered as fixed two-decimal strings and all dates as YYYY-MM-DD so
// both surfaces serialize identically.

// Stock status labels for checkInventory responses.
const (
	StatusOutOfStock = "OUT_OF_STOCK"
	StatusLowStock   = "LOW_STOCK"
	StatusInStock    = "IN_STOCK"
)

type StockResponse struct {
	ItemName     string `json:"item_name"`
	Stock        int64  `json:"stock"`
	MinThreshold int64  `json:"min_threshold"`
	UnitPrice    string `json:"unit_price"`
	Status       string `json:"status"`
	AsOf         string `json:"as_of"`
}

type InventoryListResponse struct {
	AsOf  string      `json:"as_of"`
	Items []StockItem `json:"items"`
}

type StockItem struct {
	ItemName  string `json:"item_name"`
	Stock     int64  `json:"stock"`
	UnitPrice string `json:"unit_price"`
}

type CatalogItemResponse struct {
	ItemName  string `json:"item_name"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price"`
}

type ReorderResponse struct {
	TransactionID int64  `json:"transaction_id"`
	ItemName      string `json:"item_name"`
	Quantity      int64  `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	Cost          string `json:"cost"`
	OrderDate     string `json:"order_date"`
	DeliveryDate  string `json:"delivery_date"`
	LeadTime      string `json:"lead_time"`
}

type QuoteLineResponse struct {
	Item           string `json:"item"`
	NotFound       bool   `json:"not_found,omitempty"`
	Quantity       int64  `json:"quantity,omitempty"`
	UnitPrice      string `json:"unit_price,omitempty"`
	Subtotal       string `json:"subtotal,omitempty"`
	DiscountRate   string `json:"discount_rate,omitempty"`
	DiscountAmount string `json:"discount_amount,omitempty"`
	Total          string `json:"total,omitempty"`
}

type QuoteResponse struct {
	Reference     string              `json:"reference"`
	Lines         []QuoteLineResponse `json:"lines"`
	Subtotal      string              `json:"subtotal"`
	TotalDiscount string              `json:"total_discount"`
	RawTotal      string              `json:"raw_total"`
	Total         string              `json:"total"`
	Explanation   string              `json:"explanation"`
}

type QuoteHistoryEntry struct {
	OriginalRequest string `json:"original_request"`
	TotalAmount     string `json:"total_amount"`
	Explanation     string `json:"explanation"`
	JobType         string `json:"job_type,omitempty"`
	OrderSize       string `json:"order_size,omitempty"`
	EventType       string `json:"event_type,omitempty"`
	OrderDate       string `json:"order_date"`
}

type DeliveryResponse struct {
	Quantity     int64  `json:"quantity"`
	OrderDate    string `json:"order_date"`
	DeliveryDate string `json:"delivery_date"`
	LeadTime     string `json:"lead_time"`
}

type OrderResponse struct {
	TransactionID   int64            `json:"transaction_id"`
	ItemName        string           `json:"item_name"`
	Quantity        int64            `json:"quantity"`
	SalePrice       string           `json:"sale_price"`
	OrderDate       string           `json:"order_date"`
	DeliveryDate    string           `json:"delivery_date"`
	LeadTime        string           `json:"lead_time"`
	UpdatedCash     string           `json:"updated_cash"`
	UpdatedStock    int64            `json:"updated_stock"`
	BackOrdered     bool             `json:"back_ordered,omitempty"`
	Reorder         *ReorderResponse `json:"reorder,omitempty"`
	ReorderDeclined string           `json:"reorder_declined,omitempty"`
}

type CashResponse struct {
	AsOf           string `json:"as_of"`
	CashBalance    string `json:"cash_balance"`
	SalesTotal     string `json:"sales_total"`
	PurchasesTotal string `json:"purchases_total"`
}

type ReportLineResponse struct {
	ItemName  string `json:"item_name"`
	Stock     int64  `json:"stock"`
	UnitPrice string `json:"unit_price"`
	Value     string `json:"value"`
}

type ReportResponse struct {
	AsOf           string               `json:"as_of"`
	CashBalance    string               `json:"cash_balance"`
	InventoryValue string               `json:"inventory_value"`
	TotalAssets    string               `json:"total_assets"`
	Inventory      []ReportLineResponse `json:"inventory"`
}

// stockStatus labels a stock level against its reorder threshold.
func stockStatus(stock, minThreshold int64) string {
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock < minThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

func renderStock(item catalog.Item, stock, minThreshold int64, asOf string) StockResponse {
	return StockResponse{
		ItemName:     item.Name,
		Stock:        stock,
		MinThreshold: minThreshold,
		UnitPrice:    item.UnitPrice.StringFixed(2),
		Status:       stockStatus(stock, minThreshold),
		AsOf:         asOf,
	}
}

// renderStockItems attaches catalog prices to a positive-stock listing.
// Items missing from the catalog keep a zero price rather than failing
// the whole listing.
func renderStockItems(cat *catalog.Catalog, stocks []ledger.ItemStock) []StockItem {
	items := make([]StockItem, 0, len(stocks))
	for _, s := range stocks {
		price := "0.00"
		if item, err := cat.Lookup(s.ItemName); err == nil {
			price = item.UnitPrice.StringFixed(2)
		}
		items = append(items, StockItem{ItemName: s.ItemName, Stock: s.Stock, UnitPrice: price})
	}
	return items
}

func renderCatalogItem(item catalog.Item) CatalogItemResponse {
	return CatalogItemResponse{
		ItemName:  item.Name,
		Category:  string(item.Category),
		UnitPrice: item.UnitPrice.StringFixed(2),
	}
}

func renderReorder(conf fulfillment.ReorderConfirmation) ReorderResponse {
	return ReorderResponse{
		TransactionID: conf.TransactionID,
		ItemName:      conf.ItemName,
		Quantity:      conf.Quantity,
		UnitPrice:     conf.UnitPrice.StringFixed(2),
		Cost:          conf.Cost.StringFixed(2),
		OrderDate:     conf.OrderDate.Format(ledger.DateLayout),
		DeliveryDate:  conf.DeliveryDate.Format(ledger.DateLayout),
		LeadTime:      conf.LeadTime,
	}
}

func renderQuote(q pricing.QuoteResult) QuoteResponse {
	resp := QuoteResponse{
		Reference:     q.Reference,
		Lines:         []QuoteLineResponse{},
		Subtotal:      q.Subtotal.StringFixed(2),
		TotalDiscount: q.TotalDiscount.StringFixed(2),
		RawTotal:      q.RawTotal.StringFixed(2),
		Total:         q.Total.StringFixed(2),
		Explanation:   q.Explanation,
	}
	for _, line := range q.Lines {
		if line.NotFound {
			resp.Lines = append(resp.Lines, QuoteLineResponse{Item: line.Item, NotFound: true})
			continue
		}
		resp.Lines = append(resp.Lines, QuoteLineResponse{
			Item:           line.Item,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice.StringFixed(2),
			Subtotal:       line.Subtotal.StringFixed(2),
			DiscountRate:   line.DiscountRate.String(),
			DiscountAmount: line.DiscountAmount.StringFixed(2),
			Total:          line.Total.StringFixed(2),
		})
	}
	return resp
}

func renderQuoteHistory(records []ledger.QuoteRecord) []QuoteHistoryEntry {
	entries := []QuoteHistoryEntry{}
	for _, rec := range records {
		entries = append(entries, QuoteHistoryEntry{
			OriginalRequest: rec.OriginalRequest,
			TotalAmount:     rec.TotalAmount.StringFixed(2),
			Explanation:     rec.Explanation,
			JobType:         rec.JobType,
			OrderSize:       rec.OrderSize,
			EventType:       rec.EventType,
			OrderDate:       rec.OrderDate.Format(ledger.DateLayout),
		})
	}
	return entries
}

func renderOrder(res fulfillment.FulfillResult) OrderResponse {
	resp := OrderResponse{
		TransactionID: res.TransactionID,
		ItemName:      res.ItemName,
		Quantity:      res.Quantity,
		SalePrice:     res.SalePrice.StringFixed(2),
		OrderDate:     res.OrderDate.Format(ledger.DateLayout),
		DeliveryDate:  res.DeliveryDate.Format(ledger.DateLayout),
		LeadTime:      res.LeadTime,
		UpdatedCash:   res.UpdatedCash.StringFixed(2),
		UpdatedStock:  res.UpdatedStock,
		BackOrdered:   res.BackOrdered,
	}
	if res.Reorder != nil {
		r := renderReorder(*res.Reorder)
		resp.Reorder = &r
	}
	if res.ReorderDeclined != nil {
		resp.ReorderDeclined = res.ReorderDeclined.Error()
	}
	return resp
}

func renderCash(asOf string, sum valuation.CashSummary) CashResponse {
	return CashResponse{
		AsOf:           asOf,
		CashBalance:    sum.Balance.StringFixed(2),
		SalesTotal:     sum.SalesTotal.StringFixed(2),
		PurchasesTotal: sum.PurchasesTotal.StringFixed(2),
	}
}

func renderReport(report valuation.Report) ReportResponse {
	resp := ReportResponse{
		AsOf:           report.AsOf.Format(ledger.DateLayout),
		CashBalance:    report.CashBalance.StringFixed(2),
		InventoryValue: report.InventoryValue.StringFixed(2),
		TotalAssets:    report.TotalAssets.StringFixed(2),
		Inventory:      []ReportLineResponse{},
	}
	for _, line := range report.Inventory {
		resp.Inventory = append(resp.Inventory, ReportLineResponse{
			ItemName:  line.ItemName,
			Stock:     line.Stock,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Value:     line.Value.StringFixed(2),
		})
	}
	return resp
}
