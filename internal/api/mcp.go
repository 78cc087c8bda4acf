package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/beaverschoice/paperd/internal/history"
	"github.com/beaverschoice/paperd/internal/ledger"
	"github.com/beaverschoice/paperd/internal/pricing"
	"github.com/beaverschoice/paperd/internal/valuation"
)

// NewMCPServer creates an MCP server with all paperd tools and resources
// registered.
func NewMCPServer(deps AppDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"paperd",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("paperd, an operational ledger for a paper supply company: inventory, pricing, quotes, fulfillment, and cash."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("check_inventory",
			mcp.WithDescription("Report the stock level of one catalog item as of a date."),
			mcp.WithString("item", mcp.Description("Catalog item name"), mcp.Required()),
			mcp.WithString("as_of", mcp.Description("Date in YYYY-MM-DD form (default today)")),
		),
		mcpCheckInventory(deps),
	)

	s.AddTool(
		mcp.NewTool("get_all_inventory",
			mcp.WithDescription("List every item with positive stock as of a date."),
			mcp.WithString("as_of", mcp.Description("Date in YYYY-MM-DD form (default today)")),
		),
		mcpGetAllInventory(deps),
	)

	s.AddTool(
		mcp.NewTool("trigger_reorder",
			mcp.WithDescription("Place a stock order with the supplier at catalog cost, after an affordability check."),
			mcp.WithString("item", mcp.Description("Catalog item name"), mcp.Required()),
			mcp.WithNumber("quantity", mcp.Description("Units to order"), mcp.Required()),
			mcp.WithString("order_date", mcp.Description("Date in YYYY-MM-DD form (default today)")),
		),
		mcpTriggerReorder(deps),
	)

	s.AddTool(
		mcp.NewTool("get_item_price",
			mcp.WithDescription("Look up a catalog item's unit price and category."),
			mcp.WithString("item", mcp.Description("Catalog item name"), mcp.Required()),
		),
		mcpGetItemPrice(deps),
	)

	s.AddTool(
		mcp.NewTool("search_quote_history",
			mcp.WithDescription("Search past quotes by keyword; all terms must match, most recent first."),
			mcp.WithString("terms", mcp.Description("Comma-separated search terms"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpSearchQuoteHistory(deps),
	)

	s.AddTool(
		mcp.NewTool("calculate_quote",
			mcp.WithDescription("Price an itemized quote with bulk discounts and a friendly-rounded total."),
			mcp.WithString("items", mcp.Description(`JSON line items: [{"item": ..., "quantity": ...}] or {"name": quantity}`), mcp.Required()),
		),
		mcpCalculateQuote(deps),
	)

	s.AddTool(
		mcp.NewTool("check_delivery_timeline",
			mcp.WithDescription("Estimate the supplier delivery date for an order quantity."),
			mcp.WithNumber("quantity", mcp.Description("Units ordered"), mcp.Required()),
			mcp.WithString("order_date", mcp.Description("Date in YYYY-MM-DD form (default today)")),
		),
		mcpCheckDeliveryTimeline(deps),
	)

	s.AddTool(
		mcp.NewTool("fulfill_order",
			mcp.WithDescription("Record a sale at the given price, auto-reordering stock when the minimum level would be breached."),
			mcp.WithString("item", mcp.Description("Catalog item name"), mcp.Required()),
			mcp.WithNumber("quantity", mcp.Description("Units sold"), mcp.Required()),
			mcp.WithString("price", mcp.Description("Total sale price, e.g. \"102.00\""), mcp.Required()),
			mcp.WithString("order_date", mcp.Description("Date in YYYY-MM-DD form (default today)")),
		),
		mcpFulfillOrder(deps),
	)

	s.AddTool(
		mcp.NewTool("get_cash_balance",
			mcp.WithDescription("Report the cash balance (sales minus purchases) as of a date."),
			mcp.WithString("as_of", mcp.Description("Date in YYYY-MM-DD form (default today)")),
		),
		mcpGetCashBalance(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"catalog://items",
			"Product Catalog",
			mcp.WithResourceDescription("Full product catalog with unit prices as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"report://financial",
			"Financial Report",
			mcp.WithResourceDescription("Current cash, inventory valuation, and total assets as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceReport(deps),
	)

	return s
}

func mcpAsOf(req mcp.CallToolRequest, key string) (time.Time, error) {
	s := req.GetString(key, "")
	if s == "" {
		return time.Now(), nil
	}
	return valuation.ParseDate(s)
}

func mcpCheckInventory(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("item")
		if err != nil {
			return mcpError("item is required"), nil
		}
		asOf, err := mcpAsOf(req, "as_of")
		if err != nil {
			return mcpError(fmt.Sprintf("invalid as_of date: %v", err)), nil
		}

		item, err := deps.Catalog.Lookup(name)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		stock, err := deps.Valuation.StockLevel(item.Name, asOf)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute stock: %v", err)), nil
		}

		return mcpJSON(renderStock(item, stock, deps.Policy.MinStockLevel(item.Name), asOf.Format(ledger.DateLayout)))
	}
}

func mcpGetAllInventory(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		asOf, err := mcpAsOf(req, "as_of")
		if err != nil {
			return mcpError(fmt.Sprintf("invalid as_of date: %v", err)), nil
		}

		stocks, err := deps.Valuation.AllPositiveStock(asOf)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list inventory: %v", err)), nil
		}

		return mcpJSON(InventoryListResponse{
			AsOf:  asOf.Format(ledger.DateLayout),
			Items: renderStockItems(deps.Catalog, stocks),
		})
	}
}

func mcpTriggerReorder(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("item")
		if err != nil {
			return mcpError("item is required"), nil
		}
		qty, err := req.RequireInt("quantity")
		if err != nil {
			return mcpError("quantity is required"), nil
		}
		orderDate, err := mcpAsOf(req, "order_date")
		if err != nil {
			return mcpError(fmt.Sprintf("invalid order_date: %v", err)), nil
		}

		conf, err := deps.Policy.PlaceReorder(name, int64(qty), orderDate)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(renderReorder(conf))
	}
}

func mcpGetItemPrice(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("item")
		if err != nil {
			return mcpError("item is required"), nil
		}
		item, err := deps.Catalog.Lookup(name)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(renderCatalogItem(item))
	}
}

func mcpSearchQuoteHistory(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("terms")
		if err != nil {
			return mcpError("terms is required"), nil
		}
		limit := req.GetInt("limit", history.DefaultLimit)
		if limit > 50 {
			limit = 50
		}

		records, err := deps.History.Search(history.ParseTerms(raw), limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcpJSON(renderQuoteHistory(records))
	}
}

func mcpCalculateQuote(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("items")
		if err != nil {
			return mcpError("items is required"), nil
		}

		lines, err := pricing.ParseLineItems([]byte(raw))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		quote, err := deps.Pricing.Calculate(lines)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(renderQuote(quote))
	}
}

func mcpCheckDeliveryTimeline(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		qty, err := req.RequireInt("quantity")
		if err != nil {
			return mcpError("quantity is required"), nil
		}
		if qty <= 0 {
			return mcpError("quantity must be positive"), nil
		}

		orderDate := req.GetString("order_date", "")
		delivery, lead := valuation.SupplierDeliveryDate(orderDate, int64(qty))

		base, err := valuation.ParseDate(orderDate)
		if err != nil {
			base = time.Now()
		}
		return mcpJSON(DeliveryResponse{
			Quantity:     int64(qty),
			OrderDate:    base.Format(ledger.DateLayout),
			DeliveryDate: delivery.Format(ledger.DateLayout),
			LeadTime:     lead,
		})
	}
}

func mcpFulfillOrder(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("item")
		if err != nil {
			return mcpError("item is required"), nil
		}
		qty, err := req.RequireInt("quantity")
		if err != nil {
			return mcpError("quantity is required"), nil
		}
		priceStr, err := req.RequireString("price")
		if err != nil {
			return mcpError("price is required"), nil
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid price: %v", err)), nil
		}
		orderDate, err := mcpAsOf(req, "order_date")
		if err != nil {
			return mcpError(fmt.Sprintf("invalid order_date: %v", err)), nil
		}

		result, err := deps.Policy.Fulfill(name, int64(qty), price, orderDate)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(renderOrder(result))
	}
}

func mcpGetCashBalance(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		asOf, err := mcpAsOf(req, "as_of")
		if err != nil {
			return mcpError(fmt.Sprintf("invalid as_of date: %v", err)), nil
		}

		sum, err := deps.Valuation.CashBalance(asOf)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute cash balance: %v", err)), nil
		}
		return mcpJSON(renderCash(asOf.Format(ledger.DateLayout), sum))
	}
}

func mcpResourceCatalog(deps AppDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		items := deps.Catalog.Items()
		entries := make([]CatalogItemResponse, len(items))
		for i, item := range items {
			entries[i] = renderCatalogItem(item)
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceReport(deps AppDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		report, err := deps.Valuation.FinancialReport(time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to build report: %w", err)
		}

		b, err := json.Marshal(renderReport(report))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
