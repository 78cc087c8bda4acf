package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beaverschoice/paperd/internal/api"
	"github.com/beaverschoice/paperd/internal/config"
)

func asOfQuery(cmd *cobra.Command) string {
	asOf, _ := cmd.Flags().GetString("as-of")
	if asOf == "" {
		return ""
	}
	return "?as_of=" + url.QueryEscape(asOf)
}

// --- inventory ---

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Inspect current stock levels",
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every item with positive stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/inventory"+asOfQuery(cmd))
		if err != nil {
			return err
		}

		var inv api.InventoryListResponse
		if err := decodeJSON(resp, &inv); err != nil {
			return err
		}

		if len(inv.Items) == 0 {
			fmt.Println("No items in stock.")
			return nil
		}
		fmt.Printf("Stock as of %s:\n", inv.AsOf)
		for _, item := range inv.Items {
			fmt.Printf("  %-42s %8d  $%s\n", item.ItemName, item.Stock, item.UnitPrice)
		}
		return nil
	},
}

var inventoryCheckCmd = &cobra.Command{
	Use:   "check <item>",
	Short: "Show the stock level of one item",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/inventory/"+url.PathEscape(item)+asOfQuery(cmd))
		if err != nil {
			return err
		}

		var stock api.StockResponse
		if err := decodeJSON(resp, &stock); err != nil {
			return err
		}

		fmt.Printf("%s: %d units (as of %s)\n", stock.ItemName, stock.Stock, stock.AsOf)
		fmt.Printf("  Minimum threshold: %d units\n", stock.MinThreshold)
		fmt.Printf("  Unit price: $%s\n", stock.UnitPrice)
		switch stock.Status {
		case api.StatusOutOfStock:
			printError("Status: %s", stock.Status)
		case api.StatusLowStock:
			printWarning("Status: %s", stock.Status)
		default:
			printSuccess("Status: %s", stock.Status)
		}
		return nil
	},
}

func init() {
	inventoryListCmd.Flags().String("as-of", "", "report stock as of a date (YYYY-MM-DD)")
	inventoryCheckCmd.Flags().String("as-of", "", "report stock as of a date (YYYY-MM-DD)")
	inventoryCmd.AddCommand(inventoryListCmd)
	inventoryCmd.AddCommand(inventoryCheckCmd)
}

// --- reorder ---

var reorderCmd = &cobra.Command{
	Use:   "reorder <item> <quantity>",
	Short: "Place a stock order with the supplier",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseInt(args[len(args)-1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[len(args)-1])
		}
		item := strings.Join(args[:len(args)-1], " ")
		date, _ := cmd.Flags().GetString("date")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{"item": item, "quantity": qty}
		if date != "" {
			body["order_date"] = date
		}
		resp, err := client.post(cmd.Context(), "/reorders", body)
		if err != nil {
			return err
		}

		var conf api.ReorderResponse
		if err := decodeJSON(resp, &conf); err != nil {
			return err
		}

		printSuccess("Ordered %d x %s for $%s", conf.Quantity, conf.ItemName, conf.Cost)
		printStatus("Delivery", "%s (%s)", conf.DeliveryDate, conf.LeadTime)
		return nil
	},
}

func init() {
	reorderCmd.Flags().String("date", "", "order date (YYYY-MM-DD, default today)")
}

// --- price ---

var priceCmd = &cobra.Command{
	Use:   "price <item>",
	Short: "Look up a catalog item's unit price",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/catalog/"+url.PathEscape(item))
		if err != nil {
			return err
		}

		var entry api.CatalogItemResponse
		if err := decodeJSON(resp, &entry); err != nil {
			return err
		}

		fmt.Printf("%s: $%s per unit (%s)\n", entry.ItemName, entry.UnitPrice, entry.Category)
		return nil
	},
}

// --- quote ---

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Calculate quotes and search quote history",
}

var quoteCalcCmd = &cobra.Command{
	Use:   "calc <item=quantity> [...]",
	Short: "Price an itemized quote with bulk discounts",
	Long: `Price an itemized quote with bulk discounts.

Examples:
  paperd quote calc "Glossy paper=500"
  paperd quote calc "A4 paper=1000" "Envelopes=200"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items := make([]map[string]any, 0, len(args))
		for _, arg := range args {
			name, qtyStr, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("invalid line %q: want item=quantity", arg)
			}
			qty, err := strconv.ParseInt(strings.TrimSpace(qtyStr), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quantity in %q", arg)
			}
			items = append(items, map[string]any{"item": strings.TrimSpace(name), "quantity": qty})
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/quotes", map[string]any{"items": items})
		if err != nil {
			return err
		}

		var quote api.QuoteResponse
		if err := decodeJSON(resp, &quote); err != nil {
			return err
		}

		for _, line := range quote.Lines {
			if line.NotFound {
				printWarning("%s: not in catalog", line.Item)
				continue
			}
			fmt.Printf("  %-42s %6d x $%s = $%s", line.Item, line.Quantity, line.UnitPrice, line.Subtotal)
			if line.DiscountAmount != "" && line.DiscountAmount != "0.00" {
				fmt.Printf("  (-$%s bulk)", line.DiscountAmount)
			}
			fmt.Println()
		}
		fmt.Printf("\n  %s $%s\n", colorize(colorBold, "Total:"), quote.Total)
		fmt.Printf("  %s\n", quote.Explanation)
		return nil
	},
}

var quoteHistoryCmd = &cobra.Command{
	Use:   "history <term> [...]",
	Short: "Search past quotes by keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/quotes/history?terms=%s&limit=%d", url.QueryEscape(strings.Join(args, ",")), limit)
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var entries []api.QuoteHistoryEntry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No matching quotes found.")
			return nil
		}
		for i, e := range entries {
			fmt.Printf("\n%s  %s  $%s\n", colorize(colorBold, fmt.Sprintf("Quote %d", i+1)), e.OrderDate, e.TotalAmount)
			fmt.Printf("  Request: %s\n", e.OriginalRequest)
			fmt.Printf("  %s\n", e.Explanation)
		}
		return nil
	},
}

func init() {
	quoteHistoryCmd.Flags().Int("limit", 5, "maximum number of results")
	quoteCmd.AddCommand(quoteCalcCmd)
	quoteCmd.AddCommand(quoteHistoryCmd)
}

// --- delivery ---

var deliveryCmd = &cobra.Command{
	Use:   "delivery <quantity>",
	Short: "Estimate the supplier delivery date for an order size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[0])
		}
		date, _ := cmd.Flags().GetString("date")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/delivery?quantity=%d", qty)
		if date != "" {
			path += "&order_date=" + url.QueryEscape(date)
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var est api.DeliveryResponse
		if err := decodeJSON(resp, &est); err != nil {
			return err
		}

		fmt.Printf("%d units ordered %s arrive %s (%s)\n", est.Quantity, est.OrderDate, est.DeliveryDate, est.LeadTime)
		return nil
	},
}

func init() {
	deliveryCmd.Flags().String("date", "", "order date (YYYY-MM-DD, default today)")
}

// --- order ---

var orderCmd = &cobra.Command{
	Use:   "order <item> <quantity> <price>",
	Short: "Record a customer sale",
	Long: `Record a customer sale at the agreed total price.

The sale is appended to the ledger; if stock would fall below the item's
minimum level, a replenishment order is placed automatically first.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		price := args[len(args)-1]
		qty, err := strconv.ParseInt(args[len(args)-2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[len(args)-2])
		}
		item := strings.Join(args[:len(args)-2], " ")
		date, _ := cmd.Flags().GetString("date")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{"item": item, "quantity": qty, "price": price}
		if date != "" {
			body["order_date"] = date
		}
		resp, err := client.post(cmd.Context(), "/orders", body)
		if err != nil {
			return err
		}

		var result api.OrderResponse
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Sold %d x %s for $%s", result.Quantity, result.ItemName, result.SalePrice)
		if result.BackOrdered {
			printWarning("Partial back-order: demand exceeds stock on hand")
		}
		if result.Reorder != nil {
			printStatus("Auto-reorder", "%d units for $%s, arriving %s", result.Reorder.Quantity, result.Reorder.Cost, result.Reorder.DeliveryDate)
		}
		if result.ReorderDeclined != "" {
			printWarning("Restock skipped: %s", result.ReorderDeclined)
		}
		printStatus("Delivery", "%s (%s)", result.DeliveryDate, result.LeadTime)
		printStatus("Stock", "%d units", result.UpdatedStock)
		printStatus("Cash", "$%s", result.UpdatedCash)
		return nil
	},
}

func init() {
	orderCmd.Flags().String("date", "", "order date (YYYY-MM-DD, default today)")
}

// --- cash ---

var cashCmd = &cobra.Command{
	Use:   "cash",
	Short: "Show the cash balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/cash"+asOfQuery(cmd))
		if err != nil {
			return err
		}

		var cash api.CashResponse
		if err := decodeJSON(resp, &cash); err != nil {
			return err
		}

		printStatus("Cash balance", "$%s (as of %s)", cash.CashBalance, cash.AsOf)
		printStatus("Sales to date", "$%s", cash.SalesTotal)
		printStatus("Purchases to date", "$%s", cash.PurchasesTotal)
		return nil
	},
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the financial report",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/reports/financial"+asOfQuery(cmd))
		if err != nil {
			return err
		}

		var report api.ReportResponse
		if err := decodeJSON(resp, &report); err != nil {
			return err
		}

		fmt.Printf("Financial report as of %s\n\n", report.AsOf)
		for _, line := range report.Inventory {
			fmt.Printf("  %-42s %8d x $%s = $%s\n", line.ItemName, line.Stock, line.UnitPrice, line.Value)
		}
		fmt.Println()
		printStatus("Inventory value", "$%s", report.InventoryValue)
		printStatus("Cash balance", "$%s", report.CashBalance)
		printStatus("Total assets", "$%s", report.TotalAssets)
		return nil
	},
}

func init() {
	cashCmd.Flags().String("as-of", "", "report balance as of a date (YYYY-MM-DD)")
	reportCmd.Flags().String("as-of", "", "report assets as of a date (YYYY-MM-DD)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
