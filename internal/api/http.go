package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/beaverschoice/paperd/internal/catalog"
	"github.com/beaverschoice/paperd/internal/fulfillment"
	"github.com/beaverschoice/paperd/internal/history"
	"github.com/beaverschoice/paperd/internal/ledger"
	"github.com/beaverschoice/paperd/internal/pricing"
	"github.com/beaverschoice/paperd/internal/valuation"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps holds the wired engines the HTTP handlers and MCP tools serve.
type AppDeps struct {
	Store     *ledger.Store
	Catalog   *catalog.Catalog
	Valuation *valuation.Engine
	Pricing   *pricing.Engine
	Policy    *fulfillment.Policy
	History   *history.Index
	Token     string
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/inventory", handleListInventory(deps))
		r.Get("/inventory/{item}", handleCheckInventory(deps))
		r.Post("/reorders", handlePlaceReorder(deps))
		r.Get("/catalog/{item}", handleGetItemPrice(deps))
		r.Get("/quotes/history", handleQuoteHistory(deps))
		r.Post("/quotes", handleCalculateQuote(deps))
		r.Get("/delivery", handleDelivery(deps))
		r.Post("/orders", handleFulfillOrder(deps))
		r.Get("/cash", handleCashBalance(deps))
		r.Get("/reports/financial", handleFinancialReport(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func handleListInventory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := parseAsOf(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid as_of date: %v", err)
			return
		}

		stocks, err := deps.Valuation.AllPositiveStock(asOf)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list inventory: %v", err)
			return
		}

		writeJSON(w, InventoryListResponse{
			AsOf:  asOf.Format(ledger.DateLayout),
			Items: renderStockItems(deps.Catalog, stocks),
		})
	}
}

func handleCheckInventory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := parseAsOf(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid as_of date: %v", err)
			return
		}

		item, err := deps.Catalog.Lookup(chi.URLParam(r, "item"))
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "%v", err)
			return
		}

		stock, err := deps.Valuation.StockLevel(item.Name, asOf)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to compute stock: %v", err)
			return
		}

		writeJSON(w, renderStock(item, stock, deps.Policy.MinStockLevel(item.Name), asOf.Format(ledger.DateLayout)))
	}
}

type reorderRequest struct {
	Item      string `json:"item"`
	Quantity  int64  `json:"quantity"`
	OrderDate string `json:"order_date"`
}

func handlePlaceReorder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req reorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		orderDate, err := orderDateOrToday(req.OrderDate)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid order_date: %v", err)
			return
		}

		conf, err := deps.Policy.PlaceReorder(req.Item, req.Quantity, orderDate)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, renderReorder(conf))
	}
}

func handleGetItemPrice(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := deps.Catalog.Lookup(chi.URLParam(r, "item"))
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "%v", err)
			return
		}
		writeJSON(w, renderCatalogItem(item))
	}
}

func handleQuoteHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terms := history.ParseTerms(r.URL.Query().Get("terms"))
		limit := parseIntParam(r, "limit", history.DefaultLimit, 50)

		records, err := deps.History.Search(terms, limit)
		if errors.Is(err, history.ErrNoTerms) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "terms is required")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to search quotes: %v", err)
			return
		}
		writeJSON(w, renderQuoteHistory(records))
	}
}

func handleCalculateQuote(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to read request body: %v", err)
			return
		}

		// Accept both {"items": ...} and a bare list or mapping body.
		var wrapper struct {
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Items != nil {
			raw = wrapper.Items
		}

		lines, err := pricing.ParseLineItems(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		quote, err := deps.Pricing.Calculate(lines)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, renderQuote(quote))
	}
}

func handleDelivery(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qtyStr := r.URL.Query().Get("quantity")
		qty, err := strconv.ParseInt(qtyStr, 10, 64)
		if err != nil || qty <= 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "quantity must be a positive integer")
			return
		}

		orderDate := r.URL.Query().Get("order_date")
		delivery, lead := valuation.SupplierDeliveryDate(orderDate, qty)

		base, err := valuation.ParseDate(orderDate)
		if err != nil {
			base = time.Now()
		}
		writeJSON(w, DeliveryResponse{
			Quantity:     qty,
			OrderDate:    base.Format(ledger.DateLayout),
			DeliveryDate: delivery.Format(ledger.DateLayout),
			LeadTime:     lead,
		})
	}
}

type orderRequest struct {
	Item      string `json:"item"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
	OrderDate string `json:"order_date"`
}

func handleFulfillOrder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid price: %v", err)
			return
		}

		orderDate, err := orderDateOrToday(req.OrderDate)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid order_date: %v", err)
			return
		}

		result, err := deps.Policy.Fulfill(req.Item, req.Quantity, price, orderDate)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, renderOrder(result))
	}
}

func handleCashBalance(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := parseAsOf(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid as_of date: %v", err)
			return
		}

		sum, err := deps.Valuation.CashBalance(asOf)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to compute cash balance: %v", err)
			return
		}
		writeJSON(w, renderCash(asOf.Format(ledger.DateLayout), sum))
	}
}

func handleFinancialReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := parseAsOf(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid as_of date: %v", err)
			return
		}

		report, err := deps.Valuation.FinancialReport(asOf)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to build report: %v", err)
			return
		}
		writeJSON(w, renderReport(report))
	}
}

// writeDomainError maps engine errors to HTTP status codes. Unrecognized
// errors surface as 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	var notFound *catalog.NotFoundError
	var validation *ledger.ValidationError
	var invalidInput *pricing.InvalidInputError
	var insufficient *fulfillment.InsufficientFundsError
	switch {
	case errors.As(err, &notFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.As(err, &validation), errors.As(err, &invalidInput), errors.Is(err, pricing.ErrEmptyQuote):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.As(err, &insufficient):
		httpError(w, http.StatusConflict, "insufficient_funds", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

// parseAsOf reads the optional as_of query parameter, defaulting to today.
func parseAsOf(r *http.Request) (time.Time, error) {
	s := r.URL.Query().Get("as_of")
	if s == "" {
		return time.Now(), nil
	}
	return valuation.ParseDate(s)
}

// orderDateOrToday parses an optional request date, defaulting to today.
func orderDateOrToday(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return valuation.ParseDate(s)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
