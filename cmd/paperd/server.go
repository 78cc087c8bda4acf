package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/beaverschoice/paperd/internal/api"
	"github.com/beaverschoice/paperd/internal/catalog"
	"github.com/beaverschoice/paperd/internal/config"
	"github.com/beaverschoice/paperd/internal/fulfillment"
	"github.com/beaverschoice/paperd/internal/history"
	"github.com/beaverschoice/paperd/internal/ledger"
	"github.com/beaverschoice/paperd/internal/pricing"
	"github.com/beaverschoice/paperd/internal/seed"
	"github.com/beaverschoice/paperd/internal/valuation"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the paperd server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running paperd server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show paperd system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "paperd.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// seedOptions converts the configured bootstrap values. Invalid values are
// a startup error rather than a silent fallback.
func seedOptions(cfg config.Config) (seed.Options, error) {
	balance, err := decimal.NewFromString(cfg.Ledger.OpeningBalance)
	if err != nil {
		return seed.Options{}, fmt.Errorf("invalid ledger.opening_balance %q: %w", cfg.Ledger.OpeningBalance, err)
	}
	date, err := time.Parse(ledger.DateLayout, cfg.Ledger.SeedDate)
	if err != nil {
		return seed.Options{}, fmt.Errorf("invalid ledger.seed_date %q: %w", cfg.Ledger.SeedDate, err)
	}
	return seed.Options{OpeningBalance: balance, SeedDate: date}, nil
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "paperd version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	apiToken, err := config.GetAPIToken(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("paperd is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("paperd is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the ledger and bootstrap a fresh one.
	store, err := ledger.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing ledger: %v\n", err)
		}
	}()

	cat := catalog.Default()
	opts, err := seedOptions(cfg)
	if err != nil {
		return err
	}
	if err := seed.Run(store, cat, opts); err != nil {
		return fmt.Errorf("seeding ledger: %w", err)
	}

	// Wire the engines.
	val := valuation.New(store, cat)
	deps := api.AppDeps{
		Store:     store,
		Catalog:   cat,
		Valuation: val,
		Pricing:   pricing.NewEngine(cat),
		Policy:    fulfillment.NewPolicy(store, cat, val),
		History:   history.NewIndex(store),
		Token:     apiToken,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewAppHandler(deps),
	}

	stdioSrv := server.NewStdioServer(api.NewMCPServer(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "paperd listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	slog.Info("MCP server started (stdio transport)")

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("paperd is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop paperd (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to paperd (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Show cash and inventory when the server is up.
	if resp != nil && resp.StatusCode == 200 {
		if apiToken, tokenErr := config.GetAPIToken(cfg.Storage.DataDir); tokenErr == nil {
			cashResp, err := apiGet(client, serverURL+"/cash", apiToken)
			if err == nil {
				var cash struct {
					CashBalance string `json:"cash_balance"`
				}
				if decodeJSON(cashResp, &cash) == nil {
					printStatus("Cash balance", "$%s", cash.CashBalance)
				}
			}
			invResp, err := apiGet(client, serverURL+"/inventory", apiToken)
			if err == nil {
				var inv struct {
					Items []struct {
						ItemName string `json:"item_name"`
					} `json:"items"`
				}
				if decodeJSON(invResp, &inv) == nil {
					printStatus("Items in stock", "%d", len(inv.Items))
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func apiGet(client *http.Client, url, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return client.Do(req)
}
