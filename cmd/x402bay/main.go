// Command x402bay runs the payment-gated file marketplace service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ankushKun/x402bay/internal/catalog"
	"github.com/ankushKun/x402bay/internal/config"
	"github.com/ankushKun/x402bay/internal/content"
	"github.com/ankushKun/x402bay/internal/facilitator"
	"github.com/ankushKun/x402bay/internal/gateway"
	"github.com/ankushKun/x402bay/internal/identity"
	"github.com/ankushKun/x402bay/internal/ledger"
	"github.com/ankushKun/x402bay/internal/server"
	"github.com/ankushKun/x402bay/internal/store/memstore"
	"github.com/ankushKun/x402bay/internal/store/postgres"
)

func main() {
	app := &cli.App{
		Name:  "x402bay",
		Usage: "pay-per-download file marketplace gated by x402 payment challenges",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP service",
				Action: serve,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "listen address",
						EnvVars: []string{"X402BAY_ADDR"},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// storeBundle is the combined persistence surface opened at startup.
type storeBundle interface {
	catalog.Store
	ledger.Ledger
	Close()
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Addr = addr
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storeBundle
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		store = pg
	case config.StoreMemory:
		logger.Warn("using in-memory store, data will not survive restart")
		store = memstore.New()
	}
	defer store.Close()

	fac := &facilitator.Client{
		BaseURL: strings.TrimRight(cfg.FacilitatorURL, "/"),
		Client:  &http.Client{Timeout: facilitator.DefaultTimeouts.RequestTimeout},
		Timeouts: facilitator.TimeoutConfig{
			VerifyTimeout:  cfg.VerifyTimeout,
			SettleTimeout:  cfg.SettleTimeout,
			RequestTimeout: facilitator.DefaultTimeouts.RequestTimeout,
		},
		Authorization: cfg.FacilitatorAuth,
	}

	files := content.NewDiskStore(cfg.UploadsDir)
	ids := identity.HeaderVerifier{}

	gw := gateway.New(store, store, ids, fac, files, logger)
	srv := server.New(gw, store, store, ids, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store, "facilitator", cfg.FacilitatorURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
