package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/RentFlow/internal/adapter/http"
	cfotel "github.com/Strob0t/RentFlow/internal/adapter/otel"
	"github.com/Strob0t/RentFlow/internal/adapter/pdf"
	"github.com/Strob0t/RentFlow/internal/adapter/ws"
	"github.com/Strob0t/RentFlow/internal/config"
	"github.com/Strob0t/RentFlow/internal/domain/document"
	"github.com/Strob0t/RentFlow/internal/logger"
	"github.com/Strob0t/RentFlow/internal/middleware"
	"github.com/Strob0t/RentFlow/internal/service"
)

// eventInvoiceState carries the full invoice view to a newly connected client.
const eventInvoiceState = "invoice.state"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"addr", cfg.Server.Addr(),
		"log_level", cfg.Logging.Level,
		"storage", cfg.Storage.Backend,
		"output_dir", cfg.Invoice.OutputDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	shutdownOtel, err := cfotel.Init(ctx, cfg.Logging.Service, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(flushCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := pdf.New(pdf.Options{
		Replacements: map[string]string{cfg.Invoice.CurrencySymbol: cfg.Invoice.CurrencyFallback},
		Title:        cfg.Invoice.Title,
		Creator:      cfg.Logging.Service,
	})

	// --- Services ---

	layout := document.DefaultLayout()
	layout.Title = cfg.Invoice.Title
	layout.CurrencySymbol = cfg.Invoice.CurrencySymbol
	layout.Footer = cfg.Invoice.Footer

	identities := service.NewIdentityCache(st.store, cfg.Storage.Prefix, st.breaker)
	invoiceSvc := service.NewInvoiceService(identities, engine, layout)
	invoiceSvc.SetMetrics(metrics)

	hub := ws.NewHub(originPatterns(cfg.Server.CORSOrigin))
	hub.OnConnect(func(ctx context.Context) (ws.Message, bool) {
		snap, err := invoiceSvc.Snapshot()
		if err != nil {
			return ws.Message{}, false
		}
		msg, err := ws.NewMessage(eventInvoiceState, cfhttp.NewInvoiceView(snap, cfg.Invoice.CurrencySymbol))
		if err != nil {
			slog.ErrorContext(ctx, "encode invoice state", "error", err)
			return ws.Message{}, false
		}
		return msg, true
	})
	invoiceSvc.SetBroadcaster(hub)

	if err := invoiceSvc.Open(ctx); err != nil {
		return fmt.Errorf("open invoice: %w", err)
	}

	// --- HTTP ---

	handlers := &cfhttp.Handlers{
		Invoice:        invoiceSvc,
		OutputDir:      cfg.Invoice.OutputDir,
		CurrencySymbol: cfg.Invoice.CurrencySymbol,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cfotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	cfhttp.MountRoutes(r, handlers, hub.HandleWS)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		// Shutdown does not wait for hijacked connections.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// originPatterns turns the configured CORS origin into the host pattern
// accepted for WebSocket upgrades.
func originPatterns(origin string) []string {
	if origin == "" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
