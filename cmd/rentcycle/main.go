package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/riandyrn/otelchi"

	"github.com/kataloghq/rentcycle/internal/adapter/fsm"
	"github.com/kataloghq/rentcycle/internal/adapter/gateway"
	"github.com/kataloghq/rentcycle/internal/adapter/otel"
	"github.com/kataloghq/rentcycle/internal/adapter/river"
	"github.com/kataloghq/rentcycle/internal/adapter/sqlite"
	"github.com/kataloghq/rentcycle/internal/app"
	"github.com/kataloghq/rentcycle/internal/domain"

	handler "github.com/kataloghq/rentcycle/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "rentcycle.db")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	defer store.Close()

	gw := gateway.New(gateway.Config{
		MerchantCode: envOrDefault("GATEWAY_MERCHANT_CODE", "RENTCYCLE"),
		Secret:       os.Getenv("GATEWAY_SECRET"),
		PayURL:       envOrDefault("GATEWAY_PAY_URL", "https://sandbox.gateway.example/pay"),
		ReturnURL:    envOrDefault("GATEWAY_RETURN_URL", "http://localhost:"+port+"/api/v1/payments/callback"),
	})

	// --- Job queue ---
	recon := &river.ReconcileWorker{}
	expiry := &river.ExpireWorker{}

	queue, err := river.Setup(ctx, store.DB(), recon, expiry, river.Intervals{
		Reconcile: envDuration("RECONCILE_INTERVAL", time.Minute),
		Expire:    envDuration("CONTRACT_EXPIRY_INTERVAL", time.Hour),
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	publisher := otel.NewTracingPublisher(river.NewPublisher(queue))
	payments := otel.NewTracingPaymentRepository(store.Payments)

	// --- Application ---
	validators := app.Validators{
		Room:     fsm.New(domain.RoomTransitions),
		Booking:  fsm.New(domain.BookingTransitions),
		Contract: fsm.New(domain.ContractTransitions),
		Payment:  fsm.New(domain.PaymentTransitions),
		Invoice:  fsm.New(domain.InvoiceTransitions),
	}

	coordinator := app.NewCoordinator(app.Deps{
		Rooms:     store.Rooms,
		Bookings:  store.Bookings,
		Contracts: store.Contracts,
		Payments:  payments,
		Invoices:  store.Invoices,
		Gateway:   gw,
		Publisher: publisher,
		Validate:  validators,
	}, app.Config{
		GatewayTimeout: envDuration("GATEWAY_TIMEOUT", 10*time.Second),
	}, slog.Default())

	recon.Sweeper = coordinator
	expiry.Sweeper = coordinator

	if err := queue.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	rooms := app.NewRoomService(store.Rooms, validators.Room, publisher)
	bookings := app.NewBookingService(store.Bookings, store.Rooms, validators.Booking, publisher)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("rentcycle", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("rentcycle", "0.1.0"))
	handler.Register(api, handler.Services{
		Rooms:       rooms,
		Bookings:    bookings,
		Coordinator: coordinator,
	})

	handler.RegisterCallback(router, coordinator, handler.LandingConfig{
		SuccessURL: envOrDefault("LANDING_SUCCESS_URL", "http://localhost:3000/payments/success"),
		FailureURL: envOrDefault("LANDING_FAILURE_URL", "http://localhost:3000/payments/failure"),
	})

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("rentcycle listening on :%s", port)
		log.Printf("API docs: http://localhost:%s/docs", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	log.Println("shutting down...")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := queue.Stop(shCtx); err != nil {
		log.Printf("river shutdown: %v", err)
	}

	log.Println("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
