package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/kataloghq/rentcycle/internal/adapter/fsm"
	"github.com/kataloghq/rentcycle/internal/adapter/gateway"
	handler "github.com/kataloghq/rentcycle/internal/adapter/http"
	"github.com/kataloghq/rentcycle/internal/adapter/sqlite"
	"github.com/kataloghq/rentcycle/internal/app"
	"github.com/kataloghq/rentcycle/internal/domain"
)

func TestEnvOrDefault_Fallback(t *testing.T) {
	v := envOrDefault("RENTCYCLE_TEST_NONEXISTENT_KEY", "fallback")
	if v != "fallback" {
		t.Errorf("got %q, want %q", v, "fallback")
	}
}

func TestEnvOrDefault_EnvSet(t *testing.T) {
	t.Setenv("RENTCYCLE_TEST_KEY", "custom")

	v := envOrDefault("RENTCYCLE_TEST_KEY", "fallback")
	if v != "custom" {
		t.Errorf("got %q, want %q", v, "custom")
	}
}

func TestEnvDuration(t *testing.T) {
	if d := envDuration("RENTCYCLE_TEST_NONEXISTENT_KEY", time.Minute); d != time.Minute {
		t.Errorf("got %s, want fallback %s", d, time.Minute)
	}

	t.Setenv("RENTCYCLE_TEST_DURATION", "30s")
	if d := envDuration("RENTCYCLE_TEST_DURATION", time.Minute); d != 30*time.Second {
		t.Errorf("got %s, want %s", d, 30*time.Second)
	}

	t.Setenv("RENTCYCLE_TEST_DURATION", "not-a-duration")
	if d := envDuration("RENTCYCLE_TEST_DURATION", time.Minute); d != time.Minute {
		t.Errorf("got %s, want fallback %s on parse failure", d, time.Minute)
	}
}

// testPublisher is a local EventPublisher for the smoke test.
// The smoke test verifies HTTP wiring, not River.
type testPublisher struct{}

func (p *testPublisher) Publish(_ context.Context, _ domain.LifecycleEvent) error {
	return nil
}

// TestSmoke wires the full stack like run() and verifies it responds.
func TestSmoke(t *testing.T) {
	dbPath := t.TempDir() + "/test.db"

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gw := gateway.New(gateway.Config{
		MerchantCode: "SMOKE",
		Secret:       "smoke-secret",
		PayURL:       "https://pay.example.com/checkout",
		ReturnURL:    "http://localhost:8080/api/v1/payments/callback",
	})

	pub := &testPublisher{}
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
		Payments:  store.Payments,
		Invoices:  store.Invoices,
		Gateway:   gw,
		Publisher: pub,
		Validate:  validators,
	}, app.Config{}, nil)

	rooms := app.NewRoomService(store.Rooms, validators.Room, pub)
	bookings := app.NewBookingService(store.Bookings, store.Rooms, validators.Booking, pub)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("rentcycle", "0.1.0"))
	handler.Register(api, handler.Services{
		Rooms:       rooms,
		Bookings:    bookings,
		Coordinator: coordinator,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	// Verify the server responds to list rooms.
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/api/v1/rooms", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/rooms failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var rms []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rms); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(rms) != 0 {
		t.Errorf("got %d rooms, want 0 (empty database)", len(rms))
	}
}

// TestRun exercises the real run() function end-to-end: OTel, River, HTTP
// server, and graceful shutdown. It uses the stdout OTel exporter and a temp
// database to avoid external dependencies.
func TestRun(t *testing.T) {
	t.Setenv("DATABASE_PATH", t.TempDir()+"/test-run.db")
	t.Setenv("PORT", "19876")
	t.Setenv("OTEL_EXPORTER", "stdout")
	t.Setenv("OTEL_ENVIRONMENT", "test")
	t.Setenv("GATEWAY_SECRET", "test-secret")

	// Discard OTel stdout exporter output during the test.
	origStdout := os.Stdout
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})

	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	// Wait for the HTTP server to become ready.
	serverURL := "http://localhost:19876"
	ready := false
	for i := 0; i < 50; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/api/v1/rooms", nil)
		resp, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not start within 5 seconds")
	}

	// Verify the API responds correctly.
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/api/v1/rooms", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/rooms failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// Send SIGINT to trigger graceful shutdown.
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding process: %v", err)
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("sending SIGINT: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/nonexistent/path/db.sqlite")
	t.Setenv("PORT", "19877")
	t.Setenv("OTEL_EXPORTER", "stdout")
	t.Setenv("OTEL_ENVIRONMENT", "test")

	// Discard OTel stdout output.
	origStdout := os.Stdout
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})

	if err := run(); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}
