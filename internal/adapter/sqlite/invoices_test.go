package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kataloghq/rentcycle/internal/domain"
)

func TestInvoiceCreate_And_GetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRoom(t, store, "r-1")
	contract := seedContract(t, store, "c-1", "r-1", domain.ContractActive)

	invoice := domain.NewInvoice("inv-1", contract, []domain.LineItem{
		{Description: "rent march", Amount: 85000},
		{Description: "utilities", Amount: 4200},
	})
	if err := store.Invoices.Create(ctx, invoice); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Invoices.GetByID(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.ContractID != "c-1" {
		t.Errorf("ContractID = %q, want %q", got.ContractID, "c-1")
	}
	if got.Total != 89200 {
		t.Errorf("Total = %d, want %d", got.Total, 89200)
	}
	if len(got.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(got.Items))
	}
	if got.Items[0].Description != "rent march" || got.Items[0].Amount != 85000 {
		t.Errorf("Items[0] = %+v, want rent march / 85000", got.Items[0])
	}
	if got.Status != domain.InvoicePending {
		t.Errorf("Status = %q, want %q", got.Status, domain.InvoicePending)
	}
}

func TestInvoiceGetByID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Invoices.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Errorf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestInvoiceListByContract(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRoom(t, store, "r-1")
	seedRoom(t, store, "r-2")
	c1 := seedContract(t, store, "c-1", "r-1", domain.ContractActive)
	c2 := seedContract(t, store, "c-2", "r-2", domain.ContractActive)

	for _, inv := range []domain.Invoice{
		domain.NewInvoice("inv-1", c1, []domain.LineItem{{Description: "rent", Amount: 85000}}),
		domain.NewInvoice("inv-2", c1, []domain.LineItem{{Description: "rent", Amount: 85000}}),
		domain.NewInvoice("inv-3", c2, []domain.LineItem{{Description: "rent", Amount: 60000}}),
	} {
		if err := store.Invoices.Create(ctx, inv); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	invoices, err := store.Invoices.ListByContract(ctx, "c-1")
	if err != nil {
		t.Fatalf("ListByContract failed: %v", err)
	}
	if len(invoices) != 2 {
		t.Fatalf("got %d invoices, want 2", len(invoices))
	}
	for _, inv := range invoices {
		if inv.ContractID != "c-1" {
			t.Errorf("ContractID = %q, want %q", inv.ContractID, "c-1")
		}
	}
}

func TestInvoiceSetStatus_CAS(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRoom(t, store, "r-1")
	contract := seedContract(t, store, "c-1", "r-1", domain.ContractActive)

	invoice := domain.NewInvoice("inv-1", contract, []domain.LineItem{{Description: "rent", Amount: 85000}})
	if err := store.Invoices.Create(ctx, invoice); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Invoices.SetStatus(ctx, "inv-1", domain.InvoicePending, domain.InvoicePaid); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	err := store.Invoices.SetStatus(ctx, "inv-1", domain.InvoicePending, domain.InvoicePaid)
	if !errors.Is(err, domain.ErrStatusConflict) {
		t.Errorf("expected ErrStatusConflict on replay, got %v", err)
	}
}
