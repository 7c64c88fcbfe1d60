package domain_test

import (
	"testing"

	"github.com/kataloghq/rentcycle/internal/domain"
)

func TestPaymentTransitions_BothDestinationsTerminal(t *testing.T) {
	// Every payment transition leaves from pending and nothing leaves from
	// paid or failed: a payment record is decided at most once.
	for _, tr := range domain.PaymentTransitions {
		if tr.Src != domain.PaymentPending {
			t.Errorf("transition %q leaves from %q, want %q", tr.Event, tr.Src, domain.PaymentPending)
		}
		if tr.Dst != domain.PaymentPaid && tr.Dst != domain.PaymentFailed {
			t.Errorf("transition %q arrives at %q, want paid or failed", tr.Event, tr.Dst)
		}
	}
}

func TestNewPayment(t *testing.T) {
	payment := domain.NewPayment("p-1", "tenant-1", "c-1", "inv-1", 85000, "ref-1")

	if payment.Status != domain.PaymentPending {
		t.Errorf("Status = %q, want %q", payment.Status, domain.PaymentPending)
	}
	if payment.ProviderRef != "ref-1" {
		t.Errorf("ProviderRef = %q, want %q", payment.ProviderRef, "ref-1")
	}
	if payment.InvoiceID != "inv-1" {
		t.Errorf("InvoiceID = %q, want %q", payment.InvoiceID, "inv-1")
	}
	if payment.Amount != 85000 {
		t.Errorf("Amount = %d, want %d", payment.Amount, 85000)
	}
	if payment.PaidAt != nil {
		t.Error("PaidAt should be nil on a new payment")
	}
}

func TestNewInvoice_SumsItems(t *testing.T) {
	contract := domain.Contract{ID: "c-1", RoomID: "r-1", TenantID: "tenant-1"}
	items := []domain.LineItem{
		{Description: "rent march", Amount: 85000},
		{Description: "utilities", Amount: 4200},
	}

	invoice := domain.NewInvoice("inv-1", contract, items)

	if invoice.Total != 89200 {
		t.Errorf("Total = %d, want %d", invoice.Total, 89200)
	}
	if invoice.ContractID != "c-1" {
		t.Errorf("ContractID = %q, want %q", invoice.ContractID, "c-1")
	}
	if invoice.RoomID != "r-1" {
		t.Errorf("RoomID = %q, want %q", invoice.RoomID, "r-1")
	}
	if invoice.Status != domain.InvoicePending {
		t.Errorf("Status = %q, want %q", invoice.Status, domain.InvoicePending)
	}
	if len(invoice.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(invoice.Items))
	}
}
