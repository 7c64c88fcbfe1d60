package http

import (
	"context"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kataloghq/rentcycle/internal/app"
	"github.com/kataloghq/rentcycle/internal/domain"
)

// PaymentResponse is the API representation of a payment.
type PaymentResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	TenantID    string `json:"tenant_id" doc:"Paying tenant"`
	ContractID  string `json:"contract_id" doc:"Settled contract"`
	InvoiceID   string `json:"invoice_id,omitempty" doc:"Settled invoice, if any"`
	Amount      int64  `json:"amount" doc:"Amount in the smallest currency unit"`
	ProviderRef string `json:"provider_ref" doc:"Provider transaction reference"`
	Status      string `json:"status" doc:"Lifecycle state"`
	PaidAt      string `json:"paid_at,omitempty" doc:"Settlement timestamp (ISO 8601)"`
	CreatedAt   string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toPaymentResponse(p domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		ContractID:  p.ContractID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		ProviderRef: p.ProviderRef,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.Format(jsonTimeFormat),
	}
	if p.PaidAt != nil {
		resp.PaidAt = p.PaidAt.Format(jsonTimeFormat)
	}
	return resp
}

type InitiatePaymentInput struct {
	ActorParams
	RemoteAddr string `header:"X-Forwarded-For" required:"false" doc:"Client address forwarded by the edge"`
	Body       struct {
		ContractID string `json:"contract_id" minLength:"1" doc:"Contract to settle"`
		InvoiceID  string `json:"invoice_id,omitempty" doc:"Invoice to settle instead of the contract rent"`
	}
}

type InitiatePaymentOutput struct {
	Body struct {
		RedirectURL string          `json:"redirect_url" doc:"Signed provider URL to send the tenant to"`
		Payment     PaymentResponse `json:"payment"`
	}
}

type GetPaymentInput struct {
	ID string `path:"id" doc:"Payment ID"`
}

type PaymentOutput struct {
	Body PaymentResponse
}

func registerPayments(api huma.API, coord *app.Coordinator) {
	huma.Register(api, huma.Operation{
		OperationID: "initiate-payment",
		Method:      http.MethodPost,
		Path:        "/api/v1/payments",
		Summary:     "Initiate a payment and get the provider redirect",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *InitiatePaymentInput) (*InitiatePaymentOutput, error) {
		clientIP := input.RemoteAddr
		if host, _, err := net.SplitHostPort(clientIP); err == nil {
			clientIP = host
		}

		redirect, payment, err := coord.InitiatePayment(ctx, input.actor(), input.Body.ContractID, input.Body.InvoiceID, clientIP)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &InitiatePaymentOutput{}
		out.Body.RedirectURL = redirect
		out.Body.Payment = toPaymentResponse(payment)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-payment",
		Method:      http.MethodGet,
		Path:        "/api/v1/payments/{id}",
		Summary:     "Get a payment by ID",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *GetPaymentInput) (*PaymentOutput, error) {
		payment, err := coord.GetPayment(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PaymentOutput{Body: toPaymentResponse(payment)}, nil
	})
}

// InvoiceResponse is the API representation of an invoice.
type InvoiceResponse struct {
	ID         string            `json:"id" doc:"Unique identifier"`
	ContractID string            `json:"contract_id" doc:"Billed contract"`
	RoomID     string            `json:"room_id" doc:"Rented room"`
	TenantID   string            `json:"tenant_id" doc:"Billed tenant"`
	Items      []domain.LineItem `json:"items" doc:"Billed line items"`
	Total      int64             `json:"total" doc:"Total in the smallest currency unit"`
	Status     string            `json:"status" doc:"Lifecycle state"`
	CreatedAt  string            `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toInvoiceResponse(inv domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:         inv.ID,
		ContractID: inv.ContractID,
		RoomID:     inv.RoomID,
		TenantID:   inv.TenantID,
		Items:      inv.Items,
		Total:      inv.Total,
		Status:     string(inv.Status),
		CreatedAt:  inv.CreatedAt.Format(jsonTimeFormat),
	}
}

type CreateInvoiceInput struct {
	ActorParams
	Body struct {
		ContractID string            `json:"contract_id" minLength:"1" doc:"Contract to bill"`
		Items      []domain.LineItem `json:"items" minItems:"1" doc:"Billed line items"`
	}
}

type InvoiceOutput struct {
	Body InvoiceResponse
}

type GetInvoiceInput struct {
	ID string `path:"id" doc:"Invoice ID"`
}

func registerInvoices(api huma.API, coord *app.Coordinator) {
	huma.Register(api, huma.Operation{
		OperationID: "create-invoice",
		Method:      http.MethodPost,
		Path:        "/api/v1/invoices",
		Summary:     "Raise an invoice against an active contract",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *CreateInvoiceInput) (*InvoiceOutput, error) {
		invoice, err := coord.CreateInvoice(ctx, input.actor(), input.Body.ContractID, input.Body.Items)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &InvoiceOutput{Body: toInvoiceResponse(invoice)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-invoice",
		Method:      http.MethodGet,
		Path:        "/api/v1/invoices/{id}",
		Summary:     "Get an invoice by ID",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *GetInvoiceInput) (*InvoiceOutput, error) {
		invoice, err := coord.GetInvoice(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &InvoiceOutput{Body: toInvoiceResponse(invoice)}, nil
	})
}

type ReconcileInput struct {
	ActorParams
}

type ReconcileOutput struct {
	Body struct {
		Redriven int `json:"redriven" doc:"Payments whose cascades were re-driven"`
	}
}

func registerAdmin(api huma.API, coord *app.Coordinator) {
	huma.Register(api, huma.Operation{
		OperationID: "reconcile-payments",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reconcile",
		Summary:     "Run the payment reconciliation sweep now",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *ReconcileInput) (*ReconcileOutput, error) {
		if !input.actor().Admin() {
			return nil, huma.Error403Forbidden("admin role required")
		}

		n, err := coord.Reconcile(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ReconcileOutput{}
		out.Body.Redriven = n
		return out, nil
	})
}
