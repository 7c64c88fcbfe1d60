package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kataloghq/rentcycle/internal/domain"
)

const tracerName = "github.com/kataloghq/rentcycle/internal/adapter/otel"

// TracingPaymentRepository wraps a domain.PaymentRepository with
// OpenTelemetry tracing. Payments sit on the critical callback path, so each
// method creates a span with semantic attributes and records errors. The
// other repositories rely on otelsql's statement-level spans.
type TracingPaymentRepository struct {
	next   domain.PaymentRepository
	tracer trace.Tracer
}

// Compile-time check: TracingPaymentRepository implements domain.PaymentRepository.
var _ domain.PaymentRepository = (*TracingPaymentRepository)(nil)

// NewTracingPaymentRepository creates a tracing decorator around the given repository.
func NewTracingPaymentRepository(next domain.PaymentRepository) *TracingPaymentRepository {
	return &TracingPaymentRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingPaymentRepository) Create(ctx context.Context, payment domain.Payment) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.Create",
		trace.WithAttributes(
			attribute.String("payment.id", payment.ID),
			attribute.String("payment.provider_ref", payment.ProviderRef),
			attribute.Int64("payment.amount", payment.Amount),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, payment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingPaymentRepository) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.GetByID",
		trace.WithAttributes(attribute.String("payment.id", id)),
	)
	defer span.End()

	payment, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return payment, err
}

func (r *TracingPaymentRepository) GetByProviderRef(ctx context.Context, ref string) (domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.GetByProviderRef",
		trace.WithAttributes(attribute.String("payment.provider_ref", ref)),
	)
	defer span.End()

	payment, err := r.next.GetByProviderRef(ctx, ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return payment, err
}

func (r *TracingPaymentRepository) Settle(ctx context.Context, id string, paidAt time.Time) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.Settle",
		trace.WithAttributes(attribute.String("payment.id", id)),
	)
	defer span.End()

	err := r.next.Settle(ctx, id, paidAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingPaymentRepository) SetStatus(ctx context.Context, id string, from, to domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.SetStatus",
		trace.WithAttributes(
			attribute.String("payment.id", id),
			attribute.String("payment.status.from", string(from)),
			attribute.String("payment.status.to", string(to)),
		),
	)
	defer span.End()

	err := r.next.SetStatus(ctx, id, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingPaymentRepository) ListStale(ctx context.Context, limit int) ([]domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.ListStale",
		trace.WithAttributes(attribute.Int("filter.limit", limit)),
	)
	defer span.End()

	payments, err := r.next.ListStale(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(payments)))
	}
	return payments, err
}
