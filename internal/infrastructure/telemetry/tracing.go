package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
)

// TracerName is the tracer used for login spans.
const TracerName = "dvd-backend/qrlogin"

// Span attribute keys for login spans.
const (
	SpanAttrPlatform  = attribute.Key("dvd.platform")
	SpanAttrAccountID = attribute.Key("dvd.account_id")
	SpanAttrErrorKind = attribute.Key("dvd.error_kind")
)

// StartLoginSpan starts the span of one login operation, named "qrlogin.<op>".
// The caller ends it.
//
//	ctx, span := telemetry.StartLoginSpan(ctx, "check")
//	defer span.End()
func StartLoginSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, "qrlogin."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError attaches err to the span. Failures caused by the caller, such
// as an unknown token or a wrong verification code, are kept as events and
// leave the span status unset; everything else marks the span as failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	kind := errorKind(err)
	span.RecordError(err, trace.WithAttributes(SpanAttrErrorKind.String(kind)))
	if kind == "client" {
		return
	}
	span.SetStatus(codes.Error, err.Error())
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, qrlogin.ErrUpstream):
		return "upstream"
	case errors.Is(err, qrlogin.ErrAttemptNotFound),
		errors.Is(err, qrlogin.ErrAttemptExpired),
		errors.Is(err, qrlogin.ErrTicketReused),
		errors.Is(err, qrlogin.ErrVerificationCodeRejected),
		errors.Is(err, qrlogin.ErrUnsupportedPlatform),
		errors.Is(err, qrlogin.ErrConfigNotFound),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrAlreadyExists):
		return "client"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
