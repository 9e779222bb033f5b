package telemetry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestTracer installs an in-memory span recorder as the global provider
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrsOf(span sdktrace.ReadOnlySpan) map[string]any {
	out := map[string]any{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestStartLoginSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartLoginSpan(context.Background(), "check",
		telemetry.SpanAttrPlatform.String("doudian"),
		telemetry.SpanAttrAccountID.Int64(42),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "qrlogin.check", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	attrs := attrsOf(spans[0])
	assert.Equal(t, "doudian", attrs[string(telemetry.SpanAttrPlatform)])
	assert.Equal(t, int64(42), attrs[string(telemetry.SpanAttrAccountID)])
}

func TestStartLoginSpan_Nested(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartLoginSpan(context.Background(), "submit_code")
	_, child := telemetry.StartLoginSpan(ctx, "persist")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "qrlogin.persist", spans[0].Name())
	assert.Equal(t, "qrlogin.submit_code", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestRecordError_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.RecordError(nil, errors.New("boom"))
	})

	sr := setupTestTracer(t)
	_, span := telemetry.StartLoginSpan(context.Background(), "check")
	telemetry.RecordError(span, nil)
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Unset, got.Status().Code)
	assert.Empty(t, got.Events())
}

func TestRecordError_Classification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		kind       string
		wantStatus codes.Code
	}{
		{"upstream", fmt.Errorf("poll: %w", qrlogin.ErrUpstream), "upstream", codes.Error},
		{"unknown token", qrlogin.ErrAttemptNotFound, "client", codes.Unset},
		{"wrong code", fmt.Errorf("submit: %w", qrlogin.ErrVerificationCodeRejected), "client", codes.Unset},
		{"reused ticket", qrlogin.ErrTicketReused, "client", codes.Unset},
		{"bad input", shared.ErrInvalidInput.WithMessage("token is required"), "client", codes.Unset},
		{"canceled", context.Canceled, "canceled", codes.Error},
		{"store failure", errors.New("redis: connection refused"), "internal", codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)

			_, span := telemetry.StartLoginSpan(context.Background(), "submit_code")
			telemetry.RecordError(span, tt.err)
			span.End()

			got := sr.Ended()[0]
			assert.Equal(t, tt.wantStatus, got.Status().Code)
			require.Len(t, got.Events(), 1)
			assert.Equal(t, "exception", got.Events()[0].Name)

			var kind string
			for _, kv := range got.Events()[0].Attributes {
				if kv.Key == telemetry.SpanAttrErrorKind {
					kind = kv.Value.AsString()
				}
			}
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestRegisterOtelGorm(t *testing.T) {
	sr := setupTestTracer(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, telemetry.RegisterOtelGorm(db, telemetry.DBTracingConfig{
		Enabled:  true,
		DBSystem: "sqlite",
	}, zap.NewNop()))

	var one int
	require.NoError(t, db.WithContext(context.Background()).Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	assert.NotEmpty(t, sr.Ended(), "query should produce a span")
}

func TestRegisterOtelGorm_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, telemetry.RegisterOtelGorm(db, telemetry.DBTracingConfig{}, zap.NewNop()))
	_, registered := db.Config.Plugins["otelgorm"]
	assert.False(t, registered)
}
