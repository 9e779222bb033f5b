package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvd/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		Resource:          telemetry.Resource{ServiceName: "test-service"},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test-meter"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.NoError(t, mp.Shutdown(cancelled))
}

// collect reads every metric recorded so far, keyed by instrument name
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newTestLoginMetrics(t *testing.T) (*telemetry.LoginMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := telemetry.NewSDKMeterProvider(nil, reader)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	lm, err := telemetry.NewLoginMetrics(telemetry.LoginMetricsConfig{
		Meter:  provider.Meter("test"),
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return lm, reader
}

func sumFor(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestNewLoginMetrics_NilMeter(t *testing.T) {
	lm, err := telemetry.NewLoginMetrics(telemetry.LoginMetricsConfig{})
	require.Error(t, err)
	assert.Nil(t, lm)
	assert.Equal(t, "NewLoginMetrics: meter cannot be nil", err.Error())
}

func TestNewLoginMetrics_NoopMeter(t *testing.T) {
	lm, err := telemetry.NewLoginMetrics(telemetry.LoginMetricsConfig{
		Meter: noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	lm.AttemptStarted(ctx, "doudian")
	lm.RecordPoll(ctx, "doudian", telemetry.OutcomeWaiting)
	lm.AttemptFinished(ctx, "doudian")
}

func TestLoginMetrics_NilReceiver(t *testing.T) {
	var lm *telemetry.LoginMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		lm.AttemptStarted(ctx, "doudian")
		lm.AttemptFinished(ctx, "doudian")
		lm.RecordPoll(ctx, "doudian", telemetry.OutcomeSuccess)
		lm.RecordVerification(ctx, "doudian", "send_code", telemetry.OutcomeSuccess)
		lm.RecordPersist(ctx, "doudian", nil)
		lm.ObserveUpstream(ctx, "doudian", "check", time.Now())
	})
}

func TestLoginMetrics_Attempts(t *testing.T) {
	lm, reader := newTestLoginMetrics(t)
	ctx := context.Background()

	lm.AttemptStarted(ctx, "doudian")
	lm.AttemptStarted(ctx, "doudian")
	lm.AttemptStarted(ctx, "qianfan")
	lm.AttemptFinished(ctx, "doudian")

	got := collect(t, reader)
	platform := telemetry.AttrPlatform.String("doudian")
	assert.Equal(t, int64(2), sumFor(t, got[telemetry.MetricAttemptsStarted], platform))
	assert.Equal(t, int64(1), sumFor(t, got[telemetry.MetricAttemptsActive], platform))
	assert.Equal(t, int64(1), sumFor(t, got[telemetry.MetricAttemptsActive], telemetry.AttrPlatform.String("qianfan")))
}

func TestLoginMetrics_Outcomes(t *testing.T) {
	lm, reader := newTestLoginMetrics(t)
	ctx := context.Background()

	lm.RecordPoll(ctx, "qianfan", telemetry.OutcomeWaiting)
	lm.RecordPoll(ctx, "qianfan", telemetry.OutcomeWaiting)
	lm.RecordPoll(ctx, "qianfan", telemetry.OutcomeSuccess)
	lm.RecordVerification(ctx, "qianfan", "submit_code", telemetry.OutcomeRejected)
	lm.RecordPersist(ctx, "qianfan", nil)
	lm.RecordPersist(ctx, "qianfan", errors.New("db down"))

	got := collect(t, reader)
	platform := telemetry.AttrPlatform.String("qianfan")

	assert.Equal(t, int64(2), sumFor(t, got[telemetry.MetricPollOutcomes],
		platform, telemetry.AttrOutcome.String(telemetry.OutcomeWaiting)))
	assert.Equal(t, int64(1), sumFor(t, got[telemetry.MetricPollOutcomes],
		platform, telemetry.AttrOutcome.String(telemetry.OutcomeSuccess)))
	assert.Equal(t, int64(1), sumFor(t, got[telemetry.MetricVerifications],
		platform,
		telemetry.AttrOperation.String("submit_code"),
		telemetry.AttrOutcome.String(telemetry.OutcomeRejected)))
	assert.Equal(t, int64(1), sumFor(t, got[telemetry.MetricPersisted],
		platform, telemetry.AttrOutcome.String(telemetry.OutcomeError)))
}

func TestLoginMetrics_UpstreamDurationBuckets(t *testing.T) {
	lm, reader := newTestLoginMetrics(t)

	lm.ObserveUpstream(context.Background(), "doudian", "check", time.Now().Add(-2*time.Second))

	got := collect(t, reader)
	hist, ok := got[telemetry.MetricUpstreamDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	assert.Equal(t, telemetry.UpstreamDurationBuckets, dp.Bounds)
	assert.GreaterOrEqual(t, dp.Sum, 2.0)
}
