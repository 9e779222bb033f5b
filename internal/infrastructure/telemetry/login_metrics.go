package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metric names exported by LoginMetrics.
const (
	MetricAttemptsStarted  = "dvd_login_attempts_started_total"
	MetricAttemptsActive   = "dvd_login_attempts_active"
	MetricPollOutcomes     = "dvd_login_poll_outcomes_total"
	MetricVerifications    = "dvd_login_verifications_total"
	MetricPersisted        = "dvd_login_persisted_total"
	MetricUpstreamDuration = "dvd_login_upstream_duration_seconds"
)

// Outcome labels.
const (
	OutcomeWaiting      = "waiting"
	OutcomeVerification = "verification_required"
	OutcomeSuccess      = "success"
	OutcomeFailed       = "failed"
	OutcomeExpired      = "expired"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
)

// LoginMetrics records QR login activity per platform.
type LoginMetrics struct {
	logger *zap.Logger

	attemptsStarted  *Counter
	attemptsActive   *UpDownCounter
	pollOutcomes     *Counter
	verifications    *Counter
	persisted        *Counter
	upstreamDuration *Histogram
}

// LoginMetricsConfig holds configuration for login metrics.
type LoginMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewLoginMetrics registers the login instruments on the given meter.
func NewLoginMetrics(cfg LoginMetricsConfig) (*LoginMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LoginMetrics{logger: logger}
	var err error

	if lm.attemptsStarted, err = NewCounter(cfg.Meter, MetricAttemptsStarted,
		"Total number of QR login attempts started", "{attempts}"); err != nil {
		return nil, err
	}
	if lm.attemptsActive, err = NewUpDownCounter(cfg.Meter, MetricAttemptsActive,
		"QR login attempts that have not reached a terminal state", "{attempts}"); err != nil {
		return nil, err
	}
	if lm.pollOutcomes, err = NewCounter(cfg.Meter, MetricPollOutcomes,
		"Status checks by outcome", "{checks}"); err != nil {
		return nil, err
	}
	if lm.verifications, err = NewCounter(cfg.Meter, MetricVerifications,
		"Verification code operations by outcome", "{operations}"); err != nil {
		return nil, err
	}
	if lm.persisted, err = NewCounter(cfg.Meter, MetricPersisted,
		"Login results written to account storage", "{logins}"); err != nil {
		return nil, err
	}
	if lm.upstreamDuration, err = NewHistogram(cfg.Meter, MetricUpstreamDuration,
		"Duration of calls to platform endpoints", "s"); err != nil {
		return nil, err
	}

	logger.Debug("Login metrics registered")
	return lm, nil
}

// AttemptStarted counts a new attempt and marks it in flight.
func (m *LoginMetrics) AttemptStarted(ctx context.Context, platform string) {
	if m == nil {
		return
	}
	m.attemptsStarted.Inc(ctx, AttrPlatform.String(platform))
	m.attemptsActive.Add(ctx, 1, AttrPlatform.String(platform))
}

// AttemptFinished releases an in-flight attempt once it is terminal.
func (m *LoginMetrics) AttemptFinished(ctx context.Context, platform string) {
	if m == nil {
		return
	}
	m.attemptsActive.Add(ctx, -1, AttrPlatform.String(platform))
}

// RecordPoll records the outcome of one status check.
func (m *LoginMetrics) RecordPoll(ctx context.Context, platform, outcome string) {
	if m == nil {
		return
	}
	m.pollOutcomes.Inc(ctx, AttrPlatform.String(platform), AttrOutcome.String(outcome))
}

// RecordVerification records a send-code or submit-code result.
func (m *LoginMetrics) RecordVerification(ctx context.Context, platform, operation, outcome string) {
	if m == nil {
		return
	}
	m.verifications.Inc(ctx,
		AttrPlatform.String(platform),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}

// RecordPersist records whether writing a login result succeeded.
func (m *LoginMetrics) RecordPersist(ctx context.Context, platform string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.persisted.Inc(ctx, AttrPlatform.String(platform), AttrOutcome.String(outcome))
}

// ObserveUpstream records how long a platform call took. Use it with defer:
//
//	defer metrics.ObserveUpstream(ctx, "doudian", "check", time.Now())
func (m *LoginMetrics) ObserveUpstream(ctx context.Context, platform, operation string, start time.Time) {
	if m == nil {
		return
	}
	m.upstreamDuration.RecordDuration(ctx, time.Since(start),
		AttrPlatform.String(platform),
		AttrOperation.String(operation),
	)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLoginMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
