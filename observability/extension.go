// Package observability provides a metrics extension for the vesting ledger
// that records lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"
	"math/big"

	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnShutdown             = (*MetricsExtension)(nil)
	_ plugin.OnScheduleCreated      = (*MetricsExtension)(nil)
	_ plugin.OnTokensReleased       = (*MetricsExtension)(nil)
	_ plugin.OnReleaseFailed        = (*MetricsExtension)(nil)
	_ plugin.OnInvariantViolation   = (*MetricsExtension)(nil)
	_ plugin.OnEmergencyWithdraw    = (*MetricsExtension)(nil)
	_ plugin.OnOwnershipTransferred = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger lifecycle metrics.
// Register it as a plugin to track vesting activity.
type MetricsExtension struct {
	factory MetricFactory

	// Lifecycle metrics
	Started Counter
	Stopped Counter

	// Schedule metrics
	ScheduleCreated  Counter
	ScheduleAmount   Histogram
	ScheduleDuration Histogram

	// Payout metrics
	TokensReleased      Counter
	ReleasedAmount      Histogram
	ReleaseLatency      Histogram
	ReleaseFailed       Counter
	SchedulesExhausted  Counter
	EmergencyWithdrawal Counter
	WithdrawnAmount     Histogram

	// Access metrics
	OwnershipTransferred Counter

	// Error metrics
	InvariantViolations Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		Started: factory.Counter("vesting.ledger.started"),
		Stopped: factory.Counter("vesting.ledger.stopped"),

		ScheduleCreated:  factory.Counter("vesting.schedule.created"),
		ScheduleAmount:   factory.Histogram("vesting.schedule.amount"),
		ScheduleDuration: factory.Histogram("vesting.schedule.duration_seconds"),

		TokensReleased:      factory.Counter("vesting.release.success"),
		ReleasedAmount:      factory.Histogram("vesting.release.amount"),
		ReleaseLatency:      factory.Histogram("vesting.release.since_start_seconds"),
		ReleaseFailed:       factory.Counter("vesting.release.failure"),
		SchedulesExhausted:  factory.Counter("vesting.schedule.fully_released"),
		EmergencyWithdrawal: factory.Counter("vesting.emergency_withdraw.count"),
		WithdrawnAmount:     factory.Histogram("vesting.emergency_withdraw.amount"),

		OwnershipTransferred: factory.Counter("vesting.ownership.transferred"),

		InvariantViolations: factory.Counter("vesting.invariant.violations"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	m.Started.Inc()
	return nil
}

// OnShutdown implements plugin.OnShutdown.
func (m *MetricsExtension) OnShutdown(_ context.Context) error {
	m.Stopped.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Schedule hooks
// ──────────────────────────────────────────────────

// OnScheduleCreated implements plugin.OnScheduleCreated.
func (m *MetricsExtension) OnScheduleCreated(_ context.Context, s *schedule.Schedule) error {
	m.ScheduleCreated.Inc()
	m.ScheduleAmount.Observe(amountFloat(s.TotalAmount))
	m.ScheduleDuration.Observe(s.Duration.Seconds())
	return nil
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnTokensReleased implements plugin.OnTokensReleased.
func (m *MetricsExtension) OnTokensReleased(_ context.Context, s *schedule.Schedule, amount types.Amount) error {
	m.TokensReleased.Inc()
	m.ReleasedAmount.Observe(amountFloat(amount))
	if elapsed := s.UpdatedAt.Sub(s.Start); elapsed > 0 {
		m.ReleaseLatency.Observe(elapsed.Seconds())
	}
	if s.Status() == schedule.StatusFullyReleased {
		m.SchedulesExhausted.Inc()
	}
	return nil
}

// OnReleaseFailed implements plugin.OnReleaseFailed.
func (m *MetricsExtension) OnReleaseFailed(_ context.Context, _ *schedule.Schedule, _ types.Amount, _ error) error {
	m.ReleaseFailed.Inc()
	return nil
}

// OnEmergencyWithdraw implements plugin.OnEmergencyWithdraw.
func (m *MetricsExtension) OnEmergencyWithdraw(_ context.Context, _, _ string, amount types.Amount) error {
	m.EmergencyWithdrawal.Inc()
	m.WithdrawnAmount.Observe(amountFloat(amount))
	return nil
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (m *MetricsExtension) OnOwnershipTransferred(_ context.Context, _, _ string) error {
	m.OwnershipTransferred.Inc()
	return nil
}

// OnInvariantViolation implements plugin.OnInvariantViolation.
func (m *MetricsExtension) OnInvariantViolation(_ context.Context, _ *schedule.Schedule, _ types.Amount) error {
	m.InvariantViolations.Inc()
	return nil
}

// amountFloat converts base units to float64 for histograms. Precision loss
// above 2^53 is acceptable for metrics.
func amountFloat(a types.Amount) float64 {
	f, _ := new(big.Float).SetInt(a.Big()).Float64()
	return f
}
