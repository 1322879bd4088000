package calculator

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments — initialized once via InitMetrics().
var (
	keysCounter    metric.Int64Counter
	keyHistogram   metric.Float64Histogram
	errorCounter   metric.Int64Counter
	sessionsActive metric.Int64UpDownCounter
	resultGauge    metric.Float64Gauge
)

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("keypad")

	var err error

	keysCounter, err = meter.Int64Counter("keypad.keys.total",
		metric.WithDescription("Total number of calculator keys pressed"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return fmt.Errorf("creating keys counter: %w", err)
	}

	keyHistogram, err = meter.Float64Histogram("keypad.key.duration",
		metric.WithDescription("Duration of a single key press in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return fmt.Errorf("creating key histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("keypad.errors.total",
		metric.WithDescription("Total number of rejected calculator requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	sessionsActive, err = meter.Int64UpDownCounter("keypad.sessions.active",
		metric.WithDescription("Calculator sessions currently held in memory"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return fmt.Errorf("creating sessions counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("keypad.last_result",
		metric.WithDescription("The last numeric result shown on a calculator display"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	return nil
}
