package main

import (
	"context"
	"errors"

	"keypad-calculator/internal/calculator"
	"keypad-calculator/internal/config"
	"keypad-calculator/internal/observability"
)

// initObservability installs the OTLP trace, metric and log pipelines when
// enabled, then the calculator's metric instruments. The returned function
// shuts every installed provider down.
func initObservability(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error

	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.OTelEnabled {
		inits := []func(context.Context, string) (func(context.Context) error, error){
			observability.InitTracing,
			observability.InitMetrics,
			observability.InitLogging,
		}
		for _, start := range inits {
			fn, err := start(ctx, cfg.ServiceName)
			if err != nil {
				_ = shutdown(ctx)
				return nil, err
			}
			shutdowns = append(shutdowns, fn)
		}
	}

	if err := calculator.InitMetrics(); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return shutdown, nil
}
