package main

import (
	"fmt"

	"moviemerge/internal/config"
	"moviemerge/internal/logging"
	"moviemerge/internal/metrics"
	"moviemerge/internal/metrics/datadog"
	"moviemerge/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns a function that
// flushes it. Flush failures are logged, never fatal.
func setupMetrics(p config.Pipeline, runID string) (func(), error) {
	var b metrics.Backend
	switch p.Metrics.Backend {
	case "pushgateway":
		pb, err := prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL, runID)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = pb
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  "imdb.",
			GlobalTags: []string{"job:" + p.Job},
		})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = db
	default:
		return func() {}, nil
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logging.Warn().Err(err).Str("backend", p.Metrics.Backend).Msg("metrics flush failed")
		}
	}, nil
}
