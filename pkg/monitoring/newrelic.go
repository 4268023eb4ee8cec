package monitoring

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application. A nil or disabled app accepts
// every call and records nothing.
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return Disabled(), nil
	}

	opts := []newrelic.ConfigOption{
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	}
	switch cfg.LogLevel {
	case "debug":
		opts = append(opts, newrelic.ConfigDebugLogger(os.Stdout))
	case "info":
		opts = append(opts, newrelic.ConfigInfoLogger(os.Stdout))
	}

	app, err := newrelic.NewApplication(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// Disabled returns an app that records nothing
func Disabled() *NewRelicApp {
	return &NewRelicApp{nil, false}
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr != nil && nr.enabled && nr.Application != nil
}

// App returns the underlying application, nil when disabled
func (nr *NewRelicApp) App() *newrelic.Application {
	if !nr.IsEnabled() {
		return nil
	}
	return nr.Application
}

// RoundTripper instruments outbound HTTP calls as external segments of the
// transaction found in the request context.
func (nr *NewRelicApp) RoundTripper(base http.RoundTripper) http.RoundTripper {
	if !nr.IsEnabled() {
		if base == nil {
			return http.DefaultTransport
		}
		return base
	}
	return newrelic.NewRoundTripper(base)
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Custom metric helpers

// RecordTripPredicted records a successful prediction and its latency
func (nr *NewRelicApp) RecordTripPredicted(vehicleType string, price float64, distanceKM float64, latency time.Duration) {
	nr.RecordCustomMetric("custom/prediction/latency_ms", float64(latency.Milliseconds()))
	nr.RecordCustomEvent("TripPredicted", map[string]interface{}{
		"vehicle_type": vehicleType,
		"price":        price,
		"distance_km":  distanceKM,
	})
}

// RecordPredictionFailure records a prediction that produced no trip
func (nr *NewRelicApp) RecordPredictionFailure(reason string) {
	nr.RecordCustomMetric(fmt.Sprintf("custom/prediction/failure/%s", reason), 1)
}

// RecordTripTransition records a lifecycle status change
func (nr *NewRelicApp) RecordTripTransition(op, from, to string) {
	nr.RecordCustomEvent("TripTransition", map[string]interface{}{
		"operation": op,
		"from":      from,
		"to":        to,
	})
}

// RecordDatabasePoolStats records database connection pool statistics
func (nr *NewRelicApp) RecordDatabasePoolStats(stats sql.DBStats) {
	nr.RecordCustomMetric("custom/db/open_connections", float64(stats.OpenConnections))
	nr.RecordCustomMetric("custom/db/idle_connections", float64(stats.Idle))
	nr.RecordCustomMetric("custom/db/in_use_connections", float64(stats.InUse))
}

// RecordRedisPoolStats records Redis pool statistics
func (nr *NewRelicApp) RecordRedisPoolStats(stats *redis.PoolStats) {
	if stats == nil {
		return
	}
	nr.RecordCustomMetric("custom/redis/cache_hits", float64(stats.Hits))
	nr.RecordCustomMetric("custom/redis/cache_misses", float64(stats.Misses))
	nr.RecordCustomMetric("custom/redis/timeouts", float64(stats.Timeouts))
}
