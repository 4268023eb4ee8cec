// Package mlclient calls the external price-prediction microservice.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// Config holds ML service configuration
type Config struct {
	URL            string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultConfig returns the local development settings
func DefaultConfig() Config {
	return Config{
		URL:            "http://localhost:8000/predict",
		ConnectTimeout: 3 * time.Second,
		ReadTimeout:    5 * time.Second,
	}
}

type predictRequest struct {
	DistanceKM      float64                         `json:"distance_km"`
	DurationMin     float64                         `json:"duration_min"`
	VehicleType     trip.Optional[trip.VehicleType] `json:"vehicle_type,omitzero"`
	PassengerCount  trip.Optional[int]              `json:"passenger_count,omitzero"`
	DemandIndex     trip.Optional[float64]          `json:"demand_index,omitzero"`
	HourOfDay       trip.Optional[int]              `json:"hour_of_day,omitzero"`
	OriginZone      trip.Optional[string]           `json:"origin_zone,omitzero"`
	DestinationZone trip.Optional[string]           `json:"destination_zone,omitzero"`
}

type predictResponse struct {
	EstimatedPrice decimal.NullDecimal `json:"estimated_price"`
}

// Client is an HTTP Predictor backed by the ML microservice
type Client struct {
	url  string
	http *http.Client
	log  logger.Sink
}

// Option customizes a Client
type Option func(*Client)

// WithRoundTripper wraps the client transport, e.g. with APM instrumentation
func WithRoundTripper(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = wrap(c.http.Transport) }
}

// New creates an ML client. The connect timeout bounds dialing and the read
// timeout bounds waiting for the response.
func New(cfg Config, log logger.Sink, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	transport.ResponseHeaderTimeout = cfg.ReadTimeout

	c := &Client{
		url: cfg.URL,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict posts the features and returns the raw estimated price.
// Every failure wraps trip.ErrServiceUnavailable.
func (c *Client) Predict(ctx context.Context, f trip.Features) (decimal.NullDecimal, error) {
	started := time.Now()

	body, err := json.Marshal(predictRequest{
		DistanceKM:      f.DistanceKM,
		DurationMin:     f.DurationMin,
		VehicleType:     f.VehicleType,
		PassengerCount:  f.PassengerCount,
		DemandIndex:     f.DemandIndex,
		HourOfDay:       f.HourOfDay,
		OriginZone:      f.OriginZone,
		DestinationZone: f.DestinationZone,
	})
	if err != nil {
		return decimal.NullDecimal{}, unavailable("could not encode ML request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return decimal.NullDecimal{}, unavailable("could not build ML request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug("ML request", logger.String("url", c.url), logger.Any("features", json.RawMessage(body)))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("Timeout or connection error calling ML service", logger.Err(err))
		return decimal.NullDecimal{}, unavailable("ML service timeout or connection error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("ML service returned HTTP error",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(snippet)),
		)
		return decimal.NullDecimal{}, unavailable(fmt.Sprintf("ML service responded with HTTP error: %d", resp.StatusCode), nil)
	}

	var payload *predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if isTimeout(err) {
			return decimal.NullDecimal{}, unavailable("ML service timeout or connection error", err)
		}
		c.log.Warn("Unreadable ML response", logger.Err(err))
		return decimal.NullDecimal{}, unavailable("ML service returned an unreadable response", err)
	}
	if payload == nil {
		c.log.Warn("ML response is null", logger.Duration("latency", time.Since(started)))
		return decimal.NullDecimal{}, unavailable("ML service returned null response", nil)
	}

	price := payload.EstimatedPrice
	if !price.Valid || price.Decimal.IsNegative() {
		c.log.Warn("Invalid ML price received",
			logger.Any("price", price),
			logger.Duration("latency", time.Since(started)),
		)
		return decimal.NullDecimal{}, unavailable("ML service returned invalid price value", nil)
	}

	c.log.Info("ML prediction successful",
		logger.Stringer("price", price.Decimal),
		logger.Duration("latency", time.Since(started)),
	)
	return price, nil
}

func unavailable(msg string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", trip.ErrServiceUnavailable, msg)
	}
	return fmt.Errorf("%w: %s: %w", trip.ErrServiceUnavailable, msg, cause)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}
