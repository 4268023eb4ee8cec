// Package pricing implements a local tariff predictor: a base fare plus
// per-kilometre and per-minute rates by vehicle type, scaled by a surge
// multiplier kept in Redis per origin zone.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// DefaultZone keys the surge multiplier for trips without an origin zone
const DefaultZone = "default"

// Rates is the tariff for one vehicle type
type Rates struct {
	BaseFare  decimal.Decimal
	PerKM     decimal.Decimal
	PerMinute decimal.Decimal
}

// Config holds pricing configuration
type Config struct {
	Rates              map[trip.VehicleType]Rates
	MaxSurgeMultiplier float64
	MinSurgeMultiplier float64
}

// DefaultConfig returns the standard city tariff
func DefaultConfig() Config {
	return Config{
		Rates: map[trip.VehicleType]Rates{
			trip.VehicleStandard: {BaseFare: decimal.RequireFromString("3.50"), PerKM: decimal.RequireFromString("1.20"), PerMinute: decimal.RequireFromString("0.30")},
			trip.VehiclePremium:  {BaseFare: decimal.RequireFromString("5.00"), PerKM: decimal.RequireFromString("1.80"), PerMinute: decimal.RequireFromString("0.45")},
			trip.VehicleVan:      {BaseFare: decimal.RequireFromString("4.50"), PerKM: decimal.RequireFromString("1.50"), PerMinute: decimal.RequireFromString("0.40")},
		},
		MaxSurgeMultiplier: 3.0,
		MinSurgeMultiplier: 1.0,
	}
}

// FareBreakdown represents the breakdown of a fare
type FareBreakdown struct {
	VehicleType     trip.VehicleType `json:"vehicle_type"`
	BaseFare        decimal.Decimal  `json:"base_fare"`
	DistanceFare    decimal.Decimal  `json:"distance_fare"`
	TimeFare        decimal.Decimal  `json:"time_fare"`
	SurgeMultiplier float64          `json:"surge_multiplier"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Total           decimal.Decimal  `json:"total"`
}

// Service handles fare calculation. It implements prediction.Predictor.
type Service struct {
	redis  redis.Cmdable
	config Config
	log    logger.Sink
}

// NewService creates a new pricing service
func NewService(rdb redis.Cmdable, config Config, log logger.Sink) *Service {
	return &Service{
		redis:  rdb,
		config: config,
		log:    log,
	}
}

// Predict returns the tariff total rounded to two decimals
func (s *Service) Predict(ctx context.Context, f trip.Features) (decimal.NullDecimal, error) {
	fare, err := s.CalculateFare(ctx, f)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(fare.Total), nil
}

// CalculateFare calculates the total fare for a trip
func (s *Service) CalculateFare(ctx context.Context, f trip.Features) (*FareBreakdown, error) {
	vehicle := trip.VehicleStandard
	if v, ok := f.VehicleType.Get(); ok && v.IsValid() {
		vehicle = v
	}
	rates, ok := s.config.Rates[vehicle]
	if !ok {
		return nil, fmt.Errorf("%w: no tariff configured for vehicle type %s", trip.ErrServiceUnavailable, vehicle)
	}

	subtotal := s.EstimateFare(rates, f.DistanceKM, f.DurationMin)

	zone := DefaultZone
	if z, ok := f.OriginZone.Get(); ok && z != "" {
		zone = z
	}
	surge := s.GetSurgeMultiplier(ctx, zone)
	if demand, ok := f.DemandIndex.Get(); ok {
		surge = max(surge, s.CalculateSurgeBasedOnDemand(demand))
	}

	distanceFare := rates.PerKM.Mul(decimal.NewFromFloat(f.DistanceKM))
	timeFare := rates.PerMinute.Mul(decimal.NewFromFloat(f.DurationMin))

	return &FareBreakdown{
		VehicleType:     vehicle,
		BaseFare:        rates.BaseFare,
		DistanceFare:    distanceFare.Round(trip.MaxPriceScale),
		TimeFare:        timeFare.Round(trip.MaxPriceScale),
		SurgeMultiplier: surge,
		Subtotal:        subtotal,
		Total:           subtotal.Mul(decimal.NewFromFloat(surge)).Round(trip.MaxPriceScale),
	}, nil
}

// EstimateFare returns base + distance + time before surge, rounded to cents
func (s *Service) EstimateFare(rates Rates, distanceKM, durationMin float64) decimal.Decimal {
	return rates.BaseFare.
		Add(rates.PerKM.Mul(decimal.NewFromFloat(distanceKM))).
		Add(rates.PerMinute.Mul(decimal.NewFromFloat(durationMin))).
		Round(trip.MaxPriceScale)
}

// GetSurgeMultiplier gets the current surge multiplier for a zone.
// A missing key or an unreachable Redis means no surge.
func (s *Service) GetSurgeMultiplier(ctx context.Context, zone string) float64 {
	val, err := s.redis.Get(ctx, surgeKey(zone)).Float64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("Surge lookup failed, pricing without surge",
				logger.String("zone", zone),
				logger.Err(err),
			)
		}
		return 1.0
	}
	return s.clamp(val)
}

// SetSurgeMultiplier sets the surge multiplier for a zone
func (s *Service) SetSurgeMultiplier(ctx context.Context, zone string, multiplier float64) error {
	return s.redis.Set(ctx, surgeKey(zone), s.clamp(multiplier), 0).Err()
}

// CalculateSurgeBasedOnDemand maps a demand index (requests per available
// vehicle) onto a multiplier:
//
//	ratio < 0.5      -> 1.0x
//	ratio 0.5 - 1.0  -> 1.25x - 1.5x
//	ratio 1.0 - 2.0  -> 1.5x - 2.5x
//	ratio > 2.0      -> 2.5x upwards, capped
func (s *Service) CalculateSurgeBasedOnDemand(ratio float64) float64 {
	var multiplier float64
	switch {
	case ratio < 0.5:
		multiplier = 1.0
	case ratio < 1.0:
		multiplier = 1.0 + ratio*0.5
	case ratio < 2.0:
		multiplier = 1.5 + (ratio - 1.0)
	default:
		multiplier = 2.5 + (ratio-2.0)*0.25
	}
	return s.clamp(multiplier)
}

func (s *Service) clamp(multiplier float64) float64 {
	if multiplier > s.config.MaxSurgeMultiplier {
		return s.config.MaxSurgeMultiplier
	}
	if multiplier < s.config.MinSurgeMultiplier {
		return s.config.MinSurgeMultiplier
	}
	return multiplier
}

func surgeKey(zone string) string {
	return fmt.Sprintf("surge:%s", zone)
}
