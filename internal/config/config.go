package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Predictor backends
const (
	PredictorML     = "ml"
	PredictorTariff = "tariff"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	NewRelic   NewRelicConfig
	ML         MLConfig
	Prediction PredictionConfig
	Pricing    PricingConfig
	WebSocket  WebSocketConfig
	Log        LogConfig
	Storage    string
}

type ServerConfig struct {
	Port string
	Env  string
	Host string
}

type DatabaseConfig struct {
	URL            string
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConnections int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	AutoMigrate    bool
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type CacheConfig struct {
	TTLTrips       time.Duration
	TTLIdempotency time.Duration
}

type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

type MLConfig struct {
	URL            string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// PredictionConfig selects the predictor and holds the warning thresholds
type PredictionConfig struct {
	Predictor          string
	PriceWarnThreshold float64
	MaxDistanceKM      float64
	MaxDurationMin     float64
	MinSpeedKMH        float64
	MaxSpeedKMH        float64
}

// TariffRates is the local tariff for one vehicle type
type TariffRates struct {
	BaseFare  string
	PerKM     string
	PerMinute string
}

type PricingConfig struct {
	Standard           TariffRates
	Premium            TariffRates
	Van                TariffRates
	MaxSurgeMultiplier float64
	MinSurgeMultiplier float64
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			Name:           getEnv("DB_NAME", "taxi"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			MaxLifetime:    time.Duration(getEnvAsInt("DB_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
			AutoMigrate:    getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:     getEnvAsBool("REDIS_ENABLED", true),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 50),
			MinIdleConn: 5,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		},
		Cache: CacheConfig{
			TTLTrips:       time.Duration(getEnvAsInt("CACHE_TTL_TRIPS", 300)) * time.Second,
			TTLIdempotency: time.Duration(getEnvAsInt("CACHE_TTL_IDEMPOTENCY", 86400)) * time.Second,
		},
		NewRelic: NewRelicConfig{
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "Taxi-Fare"),
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", true),
			LogLevel:   getEnv("NEW_RELIC_LOG_LEVEL", "info"),
		},
		ML: MLConfig{
			URL:            getEnv("ML_SERVICE_URL", "http://localhost:8000/predict"),
			ConnectTimeout: parseDuration(getEnv("ML_CONNECT_TIMEOUT", "3s"), 3*time.Second),
			ReadTimeout:    parseDuration(getEnv("ML_READ_TIMEOUT", "5s"), 5*time.Second),
		},
		Prediction: PredictionConfig{
			Predictor:          getEnv("PREDICTOR", PredictorML),
			PriceWarnThreshold: getEnvAsFloat64("PRICE_WARN_THRESHOLD", 10000),
			MaxDistanceKM:      getEnvAsFloat64("MAX_DISTANCE_KM", 1000),
			MaxDurationMin:     getEnvAsFloat64("MAX_DURATION_MIN", 1440),
			MinSpeedKMH:        getEnvAsFloat64("MIN_SPEED_KMH", 1),
			MaxSpeedKMH:        getEnvAsFloat64("MAX_SPEED_KMH", 300),
		},
		Pricing: PricingConfig{
			Standard: TariffRates{
				BaseFare:  getEnv("TARIFF_BASE_FARE_STANDARD", "3.50"),
				PerKM:     getEnv("TARIFF_PER_KM_STANDARD", "1.20"),
				PerMinute: getEnv("TARIFF_PER_MINUTE_STANDARD", "0.30"),
			},
			Premium: TariffRates{
				BaseFare:  getEnv("TARIFF_BASE_FARE_PREMIUM", "5.00"),
				PerKM:     getEnv("TARIFF_PER_KM_PREMIUM", "1.80"),
				PerMinute: getEnv("TARIFF_PER_MINUTE_PREMIUM", "0.45"),
			},
			Van: TariffRates{
				BaseFare:  getEnv("TARIFF_BASE_FARE_VAN", "4.50"),
				PerKM:     getEnv("TARIFF_PER_KM_VAN", "1.50"),
				PerMinute: getEnv("TARIFF_PER_MINUTE_VAN", "0.40"),
			},
			MaxSurgeMultiplier: getEnvAsFloat64("MAX_SURGE_MULTIPLIER", 3.0),
			MinSurgeMultiplier: getEnvAsFloat64("MIN_SURGE_MULTIPLIER", 1.0),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Storage: getEnv("STORAGE", StoragePostgres),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	switch c.Storage {
	case StoragePostgres:
		if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
			return fmt.Errorf("DATABASE_URL or DB_HOST and DB_NAME are required for postgres storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	switch c.Prediction.Predictor {
	case PredictorML:
		if c.ML.URL == "" {
			return fmt.Errorf("ML_SERVICE_URL is required when PREDICTOR=ml")
		}
	case PredictorTariff:
		if !c.Redis.Enabled {
			return fmt.Errorf("PREDICTOR=tariff requires Redis for surge multipliers")
		}
	default:
		return fmt.Errorf("PREDICTOR must be %q or %q, got %q", PredictorML, PredictorTariff, c.Prediction.Predictor)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.Pricing.MinSurgeMultiplier <= 0 || c.Pricing.MinSurgeMultiplier > c.Pricing.MaxSurgeMultiplier {
		return fmt.Errorf("surge multipliers must satisfy 0 < MIN_SURGE_MULTIPLIER <= MAX_SURGE_MULTIPLIER")
	}
	if c.Prediction.MinSpeedKMH > c.Prediction.MaxSpeedKMH {
		return fmt.Errorf("MIN_SPEED_KMH must not exceed MAX_SPEED_KMH")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
