package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/gocomet/taxi-fare/internal/api/handlers"
	"github.com/gocomet/taxi-fare/internal/api/routes"
	"github.com/gocomet/taxi-fare/internal/config"
	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/internal/mlclient"
	cacherepo "github.com/gocomet/taxi-fare/internal/repository/cache"
	"github.com/gocomet/taxi-fare/internal/repository/memory"
	pgrepo "github.com/gocomet/taxi-fare/internal/repository/postgres"
	"github.com/gocomet/taxi-fare/internal/service/lifecycle"
	"github.com/gocomet/taxi-fare/internal/service/prediction"
	"github.com/gocomet/taxi-fare/internal/service/pricing"
	"github.com/gocomet/taxi-fare/pkg/cache"
	"github.com/gocomet/taxi-fare/pkg/database"
	"github.com/gocomet/taxi-fare/pkg/logger"
	"github.com/gocomet/taxi-fare/pkg/monitoring"
	"github.com/gocomet/taxi-fare/pkg/websocket"
)

const poolStatsInterval = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting taxi fare service",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
		logger.String("storage", cfg.Storage),
		logger.String("predictor", cfg.Prediction.Predictor),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		nrApp = monitoring.Disabled()
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cache.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxRetries:  cfg.Redis.MaxRetries,
			PoolSize:    cfg.Redis.PoolSize,
			MinIdleConn: cfg.Redis.MinIdleConn,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		defer cache.Close(redisClient)
		appLogger.Info("Connected to Redis successfully")
	}

	// Storage
	var db *sqlx.DB
	var repo trip.Repository
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err = openDatabase(ctx, cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize PostgreSQL", logger.Err(err))
		}
		defer db.Close()
		repo = pgrepo.NewTripRepository(db)
		if redisClient != nil {
			repo = cacherepo.NewTripRepository(repo, redisClient, cfg.Cache.TTLTrips, appLogger)
		}
	default:
		appLogger.Warn("Using in-memory trip storage, trips are lost on restart")
		repo = memory.NewTripRepository()
	}

	// Predictor
	predictor, err := newPredictor(cfg, redisClient, nrApp, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize predictor", logger.Err(err))
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(websocket.Config{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
	}, appLogger)
	go wsHub.Run(ctx)

	orchestrator := prediction.NewOrchestrator(predictor, repo, appLogger, predictionConfig(cfg.Prediction),
		prediction.WithRecorder(nrApp),
		prediction.WithPublisher(wsHub),
	)
	trips := lifecycle.NewService(repo, appLogger,
		lifecycle.WithRecorder(nrApp),
		lifecycle.WithPublisher(wsHub),
	)

	go reportPoolStats(ctx, nrApp, db, redisClient)

	// Initialize handlers with dependencies
	h := handlers.NewHandlers(orchestrator, trips, wsHub, appLogger)

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	opts := routes.Options{NewRelic: nrApp.App(), Logger: appLogger}
	if redisClient != nil {
		opts.Idempotency = cache.NewIdempotencyStore(redisClient, cfg.Cache.TTLIdempotency)
	}
	routes.SetupRoutes(router, h, opts)

	appLogger.Info("Routes configured successfully")

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*sqlx.DB, error) {
	db, err := database.NewPostgresDB(ctx, database.Config{
		URL:         cfg.URL,
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		DBName:      cfg.Name,
		SSLMode:     cfg.SSLMode,
		MaxConns:    cfg.MaxConnections,
		MaxIdle:     cfg.MaxIdleConns,
		MaxLifetime: cfg.MaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Connected to PostgreSQL successfully")

	if cfg.AutoMigrate {
		if err := database.RunMigrations(ctx, db.DB, log); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func newPredictor(cfg *config.Config, rdb *redis.Client, nrApp *monitoring.NewRelicApp, log *logger.Logger) (prediction.Predictor, error) {
	switch cfg.Prediction.Predictor {
	case config.PredictorTariff:
		pricingCfg, err := pricingConfig(cfg.Pricing)
		if err != nil {
			return nil, err
		}
		log.Info("Using local tariff predictor")
		return pricing.NewService(rdb, pricingCfg, log), nil
	default:
		log.Info("Using ML predictor", logger.String("url", cfg.ML.URL))
		return mlclient.New(mlclient.Config{
			URL:            cfg.ML.URL,
			ConnectTimeout: cfg.ML.ConnectTimeout,
			ReadTimeout:    cfg.ML.ReadTimeout,
		}, log, mlclient.WithRoundTripper(nrApp.RoundTripper)), nil
	}
}

func predictionConfig(cfg config.PredictionConfig) prediction.Config {
	return prediction.Config{
		PriceWarnThreshold: decimal.NewFromFloat(cfg.PriceWarnThreshold),
		MaxDistanceKM:      cfg.MaxDistanceKM,
		MaxDurationMin:     cfg.MaxDurationMin,
		MinSpeedKMH:        cfg.MinSpeedKMH,
		MaxSpeedKMH:        cfg.MaxSpeedKMH,
	}
}

func pricingConfig(cfg config.PricingConfig) (pricing.Config, error) {
	out := pricing.Config{
		Rates:              make(map[trip.VehicleType]pricing.Rates, 3),
		MaxSurgeMultiplier: cfg.MaxSurgeMultiplier,
		MinSurgeMultiplier: cfg.MinSurgeMultiplier,
	}
	for vehicle, r := range map[trip.VehicleType]config.TariffRates{
		trip.VehicleStandard: cfg.Standard,
		trip.VehiclePremium:  cfg.Premium,
		trip.VehicleVan:      cfg.Van,
	} {
		var rates pricing.Rates
		var err error
		if rates.BaseFare, err = decimal.NewFromString(r.BaseFare); err != nil {
			return pricing.Config{}, fmt.Errorf("invalid base fare for %s: %w", vehicle, err)
		}
		if rates.PerKM, err = decimal.NewFromString(r.PerKM); err != nil {
			return pricing.Config{}, fmt.Errorf("invalid per-km rate for %s: %w", vehicle, err)
		}
		if rates.PerMinute, err = decimal.NewFromString(r.PerMinute); err != nil {
			return pricing.Config{}, fmt.Errorf("invalid per-minute rate for %s: %w", vehicle, err)
		}
		out.Rates[vehicle] = rates
	}
	return out, nil
}

// reportPoolStats periodically sends connection pool gauges to New Relic
func reportPoolStats(ctx context.Context, nrApp *monitoring.NewRelicApp, db *sqlx.DB, rdb *redis.Client) {
	if !nrApp.IsEnabled() {
		return
	}
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if db != nil {
				nrApp.RecordDatabasePoolStats(db.Stats())
			}
			if rdb != nil {
				nrApp.RecordRedisPoolStats(rdb.PoolStats())
			}
		}
	}
}

