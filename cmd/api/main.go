package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "github.com/frontandrew/flighthub/internal/delivery/http"
	"github.com/frontandrew/flighthub/internal/infrastructure/flightsource"
	"github.com/frontandrew/flighthub/internal/jobs"
	"github.com/frontandrew/flighthub/internal/pkg/config"
	"github.com/frontandrew/flighthub/internal/pkg/database"
	"github.com/frontandrew/flighthub/internal/pkg/jwt"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"github.com/frontandrew/flighthub/internal/pkg/redis"
	"github.com/frontandrew/flighthub/internal/repository/cached"
	"github.com/frontandrew/flighthub/internal/repository/postgres"
	"github.com/frontandrew/flighthub/internal/usecase/flight"
	"github.com/frontandrew/flighthub/internal/usecase/reference"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// =========================================================================
	// Загрузка конфигурации
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Инициализация logger
	// =========================================================================

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)
	log.Info("Starting FlightHub API server", map[string]interface{}{
		"version": "1.0.0",
	})

	// =========================================================================
	// Подключение к PostgreSQL
	// =========================================================================

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer database.Close(db)

	if err := postgres.ApplySchema(ctx, db); err != nil {
		log.Fatal("Failed to apply schema", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// =========================================================================
	// Подключение к Redis (блокировка поиска рейсов)
	// =========================================================================

	var locker flight.Locker
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis is not available, flight lookups are deduplicated in-process only", map[string]interface{}{
			"error":   err.Error(),
			"address": cfg.Redis.Address(),
		})
	} else {
		defer redisClient.Close()
		locker = redis.NewLocker(redisClient, cfg.Lookup.LockTTL, cfg.Lookup.LockWait, cfg.Lookup.LockInterval)
		log.Info("Connected to Redis", map[string]interface{}{
			"address": cfg.Redis.Address(),
		})
	}

	// =========================================================================
	// Метрики и внешний источник
	// =========================================================================

	registry := metrics.New(prometheus.NewRegistry())

	source := flightsource.NewHTTPClient(flightsource.Config{
		ReferenceURL:   cfg.Source.ReferenceURL,
		APIURL:         cfg.Source.APIURL,
		APIKey:         cfg.Source.APIKey,
		APIHost:        cfg.Source.APIHost,
		Timeout:        cfg.Source.Timeout,
		DatasetTimeout: cfg.Source.DatasetTimeout,
		RateLimit:      cfg.Source.RateLimit,
		RateBurst:      cfg.Source.RateBurst,
	}, registry)

	// =========================================================================
	// Создание repositories
	// =========================================================================

	matchCache := cached.NewMatchCache(cfg.Cache.ReferenceTTL, cfg.Cache.ReferenceCleanup)
	aircraftRepo := cached.NewAircraftRepository(postgres.NewAircraftRepository(db), matchCache)
	airlineRepo := cached.NewAirlineRepository(postgres.NewAirlineRepository(db), matchCache)
	airportRepo := cached.NewAirportRepository(postgres.NewAirportRepository(db), matchCache)
	flightRepo := postgres.NewFlightRepository(db)
	txManager := database.NewTxManager(db)

	log.Info("Repositories initialized")

	// =========================================================================
	// Создание use case services
	// =========================================================================

	referenceService := reference.NewService(aircraftRepo, airlineRepo, airportRepo, txManager, source, matchCache, registry, log)
	resolver := flight.NewResolver(aircraftRepo, airlineRepo, airportRepo, source, cfg.Source.Timeout)
	lookupService := flight.NewLookupService(flightRepo, resolver, txManager, source, locker, cfg.Source.Timeout, registry, log)
	flightService := flight.NewService(flightRepo, resolver, txManager, log)

	log.Info("Use case services initialized")

	// =========================================================================
	// Фоновая синхронизация справочников
	// =========================================================================

	var syncDone <-chan struct{}
	if cfg.Sync.Interval > 0 {
		syncDone = jobs.Start(ctx, jobs.NewReferenceSyncJob(referenceService, log), cfg.Sync.Interval)
		log.Info("Reference sync scheduled", map[string]interface{}{
			"interval": cfg.Sync.Interval.String(),
		})
	}

	// =========================================================================
	// Создание HTTP router
	// =========================================================================

	tokenService := jwt.NewTokenService(cfg.JWT.SecretKey, cfg.JWT.AccessExpiry)

	router := deliveryHTTP.NewRouter(
		deliveryHTTP.NewReferenceHandler(referenceService, log),
		deliveryHTTP.NewFlightHandler(flightService, lookupService, log),
		tokenService,
		registry,
		cfg.CORS,
		log,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// =========================================================================
	// Запуск сервера в goroutine
	// =========================================================================

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("API server listening", map[string]interface{}{
			"address": srv.Addr,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================

	select {
	case err := <-serverErrors:
		log.Fatal("Server error", map[string]interface{}{
			"error": err.Error(),
		})

	case <-ctx.Done():
		log.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})

			if err := srv.Close(); err != nil {
				log.Error("Failed to close server", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		if syncDone != nil {
			<-syncDone
		}

		log.Info("Server stopped gracefully")
	}
}
