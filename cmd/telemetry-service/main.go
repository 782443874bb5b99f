package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fleettrack/internal/fleet/repo"
	iotapi "fleettrack/internal/iot/api"
	iotapp "fleettrack/internal/iot/app"
	"fleettrack/internal/iot/cache"
	"fleettrack/internal/iot/consumer"
	"fleettrack/internal/realtime"
	"fleettrack/internal/shared/config"
	"fleettrack/internal/shared/db"
	"fleettrack/internal/shared/health"
	"fleettrack/internal/shared/jwt"
	"fleettrack/internal/shared/middleware"
	"fleettrack/internal/shared/mq"
	"fleettrack/internal/shared/util"
	tripapi "fleettrack/internal/trip/api"
	tripapp "fleettrack/internal/trip/app"
)

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.New()

	pool := db.ConnectToDB(&cfg.Database)
	defer pool.Close()

	rdb := db.ConnectToRedis(&cfg.Redis)
	defer rdb.Close()

	trackers := repo.NewTrackerRepo(pool)
	vehicles := repo.NewVehicleRepo(pool)
	trips := repo.NewTripRepo(pool)
	sensors := repo.NewSensorDataRepo(pool)
	channels := repo.NewChannelRepo(pool)
	drivers := repo.NewDriverRepo(pool)

	tripCache := cache.NewTripMappingCache(rdb)
	tokens := jwt.NewManager(cfg.JWT.Secret)

	iotService := iotapp.NewIotService(cfg.Broker, tripCache, trackers, vehicles, trips, sensors, channels, logger)

	rtService := realtime.NewService(tokens, trips, channels)
	gateway := realtime.NewGateway(rtService, logger)

	tripService := tripapp.NewTripService(trips, drivers, vehicles, sensors, channels, iotService, gateway, logger)

	telemetryConsumer := consumer.NewTelemetryConsumer(iotService, gateway, mq.URL(&cfg.RabbitMQ), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go telemetryConsumer.Run(ctx)

	mux := http.NewServeMux()

	iotHandler := iotapi.NewHandler(iotService, logger)
	iotHandler.RegisterRoutes(mux)

	tripHandler := tripapi.NewHandler(tripService, logger)
	tripHandler.RegisterRoutes(mux, tokens)

	mux.HandleFunc("/ws/tracking", gateway.ServeWS)
	mux.HandleFunc("GET /health", health.Handler("telemetry-service", pool, rdb))

	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: middleware.RequestID(middleware.AccessLog(logger, mux)),
	}

	go func() {
		logger.Info("telemetry-service", "listening on :"+cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("telemetry-service", "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	logger.Info("telemetry-service", "stopped gracefully")
}
