package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ms-booking/internal/analytics"
	"ms-booking/internal/api"
	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	bookingdb "ms-booking/internal/booking/db"
	"ms-booking/internal/catalog"
	catalogdb "ms-booking/internal/catalog/db"
	"ms-booking/internal/clock"
	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/kafka"
	"ms-booking/internal/lock"
	"ms-booking/internal/logger"
	"ms-booking/internal/pass"
	"ms-booking/internal/reference"
	"ms-booking/internal/users"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting booking service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := database.CreateSchema(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
	}

	catalogService := catalog.NewService(&catalogdb.DB{Bun: bunDB}, log)
	userService := users.NewService(&users.DB{Bun: bunDB}, log)
	if cfg.Database.Seed {
		if err := catalogService.Seed(ctx); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to seed timetable: %v", err))
		}
		if err := userService.SeedAdmin(ctx); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to seed administrator: %v", err))
		}
	}

	opts := []booking.Option{
		booking.WithLogger(log),
		booking.WithClock(clock.Real{}),
		booking.WithReferences(reference.NewGenerator(reference.WithMaxAttempts(cfg.Booking.ReferenceAttempts))),
		booking.WithPersistenceTimeout(cfg.Booking.PersistenceTimeout),
		booking.WithLockWait(cfg.Booking.LockWait),
	}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
		}
		log.Info("REDIS", fmt.Sprintf("Route locks held in Redis at %s (DB: %d)", cfg.Redis.Addr, cfg.Redis.DB))
		opts = append(opts, booking.WithLocker(lock.NewRedis(redisClient, cfg.Redis.LockTTL, cfg.Redis.PollInterval, log)))
	} else {
		log.Warn("REDIS", "Redis disabled, route locks are local to this process")
		opts = append(opts, booking.WithLocker(lock.NewKeyed()))
	}

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, kafka.Topics(cfg.Kafka.Topics), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
		defer producer.Close()
		opts = append(opts, booking.WithEvents(producer))
		log.Info("KAFKA", fmt.Sprintf("Publishing booking events to %v", cfg.Kafka.Brokers))
	}

	bookingService := booking.NewService(&bookingdb.DB{Bun: bunDB}, catalogService, userService, opts...)

	handler := &api.Handler{
		Bookings: bookingService,
		Catalog:  catalogService,
		Users:    userService,
		Reports:  analytics.NewService(bunDB, clock.Real{}),
		Passes:   pass.NewGenerator(cfg.Pass.QRSecret),
		Tokens:   auth.NewTokens(cfg.Auth.JWTSecret),
		Logger:   log,
		Health:   func(ctx context.Context) error { return bunDB.PingContext(ctx) },

		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Booking service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Booking service shutdown complete")
	}
}
