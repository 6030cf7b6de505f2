package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ms-booking/internal/config"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/notify"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present
	cfg := config.Load()
	cfg.Logging.Service = "booking-notifier"

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	topics := kafka.Topics(cfg.Kafka.Topics)
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	log.Info("APP", fmt.Sprintf("Notifier consuming %v as group %s", topics, cfg.Kafka.GroupID))
	if err := consumer.Run(ctx, notify.New(log).Handle); err != nil {
		log.Fatal("KAFKA", err.Error())
	}
	log.Info("APP", "✅ Notifier shutdown complete")
}
