package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/sentimas/config"
	"github.com/spacesedan/sentimas/internal/app"
	"github.com/spacesedan/sentimas/internal/clients/kafka_client"
	"github.com/spacesedan/sentimas/internal/clients/kafka_client/consumers"
	"github.com/spacesedan/sentimas/internal/logging"
	"github.com/spacesedan/sentimas/internal/monitoring"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	go a.Monitor.Run(ctx, monitoring.HEALTHCHECK_INTERVAL)

	var (
		publisher      *kafka_client.ResultPublisher
		closePublisher func()
	)
	for {
		publisher, closePublisher, err = app.NewResultPublisher(ctx, cfg.Kafka)
		if err == nil {
			break
		}
		slog.Warn("[Main] Kafka init failed, retrying...", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
	defer closePublisher()

	proc := consumers.NewCommentProcessor(a.Cleaner, a.Analyzer, a.Store, publisher, kafka_client.BATCH_SIZE)

	kc := kafka_client.NewKafkaConfig(cfg.Kafka)
	factory := kafka_client.NewConsumerFactory(kc)
	factory.RegisterConsumer(kc.RawTopic, func(ctx context.Context, consumer *kafka.Consumer) error {
		return consumers.StartCommentConsumer(ctx, consumer, proc)
	})

	if err := factory.StartConsumer(ctx, kc.RawTopic); err != nil {
		slog.Error("[Main] Consumer stopped", slog.String("error", err.Error()))
	}
}
