// Command producer polls a post for comments and publishes them to the raw
// comments topic for the consumer to analyze.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/sentimas/config"
	"github.com/spacesedan/sentimas/internal/clients"
	"github.com/spacesedan/sentimas/internal/clients/kafka_client"
	"github.com/spacesedan/sentimas/internal/clients/kafka_client/utils"
	"github.com/spacesedan/sentimas/internal/connectors"
	"github.com/spacesedan/sentimas/internal/logging"
)

func main() {
	target := flag.String("target", "", "post URL, or a search query for Twitter")
	count := flag.Int("count", 100, "maximum number of comments per fetch")
	interval := flag.Duration("interval", 30*time.Minute, "time between fetches; 0 fetches once")
	flag.Parse()

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

	if *target == "" {
		slog.Error("[Main] -target is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := connectors.NewRegistryFromConfig(ctx, cfg.Connectors)
	if err != nil {
		slog.Error("[Main] Failed to build connectors", slog.String("error", err.Error()))
		os.Exit(1)
	}
	connector, err := registry.ForURL(*target)
	if err != nil {
		slog.Error("[Main] Unsupported target", slog.String("error", err.Error()))
		os.Exit(1)
	}

	kc := kafka_client.NewKafkaConfig(cfg.Kafka)
	var producer *kafka_client.Producer
	for {
		producer, err = kafka_client.NewProducer(ctx, kc)
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
	defer producer.Close()

	var tracker *clients.ValkeyClient
	if cfg.Valkey.Enabled {
		tracker, err = clients.NewValkeyClient(ctx, clients.ValkeyOptions{
			Address:  cfg.Valkey.Address,
			Password: cfg.Valkey.Password,
			TLS:      cfg.Valkey.TLS,
			TTL:      cfg.Valkey.TTL,
		})
		if err != nil {
			slog.Warn("[Main] Valkey unavailable, publishing without dedupe", slog.String("error", err.Error()))
		} else {
			defer tracker.Close()
		}
	}

	fetchAndPublish := func() {
		comments, err := connector.FetchComments(ctx, *target, *count)
		if err != nil {
			slog.Error("[Main] Fetch failed", slog.String("error", err.Error()))
			return
		}

		messages := make([]kafka_client.Message, 0, len(comments))
		for _, c := range comments {
			if tracker != nil && c.ID != "" {
				if seen, err := tracker.IsProcessed(ctx, c.Source, c.ID); err == nil && seen {
					continue
				}
			}
			value, err := utils.SerializeToJSON(c)
			if err != nil {
				continue
			}
			messages = append(messages, kafka_client.Message{Key: []byte(c.ID), Value: value})
		}

		if err := producer.PublishBatch(ctx, kc.RawTopic, messages); err != nil {
			slog.Error("[Main] Publish failed", slog.String("error", err.Error()))
			return
		}

		if tracker != nil {
			for _, c := range comments {
				if c.ID == "" {
					continue
				}
				if err := tracker.MarkProcessed(ctx, c.Source, c.ID); err != nil {
					slog.Warn("[Main] Failed to mark comment", slog.String("id", c.ID), slog.String("error", err.Error()))
				}
			}
		}

		slog.Info("[Main] Published comments",
			slog.String("source", connector.Source()),
			slog.Int("fetched", len(comments)),
			slog.Int("published", len(messages)))
	}

	fetchAndPublish()
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("[Main] Shutting down producer...")
			return
		case <-ticker.C:
			fetchAndPublish()
		}
	}
}
