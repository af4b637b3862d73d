// Command analyze fetches comments from one post and stores their sentiment.
//
//	analyze -target https://www.youtube.com/watch?v=abc123 -count 50
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/sentimas/config"
	"github.com/spacesedan/sentimas/internal/app"
	"github.com/spacesedan/sentimas/internal/connectors"
	"github.com/spacesedan/sentimas/internal/logging"
	"github.com/spacesedan/sentimas/internal/pipeline"
)

func main() {
	target := flag.String("target", "", "post URL, or a search query for Twitter")
	count := flag.Int("count", 50, "maximum number of comments to analyze")
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
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *target, *count); err != nil {
		slog.Error("[Main] Analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, target string, count int) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	registry, err := connectors.NewRegistryFromConfig(ctx, cfg.Connectors)
	if err != nil {
		return err
	}

	var opts []pipeline.Option
	if a.Tracker != nil {
		opts = append(opts, pipeline.WithTracker(a.Tracker))
	}
	if cfg.Kafka.Enabled {
		publisher, closePublisher, err := app.NewResultPublisher(ctx, cfg.Kafka)
		if err != nil {
			slog.Warn("[Main] Kafka unavailable, results will not be published",
				slog.String("error", err.Error()))
		} else {
			defer closePublisher()
			opts = append(opts, pipeline.WithPublisher(publisher))
		}
	}

	runner := pipeline.NewRunner(registry, a.Cleaner, a.Analyzer, a.Store, opts...)
	_, err = runner.Run(ctx, target, count)
	return err
}
