// Package app assembles the components every entrypoint shares from the
// loaded configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spacesedan/sentimas/config"
	"github.com/spacesedan/sentimas/internal/clients"
	"github.com/spacesedan/sentimas/internal/clients/kafka_client"
	"github.com/spacesedan/sentimas/internal/db"
	"github.com/spacesedan/sentimas/internal/monitoring"
	"github.com/spacesedan/sentimas/internal/preprocessing"
	"github.com/spacesedan/sentimas/internal/sentiment"
)

type App struct {
	Config   config.Config
	Cleaner  *preprocessing.Cleaner
	Analyzer *sentiment.Analyzer
	Store    db.Store
	// Tracker is nil when Valkey is disabled or unreachable.
	Tracker *clients.ValkeyClient
	Monitor *monitoring.Monitor

	closers []func()
}

// New builds the cleaner, the analyzer and the store. Valkey and OpenSearch
// are optional: a failure to reach them is logged and the app runs without.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg, Monitor: monitoring.NewMonitor()}

	var err error
	if a.Cleaner, err = NewCleaner(cfg.Cleaning); err != nil {
		return nil, err
	}

	analyzer, closer, err := NewAnalyzer(cfg.Sentiment)
	if err != nil {
		return nil, err
	}
	a.Analyzer = analyzer
	a.onClose(closer)

	if a.Store, err = a.newStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Valkey.Enabled {
		tracker, err := clients.NewValkeyClient(ctx, clients.ValkeyOptions{
			Address:  cfg.Valkey.Address,
			Password: cfg.Valkey.Password,
			TLS:      cfg.Valkey.TLS,
			TTL:      cfg.Valkey.TTL,
		})
		if err != nil {
			slog.Warn("[App] Valkey unavailable, running without dedupe",
				slog.String("error", err.Error()))
		} else {
			a.Tracker = tracker
			a.Monitor.Register("valkey", monitoring.PingProbe(tracker.Ping))
			a.onClose(tracker.Close)
		}
	}

	return a, nil
}

func NewCleaner(cfg config.CleaningConfig) (*preprocessing.Cleaner, error) {
	engine, err := preprocessing.NewSpanishEngine(cfg.StemFallback)
	if err != nil {
		return nil, fmt.Errorf("building language engine: %w", err)
	}
	return preprocessing.NewCleaner(engine, preprocessing.Options{KeepHashtagText: cfg.KeepHashtagText})
}

// NewAnalyzer builds the configured capability and the analyzer around it.
// The returned func releases the capability's resources.
func NewAnalyzer(cfg config.SentimentConfig) (*sentiment.Analyzer, func(), error) {
	capability, err := sentiment.NewCapability(sentiment.BackendConfig{
		Backend:       cfg.Backend,
		ModelName:     cfg.ModelName,
		ModelDir:      cfg.ModelDir,
		Endpoint:      cfg.Endpoint,
		Timeout:       cfg.Timeout,
		OpenAIKey:     cfg.OpenAIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
	})
	if err != nil {
		return nil, nil, err
	}

	closer := func() {}
	if c, ok := capability.(io.Closer); ok {
		closer = func() {
			if err := c.Close(); err != nil {
				slog.Warn("[App] Failed to release sentiment backend", slog.String("error", err.Error()))
			}
		}
	}

	analyzer, err := sentiment.NewAnalyzer(capability)
	if err != nil {
		closer()
		return nil, nil, err
	}

	if cfg.Backend == sentiment.BackendLexicon {
		slog.Warn("[App] The lexicon backend is English-only; Spanish comments will mostly score neutral")
	}
	slog.Info("[App] Sentiment analyzer ready", slog.String("backend", cfg.Backend))
	return analyzer, closer, nil
}

func (a *App) newStore(ctx context.Context) (db.Store, error) {
	var store db.Store

	switch a.Config.Storage.Backend {
	case config.StoragePostgres:
		pg, err := clients.NewPostgresClient(ctx, a.Config.Database.DSN())
		if err != nil {
			return nil, err
		}
		if store, err = db.NewPostgresStore(ctx, pg.DB); err != nil {
			pg.Close()
			return nil, err
		}
		a.Monitor.Register("postgres", monitoring.PingProbe(pg.Ping))
	case config.StorageDynamoDB:
		awsCfg, err := loadAWSConfig(ctx, a.Config.AWS.Region)
		if err != nil {
			return nil, err
		}
		client := clients.NewDynamoDBClient(awsCfg, a.Config.AWS.Endpoint)
		store = db.NewDynamoStore(client, a.Config.AWS.DynamoDBTable)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.Config.Storage.Backend)
	}

	return a.withIndexer(ctx, store)
}

var loadAWSConfig = clients.LoadAWSConfig

// withIndexer mirrors store into OpenSearch when enabled. On error the store
// has been closed.
func (a *App) withIndexer(ctx context.Context, store db.Store) (db.Store, error) {
	if !a.Config.OpenSearch.Enabled {
		return store, nil
	}

	opts := clients.OpensearchOptions{
		Endpoint: a.Config.OpenSearch.Endpoint,
		Username: a.Config.OpenSearch.Username,
		Password: a.Config.OpenSearch.Password,
		Index:    a.Config.OpenSearch.Index,
	}
	if opts.Username == "" {
		awsCfg, err := loadAWSConfig(ctx, a.Config.AWS.Region)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to load AWS config for OpenSearch: %w", err)
		}
		opts.AWS = &awsCfg
	}
	search, err := clients.NewOpensearchClient(opts)
	if err != nil {
		slog.Warn("[App] OpenSearch unavailable, records will not be mirrored",
			slog.String("error", err.Error()))
		return store, nil
	}
	a.Monitor.Register("opensearch", search.IsHealthy)
	return db.NewIndexedStore(store, search), nil
}

// NewResultPublisher connects the transactional producer for the results
// topic. The returned func flushes and closes it.
func NewResultPublisher(ctx context.Context, cfg config.KafkaConfig) (*kafka_client.ResultPublisher, func(), error) {
	kc := kafka_client.NewKafkaConfig(cfg)
	producer, err := kafka_client.NewProducer(ctx, kc)
	if err != nil {
		return nil, nil, err
	}
	return kafka_client.NewResultPublisher(producer, kc.ResultsTopic), producer.Close, nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
