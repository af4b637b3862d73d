package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoragePostgres = "postgres"
	StorageDynamoDB = "dynamodb"
)

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Sentiment   SentimentConfig
	Cleaning    CleaningConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	AWS         AWSConfig
	OpenSearch  OpenSearchConfig
	Valkey      ValkeyConfig
	Kafka       KafkaConfig
	Connectors  ConnectorConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

type SentimentConfig struct {
	Backend       string
	ModelName     string
	ModelDir      string
	Endpoint      string
	Timeout       time.Duration
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

type CleaningConfig struct {
	KeepHashtagText bool
	StemFallback    bool
}

type StorageConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	MaxConns int
	SSLMode  string
}

// DSN renders the connection string pgx expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode, d.MaxConns)
}

type AWSConfig struct {
	Endpoint      string
	Region        string
	DynamoDBTable string
}

type OpenSearchConfig struct {
	Enabled  bool
	Endpoint string
	Username string
	Password string
	Index    string
}

type ValkeyConfig struct {
	Enabled  bool
	Address  string
	Password string
	TLS      bool
	TTL      time.Duration
}

type KafkaConfig struct {
	Enabled       bool
	Broker        string
	GroupID       string
	RawTopic      string
	ResultsTopic  string
	TransactionID string
}

type ConnectorConfig struct {
	YouTubeAPIKey       string
	TwitterBearerToken  string
	FacebookAccessToken string
	InstagramSessionID  string
	TikTokAccessToken   string
	RedditClientID      string
	RedditClientSecret  string
	HTTPTimeout         time.Duration
}

// Load reads the configuration from the environment. Call LoadEnv first to
// pull in the .env file for the current APP_ENV.
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Sentiment: SentimentConfig{
			Backend:       getEnv("SENTIMENT_BACKEND", "onnx"),
			ModelName:     getEnv("MODEL_NAME", "pysentimiento/robertuito-sentiment-analysis"),
			ModelDir:      getEnv("MODEL_DIR", "./models"),
			Endpoint:      getEnv("HF_SENTIMENT_ENDPOINT", ""),
			Timeout:       getEnvAsDuration("HF_TIMEOUT", 60*time.Second),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", ""),
		},
		Cleaning: CleaningConfig{
			KeepHashtagText: getEnvAsBool("KEEP_HASHTAG_TEXT", false),
			StemFallback:    getEnvAsBool("STEM_FALLBACK", false),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", StoragePostgres),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "sentimas"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		AWS: AWSConfig{
			Endpoint:      getEnv("AWS_ENDPOINT", ""),
			Region:        getEnv("AWS_REGION", "us-west-2"),
			DynamoDBTable: getEnv("DYNAMODB_TABLE", "analisis"),
		},
		OpenSearch: OpenSearchConfig{
			Enabled:  getEnvAsBool("OPENSEARCH_ENABLED", false),
			Endpoint: getEnv("OPENSEARCH_ENDPOINT", ""),
			Username: getEnv("OPENSEARCH_USERNAME", ""),
			Password: getEnv("OPENSEARCH_PASSWORD", ""),
			Index:    getEnv("OPENSEARCH_INDEX", "sentiment-results"),
		},
		Valkey: ValkeyConfig{
			Enabled:  getEnvAsBool("VALKEY_ENABLED", true),
			Address:  getEnv("VALKEY_INIT_ADDRESS", "localhost:6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			TLS:      getEnvAsBool("VALKEY_TLS", false),
			TTL:      getEnvAsDuration("VALKEY_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvAsBool("KAFKA_ENABLED", false),
			Broker:        getEnv("KAFKA_BROKER", "localhost:29092"),
			GroupID:       getEnv("KAFKA_CONSUMER_GROUP_ID", "sentimas-consumer-group"),
			RawTopic:      getEnv("KAFKA_RAW_TOPIC", "raw-comments"),
			ResultsTopic:  getEnv("KAFKA_RESULTS_TOPIC", "sentiment-results"),
			TransactionID: getEnv("KAFKA_TRANSACTIONAL_ID", "sentimas-producer-1"),
		},
		Connectors: ConnectorConfig{
			YouTubeAPIKey:       getEnv("YOUTUBE_API_KEY", ""),
			TwitterBearerToken:  getEnv("TWITTER_BEARER_TOKEN", ""),
			FacebookAccessToken: getEnv("FACEBOOK_ACCESS_TOKEN", ""),
			InstagramSessionID:  getEnv("INSTAGRAM_SESSION_ID", ""),
			TikTokAccessToken:   getEnv("TIKTOK_ACCESS_TOKEN", ""),
			RedditClientID:      getEnv("REDDIT_CLIENT_ID", ""),
			RedditClientSecret:  getEnv("REDDIT_CLIENT_SECRET", ""),
			HTTPTimeout:         getEnvAsDuration("CONNECTOR_HTTP_TIMEOUT", 30*time.Second),
		},
	}

	return config, config.Validate()
}

// Validate rejects unknown backends and backends missing their credentials.
func (c Config) Validate() error {
	switch c.Sentiment.Backend {
	case "onnx":
		if c.Sentiment.ModelName == "" {
			return fmt.Errorf("MODEL_NAME is required for the onnx backend")
		}
	case "remote", "lexicon":
	case "openai":
		if c.Sentiment.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
	default:
		return fmt.Errorf("unknown SENTIMENT_BACKEND %q", c.Sentiment.Backend)
	}

	switch c.Storage.Backend {
	case StoragePostgres:
	case StorageDynamoDB:
		if c.AWS.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.OpenSearch.Enabled && c.OpenSearch.Endpoint == "" {
		return fmt.Errorf("OPENSEARCH_ENDPOINT is required when OPENSEARCH_ENABLED is set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	return nil
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
