package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Observ ObservabilityConfig
	Worker WorkerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// StoreConfig points at the Git repository that holds the catalog
// documents and image assets.
type StoreConfig struct {
	Token        string
	Owner        string
	Repo         string
	Branch       string
	AssetBaseURL string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

type KafkaConfig struct {
	Brokers       []string
	TopicCatalog  string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	PrometheusPort string
}

type WorkerConfig struct {
	IndexRefreshSeconds int
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "60"))
	refreshInterval, _ := strconv.Atoi(getEnv("INDEX_REFRESH_SECONDS", "300"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Store: StoreConfig{
			Token:        getEnv("GITHUB_TOKEN", ""),
			Owner:        getEnv("DATA_OWNER", ""),
			Repo:         getEnv("DATA_REPO", ""),
			Branch:       getEnv("DATA_BRANCH", "main"),
			AssetBaseURL: getEnv("ASSET_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         redisDB,
			TTLSeconds: cacheTTL,
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicCatalog:  getEnv("KAFKA_TOPIC_CATALOG_EVENTS", "catalog-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "catalog-admin-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			PrometheusPort: getEnv("PROMETHEUS_PORT", "9090"),
		},
		Worker: WorkerConfig{
			IndexRefreshSeconds: refreshInterval,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, data=%s/%s@%s",
		cfg.Server.Env, cfg.Server.Port, cfg.Store.Owner, cfg.Store.Repo, cfg.Store.Branch)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
