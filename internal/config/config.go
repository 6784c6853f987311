package config

import (
	"errors"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all advisor settings, populated from the environment and an optional .env file.
type Config struct {
	// QWeather API configuration.
	QWeatherAPIKey  string
	QWeatherGeoURL  string
	QWeatherAPIURL  string
	QWeatherTimeout time.Duration

	LogLevel  string
	LogFormat string

	ReportDir     string
	KnowledgeFile string
	MetricsFile   string

	// Optional report publication.
	KafkaBrokers     []string
	KafkaReportTopic string
	KafkaEnabled     bool
}

// Load reads configuration from environment variables, applying defaults where unset.
// Values from a .env file in the working directory never override the real environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("QWEATHER_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid QWEATHER_TIMEOUT")
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		QWeatherAPIKey:  os.Getenv("QWEATHER_API_KEY"),
		QWeatherGeoURL:  strings.TrimRight(sharedcfg.EnvOrDefault("QWEATHER_GEO_URL", "https://geoapi.qweather.com/v2"), "/"),
		QWeatherAPIURL:  strings.TrimRight(sharedcfg.EnvOrDefault("QWEATHER_API_URL", "https://devapi.qweather.com/v7"), "/"),
		QWeatherTimeout: timeout,

		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),

		ReportDir:     sharedcfg.EnvOrDefault("REPORT_DIR", "."),
		KnowledgeFile: os.Getenv("KNOWLEDGE_FILE"),
		MetricsFile:   os.Getenv("METRICS_FILE"),

		KafkaBrokers:     brokers,
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "crop-advisor-reports"),
		KafkaEnabled:     kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required")
	}

	return cfg, nil
}

