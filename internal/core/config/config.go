package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ReloadCfg struct {
	Enabled bool
	Topic   string   `validate:"required_if=Enabled true"`
	Brokers []string `validate:"required_if=Enabled true,dive,hostname_port"`
	GroupID string   `validate:"required_if=Enabled true"`
}

type Config struct {
	Addr       string `validate:"required"`
	LogLevel   string `validate:"oneof=debug info warn error"`
	LogConsole bool
	LogSampleN int `validate:"gte=0"`

	FeedURL     string        `validate:"required,url"`
	FeedTimeout time.Duration `validate:"gt=0"`

	CatalogSource         string        `validate:"oneof=file redis"`
	CatalogPath           string        `validate:"required_if=CatalogSource file"`
	CatalogRedisKey       string        `validate:"required_if=CatalogSource redis"`
	RedisAddr             string        `validate:"required_if=CatalogSource redis"`
	CatalogReloadInterval time.Duration `validate:"gte=0"`

	H3Res           int    `validate:"gte=-1,lte=10"`
	UnlocatedPolicy string `validate:"oneof=skip append"`

	MetricsEnabled bool
	MetricsPath    string `validate:"startswith=/"`

	Reload ReloadCfg
}

func FromEnv() Config {
	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),

		FeedURL:     getenv("FEED_URL", "http://www.pls-zh.ch/plsFeed/rss"),
		FeedTimeout: getduration("FEED_TIMEOUT", 10*time.Second),

		CatalogSource:         strings.ToLower(getenv("CATALOG_SOURCE", "file")),
		CatalogPath:           getenv("CATALOG_PATH", "data/parking_static_data.json"),
		CatalogRedisKey:       getenv("CATALOG_REDIS_KEY", "parking:catalog"),
		RedisAddr:             getenv("REDIS_ADDR", "localhost:6379"),
		CatalogReloadInterval: getduration("CATALOG_RELOAD_INTERVAL", 0),

		H3Res:           getint("H3_RES", 8),
		UnlocatedPolicy: strings.ToLower(getenv("UNLOCATED_POLICY", "skip")),

		MetricsEnabled: getbool("METRICS_ENABLED", true),
		MetricsPath:    getenv("METRICS_PATH", "/metrics"),

		Reload: ReloadCfg{
			Enabled: getbool("RELOAD_KAFKA_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "parking-catalog-reload"),
			Brokers: splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
			GroupID: getenv("KAFKA_GROUP_ID", "parking-finder"),
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags; the error names every offending field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
