// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/YaganovValera/cart-abandonment-producer/internal/catalog"
	"github.com/YaganovValera/cart-abandonment-producer/internal/generator"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/backoff"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/configloader"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/httpserver"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/telemetry"
)

// EnvPrefix — префикс переменных окружения: CART_PRODUCER_KAFKA_ACKS и т.п.
const EnvPrefix = "CART_PRODUCER"

const (
	DriverSarama  = "sarama"
	DriverKafkaGo = "kafkago"
)

/*
   --------------------------------------------------------------------------
   СТРУКТУРЫ
   --------------------------------------------------------------------------
*/

// Config — все настройки продьюсера.
type Config struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`

	Stream    StreamConfig        `mapstructure:"stream"`
	Regions   map[string][]string `mapstructure:"regions"`
	Kafka     KafkaConfig         `mapstructure:"kafka"`
	Generator GeneratorConfig     `mapstructure:"generator"`
	Pacing    PacingConfig        `mapstructure:"pacing"`
	Publisher PublisherConfig     `mapstructure:"publisher"`
	Catalog   CatalogConfig       `mapstructure:"catalog"`
	Telemetry TelemetryConfig     `mapstructure:"telemetry"`
	Logging   LoggingConfig       `mapstructure:"logging"`
	HTTP      HTTPConfig          `mapstructure:"http"`
}

// StreamConfig — куда пишем. Destination и Region приходят из аргументов CLI.
type StreamConfig struct {
	Destination string `mapstructure:"destination"`
	Region      string `mapstructure:"region"`
	Aggregation bool   `mapstructure:"aggregation"`
	Driver      string `mapstructure:"driver"`
}

// KafkaConfig — общие настройки обоих драйверов.
type KafkaConfig struct {
	ClientID       string         `mapstructure:"client_id"`
	Acks           string         `mapstructure:"acks"`
	Compression    string         `mapstructure:"compression"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	FlushFrequency time.Duration  `mapstructure:"flush_frequency"`
	FlushMessages  int            `mapstructure:"flush_messages"`
	FlushBytes     int            `mapstructure:"flush_bytes"`
	MaxRetries     int            `mapstructure:"max_retries"`
	Backoff        backoff.Config `mapstructure:"backoff"`
}

type GeneratorConfig struct {
	CustomerPolicy string `mapstructure:"customer_policy"` // fresh | pool
	Seed           int64  `mapstructure:"seed"`            // 0 → math/rand/v2
}

type PacingConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	Pause     time.Duration `mapstructure:"pause"`
}

type PublisherConfig struct {
	MaxEvents    int64         `mapstructure:"max_events"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

// CatalogConfig — переопределение встроенного каталога. Пустой список → дефолт.
type CatalogConfig struct {
	Products  []catalog.Product `mapstructure:"products"`
	Sellers   []string          `mapstructure:"sellers"`
	Customers []string          `mapstructure:"customers"`
}

type TelemetryConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	OTLPEndpoint string        `mapstructure:"otel_endpoint"`
	Insecure     bool          `mapstructure:"insecure"`
	SamplerRatio float64       `mapstructure:"sampler_ratio"` // 0 — не сэмплировать
	Timeout      time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	DevMode bool   `mapstructure:"dev_mode"`
}

// HTTPConfig — сервер /metrics, /healthz, /readyz.
type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPath     string        `mapstructure:"metrics_path"`
	HealthzPath     string        `mapstructure:"healthz_path"`
	ReadyzPath      string        `mapstructure:"readyz_path"`
}

/*
   --------------------------------------------------------------------------
   DEFAULTS + LOADER
   --------------------------------------------------------------------------
*/

func init() {
	configloader.RegisterDefaults("", map[string]interface{}{
		"service_name":    "cart-producer",
		"service_version": "v1.0.0",
		"regions": map[string]interface{}{
			"local": []string{"localhost:9092"},
		},
	})
	configloader.RegisterDefaults("stream", map[string]interface{}{
		"aggregation": true,
		"driver":      DriverSarama,
	})
	configloader.RegisterDefaults("kafka", map[string]interface{}{
		"client_id":                "cart-producer",
		"acks":                     "all",
		"compression":              "none",
		"timeout":                  "10s",
		"flush_frequency":          "50ms",
		"flush_messages":           100,
		"flush_bytes":              0,
		"max_retries":              3,
		"backoff.initial_interval": "500ms",
		"backoff.max_interval":     "5s",
		"backoff.max_elapsed_time": "30s",
	})
	configloader.RegisterDefaults("generator", map[string]interface{}{
		"customer_policy": "fresh",
		"seed":            0,
	})
	configloader.RegisterDefaults("pacing", map[string]interface{}{
		"batch_size": 100,
		"pause":      "500ms",
	})
	configloader.RegisterDefaults("publisher", map[string]interface{}{
		"max_events":    0,
		"drain_timeout": "30s",
	})
	configloader.RegisterDefaults("telemetry", map[string]interface{}{
		"enabled":       false,
		"otel_endpoint": "otel-collector:4317",
		"insecure":      true,
		"sampler_ratio": 1.0,
		"timeout":       "5s",
	})
	configloader.RegisterDefaults("logging", map[string]interface{}{
		"level":    "info",
		"dev_mode": false,
	})
	configloader.RegisterDefaults("http", map[string]interface{}{
		"enabled":          true,
		"port":             8080,
		"read_timeout":     "10s",
		"write_timeout":    "15s",
		"idle_timeout":     "60s",
		"shutdown_timeout": "5s",
		"metrics_path":     "/metrics",
		"healthz_path":     "/healthz",
		"readyz_path":      "/readyz",
	})
}

// Load: defaults → ENV → YAML (если path не пустой) → overrides из CLI → Validate.
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	var cfg Config
	if err := configloader.Load(path, EnvPrefix, overrides, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

/*
   --------------------------------------------------------------------------
   VALIDATION
   --------------------------------------------------------------------------
*/

func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required")
	}

	// stream
	if c.Stream.Destination == "" {
		return fmt.Errorf("stream.destination is required")
	}
	if c.Stream.Region == "" {
		return fmt.Errorf("stream.region is required")
	}
	if _, err := c.ResolveBrokers(); err != nil {
		return err
	}
	switch c.Stream.Driver {
	case DriverSarama, DriverKafkaGo:
	default:
		return fmt.Errorf("stream.driver must be one of [%s, %s]", DriverSarama, DriverKafkaGo)
	}

	// kafka
	if c.Kafka.Timeout <= 0 {
		return fmt.Errorf("kafka.timeout must be > 0")
	}
	switch strings.ToLower(c.Kafka.Acks) {
	case "all", "leader", "none":
	default:
		return fmt.Errorf("kafka.acks must be one of [all, leader, none]")
	}
	switch strings.ToLower(c.Kafka.Compression) {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("kafka.compression must be one of [none, gzip, snappy, lz4, zstd]")
	}
	if c.Kafka.FlushMessages < 0 || c.Kafka.FlushBytes < 0 || c.Kafka.FlushFrequency < 0 {
		return fmt.Errorf("kafka.flush_* must be >= 0")
	}
	if err := c.Kafka.Backoff.Validate(); err != nil {
		return fmt.Errorf("kafka.backoff: %w", err)
	}

	// generator + catalog
	if _, err := generator.ParsePolicy(c.Generator.CustomerPolicy); err != nil {
		return err
	}
	if _, err := c.BuildCatalog(); err != nil {
		return err
	}

	// pacing / publisher
	if c.Pacing.BatchSize < 0 {
		return fmt.Errorf("pacing.batch_size must be >= 0")
	}
	if c.Pacing.Pause < 0 {
		return fmt.Errorf("pacing.pause must be >= 0")
	}
	if c.Publisher.MaxEvents < 0 {
		return fmt.Errorf("publisher.max_events must be >= 0")
	}
	if c.Publisher.DrainTimeout <= 0 {
		return fmt.Errorf("publisher.drain_timeout must be > 0")
	}

	// telemetry
	if c.Telemetry.Enabled {
		if err := c.TracerConfig().Validate(); err != nil {
			return err
		}
	}

	// logging
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error]")
	}

	// http
	if c.HTTP.Enabled {
		if err := validateHTTP(&c.HTTP); err != nil {
			return err
		}
	}
	return nil
}

func validateHTTP(h *HTTPConfig) error {
	if h.Port <= 0 || h.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535")
	}
	return h.ServerConfig().Validate()
}

// ServerConfig — конфиг pkg/httpserver: слушаем на всех интерфейсах.
func (h HTTPConfig) ServerConfig() httpserver.Config {
	return httpserver.Config{
		Addr:            fmt.Sprintf(":%d", h.Port),
		ReadTimeout:     h.ReadTimeout,
		WriteTimeout:    h.WriteTimeout,
		IdleTimeout:     h.IdleTimeout,
		ShutdownTimeout: h.ShutdownTimeout,
		MetricsPath:     h.MetricsPath,
		HealthzPath:     h.HealthzPath,
		ReadyzPath:      h.ReadyzPath,
	}
}

// TracerConfig — конфиг pkg/telemetry; имя и версия берутся из сервиса.
func (c *Config) TracerConfig() telemetry.Config {
	return telemetry.Config{
		Endpoint:       c.Telemetry.OTLPEndpoint,
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Insecure:       c.Telemetry.Insecure,
		SamplerRatio:   c.Telemetry.SamplerRatio,
		Timeout:        c.Telemetry.Timeout,
	}
}

/*
   --------------------------------------------------------------------------
   HELPERS
   --------------------------------------------------------------------------
*/

// ResolveBrokers возвращает брокеры региона stream.region.
func (c *Config) ResolveBrokers() ([]string, error) {
	// viper приводит ключи map к нижнему регистру
	brokers, ok := c.Regions[strings.ToLower(c.Stream.Region)]
	if !ok {
		return nil, fmt.Errorf("unknown region %q: add it to regions", c.Stream.Region)
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("region %q has no brokers", c.Stream.Region)
	}
	return brokers, nil
}

// CustomerPolicy — разобранный generator.customer_policy.
func (c *Config) CustomerPolicy() generator.CustomerPolicy {
	p, _ := generator.ParsePolicy(c.Generator.CustomerPolicy)
	return p
}

// BuildCatalog собирает каталог: встроенные данные, поверх которых
// накладываются непустые списки из catalog.*.
func (c *Config) BuildCatalog() (*catalog.Catalog, error) {
	products := c.Catalog.Products
	if len(products) == 0 {
		products = catalog.DefaultProducts()
	}
	sellers := c.Catalog.Sellers
	if len(sellers) == 0 {
		sellers = catalog.DefaultSellers()
	}
	customers := c.Catalog.Customers
	if len(customers) == 0 {
		customers = catalog.DefaultCustomers()
	}
	return catalog.New(products, sellers, customers, c.CustomerPolicy() == generator.FixedPool)
}
