package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YaganovValera/cart-abandonment-producer/internal/generator"
)

func cliArgs(dest, region string) map[string]interface{} {
	return map[string]interface{}{
		"stream.destination": dest,
		"stream.region":      region,
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", cliArgs("cart-events", "local"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Stream.Aggregation || cfg.Stream.Driver != DriverSarama {
		t.Errorf("stream = %+v", cfg.Stream)
	}
	if cfg.Pacing.BatchSize != 100 || cfg.Pacing.Pause != 500*time.Millisecond {
		t.Errorf("pacing = %+v", cfg.Pacing)
	}
	if cfg.Publisher.DrainTimeout != 30*time.Second || cfg.Publisher.MaxEvents != 0 {
		t.Errorf("publisher = %+v", cfg.Publisher)
	}
	if cfg.CustomerPolicy() != generator.FreshUnique {
		t.Errorf("policy = %v", cfg.CustomerPolicy())
	}
	brokers, err := cfg.ResolveBrokers()
	if err != nil || len(brokers) != 1 || brokers[0] != "localhost:9092" {
		t.Errorf("ResolveBrokers = %v, %v", brokers, err)
	}
	cat, err := cfg.BuildCatalog()
	if err != nil || cat.Size() != 5 {
		t.Errorf("BuildCatalog = %v, %v", cat, err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]interface{}
		want      string
	}{
		{"no destination", cliArgs("", "local"), "stream.destination"},
		{"no region", cliArgs("t", ""), "stream.region"},
		{"unknown region", cliArgs("t", "mars-1"), "unknown region"},
		{"bad driver", merge(cliArgs("t", "local"), "stream.driver", "franz"), "stream.driver"},
		{"bad acks", merge(cliArgs("t", "local"), "kafka.acks", "some"), "kafka.acks"},
		{"bad policy", merge(cliArgs("t", "local"), "generator.customer_policy", "vip"), "customer policy"},
		{"negative batch", merge(cliArgs("t", "local"), "pacing.batch_size", -1), "pacing.batch_size"},
		{"zero drain", merge(cliArgs("t", "local"), "publisher.drain_timeout", "0s"), "drain_timeout"},
		{"bad log level", merge(cliArgs("t", "local"), "logging.level", "trace"), "logging.level"},
		{"bad http port", merge(cliArgs("t", "local"), "http.port", 0), "http.port"},
		{"zero http timeout", merge(cliArgs("t", "local"), "http.idle_timeout", "0s"), "idle timeout"},
		{"relative http path", merge(cliArgs("t", "local"), "http.readyz_path", "readyz"), "readyz path"},
		{"sampler above one", merge(merge(cliArgs("t", "local"), "telemetry.enabled", true), "telemetry.sampler_ratio", 1.5), "sampler ratio"},
		{"no telemetry endpoint", merge(merge(cliArgs("t", "local"), "telemetry.enabled", true), "telemetry.otel_endpoint", ""), "endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("", tt.overrides)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v; want containing %q", err, tt.want)
			}
		})
	}
}

func merge(m map[string]interface{}, k string, v interface{}) map[string]interface{} {
	m[k] = v
	return m
}

func TestLoad_FileRegionsAndCatalog(t *testing.T) {
	path := writeFile(t, `
regions:
  us-east-1:
    - b1:9092
    - b2:9092
generator:
  customer_policy: pool
catalog:
  products:
    - code: P1
      name: Kettle
      price: 19.99
    - code: P2
      name: Toaster
      price: "25"
  customers: [c1, c2]
`)
	cfg, err := Load(path, cliArgs("cart-events", "US-EAST-1"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	brokers, err := cfg.ResolveBrokers()
	if err != nil || len(brokers) != 2 {
		t.Fatalf("ResolveBrokers = %v, %v", brokers, err)
	}
	cat, err := cfg.BuildCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if cat.Size() != 2 || !cat.Product(0).Price.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("products = %+v", cat.Products())
	}
	if len(cat.Customers()) != 2 || len(cat.Sellers()) != 5 {
		t.Errorf("customers = %v sellers = %v", cat.Customers(), cat.Sellers())
	}
	if cfg.CustomerPolicy() != generator.FixedPool {
		t.Errorf("policy = %v", cfg.CustomerPolicy())
	}
}

func TestLoad_BadCatalog(t *testing.T) {
	path := writeFile(t, `
catalog:
  products:
    - code: P1
      name: Kettle
      price: -1
    - code: P2
      name: Toaster
      price: 3
`)
	if _, err := Load(path, cliArgs("t", "local")); err == nil || !strings.Contains(err.Error(), "negative price") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CART_PRODUCER_KAFKA_ACKS", "leader")
	t.Setenv("CART_PRODUCER_PACING_PAUSE", "2s")
	cfg, err := Load("", cliArgs("t", "local"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kafka.Acks != "leader" || cfg.Pacing.Pause != 2*time.Second {
		t.Errorf("env not applied: acks=%q pause=%v", cfg.Kafka.Acks, cfg.Pacing.Pause)
	}
}

func TestLoad_TelemetryZeroRatio(t *testing.T) {
	args := merge(merge(cliArgs("t", "local"), "telemetry.enabled", true), "telemetry.sampler_ratio", 0)
	cfg, err := Load("", args)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tc := cfg.TracerConfig()
	if tc.SamplerRatio != 0 || tc.Timeout != 5*time.Second || tc.ServiceName != "cart-producer" {
		t.Errorf("tracer config = %+v", tc)
	}
}

func TestHTTPConfig_ServerConfig(t *testing.T) {
	cfg, err := Load("", merge(cliArgs("t", "local"), "http.port", 9100))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc := cfg.HTTP.ServerConfig()
	if sc.Addr != ":9100" || sc.ShutdownTimeout != 5*time.Second || sc.MetricsPath != "/metrics" {
		t.Errorf("server config = %+v", sc)
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
