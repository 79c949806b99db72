// pkg/httpserver/config.go

package httpserver

import (
	"fmt"
	"strings"
	"time"
)

// Config — сервисный HTTP: метрики Prometheus и пробы k8s.
// Дефолты задаёт конфиг сервиса; пустые поля здесь не подставляются.
type Config struct {
	Addr            string // ":8080"
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricsPath     string
	HealthzPath     string
	ReadyzPath      string
}

// Validate: адрес задан, таймауты положительные, пути абсолютные и разные.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("httpserver: addr is required")
	}
	for name, d := range map[string]time.Duration{
		"read timeout":     c.ReadTimeout,
		"write timeout":    c.WriteTimeout,
		"idle timeout":     c.IdleTimeout,
		"shutdown timeout": c.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("httpserver: %s must be > 0", name)
		}
	}
	seen := make(map[string]string, 3)
	for name, p := range map[string]string{
		"metrics": c.MetricsPath,
		"healthz": c.HealthzPath,
		"readyz":  c.ReadyzPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("httpserver: %s path %q must start with '/'", name, p)
		}
		if other, dup := seen[p]; dup {
			return fmt.Errorf("httpserver: %s and %s share path %q", other, name, p)
		}
		seen[p] = name
	}
	return nil
}
