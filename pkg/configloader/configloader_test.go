package configloader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type sample struct {
	Name    string          `mapstructure:"name"`
	Wait    time.Duration   `mapstructure:"wait"`
	Tags    []string        `mapstructure:"tags"`
	Enabled bool            `mapstructure:"enabled"`
	Price   decimal.Decimal `mapstructure:"price"`
}

type validated struct {
	Name string `mapstructure:"name"`
}

func (v *validated) Validate() error {
	if v.Name == "" {
		return errors.New("name required")
	}
	return nil
}

func TestLoad_FileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	yaml := "name: from-file\nwait: 250ms\ntags: a,b\nenabled: \"true\"\nprice: \"19.99\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	var s sample
	err := Load(path, "CFGTEST", map[string]interface{}{"name": "from-cli"}, &s)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-cli" {
		t.Errorf("Name = %q; override must win", s.Name)
	}
	if s.Wait != 250*time.Millisecond {
		t.Errorf("Wait = %v", s.Wait)
	}
	if len(s.Tags) != 2 || s.Tags[1] != "b" {
		t.Errorf("Tags = %v", s.Tags)
	}
	if !s.Enabled {
		t.Error("Enabled should be true")
	}
	if !s.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("Price = %s", s.Price)
	}
}

func TestLoad_NumericDecimal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("price: 3999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var s sample
	if err := Load(path, "CFGTEST", nil, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Price.Equal(decimal.NewFromInt(3999)) {
		t.Errorf("Price = %s", s.Price)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load("/nonexistent/cfg.yaml", "CFGTEST", nil, &s); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RunsValidate(t *testing.T) {
	var v validated
	err := Load("", "CFGTEST", nil, &v)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPrintConfig(t *testing.T) {
	var buf bytes.Buffer
	PrintConfig(&buf, map[string]string{"k": "v"})
	if !strings.Contains(buf.String(), `"k": "v"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
