package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("SECRET_KEY")
	os.Unsetenv("ENV")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("expected default port 5000, got %s", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Host)
	}
	if cfg.DBPath != "patients.db" {
		t.Errorf("expected default DB_PATH patients.db, got %s", cfg.DBPath)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("expected 10s request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.CascadeHistoryNotes {
		t.Error("expected history cascade to be off by default")
	}
	if !cfg.MetricsEnabled {
		t.Error("expected metrics to be on by default")
	}
	if cfg.SecretKey == "" {
		t.Error("expected a generated secret key outside production")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "/tmp/clinic/records.db")
	t.Setenv("CASCADE_HISTORY_NOTES", "true")
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.DBPath != "/tmp/clinic/records.db" {
		t.Errorf("unexpected DB_PATH %s", cfg.DBPath)
	}
	if !cfg.CascadeHistoryNotes {
		t.Error("expected history cascade enabled")
	}
	if cfg.SecretKey != "s3cret" {
		t.Errorf("expected SECRET_KEY from env, got %s", cfg.SecretKey)
	}

	opts := cfg.StoreOptions()
	if opts.Path != "/tmp/clinic/records.db" || opts.DatabaseURL != "" {
		t.Errorf("unexpected store options %+v", opts)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:            "production",
			DBPath:         "patients.db",
			DBMaxConns:     4,
			DBMinConns:     1,
			SecretKey:      "key",
			RequestTimeout: time.Second,
			LogLevel:       "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"production without secret", func(c *Config) { c.SecretKey = "" }, true},
		{"no store", func(c *Config) { c.DBPath = "" }, true},
		{"postgres url", func(c *Config) { c.DatabaseURL = "postgres://u:p@localhost/clinic" }, false},
		{"foreign url", func(c *Config) { c.DatabaseURL = "mysql://localhost/clinic" }, true},
		{"zero pool", func(c *Config) { c.DBMaxConns = 0 }, true},
		{"min above max", func(c *Config) { c.DBMinConns = 9 }, true},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Addr(t *testing.T) {
	c := &Config{Host: "127.0.0.1", Port: "5000"}
	if c.Addr() != "127.0.0.1:5000" {
		t.Errorf("unexpected addr %s", c.Addr())
	}
}
