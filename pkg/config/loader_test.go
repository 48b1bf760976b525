package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewViperLoader("", "").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 4722 {
		t.Errorf("http.port = %d, want 4722", cfg.HTTP.Port)
	}
	if cfg.Management.Port != 4723 {
		t.Errorf("management.port = %d, want 4723", cfg.Management.Port)
	}
	if cfg.Database.DatabaseName != "mb-users" {
		t.Errorf("database name = %q, want mb-users", cfg.Database.DatabaseName)
	}
	if cfg.Database.Collection != "mailchimp-user" {
		t.Errorf("collection = %q, want mailchimp-user", cfg.Database.Collection)
	}
	if cfg.Pagination.DefaultLimit != 100 || cfg.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination defaults = %+v", cfg.Pagination)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MBUSERS_PORT", "8080")
	t.Setenv("MBUSERS_DB_URL", "mongodb://db.internal:27017")
	t.Setenv("MBUSERS_LOG_LEVEL", "debug")

	cfg, err := NewViperLoader("", "").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("http.port = %d, want env override 8080", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "mongodb://db.internal:27017" {
		t.Errorf("database.url = %q", cfg.Database.URL)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Observability.LogLevel)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("http:\n  port: 9100\ndatabase:\n  collection: test-users\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewViperLoader(path, "").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9100 {
		t.Errorf("http.port = %d, want file value 9100", cfg.HTTP.Port)
	}
	if cfg.Database.Collection != "test-users" {
		t.Errorf("collection = %q, want file value", cfg.Database.Collection)
	}
	if cfg.Database.DatabaseName != "mb-users" {
		t.Errorf("database name = %q, defaults must fill unset keys", cfg.Database.DatabaseName)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTP.Port = -1
	cfg.Database.URL = ""
	cfg.Pagination.DefaultLimit = 0
	cfg.Observability.LogFormat = "xml"

	err := NewViperLoader("", "").Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, fragment := range []string{"http.port", "database.url", "default_limit", "log_format"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q should mention %s", err.Error(), fragment)
		}
	}
}

func TestValidateRejectsPortCollision(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Management.Port = cfg.HTTP.Port

	if err := NewViperLoader("", "").Validate(cfg); err == nil {
		t.Fatal("expected error for colliding ports")
	}
}
