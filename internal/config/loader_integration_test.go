package config

import (
	"os"
	"path/filepath"
	"testing"
)

// Integration tests that exercise the full LoadFrom pipeline:
// defaults < YAML < environment variables.

func TestLoadFrom_FullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RENTFLOW_PORT", "7070")
	t.Setenv("RENTFLOW_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("env should override YAML: got port %q, want 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override YAML: got level %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadFrom_YAMLPartialOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
invoice:
  footer: "Thank you"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Invoice.Footer != "Thank you" {
		t.Errorf("got footer %q, want Thank you", cfg.Invoice.Footer)
	}
	// Defaults preserved
	if cfg.Invoice.Title != "RENT INVOICE" {
		t.Errorf("got title %q, want default", cfg.Invoice.Title)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("got port %q, want default 8080", cfg.Server.Port)
	}
}

func TestLoadFrom_ValidationFailure(t *testing.T) {
	t.Setenv("RENTFLOW_STORAGE_BACKEND", "s3")

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("RENTFLOW_INVOICE_TITLE=FLAT RENT\nRENTFLOW_PORT=6060\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Register restore hooks, then clear so the dotenv value can apply.
	t.Setenv("RENTFLOW_INVOICE_TITLE", "")
	_ = os.Unsetenv("RENTFLOW_INVOICE_TITLE")
	// Already-set variables win over the file.
	t.Setenv("RENTFLOW_PORT", "5050")

	if err := loadDotEnv(envPath); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	cfg, err := LoadFrom(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Invoice.Title != "FLAT RENT" {
		t.Errorf("expected title from .env, got %q", cfg.Invoice.Title)
	}
	if cfg.Server.Port != "5050" {
		t.Errorf("process env must win over .env, got %q", cfg.Server.Port)
	}
}

func TestLoadDotEnvMissing(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should not error, got %v", err)
	}
}
