package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ListenAddr != ":8080" || c.MaxSalary != 100000 || c.MaxExperience != 25 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.SalaryTopN != 10 || c.ImageFormat != "png" || c.OutputDir != "charts" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	opts := c.HTTPOptions()
	if opts.Timeout != 30*time.Second || opts.RetryBaseDelay != 500*time.Millisecond || opts.RetryMaxAttempts != 3 {
		t.Fatalf("unexpected http options: %+v", opts)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "max_salary: 60000\nlisten_addr: \":9090\"\nimage_format: svg\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CANDIDASH_SALARY_TOP_N", "5")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.MaxSalary != 60000 || c.ListenAddr != ":9090" || c.ImageFormat != "svg" {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.SalaryTopN != 5 {
		t.Fatalf("env override not applied: %d", c.SalaryTopN)
	}
	if l := c.Limits(); l.MaxSalary != 60000 || l.MaxExperience != 25 {
		t.Fatalf("limits: %+v", l)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("image_format: gif\nretry_max_delay_ms: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "ImageFormat") || !strings.Contains(err.Error(), "RetryMaxDelayMs") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.Set("max_experience", "30"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("sheets_api_key", " key-123 "); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("salary_top_n", "many"); err == nil {
		t.Fatal("expected parse error")
	}
	if err := c.Set("log_level", "loud"); err == nil {
		t.Fatal("expected validation error")
	}
	if c.LogLevel != "info" {
		t.Fatalf("rejected value should be rolled back, got %q", c.LogLevel)
	}
	if err := c.Set("colour", "blue"); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("expected unknown key, got %v", err)
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.MaxExperience != 30 || again.SheetsAPIKey != "key-123" {
		t.Fatalf("saved values not reloaded: %+v", again)
	}
}

func TestKeysCoverSet(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range Keys() {
		if err := c.set(k, "1"); err != nil && strings.Contains(err.Error(), "unknown key") {
			t.Fatalf("key %s not settable", k)
		}
	}
}
