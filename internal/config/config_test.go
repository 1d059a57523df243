package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FirstRunCreatesDefaultFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.CalendarMatch != "canvas" {
		t.Fatalf("CalendarMatch = %q", cfg.CalendarMatch)
	}
	if cfg.Policies.QuizFallback != "title" {
		t.Fatalf("QuizFallback = %q", cfg.Policies.QuizFallback)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9090"
	cfg.Timezone = "Africa/Kigali"
	cfg.Policies.UrgentIncludesOverdue = true
	cfg.Feeds = []FeedConfig{{URL: "https://canvas.example/feed.ics", ID: "canvas"}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Listen != "0.0.0.0:9090" || got.Timezone != "Africa/Kigali" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Policies.UrgentIncludesOverdue {
		t.Fatal("policy lost in round trip")
	}
	if len(got.Feeds) != 1 || got.Feeds[0].ID != "canvas" {
		t.Fatalf("feeds lost in round trip: %+v", got.Feeds)
	}
}

func TestNormalize_FillsDefaultsAndRejectsBadPolicy(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.Policies.QuizFallback = "summary"
	cfg.Normalize()

	if cfg.Listen == "" || cfg.RefreshCron == "" || cfg.DefaultCourse == "" {
		t.Fatalf("defaults not filled: %+v", cfg)
	}
	if cfg.MaxResults != 20 || cfg.LookbackMonths != 1 {
		t.Fatalf("fetch window defaults: max=%d lookback=%d", cfg.MaxResults, cfg.LookbackMonths)
	}
	if cfg.Policies.QuizFallback != "title" {
		t.Fatalf("unknown policy value not reset: %q", cfg.Policies.QuizFallback)
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	if cfg.Location() != time.UTC {
		t.Fatalf("Location = %v, want UTC", cfg.Location())
	}

	cfg.Timezone = "Not/AZone"
	if cfg.Location() != time.Local {
		t.Fatal("invalid zone should fall back to local")
	}

	cfg.Timezone = ""
	if cfg.Location() != time.Local {
		t.Fatal("empty zone should fall back to local")
	}
}
