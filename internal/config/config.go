package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GoogleConfig holds the OAuth client settings for the Google Calendar
// source plus the path where the granted token is persisted.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	// RedirectURL must match the OAuth client registration; defaults to
	// the local callback endpoint.
	RedirectURL string `yaml:"redirect_url" json:"redirect_url"`
	// TokenPath is where the granted OAuth token is stored (0600).
	TokenPath string `yaml:"token_path" json:"token_path"`
}

// FeedConfig describes one direct Canvas ICS feed subscription. Feeds are
// an alternative to the Google Calendar source for users who paste their
// Canvas "Calendar Feed" URL straight into the config.
type FeedConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PolicyConfig holds the tunable normalization and view behaviors.
// Defaults are the recommended settings; see DESIGN.md.
type PolicyConfig struct {
	// QuizFallback selects which field the synthesized quiz description
	// keys off when an event has no description: "title" or "course".
	QuizFallback string `yaml:"quiz_fallback" json:"quiz_fallback"`
	// UrgentIncludesOverdue widens the urgent view to overdue entries.
	UrgentIncludesOverdue bool `yaml:"urgent_includes_overdue" json:"urgent_includes_overdue"`
	// SearchDescription includes the description in text search.
	SearchDescription bool `yaml:"search_description" json:"search_description"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used to resolve all-day due dates
	// (e.g. "Africa/Kigali"). Empty means the server's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of DEBUG, INFO, ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule for background refreshes.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CalendarMatch is the case-insensitive substring used to pick the
	// assignment calendar out of the account's calendar list.
	CalendarMatch string `yaml:"calendar_match" json:"calendar_match"`

	// DefaultCourse is the course label used when a title has no
	// bracketed course tag.
	DefaultCourse string `yaml:"default_course" json:"default_course"`

	// LookbackMonths controls how far back the fetch window opens; the
	// window starts at midnight on the 1st of that month.
	LookbackMonths int `yaml:"lookback_months" json:"lookback_months"`

	// MaxResults caps the number of events fetched per refresh.
	MaxResults int64 `yaml:"max_results" json:"max_results"`

	// ExportPath is where the board PNG export is written.
	ExportPath string `yaml:"export_path" json:"export_path"`

	Google   GoogleConfig `yaml:"google" json:"google"`
	Feeds    []FeedConfig `yaml:"feeds" json:"feeds"`
	Policies PolicyConfig `yaml:"policies" json:"policies"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:8080",
		Timezone:       "",
		LogLevel:       "INFO",
		RefreshCron:    "*/15 * * * *",
		CalendarMatch:  "canvas",
		DefaultCourse:  "Canvas",
		LookbackMonths: 1,
		MaxResults:     20,
		ExportPath:     "./board.png",
		Google: GoogleConfig{
			RedirectURL: "http://127.0.0.1:8080/api/auth/callback",
			TokenPath:   "./var/token.json",
		},
		Feeds: []FeedConfig{},
		Policies: PolicyConfig{
			QuizFallback:          "title",
			UrgentIncludesOverdue: false,
			SearchDescription:     true,
		},
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.CalendarMatch == "" {
		c.CalendarMatch = "canvas"
	}
	if c.DefaultCourse == "" {
		c.DefaultCourse = "Canvas"
	}
	if c.LookbackMonths <= 0 {
		c.LookbackMonths = 1
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 20
	}
	if c.ExportPath == "" {
		c.ExportPath = "./board.png"
	}
	if c.Google.RedirectURL == "" {
		c.Google.RedirectURL = "http://" + c.Listen + "/api/auth/callback"
	}
	if c.Google.TokenPath == "" {
		c.Google.TokenPath = "./var/token.json"
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	switch c.Policies.QuizFallback {
	case "title", "course":
		// ok
	default:
		c.Policies.QuizFallback = "title"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: write a default config (0600, parent
//     directory created as needed) and return the defaults.
//   - If the file exists: unmarshal and normalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dueboard-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// Location resolves the configured display timezone, falling back to the
// server's local zone when unset or invalid.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
