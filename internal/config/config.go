// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/promptrelay/internal/automation"
	"github.com/ashureev/promptrelay/internal/browser"
	"github.com/ashureev/promptrelay/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	TargetURL      string
	AllowedOrigins []string
	LogLevel       slog.Level
	MaxBodyBytes   int64
	RunsPerMinute  int
	QueueTimeout   time.Duration

	Browser   BrowserConfig
	Timing    TimingConfig
	Selectors Selectors
}

// BrowserConfig describes the browser process and profile.
type BrowserConfig struct {
	Bin               string
	ProfileDir        string
	ProfileName       string
	Visible           bool
	WindowWidth       int
	WindowHeight      int
	SelectAllModifier string // "control" or "meta"
}

// TimingConfig holds every wait and threshold used during a run.
type TimingConfig struct {
	PageReadyTimeout time.Duration
	HydrateDelay     time.Duration
	LocateTimeout    time.Duration
	LocateInterval   time.Duration
	FocusSettle      time.Duration
	SubmitGrace      time.Duration
	ResponseTimeout  time.Duration
	PollInterval     time.Duration
	StablePolls      int
	ExtractMinLength int
	StableMinLength  int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	selectors, err := loadSelectors()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8787"),
		TargetURL:      strings.TrimSpace(getEnv("TARGET_URL", "")),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		LogLevel:       parseLevel(getEnv("LOG_LEVEL", "info")),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		RunsPerMinute:  getEnvInt("RUN_RATE_PER_MINUTE", 0),
		QueueTimeout:   getEnvDuration("QUEUE_TIMEOUT", 0),
		Browser: BrowserConfig{
			Bin:               getEnv("BROWSER_BIN", ""),
			ProfileDir:        strings.TrimSpace(getEnv("PROFILE_DIR", "")),
			ProfileName:       getEnv("PROFILE_NAME", "Default"),
			Visible:           getEnvBool("BROWSER_VISIBLE", true),
			WindowWidth:       getEnvInt("WINDOW_WIDTH", 1400),
			WindowHeight:      getEnvInt("WINDOW_HEIGHT", 900),
			SelectAllModifier: strings.ToLower(getEnv("SELECT_ALL_MODIFIER", "control")),
		},
		Timing: TimingConfig{
			PageReadyTimeout: getEnvDuration("PAGE_READY_TIMEOUT", 40*time.Second),
			HydrateDelay:     getEnvDuration("HYDRATE_DELAY", 2*time.Second),
			LocateTimeout:    getEnvDuration("LOCATE_TIMEOUT", 25*time.Second),
			LocateInterval:   getEnvDuration("LOCATE_INTERVAL", 400*time.Millisecond),
			FocusSettle:      getEnvDuration("FOCUS_SETTLE", 200*time.Millisecond),
			SubmitGrace:      getEnvDuration("SUBMIT_GRACE", time.Second),
			ResponseTimeout:  getEnvDuration("RESPONSE_TIMEOUT", 120*time.Second),
			PollInterval:     getEnvDuration("POLL_INTERVAL", 500*time.Millisecond),
			StablePolls:      getEnvInt("STABLE_POLLS", 4),
			ExtractMinLength: getEnvInt("EXTRACT_MIN_LENGTH", 30),
			StableMinLength:  getEnvInt("STABLE_MIN_LENGTH", 31),
		},
		Selectors: selectors,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.TargetURL == "" {
		return fmt.Errorf("TARGET_URL cannot be empty")
	}
	if u, err := url.Parse(c.TargetURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("TARGET_URL must be an absolute URL, got %q", c.TargetURL)
	}
	if c.Browser.ProfileDir == "" {
		return fmt.Errorf("PROFILE_DIR cannot be empty: it must point at the browser user data directory that holds the logged-in profile")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be > 0")
	}
	if c.RunsPerMinute < 0 {
		return fmt.Errorf("RUN_RATE_PER_MINUTE must be >= 0")
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("WINDOW_WIDTH and WINDOW_HEIGHT must be > 0")
	}
	switch c.Browser.SelectAllModifier {
	case "control", "meta":
	default:
		return fmt.Errorf("SELECT_ALL_MODIFIER must be control or meta, got %q", c.Browser.SelectAllModifier)
	}

	t := c.Timing
	if t.PageReadyTimeout <= 0 || t.LocateTimeout <= 0 || t.ResponseTimeout <= 0 {
		return fmt.Errorf("PAGE_READY_TIMEOUT, LOCATE_TIMEOUT and RESPONSE_TIMEOUT must be > 0")
	}
	if t.LocateInterval <= 0 || t.PollInterval <= 0 {
		return fmt.Errorf("LOCATE_INTERVAL and POLL_INTERVAL must be > 0")
	}
	if t.StablePolls < 1 {
		return fmt.Errorf("STABLE_POLLS must be >= 1")
	}
	if t.ExtractMinLength < 0 || t.StableMinLength < 0 {
		return fmt.Errorf("EXTRACT_MIN_LENGTH and STABLE_MIN_LENGTH must be >= 0")
	}

	for name, s := range map[string]domain.Strategy{
		"input":       c.Selectors.Input,
		"send_button": c.Selectors.SendButtons,
		"message":     c.Selectors.Messages,
	} {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%s selectors: %w", name, err)
		}
	}
	return nil
}

// RunBudget is the longest a single run can take once it holds the profile:
// every wait of the pipeline back to back.
func (c *Config) RunBudget() time.Duration {
	t := c.Timing
	return t.PageReadyTimeout + // navigation
		t.PageReadyTimeout + t.HydrateDelay +
		t.LocateTimeout +
		t.FocusSettle + t.SubmitGrace +
		t.ResponseTimeout
}

// Automation returns the runner settings.
func (c *Config) Automation() automation.Config {
	return automation.Config{
		TargetURL:        c.TargetURL,
		Input:            c.Selectors.Input,
		SendButtons:      c.Selectors.SendButtons,
		Messages:         c.Selectors.Messages,
		ReadyTimeout:     c.Timing.PageReadyTimeout,
		HydrateDelay:     c.Timing.HydrateDelay,
		LocateTimeout:    c.Timing.LocateTimeout,
		LocateInterval:   c.Timing.LocateInterval,
		FocusSettle:      c.Timing.FocusSettle,
		SubmitGrace:      c.Timing.SubmitGrace,
		ExtractMinLength: c.Timing.ExtractMinLength,
		Stability: automation.StabilityConfig{
			Timeout:       c.Timing.ResponseTimeout,
			Interval:      c.Timing.PollInterval,
			RequiredPolls: c.Timing.StablePolls,
			MinLength:     c.Timing.StableMinLength,
		},
		QueueTimeout: c.QueueTimeout,
	}
}

// BrowserOptions returns the launcher settings.
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Bin:               c.Browser.Bin,
		UserDataDir:       c.Browser.ProfileDir,
		ProfileName:       c.Browser.ProfileName,
		Visible:           c.Browser.Visible,
		WindowWidth:       c.Browser.WindowWidth,
		WindowHeight:      c.Browser.WindowHeight,
		SelectAllModifier: c.Browser.SelectAllModifier,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("1m30s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
