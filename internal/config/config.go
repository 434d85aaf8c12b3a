package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	Redis   RedisConfig
	TMS     TMSConfig
	Webhook WebhookConfig
	Sync    SyncConfig
}

type AppConfig struct {
	Env  string
	Port int

	// APISecretKey protects the trigger and status endpoints.
	// Empty means auth is not enforced.
	APISecretKey string
}

type RedisConfig struct {
	// URL is optional. Without Redis the service still runs, but
	// deduplication, token caching and the cross-instance run lock are
	// disabled for every cycle.
	URL string
}

type TMSConfig struct {
	BaseURL  string
	APIKey   string
	Username string
	Password string
}

type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// SyncConfig carries every tunable the call-decision engine needs.
// The engine receives these explicitly at construction and never reads env.
type SyncConfig struct {
	// Check-in window, in hours until effective delivery.
	CheckinWindowMin float64
	CheckinWindowMax float64

	// Final-call window, in hours until effective delivery.
	FinalWindowMin float64
	FinalWindowMax float64

	// A driver is late when GPS ETA exceeds appointment by more than this.
	LateThreshold time.Duration

	// Overnight period in the reference timezone: hour >= start or < end.
	OvernightStartHour int
	OvernightEndHour   int

	// Dedup marker lifetime.
	DedupTTL time.Duration

	// Optional owner allow-lists; both empty means all owners allowed.
	AllowedOwners   []string
	AllowedOwnerIDs []string

	PageSize int
	MaxPages int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.APISecretKey = os.Getenv("API_SECRET_KEY")

	c.Redis.URL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	c.TMS.BaseURL = strings.TrimSpace(os.Getenv("TURVO_BASE_URL"))
	if c.TMS.BaseURL == "" {
		c.TMS.BaseURL = "https://publicapi.turvo.com/v1"
	}
	c.TMS.APIKey = os.Getenv("TURVO_API_KEY")
	c.TMS.Username = strings.TrimSpace(os.Getenv("TURVO_USERNAME"))
	c.TMS.Password = os.Getenv("TURVO_PASSWORD")

	c.Webhook.URL = strings.TrimSpace(os.Getenv("IN_TRANSIT_WEBHOOK_URL"))
	c.Webhook.Timeout = optDuration("WEBHOOK_TIMEOUT", 10*time.Second)

	c.Sync.CheckinWindowMin = optFloat("CALL_WINDOW_CHECKIN_MIN", 3)
	c.Sync.CheckinWindowMax = optFloat("CALL_WINDOW_CHECKIN_MAX", 4)
	c.Sync.FinalWindowMin = optFloat("CALL_WINDOW_FINAL_MIN", 0)
	c.Sync.FinalWindowMax = optFloat("CALL_WINDOW_FINAL_MAX", 0.5)
	c.Sync.LateThreshold = time.Duration(optFloat("LATE_THRESHOLD_MINUTES", 30) * float64(time.Minute))
	c.Sync.OvernightStartHour = optInt("OVERNIGHT_START_HOUR", 18)
	c.Sync.OvernightEndHour = optInt("OVERNIGHT_END_HOUR", 8)
	c.Sync.DedupTTL = time.Duration(optInt("REDIS_TTL_DAYS", 2)) * 24 * time.Hour
	c.Sync.AllowedOwners = splitList(os.Getenv("ALLOWED_OWNERS"))
	c.Sync.AllowedOwnerIDs = splitList(os.Getenv("ALLOWED_OWNER_IDS"))
	c.Sync.PageSize = optInt("TMS_PAGE_SIZE", 100)
	c.Sync.MaxPages = optInt("TMS_MAX_PAGES", 100)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.IsProduction() && c.App.APISecretKey == "" {
		errs = append(errs, errors.New("API_SECRET_KEY is required in production"))
	}

	if c.TMS.APIKey == "" {
		errs = append(errs, errors.New("TURVO_API_KEY is required"))
	}
	if c.TMS.Username == "" {
		errs = append(errs, errors.New("TURVO_USERNAME is required"))
	}
	if c.TMS.Password == "" {
		errs = append(errs, errors.New("TURVO_PASSWORD is required"))
	}

	if c.Webhook.URL == "" {
		errs = append(errs, errors.New("IN_TRANSIT_WEBHOOK_URL is required"))
	}

	if c.Sync.CheckinWindowMin > c.Sync.CheckinWindowMax {
		errs = append(errs, fmt.Errorf("check-in window is inverted: min %.1f > max %.1f", c.Sync.CheckinWindowMin, c.Sync.CheckinWindowMax))
	}
	if c.Sync.FinalWindowMin > c.Sync.FinalWindowMax {
		errs = append(errs, fmt.Errorf("final window is inverted: min %.1f > max %.1f", c.Sync.FinalWindowMin, c.Sync.FinalWindowMax))
	}
	if c.Sync.LateThreshold <= 0 {
		errs = append(errs, errors.New("LATE_THRESHOLD_MINUTES must be > 0"))
	}
	if c.Sync.OvernightStartHour < 0 || c.Sync.OvernightStartHour > 23 {
		errs = append(errs, fmt.Errorf("OVERNIGHT_START_HOUR must be an hour 0-23, got %d", c.Sync.OvernightStartHour))
	}
	if c.Sync.OvernightEndHour < 0 || c.Sync.OvernightEndHour > 23 {
		errs = append(errs, fmt.Errorf("OVERNIGHT_END_HOUR must be an hour 0-23, got %d", c.Sync.OvernightEndHour))
	}
	if c.Sync.DedupTTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_DAYS must be > 0"))
	}
	if c.Sync.PageSize <= 0 {
		errs = append(errs, errors.New("TMS_PAGE_SIZE must be > 0"))
	}
	if c.Sync.MaxPages <= 0 {
		errs = append(errs, errors.New("TMS_MAX_PAGES must be > 0"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func optFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func optDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
