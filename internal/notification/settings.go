package notification

import (
	"strconv"
	"time"

	"github.com/shandysiswandi/emunotify/internal/pkg/config"
)

// Settings is the configuration of the notification module, read once from
// modules.notification.* at startup.
type Settings struct {
	BatchSize       int
	BatchInterval   time.Duration
	BatchAttempts   int
	BatchRetryDelay time.Duration

	HeartbeatInterval time.Duration
	StaleTimeout      time.Duration

	RateLimitSweep time.Duration

	DigestHour   int
	StatsWindow  time.Duration
	StatsTTL     time.Duration
	MaxListeners int

	EmailBaseURL string
	EmailFrom    string

	StreamWriteTimeout time.Duration
	AllowedOrigins     []string
}

const prefix = "modules.notification."

// LoadSettings reads Settings from cfg, falling back to defaults for unset or
// non-positive values.
func LoadSettings(cfg config.Config) Settings {
	return Settings{
		BatchSize:       intOr(cfg.GetInt(prefix+"batch.size"), 50),
		BatchInterval:   durOr(cfg.GetSecond(prefix+"batch.interval_seconds"), 30*time.Second),
		BatchAttempts:   intOr(cfg.GetInt(prefix+"batch.max_attempts"), 3),
		BatchRetryDelay: durOr(cfg.GetSecond(prefix+"batch.retry_delay_seconds"), 5*time.Minute),

		HeartbeatInterval: durOr(cfg.GetSecond(prefix+"realtime.heartbeat_interval_seconds"), 30*time.Second),
		StaleTimeout:      durOr(cfg.GetSecond(prefix+"realtime.stale_timeout_seconds"), time.Minute),

		RateLimitSweep: durOr(cfg.GetSecond(prefix+"ratelimit.sweep_interval_seconds"), 5*time.Minute),

		DigestHour:   hourOr(cfg.GetString(prefix+"digest.hour"), 9),
		StatsWindow:  durOr(cfg.GetDay(prefix+"stats.window_days"), 30*24*time.Hour),
		StatsTTL:     durOr(cfg.GetSecond(prefix+"stats.cache_ttl_seconds"), 5*time.Minute),
		MaxListeners: intOr(cfg.GetInt(prefix+"eventbus.max_listeners"), 100),

		EmailBaseURL: strOr(cfg.GetString(prefix+"email.base_url"), "https://emuready.com"),
		EmailFrom:    strOr(cfg.GetString(prefix+"email.from"), cfg.GetString("mail.from")),

		StreamWriteTimeout: durOr(cfg.GetSecond(prefix+"realtime.write_timeout_seconds"), 10*time.Second),
		AllowedOrigins:     cfg.GetArray("cors.allowed_origins"),
	}
}

func intOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// hourOr accepts "0" as midnight; empty or out-of-range values fall back.
func hourOr(v string, def int) int {
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		return def
	}
	return h
}

func durOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func strOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
