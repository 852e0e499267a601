package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	SeedFile       string        // path to a seed YAML file (empty = built-in demo seed)
	PollInterval   time.Duration // status polling interval (default: 15s)
	GCInterval     time.Duration // interval to run garbage collection (default: 1m)
	CacheGCTime    time.Duration // idle time before an unobserved cache entry is evicted (default: 10m)
	AllowedOrigins []string      // CORS origins (empty = "*")

	// Entity store simulation
	FailureRate      float64       // probability a remote call fails (default: 0.05)
	MinDelay         time.Duration // min latency of a regular call (default: 300ms)
	MaxDelay         time.Duration // max latency of a regular call (default: 1s)
	PollMinDelay     time.Duration // min latency of a poll (default: 100ms)
	PollMaxDelay     time.Duration // max latency of a poll (default: 300ms)
	StatusChangeRate float64       // per-service status re-check probability on poll (default: 0.1)
	PageSize         int           // services per list page (default: 10)
	EventPageSize    int           // events per feed page (default: 20)

	// Retry policy
	QueryRetries    int           // retries for reads (default: 3)
	MutationRetries int           // retries for mutations (default: 2)
	RetryBaseDelay  time.Duration // first retry delay, doubled each attempt (default: 1s)
	RetryMaxDelay   time.Duration // retry delay cap (default: 30s)

	// Redis (optional, empty address = in-memory preferences)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	RedisPrefsName      string        // preference blob name (default: app-storage)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PULSE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PULSE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("PULSE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PULSE_PRETTY_LOG", true),

		// Engine
		SeedFile:       getenv("PULSE_SEED_FILE", ""),
		PollInterval:   mustDuration("PULSE_POLL_INTERVAL", 15*time.Second),
		GCInterval:     mustDuration("PULSE_GC_INTERVAL", time.Minute),
		CacheGCTime:    mustDuration("PULSE_CACHE_GC_TIME", 10*time.Minute),
		AllowedOrigins: splitAndTrim(getenv("PULSE_ALLOWED_ORIGINS", "")),

		// Simulation
		FailureRate:      getenvFloat("PULSE_FAILURE_RATE", 0.05),
		MinDelay:         mustDuration("PULSE_MIN_DELAY", 300*time.Millisecond),
		MaxDelay:         mustDuration("PULSE_MAX_DELAY", time.Second),
		PollMinDelay:     mustDuration("PULSE_POLL_MIN_DELAY", 100*time.Millisecond),
		PollMaxDelay:     mustDuration("PULSE_POLL_MAX_DELAY", 300*time.Millisecond),
		StatusChangeRate: getenvFloat("PULSE_STATUS_CHANGE_RATE", 0.1),
		PageSize:         getenvInt("PULSE_PAGE_SIZE", 10),
		EventPageSize:    getenvInt("PULSE_EVENT_PAGE_SIZE", 20),

		// Retries
		QueryRetries:    getenvInt("PULSE_QUERY_RETRIES", 3),
		MutationRetries: getenvInt("PULSE_MUTATION_RETRIES", 2),
		RetryBaseDelay:  mustDuration("PULSE_RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:   mustDuration("PULSE_RETRY_MAX_DELAY", 30*time.Second),

		// Redis settings
		RedisAddr:           getenv("PULSE_REDIS_ADDR", ""),
		RedisUser:           getenv("PULSE_REDIS_USERNAME", ""),
		RedisPassword:       getenv("PULSE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("PULSE_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		RedisPrefsName:      getenv("PULSE_PREFS_NAME", "app-storage"),
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// UsesRedis reports whether preferences are persisted in Redis.
func (c *Config) UsesRedis() bool {
	return c.RedisAddr != ""
}

func (c *Config) validate() error {
	switch {
	case c.FailureRate < 0 || c.FailureRate > 1:
		return fmt.Errorf("PULSE_FAILURE_RATE must be within [0,1], got %v", c.FailureRate)
	case c.StatusChangeRate > 1:
		return fmt.Errorf("PULSE_STATUS_CHANGE_RATE must be <= 1, got %v", c.StatusChangeRate)
	case c.MaxDelay < c.MinDelay:
		return fmt.Errorf("PULSE_MAX_DELAY (%v) must be >= PULSE_MIN_DELAY (%v)", c.MaxDelay, c.MinDelay)
	case c.PollMaxDelay < c.PollMinDelay:
		return fmt.Errorf("PULSE_POLL_MAX_DELAY (%v) must be >= PULSE_POLL_MIN_DELAY (%v)", c.PollMaxDelay, c.PollMinDelay)
	case c.PollInterval <= 0:
		return fmt.Errorf("PULSE_POLL_INTERVAL must be > 0, got %v", c.PollInterval)
	case c.GCInterval <= 0:
		return fmt.Errorf("PULSE_GC_INTERVAL must be > 0, got %v", c.GCInterval)
	case c.QueryRetries < 0 || c.MutationRetries < 0:
		return fmt.Errorf("retry counts must be >= 0, got %d/%d", c.QueryRetries, c.MutationRetries)
	case c.RetryMaxDelay < c.RetryBaseDelay:
		return fmt.Errorf("PULSE_RETRY_MAX_DELAY (%v) must be >= PULSE_RETRY_BASE_DELAY (%v)", c.RetryMaxDelay, c.RetryBaseDelay)
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: Invalid float value for %s: %s", key, v))
		}
		return f
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
