package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendSupabase = "supabase"
	BackendRedis    = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreBackend string // "supabase" | "redis"

	// Supabase (when StoreBackend == "supabase")
	SupabaseURL string // ex: https://xyz.supabase.co
	SupabaseKey string // anon or service key

	// Token verification (when StoreBackend == "redis")
	JWTSecret string // HS256 signing secret
	JWTIssuer string // optional, empty = issuer not checked

	SyncInterval   time.Duration // polling interval per session (default: 2s)
	SessionIdleTTL time.Duration // idle sessions reaped after this (default: 10m)
	SessionSweep   time.Duration // idle sweep cadence (default: 1m)

	ImportFile  string // path to a bookmarks export file (optional, empty = import disabled)
	ImportOwner string // owner id seeded rows belong to (required when ImportFile is set)
	WatchImport bool   // true => re-import when the file changes

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedOrigins []string // CORS origins, "*" = any
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MARQUE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MARQUE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MARQUE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARQUE_PRETTY_LOG", true),

		// Storage
		StoreBackend: getenv("MARQUE_STORE_BACKEND", BackendSupabase),
		SupabaseURL:  getenv("MARQUE_SUPABASE_URL", ""),
		SupabaseKey:  getenv("MARQUE_SUPABASE_KEY", ""),
		JWTSecret:    getenv("MARQUE_JWT_SECRET", ""),
		JWTIssuer:    getenv("MARQUE_JWT_ISSUER", ""),

		// Sync
		SyncInterval:   mustDuration("MARQUE_SYNC_INTERVAL", 2*time.Second),
		SessionIdleTTL: mustDuration("MARQUE_SESSION_IDLE_TTL", 10*time.Minute),
		SessionSweep:   mustDuration("MARQUE_SESSION_SWEEP_INTERVAL", time.Minute),

		// Import
		ImportFile:  getenv("MARQUE_IMPORT_FILE", ""), // Optional, empty = import disabled
		ImportOwner: getenv("MARQUE_IMPORT_OWNER", ""),
		WatchImport: mustBool("MARQUE_WATCH_IMPORT", false),

		// Redis settings
		RedisAddr:             getenv("MARQUE_REDIS_ADDR", ""),
		RedisUser:             getenv("MARQUE_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("MARQUE_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("MARQUE_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MARQUE_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedOrigins: splitAndTrim(getenv("MARQUE_ALLOWED_ORIGINS", "*")),
		TrustProxy:     mustBool("MARQUE_TRUST_PROXY", true),
	}

	validate(cfg)

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = redact(cfg.RedisPassword)
		cfgCopy.SupabaseKey = redact(cfg.SupabaseKey)
		cfgCopy.JWTSecret = redact(cfg.JWTSecret)
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// validate enforces the per-backend required variables after defaults are applied.
func validate(cfg *Config) {
	switch cfg.StoreBackend {
	case BackendSupabase:
		requireSet("MARQUE_SUPABASE_URL", cfg.SupabaseURL)
		requireSet("MARQUE_SUPABASE_KEY", cfg.SupabaseKey)
	case BackendRedis:
		requireSet("MARQUE_REDIS_ADDR", cfg.RedisAddr)
		requireSet("MARQUE_JWT_SECRET", cfg.JWTSecret)
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: MARQUE_REDIS_PASSWORD is required when MARQUE_REDIS_PASSWORD_REQUIRED=true")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown MARQUE_STORE_BACKEND %q (want %q or %q)", cfg.StoreBackend, BackendSupabase, BackendRedis))
	}

	if cfg.ImportFile != "" && cfg.ImportOwner == "" {
		panic("❌ FATAL: MARQUE_IMPORT_OWNER is required when MARQUE_IMPORT_FILE is set")
	}
	if cfg.SyncInterval <= 0 {
		panic("❌ FATAL: MARQUE_SYNC_INTERVAL must be positive")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireSet(key, val string) {
	if val == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
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

func redact(v string) string {
	if v == "" {
		return ""
	}
	return "***REDACTED***"
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
