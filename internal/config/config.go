package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Timeout     time.Duration // per outbound request (probe and fetch)
	Delay       time.Duration // base per-domain stagger; probing uses half of it
	UserAgent   string        // sent on every request
	OutputDir   string        // root for fetched content and state snapshots
	MaxInFlight int           // max concurrent tasks per phase (0 = unbounded)
	MaxURLs     int           // process at most this many records (0 = all)
	NoDownload  bool          // stop after the probe phase
}

// Load builds the configuration from environment variables. CLI flags
// override these values after loading.
func Load() *Config {
	return &Config{
		LogLevel:  getenv("LINKVIGIL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LINKVIGIL_PRETTY_LOG", true),

		Timeout:     mustDuration("LINKVIGIL_TIMEOUT", 10*time.Second),
		Delay:       mustDuration("LINKVIGIL_DELAY", 1*time.Second),
		UserAgent:   getenv("LINKVIGIL_USER_AGENT", "linkvigil/1.0"),
		OutputDir:   getenv("LINKVIGIL_OUTPUT_DIR", "output"),
		MaxInFlight: getenvInt("LINKVIGIL_MAX_IN_FLIGHT", 0),
		MaxURLs:     getenvInt("LINKVIGIL_MAX_URLS", 0),
		NoDownload:  mustBool("LINKVIGIL_NO_DOWNLOAD", false),
	}
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
