// Package config handles application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default mirror pools. Operators override these with the INVIDIOUS_MIRRORS
// and PIPED_MIRRORS environment variables; individual mirror uptime is
// explicitly not guaranteed.
var (
	defaultInvidiousMirrors = []string{
		"https://inv.nadeko.net",
		"https://invidious.nerdvpn.de",
		"https://yewtu.be",
	}
	defaultPipedMirrors = []string{
		"https://pipedapi.kavin.rocks",
		"https://api.piped.yt",
	}
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Providers
	APIKey           string
	ProviderPriority []string
	InvidiousMirrors []string
	PipedMirrors     []string
	MirrorShuffle    bool

	// Upstream calls
	UpstreamTimeout time.Duration
	GlobalProxy     string

	// Resolver
	MaxDurationSeconds int

	// Session seeds
	DefaultQuery string
	DefaultCols  int
	DefaultRows  int

	// Logging
	LogLevel string
	LogJSON  bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:               getEnvInt("PORT", 7860),
		ReadTimeout:        getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:        getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		APIKey:             os.Getenv("YT_API_KEY"),
		ProviderPriority:   getEnvStringSlice("PROVIDER_PRIORITY", []string{"api", "mirror"}),
		InvidiousMirrors:   getEnvStringSlice("INVIDIOUS_MIRRORS", defaultInvidiousMirrors),
		PipedMirrors:       getEnvStringSlice("PIPED_MIRRORS", defaultPipedMirrors),
		MirrorShuffle:      getEnvBool("MIRROR_SHUFFLE", true),
		UpstreamTimeout:    getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		GlobalProxy:        os.Getenv("GLOBAL_PROXY"),
		MaxDurationSeconds: getEnvInt("MAX_DURATION", 7200),
		DefaultQuery:       getEnvString("DEFAULT_QUERY", "lofi hip hop radio"),
		DefaultCols:        getEnvInt("DEFAULT_COLS", 3),
		DefaultRows:        getEnvInt("DEFAULT_ROWS", 4),
		LogLevel:           getEnvString("LOG_LEVEL", "info"),
		LogJSON:            getEnvBool("LOG_JSON", false),
	}
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Try parsing as seconds first
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		// Try parsing as duration string
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultVal
}
