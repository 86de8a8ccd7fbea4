package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the edgesite service.
type Config struct {
	HTTPAddr string

	// EventEdge API, the upstream for the /api/v1/* family. An empty base
	// means every route serves its fallback payload.
	EventEdgeBase  string
	EventEdgeToken string

	// EdgeCore internal HTTP endpoint, the upstream for /api/edgecore/*.
	EdgeCoreInternal string
	// Public EdgeCore base handed to browsers that fetch EdgeCore directly.
	EdgeCorePublic string

	// Self-origin base the live dashboard poller uses to call this
	// process's own API routes.
	SiteURL string

	UpstreamTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SnapshotKeyPrefix string
	SnapshotTTL       time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LiveEnabled bool
}

// envOrDefault returns the value of an env var or a default.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}

	return def, nil
}

func envBoolOrDefault(key string, def bool) (bool, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := strconv.ParseBool(raw)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}

	return def, nil
}

func envCSV(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (Config, error) {
	redisDB, err := envIntOrDefault("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	timeoutMS, err := envIntOrDefault("UPSTREAM_TIMEOUT_MS", 8000)
	if err != nil {
		return Config{}, err
	}
	snapshotTTL, err := envIntOrDefault("SNAPSHOT_TTL_SECONDS", 600)
	if err != nil {
		return Config{}, err
	}
	liveEnabled, err := envBoolOrDefault("LIVE_ENABLED", true)
	if err != nil {
		return Config{}, err
	}

	httpAddr := envOrDefault("HTTP_ADDR", ":8080")

	cfg := Config{
		HTTPAddr: httpAddr,

		EventEdgeBase:  strings.TrimRight(os.Getenv("EVENTEDGE_API_BASE"), "/"),
		EventEdgeToken: os.Getenv("EVENTEDGE_API_TOKEN"),

		EdgeCoreInternal: strings.TrimRight(envOrDefault("EDGECORE_HTTP_INTERNAL", "http://edgecore:8400"), "/"),
		EdgeCorePublic:   strings.TrimRight(os.Getenv("EDGECORE_HTTP_BASE"), "/"),

		SiteURL: strings.TrimRight(envOrDefault("SITE_URL", defaultSiteURL(httpAddr)), "/"),

		UpstreamTimeout: time.Duration(timeoutMS) * time.Millisecond,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		SnapshotKeyPrefix: envOrDefault("SNAPSHOT_KEY_PREFIX", "edgesite:snapshots"),
		SnapshotTTL:       time.Duration(snapshotTTL) * time.Second,

		KafkaBrokers: envCSV("KAFKA_BROKERS"),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC_DASHBOARD_EVENTS", "dashboard_events"),

		LiveEnabled: liveEnabled,
	}

	return cfg, nil
}

// defaultSiteURL derives a loopback self-origin from the listen address so
// the live poller works out of the box.
func defaultSiteURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}
