package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/chs/internal/domain"
)

const redacted = "***REDACTED***"

// ServerConfig is loaded once by chs-server and never mutated afterwards.
type ServerConfig struct {
	ListenPort      string        // ex: ":3030"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout enforced by chi

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	HandshakeKey string // shared secret expected in X-Handshake-Key
	DryRun       bool   // true => log writes instead of touching db and files

	DBPath           string // sqlite database file
	HandlersDir      string // directory receiving chs_* handler files
	PruneStaleFiles  bool   // remove handler files of hosts without rows
	AllowedCIDRS     []string
	TrustProxy       bool
	MaxRequestBodyKB int

	// Redis notifications (optional, disabled when RedisAddr is empty)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisChannel        string
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration
}

// ClientConfig is loaded once by chs-client.
type ClientConfig struct {
	LogLevel  string
	PrettyLog bool

	HandshakeKey string
	ServerURL    string // ex: "http://10.0.0.2:3030"
	DryRun       bool

	Label          string        // container label carrying the subdomain
	PortLabel      string        // container label carrying the port
	HostIP         string        // advertised host IP for every service of this host
	PollInterval   time.Duration // CHS_POLL_INTERVAL_MS
	RequestTimeout time.Duration
	StaticFile     string // optional YAML list of extra services
}

// LoadServer reads the server configuration from the environment.
// It panics when a required variable is missing.
func LoadServer() *ServerConfig {
	cfg := &ServerConfig{
		ListenPort:      listenAddr(getenv("CHS_LISTEN_PORT", "3030")),
		ShutdownTimeout: mustDuration("CHS_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("CHS_REQUEST_TIMEOUT", 10*time.Second),

		LogLevel:  getenv("CHS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CHS_PRETTY_LOG", true),

		HandshakeKey: requireEnv("CHS_HANDSHAKE_KEY"),
		DryRun:       mustBool("CHS_DRY_RUN", false),

		DBPath:           getenv("CHS_DB_PATH", "/data/chs.db"),
		HandlersDir:      getenv("CHS_HANDLERS_DIR", "/data/handlers"),
		PruneStaleFiles:  mustBool("CHS_PRUNE_STALE_FILES", false),
		AllowedCIDRS:     parseAllowedIPs(getenv("CHS_ALLOWED_CIDRS", "")),
		TrustProxy:       mustBool("CHS_TRUST_PROXY", false),
		MaxRequestBodyKB: getenvInt("CHS_MAX_BODY_KB", 1024),

		RedisAddr:           getenv("CHS_REDIS_ADDR", ""),
		RedisUser:           getenv("CHS_REDIS_USERNAME", ""),
		RedisPassword:       getenv("CHS_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("CHS_REDIS_DB", 0),
		RedisChannel:        getenv("CHS_REDIS_CHANNEL", "chs:handlers:updated"),
		RedisConnectTimeout: mustDuration("CHS_REDIS_CONNECT_TIMEOUT", 15*time.Second),
		RedisRetryInterval:  mustDuration("CHS_REDIS_RETRY_INTERVAL", time.Second),
		RedisMaxWait:        mustDuration("CHS_REDIS_MAX_WAIT", 5*time.Second),
		RedisPingTimeout:    mustDuration("CHS_REDIS_PING_TIMEOUT", 2*time.Second),
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.HandshakeKey = redacted
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = redacted
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// LoadClient reads the discovery client configuration from the environment.
// It panics when a required variable is missing or the poll interval is not positive.
func LoadClient() *ClientConfig {
	label := getenv("CHS_LABEL", "app.subdomain")

	cfg := &ClientConfig{
		LogLevel:  getenv("CHS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CHS_PRETTY_LOG", true),

		HandshakeKey: requireEnv("CHS_HANDSHAKE_KEY"),
		ServerURL:    strings.TrimRight(requireEnv("CHS_SERVER_URL"), "/"),
		DryRun:       mustBool("CHS_DRY_RUN", false),

		Label:          label,
		PortLabel:      getenv("CHS_PORT_LABEL", label+".port"),
		HostIP:         getenv("CHS_HOST_IP", "127.0.0.1"),
		PollInterval:   mustMillis("CHS_POLL_INTERVAL_MS", 60000),
		RequestTimeout: mustDuration("CHS_REQUEST_TIMEOUT", 10*time.Second),
		StaticFile:     getenv("CHS_STATIC_SERVICES_FILE", ""),
	}

	if cfg.PollInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: CHS_POLL_INTERVAL_MS must be > 0, got %v", cfg.PollInterval))
	}
	if err := domain.ValidateHostIP(cfg.HostIP); err != nil {
		panic(fmt.Sprintf("❌ FATAL: invalid CHS_HOST_IP %q: %v", cfg.HostIP, err))
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.HandshakeKey = redacted
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
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

// mustMillis reads an integer number of milliseconds.
func mustMillis(key string, defMillis int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(defMillis) * time.Millisecond
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return time.Duration(ms) * time.Millisecond
}

// listenAddr accepts "3030", ":3030" or "host:3030".
func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
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
