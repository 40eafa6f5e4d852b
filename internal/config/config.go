package config

import (
	"os"
	"strconv"
)

type Config struct {
	Daemon   DaemonConfig
	Batch    BatchConfig
	Registry RegistryConfig
	Postgres PostgresConfig
	Metrics  MetricsConfig
}

type DaemonConfig struct {
	Host           string
	TLS            bool
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string
	SkipVerify     bool
}

type BatchConfig struct {
	Count      int
	Image      string
	RosterPath string
	Expose     string // comma-separated port requirements, e.g. "80/tcp"
}

type RegistryConfig struct {
	Backend       string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

type PostgresConfig struct {
	Addr     string // empty disables the run journal
	User     string
	Password string
	Database string
}

type MetricsConfig struct {
	Addr string // empty disables the metrics server
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Host:           getEnv("DAEMON_HOST", "172.17.0.1:2376"),
			TLS:            getBoolEnv("DAEMON_TLS", true),
			CACertPath:     getEnv("DAEMON_CA_CERT", "/cert/ca-cert.pem"),
			ClientCertPath: getEnv("DAEMON_CLIENT_CERT", "/cert/client-cert.pem"),
			ClientKeyPath:  getEnv("DAEMON_CLIENT_KEY", "/cert/client-key.pem"),
			SkipVerify:     getBoolEnv("DAEMON_TLS_SKIP_VERIFY", true),
		},
		Batch: BatchConfig{
			Count:      getIntEnv("BATCH_COUNT", 50),
			Image:      getEnv("BATCH_IMAGE", "httpd:latest"),
			RosterPath: getEnv("ROSTER_PATH", "teams.json"),
			Expose:     getEnv("EXPOSE_PORTS", "80/tcp"),
		},
		Registry: RegistryConfig{
			Backend:       getEnv("REGISTRY_BACKEND", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getIntEnv("REDIS_DB", 0),
			RedisKey:      getEnv("REDIS_PORTS_KEY", ""),
		},
		Postgres: PostgresConfig{
			Addr:     getEnv("POSTGRES_ADDR", ""),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "stressdock"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
