// Package config holds service configuration, defaults first with
// environment overrides.
package config

import (
	"os"
	"strconv"
)

type ServerConfig struct {
	HTTPPort  int
	ReportDir string
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

type ComputeConfig struct {
	// Workers bounds the per-store worker pool; 0 means one per CPU.
	Workers int
	// DefaultTimezone applies to stores with no timezone record.
	DefaultTimezone string
}

type Config struct {
	Environment string
	Server      ServerConfig
	ClickHouse  ClickHouseConfig
	Compute     ComputeConfig
}

func Load() (*Config, error) {
	return &Config{
		Environment: getenv("MONITOR_ENV", "dev"),
		Server: ServerConfig{
			HTTPPort:  getint("MONITOR_HTTP_PORT", 8080),
			ReportDir: getenv("MONITOR_REPORT_DIR", "reports"),
		},
		ClickHouse: ClickHouseConfig{
			Addr:     getenv("MONITOR_CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getenv("MONITOR_CLICKHOUSE_DB", "monitor"),
			Username: getenv("MONITOR_CLICKHOUSE_USER", "monitor"),
			Password: getenv("MONITOR_CLICKHOUSE_PASSWORD", ""),
		},
		Compute: ComputeConfig{
			Workers:         getint("MONITOR_WORKERS", 0),
			DefaultTimezone: getenv("MONITOR_DEFAULT_TZ", "America/Chicago"),
		},
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
