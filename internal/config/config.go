package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL    string `yaml:"server_url"`
	SocketPath   string `yaml:"socket_path"`
	HistoryPath  string `yaml:"history_path"`
	SnapshotPath string `yaml:"snapshot_path"`

	DashboardPort int    `yaml:"dashboard_port"`
	CameraDevice  string `yaml:"camera_device"`
	FrameWidth    int    `yaml:"frame_width"`
	FrameHeight   int    `yaml:"frame_height"`

	CacheDatabase  string `yaml:"cache_database"`
	CacheNamespace string `yaml:"cache_namespace"` // Jedna przestrzeń na sesję przeglądarki

	SnapshotDirectory     string `yaml:"snapshot_directory"`
	SnapshotBufferLimit   int    `yaml:"snapshot_buffer_limit"`
	SnapshotFlushInterval int    `yaml:"snapshot_flush_interval"` // sekundy

	LogDirectory string `yaml:"log_directory"`
	LogLevel     string `yaml:"log_level"`

	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// Default returns the built-in configuration used before any overrides.
func Default() *Config {
	return &Config{
		ServerURL:             "http://localhost:5000",
		SocketPath:            "/socket",
		HistoryPath:           "/api/notifications",
		SnapshotPath:          "/cheating_snapshot",
		DashboardPort:         8080,
		CameraDevice:          "0",
		FrameWidth:            640,
		FrameHeight:           480,
		CacheDatabase:         filepath.Join(".", "data", "proctor.db"),
		CacheNamespace:        "default",
		SnapshotDirectory:     filepath.Join(".", "snapshots"),
		SnapshotBufferLimit:   10,
		SnapshotFlushInterval: 30,
		LogDirectory:          filepath.Join(".", "logs"),
		LogLevel:              "info",
		ReconnectDelay:        500 * time.Millisecond,
		MaxReconnectDelay:     10 * time.Second,
		RequestTimeout:        10 * time.Second,
	}
}

// Load reads the optional .env file, the optional YAML file named by
// CONFIG_FILE and finally the environment, later sources winning.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerURL = getEnv("SERVER_URL", cfg.ServerURL)
	cfg.SocketPath = getEnv("SOCKET_PATH", cfg.SocketPath)
	cfg.HistoryPath = getEnv("HISTORY_PATH", cfg.HistoryPath)
	cfg.SnapshotPath = getEnv("SNAPSHOT_PATH", cfg.SnapshotPath)
	cfg.DashboardPort = getEnvAsInt("PORT", cfg.DashboardPort)
	cfg.CameraDevice = getEnv("CAMERA_DEVICE", cfg.CameraDevice)
	cfg.FrameWidth = getEnvAsInt("FRAME_WIDTH", cfg.FrameWidth)
	cfg.FrameHeight = getEnvAsInt("FRAME_HEIGHT", cfg.FrameHeight)
	cfg.CacheDatabase = getEnv("CACHE_DB", cfg.CacheDatabase)
	cfg.CacheNamespace = getEnv("CACHE_NAMESPACE", cfg.CacheNamespace)
	cfg.SnapshotDirectory = getEnv("SNAPSHOT_DIR", cfg.SnapshotDirectory)
	cfg.SnapshotBufferLimit = getEnvAsInt("BUFFER_LIMIT", cfg.SnapshotBufferLimit)
	cfg.SnapshotFlushInterval = getEnvAsInt("FLUSH_INTERVAL", cfg.SnapshotFlushInterval)
	cfg.LogDirectory = getEnv("LOG_DIR", cfg.LogDirectory)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ReconnectDelay = getEnvAsDuration("RECONNECT_DELAY", cfg.ReconnectDelay)
	cfg.MaxReconnectDelay = getEnvAsDuration("MAX_RECONNECT_DELAY", cfg.MaxReconnectDelay)
	cfg.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SocketURL returns the websocket endpoint derived from ServerURL.
func (c *Config) SocketURL() string {
	base := c.ServerURL
	switch {
	case len(base) >= 8 && base[:8] == "https://":
		base = "wss://" + base[8:]
	case len(base) >= 7 && base[:7] == "http://":
		base = "ws://" + base[7:]
	}
	return base + c.SocketPath
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
