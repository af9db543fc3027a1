package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the server looks for its config file unless
// CHESSD_CONFIG points elsewhere.
const DefaultPath = "config/chessd.yaml"

// Server holds all configuration for the chess server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Per-connection behavior
	SendQueueSize int `yaml:"send_queue_size"`
	ReadTimeout   int `yaml:"read_timeout"`  // seconds, 0 disables
	WriteTimeout  int `yaml:"write_timeout"` // seconds

	// Username store: the flat file is the default backend; enabling the
	// database switches registration to PostgreSQL.
	UserFile string         `yaml:"user_file"`
	Database DatabaseConfig `yaml:"database"`
}

// Addr returns the host:port the server listens on.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		BindAddress:   "127.0.0.1",
		Port:          11111,
		SendQueueSize: 100,
		ReadTimeout:   0,
		WriteTimeout:  5,
		UserFile:      "database/usernames.txt",
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "chessd",
			Password: "chessd",
			DBName:   "chessd",
			SSLMode:  "disable",
		},
	}
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Path returns the config file location, honoring CHESSD_CONFIG.
func Path() string {
	if p := os.Getenv("CHESSD_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// LogLevel maps the CHESSD_LOG environment variable to a slog level.
// Unset or unrecognized values mean info.
func LogLevel() slog.Level {
	switch strings.ToLower(os.Getenv("CHESSD_LOG")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
