package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the routing service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Audit     AuditConfig     `yaml:"audit"`
	Intake    IntakeConfig    `yaml:"intake"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr    string   `yaml:"addr"`     // HTTP listen address, e.g. ":8080"
	APIKeys []string `yaml:"api_keys"` // optional bearer keys; empty disables auth
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // file | mysql
	Path    string `yaml:"path"`    // file backend: JSON document path
	DSN     string `yaml:"dsn"`     // mysql backend: DSN (dsn_env wins when set)
	DSNEnv  string `yaml:"dsn_env"` // mysql backend: env var holding the DSN
}

type AuditConfig struct {
	Level string       `yaml:"level"` // metadata | full
	Sinks []SinkConfig `yaml:"sinks"`
}

type SinkConfig struct {
	Type string `yaml:"type"` // file_jsonl | webhook
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

type IntakeConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	GroupID     string   `yaml:"group_id"`
	HistorySize int      `yaml:"history_size"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "file"
	}
	if cfg.Store.Backend == "file" && cfg.Store.Path == "" {
		cfg.Store.Path = "muwajjih.store.json"
	}
	if cfg.Audit.Level == "" {
		cfg.Audit.Level = "metadata"
	}
	if cfg.Intake.HistorySize == 0 {
		cfg.Intake.HistorySize = 10000
	}
	if cfg.Intake.GroupID == "" {
		cfg.Intake.GroupID = "muwajjih"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}
