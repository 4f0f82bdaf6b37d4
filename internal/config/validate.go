package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	switch cfg.Store.Backend {
	case "file":
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return errors.New("store.path must be set for the file backend")
		}
	case "mysql":
		dsn := cfg.Store.DSN
		if env := strings.TrimSpace(cfg.Store.DSNEnv); env != "" {
			dsn = os.Getenv(env)
		}
		if strings.TrimSpace(dsn) == "" {
			return errors.New("store.dsn (or store.dsn_env) must be set for the mysql backend")
		}
	default:
		return fmt.Errorf("store.backend must be file or mysql, got %q", cfg.Store.Backend)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Audit.Level)) {
	case "metadata", "full":
	default:
		return fmt.Errorf("audit.level must be metadata or full, got %q", cfg.Audit.Level)
	}

	for i, s := range cfg.Audit.Sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("audit sink %d (file_jsonl) missing path", i)
			}
		case "webhook":
			if strings.TrimSpace(s.URL) == "" {
				return fmt.Errorf("audit sink %d (webhook) missing url", i)
			}
			u, err := url.Parse(s.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("audit sink %d (webhook) has invalid url", i)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("audit sink %d (webhook) url must be http or https", i)
			}
		default:
			return fmt.Errorf("audit sink %d has unknown type %q", i, s.Type)
		}
	}

	if cfg.Intake.Enabled {
		if len(cfg.Intake.Brokers) == 0 {
			return errors.New("intake enabled but no brokers configured")
		}
		if strings.TrimSpace(cfg.Intake.Topic) == "" {
			return errors.New("intake enabled but topic is empty")
		}
	}

	if cfg.Telemetry.Enabled {
		if strings.TrimSpace(cfg.Telemetry.Endpoint) == "" {
			return errors.New("telemetry enabled but endpoint is empty")
		}
		switch strings.ToLower(strings.TrimSpace(cfg.Telemetry.Protocol)) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", cfg.Telemetry.Protocol)
		}
	}

	return nil
}
