package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/nsynca/nsynca/internal/sync"
)

// Config carries the workspace credentials and container identifiers
// the engine consumes. It is resolved from the environment; a .env file
// in the working directory is honored when present.
type Config struct {
	NotionToken     string `env:"NOTION_API_KEY"`
	DeploymentsDBID string `env:"DEPLOYMENTS_DB_ID"`
	TasksDBID       string `env:"TASKS_DB_ID"`
	ServicesDBID    string `env:"SERVICES_DB_ID"`

	BaseURL    string `env:"NOTION_BASE_URL" envDefault:"https://api.notion.com"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	HistoryDir string `env:"NSYNCA_HISTORY_DIR" envDefault:"logs"`
}

// Load reads configuration from a .env file (if any) and the process
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // absent .env is fine

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that every identifier the requested updater kinds
// need is present. The services database id is required only when a
// service-family updater is explicitly requested; the "all" set skips
// service updaters when it is absent.
func (c *Config) Validate(kinds []sync.Kind) error {
	if c.NotionToken == "" {
		return fmt.Errorf("NOTION_API_KEY must be set")
	}
	if c.DeploymentsDBID == "" {
		return fmt.Errorf("DEPLOYMENTS_DB_ID must be set")
	}
	if c.TasksDBID == "" {
		return fmt.Errorf("TASKS_DB_ID must be set")
	}
	for _, k := range kinds {
		if (k == sync.KindService || k == sync.KindCharge) && c.ServicesDBID == "" {
			return fmt.Errorf("SERVICES_DB_ID must be set to run the %s updater", k)
		}
	}
	return nil
}

// Databases returns the container identifiers in the form the
// orchestrator consumes.
func (c *Config) Databases() sync.Databases {
	return sync.Databases{
		Deployments: c.DeploymentsDBID,
		Tasks:       c.TasksDBID,
		Services:    c.ServicesDBID,
	}
}
