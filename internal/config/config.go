package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root    string   `yaml:"root"`
		Exclude []string `yaml:"exclude"`
	} `yaml:"project"`
	Migrate struct {
		DryRun  bool `yaml:"dry_run"`
		Workers int  `yaml:"workers"`
	} `yaml:"migrate"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("FLUENTMIG_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if workers := os.Getenv("FLUENTMIG_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Migrate.Workers = n
		}
	}
	if history := os.Getenv("FLUENTMIG_HISTORY"); history != "" {
		cfg.History.Path = history
	}

	return &cfg, nil
}
