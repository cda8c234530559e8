package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "okinoko.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Config drives the CLI node. Governance parameters only matter for init; afterwards they live
// in chain state and change through set-params.
type Config struct {
	DataDir           string `yaml:"dataDir"           split_words:"true"`
	Sender            string `yaml:"sender"`
	Admin             string `yaml:"admin"`
	Debug             bool   `yaml:"debug"`
	Fee               string `yaml:"fee"`
	ProposalDuration  int64  `yaml:"proposalDuration"  split_words:"true"`
	Quorum            string `yaml:"quorum"`
	ApprovalThreshold string `yaml:"approvalThreshold" split_words:"true"`
	MaxSubmitDelay    int64  `yaml:"maxSubmitDelay"    split_words:"true"`
	Archive           bool   `yaml:"archive"`
}

func defaultConfig() *Config {
	return &Config{
		DataDir:           ".okinoko",
		Sender:            "admin",
		Admin:             "admin",
		Fee:               "10000",
		ProposalDuration:  3,
		Quorum:            "10000",
		ApprovalThreshold: "0.5",
		MaxSubmitDelay:    7,
		Archive:           true,
	}
}

// LoadConfig reads the YAML file (explicit path, then ~/.okinoko/gov.yaml, then
// /etc/okinoko/gov.yaml) over the defaults and applies OKINOKO_* environment variables last.
func LoadConfig(configFile string) (*Config, error) {
	cfg := defaultConfig()
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".okinoko", "gov.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/okinoko/gov.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("okinoko", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return cfg, nil
}
