// Package config loads optional server defaults from a YAML file. Tool
// behaviour takes no configuration; only transport-level settings live here,
// and command-line flags override anything the file provides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds transport-level defaults.
type ServerConfig struct {
	Transport    string `yaml:"transport,omitempty"`
	Port         string `yaml:"port,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	EndpointPath string `yaml:"endpoint_path,omitempty"`
	AuthToken    string `yaml:"auth_token,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
}

// ConfigPathEnvVar overrides the default config file location.
const ConfigPathEnvVar = "MCP_GIT_OPS_CONFIG"

// Load reads the server config file if it exists. A missing file yields an
// empty config; a malformed file is an error so typos do not silently apply
// defaults.
func Load() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	path := configPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// configPath returns the config file location, honouring the env override.
func configPath() string {
	if customPath := os.Getenv(ConfigPathEnvVar); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".mcp-git-ops", "config.yaml")
}
