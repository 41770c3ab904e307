// Package config loads the chatguard YAML configuration.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chatguard/internal/alert"
	"github.com/ppiankov/chatguard/internal/catalog"
	"github.com/ppiankov/chatguard/internal/verdict"
)

// EnvPath names the environment variable that points at the config file.
const EnvPath = "CHATGUARD_CONFIG"

// ServerConfig holds host settings for `chatguard serve`.
type ServerConfig struct {
	GRPCPort      int    `yaml:"grpc_port"`
	HTTPPort      int    `yaml:"http_port"`
	AuditLog      string `yaml:"audit_log"`
	RecordAllowed bool   `yaml:"record_allowed"`
}

// Config is the full file layout.
type Config struct {
	// Catalog extensions are read once at startup.
	Catalog catalog.Config `yaml:"catalog"`
	// Reasons is the only section picked up by hot reload.
	Reasons verdict.Copy `yaml:"reasons"`
	Server  ServerConfig `yaml:"server"`
	// Alerts are webhooks notified on blocked verdicts.
	Alerts []alert.Config `yaml:"alerts"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Reasons: verdict.DefaultCopy(),
		Server: ServerConfig{
			GRPCPort: 50061,
			HTTPPort: 8089,
		},
	}
}

// ResolvePath picks the config file: explicit path, then $CHATGUARD_CONFIG,
// then ~/.chatguard/config.yaml. Returns "" when no home directory exists.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chatguard", "config.yaml")
}

// Load reads the config at path (see ResolvePath).
// Missing file returns defaults. Invalid YAML returns an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads the config and returns the SHA-256 of the raw bytes on
// disk. When no file exists the hash is that of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	path = ResolvePath(path)
	if path == "" {
		return Default(), hashBytes(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), hashBytes(nil), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, "", err
	}
	return cfg, hashBytes(data), nil
}

// Parse decodes YAML over the defaults; only specified fields change.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return nil, fmt.Errorf("server.grpc_port %d out of range", cfg.Server.GRPCPort)
	}
	if cfg.Server.HTTPPort < 0 || cfg.Server.HTTPPort > 65535 {
		return nil, fmt.Errorf("server.http_port %d out of range", cfg.Server.HTTPPort)
	}
	for i, a := range cfg.Alerts {
		if a.URL == "" {
			return nil, fmt.Errorf("alerts[%d]: url is required", i)
		}
	}
	return cfg, nil
}

// BuildCatalog compiles the catalog section.
func (c *Config) BuildCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.New(&c.Catalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return cat, nil
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// DefaultYAML returns a commented config for `chatguard init`.
func DefaultYAML() string {
	return `# chatguard configuration
# Generated by: chatguard init
#
# Evaluation order (cannot be changed):
#   1. Bypass flag -> allow
#   2. Single-message evidence (phone, website, email, social) -> block at 100
#   3. Conversation analysis over the sender's last 5 messages -> block at >= 40
#   4. Reason selected by sender role

# Extra rules compiled once at startup. Changing them requires a restart.
catalog:
  extra_evidence: []
  #  - name: telegram_link
  #    category: social
  #    regex: 't\.me/\w+'
  extra_intent: []
  #  - "hit me up"

# Wording used in block reasons. Reloaded live when this file changes.
reasons:
  plan_name: Pro
  party_label: talent

server:
  grpc_port: 50061
  http_port: 8089
  # Hash-chained verdict log. Message text is never written.
  audit_log: ""
  # Append allowed messages to the sender's history automatically.
  record_allowed: false

# Moderation webhooks for blocked messages. Payloads carry IDs, risk and
# patterns, never message text. Read once at startup.
alerts: []
#  - url: https://hooks.slack.com/services/XXX
#    format: slack          # generic | slack | pagerduty
#    events: [block]        # block, or categories: phone, website, email, social
#    headers:
#      Authorization: "Bearer ..."
`
}
