// Package config loads Cherub's runtime configuration — everything except
// the policy file itself, which has its own TOML format and loader
// (internal/policy.LoadFile). Grounded on internal/config/config.go's
// shape: a root Config of nested yaml-tagged structs,
// Load/LoadFromBytes/applyDefaults/applyEnvOverrides/validateConfig, narrowed
// from platform/sandbox/FUSE/eBPF/cgroups/mount-profile
// sections (all out of scope per §1's Non-goals on OS-level
// sandboxing) down to the sections Cherub's own components need.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is Cherub's root runtime configuration.
type Config struct {
	Policy    PolicyConfig    `yaml:"policy"`
	Approvals ApprovalsConfig `yaml:"approvals"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tools     ToolsConfig     `yaml:"tools"`
}

// PolicyConfig locates the policy file and bounds its size.
type PolicyConfig struct {
	Path        string `yaml:"path"`
	MaxSizeByte int64  `yaml:"max_size_bytes"`
}

// ApprovalsConfig configures the escalation gate (§4.F).
type ApprovalsConfig struct {
	Timeout string `yaml:"timeout"` // duration string, e.g. "60s"
}

// AuditConfig configures the decision sink and its integrity chain.
type AuditConfig struct {
	Path      string               `yaml:"path"`
	Rotation  AuditRotationConfig  `yaml:"rotation"`
	Integrity AuditIntegrityConfig `yaml:"integrity"`
}

// AuditRotationConfig bounds the decision log's on-disk size.
type AuditRotationConfig struct {
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
}

// AuditIntegrityConfig selects and configures the HMAC key source for the
// audit integrity chain. Mirrors internal/audit/kms.Config's backend
// selection one-to-one so internal/cli can translate this struct directly
// into a kms.Config without an intermediate mapping layer. Cherub runs as a
// single-host daemon, so the only key sources worth configuring are a local
// file and an environment variable — no fleet of daemons ever needs to
// share a key out of a cloud KMS.
type AuditIntegrityConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Algorithm string `yaml:"algorithm"`  // hmac-sha256 or hmac-sha512
	KeySource string `yaml:"key_source"` // file or env

	KeyFile string `yaml:"key_file"`
	KeyEnv  string `yaml:"key_env"`
}

// LoggingConfig configures the structured logger (§AMBIENT "Logging").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// ToolsConfig configures each concrete tool's resource limits.
type ToolsConfig struct {
	Bash BashToolConfig `yaml:"bash"`
	HTTP HTTPToolConfig `yaml:"http"`
}

type BashToolConfig struct {
	Timeout       string `yaml:"timeout"`
	MaxOutputByte int    `yaml:"max_output_bytes"`
}

type HTTPToolConfig struct {
	Timeout     string `yaml:"timeout"`
	MaxBodyByte int64  `yaml:"max_body_bytes"`
}

// Load reads and parses a Config from path, applying defaults and
// environment overrides.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromBytes parses a Config from data without applying environment
// overrides, for tests that should not be sensitive to the host's
// environment.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Policy.MaxSizeByte <= 0 {
		cfg.Policy.MaxSizeByte = 1 << 20
	}
	if cfg.Approvals.Timeout == "" {
		cfg.Approvals.Timeout = "60s"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "/var/lib/cherub/decisions.jsonl"
	}
	if cfg.Audit.Rotation.MaxSizeMB <= 0 {
		cfg.Audit.Rotation.MaxSizeMB = 100
	}
	if cfg.Audit.Rotation.MaxBackups <= 0 {
		cfg.Audit.Rotation.MaxBackups = 3
	}
	if cfg.Audit.Integrity.Algorithm == "" {
		cfg.Audit.Integrity.Algorithm = "hmac-sha256"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Tools.Bash.Timeout == "" {
		cfg.Tools.Bash.Timeout = "30s"
	}
	if cfg.Tools.Bash.MaxOutputByte <= 0 {
		cfg.Tools.Bash.MaxOutputByte = 1 << 20
	}
	if cfg.Tools.HTTP.Timeout == "" {
		cfg.Tools.HTTP.Timeout = "15s"
	}
	if cfg.Tools.HTTP.MaxBodyByte <= 0 {
		cfg.Tools.HTTP.MaxBodyByte = 1 << 20
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHERUB_POLICY_PATH"); v != "" {
		cfg.Policy.Path = v
	}
	if v := os.Getenv("CHERUB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHERUB_AUDIT_PATH"); v != "" {
		cfg.Audit.Path = v
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q", cfg.Logging.Format)
	}
	if cfg.Audit.Integrity.Enabled {
		switch cfg.Audit.Integrity.Algorithm {
		case "hmac-sha256", "hmac-sha512":
		default:
			return fmt.Errorf("invalid audit.integrity.algorithm %q", cfg.Audit.Integrity.Algorithm)
		}
	}
	return nil
}
