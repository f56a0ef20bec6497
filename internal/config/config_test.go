package config

import "testing"

const minimalConfig = `
policy:
  path: /etc/cherub/policy.toml
`

func TestLoadFromBytesAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if cfg.Policy.Path != "/etc/cherub/policy.toml" {
		t.Fatalf("expected policy path to be preserved, got %q", cfg.Policy.Path)
	}
	if cfg.Policy.MaxSizeByte != 1<<20 {
		t.Fatalf("expected default max size 1MiB, got %d", cfg.Policy.MaxSizeByte)
	}
	if cfg.Approvals.Timeout != "60s" {
		t.Fatalf("expected default approval timeout 60s, got %q", cfg.Approvals.Timeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("expected default logging info/text, got %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Audit.Rotation.MaxBackups != 3 {
		t.Fatalf("expected default max backups 3, got %d", cfg.Audit.Rotation.MaxBackups)
	}
}

func TestLoadFromBytesRejectsInvalidLoggingFormat(t *testing.T) {
	cfg := `
logging:
  format: xml
`
	if _, err := LoadFromBytes([]byte(cfg)); err == nil {
		t.Fatal("expected error for invalid logging.format")
	}
}

func TestLoadFromBytesRejectsInvalidIntegrityAlgorithm(t *testing.T) {
	cfg := `
audit:
  integrity:
    enabled: true
    algorithm: md5
`
	if _, err := LoadFromBytes([]byte(cfg)); err == nil {
		t.Fatal("expected error for invalid audit.integrity.algorithm")
	}
}

func TestLoadFromBytesPreservesExplicitValues(t *testing.T) {
	cfg := `
policy:
  path: /opt/policy.toml
  max_size_bytes: 2048
approvals:
  timeout: 5m
audit:
  path: /var/log/cherub.jsonl
  integrity:
    enabled: true
    algorithm: hmac-sha512
    key_source: env
    key_env: CHERUB_AUDIT_KEY
tools:
  bash:
    timeout: 10s
`
	c, err := LoadFromBytes([]byte(cfg))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if c.Policy.MaxSizeByte != 2048 {
		t.Fatalf("expected explicit max_size_bytes to survive defaulting, got %d", c.Policy.MaxSizeByte)
	}
	if c.Approvals.Timeout != "5m" {
		t.Fatalf("expected explicit timeout to survive, got %q", c.Approvals.Timeout)
	}
	if c.Audit.Integrity.KeyEnv != "CHERUB_AUDIT_KEY" {
		t.Fatalf("expected key_env to round-trip, got %q", c.Audit.Integrity.KeyEnv)
	}
	if c.Tools.Bash.Timeout != "10s" {
		t.Fatalf("expected explicit bash timeout to survive, got %q", c.Tools.Bash.Timeout)
	}
	if c.Tools.HTTP.Timeout != "15s" {
		t.Fatalf("expected default http timeout, got %q", c.Tools.HTTP.Timeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/cherub.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
