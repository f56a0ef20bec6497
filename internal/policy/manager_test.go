package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManagerDefaultEmptyWhenNoPath(t *testing.T) {
	m, err := NewManager("", 0)
	if err != nil {
		t.Fatalf("NewManager: unexpected error: %v", err)
	}
	if m.Get().ToolCount() != 0 {
		t.Fatal("expected empty policy with zero tools")
	}
}

func TestManagerReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")

	if err := os.WriteFile(path, []byte("[tools.bash]\nenabled = false\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := NewManager(path, 0)
	if err != nil {
		t.Fatalf("NewManager: unexpected error: %v", err)
	}
	tool, ok := m.Get().Tool("bash")
	if !ok || tool.Enabled {
		t.Fatal("expected bash disabled on initial load")
	}

	if err := os.WriteFile(path, []byte("[tools.bash]\nenabled = true\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload: unexpected error: %v", err)
	}

	tool, ok = m.Get().Tool("bash")
	if !ok || !tool.Enabled {
		t.Fatal("expected bash enabled after reload")
	}
}

func TestManagerReloadFailurePreservesPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")

	if err := os.WriteFile(path, []byte("[tools.bash]\nenabled = true\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := NewManager(path, 0)
	if err != nil {
		t.Fatalf("NewManager: unexpected error: %v", err)
	}

	if err := os.WriteFile(path, []byte("not valid toml [[[ =="), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := m.Reload(); err == nil {
		t.Fatal("expected reload error on malformed policy")
	}

	tool, ok := m.Get().Tool("bash")
	if !ok || !tool.Enabled {
		t.Fatal("expected previous policy to remain active after failed reload")
	}
}
