package policy

import (
	"path/filepath"
	"strings"
	"testing"

	"os"

	"github.com/kenn-williamson/cherub/pkg/types"
)

const defaultPolicyTOML = `
[tools.bash]
enabled = true

[tools.bash.actions.read]
tier = "observe"
patterns = ["^ls ", "^cat "]

[tools.bash.actions.write]
tier = "act"
patterns = ["^mkdir ", "^touch "]

[tools.bash.actions.destructive]
tier = "commit"
patterns = ["^rm "]
`

func TestParseDefaultPolicy(t *testing.T) {
	p, err := Parse([]byte(defaultPolicyTOML), 0)
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	tool, ok := p.Tool("bash")
	if !ok {
		t.Fatal("expected bash tool to be present")
	}
	if !tool.Enabled {
		t.Fatal("expected bash tool to be enabled")
	}

	read, ok := tool.Action("read")
	if !ok {
		t.Fatal("expected read action to be present")
	}
	if read.Tier != types.Observe {
		t.Fatalf("expected observe tier, got %v", read.Tier)
	}
	if !read.Match("ls /tmp") {
		t.Fatal("expected read rule to match 'ls /tmp'")
	}

	destructive, ok := tool.Action("destructive")
	if !ok {
		t.Fatal("expected destructive action to be present")
	}
	if destructive.Tier != types.Commit {
		t.Fatalf("expected commit tier, got %v", destructive.Tier)
	}
}

func TestParseEmptyToolsIsValid(t *testing.T) {
	p, err := Parse([]byte("[tools]\n"), 0)
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if _, ok := p.Tool("bash"); ok {
		t.Fatal("expected bash tool to be absent")
	}
}

func TestParseDisabledTool(t *testing.T) {
	p, err := Parse([]byte("[tools.bash]\nenabled = false\n"), 0)
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	tool, ok := p.Tool("bash")
	if !ok {
		t.Fatal("expected bash tool to be present")
	}
	if tool.Enabled {
		t.Fatal("expected bash tool to be disabled")
	}
}

func TestParseInvalidTier(t *testing.T) {
	toml := `
[tools.bash]
enabled = true

[tools.bash.actions.read]
tier = "superadmin"
patterns = ["^ls "]
`
	if _, err := Parse([]byte(toml), 0); err == nil {
		t.Fatal("expected error for invalid tier")
	}
}

func TestParseEmptyPatternsRejected(t *testing.T) {
	toml := `
[tools.bash]
enabled = true

[tools.bash.actions.read]
tier = "observe"
patterns = []
`
	if _, err := Parse([]byte(toml), 0); err == nil {
		t.Fatal("expected error for empty patterns")
	}
}

func TestParseUnknownFieldRejected(t *testing.T) {
	toml := `
[tools.bash]
enabled = true
unknown_field = "surprise"
`
	_, err := Parse([]byte(toml), 0)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseInvalidRegexRejected(t *testing.T) {
	toml := `
[tools.bash]
enabled = true

[tools.bash.actions.read]
tier = "observe"
patterns = ["[invalid"]
`
	if _, err := Parse([]byte(toml), 0); err == nil {
		t.Fatal("expected error for invalid regex pattern")
	}
}

func TestLoadFileSizeCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	if err := os.WriteFile(path, []byte(defaultPolicyTOML), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadFile(path, int64(len(defaultPolicyTOML))-1); err == nil {
		t.Fatal("expected error when file exceeds size cap")
	}

	p, err := LoadFile(path, 0)
	if err != nil {
		t.Fatalf("LoadFile: unexpected error: %v", err)
	}
	if _, ok := p.Tool("bash"); !ok {
		t.Fatal("expected bash tool to load")
	}
}

func TestParseBufferSizeCap(t *testing.T) {
	if _, err := Parse([]byte(defaultPolicyTOML), int64(len(defaultPolicyTOML))-1); err == nil {
		t.Fatal("expected error when buffer exceeds size cap")
	}
	if _, err := Parse([]byte(defaultPolicyTOML), 0); err != nil {
		t.Fatalf("Parse: unexpected error under default cap: %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/nonexistent/policy.toml", 0)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "cannot stat") {
		t.Fatalf("unexpected error: %v", err)
	}
}
