package policy

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultMaxFileSize is the loader's fatal-at-load size cap (§6: "Maximum
// file size: 1 MiB"). The original prototype used 64 KiB
// (original_source/src/enforcement/policy.rs); this repo follows the
// distilled spec's explicit, twice-stated figure — see DESIGN.md Open
// Question 2.
const DefaultMaxFileSize = 1 << 20

// rawTool and rawAction mirror the TOML schema 1:1 for strict decoding; they
// are never exported, matching internal/policy/load.go's split
// between wire format and compiled representation.
type rawPolicyFile struct {
	Tools map[string]rawTool `toml:"tools"`
}

type rawTool struct {
	Enabled bool                 `toml:"enabled"`
	Actions map[string]rawAction `toml:"actions"`
}

type rawAction struct {
	Tier     string   `toml:"tier"`
	Patterns []string `toml:"patterns"`
}

// LoadFile loads and compiles a policy from a file path, enforcing maxSize
// (DefaultMaxFileSize if zero) before reading the file's contents.
func LoadFile(path string, maxSize int64) (*Policy, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("policy: cannot stat %q: %w", path, err)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("policy: %q exceeds %d byte limit", path, maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: cannot read %q: %w", path, err)
	}

	p, err := Parse(data, maxSize)
	if err != nil {
		return nil, fmt.Errorf("policy: %q: %w", path, err)
	}
	return p, nil
}

// Parse compiles a policy from an in-memory TOML buffer, enforcing maxSize
// (DefaultMaxFileSize if <= 0) against the buffer itself — the same cap
// LoadFile enforces via os.Stat before ever reading a file, so a caller
// that hands Parse a buffer directly (§4.C: "the loader accepts a path or
// byte buffer, enforces a file size cap ... before parsing") gets the
// identical guarantee. Unknown keys at any level are a fatal load error
// (DisallowUnknownFields), matching the YAML KnownFields(true) idiom
// translated to TOML's equivalent.
func Parse(data []byte, maxSize int64) (*Policy, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("policy: buffer exceeds %d byte limit", maxSize)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var file rawPolicyFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("malformed policy: %w", err)
	}

	return build(file.Tools)
}
