// Package pattern compiles policy-authored regular expressions for command
// matching, bounding their size and nesting to rule out ReDoS-shaped
// patterns before they ever run against live input.
package pattern

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
)

const (
	// MaxProgramSize bounds the compiled regex program's instruction count.
	MaxProgramSize = 1 << 20

	// MaxNestDepth bounds the regex AST's nesting depth.
	MaxNestDepth = 50
)

// Pattern is a compiled regular expression paired with its source text.
type Pattern struct {
	Raw string
	re  *regexp.Regexp
}

// Compile compiles a policy pattern. It rejects unicode character classes
// (textually, since regexp.Compile offers no public entry point to build a
// *regexp.Regexp from a syntax.Flags-parsed program with unicode disabled),
// enforces the program-size and AST-nesting limits, and forbids backtracking
// features by construction — Go's regexp package is RE2-based and has no
// backreference or lookaround syntax to forbid in the first place.
func Compile(raw string) (*Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("pattern: empty pattern")
	}
	if strings.Contains(raw, `\p{`) || strings.Contains(raw, `\P{`) {
		return nil, fmt.Errorf("pattern %q: unicode classes are disabled for command matching", raw)
	}

	ast, err := syntax.Parse(raw, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", raw, err)
	}

	if depth := nestDepth(ast); depth > MaxNestDepth {
		return nil, fmt.Errorf("pattern %q: nesting depth %d exceeds limit %d", raw, depth, MaxNestDepth)
	}

	prog, err := syntax.Compile(ast.Simplify())
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", raw, err)
	}
	if len(prog.Inst) > MaxProgramSize {
		return nil, fmt.Errorf("pattern %q: program size %d exceeds limit %d", raw, len(prog.Inst), MaxProgramSize)
	}

	re, err := regexp.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", raw, err)
	}

	return &Pattern{Raw: raw, re: re}, nil
}

func nestDepth(re *syntax.Regexp) int {
	if len(re.Sub) == 0 {
		return 1
	}
	max := 0
	for _, sub := range re.Sub {
		if d := nestDepth(sub); d > max {
			max = d
		}
	}
	return max + 1
}

// Match reports whether s matches the pattern. Matching is left-anchored
// only by policy-author convention (authors write "^..."); Compile does not
// re-anchor the expression.
func (p *Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}

func (p *Pattern) String() string {
	return p.Raw
}

// Set is a collection of compiled patterns evaluated together.
type Set struct {
	patterns []*Pattern
}

// NewSet compiles every pattern string in raws. A rule with zero patterns is
// rejected by the caller (internal/policy's Parse/LoadFile), not here — Set accepts an
// empty slice so it can represent an intermediate compilation state.
func NewSet(raws []string) (*Set, error) {
	set := &Set{patterns: make([]*Pattern, 0, len(raws))}
	for _, raw := range raws {
		p, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		set.patterns = append(set.patterns, p)
	}
	return set, nil
}

// MatchAny reports whether any pattern in the set matches s.
func (s *Set) MatchAny(arg string) bool {
	for _, p := range s.patterns {
		if p.Match(arg) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns.
func (s *Set) Len() int {
	return len(s.patterns)
}

// Patterns returns the compiled patterns, for diagnostics that never reach
// the agent (e.g. output on the operator's terminal).
func (s *Set) Patterns() []*Pattern {
	out := make([]*Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}
