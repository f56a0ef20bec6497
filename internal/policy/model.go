// Package policy holds the frozen, operator-authored capability policy: the
// mapping from (tool, action) pairs to a tier and the patterns that match it.
package policy

import (
	"fmt"

	"github.com/kenn-williamson/cherub/internal/policy/pattern"
	"github.com/kenn-williamson/cherub/pkg/types"
)

// ActionRule is one (tool, action) entry: its tier and the compiled patterns
// that must match an argument for the rule to apply.
type ActionRule struct {
	Tool     string
	Action   string
	Tier     types.Tier
	patterns *pattern.Set
}

// Match reports whether arg matches any of the rule's patterns.
func (r ActionRule) Match(arg string) bool {
	return r.patterns.MatchAny(arg)
}

// ToolEntry is one tool's enablement flag and its action rules.
type ToolEntry struct {
	Enabled bool
	actions map[string]ActionRule
}

// Action looks up an action rule by exact name.
func (t ToolEntry) Action(name string) (ActionRule, bool) {
	r, ok := t.actions[name]
	return r, ok
}

// Policy is a frozen mapping from tool name to ToolEntry. Once constructed
// by LoadFile/Parse, no exported method mutates it — hot-reload is "build a new
// Policy, swap the shared pointer" (internal/policy.Manager), never an
// in-place edit. The zero Policy (Empty()) denies every proposal.
type Policy struct {
	tools map[string]ToolEntry
}

// Empty returns the default-deny policy used when no policy is configured.
func Empty() *Policy {
	return &Policy{tools: map[string]ToolEntry{}}
}

// Tool looks up a tool entry by exact name.
func (p *Policy) Tool(name string) (ToolEntry, bool) {
	t, ok := p.tools[name]
	return t, ok
}

// ToolCount reports how many tools the policy names, for operator
// diagnostics only (never surfaced to the agent).
func (p *Policy) ToolCount() int {
	return len(p.tools)
}

// build assembles a Policy from raw tool configs, enforcing §3's invariants:
// no duplicate (tool, action) pairs (impossible by construction here, since
// actions are keyed by name within one tool's map), every rule has at least
// one pattern, and every tier string resolves to a known Tier.
func build(raw map[string]rawTool) (*Policy, error) {
	tools := make(map[string]ToolEntry, len(raw))
	for toolName, rt := range raw {
		actions := make(map[string]ActionRule, len(rt.Actions))
		for actionName, ra := range rt.Actions {
			if len(ra.Patterns) == 0 {
				return nil, fmt.Errorf("tool %q, action %q: patterns must not be empty", toolName, actionName)
			}
			tier, err := types.ParseTier(ra.Tier)
			if err != nil {
				return nil, fmt.Errorf("tool %q, action %q: %w", toolName, actionName, err)
			}
			set, err := pattern.NewSet(ra.Patterns)
			if err != nil {
				return nil, fmt.Errorf("tool %q, action %q: %w", toolName, actionName, err)
			}
			actions[actionName] = ActionRule{
				Tool:     toolName,
				Action:   actionName,
				Tier:     tier,
				patterns: set,
			}
		}
		tools[toolName] = ToolEntry{Enabled: rt.Enabled, actions: actions}
	}
	return &Policy{tools: tools}, nil
}
