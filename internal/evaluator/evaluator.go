// Package evaluator implements the pure enforcement algorithm: (Input,
// Policy) -> Verdict. It knows nothing about capability tokens, the approval
// gate, or the agent-facing rejection string — those belong to
// internal/enforcement, which wraps this package's output. Keeping the two
// separate mirrors §2's component table, which lists the Evaluator (E) and
// the Enforcement facade (G) as distinct responsibilities, and lets this
// package stay what §4.E demands: pure, deterministic, total, synchronous.
package evaluator

import (
	"strings"

	"github.com/kenn-williamson/cherub/internal/policy"
	"github.com/kenn-williamson/cherub/pkg/types"
)

// Outcome is the evaluator's raw verdict, before the facade turns it into a
// capability token or an approval gate.
type Outcome int

const (
	Reject Outcome = iota
	Allow
	Escalate
)

// Input is the argument to Evaluate: the (tool, action, argument) triple a
// Proposal carries, stripped of anything evaluator doesn't need to reason
// about (params, phase).
type Input struct {
	Tool     string
	Action   string
	Argument string
}

// Verdict is the evaluator's full answer: the outcome, and — for audit
// purposes only — the (tool, action) of the rule that produced it, or empty
// if no rule matched. RuleID is never surfaced to the agent; the facade
// records it as the DecisionRecord's MatchedRuleID, next to the argument's
// digest.
type Verdict struct {
	Outcome Outcome
	RuleID  string
	Tier    types.Tier
}

// Evaluate implements §4.E's algorithm exactly:
//  1. Exact-match tool lookup; absent or disabled -> Reject.
//  2. Exact-match action lookup within the tool; absent -> Reject.
//  3. Blank/NUL-only argument -> Reject.
//  4. Pattern test against the raw, untrimmed-except-for-one-leading-space
//     argument; no match -> Reject.
//  5. Tier of the matched rule maps to Allow (Observe, Act) or Escalate (Commit).
func Evaluate(p *policy.Policy, in Input) Verdict {
	tool, ok := p.Tool(in.Tool)
	if !ok || !tool.Enabled {
		return Verdict{Outcome: Reject}
	}

	rule, ok := tool.Action(in.Action)
	if !ok {
		return Verdict{Outcome: Reject}
	}

	arg := trimOneLeadingSpace(in.Argument)
	if isBlankOrNUL(arg) {
		return Verdict{Outcome: Reject}
	}

	if !rule.Match(arg) {
		return Verdict{Outcome: Reject}
	}

	ruleID := in.Tool + "/" + in.Action
	switch rule.Tier {
	case types.Observe, types.Act:
		return Verdict{Outcome: Allow, RuleID: ruleID, Tier: rule.Tier}
	case types.Commit:
		return Verdict{Outcome: Escalate, RuleID: ruleID, Tier: rule.Tier}
	default:
		return Verdict{Outcome: Reject}
	}
}

// trimOneLeadingSpace removes at most one leading whitespace byte, per
// §4.E.3's "full command string with one leading whitespace trim" — not an
// arbitrary TrimSpace, which would let an author's "^..." anchor silently
// skip past whatever leading whitespace the model emitted.
func trimOneLeadingSpace(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == ' ' || s[0] == '\t' {
		return s[1:]
	}
	return s
}

func isBlankOrNUL(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	for _, r := range s {
		if r != 0 {
			return false
		}
	}
	return true
}
