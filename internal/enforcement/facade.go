package enforcement

import (
	"context"
	"time"

	"github.com/kenn-williamson/cherub/internal/approval"
	"github.com/kenn-williamson/cherub/internal/audit"
	"github.com/kenn-williamson/cherub/internal/evaluator"
	"github.com/kenn-williamson/cherub/internal/policy"
)

// Facade is the single entry point the agent loop calls for every proposed
// tool invocation (§4.G). It owns no state of its own beyond references to
// the three collaborators the algorithm needs: the live policy, the
// approval gate, and the decision sink. Grounded on internal/policy/engine.go's
// wrapDecision (shadow-vs-enforced dispatch,
// narrowed here since Cherub has no shadow mode — every verdict is either
// enforced immediately or enforced after an approval gate resolves) and the
// call shape of internal/approvals/manager.go's RequestApproval being
// invoked from that same wrapping caller.
type Facade struct {
	policy   *policy.Manager
	approval *approval.Coordinator
	audit    audit.Sink
}

// NewFacade wires the three collaborators together.
func NewFacade(pm *policy.Manager, ac *approval.Coordinator, sink audit.Sink) *Facade {
	return &Facade{policy: pm, approval: ac, audit: sink}
}

// Enforce implements §4.G step-by-step: evaluate p against the live policy,
// then either reject immediately, mint a capability token immediately, or
// block on the approval gate and mint a token (or not) once it resolves.
// The returned EvaluatedProposal is p promoted by evaluated() — tools may
// only act on this return value, and its type is the only thing Execute
// accepts (internal/tool/contract.go), so a caller cannot hand a Tool the
// Proposal it originally constructed even by mistake: that call does not
// compile. Exactly one DecisionRecord is durably appended to the sink
// before Enforce returns, on whichever path it takes (§8 "Single decision
// record: every facade call emits exactly one DecisionRecord"), and always
// before any CapabilityToken is handed to a tool (§5's ordering guarantee).
// The approval coordinator's Notifier logs the gate's own open/resolve
// lifecycle separately (internal/approval.NewSlogNotifier), but never through
// internal/audit.Sink — that would add a second and third record for the
// one Enforce call that escalated, which §8 forbids.
func (f *Facade) Enforce(ctx context.Context, p Proposal) (EvaluatedProposal, Decision) {
	in := evaluator.Input{Tool: p.Tool, Action: p.Action, Argument: p.Argument}
	verdict := evaluator.Evaluate(f.policy.Get(), in)
	evaluated := p.evaluated()

	switch verdict.Outcome {
	case evaluator.Allow:
		token := mintToken(evaluated)
		f.record(ctx, p, verdict.RuleID, "allow")
		return evaluated, allowDecision(token)

	case evaluator.Escalate:
		res := f.approval.Open(ctx, p.Tool, p.Action, p.Argument)
		if res.Approved {
			token := mintToken(evaluated)
			f.record(ctx, p, verdict.RuleID, "allow")
			return evaluated, allowDecision(token)
		}
		f.record(ctx, p, verdict.RuleID, escalateRejectVerdict(res.State))
		return evaluated, rejectDecision()

	default: // evaluator.Reject
		f.record(ctx, p, verdict.RuleID, "reject")
		return evaluated, rejectDecision()
	}
}

// escalateRejectVerdict maps an unapproved approval.Resolution's State to
// the one DecisionRecord's verdict string, so an operator reading the audit
// log can tell an explicit denial from the gate's own timeout (§8 scenario
// 4: "audit log records verdict=TimedOut"). The agent-facing outcome is
// identical either way (§4.F) — RejectionMessage, not this string, is what
// reaches the agent.
func escalateRejectVerdict(state approval.State) string {
	if state == approval.TimedOut {
		return "timed_out"
	}
	return "denied"
}

func (f *Facade) record(ctx context.Context, p Proposal, ruleID, verdict string) {
	if f.audit == nil {
		return
	}
	_ = f.audit.Append(ctx, audit.DecisionRecord{
		Timestamp:      time.Now().UTC(),
		Tool:           p.Tool,
		Action:         p.Action,
		ArgumentDigest: audit.Digest(p.Argument),
		MatchedRuleID:  ruleID,
		Verdict:        verdict,
	})
}
