package enforcement

// Kind is the enforcement verdict: Allow, Reject, or Escalate (§3 "Decision").
type Kind int

const (
	Reject Kind = iota
	Allow
	Escalate
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Reject:
		return "reject"
	case Escalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// RejectionMessage is the fixed, non-leaking string returned to the agent
// for every Reject verdict and every Denied/TimedOut approval resolution
// (§4.G, §6 "Agent-visible rejection payload"). There is exactly one of
// these in the whole codebase; nothing else constructs agent-facing
// rejection text.
const RejectionMessage = "action not permitted"

// Decision is the result of evaluating one Proposal. Facade.Enforce blocks
// on the approval gate itself, so by the time a Decision reaches a caller
// Kind is always Allow or Reject — Escalate exists as a Kind value for
// internal reasoning about the evaluator's raw verdict, never as something
// this struct carries context for.
type Decision struct {
	Kind  Kind
	token Token
}

// Token returns the minted capability token for an Allow decision. Calling
// this on a non-Allow decision returns the zero Token, which Verify always
// rejects.
func (d Decision) Token() Token {
	return d.token
}

func allowDecision(token Token) Decision {
	return Decision{Kind: Allow, token: token}
}

func rejectDecision() Decision {
	return Decision{Kind: Reject}
}
