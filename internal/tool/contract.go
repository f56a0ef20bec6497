// Package tool defines the narrow interface every executable tool
// implements, and the nonce-verification discipline §4.H requires of
// every implementation before it touches the outside world.
package tool

import (
	"context"
	"fmt"

	"github.com/kenn-williamson/cherub/internal/enforcement"
)

// Output is a tool invocation's result, always agent-visible regardless of
// exit status — a nonzero ExitCode is data, not a Go error.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Tool is the narrow boundary every concrete tool implements. Grounded on
// original_source/src/tools/mod.rs's Tool trait (name, execute(action,
// params, token)); Params arrives as whatever the original Proposal's
// Params held, carried through evaluated() onto EvaluatedProposal.Params,
// left to each Tool to type-assert.
type Tool interface {
	// Name is the tool identity used in policy lookups (§3 "Tool identity").
	Name() string

	// Execute runs action against params, having first verified token
	// against p via RequireEvaluated. Implementations MUST call
	// RequireEvaluated before doing anything observable — it is the runtime
	// half of the type-state guarantee Execute's signature already encodes
	// at compile time: p's type is enforcement.EvaluatedProposal, which
	// only Facade.Enforce can produce (its constructor is unexported), so
	// passing a freshly built enforcement.Proposal here is a type error,
	// not a runtime one (§4.D "it MUST be impossible to call a tool with a
	// Proposed proposal", §8's build-time assertion).
	Execute(ctx context.Context, p enforcement.EvaluatedProposal, token enforcement.Token) (Output, error)
}

// Registry looks up a Tool by name for the agent loop driving Facade.Enforce.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a Registry from the given tools, keyed by Name().
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Lookup returns the tool registered under name, or false if none is.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// RequireEvaluated is the shared precondition check every Tool.Execute must
// run first: the proposal must carry a nonce stamped by Facade.Enforce
// (guards against the zero EvaluatedProposal, the one value reachable from
// outside internal/enforcement without going through Enforce), and the
// token must authorize exactly this evaluated proposal (its tool, action and
// nonce) and not already be spent. A failure here is an internal invariant
// violation (§7), never a policy decision. The error is returned to the
// caller; the process is not aborted, and cherub serve reports the error
// text in the result line like any other Execute error.
func RequireEvaluated(p enforcement.EvaluatedProposal, token enforcement.Token) error {
	if !p.IsEvaluated() {
		return fmt.Errorf("tool: proposal for %s/%s was not evaluated by the enforcement facade", p.Tool, p.Action)
	}
	if err := token.VerifyErr(p); err != nil {
		return err
	}
	if !token.Consume() {
		return fmt.Errorf("tool: token for %s/%s was already consumed", p.Tool, p.Action)
	}
	return nil
}
