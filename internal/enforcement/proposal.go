package enforcement

import "github.com/google/uuid"

// Proposal is the agent loop's structured tool-call intent, as parsed from
// the model's structured tool-use output, before Facade.Enforce has looked
// at it. Grounded on original_source/src/tools/mod.rs's
// ToolInvocation<Proposed> phantom-type state; Go has no phantom-type
// generics over marker structs the way Rust does, so the two states in
// this package's pipeline are two distinct exported types rather than one
// type with a visibility-gated marker field — the same unexported-
// constructor discipline already used for Token, applied to the phase
// transition itself (§9's prescribed substitute for languages without
// native type-state machinery: "encode the discipline as separate types
// in separate visibility scopes"). A Tool's Execute accepts only
// EvaluatedProposal (see internal/tool/contract.go), so handing it a
// freshly constructed Proposal fails to type-check — the bypass §4.D and
// §8 require to be impossible is rejected by the compiler, not caught at
// runtime.
type Proposal struct {
	Tool     string
	Action   string
	Argument string
	Params   any
}

// NewProposal constructs a Proposal from parsed model output. This package
// exposes no way to turn a Proposal into an EvaluatedProposal except by
// passing it to Facade.Enforce.
func NewProposal(tool, action, argument string, params any) Proposal {
	return Proposal{Tool: tool, Action: action, Argument: argument, Params: params}
}

// EvaluatedProposal is a Proposal that has passed through Facade.Enforce.
// Its Tool/Action/Argument/Params fields are exported for ordinary field
// access by Tool implementations, but the type also carries an unexported
// nonce binding it to the one evaluation instance that produced it, and
// its only constructor, evaluated, is unexported — callable only from
// Facade.Enforce. The zero EvaluatedProposal (the one value reachable from
// outside this package, via `var e enforcement.EvaluatedProposal`) has an
// empty nonce, which Token.Verify rejects unconditionally, mirroring the
// zero Token's behavior.
type EvaluatedProposal struct {
	Tool     string
	Action   string
	Argument string
	Params   any

	nonce string
}

// evaluated promotes p to an EvaluatedProposal stamped with a fresh nonce
// binding it to this one evaluation instance — the value mintToken reads
// to scope a Token to exactly this (tool, action, argument) occurrence,
// not merely to the (tool, action) pair, per §3's "scoped to exactly one
// (tool, action, argument) triple." Unexported: the only call site is
// Facade.Enforce.
func (p Proposal) evaluated() EvaluatedProposal {
	return EvaluatedProposal{
		Tool:     p.Tool,
		Action:   p.Action,
		Argument: p.Argument,
		Params:   p.Params,
		nonce:    uuid.NewString(),
	}
}

// IsEvaluated reports whether e carries a nonce stamped by Facade.Enforce.
// internal/tool.RequireEvaluated calls this as the runtime mirror of the
// compile-time guarantee Execute's signature already provides: the only
// way to obtain a non-empty nonce is evaluated(), and the only way to
// reach that is through Facade.Enforce.
func (e EvaluatedProposal) IsEvaluated() bool {
	return e.nonce != ""
}
