package enforcement

import (
	"fmt"
	"sync/atomic"
)

// Token is the unforgeable proof that Facade.Enforce authorized one specific
// (tool, action, argument) invocation. Its fields are all unexported, and
// mintToken — the only constructor — is unexported too, so the Go compiler's
// ordinary package-visibility rule does the job Rust's "Seal" private marker
// field plus pub(super) constructor does in original_source/src/enforcement/capability.rs:
// a value of this type cannot be constructed, defaulted meaningfully, or
// derived from outside this package. (The zero Token is still reachable via
// var t Token, but its nonce is empty and Verify will reject any Proposal
// against it — forge_test.go checks both properties at test time.)
//
// Go has no move semantics, so Token can still be struct-copied by plain
// assignment; consumed is a pointer specifically so every copy shares the
// same flag, making Consume's single-use guarantee hold across copies even
// though the language itself would happily let you keep one (DESIGN.md
// Open Question 6).
type Token struct {
	tool     string
	action   string
	nonce    string
	consumed *atomic.Bool
}

// mintToken is the sole constructor, callable only from within this package
// — in practice, only from Facade.Enforce's allow path. p is always an
// EvaluatedProposal: the token's nonce is copied from p's unexported
// nonce, binding the token to this one evaluated proposal instance rather
// than to its (tool, action) pair alone, so a token minted for one
// argument can never verify against a different proposal that happens to
// share the same tool and action.
func mintToken(p EvaluatedProposal) Token {
	return Token{
		tool:     p.Tool,
		action:   p.Action,
		nonce:    p.nonce,
		consumed: new(atomic.Bool),
	}
}

// Verify reports whether the token was minted for exactly this evaluated
// proposal instance — its (tool, action) pair and the nonce evaluated()
// stamped onto it — and has not already been consumed. Tool
// implementations MUST call this before acting on the proposal; a mismatch
// is a programmer error per §4.H, not a policy decision, and callers
// should treat a false return as fatal to the invocation.
func (t Token) Verify(p EvaluatedProposal) bool {
	if t.consumed == nil || t.nonce == "" || p.nonce == "" {
		return false
	}
	if t.consumed.Load() {
		return false
	}
	return t.tool == p.Tool && t.action == p.Action && t.nonce == p.nonce
}

// VerifyErr is Verify with a diagnostic in place of a bare bool, for callers
// that need to abort the process on a nonce mismatch (§7 "Internal
// invariant violations") rather than just branch on a boolean.
func (t Token) VerifyErr(p EvaluatedProposal) error {
	if t.Verify(p) {
		return nil
	}
	return nonceMismatchError(p.Tool, p.Action)
}

// Consume marks the token used. It is idempotent in the sense that calling
// it twice is safe, but only the first caller observes ok=true — every
// subsequent Verify (on this token or any copy of it) will fail.
func (t Token) Consume() (ok bool) {
	if t.consumed == nil {
		return false
	}
	return t.consumed.CompareAndSwap(false, true)
}

// nonceMismatchError formats the non-agent-visible diagnostic for an
// invariant violation (§7 "Internal invariant violations"). Tools return it
// from Execute as an error; nothing in this repository aborts the process on
// it, and cherub serve writes its text into that proposal's result line.
func nonceMismatchError(tool, action string) error {
	return fmt.Errorf("enforcement: token does not authorize %s/%s", tool, action)
}
