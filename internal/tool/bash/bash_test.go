package bash

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kenn-williamson/cherub/internal/approval"
	"github.com/kenn-williamson/cherub/internal/audit"
	"github.com/kenn-williamson/cherub/internal/enforcement"
	"github.com/kenn-williamson/cherub/internal/policy"
)

const allowAllPolicy = `
[tools.bash]
enabled = true

[tools.bash.actions.read]
tier = "observe"
patterns = [".*"]
`

type discardSink struct{}

func (discardSink) Append(context.Context, audit.DecisionRecord) error           { return nil }
func (discardSink) Query(context.Context, audit.QueryFilter) ([]audit.DecisionRecord, error) {
	return nil, nil
}
func (discardSink) Close() error { return nil }

// allow builds a legitimate (evaluated Proposal, Token) pair for argument by
// routing it through a real enforcement.Facade backed by an allow-all
// policy — the only way to obtain either value, since both of their
// constructors are unexported outside internal/enforcement.
func allow(t *testing.T, argument string) (enforcement.EvaluatedProposal, enforcement.Token) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	if err := os.WriteFile(path, []byte(allowAllPolicy), 0o644); err != nil {
		t.Fatal(err)
	}
	pm, err := policy.NewManager(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	f := enforcement.NewFacade(pm, approval.NewCoordinator(time.Second, nil), discardSink{})
	p := enforcement.NewProposal("bash", "read", argument, nil)
	evaluated, decision := f.Enforce(context.Background(), p)
	if decision.Kind != enforcement.Allow {
		t.Fatalf("expected Allow, got %v", decision.Kind)
	}
	return evaluated, decision.Token()
}

func TestBashExecuteSuccess(t *testing.T) {
	p, token := allow(t, "echo hello")

	tl := New(5*time.Second, 0)
	out, err := tl.Execute(context.Background(), p, token)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d (stderr=%q)", out.ExitCode, out.Stderr)
	}
	if out.Stdout != "hello\n" {
		t.Fatalf("expected %q, got %q", "hello\n", out.Stdout)
	}
}

func TestBashExecuteNonZeroExit(t *testing.T) {
	p, token := allow(t, "exit 3")

	tl := New(5*time.Second, 0)
	out, err := tl.Execute(context.Background(), p, token)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", out.ExitCode)
	}
}

func TestBashExecuteTimeout(t *testing.T) {
	p, token := allow(t, "sleep 5")

	tl := New(50*time.Millisecond, 0)
	out, err := tl.Execute(context.Background(), p, token)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.ExitCode != 124 {
		t.Fatalf("expected exit 124 (timeout), got %d", out.ExitCode)
	}
}

// TestBashExecuteRejectsUnevaluatedProposal covers the one EvaluatedProposal
// value reachable from outside internal/enforcement without going through
// Facade.Enforce: the zero value. A freshly built enforcement.Proposal
// can no longer reach Execute at all — tl.Execute(ctx, enforcement.NewProposal(...), tok)
// does not compile, since Execute only accepts EvaluatedProposal.
func TestBashExecuteRejectsUnevaluatedProposal(t *testing.T) {
	var p enforcement.EvaluatedProposal
	tl := New(0, 0)
	if _, err := tl.Execute(context.Background(), p, enforcement.Token{}); err == nil {
		t.Fatal("expected error for unevaluated proposal")
	}
}

func TestBashExecuteRejectsTokenAlreadyConsumed(t *testing.T) {
	p, token := allow(t, "echo hi")
	tl := New(5*time.Second, 0)
	if _, err := tl.Execute(context.Background(), p, token); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if _, err := tl.Execute(context.Background(), p, token); err == nil {
		t.Fatal("expected second Execute with the same token to fail")
	}
}

func TestBashName(t *testing.T) {
	if New(0, 0).Name() != "bash" {
		t.Fatal("expected Name() == bash")
	}
}
