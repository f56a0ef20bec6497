// Package main is never built as part of this module — see the build tag
// below. It exists to demonstrate, as source a reviewer can read and a CI
// step can attempt to build, that the bypass §4.D and §8 forbid ("a tool's
// execute cannot be invoked with a Proposed proposal") no longer
// type-checks: internal/tool.Tool.Execute accepts only
// enforcement.EvaluatedProposal, and the only constructor for that type is
// unexported to internal/enforcement, so a freshly built enforcement.Proposal
// cannot be passed here. Run `go build ./test/compilefail` (after removing
// the ignore tag, or with -tags ignore inverted to force inclusion) and
// confirm it fails with something like:
//
//	cannot use p (variable of type enforcement.Proposal) as enforcement.EvaluatedProposal value in argument to bashTool.Execute
//
// If this file is ever made to compile, the type-state guarantee the
// enforcement package exists to provide has regressed.
//
//go:build ignore

package main

import (
	"context"

	"github.com/kenn-williamson/cherub/internal/enforcement"
	"github.com/kenn-williamson/cherub/internal/tool/bash"
)

func main() {
	bashTool := bash.New(0, 0)
	p := enforcement.NewProposal("bash", "read", "ls", nil)

	// This line must not compile: Execute requires enforcement.EvaluatedProposal,
	// and p is an enforcement.Proposal with no path to the other type outside
	// internal/enforcement.
	_, _ = bashTool.Execute(context.Background(), p, enforcement.Token{})
}
