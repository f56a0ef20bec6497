// Package httptool implements the http tool identity named alongside bash
// in §3 ("Tool identity... (bash, http, …)"). It has no existing reference
// implementation to adapt — original_source stubs only the bash tool — so
// its shape is supplemented: a second concrete Tool exercising net/http,
// following the same Execute(ctx, EvaluatedProposal, Token) contract bash.Tool does.
package httptool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kenn-williamson/cherub/internal/enforcement"
	"github.com/kenn-williamson/cherub/internal/tool"
)

// DefaultTimeout bounds a single request's round trip.
const DefaultTimeout = 15 * time.Second

// DefaultMaxBodyBytes caps how much of a response body is read before it is
// truncated, mirroring bash.Tool's output cap for the same reason: an
// agent-reachable tool must never let an unbounded remote response grow an
// in-memory buffer without limit.
const DefaultMaxBodyBytes = 1 << 20

// Tool issues a single GET request per invocation. p.Argument is the
// target URL; p.Action ("get" in the default policy) exists purely as the
// tier-bearing policy hook Facade.Enforce matched against, not as a method
// selector — a write/destructive HTTP verb would be a distinct action name
// in the policy, same as bash's read/write/destructive split.
type Tool struct {
	client      *http.Client
	maxBodySize int64
}

// New constructs an http Tool. A non-positive timeout falls back to
// DefaultTimeout; a non-positive maxBodySize falls back to
// DefaultMaxBodyBytes.
func New(timeout time.Duration, maxBodySize int64) *Tool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodyBytes
	}
	return &Tool{client: &http.Client{Timeout: timeout}, maxBodySize: maxBodySize}
}

// Name returns "http", the tool identity used in policy lookups.
func (t *Tool) Name() string { return "http" }

// Execute issues a GET request to p.Argument and returns the response body
// (truncated at maxBodySize) as Stdout, with the HTTP status code standing
// in for Output.ExitCode (200 -> 0 is NOT assumed; the raw status is
// reported so callers can distinguish 404 from 500 from a transport error).
func (t *Tool) Execute(ctx context.Context, p enforcement.EvaluatedProposal, token enforcement.Token) (tool.Output, error) {
	if err := tool.RequireEvaluated(p, token); err != nil {
		return tool.Output{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Argument, nil)
	if err != nil {
		return tool.Output{Stderr: fmt.Sprintf("http: invalid URL: %v", err), ExitCode: 1}, nil
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return tool.Output{Stderr: fmt.Sprintf("http: request failed: %v", err), ExitCode: 1}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize))
	if err != nil {
		return tool.Output{Stderr: fmt.Sprintf("http: reading response: %v", err), ExitCode: 1}, nil
	}

	return tool.Output{Stdout: string(body), ExitCode: resp.StatusCode}, nil
}
