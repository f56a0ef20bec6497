// Package audit implements Cherub's decision sink (§4.I, §6 "Decision sink
// format"): an append-only, tamper-evident record of every evaluation,
// writable only from the enforcement facade and readable only out-of-band
// by the operator. No sink read path is reachable from agent-facing code.
package audit

import (
	"context"
	"time"
)

// DecisionRecord is one evaluation's audit trail entry (§3, §6). Argument is
// always a digest (Digest), never raw text.
type DecisionRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Tool           string    `json:"tool"`
	Action         string    `json:"action"`
	ArgumentDigest string    `json:"argument_digest"`
	MatchedRuleID  string    `json:"matched_rule_id,omitempty"`
	Verdict        string    `json:"verdict"`
}

// QueryFilter narrows a Query call. Glob patterns match against Tool and
// Verdict; a zero-value field matches everything.
type QueryFilter struct {
	ToolGlob    string
	VerdictGlob string
	Since       time.Time
}

// Sink is the append-only decision sink contract. Implementations MUST NOT
// expose any path from Query back into agent-facing code — the only callers
// in this repo are internal/cli's operator-facing "audit query" subcommand.
type Sink interface {
	Append(ctx context.Context, rec DecisionRecord) error
	Query(ctx context.Context, filter QueryFilter) ([]DecisionRecord, error)
	Close() error
}

