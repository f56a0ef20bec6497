// Package provider defines Cherub's extension point for LLM inference
// backends — the agent loop's other side, proposing the tool calls
// internal/enforcement evaluates. Grounded on
// original_source/src/providers/mod.rs's Provider trait, one of only two
// dyn-Trait boundaries in the original prototype (with Tool). Synchronous
// here for the same reason the original is synchronous in its milestone 0:
// this is a seam to wire a real backend into later, not a live integration.
package provider

import "context"

// Role distinguishes a Message's speaker.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Message is one turn exchanged between the runtime and a Provider.
type Message struct {
	Role    Role
	Content string
}

// Provider is the extension point for LLM inference backends.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (Message, error)
}
