package provider

import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by every AnthropicProvider.Complete call.
// Grounded on original_source/src/providers/anthropic.rs's stub, which
// returns the same "not implemented" error for the same reason: Milestone 0
// (and this repo's scope) establishes the seam without wiring a real API
// client behind it.
var ErrNotImplemented = errors.New("provider: not implemented")

// AnthropicProvider is an unimplemented Provider identity, carried forward
// from the original prototype's stub so cmd/cherub has a concrete Provider
// to name in its wiring even before a real backend exists.
type AnthropicProvider struct{}

// Name returns "anthropic".
func (AnthropicProvider) Name() string { return "anthropic" }

// Complete always returns ErrNotImplemented.
func (AnthropicProvider) Complete(ctx context.Context, messages []Message) (Message, error) {
	return Message{}, ErrNotImplemented
}
