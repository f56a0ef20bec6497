package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEventStampsIDAndTimestamp(t *testing.T) {
	ev := NewEvent("policy_reload_succeeded", map[string]any{"tool_count": 3})
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, "policy_reload_succeeded", ev.Type)
	assert.Equal(t, 3, ev.Fields["tool_count"])
}

func TestNewEventIDsAreUnique(t *testing.T) {
	a := NewEvent("x", nil)
	b := NewEvent("x", nil)
	assert.NotEqual(t, a.ID, b.ID)
}
