package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitErrorMessage(t *testing.T) {
	e := &ExitError{code: 3, message: "boom"}
	assert.Equal(t, "boom", e.Error())
	assert.Equal(t, 3, e.Code())
	assert.Equal(t, "boom", e.Message())
}

func TestExitErrorDefaultsMessage(t *testing.T) {
	e := &ExitError{code: 7}
	assert.Equal(t, "exit 7", e.Error())
}

func TestExitErrorNilReceiverIsSafe(t *testing.T) {
	var e *ExitError
	assert.Equal(t, "", e.Error())
	assert.Equal(t, 1, e.Code())
	assert.Equal(t, "", e.Message())
}

func TestExitErrorf(t *testing.T) {
	e := exitErrorf(2, "bad %s", "input")
	assert.Equal(t, 2, e.Code())
	assert.Equal(t, "bad input", e.Error())
}
