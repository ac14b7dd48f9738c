package enginerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(DBError, "query failed", cause)

	assert.True(t, errors.Is(err, cause), "expected errors.Is to find the cause")
	assert.Equal(t, DBError, Kind(err))
}

func TestIs(t *testing.T) {
	err := New(TimeoutError, "slow")
	assert.True(t, Is(err, TimeoutError))
	assert.False(t, Is(err, AgentError))
	assert.False(t, Is(errors.New("plain"), TimeoutError), "expected Is false for non-EngineError")
}

func TestWithDetailChains(t *testing.T) {
	err := Argument("name", "required")
	assert.Equal(t, "name", err.Details["field"])
	assert.Equal(t, "required", err.Details["reason"])
}

func TestKindDefaultsToRuntime(t *testing.T) {
	assert.Equal(t, RuntimeError, Kind(errors.New("plain")))
}
