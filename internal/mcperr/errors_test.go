package mcperr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsCarryCodeAndCategory(t *testing.T) {
	assert.Equal(t, CodeMethodNotFound, Code(ErrMethodNotFound))
	assert.Equal(t, CategoryRPC, CategoryOf(ErrMethodNotFound))
	assert.Equal(t, CodeNotInitialized, Code(ErrNotInitialized))
}

func TestWrapPreservesCodeFromCause(t *testing.T) {
	wrapped := Wrap(ErrResourceNotFound, CategoryResource, CodeNotInitialized, "reading file:///x")
	require.True(t, errors.Is(wrapped, ErrResourceNotFound))
	assert.Equal(t, CodeNotInitialized, Code(wrapped))
	assert.Contains(t, wrapped.Error(), "reading file:///x")
}

func TestToPayloadFiltersInternalProperties(t *testing.T) {
	err := WithData(
		Wrap(ErrInvalidParams, CategoryTool, CodeInvalidParams, "tool 'echo' call failed"),
		map[string]interface{}{"tool_name": "echo"},
	)

	payload := ToPayload(err)
	assert.Equal(t, CodeInvalidParams, payload.Code)
	assert.Equal(t, "echo", payload.Data["tool_name"])
	_, hasCategory := payload.Data[propCategory]
	assert.False(t, hasCategory)
}

func TestToPayloadNilError(t *testing.T) {
	payload := ToPayload(nil)
	assert.Equal(t, CodeInternalError, payload.Code)
}
