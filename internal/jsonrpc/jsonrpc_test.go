package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleRequest(t *testing.T) {
	items, isBatch, err := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	require.NoError(t, err)
	assert.False(t, isBatch)
	require.Len(t, items, 1)
	assert.NoError(t, items[0].Err)
	assert.Equal(t, "tools/list", items[0].Method)
	assert.False(t, items[0].IsNotification())
}

func TestParseNotification(t *testing.T) {
	items, _, err := Parse([]byte(`{"jsonrpc":"2.0","method":"notifications/ping"}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsNotification())
}

func TestParseRejectsNullID(t *testing.T) {
	items, _, err := Parse([]byte(`{"jsonrpc":"2.0","method":"x","id":null}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Error(t, items[0].Err)
}

func TestParseRejectsEmptyMethod(t *testing.T) {
	items, _, err := Parse([]byte(`{"jsonrpc":"2.0","method":"","id":1}`))
	require.NoError(t, err)
	assert.Error(t, items[0].Err)
}

func TestParseRejectsWrongVersion(t *testing.T) {
	items, _, err := Parse([]byte(`{"jsonrpc":"1.0","method":"x","id":1}`))
	require.NoError(t, err)
	assert.Error(t, items[0].Err)
}

func TestParseInvalidJSONPayload(t *testing.T) {
	_, _, err := Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestParseEmptyBatchRejected(t *testing.T) {
	_, isBatch, err := Parse([]byte(`[]`))
	assert.True(t, isBatch)
	assert.Error(t, err)
}

func TestParseBatchPerElementErrors(t *testing.T) {
	items, isBatch, err := Parse([]byte(`[
		{"jsonrpc":"2.0","method":"tools/list","id":1},
		{"jsonrpc":"2.0","method":"prompts/list","id":2},
		{"jsonrpc":"2.0","method":"notifications/ping"},
		{"jsonrpc":"1.0","method":"bad","id":3}
	]`))
	require.NoError(t, err)
	assert.True(t, isBatch)
	require.Len(t, items, 4)
	assert.NoError(t, items[0].Err)
	assert.NoError(t, items[1].Err)
	assert.NoError(t, items[2].Err)
	assert.Error(t, items[3].Err) // only this element is invalid
}

func TestParseBatchWholeMalformedJSON(t *testing.T) {
	_, isBatch, err := Parse([]byte(`[{"jsonrpc":"2.0","method":"x","id":1}, {malformed]`))
	assert.True(t, isBatch)
	assert.Error(t, err)
}

func TestBuildResultRoundTrip(t *testing.T) {
	idRaw := json.RawMessage(`42`)
	data, err := BuildResult(idRaw, map[string]string{"ok": "yes"})
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, Version, resp.JSONRPC)
	assert.JSONEq(t, `42`, string(resp.ID))
	assert.Nil(t, resp.Error)

	var result map[string]string
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, "yes", result["ok"])
}

func TestBuildErrorHasNullIDWhenMissing(t *testing.T) {
	data, err := BuildError(nil, -32700, "parse error", nil)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "null", string(resp.ID))
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32700, resp.Error.Code)
}

func TestBuildBatchOmitsEmptyResponses(t *testing.T) {
	out, err := BuildBatch(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestBuildBatchPreservesOrder(t *testing.T) {
	r1, _ := BuildResult(json.RawMessage(`1`), "a")
	r2, _ := BuildResult(json.RawMessage(`2`), "b")

	out, err := BuildBatch([][]byte{r1, r2})
	require.NoError(t, err)

	var responses []Response
	require.NoError(t, json.Unmarshal(out, &responses))
	require.Len(t, responses, 2)
	assert.JSONEq(t, `1`, string(responses[0].ID))
	assert.JSONEq(t, `2`, string(responses[1].ID))
}

func TestIDPreservedStringVsInteger(t *testing.T) {
	items, _, err := Parse([]byte(`{"jsonrpc":"2.0","method":"x","id":"abc-123"}`))
	require.NoError(t, err)
	assert.Equal(t, `"abc-123"`, string(items[0].ID))

	items, _, err = Parse([]byte(`{"jsonrpc":"2.0","method":"x","id":7}`))
	require.NoError(t, err)
	assert.Equal(t, `7`, string(items[0].ID))
}
