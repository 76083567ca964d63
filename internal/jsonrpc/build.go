package jsonrpc

// file: internal/jsonrpc/build.go

import (
	"encoding/json"

	"github.com/mcpcore/mcpcore/internal/mcperr"
)

// BuildResult serializes a successful response: {jsonrpc, id, result}.
func BuildResult(id json.RawMessage, result interface{}) ([]byte, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInternalError, "marshaling result")
	}
	resp := Response{JSONRPC: Version, ID: id, Result: resultJSON}
	return json.Marshal(resp)
}

// BuildError serializes an error response: {jsonrpc, id, error}. data may
// be nil. A nil id is legal here only — spec §3 permits null ids on error
// responses when the request id could not be determined.
func BuildError(id json.RawMessage, code int, message string, data interface{}) ([]byte, error) {
	var dataJSON json.RawMessage
	if data != nil {
		marshaled, err := json.Marshal(data)
		if err != nil {
			return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInternalError, "marshaling error data")
		}
		dataJSON = marshaled
	}
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	resp := Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: dataJSON},
	}
	return json.Marshal(resp)
}

// BuildErrorFromErr is BuildError populated from an mcperr-tagged error.
func BuildErrorFromErr(id json.RawMessage, err error) ([]byte, error) {
	payload := mcperr.ToPayload(err)
	return BuildError(id, payload.Code, payload.Message, payload.Data)
}

// BuildNotification serializes an outbound notification: {jsonrpc,
// method, params}. Used for $/progress and notifications/resources/updated.
func BuildNotification(method string, params interface{}) ([]byte, error) {
	var paramsJSON json.RawMessage
	if params != nil {
		marshaled, err := json.Marshal(params)
		if err != nil {
			return nil, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInternalError, "marshaling notification params")
		}
		paramsJSON = marshaled
	}
	notif := Notification{JSONRPC: Version, Method: method, Params: paramsJSON}
	return json.Marshal(notif)
}

// BuildBatch wraps already-serialized response objects into a JSON array.
// Per spec §4.2, an empty slice means every member of the inbound batch
// was a notification — the caller must write nothing at all in that case,
// so BuildBatch returns (nil, nil) rather than "[]".
func BuildBatch(responses [][]byte) ([]byte, error) {
	if len(responses) == 0 {
		return nil, nil
	}
	// Compose the array manually to avoid re-marshaling already-valid JSON.
	out := make([]byte, 0, 2+sumLen(responses)+len(responses)-1)
	out = append(out, '[')
	for i, r := range responses {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, r...)
	}
	out = append(out, ']')
	return out, nil
}

func sumLen(bs [][]byte) int {
	n := 0
	for _, b := range bs {
		n += len(b)
	}
	return n
}
