package jsonrpc

// file: internal/jsonrpc/parse.go

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcpcore/mcpcore/internal/mcperr"
)

// Item is one decoded request or notification off the wire. Err is
// populated when this specific item fails JSON-RPC-level validation
// (wrong version, empty method, null id) — the rest of a batch is
// unaffected, per spec §4.2/§9 batch semantics note.
type Item struct {
	Raw    json.RawMessage
	ID     json.RawMessage // nil => notification.
	Method string
	Params json.RawMessage
	Err    error
}

// IsNotification reports whether this item carries no id.
func (it *Item) IsNotification() bool {
	return len(it.ID) == 0
}

// Parse decodes data as either a single JSON-RPC message or a batch
// (JSON array). isBatch reports whether data was an array, so callers
// can wrap a batch's responses in an array and write a single response
// bare. When every item is a notification, no response bytes are
// written in either case (see BuildBatch).
//
// err is returned only for payload-level failures: invalid JSON, or an
// empty batch array. Per-element validation failures are carried on the
// individual Item instead, so one malformed element in an otherwise
// valid batch does not sink its siblings.
func Parse(data []byte) (items []*Item, isBatch bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, mcperr.Wrap(mcperr.ErrParseError, mcperr.CategoryRPC, mcperr.CodeParseError, "empty message")
	}

	if trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, true, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeParseError, "invalid JSON batch")
		}
		if len(raws) == 0 {
			return nil, true, mcperr.Wrap(mcperr.ErrInvalidRequest, mcperr.CategoryRPC, mcperr.CodeInvalidRequest, "empty batch")
		}
		items = make([]*Item, 0, len(raws))
		for _, raw := range raws {
			items = append(items, parseOne(raw))
		}
		return items, true, nil
	}

	var probe interface{}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, false, mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeParseError, "invalid JSON")
	}

	return []*Item{parseOne(trimmed)}, false, nil
}

// parseOne validates a single JSON value as a JSON-RPC request or
// notification envelope.
func parseOne(raw json.RawMessage) *Item {
	var envelope struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &Item{
			Raw: raw,
			Err: mcperr.Wrap(err, mcperr.CategoryRPC, mcperr.CodeInvalidRequest, "malformed JSON-RPC object"),
		}
	}

	item := &Item{Raw: raw, ID: envelope.ID, Method: envelope.Method, Params: envelope.Params}

	if envelope.JSONRPC != Version {
		item.Err = mcperr.Wrap(
			mcperr.ErrInvalidRequest, mcperr.CategoryRPC, mcperr.CodeInvalidRequest,
			fmt.Sprintf("invalid jsonrpc version %q", envelope.JSONRPC),
		)
		return item
	}

	if len(envelope.ID) > 0 && IsNullID(envelope.ID) {
		item.Err = mcperr.Wrap(
			mcperr.ErrInvalidRequest, mcperr.CategoryRPC, mcperr.CodeInvalidRequest,
			"request id must not be null",
		)
		return item
	}

	if len(envelope.Method) == 0 {
		item.Err = mcperr.Wrap(
			mcperr.ErrInvalidRequest, mcperr.CategoryRPC, mcperr.CodeInvalidRequest,
			"method must be a non-empty string",
		)
		return item
	}

	return item
}
