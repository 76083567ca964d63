// Package mcperr defines the error taxonomy shared across the MCP server
// core: sentinel errors tagged with a JSON-RPC error code and a category,
// plus helpers to build the JSON-RPC error payload from any error in the
// chain. Grounded in the teacher's internal/mcp/errors.go pattern of
// wrapping github.com/cockroachdb/errors with errors.WithProperty.
package mcperr

// file: internal/mcperr/errors.go

import (
	"github.com/cockroachdb/errors"
)

// Category groups related error kinds for observability.
type Category string

// Error categories used across the core.
const (
	CategoryRPC       Category = "rpc"
	CategoryFraming   Category = "framing"
	CategoryTool      Category = "tool"
	CategoryResource  Category = "resource"
	CategoryPrompt    Category = "prompt"
	CategoryProgress  Category = "progress"
	CategoryLifecycle Category = "lifecycle"
)

// Standard JSON-RPC 2.0 codes and the server-reserved range, per spec §3/§7.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeNotInitialized covers both "server not initialized" and
	// "resource not found" per spec §7 — the wire code is shared, the
	// category/message distinguish them for callers that inspect the error.
	CodeNotInitialized = -32002

	// CodeProgressTokenInUse is a server-defined code (spec §9 Open Question,
	// resolved in SPEC_FULL.md §8): a requester reused a token still open.
	CodeProgressTokenInUse = -32010
)

const propCategory = "category"
const propCode = "code"

// sentinel builds a base error carrying category/code properties, the
// pattern internal/mcp/errors.go uses for its package-level Err* vars.
func sentinel(msg string, category Category, code int) error {
	return errors.WithProperty(
		errors.WithProperty(errors.New(msg), propCategory, string(category)),
		propCode, code,
	)
}

// Sentinel errors matched with errors.Is by callers and tests.
var (
	ErrParseError       = sentinel("parse error", CategoryRPC, CodeParseError)
	ErrInvalidRequest   = sentinel("invalid request", CategoryRPC, CodeInvalidRequest)
	ErrMethodNotFound   = sentinel("method not found", CategoryRPC, CodeMethodNotFound)
	ErrInvalidParams    = sentinel("invalid params", CategoryRPC, CodeInvalidParams)
	ErrInternal         = sentinel("internal error", CategoryRPC, CodeInternalError)
	ErrNotInitialized   = sentinel("server not initialized", CategoryLifecycle, CodeNotInitialized)
	ErrDuplicateName    = sentinel("duplicate name", CategoryRPC, CodeInvalidParams)
	ErrResourceNotFound = sentinel("resource not found", CategoryResource, CodeNotInitialized)
	ErrSubsDisabled     = sentinel("subscriptions disabled", CategoryResource, CodeInvalidRequest)
	ErrTokenInUse       = sentinel("progress token in use", CategoryProgress, CodeProgressTokenInUse)
	ErrNonMonotonic     = sentinel("progress must be monotonically non-decreasing", CategoryProgress, CodeInvalidParams)
	ErrTrackerClosed    = sentinel("progress tracker closed", CategoryProgress, CodeInvalidRequest)
	ErrMalformedFrame   = sentinel("malformed frame", CategoryFraming, CodeParseError)
	ErrEndOfStream      = sentinel("end of stream", CategoryFraming, CodeInternalError)
)

// Wrap annotates cause with message and, if cause does not already carry
// category/code properties, attaches the given ones. This lets call sites
// add context (errors.Wrapf-style) without losing the taxonomy.
func Wrap(cause error, category Category, code int, message string) error {
	if cause == nil {
		return nil
	}
	wrapped := errors.Wrap(cause, message)
	if _, ok := errors.TryGetProperty(wrapped, propCode); !ok {
		wrapped = errors.WithProperty(wrapped, propCode, code)
	}
	if _, ok := errors.TryGetProperty(wrapped, propCategory); !ok {
		wrapped = errors.WithProperty(wrapped, propCategory, string(category))
	}
	return wrapped
}

// WithData attaches an arbitrary data property surfaced in the JSON-RPC
// error's "data" field (see Payload below).
func WithData(err error, data map[string]interface{}) error {
	if err == nil || data == nil {
		return err
	}
	for k, v := range data {
		err = errors.WithProperty(err, k, v)
	}
	return err
}

// Code extracts the JSON-RPC error code from err, defaulting to
// CodeInternalError when none was attached.
func Code(err error) int {
	if code, ok := errors.TryGetProperty(err, propCode); ok {
		if c, ok := code.(int); ok {
			return c
		}
	}
	return CodeInternalError
}

// CategoryOf extracts the category attached to err, or "" if none.
func CategoryOf(err error) Category {
	if cat, ok := errors.TryGetProperty(err, propCategory); ok {
		if c, ok := cat.(string); ok {
			return Category(c)
		}
	}
	return ""
}

// properties walks the wrapped-error chain collecting every attached
// property, outer errors taking precedence — mirrors
// internal/mcp/errors.go's GetErrorProperties.
func properties(err error) map[string]interface{} {
	out := make(map[string]interface{})
	errors.WalkErrors(err, func(e error) bool {
		if ps, ok := errors.TryGetProperties(e); ok {
			for k, v := range ps {
				if _, exists := out[k]; !exists {
					out[k] = v
				}
			}
		}
		return true
	})
	return out
}

// Payload is the JSON-RPC error object: {code, message, data?}.
type Payload struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ToPayload converts err into the wire error object, filtering internal
// bookkeeping properties (category, code, stack) out of "data".
func ToPayload(err error) Payload {
	if err == nil {
		return Payload{Code: CodeInternalError, Message: "unknown error"}
	}
	props := properties(err)
	data := make(map[string]interface{}, len(props))
	for k, v := range props {
		if k == propCategory || k == propCode || k == "stack" {
			continue
		}
		data[k] = v
	}
	p := Payload{Code: Code(err), Message: err.Error()}
	if len(data) > 0 {
		p.Data = data
	}
	return p
}
