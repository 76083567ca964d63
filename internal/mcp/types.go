// Package mcp defines the MCP data model shared by the registries,
// dispatcher, and connection loop: tools, resources, prompts, content,
// and server lifecycle state (spec §3). Grounded in the teacher's
// internal/mcp/definitions/types.go (flat wire structs with JSON tags)
// but reshaped around direct handler registration rather than the
// teacher's provider-aggregation pattern, per spec §4.5–§4.7.
package mcp

// file: internal/mcp/types.go

import (
	"context"
	"encoding/json"

	"github.com/mcpcore/mcpcore/internal/arena"
)

// ProtocolVersion is the MCP wire version advertised on initialize
// (spec §6).
const ProtocolVersion = "2024-11-05"

// ToolHandler executes a tool call. Handlers are pure relative to MCP
// state; they may consult external state (spec §3).
type ToolHandler func(ctx context.Context, a *arena.Arena, arguments json.RawMessage) (json.RawMessage, error)

// Tool is a registered, callable tool (spec §3).
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage // a JSON-Schema object.
	Handler     ToolHandler
}

// ToolDescriptor is the wire shape of tools/list's entries.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ContentType discriminates the Content variants.
type ContentType string

// Content variant tags.
const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentResource ContentType = "resource"
)

// Content is a tagged union over the three MCP content variants
// (spec §3): Text, Image, ResourceRef. Represented as a flat struct with
// omitempty fields, the way the teacher's definitions package favors
// flat wire structs over polymorphic interfaces.
type Content struct {
	Type     ContentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	Data     string      `json:"data,omitempty"`     // base64, for ContentImage.
	MimeType string      `json:"mimeType,omitempty"` // for ContentImage/ContentResource.
	URI      string      `json:"uri,omitempty"`      // for ContentResource.
}

// TextContent builds a Content{Type: text}.
func TextContent(text string) Content {
	return Content{Type: ContentText, Text: text}
}

// ImageContent builds a Content{Type: image}.
func ImageContent(base64Data, mimeType string) Content {
	return Content{Type: ContentImage, Data: base64Data, MimeType: mimeType}
}

// ResourceRefContent builds a Content{Type: resource}.
func ResourceRefContent(uri, mimeType string) Content {
	return Content{Type: ContentResource, URI: uri, MimeType: mimeType}
}

// CallResult is the result of tools/call (spec §4.5).
type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// ResourceHandler reads a resource's content dynamically. A Resource
// with a nil handler is static (spec §3).
type ResourceHandler func(ctx context.Context, a *arena.Arena, uri string) (*ResourceContent, error)

// Resource is a registered resource, static or dynamic (spec §3).
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Handler     ResourceHandler  // nil for static resources.
	Static      *ResourceContent // used when Handler is nil.
}

// ResourceContent is the content returned by resources/read. Exactly one
// of Text/Blob is set (spec §3).
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     []byte `json:"blob,omitempty"`
}

// ResourceDescriptor is the wire shape of resources/list's entries.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// SubscriptionCallback is invoked when a subscribed resource changes
// (spec §3/§4.6).
type SubscriptionCallback func(ctx context.Context, a *arena.Arena, uri string)

// PromptArg describes one named argument a prompt template accepts.
type PromptArg struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// Role is the speaker of a PromptMessage.
type Role string

// Valid PromptMessage roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PromptMessage is one message a prompt template expands to.
type PromptMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// PromptHandler expands a prompt template given its call-site arguments.
type PromptHandler func(ctx context.Context, a *arena.Arena, arguments json.RawMessage) ([]PromptMessage, error)

// Prompt is a registered prompt template (spec §3).
type Prompt struct {
	Name        string
	Description string
	Arguments   []PromptArg
	Handler     PromptHandler
}

// PromptDescriptor is the wire shape of prompts/list's entries.
type PromptDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Arguments   []PromptArg `json:"arguments,omitempty"`
}

// PromptResult is the result of prompts/get.
type PromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}
