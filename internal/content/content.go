// Package content defines the MCP content blocks exchanged in tool and
// prompt results (spec.md §6 "Content types") and the result envelopes
// that carry them.
package content

import "encoding/json"

// Block is a single piece of tool/prompt output: text, image, audio, or
// an embedded resource. Exactly one of the payload fields is set,
// matching which Type names.
type Block struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Data     string          `json:"data,omitempty"`     // base64, for image/audio
	MimeType string          `json:"mimeType,omitempty"` // for image/audio/resource
	Resource *ResourceBlock  `json:"resource,omitempty"`
	Meta     json.RawMessage `json:"_meta,omitempty"`
}

// ResourceBlock is the embedded-resource payload of a "resource" content block.
type ResourceBlock struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// Text builds a "text" content block.
func Text(s string) Block { return Block{Type: "text", Text: s} }

// Image builds an "image" content block. data is base64-encoded image bytes.
func Image(data, mimeType string) Block {
	return Block{Type: "image", Data: data, MimeType: mimeType}
}

// Audio builds an "audio" content block. data is base64-encoded audio bytes.
func Audio(data, mimeType string) Block {
	return Block{Type: "audio", Data: data, MimeType: mimeType}
}

// Resource builds a "resource" content block embedding a resource's contents.
func Resource(r ResourceBlock) Block {
	return Block{Type: "resource", Resource: &r}
}

// CallToolResult is the result shape of a `tools/call` response (spec.md §6).
type CallToolResult struct {
	Content []Block `json:"content"`
	IsError bool    `json:"isError,omitempty"`
}

// PromptMessage is one message in a `prompts/get` result.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content []Block `json:"content"`
}

// GetPromptResult is the result shape of a `prompts/get` response.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// UserTextMessage builds a single user-role text prompt message.
func UserTextMessage(text string) PromptMessage {
	return PromptMessage{Role: "user", Content: []Block{Text(text)}}
}
