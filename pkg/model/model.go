// Package model wraps language model invocation. It defines the Provider
// interface for model backends and the Invoker that drives a call through a
// bounded retry loop with classification-driven backoff.
package model

import "context"

// Defaults applied to call parameters when unset.
const (
	// DefaultModel is the model identifier used when none is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens is the response token budget.
	DefaultMaxTokens = 2048

	// DefaultTemperatureWithTools keeps structured output deterministic.
	DefaultTemperatureWithTools = 0.0

	// DefaultTemperature applies to natural-language answers.
	DefaultTemperature = 0.3
)

// Role identifies a conversation participant.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history.
type Message struct {
	Role    Role
	Content string
}

// Tool declares an operation the model may request via tool use.
type Tool struct {
	// Name identifies the tool in the model's response.
	Name string

	// Description tells the model when to use the tool.
	Description string

	// InputSchema holds the JSON schema properties of the tool input.
	InputSchema map[string]any

	// Required lists the mandatory input properties.
	Required []string
}

// ToolCall is a structured invocation the model requested.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// StopReason distinguishes how the model finished.
type StopReason string

// Stop reasons.
const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// CallParams is a single model request.
type CallParams struct {
	// Model overrides DefaultModel.
	Model string

	// System is the system prompt.
	System string

	// Messages is the conversation history, oldest first.
	Messages []Message

	// Tools are optional tool declarations.
	Tools []Tool

	// MaxTokens overrides DefaultMaxTokens.
	MaxTokens int

	// Temperature overrides the default (0 with tools, 0.3 without).
	Temperature *float64
}

// CallResult is the model's response.
type CallResult struct {
	// Text is the concatenated free-text content.
	Text string

	// ToolCalls are structured invocations, when the model requested any.
	ToolCalls []ToolCall

	// StopReason distinguishes "finished with text" from "finished
	// requesting a tool call".
	StopReason StopReason
}

// Provider calls a language model backend once. Implementations honor the
// context deadline; retry policy lives in the Invoker.
type Provider interface {
	Call(ctx context.Context, params CallParams) (*CallResult, error)
}
