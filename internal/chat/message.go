package chat

import "slices"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the language model. Arguments
// hold the decoded JSON object the model supplied for the call.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is a single entry of a session's message log. Assistant messages
// may carry pending tool calls; tool result messages carry the ToolCallID
// and ToolName of the call they answer. Messages are treated as immutable
// once appended to a log.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// HasToolCalls reports whether the message carries pending tool calls.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Human creates a human message with the given content.
func Human(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// Assistant creates a plain assistant message with the given content.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResult creates a tool result message answering the given call.
func ToolResult(call ToolCall, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}

// CloneLog returns a deep-enough copy of a message log: the slice and each
// message's tool call list are copied so appends on one side never alias
// the other.
func CloneLog(log []Message) []Message {
	copied := make([]Message, len(log))
	for i, msg := range log {
		copied[i] = msg
		copied[i].ToolCalls = slices.Clone(msg.ToolCalls)
	}
	return copied
}
