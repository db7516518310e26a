package ai

import (
	"context"
	"errors"

	"github.com/spigell/ai-interviewer/internal/chat"
)

// ErrModelUnavailable is returned when no language model backend is reachable.
// It is fatal to the current turn and must not be retried within it.
var ErrModelUnavailable = errors.New("no language model backend is reachable")

// Generator produces one assistant message for an ordered message history,
// a stage instruction and a set of declared tools. The returned message
// either carries final text or pending tool calls.
type Generator interface {
	Name() string
	Invoke(ctx context.Context, instruction string, history []chat.Message, tools []chat.ToolSpec) (chat.Message, error)
}
