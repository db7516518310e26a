package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/logger"
	"go.uber.org/zap"
)

// Fallback tries each wrapped generator in order, moving to the next one only
// when the current backend is unreachable. Any other error is surfaced as-is.
type Fallback struct {
	generators []Generator
	logger     *zap.Logger
}

// NewFallback builds a fallback chain from the provided generators. At least
// one generator is required.
func NewFallback(logger *zap.Logger, generators ...Generator) (*Fallback, error) {
	if len(generators) == 0 {
		return nil, fmt.Errorf("building fallback chain: %w", ErrModelUnavailable)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fallback{generators: generators, logger: logger}, nil
}

func (f *Fallback) Name() string {
	names := make([]string, 0, len(f.generators))
	for _, g := range f.generators {
		names = append(names, g.Name())
	}
	return strings.Join(names, ",")
}

func (f *Fallback) Invoke(ctx context.Context, instruction string, history []chat.Message, tools []chat.ToolSpec) (chat.Message, error) {
	for i, generator := range f.generators {
		msg, err := generator.Invoke(ctx, instruction, history, tools)
		if err == nil {
			return msg, nil
		}

		if !errors.Is(err, ErrModelUnavailable) {
			return chat.Message{}, err
		}

		if i < len(f.generators)-1 {
			f.logger.Warn("model backend unreachable, trying next provider",
				zap.String(logger.FieldProvider, generator.Name()),
				zap.Error(err),
			)
		}
	}

	return chat.Message{}, ErrModelUnavailable
}
