// Package tools holds the registry of callable tools a stage may declare to
// the language model.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/spigell/ai-interviewer/internal/chat"
)

// Handler is the function signature for tool implementations. Handlers
// receive the decoded arguments the model supplied for the call.
type Handler func(ctx context.Context, args map[string]any) (string, error)

type entry struct {
	spec    chat.ToolSpec
	handler Handler
}

// Registry maps tool names to their declarations and handlers. A registry is
// built per workflow instance so each session binds its own retrieval
// handles. Thread-safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a new tool to the registry.
// Returns ErrAlreadyExists if a tool with the same name is already registered.
func (r *Registry) Register(spec chat.ToolSpec, handler Handler) error {
	if spec.Name == "" {
		return ErrEmptyName
	}

	if handler == nil {
		return fmt.Errorf("tool %s: handler is required", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, spec.Name)
	}

	r.entries[spec.Name] = entry{spec: spec, handler: handler}
	return nil
}

// Specs returns the declarations of the named tools, preserving order.
// Unknown names are skipped so a stage can declare a subset safely.
func (r *Registry) Specs(names ...string) []chat.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]chat.ToolSpec, 0, len(names))
	for _, name := range names {
		if e, exists := r.entries[name]; exists {
			specs = append(specs, e.spec)
		}
	}
	return specs
}

// Execute dispatches a tool call to the registered handler by name.
// Returns ErrNotFound if the tool is not registered. Handler errors are
// wrapped with the tool name for context.
func (r *Registry) Execute(ctx context.Context, call chat.ToolCall) (string, error) {
	r.mu.RLock()
	e, exists := r.entries[call.Name]
	r.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("%w: %s", ErrNotFound, call.Name)
	}

	result, err := e.handler(ctx, call.Arguments)
	if err != nil {
		return "", fmt.Errorf("tool %s execution failed: %w", call.Name, err)
	}

	return result, nil
}
