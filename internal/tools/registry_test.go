package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/retrieval"
)

func TestRegistryRegisterAndExecute(t *testing.T) {
	registry := NewRegistry()

	spec := chat.QuerySpec("echo", "Echoes the query back.")
	err := registry.Register(spec, func(_ context.Context, args map[string]any) (string, error) {
		query, _ := args["query"].(string)
		return "echo: " + query, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := registry.Execute(context.Background(), chat.ToolCall{
		Name:      "echo",
		Arguments: map[string]any{"query": "hello"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result != "echo: hello" {
		t.Fatalf("unexpected result: %q", result)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	spec := chat.QuerySpec("echo", "Echoes the query back.")
	handler := func(context.Context, map[string]any) (string, error) { return "", nil }

	if err := registry.Register(spec, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := registry.Register(spec, handler); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if err := registry.Register(chat.ToolSpec{}, handler); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Execute(context.Background(), chat.ToolCall{Name: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSpecsPreservesOrderAndSkipsUnknown(t *testing.T) {
	registry := NewRegistry()
	handler := func(context.Context, map[string]any) (string, error) { return "", nil }

	for _, name := range []string{"b", "a"} {
		if err := registry.Register(chat.QuerySpec(name, name), handler); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	specs := registry.Specs("a", "missing", "b")
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}

	if specs[0].Name != "a" || specs[1].Name != "b" {
		t.Fatalf("unexpected spec order: %+v", specs)
	}
}

func TestRetrieverTools(t *testing.T) {
	doc, err := retrieval.NewDocument("resume", "Worked on a payments platform in Go.", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	registry := NewRegistry()
	spec, handler := NewResumeTool(doc)
	if err := registry.Register(spec, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := registry.Execute(context.Background(), chat.ToolCall{
		Name:      ResumeTool,
		Arguments: map[string]any{"query": "payments platform"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, "payments platform") {
		t.Fatalf("unexpected retrieval result: %q", result)
	}

	_, err = registry.Execute(context.Background(), chat.ToolCall{Name: ResumeTool})
	if err == nil {
		t.Fatalf("expected error for missing query argument")
	}
}
