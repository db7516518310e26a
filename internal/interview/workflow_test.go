package interview

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/tools"
	"go.uber.org/zap"
)

// stubGenerator replays canned responses in order, recording every
// invocation it receives.
type stubGenerator struct {
	mu        sync.Mutex
	responses []chat.Message
	calls     int
	histories [][]chat.Message
	specs     [][]chat.ToolSpec
	err       error
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Invoke(_ context.Context, _ string, history []chat.Message, specs []chat.ToolSpec) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return chat.Message{}, s.err
	}

	s.histories = append(s.histories, chat.CloneLog(history))
	s.specs = append(s.specs, specs)

	if s.calls >= len(s.responses) {
		return chat.Assistant("I have nothing more to say."), nil
	}

	msg := s.responses[s.calls]
	s.calls++
	return msg, nil
}

func toolCallMessage(name string, args map[string]any) chat.Message {
	return chat.Message{
		Role: chat.RoleAssistant,
		ToolCalls: []chat.ToolCall{{
			ID:        "call-1",
			Name:      name,
			Arguments: args,
		}},
	}
}

func newTestRegistry(t *testing.T, invocations *int) *tools.Registry {
	t.Helper()

	registry := tools.NewRegistry()
	handler := func(_ context.Context, args map[string]any) (string, error) {
		if invocations != nil {
			*invocations++
		}
		return "retrieved context", nil
	}

	for _, name := range []string{tools.InterviewDocumentTool, tools.ResumeTool, tools.SaveReportTool} {
		if err := registry.Register(chat.QuerySpec(name, name), handler); err != nil {
			t.Fatalf("registering %s: %v", name, err)
		}
	}

	return registry
}

func TestToolSubLoopSingleRetry(t *testing.T) {
	invocations := 0
	stub := &stubGenerator{responses: []chat.Message{
		toolCallMessage(tools.ResumeTool, map[string]any{"query": "projects"}),
		chat.Assistant("Tell me about that chatbot project."),
	}}

	wf, err := NewWorkflow(Config{}, stub, nil, newTestRegistry(t, &invocations), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := wf.Send(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Content != "Tell me about that chatbot project." {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	if reply.HasToolCalls() {
		t.Fatalf("expected a final tool-free message")
	}

	if invocations != 1 {
		t.Fatalf("expected the tool to run exactly once, got %d", invocations)
	}

	// human, tool request, tool result, final answer
	if got := len(wf.Messages()); got != 4 {
		t.Fatalf("expected 4 log entries, got %d", got)
	}
}

func TestToolSubLoopSurfacesSecondRequest(t *testing.T) {
	invocations := 0
	stub := &stubGenerator{responses: []chat.Message{
		toolCallMessage(tools.ResumeTool, map[string]any{"query": "projects"}),
		toolCallMessage(tools.InterviewDocumentTool, map[string]any{"query": "questions"}),
	}}

	wf, err := NewWorkflow(Config{}, stub, nil, newTestRegistry(t, &invocations), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := wf.Send(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reply.HasToolCalls() {
		t.Fatalf("expected the second tool request to be surfaced as-is")
	}

	if invocations != 1 {
		t.Fatalf("expected only the first tool request to execute, got %d", invocations)
	}
}

func TestToolErrorsBecomeResults(t *testing.T) {
	registry := tools.NewRegistry()
	err := registry.Register(
		chat.QuerySpec(tools.ResumeTool, "resume"),
		func(context.Context, map[string]any) (string, error) {
			return "", context.DeadlineExceeded
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stub := &stubGenerator{responses: []chat.Message{
		toolCallMessage(tools.ResumeTool, map[string]any{"query": "projects"}),
		chat.Assistant("Let's continue."),
	}}

	wf, err := NewWorkflow(Config{}, stub, nil, registry, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := wf.Send(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("tool failures must not fail the turn: %v", err)
	}

	if reply.Content != "Let's continue." {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	log := wf.Messages()
	toolMsg := log[2]
	if toolMsg.Role != chat.RoleTool || !strings.Contains(toolMsg.Content, "Error:") {
		t.Fatalf("expected in-band tool error result, got %+v", toolMsg)
	}
}

func TestTurnSuspendsOnPlainAnswer(t *testing.T) {
	stub := &stubGenerator{responses: []chat.Message{
		chat.Assistant("Hi, I'm Sarah! Tell me about yourself."),
	}}

	wf, err := NewWorkflow(Config{}, stub, nil, newTestRegistry(t, nil), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := wf.Send(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Content != "Hi, I'm Sarah! Tell me about yourself." {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	if wf.Complete() {
		t.Fatalf("expected interview to stay open")
	}

	if wf.Evaluation() != "" {
		t.Fatalf("evaluation must stay empty before the farewell")
	}

	if stub.calls != 1 {
		t.Fatalf("expected a single model invocation, got %d", stub.calls)
	}
}

func TestFarewellCascadesThroughEvaluationAndReport(t *testing.T) {
	recruiterStub := &stubGenerator{responses: []chat.Message{
		chat.Assistant("That wraps up our interview, best of luck and we'll be in touch!"),
		toolCallMessage(tools.SaveReportTool, map[string]any{"report_content": "HR report text"}),
		chat.Assistant("HR report text"),
	}}
	evaluatorStub := &stubGenerator{responses: []chat.Message{
		chat.Assistant("Evaluation:\n1. Introduction question: 8 - solid"),
	}}

	wf, err := NewWorkflow(Config{}, recruiterStub, evaluatorStub, newTestRegistry(t, nil), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := wf.Send(context.Background(), "Thanks, that was all from me.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Content != "HR report text" {
		t.Fatalf("expected the report as final reply, got %+v", reply)
	}

	if !wf.Complete() {
		t.Fatalf("expected completed interview")
	}

	if !strings.HasPrefix(wf.Evaluation(), "Evaluation:") {
		t.Fatalf("unexpected evaluation: %q", wf.Evaluation())
	}

	if wf.Report() != "HR report text" {
		t.Fatalf("unexpected report: %q", wf.Report())
	}

	if got := wf.Farewell(); !strings.Contains(got, "wraps up our interview") {
		t.Fatalf("unexpected farewell: %q", got)
	}

	// The evaluator must see the rendered transcript, not the raw log.
	if len(evaluatorStub.histories) != 1 {
		t.Fatalf("expected one evaluator invocation, got %d", len(evaluatorStub.histories))
	}

	evalInput := evaluatorStub.histories[0]
	if len(evalInput) != 1 || evalInput[0].Role != chat.RoleHuman {
		t.Fatalf("expected a single transcript message, got %+v", evalInput)
	}

	if !strings.Contains(evalInput[0].Content, "Candidate: Thanks, that was all from me.") {
		t.Fatalf("transcript missing candidate line: %q", evalInput[0].Content)
	}

	// The evaluator declares only the interview document tool.
	if got := evaluatorStub.specs[0]; len(got) != 1 || got[0].Name != tools.InterviewDocumentTool {
		t.Fatalf("unexpected evaluator tools: %+v", got)
	}
}

func TestEvaluationSetOnlyOnce(t *testing.T) {
	recruiterStub := &stubGenerator{responses: []chat.Message{
		chat.Assistant("Best of luck, we'll be in touch!"),
		chat.Assistant("First report"),
		chat.Assistant("Another farewell, best of luck again!"),
		chat.Assistant("Second report"),
	}}
	evaluatorStub := &stubGenerator{responses: []chat.Message{
		chat.Assistant("Evaluation one"),
		chat.Assistant("Evaluation two"),
	}}

	wf, err := NewWorkflow(Config{}, recruiterStub, evaluatorStub, newTestRegistry(t, nil), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := wf.Send(context.Background(), "bye"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := len(wf.Messages())

	// A second farewell turn runs the chain again but must not overwrite
	// the recorded results.
	if _, err := wf.Send(context.Background(), "thanks again"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if wf.Evaluation() != "Evaluation one" {
		t.Fatalf("evaluation was overwritten: %q", wf.Evaluation())
	}

	if wf.Report() != "First report" {
		t.Fatalf("report was overwritten: %q", wf.Report())
	}

	if got := len(wf.Messages()); got <= before {
		t.Fatalf("message log must keep growing, had %d now %d", before, got)
	}
}

func TestModelUnavailableSurfaces(t *testing.T) {
	stub := &stubGenerator{err: context.DeadlineExceeded}

	wf, err := NewWorkflow(Config{}, stub, nil, newTestRegistry(t, nil), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := wf.Send(context.Background(), "Hi"); err == nil {
		t.Fatalf("expected model error to surface")
	}
}

func TestRenderTranscriptSkipsToolTraffic(t *testing.T) {
	log := []chat.Message{
		chat.Human("Hi"),
		toolCallMessage(tools.ResumeTool, nil),
		chat.ToolResult(chat.ToolCall{ID: "call-1", Name: tools.ResumeTool}, "resume text"),
		chat.Assistant("Nice to meet you!"),
	}

	transcript := RenderTranscript(log)
	expected := "Candidate: Hi\n\nRecruiter: Nice to meet you!"
	if transcript != expected {
		t.Fatalf("unexpected transcript: %q", transcript)
	}
}
