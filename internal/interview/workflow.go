// Package interview implements the turn-driven interview workflow: the graph
// of recruiter, evaluator and report-writer stages, the tool-call sub-loop
// each stage may take, and the completion detection that moves an interview
// from conversation to scoring.
package interview

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/ai-interviewer/internal/ai"
	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/tools"
	"go.uber.org/zap"
)

// stageExecutor binds a primary stage to its generator and the tool names it
// declares. The mapping is fixed at construction so the transition switch in
// run stays exhaustive.
type stageExecutor struct {
	generator ai.Generator
	toolNames []string
}

// Workflow is the live execution context of one interview session: the
// message log mirror, the result fields and the stage executors. It is not
// safe for concurrent use; the session manager serializes turns per session.
type Workflow struct {
	cfg      Config
	registry *tools.Registry
	execs    map[Stage]stageExecutor
	logger   *zap.Logger

	log        []chat.Message
	evaluation string
	report     string
}

// NewWorkflow builds a workflow instance. The evaluator generator is
// optional; when nil the main generator scores the transcript as well.
func NewWorkflow(cfg Config, generator, evaluator ai.Generator, registry *tools.Registry, logger *zap.Logger) (*Workflow, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if evaluator == nil {
		evaluator = generator
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Workflow{
		cfg:      cfg.WithDefaults(),
		registry: registry,
		logger:   logger,
		execs: map[Stage]stageExecutor{
			StageRecruiter:    {generator: generator, toolNames: []string{tools.InterviewDocumentTool, tools.ResumeTool}},
			StageEvaluator:    {generator: evaluator, toolNames: []string{tools.InterviewDocumentTool}},
			StageReportWriter: {generator: generator, toolNames: []string{tools.SaveReportTool}},
		},
	}, nil
}

// Send feeds one human message into the graph and runs it until it suspends
// for the next human message or finishes the interview. The returned message
// is the last one the turn produced; after a farewell that is the report
// writer's output, so a single call can come back with the evaluation and
// report already populated.
func (w *Workflow) Send(ctx context.Context, text string) (chat.Message, error) {
	w.log = append(w.log, chat.Human(text))
	return w.run(ctx)
}

// run executes the workflow graph starting at the recruiter stage. toolPass
// tracks whether the current primary stage has already taken its tool
// sub-loop: each stage consults tools at most once per invocation, and a
// second tool request in a row is surfaced to the caller as-is.
func (w *Workflow) run(ctx context.Context) (chat.Message, error) {
	stage := StageRecruiter
	toolPass := false

	// Local histories for the stages that do not see the raw message log.
	var evalHistory, reportHistory []chat.Message
	var transcript string

	for {
		w.logger.Debug("workflow stage", zap.Stringer("stage", stage))

		switch stage {
		case StageRecruiter:
			msg, err := w.step(ctx, StageRecruiter, buildRecruiterPrompt(w.cfg), w.log)
			if err != nil {
				return chat.Message{}, err
			}
			w.log = append(w.log, msg)

			switch {
			case msg.HasToolCalls() && !toolPass:
				stage = StageTools
			case msg.HasToolCalls():
				return msg, nil
			case IsFarewell(msg.Content):
				w.logger.Info("farewell detected, starting evaluation")
				stage, toolPass = StageEvaluator, false
			default:
				// Suspend: hand control back for the next human message.
				return msg, nil
			}

		case StageTools:
			w.log = append(w.log, w.executeCalls(ctx, lastMessage(w.log).ToolCalls)...)
			stage, toolPass = StageRecruiter, true

		case StageEvaluator:
			if evalHistory == nil {
				transcript = RenderTranscript(w.log)
				evalHistory = []chat.Message{chat.Human(transcript)}
			}

			msg, err := w.step(ctx, StageEvaluator, buildEvaluatorPrompt(w.cfg), evalHistory)
			if err != nil {
				return chat.Message{}, err
			}
			evalHistory = append(evalHistory, msg)

			if msg.HasToolCalls() && !toolPass {
				stage = StageEvaluatorTools
				continue
			}

			if w.evaluation == "" {
				w.evaluation = msg.Content
			}
			w.log = append(w.log, chat.Assistant(msg.Content))
			stage, toolPass = StageReportWriter, false

		case StageEvaluatorTools:
			evalHistory = append(evalHistory, w.executeCalls(ctx, lastMessage(evalHistory).ToolCalls)...)
			stage, toolPass = StageEvaluator, true

		case StageReportWriter:
			if reportHistory == nil {
				reportHistory = []chat.Message{chat.Human("Generate the report now.")}
			}

			instruction := buildReportWriterPrompt(w.cfg, transcript, w.evaluation)
			msg, err := w.step(ctx, StageReportWriter, instruction, reportHistory)
			if err != nil {
				return chat.Message{}, err
			}
			reportHistory = append(reportHistory, msg)

			if msg.HasToolCalls() && !toolPass {
				stage = StageReportWriterTools
				continue
			}

			if w.report == "" {
				w.report = msg.Content
			}
			w.log = append(w.log, chat.Assistant(msg.Content))
			stage = StageDone

		case StageReportWriterTools:
			reportHistory = append(reportHistory, w.executeCalls(ctx, lastMessage(reportHistory).ToolCalls)...)
			stage, toolPass = StageReportWriter, true

		case StageDone:
			w.logger.Info("interview finished, evaluation and report recorded")
			return lastMessage(w.log), nil

		default:
			return chat.Message{}, fmt.Errorf("workflow reached unknown stage %d", stage)
		}
	}
}

// step runs one language model invocation for a primary stage.
func (w *Workflow) step(ctx context.Context, stage Stage, instruction string, history []chat.Message) (chat.Message, error) {
	exec, ok := w.execs[stage]
	if !ok {
		return chat.Message{}, fmt.Errorf("no executor bound to stage %s", stage)
	}

	msg, err := exec.generator.Invoke(ctx, instruction, history, w.registry.Specs(exec.toolNames...))
	if err != nil {
		return chat.Message{}, fmt.Errorf("%s stage: %w", stage, err)
	}

	return msg, nil
}

// executeCalls runs the pending tool calls of a stage response. A tool
// failure never fails the turn: the error text is converted into an in-band
// tool result message instead.
func (w *Workflow) executeCalls(ctx context.Context, calls []chat.ToolCall) []chat.Message {
	results := make([]chat.Message, 0, len(calls))

	for _, call := range calls {
		output, err := w.registry.Execute(ctx, call)
		if err != nil {
			w.logger.Warn("tool execution failed",
				zap.String("tool", call.Name),
				zap.Error(err),
			)
			output = fmt.Sprintf("Error: %s", err)
		}
		results = append(results, chat.ToolResult(call, output))
	}

	return results
}

// Complete reports the completion detector's verdict for the session.
func (w *Workflow) Complete() bool {
	return Concluded(w.log, w.evaluation, w.report)
}

// Evaluation returns the evaluator's scoring, empty until the interview
// concluded.
func (w *Workflow) Evaluation() string { return w.evaluation }

// Report returns the HR report, empty until the interview concluded.
func (w *Workflow) Report() string { return w.report }

// Farewell returns the recruiter's goodbye message, if one was said.
func (w *Workflow) Farewell() string { return LastFarewell(w.log) }

// Messages returns a defensive copy of the workflow's message log.
func (w *Workflow) Messages() []chat.Message {
	return chat.CloneLog(w.log)
}

// Transcript renders the workflow's current message log.
func (w *Workflow) Transcript() string {
	return RenderTranscript(w.log)
}

func lastMessage(log []chat.Message) chat.Message {
	if len(log) == 0 {
		return chat.Message{}
	}
	return log[len(log)-1]
}
