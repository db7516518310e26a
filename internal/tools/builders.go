package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/report"
	"github.com/spigell/ai-interviewer/internal/retrieval"
)

// Canonical tool names declared to the language model.
const (
	InterviewDocumentTool = "interview_document_retriever"
	ResumeTool            = "candidate_resume_retriever"
	SaveReportTool        = "save_report"
)

// NewInterviewDocumentTool builds the tool that searches the interview
// document for relevant questions.
func NewInterviewDocumentTool(r retrieval.Retriever) (chat.ToolSpec, Handler) {
	spec := chat.QuerySpec(
		InterviewDocumentTool,
		"Useful for answering questions about the interview document and finding relevant interview questions.",
	)
	return spec, retrieverHandler(r)
}

// NewResumeTool builds the tool that looks up the candidate's resume.
func NewResumeTool(r retrieval.Retriever) (chat.ToolSpec, Handler) {
	spec := chat.QuerySpec(
		ResumeTool,
		"Useful for answering questions about the candidate's resume, projects, and experience.",
	)
	return spec, retrieverHandler(r)
}

// NewSaveReportTool builds the tool the report writer uses to persist the
// generated HR report through the sink.
func NewSaveReportTool(sink report.Sink) (chat.ToolSpec, Handler) {
	spec := chat.ToolSpec{
		Name:        SaveReportTool,
		Description: "Saves the provided HR report. Pass the full report text and a plain filename without any path.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"report_content": map[string]any{
					"type":        "string",
					"description": "The full text content of the HR report.",
				},
				"filename": map[string]any{
					"type":        "string",
					"description": "Desired file name for the report, without a path.",
				},
			},
			"required": []string{"report_content"},
		},
	}

	handler := func(ctx context.Context, args map[string]any) (string, error) {
		content, _ := args["report_content"].(string)
		filename, _ := args["filename"].(string)

		location, err := sink.Save(ctx, content, filename)
		if err != nil {
			return "", fmt.Errorf("save report: %w", err)
		}

		return fmt.Sprintf("Report saved to %s", location), nil
	}

	return spec, handler
}

func retrieverHandler(r retrieval.Retriever) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		query, _ := args["query"].(string)
		if query == "" {
			return "", errors.New("query argument is required")
		}
		return r.Retrieve(ctx, query)
	}
}
