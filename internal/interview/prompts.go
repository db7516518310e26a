package interview

import (
	"strconv"
	"strings"

	_ "embed"
)

//go:embed recruiter_prompt.md
var recruiterTemplate string

//go:embed evaluator_prompt.md
var evaluatorTemplate string

//go:embed report_writer_prompt.md
var reportWriterTemplate string

func buildRecruiterPrompt(cfg Config) string {
	prompt := strings.ReplaceAll(recruiterTemplate, "{{COMPANY_NAME}}", cfg.CompanyName)
	prompt = strings.ReplaceAll(prompt, "{{POSITION}}", cfg.Position)
	prompt = strings.ReplaceAll(prompt, "{{MODE}}", cfg.Mode)
	prompt = strings.ReplaceAll(prompt, "{{NUM_QUESTIONS}}", strconv.Itoa(cfg.NumQuestions))
	prompt = strings.ReplaceAll(prompt, "{{NUM_FOLLOWUPS}}", strconv.Itoa(cfg.NumFollowups))
	return prompt
}

func buildEvaluatorPrompt(cfg Config) string {
	prompt := strings.ReplaceAll(evaluatorTemplate, "{{POSITION}}", cfg.Position)
	prompt = strings.ReplaceAll(prompt, "{{NUM_QUESTIONS}}", strconv.Itoa(cfg.NumQuestions))
	prompt = strings.ReplaceAll(prompt, "{{NUM_FOLLOWUPS}}", strconv.Itoa(cfg.NumFollowups))
	return prompt
}

func buildReportWriterPrompt(cfg Config, transcript, evaluation string) string {
	prompt := strings.ReplaceAll(reportWriterTemplate, "{{COMPANY_NAME}}", cfg.CompanyName)
	prompt = strings.ReplaceAll(prompt, "{{POSITION}}", cfg.Position)
	prompt = strings.ReplaceAll(prompt, "{{INTERVIEW_TRANSCRIPT}}", transcript)
	prompt = strings.ReplaceAll(prompt, "{{EVALUATION_REPORT}}", evaluation)
	return prompt
}
