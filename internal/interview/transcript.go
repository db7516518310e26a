package interview

import (
	"strings"

	"github.com/spigell/ai-interviewer/internal/chat"
)

// RenderTranscript turns a message log into a labelled plain-text transcript.
// Tool traffic and assistant messages that only carry tool calls are left
// out; the transcript is what the evaluator and report writer stages read,
// and what get_results returns to callers.
func RenderTranscript(log []chat.Message) string {
	lines := make([]string, 0, len(log))

	for _, msg := range log {
		switch msg.Role {
		case chat.RoleHuman:
			lines = append(lines, "Candidate: "+msg.Content)
		case chat.RoleAssistant:
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			lines = append(lines, "Recruiter: "+msg.Content)
		}
	}

	return strings.Join(lines, "\n\n")
}
