package interview

import (
	"strings"

	"github.com/spigell/ai-interviewer/internal/chat"
)

// farewellPhrases is the canonical closed set of substrings that mark the
// recruiter's goodbye. Both completion checks read this one list: the
// single-message check gating the in-graph transition to the evaluator, and
// the windowed check deciding whether the whole interview has concluded.
var farewellPhrases = []string{
	"that's it for today",
	"thank you for your time",
	"thank you for joining",
	"this concludes",
	"end of the interview",
	"interview is complete",
	"we're done",
	"that concludes",
	"we'll be in touch",
	"best of luck",
	"good luck",
	"great talking with you",
	"enjoyed learning about",
	"enjoyed our conversation",
	"wraps up our interview",
	"that's all for today",
	"end of our session",
	"take care",
}

// farewellWindow is how many recent assistant messages the windowed check
// scans. Tool results or follow-up content can be appended after the goodbye
// sentence, so the farewell is not guaranteed to be the very last message.
const farewellWindow = 5

// farewellLookback bounds how far back LastFarewell searches for the
// goodbye message itself.
const farewellLookback = 10

// IsFarewell reports whether a single assistant message reads as the
// recruiter's goodbye. Matching is a case-insensitive substring check.
func IsFarewell(content string) bool {
	content = strings.ToLower(content)
	for _, phrase := range farewellPhrases {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	return false
}

// Concluded is the completion detector: it reports true when the evaluation
// or HR report is already populated (strong signal), or when any of the last
// farewellWindow assistant messages contains a farewell phrase (weak signal).
func Concluded(log []chat.Message, evaluation, report string) bool {
	if evaluation != "" || report != "" {
		return true
	}

	for _, msg := range lastAssistant(log, farewellWindow) {
		if IsFarewell(msg.Content) {
			return true
		}
	}

	return false
}

// LastFarewell returns the recruiter's goodbye message, searching the most
// recent assistant messages backwards. Empty when no farewell was said.
func LastFarewell(log []chat.Message) string {
	recent := lastAssistant(log, farewellLookback)
	for i := len(recent) - 1; i >= 0; i-- {
		if IsFarewell(recent[i].Content) {
			return recent[i].Content
		}
	}
	return ""
}

func lastAssistant(log []chat.Message, limit int) []chat.Message {
	assistant := make([]chat.Message, 0, limit)
	for i := len(log) - 1; i >= 0 && len(assistant) < limit; i-- {
		if log[i].Role == chat.RoleAssistant {
			assistant = append(assistant, log[i])
		}
	}

	// restore chronological order
	for i, j := 0, len(assistant)-1; i < j; i, j = i+1, j-1 {
		assistant[i], assistant[j] = assistant[j], assistant[i]
	}
	return assistant
}
