package agents

import (
	"strings"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

var greetingPhrases = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"namaste", "kaise ho",
}

var identityPhrases = []string{
	"who are you", "what are you", "what is your name",
}

var closureExact = "bye"

var closurePhrases = []string{
	"goodbye", "see you later", "that's all", "i'm done",
}

var followUpPhrases = []string{
	"another example", "one more example", "show me an example",
	"can you give an example", "give me an example",
}

const introductionText = "I'm Veda, your math tutor. Ask me to explain a topic, " +
	"say \"/test\" for practice questions, or \"/spark\" when you want a challenge."

// workedExamples is the hard-coded table of deterministic, concept-keyed
// worked examples used by the follow-up-example fixed handler (spec §4.5).
var workedExamples = map[string]string{
	"linear_equations": "Solve 2x + 3 = 11.\n" +
		"Step 1: subtract 3 from both sides -> 2x = 8.\n" +
		"Step 2: divide both sides by 2 -> x = 4.",
	"quadratic_equations": "Solve x^2 - 5x + 6 = 0.\n" +
		"Step 1: factor -> (x - 2)(x - 3) = 0.\n" +
		"Step 2: either factor is zero -> x = 2 or x = 3.",
	"right_triangle_pythagoras": "A right triangle has legs 3 and 4.\n" +
		"Step 1: c^2 = 3^2 + 4^2 = 9 + 16 = 25.\n" +
		"Step 2: c = sqrt(25) = 5.",
	"circle_area": "Find the area of a circle with radius 7.\n" +
		"Step 1: area = pi * r^2 = pi * 49.\n" +
		"Step 2: area ≈ 153.94 square units.",
}

// LastTaughtConcept scans history backward for the most recent assistant
// message tagged with a concept, returning "" if none is found.
func LastTaughtConcept(history []tutor.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role != tutor.RoleAssistant || m.Metadata == nil {
			continue
		}
		if concept, ok := m.Metadata["concept"].(string); ok && concept != "" {
			return concept
		}
	}
	return ""
}

// FixedHandler returns a reply for a fixed (non-LLM) short-circuit if one
// applies to state's user message, and false otherwise. lastTaughtConcept
// is the concept the previous assistant turn taught, if any — used to
// resolve follow-up example requests.
func FixedHandler(state *tutor.TurnState, lastTaughtConcept string) (*tutor.AgentReply, bool) {
	text := strings.ToLower(strings.TrimSpace(state.UserMessage.Content))
	if text == "" {
		return nil, false
	}

	if containsAny(text, closurePhrases) || text == closureExact {
		return &tutor.AgentReply{
			Text:     "Take care, and good luck with your studies! Come back any time you want to practice more.",
			Terminal: true,
		}, true
	}

	if containsAny(text, identityPhrases) {
		return &tutor.AgentReply{Text: introductionText}, true
	}

	if containsAny(text, followUpPhrases) && lastTaughtConcept != "" {
		if example, ok := workedExamples[lastTaughtConcept]; ok {
			return &tutor.AgentReply{Text: example}, true
		}
	}

	if startsWithAny(text, greetingPhrases) {
		return &tutor.AgentReply{Text: "Hello! What would you like to work on today?"}, true
	}

	return nil, false
}

// conceptKeywords maps a substring to the concept it implies, used to
// tag a teach turn with the concept it covered so a later follow-up
// example request (FixedHandler) can resolve it deterministically.
var conceptKeywords = map[string]string{
	"linear equation":    "linear_equations",
	"quadratic":          "quadratic_equations",
	"pythagoras":         "right_triangle_pythagoras",
	"right triangle":     "right_triangle_pythagoras",
	"circle":             "circle_area",
	"area of a circle":   "circle_area",
}

// ResolveConcept returns the concept a user message is about, if any of
// conceptKeywords' substrings appear in it.
func ResolveConcept(message string) (string, bool) {
	text := strings.ToLower(message)
	for keyword, concept := range conceptKeywords {
		if strings.Contains(text, keyword) {
			return concept, true
		}
	}
	return "", false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func startsWithAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
