package agents

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// Metadata keys the runner uses to thread a delivered question's
// grading state through SessionMemory between turns.
const (
	MetaPendingQuestion = "pending_question"
	MetaHintStage       = "hint_stage"
	MetaConcept         = "concept"
)

// PendingQuestion extracts the question awaiting an answer from the last
// assistant message's metadata, along with how many hints have already
// been given, if the message carries one.
func PendingQuestion(message tutor.Message) (*tutor.Question, int, bool) {
	if message.Role != tutor.RoleAssistant || message.Metadata == nil {
		return nil, 0, false
	}
	q, ok := message.Metadata[MetaPendingQuestion].(*tutor.Question)
	if !ok || q == nil {
		return nil, 0, false
	}
	stage, _ := message.Metadata[MetaHintStage].(int)
	return q, stage, true
}

// answerTolerance is the relative tolerance for comparing floating-point
// answers (spec §4.5).
const answerTolerance = 1e-6

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[.!?,;:]+$`)
	unitWordsRe   = regexp.MustCompile(`\b(units?|cm2?|m2?|sq\.?\s*units?|degrees?|square units?)\b`)
	superscript2  = "²"
	superscript3  = "³"
)

var synonyms = map[string]string{
	"one":   "1",
	"two":   "2",
	"three": "3",
	"four":  "4",
	"five":  "5",
	"six":   "6",
	"seven": "7",
	"eight": "8",
	"nine":  "9",
	"ten":   "10",
	"none":  "0",
	"zero":  "0",
}

// CanonicalizeAnswer puts a student's free-text answer into the form used
// for comparison: lowercased, trimmed, trailing punctuation stripped,
// whitespace collapsed, unit words dropped, superscripts normalized to
// "^", and number words mapped to digits.
func CanonicalizeAnswer(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = punctuationRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, superscript2, "^2")
	s = strings.ReplaceAll(s, superscript3, "^3")
	s = unitWordsRe.ReplaceAllString(s, "")
	s = normalizeFraction(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if replacement, ok := synonyms[s]; ok {
		return replacement
	}
	return s
}

// normalizeFraction rewrites "a/b" fractional text into its decimal form
// when both sides parse as integers, so "1/2" and "0.5" compare equal.
func normalizeFraction(s string) string {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return s
	}
	num, errNum := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	den, errDen := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errNum != nil || errDen != nil || den == 0 {
		return s
	}
	return strconv.FormatFloat(num/den, 'f', -1, 64)
}

// CompareAnswers reports whether canonical student input matches the
// question's final answer, using relative tolerance for floats and exact
// equality for integer answers and non-numeric text (spec §4.5).
func CompareAnswers(studentRaw, finalAnswer string) bool {
	student := CanonicalizeAnswer(studentRaw)
	expected := CanonicalizeAnswer(finalAnswer)
	if student == expected {
		return true
	}

	studentVal, errS := strconv.ParseFloat(student, 64)
	expectedVal, errE := strconv.ParseFloat(expected, 64)
	if errS != nil || errE != nil {
		return false
	}
	if expectedVal == math.Trunc(expectedVal) && !strings.ContainsAny(expected, ".eE") {
		return studentVal == expectedVal
	}
	if expectedVal == 0 {
		return studentVal == 0
	}
	diff := studentVal - expectedVal
	if diff < 0 {
		diff = -diff
	}
	return diff/absFloat(expectedVal) <= answerTolerance
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
