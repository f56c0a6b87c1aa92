// Package generative implements GenerativeEngine: LLM-authored question
// scenarios whose numeric answers are always computed by SafeMathSandbox
// against a small, hand-registered solver expression, never trusted from
// the model's own arithmetic (spec §4.3).
package generative

import "github.com/noble-ngs/tutor-runtime/internal/tutorerr"

// ConceptSolver is the fixed, engineer-authored expression this
// component owns for one concept: how to compute the authoritative
// answer from the LLM-proposed variables, and the domain rules those
// variables must satisfy (e.g. a hypotenuse problem rejects a negative
// leg length).
type ConceptSolver struct {
	Concept      string
	Description  string   // one-line hint folded into the scenario prompt
	VariableHint string   // human-readable constraint list folded into the prompt
	AnswerExpr   string   // sandbox expression; may reference any variable name
	DomainRules  []string // sandbox boolean expressions, all must hold
}

// registry is the fixed set of concepts GenerativeEngine can author
// questions for. It intentionally does not grow at runtime: every entry
// is an engineer-reviewed expression, per spec §4.3's "small fixed
// expression owned by this component" requirement.
var registry = map[string]ConceptSolver{
	"heights_and_distances": {
		Concept:      "heights_and_distances",
		Description:  "A right-angled triangle scenario: an observer a known distance from the base of an object, sighting its top at a known angle of elevation.",
		VariableHint: "variables: distance (metres, 5-100), angle_degrees (10-80, strictly between 0 and 90)",
		AnswerExpr:   "distance * tan(radians(angle_degrees))",
		DomainRules:  []string{"distance > 0", "angle_degrees > 0 and angle_degrees < 90"},
	},
	"word_problems": {
		Concept:      "word_problems",
		Description:  "A linear-equation word problem: an unknown quantity x satisfies a*x + b = target for some everyday scenario (ages, money, items purchased).",
		VariableHint: "variables: a (nonzero integer, -9 to 9), b (integer, -20 to 20), x_true (integer, 1-20)",
		AnswerExpr:   "x_true",
		DomainRules:  []string{"a != 0"},
	},
	"geometry_diagrams": {
		Concept:      "geometry_diagrams",
		Description:  "A right-angled triangle with two known legs; the question asks for the hypotenuse.",
		VariableHint: "variables: leg_a (positive, 3-20), leg_b (positive, 3-20)",
		AnswerExpr:   "sqrt(leg_a**2 + leg_b**2)",
		DomainRules:  []string{"leg_a > 0", "leg_b > 0"},
	},
	"coordinate_geometry_word_problems": {
		Concept:      "coordinate_geometry_word_problems",
		Description:  "Two labeled points on a coordinate plane; the question asks for the distance between them.",
		VariableHint: "variables: x1, y1, x2, y2 (integers, -10 to 10), the two points must be distinct",
		AnswerExpr:   "sqrt((x2 - x1)**2 + (y2 - y1)**2)",
		DomainRules:  []string{"not (x1 == x2 and y1 == y2)"},
	},
}

// lookupSolver returns the registered solver for concept, or a
// tutorerr.KindGenerationFailed error if GenerativeEngine has no solver
// for it — the caller should fall back to PatternEngine in that case.
func lookupSolver(concept string) (ConceptSolver, error) {
	solver, ok := registry[concept]
	if !ok {
		return ConceptSolver{}, tutorerr.New(tutorerr.KindGenerationFailed, "no registered solver for concept "+concept)
	}
	return solver, nil
}
