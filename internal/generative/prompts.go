package generative

import (
	"fmt"
	"strings"
)

func scenarioSystemPrompt(solver ConceptSolver, marks int, difficulty float64, contextHint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You write secondary-school mathematics exam questions for the concept %q.\n", solver.Concept)
	fmt.Fprintf(&b, "%s\n", solver.Description)
	fmt.Fprintf(&b, "Constraints on the variables you invent: %s\n", solver.VariableHint)
	fmt.Fprintf(&b, "Target marks: %d. Target difficulty (0=trivial, 1=hardest): %.2f.\n", marks, difficulty)
	if contextHint != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", contextHint)
	}
	b.WriteString("Respond with a single JSON object and nothing else, of the exact shape:\n")
	b.WriteString(`{"scenario_text": "...", "variables": {"name": number, ...}}` + "\n")
	b.WriteString("Do not compute or state the answer anywhere in scenario_text. Do not wrap the JSON in markdown fences.")
	return b.String()
}

func solutionSystemPrompt(solver ConceptSolver, variables map[string]float64, answer float64) string {
	var b strings.Builder
	b.WriteString("You write step-by-step worked solutions for secondary-school mathematics.\n")
	fmt.Fprintf(&b, "The concept is %q. The known variable values are:\n", solver.Concept)
	for name, val := range variables {
		fmt.Fprintf(&b, "  %s = %g\n", name, val)
	}
	fmt.Fprintf(&b, "The final answer is %g, already computed; do not recompute or contradict it.\n", answer)
	b.WriteString("Respond with a single JSON object and nothing else, of the exact shape:\n")
	b.WriteString(`{"steps": ["step one text", "step two text", ...]}` + "\n")
	b.WriteString("Reference variables by their exact names above using curly braces, e.g. \"{leg_a}\"; do not invent new variable names. Do not wrap the JSON in markdown fences.")
	return b.String()
}

func diagramSystemPrompt(solver ConceptSolver, variables map[string]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Describe, in one or two sentences of plain text, an interactive diagram that would illustrate a %q problem with these values:\n", solver.Concept)
	for name, val := range variables {
		fmt.Fprintf(&b, "  %s = %g\n", name, val)
	}
	b.WriteString("Respond with plain text only, no JSON, no markdown.")
	return b.String()
}

// extractJSONObject trims any leading/trailing prose or code fences a
// model adds despite instructions, returning the substring from the
// first '{' to the matching last '}'.
func extractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < 0 || end < start {
		return "", fmt.Errorf("generative: no JSON object found in model response")
	}
	return text[start : end+1], nil
}
