package curriculum

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// placeholderBeforePowerRe finds "{name}" immediately followed (modulo
// whitespace) by "**" — the shape spec §4.1 calls out as a trap: an
// unparenthesized signed substitution into a power expression silently
// changes the sign of the result, because unary minus binds weaker than
// exponentiation.
var placeholderBeforePowerRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}\s*\*\*`)

// validateTemplate performs the one-time catalog-load checks spec §4.2
// requires: variable order/forward-reference soundness and the
// power-parenthesization trap. It never touches the sandbox directly —
// "calculated" expressions are checked for dangling references only;
// their arithmetic is validated for real at generation time by the
// sandbox itself.
func validateTemplate(t tutor.PatternTemplate) error {
	if t.PatternID == "" {
		return fmt.Errorf("pattern_id is required")
	}
	if t.Concept == "" {
		return fmt.Errorf("concept is required")
	}
	if t.TextTemplate == "" {
		return fmt.Errorf("text_template is required")
	}
	if t.AnswerTemplate == "" {
		return fmt.Errorf("answer_template is required")
	}

	declared := make(map[string]bool, len(t.VariableSchema))
	maybeNegative := make(map[string]bool, len(t.VariableSchema))

	for i, v := range t.VariableSchema {
		if v.Name == "" {
			return fmt.Errorf("variable_schema[%d]: name is required", i)
		}
		if declared[v.Name] {
			return fmt.Errorf("variable_schema[%d]: duplicate variable %q", i, v.Name)
		}

		switch v.Kind {
		case tutor.VarInt, tutor.VarReal:
			if v.Min > v.Max {
				return fmt.Errorf("variable %q: min %v exceeds max %v", v.Name, v.Min, v.Max)
			}
			maybeNegative[v.Name] = v.Min < 0
		case tutor.VarChoice:
			if len(v.Options) == 0 {
				return fmt.Errorf("variable %q: choice kind requires options", v.Name)
			}
			for _, o := range v.Options {
				if o < 0 {
					maybeNegative[v.Name] = true
				}
			}
		case tutor.VarCalculated:
			if v.Expression == "" {
				return fmt.Errorf("variable %q: calculated kind requires expression", v.Name)
			}
			for _, ref := range identRe.FindAllString(v.Expression, -1) {
				if isSandboxBuiltin(ref) {
					continue
				}
				if !declared[ref] {
					return fmt.Errorf("variable %q: expression references %q before it is declared", v.Name, ref)
				}
			}
			// A calculated variable's sign is unknown without running
			// the sandbox; treat it as potentially negative so the
			// power-parenthesization check below still fires for it.
			maybeNegative[v.Name] = true
		default:
			return fmt.Errorf("variable %q: unknown kind %q", v.Name, v.Kind)
		}

		declared[v.Name] = true
	}

	texts := append([]string{t.TextTemplate, t.AnswerTemplate}, t.SolutionTemplate...)
	for _, text := range texts {
		if err := checkPowerParenthesization(text, maybeNegative); err != nil {
			return err
		}
	}

	return nil
}

func checkPowerParenthesization(text string, maybeNegative map[string]bool) error {
	for _, match := range placeholderBeforePowerRe.FindAllStringSubmatchIndex(text, -1) {
		name := text[match[2]:match[3]]
		if !maybeNegative[name] {
			continue
		}
		placeholderStart := match[0]
		if placeholderStart > 0 && strings.TrimSpace(text[:placeholderStart]) != "" {
			preceding := strings.TrimRight(text[:placeholderStart], " \t")
			if strings.HasSuffix(preceding, "(") {
				continue
			}
		}
		return fmt.Errorf("template substitutes signed variable %q directly before '**' without parentheses; use (%s)**... instead", name, "{"+name+"}")
	}
	return nil
}

func isSandboxBuiltin(name string) bool {
	switch name {
	case "abs", "round", "min", "max", "int", "float", "pow", "sum",
		"sqrt", "sin", "cos", "tan", "asin", "acos", "atan",
		"radians", "degrees", "gcd", "lcm", "pi", "e",
		"and", "or", "not", "if", "else":
		return true
	default:
		return false
	}
}
