package generative

import (
	"regexp"
	"strconv"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// splice substitutes "{name}" placeholders in text with the engine's own
// computed values — this is the mechanism spec §4.3 requires: numbers in
// the rendered solution always come from the sandbox, never from the
// model's own text.
func splice(text string, values map[string]float64) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		val, ok := values[name]
		if !ok {
			return match
		}
		return formatValue(val)
	})
}

func formatValue(val float64) string {
	if val == float64(int64(val)) {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'f', 2, 64)
}
