package curriculum

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// renderTemplate substitutes every "{name}" placeholder in text with the
// formatted value of bindings[name]. It is deliberately not
// text/template: the catalog format uses bare "{name}", not "{{.Name}}",
// to keep pattern authoring approachable for non-Go curriculum writers.
func renderTemplate(text string, bindings map[string]float64, specs map[string]tutor.VariableSpec) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		val, ok := bindings[name]
		if !ok {
			return match
		}
		return formatValue(val, specs[name])
	})
}

func formatValue(val float64, spec tutor.VariableSpec) string {
	switch spec.Kind {
	case tutor.VarInt, tutor.VarChoice:
		return strconv.FormatFloat(math.Round(val), 'f', 0, 64)
	case tutor.VarReal, tutor.VarCalculated:
		if spec.Precision > 0 {
			return strconv.FormatFloat(val, 'f', spec.Precision, 64)
		}
		if val == math.Trunc(val) {
			return strconv.FormatFloat(val, 'f', 0, 64)
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
