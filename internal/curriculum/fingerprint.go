package curriculum

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// fingerprint produces a stable key for a sampled binding set so Engine
// can detect "the same question again" for the uniqueness guarantee in
// spec §4.2. Only the schema's own variables are included — a
// calculated variable's value is a deterministic function of the others,
// so including it would never add distinguishing information.
func fingerprint(tmpl tutor.PatternTemplate, bindings map[string]float64) string {
	names := make([]string, 0, len(tmpl.VariableSchema))
	for _, v := range tmpl.VariableSchema {
		if v.Kind == tutor.VarCalculated {
			continue
		}
		names = append(names, v.Name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%g;", name, bindings[name])
	}
	return b.String()
}
