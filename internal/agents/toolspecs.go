package agents

import "github.com/noble-ngs/tutor-runtime/internal/llmprovider"

var toolSpecs = map[string]llmprovider.ToolSpec{
	toolCheckCalculation: {
		Name:        toolCheckCalculation,
		Description: "Evaluate a whitelisted arithmetic expression against numeric bindings to verify a calculation before stating it as fact.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{"type": "string"},
				"bindings": map[string]any{
					"type":                 "object",
					"additionalProperties": map[string]any{"type": "number"},
				},
			},
			"required": []string{"expression"},
		},
	},
	toolGenerateQuestion: {
		Name:        toolGenerateQuestion,
		Description: "Generate a practice question for a concept at the requested marks and difficulty.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"concept":      map[string]any{"type": "string"},
				"marks":        map[string]any{"type": "integer"},
				"difficulty":   map[string]any{"type": "number"},
				"force_source": map[string]any{"type": "string", "enum": []string{"pattern", "ai"}},
			},
			"required": []string{"concept", "marks", "difficulty"},
		},
	},
	toolGenerateDiagram: {
		Name:        toolGenerateDiagram,
		Description: "Obtain a short text description of a diagram that would help a student visualize a figure or situation.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"description": map[string]any{"type": "string"},
			},
			"required": []string{"description"},
		},
	},
	toolListCatalog: {
		Name:        toolListCatalog,
		Description: "List the curriculum catalog's pattern templates (pattern id, concept, marks, difficulty), optionally filtered by concept, exact marks, and a difficulty band.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"concept":        map[string]any{"type": "string"},
				"marks":          map[string]any{"type": "integer"},
				"min_difficulty": map[string]any{"type": "number"},
				"max_difficulty": map[string]any{"type": "number"},
			},
		},
	},
}

// ToolSpecsFor returns the provider-facing tool specs for an agent's
// allowed tool names, skipping any name with no registered spec.
func ToolSpecsFor(allowedTools []string) []llmprovider.ToolSpec {
	specs := make([]llmprovider.ToolSpec, 0, len(allowedTools))
	for _, name := range allowedTools {
		if spec, ok := toolSpecs[name]; ok {
			specs = append(specs, spec)
		}
	}
	return specs
}
