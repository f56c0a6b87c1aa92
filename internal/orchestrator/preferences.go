package orchestrator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is which engine produced or should produce a Question.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceAI      Source = "ai"
)

// PreferenceTable is the per-concept source preference loaded from
// data/patterns/preferences.yaml (spec §4.4, decided in DESIGN.md's
// Open Question #2).
type PreferenceTable struct {
	patternPreferred map[string]bool
	aiPreferred      map[string]bool
}

type preferencesFile struct {
	PatternPreferred []string `yaml:"pattern_preferred"`
	AIPreferred      []string `yaml:"ai_preferred"`
}

func LoadPreferenceTable(path string) (*PreferenceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read preferences file %s: %w", path, err)
	}
	var file preferencesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("orchestrator: parse preferences file %s: %w", path, err)
	}

	table := &PreferenceTable{
		patternPreferred: make(map[string]bool, len(file.PatternPreferred)),
		aiPreferred:      make(map[string]bool, len(file.AIPreferred)),
	}
	for _, c := range file.PatternPreferred {
		table.patternPreferred[c] = true
	}
	for _, c := range file.AIPreferred {
		table.aiPreferred[c] = true
	}
	return table, nil
}

// Lookup returns the preferred source for concept and true, if concept
// appears in exactly one of the two preference lists.
func (t *PreferenceTable) Lookup(concept string) (Source, bool) {
	_, inPattern := t.patternPreferred[concept]
	_, inAI := t.aiPreferred[concept]
	switch {
	case inPattern && !inAI:
		return SourcePattern, true
	case inAI && !inPattern:
		return SourceAI, true
	default:
		return "", false
	}
}
