// Package curriculum loads the pattern template catalog and implements
// PatternEngine: deterministic question generation by variable sampling
// and sandboxed template evaluation.
package curriculum

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/noble-ngs/tutor-runtime/internal/tutorerr"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// catalogFile is the on-disk shape of one YAML file under data/patterns/:
// a list of templates, so authors can group related patterns (e.g. all
// quadratic-equation patterns) in one file.
type catalogFile struct {
	Patterns []tutor.PatternTemplate `yaml:"patterns"`
}

// Catalog is the validated, in-memory set of every pattern template
// loaded at startup.
type Catalog struct {
	byID      map[string]tutor.PatternTemplate
	byConcept map[string][]string // concept -> pattern_ids, stable order
}

// LoadCatalog reads every *.yaml/*.yml file in dir, parses it as a
// catalogFile, and validates each template in turn. A single malformed
// or invalid template fails the whole load: a curriculum catalog with a
// silently-dropped pattern is worse than one that refuses to start.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("curriculum: read catalog dir %s: %w", dir, err)
	}

	cat := &Catalog{
		byID:      make(map[string]tutor.PatternTemplate),
		byConcept: make(map[string][]string),
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("curriculum: read %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("curriculum: parse %s: %w", path, err)
		}
		for _, tmpl := range file.Patterns {
			if err := validateTemplate(tmpl); err != nil {
				return nil, fmt.Errorf("curriculum: %s: pattern %q: %w", path, tmpl.PatternID, err)
			}
			if _, dup := cat.byID[tmpl.PatternID]; dup {
				return nil, fmt.Errorf("curriculum: %s: duplicate pattern_id %q", path, tmpl.PatternID)
			}
			cat.byID[tmpl.PatternID] = tmpl
			cat.byConcept[tmpl.Concept] = append(cat.byConcept[tmpl.Concept], tmpl.PatternID)
		}
	}

	if len(cat.byID) == 0 {
		return nil, fmt.Errorf("curriculum: no patterns found in %s", dir)
	}

	for concept := range cat.byConcept {
		sort.Strings(cat.byConcept[concept])
	}

	return cat, nil
}

// Get returns the template for patternID.
func (c *Catalog) Get(patternID string) (tutor.PatternTemplate, error) {
	tmpl, ok := c.byID[patternID]
	if !ok {
		return tutor.PatternTemplate{}, tutorerr.New(tutorerr.KindInputInvalid, fmt.Sprintf("unknown pattern_id %q", patternID))
	}
	return tmpl, nil
}

// List returns templates for concept (or every template if concept is
// empty), optionally filtered by exact marks and/or a closed difficulty
// band [minDifficulty, maxDifficulty]. A zero band (both ends zero)
// means no difficulty filtering.
func (c *Catalog) List(concept string, marks *int, minDifficulty, maxDifficulty float64) []tutor.PatternTemplate {
	var ids []string
	if concept == "" {
		for _, list := range c.byConcept {
			ids = append(ids, list...)
		}
		sort.Strings(ids)
	} else {
		ids = c.byConcept[concept]
	}

	out := make([]tutor.PatternTemplate, 0, len(ids))
	for _, id := range ids {
		tmpl := c.byID[id]
		if marks != nil && tmpl.Marks != *marks {
			continue
		}
		if minDifficulty != 0 || maxDifficulty != 0 {
			if tmpl.Difficulty < minDifficulty || tmpl.Difficulty > maxDifficulty {
				continue
			}
		}
		out = append(out, tmpl)
	}
	return out
}
