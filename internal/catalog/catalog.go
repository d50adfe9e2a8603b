// Package catalog holds the static medical reference tables: body parts,
// symptoms and conditions. The tables are embedded in the binary, validated
// once, and never mutated afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/symptom-checker/backend/pkg/apperr"
)

//go:embed catalog.yaml
var embedded []byte

type document struct {
	BodyParts  []BodyPart  `yaml:"bodyParts"`
	Symptoms   []Symptom   `yaml:"symptoms"`
	Conditions []Condition `yaml:"conditions"`
}

type Catalog struct {
	bodyParts  []BodyPart
	symptoms   []Symptom
	conditions []Condition

	bodyPartIdx  map[string]int
	symptomIdx   map[string]int
	conditionIdx map[string]int
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. An invalid embedded document is a
// build defect, so it panics rather than returning an error.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded definitions are invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(doc.BodyParts, doc.Symptoms, doc.Conditions)
}

// New validates the tables and builds the id indexes.
func New(bodyParts []BodyPart, symptoms []Symptom, conditions []Condition) (*Catalog, error) {
	c := &Catalog{
		bodyPartIdx:  make(map[string]int, len(bodyParts)),
		symptomIdx:   make(map[string]int, len(symptoms)),
		conditionIdx: make(map[string]int, len(conditions)),
	}

	for i, bp := range bodyParts {
		if bp.ID == "" || bp.Name == "" {
			return nil, fmt.Errorf("body part %d: id and name are required", i)
		}
		if _, dup := c.bodyPartIdx[bp.ID]; dup {
			return nil, fmt.Errorf("body part %q: duplicate id", bp.ID)
		}
		c.bodyPartIdx[bp.ID] = i
		c.bodyParts = append(c.bodyParts, bp)
	}

	for i, s := range symptoms {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("symptom %d: id and name are required", i)
		}
		if _, dup := c.symptomIdx[s.ID]; dup {
			return nil, fmt.Errorf("symptom %q: duplicate id", s.ID)
		}
		if len(s.BodyParts) == 0 {
			return nil, fmt.Errorf("symptom %q: at least one body part is required", s.ID)
		}
		seen := make(map[string]struct{}, len(s.BodyParts))
		for _, bp := range s.BodyParts {
			if _, ok := c.bodyPartIdx[bp]; !ok {
				return nil, fmt.Errorf("symptom %q: unknown body part %q", s.ID, bp)
			}
			if _, dup := seen[bp]; dup {
				return nil, fmt.Errorf("symptom %q: body part %q listed twice", s.ID, bp)
			}
			seen[bp] = struct{}{}
		}
		c.symptomIdx[s.ID] = i
		c.symptoms = append(c.symptoms, s.clone())
	}

	for i, cond := range conditions {
		if cond.ID == "" || cond.Name == "" {
			return nil, fmt.Errorf("condition %d: id and name are required", i)
		}
		if _, dup := c.conditionIdx[cond.ID]; dup {
			return nil, fmt.Errorf("condition %q: duplicate id", cond.ID)
		}
		if !cond.Severity.Valid() {
			return nil, fmt.Errorf("condition %q: invalid severity %q", cond.ID, cond.Severity)
		}
		if len(cond.Symptoms) == 0 {
			return nil, fmt.Errorf("condition %q: at least one symptom is required", cond.ID)
		}
		seen := make(map[string]struct{}, len(cond.Symptoms))
		for _, sid := range cond.Symptoms {
			if _, ok := c.symptomIdx[sid]; !ok {
				return nil, fmt.Errorf("condition %q: unknown symptom %q", cond.ID, sid)
			}
			if _, dup := seen[sid]; dup {
				return nil, fmt.Errorf("condition %q: symptom %q listed twice", cond.ID, sid)
			}
			seen[sid] = struct{}{}
		}
		c.conditionIdx[cond.ID] = i
		c.conditions = append(c.conditions, cond.clone())
	}

	return c, nil
}

func (c *Catalog) BodyParts() []BodyPart {
	return append([]BodyPart(nil), c.bodyParts...)
}

func (c *Catalog) Symptoms() []Symptom {
	out := make([]Symptom, len(c.symptoms))
	for i, s := range c.symptoms {
		out[i] = s.clone()
	}
	return out
}

// Conditions returns every condition in catalog order. The matcher relies on
// this order for tie-breaking.
func (c *Catalog) Conditions() []Condition {
	out := make([]Condition, len(c.conditions))
	for i, cond := range c.conditions {
		out[i] = cond.clone()
	}
	return out
}

func (c *Catalog) BodyPart(id string) (BodyPart, error) {
	i, ok := c.bodyPartIdx[id]
	if !ok {
		return BodyPart{}, apperr.NotFound("body part", id)
	}
	return c.bodyParts[i], nil
}

func (c *Catalog) Symptom(id string) (Symptom, error) {
	i, ok := c.symptomIdx[id]
	if !ok {
		return Symptom{}, apperr.NotFound("symptom", id)
	}
	return c.symptoms[i].clone(), nil
}

func (c *Catalog) Condition(id string) (Condition, error) {
	i, ok := c.conditionIdx[id]
	if !ok {
		return Condition{}, apperr.NotFound("condition", id)
	}
	return c.conditions[i].clone(), nil
}

type SymptomFilter struct {
	BodyPart string
	Search   string
}

// FilterSymptoms applies the symptom picker rules: search text, when present,
// matches names case-insensitively across the whole catalog and ignores the
// body part; otherwise the body part narrows the list.
func (c *Catalog) FilterSymptoms(f SymptomFilter) []Symptom {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Symptom, 0, len(c.symptoms))
	for _, s := range c.symptoms {
		switch {
		case search != "":
			if !strings.Contains(strings.ToLower(s.Name), search) {
				continue
			}
		case f.BodyPart != "":
			if !s.HasBodyPart(f.BodyPart) {
				continue
			}
		}
		out = append(out, s.clone())
	}
	return out
}
