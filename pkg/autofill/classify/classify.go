// Package classify assigns field types to form fields with ordered glob
// rules over the field's autocomplete token, name, id and label.
package classify

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/formforest/pkg/autofill/form"
)

// Rule maps a field to Type when one of its autocomplete tokens equals an
// entry of Autocomplete, its control type is listed in ControlTypes, or its
// lowercased name, id or label matches one of Patterns.
type Rule struct {
	Type         form.FieldType `yaml:"type" json:"type"`
	Autocomplete []string       `yaml:"autocomplete,omitempty" json:"autocomplete,omitempty"`
	ControlTypes []string       `yaml:"control_types,omitempty" json:"control_types,omitempty"`
	Patterns     []string       `yaml:"patterns,omitempty" json:"patterns,omitempty"`
}

type compiledRule struct {
	fieldType    form.FieldType
	autocomplete map[string]bool
	controlTypes map[string]bool
	patterns     []glob.Glob
}

// Classifier evaluates rules in order. Autocomplete tokens take precedence
// over every pattern; among patterns the first matching rule wins.
type Classifier struct {
	rules []compiledRule
}

// New compiles rules.
func New(rules []Rule) (*Classifier, error) {
	c := &Classifier{}
	for i, r := range rules {
		if !r.Type.IsKnown() {
			return nil, fmt.Errorf("rule %d: unknown field type %q", i, r.Type)
		}
		cr := compiledRule{
			fieldType:    r.Type,
			autocomplete: make(map[string]bool, len(r.Autocomplete)),
			controlTypes: make(map[string]bool, len(r.ControlTypes)),
		}
		for _, token := range r.Autocomplete {
			cr.autocomplete[strings.ToLower(token)] = true
		}
		for _, ct := range r.ControlTypes {
			cr.controlTypes[strings.ToLower(ct)] = true
		}
		for _, pattern := range r.Patterns {
			g, err := glob.Compile(strings.ToLower(pattern))
			if err != nil {
				return nil, fmt.Errorf("rule %d: invalid pattern '%s': %w", i, pattern, err)
			}
			cr.patterns = append(cr.patterns, g)
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("default classifier rules: %v", err))
	}
	return c
}

// Classify returns the type of field, or form.FieldTypeUnknown.
func (c *Classifier) Classify(field form.FormFieldData) form.FieldType {
	for _, token := range autocompleteTokens(field.Autocomplete) {
		for _, r := range c.rules {
			if r.autocomplete[token] {
				return r.fieldType
			}
		}
	}

	controlType := strings.ToLower(field.FormControlType)
	subjects := matchSubjects(field)
	for _, r := range c.rules {
		if r.controlTypes[controlType] {
			return r.fieldType
		}
		for _, g := range r.patterns {
			for _, s := range subjects {
				if g.Match(s) {
					return r.fieldType
				}
			}
		}
	}
	return form.FieldTypeUnknown
}

// ClassifyForm classifies every field of f, typically a browser form.
// Unknown fields are left out of the map.
func (c *Classifier) ClassifyForm(f form.FormData) form.FieldTypeMap {
	types := make(form.FieldTypeMap, len(f.Fields))
	for _, field := range f.Fields {
		if t := c.Classify(field); t != form.FieldTypeUnknown {
			types[field.GlobalID()] = t
		}
	}
	return types
}

// autocompleteTokens returns the field-name token of an autocomplete
// attribute first, followed by the remaining tokens, so that
// "shipping postal-code" yields "postal-code".
func autocompleteTokens(attr string) []string {
	tokens := strings.Fields(strings.ToLower(attr))
	if len(tokens) < 2 {
		return tokens
	}
	last := len(tokens) - 1
	return append([]string{tokens[last]}, tokens[:last]...)
}

func matchSubjects(field form.FormFieldData) []string {
	var subjects []string
	for _, s := range []string{field.Name, field.IDAttribute, field.Label} {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			subjects = append(subjects, s)
		}
	}
	return subjects
}
