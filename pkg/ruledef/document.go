// Package ruledef reads stemming profiles from rule documents.
//
// A rule document describes one algorithm: its ordered steps, the rules of
// every step and the whole-word exception table. Documents may be written
// in YAML, JSON or XML and may be compressed; the format is chosen by file
// extension ("orengo.yaml", "savoy.json.gz", "porter.xml.zst").
package ruledef

import (
	"encoding/xml"
	"fmt"

	"github.com/mnohosten/ptstem/pkg/stemmer"
)

// Document is the serialized form of a profile
type Document struct {
	XMLName     xml.Name       `yaml:"-" json:"-" xml:"profile"`
	Name        string         `yaml:"name,omitempty" json:"name,omitempty" xml:"name,attr,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty" xml:"description,omitempty"`
	Steps       []StepDef      `yaml:"steps" json:"steps" xml:"step"`
	Exceptions  []ExceptionDef `yaml:"exceptions,omitempty" json:"exceptions,omitempty" xml:"exceptions>exception,omitempty"`
}

// StepDef is one step of a document
type StepDef struct {
	Name          string    `yaml:"name" json:"name" xml:"name,attr"`
	Policy        string    `yaml:"policy,omitempty" json:"policy,omitempty" xml:"policy,attr,omitempty"`
	MinWordLength int       `yaml:"min_word_length,omitempty" json:"min_word_length,omitempty" xml:"min_word_length,attr,omitempty"`
	Rules         []RuleDef `yaml:"rules" json:"rules" xml:"rule"`
}

// RuleDef is one suffix rule. MinStemLength is required.
type RuleDef struct {
	Suffix        string   `yaml:"suffix" json:"suffix" xml:"suffix,attr"`
	MinStemLength *int     `yaml:"min_stem_length" json:"min_stem_length" xml:"min_stem_length,attr"`
	Replacement   string   `yaml:"replacement,omitempty" json:"replacement,omitempty" xml:"replacement,attr,omitempty"`
	Exceptions    []string `yaml:"exceptions,omitempty" json:"exceptions,omitempty" xml:"exception,omitempty"`
}

// ExceptionDef maps a whole word to its stem
type ExceptionDef struct {
	Word string `yaml:"word" json:"word" xml:"word,attr"`
	Stem string `yaml:"stem" json:"stem" xml:"stem,attr"`
}

// Definition converts the document into an unvalidated stemmer definition.
// Only document-level problems (missing fields, unknown policies) are
// reported here; structural validation happens when the profile is built.
func (d *Document) Definition() (stemmer.Definition, error) {
	def := stemmer.Definition{
		Name:  d.Name,
		Steps: make([]stemmer.Step, 0, len(d.Steps)),
	}

	for i, sd := range d.Steps {
		policy, err := stemmer.ParsePolicy(sd.Policy)
		if err != nil {
			return stemmer.Definition{}, &SchemaError{
				Path:   fmt.Sprintf("steps[%d].policy", i),
				Reason: err.Error(),
			}
		}

		step := stemmer.Step{
			Name:          sd.Name,
			Policy:        policy,
			MinWordLength: sd.MinWordLength,
			Rules:         make([]stemmer.Rule, 0, len(sd.Rules)),
		}
		for j, rd := range sd.Rules {
			if rd.MinStemLength == nil {
				return stemmer.Definition{}, &SchemaError{
					Path:   fmt.Sprintf("steps[%d].rules[%d].min_stem_length", i, j),
					Reason: "required field is missing",
				}
			}
			step.Rules = append(step.Rules, stemmer.NewRule(rd.Suffix, *rd.MinStemLength, rd.Replacement, rd.Exceptions...))
		}
		def.Steps = append(def.Steps, step)
	}

	for _, ed := range d.Exceptions {
		def.Exceptions = append(def.Exceptions, stemmer.Exception{Word: ed.Word, Stem: ed.Stem})
	}

	return def, nil
}

// Intp returns a pointer to v, for building documents in code
func Intp(v int) *int {
	return &v
}
