package ruledef

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/mnohosten/ptstem/pkg/stemmer"
)

// FileLoader loads a profile from a rule file on disk each time Load is
// called. Nothing is read until the profile is first resolved.
type FileLoader struct {
	Path string
}

// Load reads, decompresses and decodes the rule file
func (l FileLoader) Load() (stemmer.Definition, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return stemmer.Definition{}, fmt.Errorf("failed to read rule file: %w", err)
	}
	return definitionFrom(l.Path, data)
}

// FSLoader loads a profile from a file in an fs.FS, such as an embedded
// rule set.
type FSLoader struct {
	FS   fs.FS
	Path string
}

// Load reads, decompresses and decodes the rule file
func (l FSLoader) Load() (stemmer.Definition, error) {
	data, err := fs.ReadFile(l.FS, l.Path)
	if err != nil {
		return stemmer.Definition{}, fmt.Errorf("failed to read rule file: %w", err)
	}
	return definitionFrom(l.Path, data)
}

// LoadFile parses and validates a rule file, returning the built profile.
// Used by tooling that wants errors up front instead of on first use.
func LoadFile(path string) (*Document, *stemmer.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	doc, err := Parse(path, data)
	if err != nil {
		return nil, nil, err
	}
	def, err := doc.Definition()
	if err != nil {
		return nil, nil, withSource(err, path)
	}
	if def.Name == "" {
		def.Name = AlgorithmName(path)
	}
	profile, err := stemmer.NewProfile(def)
	if err != nil {
		return nil, nil, err
	}
	return doc, profile, nil
}

func definitionFrom(path string, data []byte) (stemmer.Definition, error) {
	doc, err := Parse(path, data)
	if err != nil {
		return stemmer.Definition{}, err
	}
	def, err := doc.Definition()
	if err != nil {
		return stemmer.Definition{}, withSource(err, path)
	}
	return def, nil
}

func withSource(err error, path string) error {
	if se, ok := err.(*SchemaError); ok && se.Source == "" {
		se.Source = path
	}
	return err
}
