package ruledef

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mnohosten/ptstem/pkg/registry"
)

// DefaultPattern matches plain and compressed rule documents at any depth
const DefaultPattern = "**/*.{yaml,yml,json,xml,zst,zstd,gz,zz,zlib,sz,snappy}"

// Source is a discovered rule file
type Source struct {
	Name string // algorithm name derived from the file name
	Path string
}

// Loader returns a lazy loader for the source
func (s Source) Loader() registry.Loader {
	return FileLoader{Path: s.Path}
}

// Discover finds rule files below dirs matching pattern (DefaultPattern
// when empty). Files whose name does not carry a known rule format are
// skipped. Two files deriving the same algorithm name are an error.
// Nothing is parsed.
func Discover(dirs []string, pattern string) ([]Source, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid rule file pattern: %s", pattern)
	}

	seen := make(map[string]string)
	var sources []Source

	for _, dir := range dirs {
		matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		sort.Strings(matches)

		for _, m := range matches {
			path := filepath.Join(dir, filepath.FromSlash(m))
			if _, _, err := FormatFromPath(path); err != nil {
				continue
			}
			name := AlgorithmName(path)
			if prev, ok := seen[name]; ok {
				return nil, fmt.Errorf("algorithm %q defined by both %s and %s", name, prev, path)
			}
			seen[name] = path
			sources = append(sources, Source{Name: name, Path: path})
		}
	}

	return sources, nil
}

// Matches reports whether a path relative to a rule directory is a rule
// file under pattern.
func Matches(pattern, rel string) bool {
	if pattern == "" {
		pattern = DefaultPattern
	}
	ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
	if err != nil || !ok {
		return false
	}
	_, _, err = FormatFromPath(rel)
	return err == nil
}

// RegisterAll registers a lazy loader for every source. Sources whose name
// is already registered are reported and skipped; the rest still register.
func RegisterAll(reg *registry.Registry, sources []Source) error {
	var errs []error
	for _, src := range sources {
		if err := reg.Register(src.Name, src.Loader()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.Path, err))
		}
	}
	return errors.Join(errs...)
}

// RegisterFS registers every rule document found in fsys
func RegisterFS(reg *registry.Registry, fsys fs.FS, pattern string) error {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("failed to scan rule set: %w", err)
	}
	sort.Strings(matches)

	var errs []error
	for _, m := range matches {
		if _, _, err := FormatFromPath(m); err != nil {
			continue
		}
		if err := reg.Register(AlgorithmName(m), FSLoader{FS: fsys, Path: m}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m, err))
		}
	}
	return errors.Join(errs...)
}
