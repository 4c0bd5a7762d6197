// Package rules ships the built-in Portuguese profiles as embedded rule
// documents: orengo (RSLP), savoy (light) and porter.
package rules

import (
	"embed"
	"io/fs"

	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/ruledef"
)

//go:embed data/*.yaml
var data embed.FS

// Builtin names in registration order
var Builtin = []string{"orengo", "savoy", "porter"}

// FS returns the embedded rule documents, rooted at the data directory
func FS() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// RegisterBuiltin registers lazy loaders for every built-in profile
func RegisterBuiltin(reg *registry.Registry) error {
	return ruledef.RegisterFS(reg, FS(), "*.yaml")
}
