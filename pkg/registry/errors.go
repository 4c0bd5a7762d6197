package registry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyRegistered is returned when a name already has a loader
var ErrAlreadyRegistered = errors.New("algorithm already registered")

// UnknownAlgorithmError is returned when no loader is registered under a name
type UnknownAlgorithmError struct {
	Name      string
	Available []string
}

func (e *UnknownAlgorithmError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown algorithm %q", e.Name)
	}
	return fmt.Sprintf("unknown algorithm %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// ProfileLoadError is returned when a profile's data cannot be loaded or is invalid
type ProfileLoadError struct {
	Name string
	Err  error
}

func (e *ProfileLoadError) Error() string {
	return fmt.Sprintf("failed to load profile %q: %v", e.Name, e.Err)
}

func (e *ProfileLoadError) Unwrap() error {
	return e.Err
}
