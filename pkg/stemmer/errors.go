package stemmer

import "fmt"

// EmptyInputError is returned when a word is empty after normalization
type EmptyInputError struct {
	Input string
}

func (e *EmptyInputError) Error() string {
	if e.Input == "" {
		return "empty input word"
	}
	return fmt.Sprintf("empty input word: %q normalizes to nothing", e.Input)
}

// ValidationError describes a structural defect found in a profile definition
type ValidationError struct {
	Profile string
	Step    string
	Rule    int // index of the offending rule, -1 when not rule specific
	Reason  string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Step != "" && e.Rule >= 0:
		return fmt.Sprintf("profile %q step %q rule %d: %s", e.Profile, e.Step, e.Rule, e.Reason)
	case e.Step != "":
		return fmt.Sprintf("profile %q step %q: %s", e.Profile, e.Step, e.Reason)
	default:
		return fmt.Sprintf("profile %q: %s", e.Profile, e.Reason)
	}
}
