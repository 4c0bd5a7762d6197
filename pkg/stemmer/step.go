package stemmer

import (
	"fmt"
	"strings"
)

// Policy controls how rules are evaluated inside a single step
type Policy int

const (
	// PolicyStopOnMatch applies the first matching rule and ends the step
	PolicyStopOnMatch Policy = iota
	// PolicyContinue keeps scanning the remaining rules against the rewritten word
	PolicyContinue
)

// String returns the string representation of the policy
func (p Policy) String() string {
	switch p {
	case PolicyStopOnMatch:
		return "stop"
	case PolicyContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name. The empty string selects PolicyStopOnMatch.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop", "stop_on_match":
		return PolicyStopOnMatch, nil
	case "continue":
		return PolicyContinue, nil
	default:
		return PolicyStopOnMatch, fmt.Errorf("unknown step policy %q", s)
	}
}

// Step is an ordered group of rules for one morphological category
type Step struct {
	Name   string
	Rules  []Rule
	Policy Policy

	// MinWordLength skips the whole step for shorter words (0 disables the guard)
	MinWordLength int
}

// Run tests the rules in order against word and returns the rewritten word
// and whether any rule was applied.
func (s *Step) Run(word string) (string, bool) {
	out, matched := s.run(word)
	return out, matched >= 0
}

// run returns the index of the last applied rule, or -1
func (s *Step) run(word string) (string, int) {
	if s.MinWordLength > 0 && runeLen(word) < s.MinWordLength {
		return word, -1
	}

	last := -1
	for i := range s.Rules {
		rule := &s.Rules[i]
		if !rule.Matches(word) {
			continue
		}
		word = rule.Apply(word)
		last = i
		if s.Policy != PolicyContinue {
			break
		}
	}
	return word, last
}
