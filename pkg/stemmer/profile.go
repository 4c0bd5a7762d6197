package stemmer

import "fmt"

// Definition is the parsed, not yet validated content of a profile as
// delivered by a rule loader.
type Definition struct {
	Name       string
	Steps      []Step
	Exceptions []Exception
}

// Profile is a validated, immutable algorithm: ordered steps plus an
// exception table. A Profile is safe for concurrent use.
type Profile struct {
	name       string
	steps      []Step
	exceptions *ExceptionTable
}

// NewProfile validates def and builds a Profile from a private copy of it
func NewProfile(def Definition) (*Profile, error) {
	if def.Name == "" {
		return nil, &ValidationError{Rule: -1, Reason: "profile name is empty"}
	}
	if len(def.Steps) == 0 {
		return nil, &ValidationError{Profile: def.Name, Rule: -1, Reason: "profile has no steps"}
	}

	steps := make([]Step, len(def.Steps))
	for i, step := range def.Steps {
		if err := validateStep(def.Name, i, step); err != nil {
			return nil, err
		}
		rules := make([]Rule, len(step.Rules))
		for j, r := range step.Rules {
			r.Suffix = Normalize(r.Suffix)
			rules[j] = r
		}
		step.Rules = rules
		steps[i] = step
	}

	exceptions, err := newExceptionTable(def.Name, def.Exceptions)
	if err != nil {
		return nil, err
	}

	return &Profile{
		name:       def.Name,
		steps:      steps,
		exceptions: exceptions,
	}, nil
}

func validateStep(profile string, index int, step Step) error {
	if step.Name == "" {
		return &ValidationError{Profile: profile, Step: fmt.Sprintf("#%d", index), Rule: -1, Reason: "step name is empty"}
	}
	if len(step.Rules) == 0 {
		return &ValidationError{Profile: profile, Step: step.Name, Rule: -1, Reason: "step has no rules"}
	}
	if step.MinWordLength < 0 {
		return &ValidationError{Profile: profile, Step: step.Name, Rule: -1, Reason: "negative minimum word length"}
	}
	if step.Policy != PolicyStopOnMatch && step.Policy != PolicyContinue {
		return &ValidationError{Profile: profile, Step: step.Name, Rule: -1, Reason: fmt.Sprintf("unknown policy %d", step.Policy)}
	}

	for i, r := range step.Rules {
		if r.MinStemLength < 0 {
			return &ValidationError{Profile: profile, Step: step.Name, Rule: i, Reason: "negative minimum stem length"}
		}
		// a catch-all anywhere but last would shadow every rule after it
		if Normalize(r.Suffix) == "" && i != len(step.Rules)-1 {
			return &ValidationError{Profile: profile, Step: step.Name, Rule: i, Reason: "catch-all rule must be the last rule of its step"}
		}
	}
	return nil
}

// Name returns the profile name
func (p *Profile) Name() string {
	return p.name
}

// Steps returns a deep copy of the step list
func (p *Profile) Steps() []Step {
	steps := make([]Step, len(p.steps))
	for i, step := range p.steps {
		step.Rules = append([]Rule(nil), step.Rules...)
		steps[i] = step
	}
	return steps
}

// StepCount returns the number of steps
func (p *Profile) StepCount() int {
	return len(p.steps)
}

// RuleCount returns the total number of rules across all steps
func (p *Profile) RuleCount() int {
	n := 0
	for i := range p.steps {
		n += len(p.steps[i].Rules)
	}
	return n
}

// Exceptions returns the profile's exception table
func (p *Profile) Exceptions() *ExceptionTable {
	return p.exceptions
}
