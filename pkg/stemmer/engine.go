package stemmer

// Engine runs the stemming pipeline of a Profile. It holds no state, so a
// single Engine can serve any number of profiles and goroutines.
type Engine struct{}

// NewEngine creates a new stemming engine
func NewEngine() *Engine {
	return &Engine{}
}

// StepTrace records what one step did to the word
type StepTrace struct {
	Step    string `json:"step"`
	Input   string `json:"input"`
	Output  string `json:"output"`
	Matched bool   `json:"matched"`
	Suffix  string `json:"suffix,omitempty"` // suffix of the last applied rule
}

// Trace describes a full pipeline run
type Trace struct {
	Profile   string      `json:"profile"`
	Input     string      `json:"input"`
	Exception bool        `json:"exception"`
	Steps     []StepTrace `json:"steps,omitempty"`
	Stem      string      `json:"stem"`
}

// Stem reduces word to its stem using profile p
func (e *Engine) Stem(word string, p *Profile) (string, error) {
	return e.run(word, p, nil)
}

// Explain stems word and returns a trace of every step
func (e *Engine) Explain(word string, p *Profile) (*Trace, error) {
	trace := &Trace{Profile: p.name}
	stem, err := e.run(word, p, trace)
	if err != nil {
		return nil, err
	}
	trace.Stem = stem
	return trace, nil
}

func (e *Engine) run(word string, p *Profile, trace *Trace) (string, error) {
	current := Normalize(word)
	if current == "" {
		return "", &EmptyInputError{Input: word}
	}
	if trace != nil {
		trace.Input = current
	}

	// Exceptions bypass every step
	if stem, ok := p.exceptions.Lookup(current); ok {
		if trace != nil {
			trace.Exception = true
		}
		return stem, nil
	}

	// Steps always chain; the policy only governs rule evaluation inside a step
	for i := range p.steps {
		step := &p.steps[i]
		out, applied := step.run(current)
		if trace != nil {
			st := StepTrace{Step: step.Name, Input: current, Output: out, Matched: applied >= 0}
			if applied >= 0 {
				st.Suffix = step.Rules[applied].Suffix
			}
			trace.Steps = append(trace.Steps, st)
		}
		current = out
	}

	return current, nil
}
