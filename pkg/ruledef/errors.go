package ruledef

import "fmt"

// SchemaError reports a rule document that cannot be decoded or is
// missing required content.
type SchemaError struct {
	Source string // file the document came from, if known
	Path   string // field path within the document, if known
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s", e.Source, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
