package render

import "fmt"

// TargetError records one output target's failure. Emission runs every
// target even when siblings fail, so callers collect these rather than
// aborting on the first.
type TargetError struct {
	Emitter string
	Path    string
	Err     error
}

func (e *TargetError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("render: %s: %v", e.Emitter, e.Err)
	}
	return fmt.Sprintf("render: %s -> %s: %v", e.Emitter, e.Path, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// UnknownOverrideError reports a template override key that matches no field
// in the model. Overrides are checked strictly so typos never silently
// disappear.
type UnknownOverrideError struct {
	Block string
	Field string
}

func (e *UnknownOverrideError) Error() string {
	return fmt.Sprintf("render: block %q has no field %q to override", e.Block, e.Field)
}
