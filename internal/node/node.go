// Package node describes graph nodes the way the host discovers them: a typed
// declaration of accepted inputs and returned outputs, plus an Execute entry
// point invoked once per scheduled run.
package node

import (
	"context"
	"errors"
	"fmt"
)

// InputType is the wire type of a node input or output.
type InputType string

const (
	TypeString  InputType = "STRING"
	TypeBoolean InputType = "BOOLEAN"
	TypeInt     InputType = "INT"
	TypeFloat   InputType = "FLOAT"
)

// Input declares a single accepted parameter.
type Input struct {
	Name      string    `json:"name"`
	Type      InputType `json:"type"`
	Default   any       `json:"default,omitempty"`
	Multiline bool      `json:"multiline,omitempty"`
}

// Definition is the static metadata the host uses to list, label and render a node.
type Definition struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	Required    []Input     `json:"required"`
	Optional    []Input     `json:"optional,omitempty"`
	ReturnTypes []InputType `json:"return_types"`
	ReturnNames []string    `json:"return_names"`
	OutputNode  bool        `json:"output_node"`
}

// Node is implemented by every registered node.
type Node interface {
	Definition() Definition
	Execute(ctx context.Context, in Inputs) (Outputs, error)
}

// ErrInvalidInput is wrapped by every input validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Inputs carries the values supplied by the caller for one execution.
type Inputs map[string]any

// String returns the named input as a string. Callers run Validate first, so
// a missing or mistyped value yields "".
func (in Inputs) String(name string) string {
	s, _ := in[name].(string)
	return s
}

// Bool returns the named input as a bool.
func (in Inputs) Bool(name string) bool {
	b, _ := in[name].(bool)
	return b
}

// Validate checks the inputs against def and returns a copy with defaults
// filled in. Unknown inputs are kept untouched.
func (def Definition) Validate(in Inputs) (Inputs, error) {
	out := make(Inputs, len(in))
	for k, v := range in {
		out[k] = v
	}

	for _, input := range def.Required {
		if err := input.apply(out, true); err != nil {
			return nil, err
		}
	}

	for _, input := range def.Optional {
		if err := input.apply(out, false); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (input Input) apply(in Inputs, required bool) error {
	v, ok := in[input.Name]
	if !ok || v == nil {
		if input.Default == nil {
			if required {
				return fmt.Errorf("%w: %q is required", ErrInvalidInput, input.Name)
			}

			return nil
		}

		in[input.Name] = input.Default

		return nil
	}

	if !input.Type.accepts(v) {
		return fmt.Errorf("%w: %q must be %s, got %T", ErrInvalidInput, input.Name, input.Type, v)
	}

	// JSON decodes every number as float64.
	if input.Type == TypeInt {
		if f, ok := v.(float64); ok {
			in[input.Name] = int64(f)
		}
	}

	return nil
}

func (t InputType) accepts(v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeInt:
		switch n := v.(type) {
		case int, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case TypeFloat:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	default:
		return true
	}
}

// Outputs holds the values returned by a node, positionally matching ReturnNames.
type Outputs []any

// Named pairs the outputs with the definition's return names.
func (o Outputs) Named(def Definition) map[string]any {
	named := make(map[string]any, len(o))

	for i, v := range o {
		name := fmt.Sprintf("output_%d", i)
		if i < len(def.ReturnNames) {
			name = def.ReturnNames[i]
		}

		named[name] = v
	}

	return named
}
