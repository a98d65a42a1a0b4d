package stage

import (
	"errors"
	"fmt"
)

// Type is the pipeline stage kind.
type Type string

const (
	Vertex Type = "vertex"
	Pixel  Type = "pixel"
)

// ErrUnknownType is returned when a stage type has no target profile.
var ErrUnknownType = errors.New("unknown stage type")

// profiles maps each stage type to the shader model 6.0 target profile
// passed to the HLSL compiler.
var profiles = map[Type]string{
	Vertex: "vs_6_0",
	Pixel:  "ps_6_0",
}

// Profile resolves the compiler target profile for the stage type.
func (t Type) Profile() (string, error) {
	p, ok := profiles[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, string(t))
	}
	return p, nil
}

// Stage is one declared pipeline stage.
type Stage struct {
	Type Type   `cty:"type"`
	Path string `cty:"path"`
	Fun  string `cty:"fun"`
}

// String renders the stage in the same key=value form it is declared with.
func (s Stage) String() string {
	return fmt.Sprintf("type=%s path=%q fun=%s", s.Type, s.Path, s.Fun)
}
