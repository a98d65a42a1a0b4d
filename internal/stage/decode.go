package stage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrMalformedToken is returned for a stage argument token that is not of
// the form key=value.
var ErrMalformedToken = errors.New("malformed stage argument")

// Keys lists the attributes every stage declaration must provide, in the
// order they are documented.
var Keys = []string{"type", "path", "fun"}

// ParseTokens builds a Stage from one group of key=value tokens, e.g.
// `type=vertex path="shaders/basic.hlsl" fun=VSMain`. Surrounding quote
// characters are stripped from values. The stage type is not checked here.
func ParseTokens(tokens []string) (Stage, error) {
	values := make(map[string]cty.Value, len(tokens))
	for _, tok := range tokens {
		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			return Stage{}, fmt.Errorf("%w %q: expected key=value", ErrMalformedToken, tok)
		}
		key = strings.TrimSpace(key)
		if _, dup := values[key]; dup {
			return Stage{}, fmt.Errorf("stage key %q given more than once", key)
		}
		values[key] = cty.StringVal(strings.Trim(val, `"'`))
	}
	return FromValues(values)
}

// FromValues builds a Stage from already-evaluated attribute values. Unknown
// keys, missing keys and empty values are rejected. Non-string values are
// converted to strings where cty allows it.
func FromValues(values map[string]cty.Value) (Stage, error) {
	var unknown []string
	for key := range values {
		if !isKey(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Stage{}, fmt.Errorf("unknown stage key(s) %s: expected %s",
			strings.Join(unknown, ", "), strings.Join(Keys, ", "))
	}
	for _, key := range Keys {
		v, ok := values[key]
		if !ok || v.IsNull() {
			return Stage{}, fmt.Errorf("missing required stage key %q", key)
		}
	}

	var s Stage
	ty, err := gocty.ImpliedType(s)
	if err != nil {
		return Stage{}, fmt.Errorf("unable to infer stage type: %w", err)
	}
	converted, err := convert.Convert(cty.ObjectVal(values), ty)
	if err != nil {
		return Stage{}, fmt.Errorf("invalid stage declaration: %w", err)
	}
	if err := gocty.FromCtyValue(converted, &s); err != nil {
		return Stage{}, fmt.Errorf("invalid stage declaration: %w", err)
	}

	decoded := map[string]string{"type": string(s.Type), "path": s.Path, "fun": s.Fun}
	for _, key := range Keys {
		if decoded[key] == "" {
			return Stage{}, fmt.Errorf("stage key %q must not be empty", key)
		}
	}
	return s, nil
}

func isKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
