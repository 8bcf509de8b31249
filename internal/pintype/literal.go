package pintype

import (
	"bytes"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Literal is an argument value exchanged with the execution backend. It wraps
// a cty.Value and encodes to plain JSON (no type envelope).
type Literal struct {
	cty.Value
}

// Null is the literal used when a pin has no value at all.
func Null() Literal {
	return Literal{Value: cty.NullVal(cty.DynamicPseudoType)}
}

// NewLiteral wraps v, treating the zero cty.Value as null.
func NewLiteral(v cty.Value) Literal {
	if v == cty.NilVal {
		return Null()
	}
	return Literal{Value: v}
}

// MarshalJSON implements json.Marshaler.
func (l Literal) MarshalJSON() ([]byte, error) {
	if l.Value == cty.NilVal || l.Value.IsNull() {
		return []byte("null"), nil
	}
	if !l.Value.IsWhollyKnown() {
		return nil, fmt.Errorf("cannot encode unknown value of type %s", l.Value.Type().FriendlyName())
	}
	return ctyjson.SimpleJSONValue{Value: l.Value}.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. The cty type is implied from the
// JSON document itself.
func (l *Literal) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = Null()
		return nil
	}
	ty, err := ctyjson.ImpliedType(trimmed)
	if err != nil {
		return fmt.Errorf("failed to infer literal type: %w", err)
	}
	v, err := ctyjson.Unmarshal(trimmed, ty)
	if err != nil {
		return fmt.Errorf("failed to decode literal: %w", err)
	}
	l.Value = v
	return nil
}

// Tag converts v to the cty type of the declared pin type when a lossless
// conversion exists, and returns v unchanged otherwise. Literals are tagged,
// not validated: the backend sanitizes values itself.
func Tag(v cty.Value, declared string) cty.Value {
	if v == cty.NilVal || v.IsNull() {
		return v
	}
	target := CtyType(declared)
	if target == cty.DynamicPseudoType || v.Type().Equals(target) {
		return v
	}
	converted, err := convert.Convert(v, target)
	if err != nil {
		return v
	}
	return converted
}
