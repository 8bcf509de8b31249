// Package pinref provides the canonical address of a live pin: the instance id
// of the node that owns it plus the pin id from the node's descriptor.
//
// The string form is `node.pin`, e.g. `3f1c…e2.result` or `n1.exec_out`.
// Node instance ids never contain a dot; pin ids may not either.
package pinref

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex restricts both halves of an address.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_:-]+$`)

// Ref identifies a pin by its owning node instance and its pin id.
type Ref struct {
	Node string
	Pin  string
}

// New builds a Ref without validating it.
func New(node, pin string) Ref {
	return Ref{Node: node, Pin: pin}
}

// String serializes the Ref into its canonical `node.pin` form.
func (r Ref) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Node + "." + r.Pin
}

// IsZero reports whether the Ref is the empty address.
func (r Ref) IsZero() bool {
	return r.Node == "" && r.Pin == ""
}

// Parse creates a Ref from its canonical string representation.
func Parse(raw string) (Ref, error) {
	if raw == "" {
		return Ref{}, fmt.Errorf("pin address cannot be empty")
	}

	node, pin, ok := strings.Cut(raw, ".")
	if !ok {
		return Ref{}, fmt.Errorf("pin address %q must have the form node.pin", raw)
	}
	if !segmentRegex.MatchString(node) {
		return Ref{}, fmt.Errorf("invalid node segment in pin address %q", raw)
	}
	if !segmentRegex.MatchString(pin) {
		return Ref{}, fmt.Errorf("invalid pin segment in pin address %q", raw)
	}

	return Ref{Node: node, Pin: pin}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constant addresses.
func MustParse(raw string) Ref {
	r, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return r
}
