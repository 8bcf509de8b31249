package catalog

import (
	"github.com/zclconf/go-cty/cty"
)

// PinKind separates control-flow pins from value-carrying pins.
type PinKind int

const (
	KindFlow PinKind = iota
	KindArgument
)

func (k PinKind) String() string {
	switch k {
	case KindFlow:
		return "flow"
	case KindArgument:
		return "argument"
	default:
		return "unknown"
	}
}

// Direction is the side of the node a pin sits on.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// PinDescriptor is the template for one pin slot on a node template.
type PinDescriptor struct {
	ID          string
	Kind        PinKind
	Direction   Direction
	Name        string
	Description string

	// DeclaredType is the normalized declared type. Empty for flow pins.
	DeclaredType string
	// DependsOn names another pin on the same template whose resolved type
	// this pin mirrors. Empty when the pin has no dependency.
	DependsOn string
	// Default is the initial literal for argument inputs. Null otherwise.
	Default cty.Value
}

// IsFlow reports whether the pin carries control flow.
func (p *PinDescriptor) IsFlow() bool { return p.Kind == KindFlow }

// IsInput reports whether the pin is on the input side.
func (p *PinDescriptor) IsInput() bool { return p.Direction == Input }

// NodeDescriptor is the template for a node type.
type NodeDescriptor struct {
	TypeID      string
	Name        string
	Description string
	BaseType    string
	Category    string
	IsPure      bool
	Inputs      []*PinDescriptor
	Outputs     []*PinDescriptor
}

// Pin returns the descriptor of the pin with the given id, searching inputs
// first.
func (n *NodeDescriptor) Pin(id string) (*PinDescriptor, bool) {
	for _, p := range n.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	for _, p := range n.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// DependentsOf returns every pin on the template that declares a dependency
// on the pin with the given id, inputs first, in declaration order.
func (n *NodeDescriptor) DependentsOf(id string) []*PinDescriptor {
	var deps []*PinDescriptor
	for _, p := range n.Inputs {
		if p.DependsOn == id {
			deps = append(deps, p)
		}
	}
	for _, p := range n.Outputs {
		if p.DependsOn == id {
			deps = append(deps, p)
		}
	}
	return deps
}

// Pins returns inputs followed by outputs.
func (n *NodeDescriptor) Pins() []*PinDescriptor {
	all := make([]*PinDescriptor, 0, len(n.Inputs)+len(n.Outputs))
	all = append(all, n.Inputs...)
	return append(all, n.Outputs...)
}
