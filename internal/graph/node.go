package graph

import (
	"github.com/specialistvlad/blueprintgo/internal/catalog"
)

// Position is a node's location on the canvas.
type Position struct {
	X float64
	Y float64
}

// Node is a live instance of a catalog template.
type Node struct {
	ID         string
	Descriptor *catalog.NodeDescriptor
	Position   Position

	inputs  []*Pin
	outputs []*Pin
	byID    map[string]*Pin
}

func newNode(id string, desc *catalog.NodeDescriptor, pos Position) *Node {
	n := &Node{
		ID:         id,
		Descriptor: desc,
		Position:   pos,
		inputs:     make([]*Pin, 0, len(desc.Inputs)),
		outputs:    make([]*Pin, 0, len(desc.Outputs)),
		byID:       make(map[string]*Pin, len(desc.Inputs)+len(desc.Outputs)),
	}
	for _, pd := range desc.Inputs {
		p := newPin(id, pd)
		n.inputs = append(n.inputs, p)
		n.byID[pd.ID] = p
	}
	for _, pd := range desc.Outputs {
		p := newPin(id, pd)
		n.outputs = append(n.outputs, p)
		n.byID[pd.ID] = p
	}
	return n
}

// TypeID returns the id of the node's template.
func (n *Node) TypeID() string { return n.Descriptor.TypeID }

// Inputs returns the input pins in template order.
func (n *Node) Inputs() []*Pin { return n.inputs }

// Outputs returns the output pins in template order.
func (n *Node) Outputs() []*Pin { return n.outputs }

// Pin returns the pin with the given id.
func (n *Node) Pin(id string) (*Pin, bool) {
	p, ok := n.byID[id]
	return p, ok
}

// Pins returns inputs followed by outputs.
func (n *Node) Pins() []*Pin {
	all := make([]*Pin, 0, len(n.inputs)+len(n.outputs))
	all = append(all, n.inputs...)
	return append(all, n.outputs...)
}

// PinsDependingOn returns the pins whose type mirrors the given pin.
func (n *Node) PinsDependingOn(pinID string) []*Pin {
	descs := n.Descriptor.DependentsOf(pinID)
	pins := make([]*Pin, 0, len(descs))
	for _, d := range descs {
		pins = append(pins, n.byID[d.ID])
	}
	return pins
}
