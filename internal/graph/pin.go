package graph

import (
	"sort"

	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/zclconf/go-cty/cty"
)

// ConnectionID identifies a connection inside one graph. Zero means "none".
type ConnectionID uint64

// Connection is a directed edge from an output pin to an input pin.
type Connection struct {
	ID   ConnectionID
	From pinref.Ref
	To   pinref.Ref
}

// Pin is a live pin bound to a node instance.
type Pin struct {
	ref         pinref.Ref
	desc        *catalog.PinDescriptor
	currentType string
	value       cty.Value

	// incoming is the single connection feeding an input pin.
	incoming ConnectionID
	// outgoing holds an output pin's connections keyed by target pin, which
	// guarantees at most one connection per target.
	outgoing map[pinref.Ref]ConnectionID
}

func newPin(nodeID string, desc *catalog.PinDescriptor) *Pin {
	value := desc.Default
	if value == cty.NilVal {
		value = cty.NullVal(cty.DynamicPseudoType)
	}
	p := &Pin{
		ref:         pinref.New(nodeID, desc.ID),
		desc:        desc,
		currentType: desc.DeclaredType,
		value:       value,
	}
	if desc.Direction == catalog.Output {
		p.outgoing = make(map[pinref.Ref]ConnectionID)
	}
	return p
}

// Ref returns the pin's address.
func (p *Pin) Ref() pinref.Ref { return p.ref }

// Descriptor returns the shared template of the pin.
func (p *Pin) Descriptor() *catalog.PinDescriptor { return p.desc }

// Kind returns the pin kind.
func (p *Pin) Kind() catalog.PinKind { return p.desc.Kind }

// Direction returns the pin direction.
func (p *Pin) Direction() catalog.Direction { return p.desc.Direction }

// IsInput reports whether the pin is an input.
func (p *Pin) IsInput() bool { return p.desc.Direction == catalog.Input }

// IsOutput reports whether the pin is an output.
func (p *Pin) IsOutput() bool { return p.desc.Direction == catalog.Output }

// IsFlow reports whether the pin carries control flow.
func (p *Pin) IsFlow() bool { return p.desc.Kind == catalog.KindFlow }

// IsArgument reports whether the pin carries a value.
func (p *Pin) IsArgument() bool { return p.desc.Kind == catalog.KindArgument }

// CurrentType returns the resolved type. Empty for flow pins.
func (p *Pin) CurrentType() string { return p.currentType }

// Value returns the literal assigned to an argument input.
func (p *Pin) Value() cty.Value { return p.value }

// IsConnected reports whether the pin takes part in any connection.
func (p *Pin) IsConnected() bool {
	return p.incoming != 0 || len(p.outgoing) > 0
}

// Incoming returns the id of the connection feeding an input pin.
func (p *Pin) Incoming() (ConnectionID, bool) {
	return p.incoming, p.incoming != 0
}

// Outgoing returns the ids of an output pin's connections in creation order.
func (p *Pin) Outgoing() []ConnectionID {
	ids := make([]ConnectionID, 0, len(p.outgoing))
	for _, id := range p.outgoing {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// connectionIDs returns every connection the pin takes part in.
func (p *Pin) connectionIDs() []ConnectionID {
	if p.IsInput() {
		if p.incoming == 0 {
			return nil
		}
		return []ConnectionID{p.incoming}
	}
	return p.Outgoing()
}
