package graph

import (
	"fmt"

	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
)

// IsCompatible reports whether a and b may be wired together, judged on
// their current types. It is symmetric for pins of the same kind.
func IsCompatible(types *pintype.Catalog, a, b *Pin) bool {
	if a == nil || b == nil {
		return false
	}
	if a.ref == b.ref {
		return false
	}
	if a.IsInput() && b.IsInput() {
		return false
	}
	if a.IsFlow() && b.IsFlow() {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return types.Compatible(a.currentType, b.currentType)
}

// IsCompatible resolves both references and applies the package-level check.
func (g *Graph) IsCompatible(a, b pinref.Ref) (bool, error) {
	pa, err := g.Pin(a)
	if err != nil {
		return false, err
	}
	pb, err := g.Pin(b)
	if err != nil {
		return false, err
	}
	return IsCompatible(g.types, pa, pb), nil
}

// Connect wires an output pin to an input pin, in either argument order.
//
// A gesture the policy rejects (incompatible types, two inputs, two outputs,
// or both pins on one node) returns a nil connection and a nil error. Errors
// are reserved for references that do not resolve.
//
// An existing incoming connection on the input is replaced. A flow output
// drops its previous target. Pins declared Any adopt the partner's type
// before the connection is recorded.
func (g *Graph) Connect(a, b pinref.Ref) (*Connection, error) {
	out, err := g.Pin(a)
	if err != nil {
		return nil, err
	}
	in, err := g.Pin(b)
	if err != nil {
		return nil, err
	}
	if out.IsInput() {
		out, in = in, out
	}
	if out.IsInput() || in.IsOutput() {
		return nil, nil
	}
	if out.ref.Node == in.ref.Node {
		return nil, nil
	}
	if !IsCompatible(g.types, out, in) {
		return nil, nil
	}

	if id, ok := out.outgoing[in.ref]; ok && in.incoming == id {
		c := *g.conns[id]
		return &c, nil
	}

	if in.incoming != 0 {
		g.removeConnection(g.conns[in.incoming])
	}
	if out.IsFlow() {
		for _, id := range out.Outgoing() {
			g.removeConnection(g.conns[id])
		}
	}

	if pintype.IsAny(out.currentType) {
		g.changeDynamicType(out, in.currentType)
	}
	if pintype.IsAny(in.currentType) {
		g.changeDynamicType(in, out.currentType)
	}

	g.lastConn++
	c := &Connection{ID: g.lastConn, From: out.ref, To: in.ref}
	g.conns[c.ID] = c
	out.outgoing[in.ref] = c.ID
	in.incoming = c.ID
	g.observer.OnConnected(*c)

	result := *c
	return &result, nil
}

// Disconnect removes every connection on the referenced pin and returns how
// many were removed.
func (g *Graph) Disconnect(ref pinref.Ref) (int, error) {
	p, err := g.Pin(ref)
	if err != nil {
		return 0, err
	}
	ids := p.connectionIDs()
	for _, id := range ids {
		g.removeConnection(g.conns[id])
	}
	return len(ids), nil
}

// DisconnectConnection removes a single connection.
func (g *Graph) DisconnectConnection(id ConnectionID) error {
	c, ok := g.conns[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownConnection, id)
	}
	g.removeConnection(c)
	return nil
}

// removeConnection clears both ends of c and lets the freed pins fall back
// to their resting types.
func (g *Graph) removeConnection(c *Connection) {
	from := g.mustPin(c.From)
	to := g.mustPin(c.To)

	delete(from.outgoing, c.To)
	to.incoming = 0
	delete(g.conns, c.ID)
	g.observer.OnDisconnected(*c)

	g.revertIfUnbound(to)
	if len(from.outgoing) == 0 {
		g.revertIfUnbound(from)
	}
}

// revertIfUnbound restores declared types once p and every pin sharing a
// type dependency with it are free. While any pin of that group is still
// connected the resolved types stay pinned.
func (g *Graph) revertIfUnbound(p *Pin) {
	if p.IsFlow() || p.IsConnected() {
		return
	}
	group := g.dependencyGroup(p)
	for _, member := range group {
		if member.IsConnected() {
			return
		}
	}
	for _, member := range group {
		g.setType(member, member.desc.DeclaredType)
	}
}

// dependencyGroup returns p and every pin on its node linked to it through
// type dependencies in either direction, in discovery order.
func (g *Graph) dependencyGroup(p *Pin) []*Pin {
	n := g.nodes[p.ref.Node]
	seen := map[string]struct{}{p.ref.Pin: {}}
	group := []*Pin{p}
	for i := 0; i < len(group); i++ {
		cur := group[i]
		linked := n.PinsDependingOn(cur.ref.Pin)
		if src, ok := n.Pin(cur.desc.DependsOn); ok {
			linked = append(linked, src)
		}
		for _, l := range linked {
			if _, dup := seen[l.ref.Pin]; dup {
				continue
			}
			seen[l.ref.Pin] = struct{}{}
			group = append(group, l)
		}
	}
	return group
}
