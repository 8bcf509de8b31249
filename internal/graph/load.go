package graph

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
)

// Load rebuilds a graph from a payload. Instance ids are kept as given.
//
// Node problems are collected and reported together. Connections are only
// applied once every node resolved, and the first connection that does not
// resolve or that the policy rejects aborts the load. No partial graph is
// ever returned.
//
// The graph is built silently. The observer from opts is installed only on
// success; call Announce to replay the result to it.
func Load(types *pintype.Catalog, cat *catalog.Catalog, payload Payload, opts ...Option) (*Graph, error) {
	g := New(types, opts...)
	observer := g.observer
	g.observer = NoopObserver{}

	var errs []error
	for _, rec := range payload.Nodes {
		desc, err := cat.Lookup(rec.NodeTypeID)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w: %s", rec.InstanceID, ErrUnknownNodeType, rec.NodeTypeID))
			continue
		}
		n, err := g.AddNodeWithID(rec.InstanceID, desc, rec.X, rec.Y)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for pinID, lit := range rec.Arguments {
			if err := g.SetArgument(pinref.New(n.ID, pinID), lit.Value); err != nil {
				errs = append(errs, fmt.Errorf("node %q argument: %w", n.ID, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for i, rec := range payload.Connections {
		from := pinref.New(rec.FromNodeInstanceID, rec.FromPinID)
		to := pinref.New(rec.ToNodeInstanceID, rec.ToPinID)
		if err := g.checkUnoccupied(from, to); err != nil {
			return nil, fmt.Errorf("connection %d (%s -> %s): %w", i, from, to, err)
		}
		c, err := g.Connect(from, to)
		if err != nil {
			return nil, fmt.Errorf("connection %d (%s -> %s): %w", i, from, to, err)
		}
		if c == nil || c.From != from {
			return nil, fmt.Errorf("connection %d (%s -> %s): %w", i, from, to, ErrIncompatiblePins)
		}
	}

	for _, v := range payload.Variables {
		if err := g.SetVariable(v.Name, v.Type, v.Value.Value); err != nil {
			return nil, err
		}
	}
	g.observer = observer
	return g, nil
}

// checkUnoccupied rejects payload connections that would silently replace an
// earlier one: a second source for an input, or a second target for a flow
// output.
func (g *Graph) checkUnoccupied(from, to pinref.Ref) error {
	out, err := g.Pin(from)
	if err != nil {
		return err
	}
	in, err := g.Pin(to)
	if err != nil {
		return err
	}
	if in.IsInput() && in.incoming != 0 {
		return fmt.Errorf("%w: %s already has an incoming connection", ErrIncompatiblePins, to)
	}
	if out.IsOutput() && out.IsFlow() && len(out.outgoing) > 0 {
		return fmt.Errorf("%w: flow output %s already has a target", ErrIncompatiblePins, from)
	}
	return nil
}
