package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/blueprintgo/internal/pintype"
)

var (
	// ErrMalformed is returned when catalog data violates the template rules.
	ErrMalformed = errors.New("malformed node catalog")
	// ErrUnknownNodeType is returned when a node type id is not in the catalog.
	ErrUnknownNodeType = errors.New("unknown node type")
)

// Catalog is an immutable, validated set of node templates.
type Catalog struct {
	nodes map[string]*NodeDescriptor
	order []string
}

// New validates the given descriptors and returns a catalog holding them in
// the order given. Every rule violation is reported, not just the first one.
func New(descs ...*NodeDescriptor) (*Catalog, error) {
	c := &Catalog{nodes: make(map[string]*NodeDescriptor, len(descs))}
	var errs []string

	for _, d := range descs {
		if d == nil {
			errs = append(errs, "nil node descriptor")
			continue
		}
		if d.TypeID == "" {
			errs = append(errs, fmt.Sprintf("node %q: empty node type id", d.Name))
			continue
		}
		if _, dup := c.nodes[d.TypeID]; dup {
			errs = append(errs, fmt.Sprintf("node %q: declared more than once", d.TypeID))
			continue
		}
		errs = append(errs, validateNode(d)...)
		c.nodes[d.TypeID] = d
		c.order = append(c.order, d.TypeID)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w:\n- %s", ErrMalformed, strings.Join(errs, "\n- "))
	}
	return c, nil
}

// validateNode checks the pin rules of a single template. Argument pins
// without a declared type are normalized to Any in place.
func validateNode(d *NodeDescriptor) []string {
	var errs []string
	seen := make(map[string]struct{})

	for _, p := range d.Pins() {
		if p.ID == "" {
			errs = append(errs, fmt.Sprintf("node %q: pin with empty id", d.TypeID))
			continue
		}
		if _, dup := seen[p.ID]; dup {
			errs = append(errs, fmt.Sprintf("node %q: duplicate pin id %q", d.TypeID, p.ID))
		}
		seen[p.ID] = struct{}{}

		switch p.Kind {
		case KindFlow:
			if d.IsPure {
				errs = append(errs, fmt.Sprintf("node %q: pure node declares flow pin %q", d.TypeID, p.ID))
			}
			if p.DependsOn != "" {
				errs = append(errs, fmt.Sprintf("node %q: flow pin %q cannot depend on another pin", d.TypeID, p.ID))
			}
			p.DeclaredType = ""
		case KindArgument:
			p.DeclaredType = pintype.Normalize(p.DeclaredType)
			if p.DeclaredType == "" {
				p.DeclaredType = pintype.Any
			}
		default:
			errs = append(errs, fmt.Sprintf("node %q: pin %q has unknown kind %d", d.TypeID, p.ID, p.Kind))
		}
	}

	for _, p := range d.Pins() {
		if p.DependsOn == "" {
			continue
		}
		if p.DependsOn == p.ID {
			errs = append(errs, fmt.Sprintf("node %q: pin %q depends on itself", d.TypeID, p.ID))
			continue
		}
		src, ok := d.Pin(p.DependsOn)
		if !ok {
			errs = append(errs, fmt.Sprintf("node %q: pin %q depends on unknown pin %q", d.TypeID, p.ID, p.DependsOn))
			continue
		}
		if src.Kind != KindArgument {
			errs = append(errs, fmt.Sprintf("node %q: pin %q depends on flow pin %q", d.TypeID, p.ID, p.DependsOn))
		}
	}
	return errs
}

// Lookup returns the template with the given node type id.
func (c *Catalog) Lookup(typeID string) (*NodeDescriptor, error) {
	d, ok := c.nodes[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, typeID)
	}
	return d, nil
}

// Descriptors returns all templates in catalog order.
func (c *Catalog) Descriptors() []*NodeDescriptor {
	out := make([]*NodeDescriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.nodes[id])
	}
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.order)
}
