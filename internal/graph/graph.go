package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// Variable is a graph-level named value made available to every node at
// execution time.
type Variable struct {
	Name  string
	Type  string
	Value cty.Value
}

// Graph is the live model of one blueprint document.
type Graph struct {
	types    *pintype.Catalog
	observer Observer
	newID    func() string

	nodes map[string]*Node
	order []string

	conns    map[ConnectionID]*Connection
	lastConn ConnectionID

	variables map[string]*Variable
	varOrder  []string
}

// Option configures a Graph.
type Option func(*Graph)

// WithObserver installs the observer notified of every change.
func WithObserver(o Observer) Option {
	return func(g *Graph) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithIDGenerator replaces the UUID generator used for node instance ids.
func WithIDGenerator(fn func() string) Option {
	return func(g *Graph) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// New creates an empty graph checking types against the given catalog.
func New(types *pintype.Catalog, opts ...Option) *Graph {
	if types == nil {
		types = pintype.Default()
	}
	g := &Graph{
		types:     types,
		observer:  NoopObserver{},
		newID:     uuid.NewString,
		nodes:     make(map[string]*Node),
		conns:     make(map[ConnectionID]*Connection),
		variables: make(map[string]*Variable),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Types returns the type catalog the graph checks connections against.
func (g *Graph) Types() *pintype.Catalog { return g.types }

// AddNode instantiates desc at (x, y) under a fresh instance id.
func (g *Graph) AddNode(desc *catalog.NodeDescriptor, x, y float64) *Node {
	id := g.newID()
	for g.nodes[id] != nil {
		id = g.newID()
	}
	n, _ := g.AddNodeWithID(id, desc, x, y)
	return n
}

// AddNodeWithID instantiates desc under a caller-chosen instance id.
func (g *Graph) AddNodeWithID(id string, desc *catalog.NodeDescriptor, x, y float64) (*Node, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty instance id", ErrUnknownNode)
	}
	if _, exists := g.nodes[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	n := newNode(id, desc, Position{X: x, Y: y})
	g.nodes[id] = n
	g.order = append(g.order, id)
	g.observer.OnNodeAdded(n)
	return n, nil
}

// AddNodeFromPin creates a node and wires its first compatible pin of the
// opposite direction to from. The returned connection is nil when no pin on
// the new node fits.
func (g *Graph) AddNodeFromPin(desc *catalog.NodeDescriptor, x, y float64, from pinref.Ref) (*Node, *Connection, error) {
	origin, err := g.Pin(from)
	if err != nil {
		return nil, nil, err
	}
	n := g.AddNode(desc, x, y)

	candidates := n.Inputs()
	if origin.IsInput() {
		candidates = n.Outputs()
	}
	for _, cand := range candidates {
		if !IsCompatible(g.types, origin, cand) {
			continue
		}
		conn, err := g.Connect(from, cand.Ref())
		if err != nil {
			return n, nil, err
		}
		if conn != nil {
			return n, conn, nil
		}
	}
	return n, nil, nil
}

// MoveNode changes a node's canvas position.
func (g *Graph) MoveNode(id string, x, y float64) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	n.Position = Position{X: x, Y: y}
	g.observer.OnNodeMoved(n)
	return nil
}

// RemoveNode deletes a node after tearing down every connection touching it.
// Former partners revert their dynamic types as if disconnected by hand.
func (g *Graph) RemoveNode(id string) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	for _, p := range n.Pins() {
		for _, cid := range p.connectionIDs() {
			if c, ok := g.conns[cid]; ok {
				g.removeConnection(c)
			}
		}
	}
	delete(g.nodes, id)
	for i, nid := range g.order {
		if nid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.observer.OnNodeRemoved(id)
	return nil
}

// Node returns the node with the given instance id.
func (g *Graph) Node(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, nil
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Pin resolves a pin reference.
func (g *Graph) Pin(ref pinref.Ref) (*Pin, error) {
	n, err := g.Node(ref.Node)
	if err != nil {
		return nil, err
	}
	p, ok := n.Pin(ref.Pin)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, ref)
	}
	return p, nil
}

// mustPin resolves a reference held by the graph itself. Such references are
// valid by construction.
func (g *Graph) mustPin(ref pinref.Ref) *Pin {
	p, err := g.Pin(ref)
	if err != nil {
		panic(fmt.Sprintf("graph: dangling pin reference: %v", err))
	}
	return p
}

// Connection returns the connection with the given id.
func (g *Graph) Connection(id ConnectionID) (Connection, error) {
	c, ok := g.conns[id]
	if !ok {
		return Connection{}, fmt.Errorf("%w: %d", ErrUnknownConnection, id)
	}
	return *c, nil
}

// Connections returns every connection in creation order.
func (g *Graph) Connections() []Connection {
	conns := make([]Connection, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, *c)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	return conns
}

// FindPinsDependingOn returns the pins on the same node whose type mirrors
// the referenced pin.
func (g *Graph) FindPinsDependingOn(ref pinref.Ref) ([]*Pin, error) {
	if _, err := g.Pin(ref); err != nil {
		return nil, err
	}
	return g.nodes[ref.Node].PinsDependingOn(ref.Pin), nil
}

// SetArgument assigns the literal of an argument input. The value is tagged
// with the pin's current type when a lossless conversion exists.
func (g *Graph) SetArgument(ref pinref.Ref, v cty.Value) error {
	p, err := g.Pin(ref)
	if err != nil {
		return err
	}
	if !p.IsInput() || !p.IsArgument() {
		return fmt.Errorf("%w: %s", ErrNotArgumentInput, ref)
	}
	if v == cty.NilVal {
		v = cty.NullVal(cty.DynamicPseudoType)
	}
	p.value = pintype.Tag(v, p.currentType)
	return nil
}

// SetVariable defines or replaces a graph variable. The type must be one of
// the concrete primitives of the type catalog.
func (g *Graph) SetVariable(name, typ string, v cty.Value) error {
	name = strings.TrimSpace(name)
	typ = pintype.Normalize(typ)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidVariable)
	}
	if !g.types.Known(typ) || pintype.IsAny(typ) {
		return fmt.Errorf("%w: %s has unsupported type %q", ErrInvalidVariable, name, typ)
	}
	if v == cty.NilVal {
		v = cty.NullVal(pintype.CtyType(typ))
	}
	if existing, ok := g.variables[name]; ok {
		existing.Type = typ
		existing.Value = pintype.Tag(v, typ)
		return nil
	}
	g.variables[name] = &Variable{Name: name, Type: typ, Value: pintype.Tag(v, typ)}
	g.varOrder = append(g.varOrder, name)
	return nil
}

// RemoveVariable deletes a graph variable. Removing an absent name is a no-op.
func (g *Graph) RemoveVariable(name string) {
	if _, ok := g.variables[name]; !ok {
		return
	}
	delete(g.variables, name)
	for i, n := range g.varOrder {
		if n == name {
			g.varOrder = append(g.varOrder[:i], g.varOrder[i+1:]...)
			break
		}
	}
}

// Variables returns the graph variables in definition order.
func (g *Graph) Variables() []Variable {
	vars := make([]Variable, 0, len(g.varOrder))
	for _, name := range g.varOrder {
		vars = append(vars, *g.variables[name])
	}
	return vars
}
