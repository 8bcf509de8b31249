package graph

import (
	"fmt"
	"testing"

	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func argPin(id string, dir catalog.Direction, typ string) *catalog.PinDescriptor {
	return &catalog.PinDescriptor{ID: id, Kind: catalog.KindArgument, Direction: dir, DeclaredType: typ}
}

func flowPin(id string, dir catalog.Direction) *catalog.PinDescriptor {
	return &catalog.PinDescriptor{ID: id, Kind: catalog.KindFlow, Direction: dir}
}

func dependentPin(id string, dir catalog.Direction, typ, dependsOn string) *catalog.PinDescriptor {
	p := argPin(id, dir, typ)
	p.DependsOn = dependsOn
	return p
}

// testCatalog returns a small catalog covering every pin shape the graph
// handles.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	a := argPin("a", catalog.Input, pintype.Int)
	a.Default = cty.NumberIntVal(0)
	b := argPin("b", catalog.Input, pintype.Int)
	b.Default = cty.NumberIntVal(0)

	cat, err := catalog.New(
		&catalog.NodeDescriptor{
			TypeID:  "math.Add",
			IsPure:  true,
			Inputs:  []*catalog.PinDescriptor{a, b},
			Outputs: []*catalog.PinDescriptor{argPin("result", catalog.Output, pintype.Int)},
		},
		&catalog.NodeDescriptor{
			TypeID:  "flow.Start",
			Outputs: []*catalog.PinDescriptor{flowPin("exec_out", catalog.Output)},
		},
		&catalog.NodeDescriptor{
			TypeID: "flow.Print",
			Inputs: []*catalog.PinDescriptor{
				flowPin("exec_in", catalog.Input),
				argPin("value", catalog.Input, pintype.Any),
			},
			Outputs: []*catalog.PinDescriptor{flowPin("exec_out", catalog.Output)},
		},
		&catalog.NodeDescriptor{
			TypeID:  "core.Identity",
			IsPure:  true,
			Inputs:  []*catalog.PinDescriptor{argPin("value", catalog.Input, pintype.Any)},
			Outputs: []*catalog.PinDescriptor{dependentPin("echo", catalog.Output, pintype.Any, "value")},
		},
		&catalog.NodeDescriptor{
			TypeID:  "text.Const",
			IsPure:  true,
			Outputs: []*catalog.PinDescriptor{argPin("out", catalog.Output, pintype.Str)},
		},
		&catalog.NodeDescriptor{
			TypeID:  "text.Upper",
			IsPure:  true,
			Inputs:  []*catalog.PinDescriptor{argPin("text", catalog.Input, pintype.Str)},
			Outputs: []*catalog.PinDescriptor{argPin("result", catalog.Output, pintype.Str)},
		},
		&catalog.NodeDescriptor{
			TypeID:  "logic.Flag",
			IsPure:  true,
			Outputs: []*catalog.PinDescriptor{argPin("flag", catalog.Output, pintype.Bool)},
		},
		&catalog.NodeDescriptor{
			TypeID:  "math.Number",
			IsPure:  true,
			Outputs: []*catalog.PinDescriptor{argPin("value", catalog.Output, "int | float")},
		},
		&catalog.NodeDescriptor{
			TypeID: "core.Swap",
			IsPure: true,
			Inputs: []*catalog.PinDescriptor{
				dependentPin("a", catalog.Input, pintype.Any, "b"),
				dependentPin("b", catalog.Input, pintype.Any, "a"),
			},
		},
		&catalog.NodeDescriptor{
			TypeID:  "core.Mirror",
			IsPure:  true,
			Inputs:  []*catalog.PinDescriptor{dependentPin("i", catalog.Input, pintype.Any, "o")},
			Outputs: []*catalog.PinDescriptor{argPin("o", catalog.Output, pintype.Any)},
		},
	)
	require.NoError(t, err)
	return cat
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
}

// recorder is an Observer that keeps every notification.
type recorder struct {
	NoopObserver
	added        []string
	moved        []string
	removed      []string
	typeChanges  []string
	connected    []Connection
	disconnected []Connection
}

func (r *recorder) OnNodeAdded(n *Node)     { r.added = append(r.added, n.ID) }
func (r *recorder) OnNodeMoved(n *Node)     { r.moved = append(r.moved, n.ID) }
func (r *recorder) OnNodeRemoved(id string) { r.removed = append(r.removed, id) }
func (r *recorder) OnConnected(c Connection) {
	r.connected = append(r.connected, c)
}
func (r *recorder) OnDisconnected(c Connection) {
	r.disconnected = append(r.disconnected, c)
}
func (r *recorder) OnPinTypeChanged(ref pinref.Ref, from, to string) {
	r.typeChanges = append(r.typeChanges, fmt.Sprintf("%s:%s->%s", ref, from, to))
}

type fixture struct {
	t   *testing.T
	cat *catalog.Catalog
	g   *Graph
	rec *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := &recorder{}
	return &fixture{
		t:   t,
		cat: testCatalog(t),
		g:   New(pintype.Default(), WithObserver(rec), WithIDGenerator(sequentialIDs())),
		rec: rec,
	}
}

func (f *fixture) add(typeID string) *Node {
	f.t.Helper()
	desc, err := f.cat.Lookup(typeID)
	require.NoError(f.t, err)
	return f.g.AddNode(desc, 0, 0)
}

func (f *fixture) pin(n *Node, pinID string) *Pin {
	f.t.Helper()
	p, ok := n.Pin(pinID)
	require.True(f.t, ok, "pin %s on %s", pinID, n.TypeID())
	return p
}

func (f *fixture) connect(from *Node, fromPin string, to *Node, toPin string) *Connection {
	f.t.Helper()
	c, err := f.g.Connect(pinref.New(from.ID, fromPin), pinref.New(to.ID, toPin))
	require.NoError(f.t, err)
	return c
}

func ref(n *Node, pinID string) pinref.Ref {
	return pinref.New(n.ID, pinID)
}
