package graph

import (
	"encoding/json"
	"testing"

	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestSerialize_AddToAdd(t *testing.T) {
	f := newFixture(t)
	add1 := f.add("math.Add")
	add2 := f.add("math.Add")
	require.NoError(t, f.g.MoveNode(add2.ID, 120, 40))
	require.NotNil(t, f.connect(add1, "result", add2, "a"))

	p := f.g.Serialize()
	require.Len(t, p.Nodes, 2)

	assert.Equal(t, "math.Add", p.Nodes[0].NodeTypeID)
	assert.Equal(t, add1.ID, p.Nodes[0].InstanceID)
	assert.Len(t, p.Nodes[0].Arguments, 2)

	second := p.Nodes[1]
	assert.Equal(t, 120.0, second.X)
	assert.Equal(t, 40.0, second.Y)
	assert.NotContains(t, second.Arguments, "a", "connected argument literal must be omitted")
	assert.Contains(t, second.Arguments, "b")

	require.Len(t, p.Connections, 1)
	assert.Equal(t, ConnectionRecord{
		FromNodeInstanceID: add1.ID,
		FromPinID:          "result",
		ToNodeInstanceID:   add2.ID,
		ToPinID:            "a",
	}, p.Connections[0])
	assert.Empty(t, p.Variables)
}

func TestSerialize_ConnectionOrder(t *testing.T) {
	f := newFixture(t)
	add1 := f.add("math.Add")
	add2 := f.add("math.Add")
	add3 := f.add("math.Add")

	require.NotNil(t, f.connect(add2, "result", add3, "a"))
	require.NotNil(t, f.connect(add1, "result", add3, "b"))
	require.NotNil(t, f.connect(add1, "result", add2, "a"))

	p := f.g.Serialize()
	require.Len(t, p.Connections, 3)
	assert.Equal(t, add1.ID, p.Connections[0].FromNodeInstanceID)
	assert.Equal(t, add3.ID, p.Connections[0].ToNodeInstanceID)
	assert.Equal(t, add1.ID, p.Connections[1].FromNodeInstanceID)
	assert.Equal(t, add2.ID, p.Connections[1].ToNodeInstanceID)
	assert.Equal(t, add2.ID, p.Connections[2].FromNodeInstanceID)
}

func TestSerialize_WireFormat(t *testing.T) {
	f := newFixture(t)
	add1 := f.add("math.Add")
	add2 := f.add("math.Add")
	require.NoError(t, f.g.SetArgument(ref(add1, "b"), cty.NumberIntVal(7)))
	require.NotNil(t, f.connect(add1, "result", add2, "a"))
	require.NoError(t, f.g.SetVariable("limit", "int", cty.NumberIntVal(3)))

	raw, err := json.Marshal(Submission{Graphs: []Payload{f.g.Serialize()}})
	require.NoError(t, err)

	const want = `{"graphs":[{` +
		`"nodes":[` +
		`{"nodeId":"math.Add","uniqueId":"n1","x":0,"y":0,"arguments":{"a":0,"b":7}},` +
		`{"nodeId":"math.Add","uniqueId":"n2","x":0,"y":0,"arguments":{"b":0}}],` +
		`"connections":[{"fromNode":"n1","fromPin":"result","toNode":"n2","toPin":"a"}],` +
		`"variables":[{"name":"limit","type":"int","value":3}]` +
		`}]}`
	assert.JSONEq(t, want, string(raw))
}

func TestLoad_RoundTrip(t *testing.T) {
	f := newFixture(t)
	konst := f.add("text.Const")
	id := f.add("core.Identity")
	printer := f.add("flow.Print")
	start := f.add("flow.Start")
	require.NoError(t, f.g.MoveNode(printer.ID, 300, 10))
	require.NotNil(t, f.connect(konst, "out", id, "value"))
	require.NotNil(t, f.connect(id, "echo", printer, "value"))
	require.NotNil(t, f.connect(start, "exec_out", printer, "exec_in"))
	require.NoError(t, f.g.SetVariable("name", "str", cty.StringVal("blue")))

	raw, err := json.Marshal(f.g.Serialize())
	require.NoError(t, err)

	var decoded Payload
	require.NoError(t, json.Unmarshal(raw, &decoded))

	loaded, err := Load(pintype.Default(), f.cat, decoded)
	require.NoError(t, err)
	assert.Equal(t, f.g.Serialize(), loaded.Serialize())

	lp, err := loaded.Pin(ref(printer, "value"))
	require.NoError(t, err)
	assert.Equal(t, pintype.Str, lp.CurrentType())
}

func TestLoad_Errors(t *testing.T) {
	node := func(typeID, id string) NodeRecord {
		return NodeRecord{NodeTypeID: typeID, InstanceID: id}
	}
	conn := func(fromNode, fromPin, toNode, toPin string) ConnectionRecord {
		return ConnectionRecord{FromNodeInstanceID: fromNode, FromPinID: fromPin, ToNodeInstanceID: toNode, ToPinID: toPin}
	}

	testCases := []struct {
		name    string
		payload Payload
		wantErr error
	}{
		{
			name:    "unknown node type",
			payload: Payload{Nodes: []NodeRecord{node("math.Pow", "n1")}},
			wantErr: ErrUnknownNodeType,
		},
		{
			name:    "duplicate instance",
			payload: Payload{Nodes: []NodeRecord{node("math.Add", "n1"), node("math.Add", "n1")}},
			wantErr: ErrDuplicateNode,
		},
		{
			name: "argument for unknown pin",
			payload: Payload{Nodes: []NodeRecord{{
				NodeTypeID: "math.Add",
				InstanceID: "n1",
				Arguments:  map[string]pintype.Literal{"c": pintype.NewLiteral(cty.NumberIntVal(1))},
			}}},
			wantErr: ErrUnknownPin,
		},
		{
			name: "connection to unknown instance",
			payload: Payload{
				Nodes:       []NodeRecord{node("math.Add", "n1")},
				Connections: []ConnectionRecord{conn("n1", "result", "ghost", "a")},
			},
			wantErr: ErrUnknownNode,
		},
		{
			name: "connection to unknown pin",
			payload: Payload{
				Nodes:       []NodeRecord{node("math.Add", "n1"), node("math.Add", "n2")},
				Connections: []ConnectionRecord{conn("n1", "result", "n2", "zzz")},
			},
			wantErr: ErrUnknownPin,
		},
		{
			name: "incompatible connection",
			payload: Payload{
				Nodes:       []NodeRecord{node("logic.Flag", "n1"), node("text.Upper", "n2")},
				Connections: []ConnectionRecord{conn("n1", "flag", "n2", "text")},
			},
			wantErr: ErrIncompatiblePins,
		},
		{
			name: "reversed connection",
			payload: Payload{
				Nodes:       []NodeRecord{node("math.Add", "n1"), node("math.Add", "n2")},
				Connections: []ConnectionRecord{conn("n2", "a", "n1", "result")},
			},
			wantErr: ErrIncompatiblePins,
		},
		{
			name: "second source for one input",
			payload: Payload{
				Nodes: []NodeRecord{node("math.Add", "n1"), node("math.Add", "n2"), node("math.Add", "n3")},
				Connections: []ConnectionRecord{
					conn("n1", "result", "n3", "a"),
					conn("n2", "result", "n3", "a"),
				},
			},
			wantErr: ErrIncompatiblePins,
		},
		{
			name: "invalid variable",
			payload: Payload{
				Variables: []VariableRecord{{Name: "v", Type: "Any", Value: pintype.Null()}},
			},
			wantErr: ErrInvalidVariable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := Load(pintype.Default(), testCatalog(t), tc.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, g)
		})
	}
}

func TestLoad_IsSilentUntilAnnounced(t *testing.T) {
	rec := &recorder{}
	payload := Payload{
		Nodes: []NodeRecord{
			{NodeTypeID: "math.Add", InstanceID: "n1"},
			{NodeTypeID: "flow.Print", InstanceID: "n2"},
		},
		Connections: []ConnectionRecord{
			{FromNodeInstanceID: "n1", FromPinID: "result", ToNodeInstanceID: "n2", ToPinID: "value"},
		},
	}

	g, err := Load(pintype.Default(), testCatalog(t), payload, WithObserver(rec))
	require.NoError(t, err)
	assert.Empty(t, rec.added)
	assert.Empty(t, rec.typeChanges)
	assert.Empty(t, rec.connected)

	g.Announce()
	assert.Equal(t, []string{"n1", "n2"}, rec.added)
	assert.Equal(t, []string{"n2.value:Any->int"}, rec.typeChanges)
	require.Len(t, rec.connected, 1)
	assert.Equal(t, pinref.New("n1", "result"), rec.connected[0].From)
	assert.Equal(t, pinref.New("n2", "value"), rec.connected[0].To)

	g.Retire()
	assert.Equal(t, []string{"n1", "n2"}, rec.removed)
	require.Len(t, rec.disconnected, 1)
	assert.Len(t, g.Nodes(), 2, "retiring does not modify the graph")
}

func TestLoad_FailureIsSilent(t *testing.T) {
	rec := &recorder{}
	payload := Payload{
		Nodes:       []NodeRecord{{NodeTypeID: "math.Add", InstanceID: "n1"}},
		Connections: []ConnectionRecord{
			{FromNodeInstanceID: "n1", FromPinID: "result", ToNodeInstanceID: "n9", ToPinID: "a"},
		},
	}
	g, err := Load(pintype.Default(), testCatalog(t), payload, WithObserver(rec))
	require.Error(t, err)
	assert.Nil(t, g)
	assert.Empty(t, rec.added)
}
