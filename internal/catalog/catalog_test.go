package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const catalogJSON = `[
  {
    "id": "math.Add",
    "nodeId": "math.Add",
    "baseType": "functions",
    "isPure": true,
    "name": "Add",
    "description": "Adds two numbers",
    "inPins": [
      {"id": "a", "pinType": "argument", "name": "A", "description": "", "type": "int", "defaultValue": "0", "typeDependsOn": null},
      {"id": "b", "pinType": "argument", "name": "B", "description": "", "type": "int", "defaultValue": "0", "typeDependsOn": null}
    ],
    "outPins": [
      {"id": "result", "pinType": "argument", "name": "Result", "description": "", "type": "int", "defaultValue": null, "typeDependsOn": null}
    ]
  },
  {
    "nodeId": "flow.Print",
    "baseType": "functions",
    "isPure": false,
    "name": "Print",
    "description": "",
    "inPins": [
      {"id": "exec_in", "pinType": "flow", "name": "", "description": ""},
      {"id": "value", "pinType": "argument", "name": "Value", "description": "", "type": "Any", "defaultValue": "None", "typeDependsOn": null}
    ],
    "outPins": [
      {"id": "exec_out", "pinType": "flow", "name": "", "description": ""},
      {"id": "echo", "pinType": "argument", "name": "Echo", "description": "", "type": "Any", "typeDependsOn": "value"}
    ]
  }
]`

func decodeRecords(t *testing.T) []NodeRecord {
	t.Helper()
	var records []NodeRecord
	require.NoError(t, json.Unmarshal([]byte(catalogJSON), &records))
	return records
}

func TestFromRecords_BackendShape(t *testing.T) {
	cat, err := FromRecords(decodeRecords(t))
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	add, err := cat.Lookup("math.Add")
	require.NoError(t, err)
	assert.True(t, add.IsPure)
	assert.Equal(t, "functions", add.BaseType)
	require.Len(t, add.Inputs, 2)
	require.Len(t, add.Outputs, 1)

	a, ok := add.Pin("a")
	require.True(t, ok)
	assert.Equal(t, KindArgument, a.Kind)
	assert.Equal(t, Input, a.Direction)
	assert.Equal(t, "int", a.DeclaredType)
	// "0" is tagged as a number because the pin is declared int.
	assert.True(t, a.Default.RawEquals(cty.NumberIntVal(0)))

	result, ok := add.Pin("result")
	require.True(t, ok)
	assert.True(t, result.Default.IsNull())

	printNode, err := cat.Lookup("flow.Print")
	require.NoError(t, err)
	echo, ok := printNode.Pin("echo")
	require.True(t, ok)
	assert.Equal(t, "value", echo.DependsOn)
	deps := printNode.DependentsOf("value")
	require.Len(t, deps, 1)
	assert.Equal(t, "echo", deps[0].ID)

	execIn, _ := printNode.Pin("exec_in")
	assert.True(t, execIn.IsFlow())
	assert.Empty(t, execIn.DeclaredType)
}

func TestLookup_Unknown(t *testing.T) {
	cat, err := FromRecords(decodeRecords(t))
	require.NoError(t, err)

	_, err = cat.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestFromRecords_UnknownPinType(t *testing.T) {
	records := []NodeRecord{{
		NodeID: "bad",
		InPins: []PinRecord{{ID: "x", PinType: "wire"}},
	}}

	_, err := FromRecords(records)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "unknown pinType")
}

func TestNew_ValidationRules(t *testing.T) {
	testCases := []struct {
		name    string
		desc    *NodeDescriptor
		errText string
	}{
		{
			name:    "empty type id",
			desc:    &NodeDescriptor{Name: "x"},
			errText: "empty node type id",
		},
		{
			name: "duplicate pin ids across sides",
			desc: &NodeDescriptor{
				TypeID:  "dup",
				Inputs:  []*PinDescriptor{{ID: "v", Kind: KindArgument, Direction: Input}},
				Outputs: []*PinDescriptor{{ID: "v", Kind: KindArgument, Direction: Output}},
			},
			errText: "duplicate pin id",
		},
		{
			name: "dangling dependency",
			desc: &NodeDescriptor{
				TypeID: "dangling",
				Outputs: []*PinDescriptor{
					{ID: "out", Kind: KindArgument, Direction: Output, DependsOn: "missing"},
				},
			},
			errText: "depends on unknown pin",
		},
		{
			name: "self dependency",
			desc: &NodeDescriptor{
				TypeID: "self",
				Inputs: []*PinDescriptor{{ID: "in", Kind: KindArgument, Direction: Input, DependsOn: "in"}},
			},
			errText: "depends on itself",
		},
		{
			name: "pure node with flow pin",
			desc: &NodeDescriptor{
				TypeID: "pure",
				IsPure: true,
				Inputs: []*PinDescriptor{{ID: "exec_in", Kind: KindFlow, Direction: Input}},
			},
			errText: "pure node declares flow pin",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.desc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Contains(t, err.Error(), tc.errText)
		})
	}
}

func TestNew_DuplicateNodeType(t *testing.T) {
	_, err := New(&NodeDescriptor{TypeID: "a"}, &NodeDescriptor{TypeID: "a"})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNew_UntypedArgumentBecomesAny(t *testing.T) {
	cat, err := New(&NodeDescriptor{
		TypeID: "loose",
		Inputs: []*PinDescriptor{{ID: "v", Kind: KindArgument, Direction: Input, DeclaredType: " "}},
	})
	require.NoError(t, err)

	d, _ := cat.Lookup("loose")
	assert.Equal(t, "Any", d.Inputs[0].DeclaredType)
}

func TestRecords_RoundTrip(t *testing.T) {
	cat, err := FromRecords(decodeRecords(t))
	require.NoError(t, err)

	again, err := FromRecords(cat.Records())
	require.NoError(t, err)

	require.Equal(t, cat.Len(), again.Len())
	for i, d := range cat.Descriptors() {
		other := again.Descriptors()[i]
		assert.Equal(t, d.TypeID, other.TypeID)
		assert.Equal(t, len(d.Pins()), len(other.Pins()))
		for j, p := range d.Pins() {
			q := other.Pins()[j]
			assert.Equal(t, p.ID, q.ID)
			assert.Equal(t, p.Kind, q.Kind)
			assert.Equal(t, p.DeclaredType, q.DeclaredType)
			assert.Equal(t, p.DependsOn, q.DependsOn)
			assert.True(t, p.Default.RawEquals(q.Default), "default of %s.%s", d.TypeID, p.ID)
		}
	}
}

func TestFallback_UsesFirstHealthySource(t *testing.T) {
	failing := SourceFunc(func(context.Context) ([]NodeRecord, error) {
		return nil, errors.New("connection refused")
	})
	malformed := Static{{NodeID: ""}}
	good := Static(decodeRecords(t))

	chain := NewFallback(nil).Add("backend", failing).Add("broken", malformed).Add("cache", good)
	require.Equal(t, 3, chain.Len())

	cat, err := chain.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
}

type recordingSink struct {
	saved []NodeRecord
}

func (s *recordingSink) SaveCatalog(_ context.Context, records []NodeRecord) error {
	s.saved = records
	return nil
}

func TestFallback_StoresPrimaryCatalogInSink(t *testing.T) {
	sink := &recordingSink{}
	records := decodeRecords(t)

	_, err := NewFallback(sink).Add("backend", Static(records)).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, sink.saved, 2)
}

func TestFallback_SecondarySourceIsNotStored(t *testing.T) {
	sink := &recordingSink{}
	failing := SourceFunc(func(context.Context) ([]NodeRecord, error) { return nil, errors.New("down") })

	_, err := NewFallback(sink).Add("backend", failing).Add("cache", Static(decodeRecords(t))).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sink.saved)
}

func TestFallback_AllFail(t *testing.T) {
	failing := SourceFunc(func(context.Context) ([]NodeRecord, error) { return nil, errors.New("down") })

	_, err := NewFallback(nil).Add("backend", failing).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend: down")

	_, err = NewFallback(nil).Load(context.Background())
	assert.Error(t, err)
}
