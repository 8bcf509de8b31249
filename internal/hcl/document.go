package hcl

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
	"github.com/specialistvlad/blueprintgo/internal/graph"
	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
)

// LoadDocument reads a graph document from disk and translates it into a
// graph payload. The payload is not validated against a catalog; use
// graph.Load for that.
func LoadDocument(ctx context.Context, path string) (graph.Payload, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return graph.Payload{}, fmt.Errorf("failed to read graph document: %w", err)
	}
	payload, err := ParseDocument(src, path)
	if err != nil {
		return graph.Payload{}, err
	}
	ctxlog.FromContext(ctx).Debug("Parsed graph document.",
		"path", path,
		"nodes", len(payload.Nodes),
		"connections", len(payload.Connections),
		"variables", len(payload.Variables),
	)
	return payload, nil
}

// ParseDocument decodes HCL source into a graph payload.
func ParseDocument(src []byte, filename string) (graph.Payload, error) {
	var doc DocumentFile
	if err := decodeSource(src, filename, &doc); err != nil {
		return graph.Payload{}, err
	}
	return doc.Payload()
}

// Payload translates the decoded document. All block errors are reported
// together.
func (d *DocumentFile) Payload() (graph.Payload, error) {
	payload := graph.Payload{
		Nodes:       make([]graph.NodeRecord, 0, len(d.Nodes)),
		Connections: make([]graph.ConnectionRecord, 0, len(d.Connections)),
	}
	var errs []error

	for _, v := range d.Variables {
		rec := graph.VariableRecord{Name: v.Name, Type: v.Type, Value: pintype.Null()}
		if v.Value != nil {
			rec.Value = pintype.NewLiteral(*v.Value)
		}
		payload.Variables = append(payload.Variables, rec)
	}

	for _, n := range d.Nodes {
		args, err := arguments(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		payload.Nodes = append(payload.Nodes, graph.NodeRecord{
			NodeTypeID: n.Type,
			InstanceID: n.InstanceID,
			X:          n.X,
			Y:          n.Y,
			Arguments:  args,
		})
	}

	for i, c := range d.Connections {
		from, err := pinref.Parse(c.From)
		if err != nil {
			errs = append(errs, fmt.Errorf("connection %d: from: %w", i, err))
			continue
		}
		to, err := pinref.Parse(c.To)
		if err != nil {
			errs = append(errs, fmt.Errorf("connection %d: to: %w", i, err))
			continue
		}
		payload.Connections = append(payload.Connections, graph.ConnectionRecord{
			FromNodeInstanceID: from.Node,
			FromPinID:          from.Pin,
			ToNodeInstanceID:   to.Node,
			ToPinID:            to.Pin,
		})
	}

	if len(errs) > 0 {
		return graph.Payload{}, errors.Join(errs...)
	}
	return payload, nil
}

func arguments(n *NodeBlock) (map[string]pintype.Literal, error) {
	args := make(map[string]pintype.Literal)
	if n.Arguments == nil || n.Arguments.IsNull() {
		return args, nil
	}
	v := *n.Arguments
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("node %q: arguments must be known values", n.InstanceID)
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("node %q: arguments must be an object, got %s", n.InstanceID, ty.FriendlyName())
	}
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		args[k.AsString()] = pintype.NewLiteral(val)
	}
	return args, nil
}
