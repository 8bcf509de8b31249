package graph

import (
	"github.com/specialistvlad/blueprintgo/internal/pintype"
)

// Payload is the wire form of a graph as accepted by the execution backend.
type Payload struct {
	Nodes       []NodeRecord       `json:"nodes"`
	Connections []ConnectionRecord `json:"connections"`
	Variables   []VariableRecord   `json:"variables,omitempty"`
}

// NodeRecord is one node instance in a Payload. Arguments hold the literals
// of argument inputs that have no incoming connection.
type NodeRecord struct {
	NodeTypeID string                     `json:"nodeId"`
	InstanceID string                     `json:"uniqueId"`
	X          float64                    `json:"x"`
	Y          float64                    `json:"y"`
	Arguments  map[string]pintype.Literal `json:"arguments"`
}

// ConnectionRecord is one connection in a Payload.
type ConnectionRecord struct {
	FromNodeInstanceID string `json:"fromNode"`
	FromPinID          string `json:"fromPin"`
	ToNodeInstanceID   string `json:"toNode"`
	ToPinID            string `json:"toPin"`
}

// VariableRecord is one graph variable in a Payload.
type VariableRecord struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value pintype.Literal `json:"value"`
}

// Submission is the body of an execution request.
type Submission struct {
	Graphs []Payload `json:"graphs"`
}

// Serialize snapshots the graph. Nodes appear in insertion order. Connections
// are listed per output pin, following node order and then the order in
// which each pin's connections were made.
func (g *Graph) Serialize() Payload {
	payload := Payload{
		Nodes:       make([]NodeRecord, 0, len(g.order)),
		Connections: make([]ConnectionRecord, 0, len(g.conns)),
	}

	for _, n := range g.Nodes() {
		rec := NodeRecord{
			NodeTypeID: n.TypeID(),
			InstanceID: n.ID,
			X:          n.Position.X,
			Y:          n.Position.Y,
			Arguments:  make(map[string]pintype.Literal),
		}
		for _, p := range n.Inputs() {
			if p.IsArgument() && p.incoming == 0 {
				rec.Arguments[p.ref.Pin] = pintype.NewLiteral(p.value)
			}
		}
		payload.Nodes = append(payload.Nodes, rec)

		for _, p := range n.Outputs() {
			for _, id := range p.Outgoing() {
				c := g.conns[id]
				payload.Connections = append(payload.Connections, ConnectionRecord{
					FromNodeInstanceID: c.From.Node,
					FromPinID:          c.From.Pin,
					ToNodeInstanceID:   c.To.Node,
					ToPinID:            c.To.Pin,
				})
			}
		}
	}

	for _, v := range g.Variables() {
		payload.Variables = append(payload.Variables, VariableRecord{
			Name:  v.Name,
			Type:  v.Type,
			Value: pintype.NewLiteral(v.Value),
		})
	}
	return payload
}
