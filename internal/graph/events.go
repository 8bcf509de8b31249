package graph

import (
	"log/slog"

	"github.com/specialistvlad/blueprintgo/internal/pinref"
)

// Observer receives change notifications from a Graph. Presentation layers
// use them to redraw pins, wires and node boxes.
//
// Callbacks run synchronously inside the mutating call and must not call
// back into the graph.
type Observer interface {
	OnNodeAdded(n *Node)
	OnNodeMoved(n *Node)
	OnNodeRemoved(id string)
	// OnPinTypeChanged fires only when the current type actually changes.
	OnPinTypeChanged(ref pinref.Ref, from, to string)
	OnConnected(c Connection)
	OnDisconnected(c Connection)
}

// NoopObserver is an Observer that does nothing.
type NoopObserver struct{}

func (NoopObserver) OnNodeAdded(*Node)                           {}
func (NoopObserver) OnNodeMoved(*Node)                           {}
func (NoopObserver) OnNodeRemoved(string)                        {}
func (NoopObserver) OnPinTypeChanged(pinref.Ref, string, string) {}
func (NoopObserver) OnConnected(Connection)                      {}
func (NoopObserver) OnDisconnected(Connection)                   {}

// Announce replays the graph to its observer as if it had been built by
// hand: every node, then every pin whose type moved off its declaration,
// then every connection.
func (g *Graph) Announce() {
	nodes := g.Nodes()
	for _, n := range nodes {
		g.observer.OnNodeAdded(n)
	}
	for _, n := range nodes {
		for _, p := range n.Pins() {
			if p.IsFlow() || p.currentType == p.desc.DeclaredType {
				continue
			}
			g.observer.OnPinTypeChanged(p.ref, p.desc.DeclaredType, p.currentType)
		}
	}
	for _, c := range g.Connections() {
		g.observer.OnConnected(c)
	}
}

// Retire tells the observer that every connection and then every node is
// gone. The graph itself is not modified.
func (g *Graph) Retire() {
	for _, c := range g.Connections() {
		g.observer.OnDisconnected(c)
	}
	for _, n := range g.Nodes() {
		g.observer.OnNodeRemoved(n.ID)
	}
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnNodeAdded(n *Node) {
	for _, o := range c.observers {
		o.OnNodeAdded(n)
	}
}

func (c *CompositeObserver) OnNodeMoved(n *Node) {
	for _, o := range c.observers {
		o.OnNodeMoved(n)
	}
}

func (c *CompositeObserver) OnNodeRemoved(id string) {
	for _, o := range c.observers {
		o.OnNodeRemoved(id)
	}
}

func (c *CompositeObserver) OnPinTypeChanged(ref pinref.Ref, from, to string) {
	for _, o := range c.observers {
		o.OnPinTypeChanged(ref, from, to)
	}
}

func (c *CompositeObserver) OnConnected(conn Connection) {
	for _, o := range c.observers {
		o.OnConnected(conn)
	}
}

func (c *CompositeObserver) OnDisconnected(conn Connection) {
	for _, o := range c.observers {
		o.OnDisconnected(conn)
	}
}

// LoggingObserver writes graph changes as structured Debug records.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver returns an Observer logging to logger, or to
// slog.Default() when logger is nil.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnNodeAdded(n *Node) {
	o.Logger.Debug("Node added.",
		slog.String("node", n.ID),
		slog.String("type", n.TypeID()),
		slog.Float64("x", n.Position.X),
		slog.Float64("y", n.Position.Y),
	)
}

func (o *LoggingObserver) OnNodeMoved(n *Node) {
	o.Logger.Debug("Node moved.",
		slog.String("node", n.ID),
		slog.Float64("x", n.Position.X),
		slog.Float64("y", n.Position.Y),
	)
}

func (o *LoggingObserver) OnNodeRemoved(id string) {
	o.Logger.Debug("Node removed.", slog.String("node", id))
}

func (o *LoggingObserver) OnPinTypeChanged(ref pinref.Ref, from, to string) {
	o.Logger.Debug("Pin type changed.",
		slog.String("pin", ref.String()),
		slog.String("from", from),
		slog.String("to", to),
	)
}

func (o *LoggingObserver) OnConnected(c Connection) {
	o.Logger.Debug("Pins connected.",
		slog.Uint64("connection", uint64(c.ID)),
		slog.String("from", c.From.String()),
		slog.String("to", c.To.String()),
	)
}

func (o *LoggingObserver) OnDisconnected(c Connection) {
	o.Logger.Debug("Pins disconnected.",
		slog.Uint64("connection", uint64(c.ID)),
		slog.String("from", c.From.String()),
		slog.String("to", c.To.String()),
	)
}
