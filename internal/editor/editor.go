// Package editor is the entry point presentation layers talk to. It owns one
// graph, gates every catalog-dependent operation behind the catalog load, and
// serializes all calls so the graph is never touched concurrently.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
	"github.com/specialistvlad/blueprintgo/internal/graph"
	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrCatalogNotReady is returned by catalog-dependent calls made while
	// the catalog is still loading.
	ErrCatalogNotReady = errors.New("node catalog is not loaded yet")
	// ErrCatalogUnavailable is returned once the catalog load has failed.
	ErrCatalogUnavailable = errors.New("node catalog is unavailable")
	// ErrNoSubmitter is returned by Submit when no execution backend is wired.
	ErrNoSubmitter = errors.New("no execution backend configured")
)

// CatalogLoader produces the node catalog. *catalog.Fallback implements it.
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// Submitter sends a serialized graph for execution.
type Submitter interface {
	Execute(ctx context.Context, sub graph.Submission) error
}

type catalogState int

const (
	catalogLoading catalogState = iota
	catalogReady
	catalogFailed
)

// Editor is a concurrency-safe façade over a graph.Graph.
type Editor struct {
	mu sync.Mutex

	types     *pintype.Catalog
	graphOpts []graph.Option
	graph     *graph.Graph
	submitter Submitter

	state   catalogState
	catalog *catalog.Catalog
	loadErr error
	ready   chan struct{}
}

// Option configures an Editor.
type Option func(*Editor)

// WithTypes replaces the built-in type catalog.
func WithTypes(types *pintype.Catalog) Option {
	return func(e *Editor) {
		if types != nil {
			e.types = types
		}
	}
}

// WithObserver forwards graph change notifications to o.
func WithObserver(o graph.Observer) Option {
	return func(e *Editor) { e.graphOpts = append(e.graphOpts, graph.WithObserver(o)) }
}

// WithIDGenerator replaces the node instance id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) { e.graphOpts = append(e.graphOpts, graph.WithIDGenerator(fn)) }
}

// WithSubmitter wires the execution backend used by Submit.
func WithSubmitter(s Submitter) Option {
	return func(e *Editor) { e.submitter = s }
}

// New creates an editor with an empty graph and an unresolved catalog.
func New(opts ...Option) *Editor {
	e := &Editor{
		types: pintype.Default(),
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.graph = graph.New(e.types, e.graphOpts...)
	return e
}

// LoadCatalog resolves the catalog barrier from loader. Only the first
// resolution counts; later calls report the state already reached.
func (e *Editor) LoadCatalog(ctx context.Context, loader CatalogLoader) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading node catalog.")

	cat, err := loader.Load(ctx)
	if err != nil {
		logger.Error("Node catalog could not be loaded.", "error", err)
		if !e.resolve(nil, err) {
			_, current := e.Catalog()
			return current
		}
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if !e.resolve(cat, nil) {
		logger.Debug("Node catalog already resolved, ignoring reload.")
		_, err := e.Catalog()
		return err
	}
	logger.Info("Editor ready.", "node_types", cat.Len())
	return nil
}

// SetCatalog resolves the barrier with an already loaded catalog.
func (e *Editor) SetCatalog(cat *catalog.Catalog) {
	e.resolve(cat, nil)
}

// FailCatalog resolves the barrier as failed.
func (e *Editor) FailCatalog(err error) {
	if err == nil {
		err = errors.New("unknown failure")
	}
	e.resolve(nil, err)
}

func (e *Editor) resolve(cat *catalog.Catalog, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != catalogLoading {
		return false
	}
	if err != nil {
		e.state = catalogFailed
		e.loadErr = err
	} else {
		e.state = catalogReady
		e.catalog = cat
	}
	close(e.ready)
	return true
}

// WaitReady blocks until the catalog barrier resolves or ctx is done.
func (e *Editor) WaitReady(ctx context.Context) (*catalog.Catalog, error) {
	select {
	case <-e.ready:
		return e.Catalog()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Catalog returns the loaded catalog, or the barrier error.
func (e *Editor) Catalog() (*catalog.Catalog, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalogLocked()
}

func (e *Editor) catalogLocked() (*catalog.Catalog, error) {
	switch e.state {
	case catalogReady:
		return e.catalog, nil
	case catalogFailed:
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, e.loadErr)
	default:
		return nil, ErrCatalogNotReady
	}
}

// AddNode instantiates the catalog template typeID at (x, y) and returns the
// new instance id.
func (e *Editor) AddNode(typeID string, x, y float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	desc, err := e.lookupLocked(typeID)
	if err != nil {
		return "", err
	}
	return e.graph.AddNode(desc, x, y).ID, nil
}

// AddNodeFromPin instantiates typeID and wires it to from when one of its
// pins fits. The connection is nil when nothing fits.
func (e *Editor) AddNodeFromPin(typeID string, x, y float64, from pinref.Ref) (string, *graph.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	desc, err := e.lookupLocked(typeID)
	if err != nil {
		return "", nil, err
	}
	n, c, err := e.graph.AddNodeFromPin(desc, x, y, from)
	if err != nil {
		return "", nil, err
	}
	return n.ID, c, nil
}

func (e *Editor) lookupLocked(typeID string) (*catalog.NodeDescriptor, error) {
	cat, err := e.catalogLocked()
	if err != nil {
		return nil, err
	}
	return cat.Lookup(typeID)
}

// MoveNode repositions a node.
func (e *Editor) MoveNode(id string, x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.MoveNode(id, x, y)
}

// RemoveNode deletes a node and every connection touching it.
func (e *Editor) RemoveNode(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.RemoveNode(id)
}

// Connect wires two pins. A nil connection with a nil error means the
// gesture was rejected by the connection policy.
func (e *Editor) Connect(a, b pinref.Ref) (*graph.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Connect(a, b)
}

// CanConnect reports whether Connect would accept the two pins on type and
// direction grounds. It is meant for drag feedback.
func (e *Editor) CanConnect(a, b pinref.Ref) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.IsCompatible(a, b)
}

// Disconnect removes every connection on a pin.
func (e *Editor) Disconnect(ref pinref.Ref) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Disconnect(ref)
}

// DisconnectConnection removes one connection.
func (e *Editor) DisconnectConnection(id graph.ConnectionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.DisconnectConnection(id)
}

// SetArgument assigns the literal of an argument input.
func (e *Editor) SetArgument(ref pinref.Ref, v cty.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.SetArgument(ref, v)
}

// SetVariable defines or replaces a graph variable.
func (e *Editor) SetVariable(name, typ string, v cty.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.SetVariable(name, typ, v)
}

// PinType returns the current type of a pin.
func (e *Editor) PinType(ref pinref.Ref) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.graph.Pin(ref)
	if err != nil {
		return "", err
	}
	return p.CurrentType(), nil
}

// View runs fn with exclusive access to the graph. fn must not retain the
// graph or call back into the editor.
func (e *Editor) View(fn func(g *graph.Graph)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.graph)
}

// Serialize snapshots the graph in wire form.
func (e *Editor) Serialize() graph.Payload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Serialize()
}

// Import replaces the current graph with one rebuilt from payload. On error
// the current graph is left untouched and observers hear nothing. On
// success they see the old graph retired and the new one announced.
func (e *Editor) Import(payload graph.Payload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cat, err := e.catalogLocked()
	if err != nil {
		return err
	}
	g, err := graph.Load(e.types, cat, payload, e.graphOpts...)
	if err != nil {
		return err
	}
	old := e.graph
	e.graph = g
	old.Retire()
	g.Announce()
	return nil
}

// Submit serializes the graph and hands it to the execution backend.
func (e *Editor) Submit(ctx context.Context) error {
	if e.submitter == nil {
		return ErrNoSubmitter
	}
	payload := e.Serialize()
	logger := ctxlog.FromContext(ctx)
	logger.Info("Submitting graph for execution.", "nodes", len(payload.Nodes), "connections", len(payload.Connections))
	if err := e.submitter.Execute(ctx, graph.Submission{Graphs: []graph.Payload{payload}}); err != nil {
		return fmt.Errorf("failed to submit graph: %w", err)
	}
	logger.Debug("Graph submitted.")
	return nil
}
