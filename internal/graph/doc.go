// Package graph is the live data model of one blueprint document: node
// instances created from catalog templates, their pins, and the connections
// between pins.
//
// # Model
//
// A Graph is a set of flat arenas. Nodes are indexed by instance id, and
// connections by a monotonically increasing ConnectionID. Pins never hold
// pointers to their owner or to their partners. They hold a pinref.Ref
// (node id + pin id) and the ids of the connections they take part in.
// Serializing the graph therefore never has to walk an object cycle.
//
// # Connection policy
//
// IsCompatible decides whether two pins may be wired. Connect and Disconnect
// keep the structural invariants:
//
//  1. an input pin has at most one incoming connection;
//  2. a flow output has at most one outgoing connection, while argument
//     outputs fan out freely;
//  3. a pin never connects to itself or to another pin of its own node;
//  4. connections always run output → input;
//  5. both ends share a kind and have catalog-compatible current types;
//  6. an unbound pin rests at its declared type;
//  7. a pin that declares a type dependency mirrors its source pin.
//
// Incompatible connection gestures are silent no-ops. Only lookups that name
// a node or pin that does not exist report errors.
//
// # Type propagation
//
// Pins declared `Any` resolve to the type of their partner when connected.
// The new type spreads to dependent pins on the same node and from there to
// whatever those pins are wired to. Propagation is a worklist traversal with
// a visited set, so cyclic dependency declarations terminate.
//
// # Concurrency
//
// A Graph is not safe for concurrent use. Callers that share a graph between
// goroutines serialize access themselves (see internal/editor).
package graph
