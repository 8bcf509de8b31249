package graph

import "errors"

var (
	// ErrUnknownNode is returned when a node instance id is not in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownPin is returned when a pin id is not on the addressed node.
	ErrUnknownPin = errors.New("unknown pin")
	// ErrUnknownNodeType is returned when a payload names a node type the
	// catalog does not contain.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrUnknownConnection is returned when a connection id is not in the graph.
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrDuplicateNode is returned when an instance id is already taken.
	ErrDuplicateNode = errors.New("duplicate node instance")
	// ErrIncompatiblePins is returned by Load when a payload wires pins the
	// connection policy rejects. Interactive Connect calls never return it.
	ErrIncompatiblePins = errors.New("incompatible pins")
	// ErrNotArgumentInput is returned when a literal is assigned to a pin
	// that is not an argument input.
	ErrNotArgumentInput = errors.New("pin is not an argument input")
	// ErrInvalidVariable is returned for graph variables with an empty name
	// or a type the execution backend cannot instantiate.
	ErrInvalidVariable = errors.New("invalid graph variable")
)
