// Package app wires the editor to its collaborators (catalog sources, the
// execution backend, the live channel) and runs one command against them,
// decoupled from any specific entrypoint like a CLI.
package app
