package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Catalog manifest schemas ---

// PinDefinition is an `input` or `output` block inside a `node` block.
type PinDefinition struct {
	ID          string     `hcl:"id,label"`
	Kind        string     `hcl:"kind,optional"`
	Name        string     `hcl:"name,optional"`
	Description string     `hcl:"description,optional"`
	Type        string     `hcl:"type,optional"`
	DependsOn   string     `hcl:"depends_on,optional"`
	Default     *cty.Value `hcl:"default,optional"`
}

// NodeDefinition is a `node` block of a catalog manifest.
type NodeDefinition struct {
	TypeID      string           `hcl:"type_id,label"`
	Name        string           `hcl:"name,optional"`
	Description string           `hcl:"description,optional"`
	BaseType    string           `hcl:"base_type,optional"`
	Category    string           `hcl:"category,optional"`
	Pure        bool             `hcl:"pure,optional"`
	Inputs      []*PinDefinition `hcl:"input,block"`
	Outputs     []*PinDefinition `hcl:"output,block"`
}

// ManifestFile is the top-level structure of a catalog manifest file.
type ManifestFile struct {
	Nodes  []*NodeDefinition `hcl:"node,block"`
	Remain hcl.Body          `hcl:",remain"`
}

// --- Graph document schemas ---

// VariableBlock is a `variable` block of a graph document.
type VariableBlock struct {
	Name  string     `hcl:"name,label"`
	Type  string     `hcl:"type"`
	Value *cty.Value `hcl:"value,optional"`
}

// NodeBlock is a `node` block of a graph document: one node instance.
type NodeBlock struct {
	InstanceID string     `hcl:"instance_id,label"`
	Type       string     `hcl:"type"`
	X          float64    `hcl:"x,optional"`
	Y          float64    `hcl:"y,optional"`
	Arguments  *cty.Value `hcl:"arguments,optional"`
}

// ConnectionBlock is a `connection` block of a graph document. Both ends are
// written as "<instance>.<pin>".
type ConnectionBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// DocumentFile is the top-level structure of a graph document.
type DocumentFile struct {
	Variables   []*VariableBlock   `hcl:"variable,block"`
	Nodes       []*NodeBlock       `hcl:"node,block"`
	Connections []*ConnectionBlock `hcl:"connection,block"`
	Remain      hcl.Body           `hcl:",remain"`
}
