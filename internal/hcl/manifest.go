package hcl

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
)

const defaultPinKind = "argument"

// ManifestSource serves a node catalog from HCL manifest files. It
// implements catalog.Source.
type ManifestSource struct {
	Paths []string
}

// NewManifestSource creates a source reading the given files and
// directories.
func NewManifestSource(paths ...string) *ManifestSource {
	return &ManifestSource{Paths: paths}
}

// FetchCatalog implements catalog.Source. Records keep file order and, within
// a file, declaration order.
func (s *ManifestSource) FetchCatalog(ctx context.Context) ([]catalog.NodeRecord, error) {
	logger := ctxlog.FromContext(ctx)
	if len(s.Paths) == 0 {
		return nil, errors.New("no manifest paths configured")
	}

	files, err := findHCLFiles(s.Paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", fileExtension, s.Paths)
	}

	parser := hclparse.NewParser()
	var records []catalog.NodeRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var manifest ManifestFile
		if err := decodeFile(parser, path, &manifest); err != nil {
			return nil, err
		}
		for _, def := range manifest.Nodes {
			records = append(records, def.Record())
		}
		logger.Debug("Parsed catalog manifest.", "path", path, "node_types", len(manifest.Nodes))
	}

	logger.Debug("Manifest catalog assembled.", "files", len(files), "node_types", len(records))
	return records, nil
}

// Record translates the block into the backend's wire record.
func (d *NodeDefinition) Record() catalog.NodeRecord {
	rec := catalog.NodeRecord{
		NodeID:      d.TypeID,
		BaseType:    d.BaseType,
		IsPure:      d.Pure,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		InPins:      make([]catalog.PinRecord, 0, len(d.Inputs)),
		OutPins:     make([]catalog.PinRecord, 0, len(d.Outputs)),
	}
	if rec.Name == "" {
		rec.Name = d.TypeID
	}
	for _, p := range d.Inputs {
		rec.InPins = append(rec.InPins, p.Record())
	}
	for _, p := range d.Outputs {
		rec.OutPins = append(rec.OutPins, p.Record())
	}
	return rec
}

// Record translates the block into the backend's wire record.
func (p *PinDefinition) Record() catalog.PinRecord {
	rec := catalog.PinRecord{
		ID:            p.ID,
		PinType:       p.Kind,
		Name:          p.Name,
		Description:   p.Description,
		TypeDependsOn: p.DependsOn,
		Type:          p.Type,
	}
	if rec.PinType == "" {
		rec.PinType = defaultPinKind
	}
	if p.Default != nil && !p.Default.IsNull() {
		lit := pintype.NewLiteral(*p.Default)
		rec.DefaultValue = &lit
	}
	return rec
}
