package catalog

import (
	"fmt"

	"github.com/specialistvlad/blueprintgo/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// Wire names of the pin kinds.
const (
	pinTypeFlow     = "flow"
	pinTypeArgument = "argument"
)

// NodeRecord is the JSON shape of one node template as served by the
// execution backend's catalog endpoint.
type NodeRecord struct {
	NodeID      string      `json:"nodeId"`
	BaseType    string      `json:"baseType,omitempty"`
	IsPure      bool        `json:"isPure"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category,omitempty"`
	InPins      []PinRecord `json:"inPins"`
	OutPins     []PinRecord `json:"outPins"`
}

// PinRecord is the JSON shape of one pin template.
type PinRecord struct {
	ID            string           `json:"id"`
	PinType       string           `json:"pinType"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	TypeDependsOn string           `json:"typeDependsOn,omitempty"`
	Type          string           `json:"type,omitempty"`
	DefaultValue  *pintype.Literal `json:"defaultValue,omitempty"`
}

// FromRecords converts and validates backend records into a Catalog.
func FromRecords(records []NodeRecord) (*Catalog, error) {
	descs := make([]*NodeDescriptor, 0, len(records))
	for i, rec := range records {
		desc, err := rec.descriptor()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d (%q): %v", ErrMalformed, i, rec.NodeID, err)
		}
		descs = append(descs, desc)
	}
	return New(descs...)
}

func (r NodeRecord) descriptor() (*NodeDescriptor, error) {
	desc := &NodeDescriptor{
		TypeID:      r.NodeID,
		Name:        r.Name,
		Description: r.Description,
		BaseType:    r.BaseType,
		Category:    r.Category,
		IsPure:      r.IsPure,
	}
	for _, pr := range r.InPins {
		pd, err := pr.descriptor(Input)
		if err != nil {
			return nil, err
		}
		desc.Inputs = append(desc.Inputs, pd)
	}
	for _, pr := range r.OutPins {
		pd, err := pr.descriptor(Output)
		if err != nil {
			return nil, err
		}
		desc.Outputs = append(desc.Outputs, pd)
	}
	return desc, nil
}

func (r PinRecord) descriptor(dir Direction) (*PinDescriptor, error) {
	pd := &PinDescriptor{
		ID:          r.ID,
		Direction:   dir,
		Name:        r.Name,
		Description: r.Description,
		DependsOn:   r.TypeDependsOn,
		Default:     cty.NullVal(cty.DynamicPseudoType),
	}
	switch r.PinType {
	case pinTypeFlow:
		pd.Kind = KindFlow
	case pinTypeArgument:
		pd.Kind = KindArgument
		pd.DeclaredType = pintype.Normalize(r.Type)
		if dir == Input && r.DefaultValue != nil && !r.DefaultValue.IsNull() {
			pd.Default = pintype.Tag(r.DefaultValue.Value, pd.DeclaredType)
		}
	default:
		return nil, fmt.Errorf("pin %q has unknown pinType %q", r.ID, r.PinType)
	}
	return pd, nil
}

// Records converts the catalog back into its wire form, preserving order.
func (c *Catalog) Records() []NodeRecord {
	records := make([]NodeRecord, 0, len(c.order))
	for _, id := range c.order {
		d := c.nodes[id]
		rec := NodeRecord{
			NodeID:      d.TypeID,
			BaseType:    d.BaseType,
			IsPure:      d.IsPure,
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			InPins:      make([]PinRecord, 0, len(d.Inputs)),
			OutPins:     make([]PinRecord, 0, len(d.Outputs)),
		}
		for _, p := range d.Inputs {
			rec.InPins = append(rec.InPins, pinRecord(p))
		}
		for _, p := range d.Outputs {
			rec.OutPins = append(rec.OutPins, pinRecord(p))
		}
		records = append(records, rec)
	}
	return records
}

func pinRecord(p *PinDescriptor) PinRecord {
	pr := PinRecord{
		ID:            p.ID,
		PinType:       p.Kind.String(),
		Name:          p.Name,
		Description:   p.Description,
		TypeDependsOn: p.DependsOn,
	}
	if p.Kind == KindArgument {
		pr.Type = p.DeclaredType
		if p.Direction == Input && p.Default != cty.NilVal && !p.Default.IsNull() {
			lit := pintype.NewLiteral(p.Default)
			pr.DefaultValue = &lit
		}
	}
	return pr
}
