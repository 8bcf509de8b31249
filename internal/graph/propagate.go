package graph

import (
	"github.com/specialistvlad/blueprintgo/internal/pinref"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
)

// pendingType is one worklist entry. viaDependency marks pins reached through
// a type dependency, whose connection partners must follow them.
type pendingType struct {
	pin           *Pin
	viaDependency bool
}

// changeDynamicType sets start to newType and spreads the change: to every
// pin declaring a dependency on a changed pin, and from each such dependent
// across its connections. Each pin is visited at most once per pass.
func (g *Graph) changeDynamicType(start *Pin, newType string) {
	newType = pintype.Normalize(newType)
	visited := make(map[pinref.Ref]struct{})
	queue := []pendingType{{pin: start}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		p := item.pin
		if _, seen := visited[p.ref]; seen {
			continue
		}
		visited[p.ref] = struct{}{}
		if p.IsFlow() {
			continue
		}
		g.setType(p, newType)

		if item.viaDependency {
			for _, id := range p.connectionIDs() {
				c := g.conns[id]
				partner := c.From
				if partner == p.ref {
					partner = c.To
				}
				queue = append(queue, pendingType{pin: g.mustPin(partner)})
			}
		}
		for _, dep := range g.nodes[p.ref.Node].PinsDependingOn(p.ref.Pin) {
			queue = append(queue, pendingType{pin: dep, viaDependency: true})
		}
	}
}

func (g *Graph) setType(p *Pin, t string) {
	if p.currentType == t {
		return
	}
	old := p.currentType
	p.currentType = t
	g.observer.OnPinTypeChanged(p.ref, old, t)
}
