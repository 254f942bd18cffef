package graph

import (
	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/errs"
)

// Graph owns a set of gates and links by id, and may be marked observed
// (spec §3). Grounded on original_source/srcRust/graph.rs's Graph; extended
// with the removal/subcircuit-binding surface lib.rs's RustEngine drives.
type Graph struct {
	id    string
	gates map[string]*Gate
	links map[string]*Link

	observed bool

	// subcircuit is the host gate this graph is bound to as a subcircuit
	// body, or nil if this graph is not a subgraph. It is a back
	// reference, never an ownership edge (spec §3's Ownership note); it
	// must be nulled before either side is torn down.
	subcircuit *Gate
}

// New builds an empty, unobserved graph.
func New(id string) *Graph {
	return &Graph{
		id:    id,
		gates: make(map[string]*Gate),
		links: make(map[string]*Link),
	}
}

// ID returns the graph's id.
func (g *Graph) ID() string { return g.id }

// Observe marks the graph's gate-output changes for host notification.
func (g *Graph) Observe() { g.observed = true }

// Unobserve stops host notification of this graph's gate-output changes.
func (g *Graph) Unobserve() { g.observed = false }

// Observed reports whether the graph is currently observed.
func (g *Graph) Observed() bool { return g.observed }

// Subcircuit returns the host gate this graph is bound to, or nil.
func (g *Graph) Subcircuit() *Gate { return g.subcircuit }

// SetSubcircuit records (or, passed nil, clears) the back reference to the
// host gate this graph is bound to as a subcircuit body.
func (g *Graph) SetSubcircuit(host *Gate) { g.subcircuit = host }

// AddGate creates a gate of the given cell type/parameters and port list
// and stores it by id. Grounded on graph.rs's add_gate.
func (g *Graph) AddGate(id string, params cell.Params, ports []PortSpec) (*Gate, error) {
	gate, err := NewGate(g, id, params, ports)
	if err != nil {
		return nil, err
	}
	g.gates[id] = gate
	return gate, nil
}

// Gate looks up a gate by id.
func (g *Graph) Gate(id string) (*Gate, error) {
	gate, ok := g.gates[id]
	if !ok {
		return nil, errs.New(errs.LookupMiss, "Graph.Gate", "graph %q has no gate %q", g.id, id)
	}
	return gate, nil
}

// Gates returns every gate in the graph, for the engine's observe_graph
// sweep and for circuit loaders walking the whole topology.
func (g *Graph) Gates() []*Gate {
	out := make([]*Gate, 0, len(g.gates))
	for _, gate := range g.gates {
		out = append(out, gate)
	}
	return out
}

// AddLink records a directed edge from source to target, validating both
// endpoints exist, the source is an output and the target an input, and
// their widths match (spec §4.3's add_link preconditions). It does not
// propagate the source's current value — the engine's AddLink command
// does that after this succeeds, mirroring lib.rs's separation between
// graph.rs's plain add_link and RustEngine::add_link's extra propagation
// step.
func (g *Graph) AddLink(linkID string, source, target LinkTarget) (*Link, error) {
	sourceGate, err := g.Gate(source.GateID)
	if err != nil {
		return nil, err
	}
	targetGate, err := g.Gate(target.GateID)
	if err != nil {
		return nil, err
	}
	sourceDir, err := sourceGate.PortDir(source.Port)
	if err != nil {
		return nil, err
	}
	if sourceDir != Out {
		return nil, errs.New(errs.LookupMiss, "Graph.AddLink", "link source %s.%s is not an output port", source.GateID, source.Port)
	}
	targetDir, err := targetGate.PortDir(target.Port)
	if err != nil {
		return nil, err
	}
	if targetDir != In {
		return nil, errs.New(errs.LookupMiss, "Graph.AddLink", "link target %s.%s is not an input port", target.GateID, target.Port)
	}
	sourceWidth, _ := sourceGate.PortWidth(source.Port)
	targetWidth, _ := targetGate.PortWidth(target.Port)
	if sourceWidth != targetWidth {
		return nil, errs.New(errs.WidthMismatch, "Graph.AddLink", "link %s: source width %d != target width %d", linkID, sourceWidth, targetWidth)
	}

	link := &Link{ID: linkID, From: source, To: target}
	g.links[linkID] = link
	_ = sourceGate.addLinkTo(source.Port, target)
	sourceGate.addIncidentLink(linkID)
	targetGate.addIncidentLink(linkID)
	return link, nil
}

// RemoveLink deletes a link and its adjacency bookkeeping. It does not
// force the target input back to all-X — the engine's RemoveLink command
// does that, since it requires scheduler propagation.
func (g *Graph) RemoveLink(linkID string) (*Link, error) {
	link, ok := g.links[linkID]
	if !ok {
		return nil, errs.New(errs.LookupMiss, "Graph.RemoveLink", "graph %q has no link %q", g.id, linkID)
	}
	delete(g.links, linkID)
	if sourceGate, err := g.Gate(link.From.GateID); err == nil {
		sourceGate.removeLinkTo(link.From.Port, link.To)
		sourceGate.removeIncidentLink(linkID)
	}
	if targetGate, err := g.Gate(link.To.GateID); err == nil {
		targetGate.removeIncidentLink(linkID)
	}
	return link, nil
}

// Link looks up a link by id.
func (g *Graph) Link(linkID string) (*Link, error) {
	link, ok := g.links[linkID]
	if !ok {
		return nil, errs.New(errs.LookupMiss, "Graph.Link", "graph %q has no link %q", g.id, linkID)
	}
	return link, nil
}

// RemoveGate deletes a gate and every link incident to it. If the gate is
// a subcircuit, its subgraph's back reference is cleared first (spec §3's
// ownership note: "remove_gate on a subcircuit must unbind the subgraph
// first").
func (g *Graph) RemoveGate(id string) error {
	gate, err := g.Gate(id)
	if err != nil {
		return err
	}
	if gate.IsSubcircuit() {
		sg, _ := gate.Subgraph()
		sg.SetSubcircuit(nil)
		gate.SetSubgraph(nil)
	}
	for _, linkID := range gate.IncidentLinks() {
		_, _ = g.RemoveLink(linkID)
	}
	delete(g.gates, id)
	return nil
}
