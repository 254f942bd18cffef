package graph

import (
	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/errs"
)

// boundary cell type names the engine, not the cell library, special-cases
// when propagating signals across a subcircuit's outer boundary (spec
// §4.3's set_gate_input_signal).
const (
	TypeInput      = "Input"
	TypeOutput     = "Output"
	TypeSubcircuit = "Subcircuit"
)

// Gate is a cell instance within a Graph: its declared ports, its cached
// outgoing adjacency, its evaluator, and (for a Subcircuit gate) the
// subgraph it hosts. Grounded on original_source/srcRust/gate.rs's Gate,
// generalized to the full accessor surface lib.rs's RustEngine calls
// (get_port_dir, is_subcircuit, get_subgraph, get_subgraph_iomap_port,
// is_output, get_subcir_net, monitor/unmonitor, get_monitors), which the
// retrieved gate.rs snapshot predates.
type Gate struct {
	id          string
	graph       *Graph
	cellType    string
	label       string
	net         string
	propagation uint32

	ins  map[string]*Port
	outs map[string]*Port

	linkedTo map[string][]LinkTarget
	linkIDs  map[string]struct{}

	monitors map[string]map[uint32]struct{}

	cell cell.Cell

	subgraph *Graph
	ioMap    map[string]string
}

// NewGate builds a gate of the given cell type/parameters and port list.
// Grounded on gate.rs's Gate::new; the cell evaluator itself comes from
// cell.New rather than gate.rs's ad-hoc `id starts with 'g'` stand-in.
func NewGate(owner *Graph, id string, params cell.Params, ports []PortSpec) (*Gate, error) {
	c, err := cell.New(params)
	if err != nil {
		return nil, err
	}

	g := &Gate{
		id:          id,
		graph:       owner,
		cellType:    params.Type,
		label:       params.Label,
		net:         params.Net,
		propagation: params.Propagation,
		ins:         make(map[string]*Port),
		outs:        make(map[string]*Port),
		linkedTo:    make(map[string][]LinkTarget),
		linkIDs:     make(map[string]struct{}),
		monitors:    make(map[string]map[uint32]struct{}),
		cell:        c,
	}
	for _, p := range ports {
		port := NewPort(p)
		if p.Dir == In {
			g.ins[p.ID] = port
		} else {
			g.outs[p.ID] = port
			g.linkedTo[p.ID] = nil
		}
	}
	return g, nil
}

// ID is the gate's id within its owning graph.
func (g *Gate) ID() string { return g.id }

// GraphID is the owning graph's id, cached on the gate the way gate.rs
// caches graph_id rather than dereferencing the graph back-pointer.
func (g *Gate) GraphID() string { return g.graph.ID() }

// Graph returns the owning graph.
func (g *Gate) Graph() *Graph { return g.graph }

// Type is the cell type string that selected this gate's evaluator.
func (g *Gate) Type() string { return g.cellType }

// Label is the gate's display label (gate-parameters payload, spec §6).
func (g *Gate) Label() string { return g.label }

// Net is the host-side port name a boundary Input/Output cell mirrors
// (spec §3's subcircuit binding invariant).
func (g *Gate) Net() string { return g.net }

// Propagation is the tick delay the scheduler adds between an input change
// and this gate's re-evaluation.
func (g *Gate) Propagation() uint32 { return g.propagation }

// Cell returns the gate's evaluator, for the engine's scheduler and for
// type-asserting into *cell.Memory / *cell.FSM where a command or callback
// needs cell-specific state.
func (g *Gate) Cell() cell.Cell { return g.cell }

// Input reads the named input port's currently-seen signal.
func (g *Gate) Input(port string) (bitvector.Vec3, error) {
	p, ok := g.ins[port]
	if !ok {
		return bitvector.Vec3{}, errs.New(errs.LookupMiss, "Gate.Input", "gate %q has no input port %q", g.id, port)
	}
	return p.Value(), nil
}

// Output reads the named output port's currently-published signal.
func (g *Gate) Output(port string) (bitvector.Vec3, error) {
	p, ok := g.outs[port]
	if !ok {
		return bitvector.Vec3{}, errs.New(errs.LookupMiss, "Gate.Output", "gate %q has no output port %q", g.id, port)
	}
	return p.Value(), nil
}

// SetInput overwrites the named input port's signal unconditionally.
func (g *Gate) SetInput(port string, v bitvector.Vec3) error {
	p, ok := g.ins[port]
	if !ok {
		return errs.New(errs.LookupMiss, "Gate.SetInput", "gate %q has no input port %q", g.id, port)
	}
	p.SetValue(v)
	return nil
}

// SetOutput overwrites the named output port's signal unconditionally.
func (g *Gate) SetOutput(port string, v bitvector.Vec3) error {
	p, ok := g.outs[port]
	if !ok {
		return errs.New(errs.LookupMiss, "Gate.SetOutput", "gate %q has no output port %q", g.id, port)
	}
	p.SetValue(v)
	return nil
}

// Inputs snapshots every input port's current value, for the scheduler's
// enqueue-time snapshot (spec §4.4).
func (g *Gate) Inputs() cell.Inputs {
	out := make(cell.Inputs, len(g.ins))
	for name, p := range g.ins {
		out[name] = p.Value()
	}
	return out
}

// PortDir reports whether port is an input or output of this gate.
func (g *Gate) PortDir(port string) (Dir, error) {
	if _, ok := g.ins[port]; ok {
		return In, nil
	}
	if _, ok := g.outs[port]; ok {
		return Out, nil
	}
	return 0, errs.New(errs.LookupMiss, "Gate.PortDir", "gate %q has no port %q", g.id, port)
}

// PortWidth reports port's declared width.
func (g *Gate) PortWidth(port string) (uint32, error) {
	if p, ok := g.ins[port]; ok {
		return p.Width(), nil
	}
	if p, ok := g.outs[port]; ok {
		return p.Width(), nil
	}
	return 0, errs.New(errs.LookupMiss, "Gate.PortWidth", "gate %q has no port %q", g.id, port)
}

// OutputPorts lists every output port id, for observe_graph's initial
// mark-update sweep (lib.rs's iodirs_iter filtered to IoDir::Out).
func (g *Gate) OutputPorts() []string {
	out := make([]string, 0, len(g.outs))
	for id := range g.outs {
		out = append(out, id)
	}
	return out
}

// addLinkTo records an outgoing adjacency entry on an output port.
func (g *Gate) addLinkTo(port string, target LinkTarget) error {
	if _, ok := g.outs[port]; !ok {
		return errs.New(errs.LookupMiss, "Gate.addLinkTo", "gate %q has no output port %q", g.id, port)
	}
	g.linkedTo[port] = append(g.linkedTo[port], target)
	return nil
}

func (g *Gate) removeLinkTo(port string, target LinkTarget) {
	tgts := g.linkedTo[port]
	for i, t := range tgts {
		if t == target {
			g.linkedTo[port] = append(tgts[:i], tgts[i+1:]...)
			return
		}
	}
}

// Targets lists every link target fanning out of the named output port.
func (g *Gate) Targets(port string) ([]LinkTarget, error) {
	tgts, ok := g.linkedTo[port]
	if !ok {
		return nil, errs.New(errs.LookupMiss, "Gate.Targets", "gate %q has no output port %q", g.id, port)
	}
	return tgts, nil
}

func (g *Gate) addIncidentLink(id string) { g.linkIDs[id] = struct{}{} }
func (g *Gate) removeIncidentLink(id string) { delete(g.linkIDs, id) }

// IncidentLinks lists every link id touching this gate (as source or
// target), for Graph.RemoveGate's cascade.
func (g *Gate) IncidentLinks() []string {
	out := make([]string, 0, len(g.linkIDs))
	for id := range g.linkIDs {
		out = append(out, id)
	}
	return out
}

// IsSubcircuit reports whether a subgraph is bound to this gate (spec
// §3's subcircuit binding).
func (g *Gate) IsSubcircuit() bool { return g.subgraph != nil }

// IsInputBoundary reports whether this gate is an Input boundary cell of a
// subgraph.
func (g *Gate) IsInputBoundary() bool { return g.cellType == TypeInput }

// IsOutputBoundary reports whether this gate is an Output boundary cell of
// a subgraph.
func (g *Gate) IsOutputBoundary() bool { return g.cellType == TypeOutput }

// Subgraph returns the subgraph bound to this gate.
func (g *Gate) Subgraph() (*Graph, error) {
	if g.subgraph == nil {
		return nil, errs.New(errs.LookupMiss, "Gate.Subgraph", "gate %q is not a subcircuit", g.id)
	}
	return g.subgraph, nil
}

// SetSubgraph binds sg as this gate's subcircuit body.
func (g *Gate) SetSubgraph(sg *Graph) { g.subgraph = sg }

// SetSubgraphIOMap records the host-port -> subgraph-boundary-gate-id
// mapping spec §3 calls the iomap.
func (g *Gate) SetSubgraphIOMap(m map[string]string) { g.ioMap = m }

// SubgraphIOMapPort resolves a host-side port name to the id of the
// boundary Input/Output cell inside the subgraph that mirrors it.
func (g *Gate) SubgraphIOMapPort(port string) (string, error) {
	id, ok := g.ioMap[port]
	if !ok {
		return "", errs.New(errs.LookupMiss, "Gate.SubgraphIOMapPort", "subcircuit %q has no iomap entry for port %q", g.id, port)
	}
	return id, nil
}

// Monitor attaches monitorID to (gate, port).
func (g *Gate) Monitor(port string, monitorID uint32) {
	set, ok := g.monitors[port]
	if !ok {
		set = make(map[uint32]struct{})
		g.monitors[port] = set
	}
	set[monitorID] = struct{}{}
}

// Unmonitor detaches monitorID from (gate, port).
func (g *Gate) Unmonitor(port string, monitorID uint32) {
	if set, ok := g.monitors[port]; ok {
		delete(set, monitorID)
	}
}

// Monitors lists every monitor id attached to port.
func (g *Gate) Monitors(port string) []uint32 {
	set := g.monitors[port]
	out := make([]uint32, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
