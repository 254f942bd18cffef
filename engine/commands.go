package engine

import (
	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/errs"
	"github.com/sarchlab/digitaljs/graph"
)

// AddGraph creates an empty, unobserved graph under id. Grounded on
// lib.rs's add_graph.
func (e *Engine) AddGraph(graphID string) {
	e.graphs[graphID] = graph.New(graphID)
}

// RemoveGraph deletes a graph and every gate it owns. The command surface
// of spec §6 lists this only as an implicit counterpart to addGraph (no
// Rust-side method in the retrieved lib.rs excerpt); provided as a thin
// delete for a host tearing a circuit down.
func (e *Engine) RemoveGraph(graphID string) {
	delete(e.graphs, graphID)
}

// AddGate creates a gate of the given cell type/parameters and port list
// inside graphID, then enqueues it for its first evaluation. Grounded on
// lib.rs's add_gate.
func (e *Engine) AddGate(graphID, gateID string, params cell.Params, ports []graph.PortSpec) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	gate, err := g.AddGate(gateID, params, ports)
	if err != nil {
		return err
	}
	e.enqueue(gate)
	return nil
}

// AddLink connects source's output port to target's input port inside
// graphID, then propagates source's current value onto target. Grounded
// on lib.rs's add_link.
func (e *Engine) AddLink(graphID, linkID string, source, target graph.LinkTarget) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	if _, err := g.AddLink(linkID, source, target); err != nil {
		return err
	}
	sourceGate, err := g.Gate(source.GateID)
	if err != nil {
		return err
	}
	targetGate, err := g.Gate(target.GateID)
	if err != nil {
		return err
	}
	sig, err := sourceGate.Output(source.Port)
	if err != nil {
		return err
	}
	return e.setGateInputSignal(targetGate, target.Port, sig)
}

// IOMapEntry binds one host-side subcircuit port to the id of the boundary
// Input/Output cell inside the subgraph that mirrors it.
type IOMapEntry struct {
	Port string
	IOID string
}

// AddSubcircuit binds subgraphID as gateID's subcircuit body, seeding every
// mapped port's current value across the new boundary. Grounded on
// lib.rs's add_subcircuit.
func (e *Engine) AddSubcircuit(graphID, gateID, subgraphID string, ioMap []IOMapEntry) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	gate, err := g.Gate(gateID)
	if err != nil {
		return err
	}
	subgraph, err := e.getGraph(subgraphID)
	if err != nil {
		return err
	}

	gate.SetSubgraph(subgraph)
	subgraph.SetSubcircuit(gate)

	m := make(map[string]string, len(ioMap))
	for _, entry := range ioMap {
		m[entry.Port] = entry.IOID
		io, err := subgraph.Gate(entry.IOID)
		if err != nil {
			return err
		}
		dir, err := gate.PortDir(entry.Port)
		if err != nil {
			return err
		}
		if dir == graph.In {
			v, err := gate.Input(entry.Port)
			if err != nil {
				return err
			}
			if err := e.setGateOutputSignal(io, "out", v); err != nil {
				return err
			}
		} else {
			v, err := io.Input("in")
			if err != nil {
				return err
			}
			if err := e.setGateOutputSignal(gate, entry.Port, v); err != nil {
				return err
			}
		}
	}
	gate.SetSubgraphIOMap(m)
	return nil
}

// RemoveLink deletes a link and forces its former target input back to an
// all-X value of the same width. Grounded on lib.rs's remove_link.
func (e *Engine) RemoveLink(graphID, linkID string) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	link, err := g.RemoveLink(linkID)
	if err != nil {
		return err
	}
	targetGate, err := g.Gate(link.To.GateID)
	if err != nil {
		return err
	}
	old, err := targetGate.Input(link.To.Port)
	if err != nil {
		return err
	}
	return e.setGateInputSignal(targetGate, link.To.Port, bitvector.Xes(old.Bits))
}

// RemoveGate deletes a gate and every link incident to it. Grounded on
// lib.rs's remove_gate.
func (e *Engine) RemoveGate(graphID, gateID string) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	return g.RemoveGate(gateID)
}

// ObserveGraph marks graphID observed and schedules every one of its
// gates' current output ports for the next SendUpdates call, so a host
// that starts observing mid-simulation immediately sees present state.
// Grounded on lib.rs's observe_graph.
func (e *Engine) ObserveGraph(graphID string) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	g.Observe()
	for _, gate := range g.Gates() {
		for _, port := range gate.OutputPorts() {
			e.markUpdate(gate, port)
		}
	}
	return nil
}

// UnobserveGraph stops host notification of graphID's output changes.
// Grounded on lib.rs's unobserve_graph.
func (e *Engine) UnobserveGraph(graphID string) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	g.Unobserve()
	return nil
}

// ChangeInput overwrites gateID's "out" port directly, the command a host
// issues when the user drives a Button/NumEntry/Input cell by hand.
// Grounded on lib.rs's change_input.
func (e *Engine) ChangeInput(graphID, gateID string, sig bitvector.Vec3) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	gate, err := g.Gate(gateID)
	if err != nil {
		return err
	}
	return e.setGateOutputSignal(gate, "out", sig)
}

// ManualMemChange pokes one word of a Memory cell's contents directly and
// re-enqueues it, bypassing every write port's enable/polarity logic.
// addr is the same offset-adjusted local index Memory.Eval's write ports
// compute (spec §9's Open Question resolution: the host-facing address is
// assumed pre-adjusted the same way a write port's "addr" signal is, since
// the original leaves this underspecified). Grounded on lib.rs's
// manual_mem_change.
func (e *Engine) ManualMemChange(graphID, gateID string, addr int32, data bitvector.Vec3) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	gate, err := g.Gate(gateID)
	if err != nil {
		return err
	}
	mem, ok := gate.Cell().(*cell.Memory)
	if !ok {
		return errs.New(errs.LookupMiss, "Engine.ManualMemChange", "gate %q is not a Memory cell", gateID)
	}
	if !mem.SetMemory(addr, data) {
		return errs.New(errs.LookupMiss, "Engine.ManualMemChange", "address %d out of range for gate %q", addr, gateID)
	}
	e.enqueue(gate)
	return nil
}

// MonitorSpec is the host-supplied configuration of one monitor (lib.rs's
// JsMonitorParams): an optional set of trigger values (nil means "fire on
// every change"), whether a hit stops the update loop, whether the monitor
// disarms itself after one hit, and whether a hit flushes pending output
// updates before being reported.
type MonitorSpec struct {
	TriggerValues []bitvector.Vec3
	StopOnTrigger bool
	OneShot       bool
	Synchronous   bool
}

// Monitor attaches a monitor to (graphID, gateID, port), reporting its
// current value immediately if the monitor has no trigger filter.
// Grounded on lib.rs's monitor.
func (e *Engine) Monitor(graphID, gateID, port string, monitorID uint32, spec MonitorSpec) error {
	g, err := e.getGraph(graphID)
	if err != nil {
		return err
	}
	gate, err := g.Gate(gateID)
	if err != nil {
		return err
	}

	if len(spec.TriggerValues) == 0 {
		sig, err := gate.Output(port)
		if err != nil {
			return err
		}
		bits, a, b := sig.Wire()
		e.host.PostMonitorValue(monitorID, e.tick, bits, a, b, false, false)
	}

	e.monitors[monitorID] = &monitorParams{
		triggerValues: spec.TriggerValues,
		hasTriggers:   len(spec.TriggerValues) > 0,
		stopOnTrigger: spec.StopOnTrigger,
		oneShot:       spec.OneShot,
		synchronous:   spec.Synchronous,
		graphID:       graphID,
		gateID:        gateID,
		port:          port,
	}
	gate.Monitor(port, monitorID)
	return nil
}

// Unmonitor detaches monitorID, the public command surface. Grounded on
// lib.rs's unmonitor.
func (e *Engine) Unmonitor(monitorID uint32) error {
	e.unmonitor(monitorID)
	return nil
}

// unmonitor is the bookkeeping lib.rs's unmonitor performs, shared by the
// public command and postMonitors' one-shot disarm path.
func (e *Engine) unmonitor(monitorID uint32) {
	m, ok := e.monitors[monitorID]
	if !ok {
		return
	}
	delete(e.monitors, monitorID)
	if g, err := e.getGraph(m.graphID); err == nil {
		if gate, err := g.Gate(m.gateID); err == nil {
			gate.Unmonitor(m.port, monitorID)
		}
	}
	delete(e.monitorChecks, monitorID)
}

// AlarmSpec is the host-supplied configuration of one alarm (lib.rs's
// JsAlarmStruct).
type AlarmSpec struct {
	StopOnAlarm bool
	Synchronous bool
}

// Alarm arms alarmID to fire at tick, which must be strictly in the
// future; a request for a past or current tick is silently ignored, as
// lib.rs's alarm does. Arming also seeds an (otherwise possibly-empty)
// queue entry at tick-1 so the scheduler has something to stop at even if
// no gate activity is pending there.
func (e *Engine) Alarm(tick, alarmID uint32, spec AlarmSpec) {
	if tick <= e.tick {
		return
	}
	e.alarms[alarmID] = &alarmParams{
		tick:        tick,
		stopOnAlarm: spec.StopOnAlarm,
		synchronous: spec.Synchronous,
	}
	set, ok := e.alarmQueue[tick]
	if !ok {
		set = make(map[uint32]struct{})
		e.alarmQueue[tick] = set
	}
	set[alarmID] = struct{}{}

	e.pq.Insert(tick - 1)
	if _, ok := e.queue[tick-1]; !ok {
		e.queue[tick-1] = make(map[string]gateSnapshot)
	}
}

// Unalarm disarms alarmID. Grounded on lib.rs's unalarm.
func (e *Engine) Unalarm(alarmID uint32) {
	alarm, ok := e.alarms[alarmID]
	if !ok {
		return
	}
	delete(e.alarms, alarmID)
	if aq, ok := e.alarmQueue[alarm.tick]; ok {
		delete(aq, alarmID)
		if len(aq) == 0 {
			delete(e.alarmQueue, alarm.tick)
		}
	}
}
