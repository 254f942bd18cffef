package engine

import (
	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/errs"
	"github.com/sarchlab/digitaljs/graph"
)

// enqueue schedules gate for re-evaluation at tick+propagation, snapshotting
// its current input values the way lib.rs's enqueue does (so a later input
// change before the gate actually runs does not retroactively alter what it
// sees this round).
func (e *Engine) enqueue(gate *graph.Gate) {
	k := e.tick + gate.Propagation()
	q, ok := e.queue[k]
	if !ok {
		q = make(map[string]gateSnapshot)
		e.queue[k] = q
		e.pq.Insert(k)
	}
	q[gateKey(gate.GraphID(), gate.ID())] = gateSnapshot{gate: gate, inputs: gate.Inputs()}
}

// UpdateGates advances the scheduler by one tick, running whatever is
// queued for the current tick (if any), optionally flushing accumulated
// output updates to the host, posting monitor/alarm hits, and
// acknowledging reqid with the number of gates evaluated.
func (e *Engine) UpdateGates(reqid uint32, sendUpdates bool) error {
	count, err := e.updateGatesPriv()
	if err != nil {
		return err
	}
	if sendUpdates {
		if err := e.sendUpdatesPriv(); err != nil {
			return err
		}
	}
	if err := e.postMonitors(); err != nil {
		return err
	}
	e.sendAck(reqid, &count)
	return nil
}

func (e *Engine) updateGatesPriv() (uint32, error) {
	k, ok := e.pq.First()
	if !ok {
		e.tick++
		return 0, nil
	}
	if k != e.tick {
		e.tick++
		return 0, nil
	}
	return e.updateGatesNextPriv()
}

// UpdateGatesNext jumps the scheduler directly to its next queued event,
// skipping any idle ticks, evaluating everything queued there.
func (e *Engine) UpdateGatesNext(reqid uint32, sendUpdates bool) error {
	count, err := e.updateGatesNextPriv()
	if err != nil {
		return err
	}
	if sendUpdates {
		if err := e.sendUpdatesPriv(); err != nil {
			return err
		}
	}
	if err := e.postMonitors(); err != nil {
		return err
	}
	e.sendAck(reqid, &count)
	return nil
}

func (e *Engine) updateGatesNextPriv() (uint32, error) {
	k, ok := e.pq.PopFirst()
	if !ok {
		return 0, errs.New(errs.LookupMiss, "Engine.UpdateGatesNext", "no events have been queued")
	}
	e.tick = k

	var count uint32
	for {
		q, ok := e.queue[k]
		if !ok {
			break
		}
		delete(e.queue, k)

		for _, snap := range q {
			result, err := snap.gate.Cell().Eval(snap.inputs)
			if err != nil {
				return count, err
			}
			if result.Clock {
				e.enqueue(snap.gate)
			}
			if err := e.setGateOutputSignals(snap.gate, result); err != nil {
				return count, err
			}
			count++
		}

		if _, ok := e.queue[k]; ok {
			e.pq.PopFirst()
		}
	}

	e.tick++
	return count, nil
}

// Ping flushes output updates without advancing the scheduler, matching
// lib.rs's ping (used by a host polling for a dirty-but-not-yet-ticked
// connection).
func (e *Engine) Ping(reqid uint32, sendUpdates bool) error {
	if sendUpdates {
		if err := e.sendUpdatesPriv(); err != nil {
			return err
		}
	}
	e.sendAck(reqid, nil)
	return nil
}

// postMonitors reports every monitor check accumulated since the last call
// and fires any alarm armed for the current tick, mirroring lib.rs's
// post_monitors.
func (e *Engine) postMonitors() error {
	checks := e.monitorChecks
	e.monitorChecks = make(map[uint32]bitvector.Vec3)

	for monitorID, sig := range checks {
		params, err := e.getMonitor(monitorID)
		if err != nil {
			return err
		}
		triggered := true
		if params.hasTriggers {
			triggered = false
			for _, v := range params.triggerValues {
				if v.Equal(sig) {
					triggered = true
					break
				}
			}
		}
		if !triggered {
			continue
		}
		if params.oneShot {
			e.unmonitor(monitorID)
		}
		if params.synchronous {
			if err := e.sendUpdatesPriv(); err != nil {
				return err
			}
		}
		bits, a, b := sig.Wire()
		e.host.PostMonitorValue(monitorID, e.tick, bits, a, b, params.stopOnTrigger, params.oneShot)
		if params.stopOnTrigger {
			e.host.UpdaterStop()
		}
	}

	if aq, ok := e.alarmQueue[e.tick]; ok {
		delete(e.alarmQueue, e.tick)
		for alarmID := range aq {
			alarm, ok := e.alarms[alarmID]
			if !ok {
				continue
			}
			delete(e.alarms, alarmID)
			if alarm.synchronous {
				if err := e.sendUpdatesPriv(); err != nil {
					return err
				}
			}
			e.host.SendAlarmReached(alarmID, e.tick, alarm.stopOnAlarm)
			if alarm.stopOnAlarm {
				e.host.UpdaterStop()
			}
		}
	}
	return nil
}

// setGateOutputSignals applies every output one cell evaluation produced,
// plus its memory-write and FSM-transition side effects. Grounded on
// lib.rs's set_gate_output_signals_priv, extended with the Memory/FSM host
// callbacks cell_memory.rs/cell_fsm.rs's Rust counterparts raise from
// inside the cell evaluator itself — raised here instead, since this
// package's cells stay free of host/engine dependencies (spec §9).
func (e *Engine) setGateOutputSignals(gate *graph.Gate, result cell.Result) error {
	if result.Out != nil {
		if err := e.setGateOutputSignal(gate, "out", *result.Out); err != nil {
			return err
		}
	}
	for port, sig := range result.Others {
		if err := e.setGateOutputSignal(gate, port, sig); err != nil {
			return err
		}
	}

	for _, w := range result.MemWrites {
		bits, a, b := w.Value.Wire()
		e.host.TriggerMemoryUpdate(gate.GraphID(), gate.ID(), w.Addr, bits, a, b)
	}

	if fsm, ok := gate.Cell().(*cell.FSM); ok {
		e.host.TriggerFSMCurrentStateChange(gate.GraphID(), gate.ID(), fsm.CurrentState())
		var transID *string
		if t := fsm.LastTransition(); t != "" {
			transID = &t
		}
		e.host.TriggerFSMNextTransChange(gate.GraphID(), gate.ID(), transID)
	}

	return nil
}

// setGateOutputSignal publishes sig on gate's port if it differs from the
// port's current value, marks the change for the next SendUpdates call
// (when the gate's graph is observed), propagates it to every linked
// target input, and queues any attached monitor for post_monitors.
// Grounded on lib.rs's set_gate_output_signal_priv.
func (e *Engine) setGateOutputSignal(gate *graph.Gate, port string, sig bitvector.Vec3) error {
	old, err := gate.Output(port)
	if err != nil {
		return err
	}
	if old.Equal(sig) {
		return nil
	}

	if err := gate.SetOutput(port, sig); err != nil {
		return err
	}
	e.markUpdate(gate, port)

	targets, err := gate.Targets(port)
	if err != nil {
		return err
	}
	for _, target := range targets {
		targetGate, err := gate.Graph().Gate(target.GateID)
		if err != nil {
			return err
		}
		if err := e.setGateInputSignal(targetGate, target.Port, sig); err != nil {
			return err
		}
	}

	for _, monitorID := range gate.Monitors(port) {
		e.monitorChecks[monitorID] = sig
	}
	return nil
}

// setGateInputSignal publishes sig on target's input port if it differs
// from the port's current value, then dispatches on what kind of gate the
// target is: a subcircuit forwards the value onto its subgraph's matching
// boundary Input cell; a boundary Output cell forwards it out to its host
// gate's corresponding output (if the subgraph is currently bound);
// anything else is simply re-enqueued for evaluation. Grounded on lib.rs's
// set_gate_input_signal_priv.
func (e *Engine) setGateInputSignal(target *graph.Gate, port string, sig bitvector.Vec3) error {
	old, err := target.Input(port)
	if err != nil {
		return err
	}
	if old.Equal(sig) {
		return nil
	}
	if err := target.SetInput(port, sig); err != nil {
		return err
	}

	switch {
	case target.IsSubcircuit():
		subgraph, err := target.Subgraph()
		if err != nil {
			return err
		}
		ioGateID, err := target.SubgraphIOMapPort(port)
		if err != nil {
			return err
		}
		ioGate, err := subgraph.Gate(ioGateID)
		if err != nil {
			return err
		}
		return e.setGateOutputSignal(ioGate, "out", sig)

	case target.IsOutputBoundary():
		subgraph := target.Graph()
		if subcir := subgraph.Subcircuit(); subcir != nil {
			return e.setGateOutputSignal(subcir, target.Net(), sig)
		}
		return nil

	default:
		e.enqueue(target)
		return nil
	}
}

// markUpdate records that gate's port changed, for the next SendUpdates
// call, but only while the gate's graph is observed (spec §4.5).
func (e *Engine) markUpdate(gate *graph.Gate, port string) {
	if !gate.Graph().Observed() {
		return
	}
	key := gateKey(gate.GraphID(), gate.ID())
	entry, ok := e.toUpdate[key]
	if !ok {
		entry = &toUpdateEntry{gate: gate, ports: make(map[string]struct{})}
		e.toUpdate[key] = entry
	}
	entry.ports[port] = struct{}{}
}

// sendUpdatesPriv flushes every accumulated output change to the host as
// one batch, alongside whether the scheduler still has work queued for a
// future tick. Grounded on lib.rs's send_updates_priv.
func (e *Engine) sendUpdatesPriv() error {
	updates := make([]UpdateBatch, 0, len(e.toUpdate))
	for _, entry := range e.toUpdate {
		values := make([]PortUpdate, 0, len(entry.ports))
		for port := range entry.ports {
			sig, err := entry.gate.Output(port)
			if err != nil {
				return err
			}
			values = append(values, portUpdate(port, sig))
		}
		updates = append(updates, UpdateBatch{
			GraphID: entry.gate.GraphID(),
			GateID:  entry.gate.ID(),
			Values:  values,
		})
	}
	e.toUpdate = make(map[string]*toUpdateEntry)
	e.host.SendUpdates(e.tick, e.hasPendingUpdates(), updates)
	return nil
}

func (e *Engine) hasPendingUpdates() bool { return len(e.queue) > 0 }

func (e *Engine) sendAck(reqid uint32, response *uint32) {
	e.host.SendAck(reqid, response)
}
