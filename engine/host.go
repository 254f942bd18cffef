// Package engine implements the tick-driven scheduler of spec §4.4: it owns
// a set of graphs, drives cell evaluation of queued gates (repeated queueing
// of a gate for the same tick coalesces into one pending evaluation),
// propagates changed signals across links and subcircuit boundaries, and
// reports observed changes, monitor hits and alarms to a host through the
// Host callback interface. Grounded 1:1 on
// original_source/srcRust/lib.rs's RustEngine, translated from its
// wasm-bindgen extern "C" callback block and BTreeSet/HashMap scheduler
// state into the teacher's callback-interface-plus-struct idiom (compare
// core/emu.go's EmuHost-style indirection to the caller).
package engine

import "github.com/sarchlab/digitaljs/bitvector"

// PortUpdate is one output port's new value, batched into an UpdateBatch.
// Wire format per spec §6: bits/avec/bvec, via bitvector.Vec3.Wire.
type PortUpdate struct {
	Port string
	Bits uint32
	Avec []uint32
	Bvec []uint32
}

func portUpdate(port string, v bitvector.Vec3) PortUpdate {
	bits, a, b := v.Wire()
	return PortUpdate{Port: port, Bits: bits, Avec: a, Bvec: b}
}

// UpdateBatch is one gate's accumulated output changes since the last
// SendUpdates call, grounded on lib.rs's UpdateStruct.
type UpdateBatch struct {
	GraphID string
	GateID  string
	Values  []PortUpdate
}

// Host receives every side effect the scheduler produces, mirroring the
// externed JS functions lib.rs declares (sendUpdates, triggerMemoryUpdate,
// triggerFSMCurrentStateChange, triggerFSMNextTransChange,
// postMonitorValue, updater_stop, sendAck, sendAlarmReached). The engine
// never blocks on these calls; a host that needs to batch or forward them
// asynchronously is free to do so.
type Host interface {
	// SendUpdates delivers every port whose published value changed since
	// the previous call, plus whether the scheduler still has pending
	// work queued for a future tick.
	SendUpdates(tick uint32, pending bool, updates []UpdateBatch)

	// TriggerMemoryUpdate reports one word a Memory cell wrote this tick.
	TriggerMemoryUpdate(graphID, gateID string, addr int32, bits uint32, avec, bvec []uint32)

	// TriggerFSMCurrentStateChange reports an Fsm cell's new state register.
	TriggerFSMCurrentStateChange(graphID, gateID string, state uint32)

	// TriggerFSMNextTransChange reports the transition id an Fsm cell took,
	// or nil if none fired this tick.
	TriggerFSMNextTransChange(graphID, gateID string, transitionID *string)

	// PostMonitorValue reports a monitored port's value at tick, per the
	// monitor's own trigger policy.
	PostMonitorValue(monitorID uint32, tick uint32, bits uint32, avec, bvec []uint32, stopOnTrigger, oneShot bool)

	// SendAlarmReached reports an armed alarm firing at tick.
	SendAlarmReached(alarmID uint32, tick uint32, stopOnAlarm bool)

	// SendAck acknowledges a host-issued request, carrying an optional
	// numeric response (updateGates/updateGatesNext's update count).
	SendAck(reqid uint32, response *uint32)

	// UpdaterStop asks the host to stop calling UpdateGates/Ping, because a
	// stop_on_trigger monitor or stop_on_alarm alarm just fired.
	UpdaterStop()
}
