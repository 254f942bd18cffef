// Package api defines the host-facing driver surface of spec §6: one
// method per command, delegating to an *engine.Engine, plus the Host
// callback interface a caller supplies to receive asynchronous results.
// Grounded on the teacher's own api package (driver.go's Driver
// interface/driverImpl split, builder.go's chainable DriverBuilder), kept
// in the same shape but driven by engine.Engine's tick-pulled command
// surface instead of an akita.sim.TickingComponent.
package api

import (
	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/engine"
	"github.com/sarchlab/digitaljs/graph"
)

// Host is re-exported so a caller only needs to import package api to
// implement the callback side of the command surface.
type Host = engine.Host

// IOMapEntry is re-exported for addSubcircuit callers.
type IOMapEntry = engine.IOMapEntry

// MonitorSpec is re-exported for monitor callers.
type MonitorSpec = engine.MonitorSpec

// AlarmSpec is re-exported for alarm callers.
type AlarmSpec = engine.AlarmSpec

// Driver is the command surface of spec §6: every method is one command: a
// host issues commands and receives asynchronous results through the Host
// it supplied at build time.
type Driver interface {
	SetInterval(ms uint32)
	GetInterval() uint32

	AddGraph(graphID string)
	RemoveGraph(graphID string)
	AddGate(graphID, gateID string, params cell.Params, ports []graph.PortSpec) error
	AddLink(graphID, linkID string, from, to graph.LinkTarget) error
	RemoveLink(graphID, linkID string) error
	RemoveGate(graphID, gateID string) error
	AddSubcircuit(graphID, gateID, subgraphID string, ioMap []IOMapEntry) error
	ObserveGraph(graphID string) error
	UnobserveGraph(graphID string) error
	ChangeInput(graphID, gateID string, sig bitvector.Vec3) error
	ManualMemChange(graphID, gateID string, addr int32, data bitvector.Vec3) error
	Monitor(graphID, gateID, port string, monitorID uint32, spec MonitorSpec) error
	Unmonitor(monitorID uint32) error
	Alarm(tick, alarmID uint32, spec AlarmSpec)
	Unalarm(alarmID uint32)

	UpdateGates(reqid uint32, flush bool) error
	UpdateGatesNext(reqid uint32, flush bool) error
	Ping(reqid uint32, flush bool) error

	// Graph exposes read-only access to a graph's current topology/state,
	// for a host inspecting a circuit between commands (not part of
	// spec §6's command table, but needed by any caller that wants to read
	// a port value outside of a monitor/update callback).
	Graph(graphID string) (*graph.Graph, error)
}

// driverImpl forwards every Driver method straight to the engine it wraps.
// Grounded on the teacher's driverImpl, minus the embedded
// *sim.TickingComponent the akita-driven original used to receive Tick
// calls from an engine.Engine — this driver is pulled by command calls
// directly, never ticked by a simulated clock (SPEC_FULL.md §B).
type driverImpl struct {
	eng *engine.Engine
}

func (d *driverImpl) SetInterval(ms uint32) { d.eng.SetInterval(ms) }
func (d *driverImpl) GetInterval() uint32   { return d.eng.Interval() }

func (d *driverImpl) AddGraph(graphID string)    { d.eng.AddGraph(graphID) }
func (d *driverImpl) RemoveGraph(graphID string) { d.eng.RemoveGraph(graphID) }

func (d *driverImpl) AddGate(graphID, gateID string, params cell.Params, ports []graph.PortSpec) error {
	return d.eng.AddGate(graphID, gateID, params, ports)
}

func (d *driverImpl) AddLink(graphID, linkID string, from, to graph.LinkTarget) error {
	return d.eng.AddLink(graphID, linkID, from, to)
}

func (d *driverImpl) RemoveLink(graphID, linkID string) error {
	return d.eng.RemoveLink(graphID, linkID)
}

func (d *driverImpl) RemoveGate(graphID, gateID string) error {
	return d.eng.RemoveGate(graphID, gateID)
}

func (d *driverImpl) AddSubcircuit(graphID, gateID, subgraphID string, ioMap []IOMapEntry) error {
	return d.eng.AddSubcircuit(graphID, gateID, subgraphID, ioMap)
}

func (d *driverImpl) ObserveGraph(graphID string) error   { return d.eng.ObserveGraph(graphID) }
func (d *driverImpl) UnobserveGraph(graphID string) error { return d.eng.UnobserveGraph(graphID) }

func (d *driverImpl) ChangeInput(graphID, gateID string, sig bitvector.Vec3) error {
	return d.eng.ChangeInput(graphID, gateID, sig)
}

func (d *driverImpl) ManualMemChange(graphID, gateID string, addr int32, data bitvector.Vec3) error {
	return d.eng.ManualMemChange(graphID, gateID, addr, data)
}

func (d *driverImpl) Monitor(graphID, gateID, port string, monitorID uint32, spec MonitorSpec) error {
	return d.eng.Monitor(graphID, gateID, port, monitorID, spec)
}

func (d *driverImpl) Unmonitor(monitorID uint32) error { return d.eng.Unmonitor(monitorID) }

func (d *driverImpl) Alarm(tick, alarmID uint32, spec AlarmSpec) { d.eng.Alarm(tick, alarmID, spec) }
func (d *driverImpl) Unalarm(alarmID uint32)                     { d.eng.Unalarm(alarmID) }

func (d *driverImpl) UpdateGates(reqid uint32, flush bool) error {
	return d.eng.UpdateGates(reqid, flush)
}

func (d *driverImpl) UpdateGatesNext(reqid uint32, flush bool) error {
	return d.eng.UpdateGatesNext(reqid, flush)
}

func (d *driverImpl) Ping(reqid uint32, flush bool) error { return d.eng.Ping(reqid, flush) }

func (d *driverImpl) Graph(graphID string) (*graph.Graph, error) { return d.eng.Graph(graphID) }
