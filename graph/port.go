// Package graph implements the entity store of spec §4.3: gates own
// input/output port vectors, links connect an output port to an input
// port, and a graph owns its gates and links by id. This package holds
// plain data and the mutations that touch only that data (no scheduler
// propagation — that belongs to package engine, which wraps these
// mutations with the tick-queue side effects spec §4.3/§4.4 describe).
package graph

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/digitaljs/bitvector"
)

// Dir is a port's direction, fixed at gate creation.
type Dir int

const (
	In Dir = iota
	Out
)

func (d Dir) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// PortSpec describes one port a gate is created with (spec §3's
// `(id, dir, width)` Port tuple).
type PortSpec struct {
	ID    string
	Dir   Dir
	Width uint32
}

// HookPosSignalChanged marks when a port's published value changes,
// mirroring core/port.go's HookPosPortMsgSend/Recvd/Retrieve pattern: a
// named hook position a hook can attach to through the port's HookableBase.
// The engine attaches no hook here; its monitors are recorded per gate
// (Gate.Monitor).
var HookPosSignalChanged = &sim.HookPos{Name: "Port Signal Changed"}

// Port is a named, hookable signal holder: the engine publishes a value by
// pushing it into the port's one-slot buffer, and reads the published value
// by peeking it. Grounded on core/port.go's defaultPort, adapted from a
// message-passing, backpressured endpoint (driven by an akita sim.Engine)
// to a synchronous value register (driven by the host-pulled scheduler of
// spec §4.4) — the akita shape (HookableBase, a capacity-bounded Buffer) is
// kept, the connection/delivery machinery is not.
type Port struct {
	sim.HookableBase

	id    string
	dir   Dir
	width uint32
	buf   sim.Buffer
}

// NewPort builds a port holding the all-X value of its declared width.
func NewPort(spec PortSpec) *Port {
	p := &Port{
		HookableBase: sim.NewHookableBase(),
		id:           spec.ID,
		dir:          spec.Dir,
		width:        spec.Width,
		buf:          sim.NewBuffer(spec.ID+".signal", 1),
	}
	p.buf.Push(bitvector.Xes(spec.Width))
	return p
}

// Name identifies the port for sim.Named / sim.HookCtx.Domain.
func (p *Port) Name() string { return p.id }

// ID returns the port's id, as declared in its PortSpec.
func (p *Port) ID() string { return p.id }

// Dir returns the port's fixed direction.
func (p *Port) Dir() Dir { return p.dir }

// Width returns the port's fixed bit width.
func (p *Port) Width() uint32 { return p.width }

// Value returns the currently published signal.
func (p *Port) Value() bitvector.Vec3 {
	return p.buf.Peek().(bitvector.Vec3)
}

// SetValue overwrites the published signal and invokes
// HookPosSignalChanged. It does not compare against the old value — callers
// (graph.Gate, engine.Engine) decide whether a write is a no-op before
// calling this, matching spec §4.4's "idempotent when unchanged" rule
// being the caller's responsibility, not the port's.
func (p *Port) SetValue(v bitvector.Vec3) {
	p.buf.Pop()
	p.buf.Push(v)
	p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosSignalChanged, Item: v})
}
