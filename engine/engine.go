package engine

import (
	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/errs"
	"github.com/sarchlab/digitaljs/graph"
)

type monitorParams struct {
	triggerValues []bitvector.Vec3
	hasTriggers   bool
	stopOnTrigger bool
	oneShot       bool
	synchronous   bool
	graphID       string
	gateID        string
	port          string
}

type alarmParams struct {
	tick        uint32
	stopOnAlarm bool
	synchronous bool
}

// gateSnapshot is one gate's queued re-evaluation: the gate itself plus the
// input values it saw at enqueue time, matching lib.rs's
// GateUpdateCollection value type.
type gateSnapshot struct {
	gate   *graph.Gate
	inputs cell.Inputs
}

// toUpdateEntry accumulates the output ports of one gate that changed since
// the last SendUpdates call, keyed by graph+gate id (lib.rs's to_update).
type toUpdateEntry struct {
	gate  *graph.Gate
	ports map[string]struct{}
}

// Engine is the tick-driven scheduler of spec §4.4. It owns every graph
// added to it, evaluates queued gates tick by tick, and reports output
// changes, memory writes, FSM transitions, monitor hits and alarms to its
// Host. Grounded field-for-field on original_source/srcRust/lib.rs's
// RustEngine.
type Engine struct {
	host Host

	interval uint32
	tick     uint32

	graphs map[string]*graph.Graph

	monitors      map[uint32]*monitorParams
	monitorChecks map[uint32]bitvector.Vec3

	alarms     map[uint32]*alarmParams
	alarmQueue map[uint32]map[uint32]struct{}

	queue map[uint32]map[string]gateSnapshot
	pq    *tickQueue

	toUpdate map[string]*toUpdateEntry
}

// New builds an empty engine with the default 10ms update interval
// (lib.rs's RustEngine::new), reporting every side effect to host.
func New(host Host) *Engine {
	return &Engine{
		host:          host,
		interval:      10,
		graphs:        make(map[string]*graph.Graph),
		monitors:      make(map[uint32]*monitorParams),
		monitorChecks: make(map[uint32]bitvector.Vec3),
		alarms:        make(map[uint32]*alarmParams),
		alarmQueue:    make(map[uint32]map[uint32]struct{}),
		queue:         make(map[uint32]map[string]gateSnapshot),
		pq:            newTickQueue(),
		toUpdate:      make(map[string]*toUpdateEntry),
	}
}

// SetInterval sets the host's suggested poll interval in milliseconds.
func (e *Engine) SetInterval(ms uint32) { e.interval = ms }

// Interval returns the host's suggested poll interval in milliseconds.
func (e *Engine) Interval() uint32 { return e.interval }

// Tick returns the scheduler's current tick counter.
func (e *Engine) Tick() uint32 { return e.tick }

// Graph returns a graph owned by the engine, for a host or circuit loader
// that needs to walk gates/ports directly (e.g. circuitfile's loader, or a
// command surface that reads state without mutating it).
func (e *Engine) Graph(graphID string) (*graph.Graph, error) {
	return e.getGraph(graphID)
}

func (e *Engine) getGraph(graphID string) (*graph.Graph, error) {
	g, ok := e.graphs[graphID]
	if !ok {
		return nil, errs.New(errs.LookupMiss, "Engine", "no graph with id %q", graphID)
	}
	return g, nil
}

func (e *Engine) getMonitor(monitorID uint32) (*monitorParams, error) {
	m, ok := e.monitors[monitorID]
	if !ok {
		return nil, errs.New(errs.LookupMiss, "Engine", "no monitor id %d found", monitorID)
	}
	return m, nil
}

func gateKey(graphID, gateID string) string { return graphID + gateID }
