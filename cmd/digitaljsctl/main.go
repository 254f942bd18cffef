// Command digitaljsctl loads a circuit description from a YAML file,
// observes its top-level graph, and runs it for up to -ticks scheduler steps
// (stopping early once no event is left queued), logging every batch of
// port-value updates. Grounded on
// samples/passthrough/main.go's shape: build a topology, drive it, print
// results, atexit.Exit(0).
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/digitaljs/api"
	"github.com/sarchlab/digitaljs/circuitfile"
	"github.com/sarchlab/digitaljs/engine"
	"github.com/sarchlab/digitaljs/errs"
)

var errMissingCircuit = errors.New("digitaljsctl: -circuit is required")

var (
	circuitPath = flag.String("circuit", "", "path to a circuit YAML file")
	graphFlag   = flag.String("graph", "", "id of the graph to observe (defaults to the file's first graph)")
	ticks       = flag.Int("ticks", 16, "number of ticks to run")
)

// logHost is a Host that reports every callback through log/slog, the way
// core/util.go's LevelTrace/LevelWaveform logging reports simulation
// events in the teacher.
type logHost struct{}

func (logHost) SendUpdates(tick uint32, pending bool, updates []engine.UpdateBatch) {
	for _, u := range updates {
		for _, p := range u.Values {
			slog.Info("update", "tick", tick, "graph", u.GraphID, "gate", u.GateID,
				"port", p.Port, "bits", p.Bits, "a", p.Avec, "b", p.Bvec)
		}
	}
}

func (logHost) TriggerMemoryUpdate(graphID, gateID string, addr int32, bits uint32, avec, bvec []uint32) {
	slog.Info("memory update", "graph", graphID, "gate", gateID, "addr", addr, "bits", bits)
}

func (logHost) TriggerFSMCurrentStateChange(graphID, gateID string, state uint32) {
	slog.Info("fsm state", "graph", graphID, "gate", gateID, "state", state)
}

func (logHost) TriggerFSMNextTransChange(graphID, gateID string, transitionID *string) {
	id := "none"
	if transitionID != nil {
		id = *transitionID
	}
	slog.Info("fsm next transition", "graph", graphID, "gate", gateID, "transition", id)
}

func (logHost) PostMonitorValue(monitorID uint32, tick uint32, bits uint32, avec, bvec []uint32, stopOnTrigger, oneShot bool) {
	slog.Info("monitor", "id", monitorID, "tick", tick, "bits", bits)
}

func (logHost) SendAlarmReached(alarmID uint32, tick uint32, stopOnAlarm bool) {
	slog.Info("alarm", "id", alarmID, "tick", tick)
}

func (logHost) SendAck(reqid uint32, response *uint32) {
	slog.Debug("ack", "reqid", reqid)
}

func (logHost) UpdaterStop() {
	slog.Info("engine stopped")
}

func run() error {
	flag.Parse()
	if *circuitPath == "" {
		return errMissingCircuit
	}

	doc, err := circuitfile.Load(*circuitPath)
	if err != nil {
		return err
	}

	driver := api.DriverBuilder{}.WithHost(logHost{}).Build("digitaljsctl")

	if err := circuitfile.Apply(driver, doc); err != nil {
		return err
	}

	observe := *graphFlag
	if observe == "" && len(doc.Graphs) > 0 {
		observe = doc.Graphs[0].ID
	}
	if observe != "" {
		if err := driver.ObserveGraph(observe); err != nil {
			return err
		}
	}

	for i := 0; i < *ticks; i++ {
		if err := driver.UpdateGatesNext(uint32(i), true); err != nil {
			var e *errs.Error
			if errors.As(err, &e) && e.Command == "Engine.UpdateGatesNext" {
				break
			}
			return err
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("digitaljsctl", "err", err)
		os.Exit(1)
	}
	atexit.Exit(0)
}
