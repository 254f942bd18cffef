package engine_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/engine"
	"github.com/sarchlab/digitaljs/graph"
)

// fakeHost is a hand-written stand-in for engine.Host. The teacher's suites
// generate gomock mocks for interfaces with rich expectation needs
// (core_suite_test.go's go:generate lines); here every test just wants to
// inspect what got reported, so a small recording fake is simpler and
// needs no generated file (DESIGN.md).
type fakeHost struct {
	updates     []engine.UpdateBatch
	lastPending bool
	memWrites   []string
	monitorHits []uint32
	alarms      []uint32
	acks        []uint32
	lastCount   uint32
	stopped     bool
}

func (h *fakeHost) SendUpdates(tick uint32, pending bool, updates []engine.UpdateBatch) {
	h.updates = append(h.updates, updates...)
	h.lastPending = pending
}
func (h *fakeHost) TriggerMemoryUpdate(graphID, gateID string, addr int32, bits uint32, avec, bvec []uint32) {
	h.memWrites = append(h.memWrites, gateID)
}
func (h *fakeHost) TriggerFSMCurrentStateChange(graphID, gateID string, state uint32) {}
func (h *fakeHost) TriggerFSMNextTransChange(graphID, gateID string, transitionID *string) {}
func (h *fakeHost) PostMonitorValue(monitorID uint32, tick uint32, bits uint32, avec, bvec []uint32, stopOnTrigger, oneShot bool) {
	h.monitorHits = append(h.monitorHits, monitorID)
}
func (h *fakeHost) SendAlarmReached(alarmID uint32, tick uint32, stopOnAlarm bool) {
	h.alarms = append(h.alarms, alarmID)
}
func (h *fakeHost) SendAck(reqid uint32, response *uint32) {
	h.acks = append(h.acks, reqid)
	if response != nil {
		h.lastCount = *response
	}
}
func (h *fakeHost) UpdaterStop() { h.stopped = true }

func addConstant(e *engine.Engine, graphID, gateID, lit string) {
	ExpectWithOffset(1, e.AddGate(graphID, gateID, cell.Params{Type: "Constant", ConstantStr: lit}, []graph.PortSpec{
		{ID: "out", Dir: graph.Out, Width: 1},
	})).To(Succeed())
}

var _ = Describe("Engine", func() {
	var (
		host *fakeHost
		e    *engine.Engine
	)

	BeforeEach(func() {
		host = &fakeHost{}
		e = engine.New(host)
		e.AddGraph("g1")
	})

	It("propagates an AND of two constants through a link", func() {
		addConstant(e, "g1", "a", "1")
		addConstant(e, "g1", "b", "1")
		Expect(e.AddGate("g1", "and1", cell.Params{Type: "And"}, []graph.PortSpec{
			{ID: "in1", Dir: graph.In, Width: 1},
			{ID: "in2", Dir: graph.In, Width: 1},
			{ID: "out", Dir: graph.Out, Width: 1},
		})).To(Succeed())

		Expect(e.AddLink("g1", "l1", graph.LinkTarget{GateID: "a", Port: "out"}, graph.LinkTarget{GateID: "and1", Port: "in1"})).To(Succeed())
		Expect(e.AddLink("g1", "l2", graph.LinkTarget{GateID: "b", Port: "out"}, graph.LinkTarget{GateID: "and1", Port: "in2"})).To(Succeed())

		Expect(e.ObserveGraph("g1")).To(Succeed())

		for {
			if err := e.UpdateGatesNext(1, true); err != nil {
				break
			}
			if !host.lastPending {
				break
			}
		}

		g, err := e.Graph("g1")
		Expect(err).NotTo(HaveOccurred())
		and1, err := g.Gate("and1")
		Expect(err).NotTo(HaveOccurred())
		out, err := and1.Output("out")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.IsHigh()).To(BeTrue())
	})

	It("propagates X when one AND input is undriven", func() {
		addConstant(e, "g1", "a", "1")
		Expect(e.AddGate("g1", "and1", cell.Params{Type: "And"}, []graph.PortSpec{
			{ID: "in1", Dir: graph.In, Width: 1},
			{ID: "in2", Dir: graph.In, Width: 1},
			{ID: "out", Dir: graph.Out, Width: 1},
		})).To(Succeed())
		Expect(e.AddLink("g1", "l1", graph.LinkTarget{GateID: "a", Port: "out"}, graph.LinkTarget{GateID: "and1", Port: "in1"})).To(Succeed())

		for {
			if err := e.UpdateGatesNext(1, false); err != nil {
				break
			}
		}

		g, _ := e.Graph("g1")
		and1, _ := g.Gate("and1")
		out, _ := and1.Output("out")
		Expect(out.IsDefined()).To(BeFalse())
	})

	It("fires an alarm armed for a future tick", func() {
		e.Alarm(3, 42, engine.AlarmSpec{StopOnAlarm: true})
		for i := 0; i < 5; i++ {
			_ = e.UpdateGatesNext(uint32(i), false)
			if host.stopped {
				break
			}
		}
		Expect(host.alarms).To(ContainElement(uint32(42)))
		Expect(host.stopped).To(BeTrue())
	})

	It("reports no-op writes only once across a flush (no-op stability)", func() {
		Expect(e.AddGate("g1", "btn", cell.Params{Type: "Button"}, []graph.PortSpec{
			{ID: "out", Dir: graph.Out, Width: 1},
		})).To(Succeed())
		Expect(e.ObserveGraph("g1")).To(Succeed())

		one, err := bitvector.FromBinary("1", nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(e.ChangeInput("g1", "btn", one)).To(Succeed())
		Expect(e.ChangeInput("g1", "btn", one)).To(Succeed())
		Expect(e.Ping(1, true)).To(Succeed())

		hits := 0
		for _, batch := range host.updates {
			if batch.GateID != "btn" {
				continue
			}
			for _, pu := range batch.Values {
				if pu.Port == "out" {
					hits++
				}
			}
		}
		Expect(hits).To(Equal(1))
	})

	It("evaluates a gate at most once per tick even with two pending links", func() {
		addConstant(e, "g1", "a", "1")
		addConstant(e, "g1", "b", "0")
		Expect(e.AddGate("g1", "and1", cell.Params{Type: "And", Propagation: 1}, []graph.PortSpec{
			{ID: "in1", Dir: graph.In, Width: 1},
			{ID: "in2", Dir: graph.In, Width: 1},
			{ID: "out", Dir: graph.Out, Width: 1},
		})).To(Succeed())

		Expect(e.AddLink("g1", "l1", graph.LinkTarget{GateID: "a", Port: "out"}, graph.LinkTarget{GateID: "and1", Port: "in1"})).To(Succeed())
		Expect(e.AddLink("g1", "l2", graph.LinkTarget{GateID: "b", Port: "out"}, graph.LinkTarget{GateID: "and1", Port: "in2"})).To(Succeed())

		// Tick 0 evaluates the two constants; both changes re-queue and1 for
		// tick 1, where it runs once.
		Expect(e.UpdateGatesNext(6, false)).To(Succeed())
		Expect(e.UpdateGatesNext(7, false)).To(Succeed())
		Expect(host.lastCount).To(Equal(uint32(1)))
	})

	It("keeps a pass-through subcircuit transparent to its host graph", func() {
		e.AddGraph("sub")
		Expect(e.AddGate("sub", "inb", cell.Params{Type: "Input"}, []graph.PortSpec{
			{ID: "out", Dir: graph.Out, Width: 4},
		})).To(Succeed())
		Expect(e.AddGate("sub", "outb", cell.Params{Type: "Output", Net: "y"}, []graph.PortSpec{
			{ID: "in", Dir: graph.In, Width: 4},
		})).To(Succeed())
		Expect(e.AddLink("sub", "l1", graph.LinkTarget{GateID: "inb", Port: "out"}, graph.LinkTarget{GateID: "outb", Port: "in"})).To(Succeed())

		Expect(e.AddGate("g1", "sc", cell.Params{Type: "Subcircuit"}, []graph.PortSpec{
			{ID: "a", Dir: graph.In, Width: 4},
			{ID: "y", Dir: graph.Out, Width: 4},
		})).To(Succeed())
		Expect(e.AddSubcircuit("g1", "sc", "sub", []engine.IOMapEntry{
			{Port: "a", IOID: "inb"},
			{Port: "y", IOID: "outb"},
		})).To(Succeed())

		Expect(e.AddGate("g1", "btn", cell.Params{Type: "Button"}, []graph.PortSpec{
			{ID: "out", Dir: graph.Out, Width: 4},
		})).To(Succeed())
		Expect(e.AddLink("g1", "l0", graph.LinkTarget{GateID: "btn", Port: "out"}, graph.LinkTarget{GateID: "sc", Port: "a"})).To(Succeed())

		driven, err := bitvector.FromBinary("1010", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.ChangeInput("g1", "btn", driven)).To(Succeed())

		for {
			if err := e.UpdateGatesNext(1, false); err != nil {
				break
			}
		}

		g, err := e.Graph("g1")
		Expect(err).NotTo(HaveOccurred())
		sc, err := g.Gate("sc")
		Expect(err).NotTo(HaveOccurred())
		out, err := sc.Output("y")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Equal(driven)).To(BeTrue())
	})
})
