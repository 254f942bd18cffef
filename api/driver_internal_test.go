package api

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/engine"
	"github.com/sarchlab/digitaljs/graph"
)

// fakeHost is a small recording stand-in for engine.Host, the same
// simplification engine/engine_test.go uses in place of a generated
// gomock mock (DESIGN.md).
type fakeHost struct {
	acks []uint32
}

func (h *fakeHost) SendUpdates(tick uint32, pending bool, updates []engine.UpdateBatch) {}
func (h *fakeHost) TriggerMemoryUpdate(graphID, gateID string, addr int32, bits uint32, avec, bvec []uint32) {
}
func (h *fakeHost) TriggerFSMCurrentStateChange(graphID, gateID string, state uint32) {}
func (h *fakeHost) TriggerFSMNextTransChange(graphID, gateID string, transitionID *string) {}
func (h *fakeHost) PostMonitorValue(monitorID uint32, tick uint32, bits uint32, avec, bvec []uint32, stopOnTrigger, oneShot bool) {
}
func (h *fakeHost) SendAlarmReached(alarmID uint32, tick uint32, stopOnAlarm bool) {}
func (h *fakeHost) SendAck(reqid uint32, response *uint32)                        { h.acks = append(h.acks, reqid) }
func (h *fakeHost) UpdaterStop()                                                  {}

var _ = Describe("Driver", func() {
	var (
		host   *fakeHost
		driver Driver
	)

	BeforeEach(func() {
		host = &fakeHost{}
		driver = DriverBuilder{}.WithHost(host).Build("driver")
		driver.AddGraph("g1")
	})

	It("adds a constant and a Not gate and propagates through the link between them", func() {
		Expect(driver.AddGate("g1", "const1", cell.Params{Type: "Constant", ConstantStr: "1"}, []graph.PortSpec{
			{ID: "out", Dir: graph.Out, Width: 1},
		})).To(Succeed())

		Expect(driver.AddGate("g1", "not1", cell.Params{Type: "Not"}, []graph.PortSpec{
			{ID: "in", Dir: graph.In, Width: 1},
			{ID: "out", Dir: graph.Out, Width: 1},
		})).To(Succeed())

		Expect(driver.AddLink("g1", "l1", graph.LinkTarget{GateID: "const1", Port: "out"}, graph.LinkTarget{GateID: "not1", Port: "in"})).To(Succeed())

		for i := 0; i < 4; i++ {
			if err := driver.UpdateGatesNext(uint32(i), false); err != nil {
				break
			}
		}

		g, err := driver.Graph("g1")
		Expect(err).NotTo(HaveOccurred())
		not1, err := g.Gate("not1")
		Expect(err).NotTo(HaveOccurred())
		out, err := not1.Output("out")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.IsLow()).To(BeTrue())
	})

	It("acknowledges a ping", func() {
		Expect(driver.Ping(7, false)).To(Succeed())
		Expect(host.acks).To(ContainElement(uint32(7)))
	})
})
