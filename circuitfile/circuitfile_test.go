package circuitfile_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/circuitfile"
	"github.com/sarchlab/digitaljs/engine"
)

type fakeHost struct{ acks []uint32 }

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

const andCircuitYAML = `
graphs:
  - id: g1
    observed: true
    gates:
      - id: a
        type: Constant
        params:
          constant: "1"
        ports:
          - {id: out, dir: out, width: 1}
      - id: b
        type: Constant
        params:
          constant: "1"
        ports:
          - {id: out, dir: out, width: 1}
      - id: and1
        type: And
        ports:
          - {id: in1, dir: in, width: 1}
          - {id: in2, dir: in, width: 1}
          - {id: out, dir: out, width: 1}
    links:
      - {id: l1, from_id: a, from_port: out, to_id: and1, to_port: in1}
      - {id: l2, from_id: b, from_port: out, to_id: and1, to_port: in2}
`

var _ = Describe("Parse and Apply", func() {
	It("builds an engine graph from a YAML document", func() {
		doc, err := circuitfile.Parse([]byte(andCircuitYAML))
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Graphs).To(HaveLen(1))
		Expect(doc.Graphs[0].Gates).To(HaveLen(3))

		host := &fakeHost{}
		eng := engine.New(host)
		Expect(circuitfile.Apply(eng, doc)).To(Succeed())

		for {
			if err := eng.UpdateGatesNext(1, false); err != nil {
				break
			}
		}

		g, err := eng.Graph("g1")
		Expect(err).NotTo(HaveOccurred())
		and1, err := g.Gate("and1")
		Expect(err).NotTo(HaveOccurred())
		out, err := and1.Output("out")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.IsHigh()).To(BeTrue())
	})

	It("rejects malformed YAML", func() {
		_, err := circuitfile.Parse([]byte("graphs: [this is not a graph list"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("memory gate parameters", func() {
	It("expands repeat-run memdata entries and builds a Memory cell with them", func() {
		doc, err := circuitfile.Parse([]byte(`
graphs:
  - id: g1
    gates:
      - id: mem1
        type: Memory
        params:
          bits: {in: 4}
          abits: 2
          words: 4
          memdata:
            - {literal: "0000", count: 3}
            - {literal: "0001"}
        ports: []
`))
		Expect(err).NotTo(HaveOccurred())

		host := &fakeHost{}
		eng := engine.New(host)
		Expect(circuitfile.Apply(eng, doc)).To(Succeed())

		g, err := eng.Graph("g1")
		Expect(err).NotTo(HaveOccurred())
		mem1, err := g.Gate("mem1")
		Expect(err).NotTo(HaveOccurred())

		m, ok := mem1.Cell().(*cell.Memory)
		Expect(ok).To(BeTrue())
		Expect(m.Mem).To(HaveLen(4))

		w0, ok := m.WordAt(0)
		Expect(ok).To(BeTrue())
		Expect(w0.IsLow()).To(BeTrue())

		w3, ok := m.WordAt(3)
		Expect(ok).To(BeTrue())
		Expect(w3.IsLow()).To(BeFalse())
	})
})
