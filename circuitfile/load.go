package circuitfile

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/cell"
	"github.com/sarchlab/digitaljs/engine"
	"github.com/sarchlab/digitaljs/errs"
	"github.com/sarchlab/digitaljs/graph"
)

// Parse decodes a circuit document from raw YAML bytes. Grounded on
// core/program.go's LoadProgramFileFromYAML, minus its panic-on-error
// style: spec §7's error-handling policy returns errors to the caller
// instead.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, errs.New(errs.UnsupportedEncoding, "circuitfile.Parse", "%v", err)
	}
	return doc, nil
}

// Load reads and parses a circuit file from disk. Grounded on
// core/program.go's os.ReadFile + yaml.Unmarshal pairing.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errs.New(errs.UnsupportedEncoding, "circuitfile.Load", "%v", err)
	}
	return Parse(data)
}

// Builder is the slice of the command surface Apply needs: satisfied by
// both *engine.Engine directly and api.Driver, so a caller can load a
// circuit file straight into a Driver without reaching past it for the
// engine underneath.
type Builder interface {
	AddGraph(graphID string)
	AddGate(graphID, gateID string, params cell.Params, ports []graph.PortSpec) error
	AddLink(graphID, linkID string, source, target graph.LinkTarget) error
	AddSubcircuit(graphID, gateID, subgraphID string, ioMap []engine.IOMapEntry) error
	ObserveGraph(graphID string) error
}

// Apply builds every graph, gate, link and subcircuit binding the document
// describes inside eng, in document order within each phase: graphs, gates,
// links, then subcircuit bindings (which reference gates/subgraphs that must
// already exist), and finally ObserveGraph for every graph marked observed.
// This is the
// circuitfile equivalent of a host replaying the command surface of
// spec §6 from a saved session.
func Apply(eng Builder, doc Document) error {
	for _, g := range doc.Graphs {
		eng.AddGraph(g.ID)
	}

	for _, g := range doc.Graphs {
		for _, gd := range g.Gates {
			params, err := expandParams(gd)
			if err != nil {
				return err
			}
			ports := expandPorts(gd.Ports)
			if err := eng.AddGate(g.ID, gd.ID, params, ports); err != nil {
				return err
			}
		}
	}

	for _, g := range doc.Graphs {
		for _, ld := range g.Links {
			from := graph.LinkTarget{GateID: ld.FromID, Port: ld.FromPort}
			to := graph.LinkTarget{GateID: ld.ToID, Port: ld.ToPort}
			if err := eng.AddLink(g.ID, ld.ID, from, to); err != nil {
				return err
			}
		}
	}

	for _, g := range doc.Graphs {
		for _, sd := range g.Subcircuits {
			ioMap := make([]engine.IOMapEntry, 0, len(sd.IOMap))
			for _, e := range sd.IOMap {
				ioMap = append(ioMap, engine.IOMapEntry{Port: e.Port, IOID: e.IOID})
			}
			if err := eng.AddSubcircuit(g.ID, sd.GateID, sd.SubgraphID, ioMap); err != nil {
				return err
			}
		}
	}

	for _, g := range doc.Graphs {
		if g.Observed {
			if err := eng.ObserveGraph(g.ID); err != nil {
				return err
			}
		}
	}

	return nil
}

func expandPorts(ports []PortDoc) []graph.PortSpec {
	out := make([]graph.PortSpec, 0, len(ports))
	for _, p := range ports {
		dir := graph.In
		if p.Dir == "out" {
			dir = graph.Out
		}
		out = append(out, graph.PortSpec{ID: p.ID, Dir: dir, Width: p.Width})
	}
	return out
}

// expandParams converts one gate's YAML parameters to cell.Params,
// expanding memdata's (count, literal) repeat-run entries into individual
// words (SPEC_FULL.md §D.4) and decoding FSM transition control literals.
func expandParams(gd GateDoc) (cell.Params, error) {
	p := gd.Params

	memData, err := expandMemData(p.MemData)
	if err != nil {
		return cell.Params{}, err
	}

	trans, err := expandTransitions(p.Trans)
	if err != nil {
		return cell.Params{}, err
	}

	return cell.Params{
		Type:        gd.Type,
		Label:       gd.Label,
		Net:         gd.Net,
		Propagation: gd.Propagation,

		Bits: cell.BitsSpec{In: p.Bits.In, Out: p.Bits.Out, Sel: p.Bits.Sel},
		ArstValue: p.ArstValue,
		Polarity:  p.Polarity.cellPolarity(),
		LeftOp:    p.LeftOp,
		Sign:      cell.Sign{In1: p.Sign.In1, In2: p.Sign.In2, In: p.Sign.In},

		ConstantStr: p.Constant,
		Numbase:     p.Numbase,
		ConstantNum: p.ConstantNum,

		Abits:   p.Abits,
		Offset:  p.Offset,
		Words:   p.Words,
		MemData: memData,
		RdPorts: expandMemPorts(p.RdPorts),
		WrPorts: expandMemPorts(p.WrPorts),

		Inputs: p.Inputs,

		InitState: p.InitState,
		Trans:     trans,

		Slice:  cell.SliceSpec{First: p.Slice.First, Count: p.Slice.Count, Total: p.Slice.Total},
		Extend: cell.ExtendSpec{Input: p.Extend.Input, Output: p.Extend.Output},
		Groups: p.Groups,
	}, nil
}

func expandMemData(words []MemWordDoc) ([]cell.MemWord, error) {
	var out []cell.MemWord
	for _, w := range words {
		n := w.Count
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, cell.MemWord{Binary: w.Literal})
		}
	}
	return out, nil
}

func expandMemPorts(ports []MemPortDoc) []cell.MemPortPolarity {
	out := make([]cell.MemPortPolarity, 0, len(ports))
	for _, p := range ports {
		out = append(out, cell.MemPortPolarity{
			Enable:      p.Enable,
			Clock:       p.Clock,
			Transparent: p.Transparent,
			Collision:   p.Collision,
			Srst:        p.Srst,
			SrstValue:   p.SrstValue,
			Arst:        p.Arst,
			ArstValue:   p.ArstValue,
		})
	}
	return out
}

func expandTransitions(trans []TransitionDoc) ([]cell.Transition, error) {
	out := make([]cell.Transition, 0, len(trans))
	for _, t := range trans {
		ctrlIn, err := bitvector.FromBinary(t.CtrlIn, nil)
		if err != nil {
			return nil, err
		}
		ctrlOut, err := bitvector.FromBinary(t.CtrlOut, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, cell.Transition{
			StateIn:  t.StateIn,
			CtrlIn:   ctrlIn,
			CtrlOut:  ctrlOut,
			StateOut: t.StateOut,
		})
	}
	return out, nil
}
