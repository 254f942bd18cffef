package cell

import "github.com/sarchlab/digitaljs/bitvector"

type namedMemPort struct {
	Name string
	Pol  MemPortPolarity
}

// Memory implements the Memory cell: an addressable array of Vec3 words
// behind any number of independently-polarized read and write ports.
// Grounded on cell_memory.rs's MemoryState/memory_op.
//
// The Rust source leaves srst/arst entirely unimplemented (two bare
// comments, "// do_srst"/"// do_arst", with no loop body) and its
// "transparent" read-during-write case is a condition with an empty
// body — a placeholder, not a working feature. Both are completed here per
// spec §9's Open Question resolution: srst at an active clock edge
// overwrites a read port's output with SrstValue; arst forces it
// unconditionally every evaluation; a transparent read forwards the value
// a colliding write just produced instead of the stale memory word.
type Memory struct {
	Bits   uint32
	Offset uint32
	Words  uint32
	Mem    []bitvector.Vec3

	RdPorts []namedMemPort
	WrPorts []namedMemPort

	lastClk map[string]int32
}

// NewMemory builds a Memory evaluator from its declared ports and initial
// contents (already expanded from any (count, literal) repeat-run pairs by
// circuitfile; SPEC_FULL.md §D.4).
func NewMemory(p Params) *Memory {
	bits := p.Bits.In
	if bits == 0 {
		bits = 1
	}
	words := p.Words
	if words == 0 {
		if p.Abits > 0 {
			words = 1 << p.Abits
		} else {
			words = 1
		}
	}

	mem := make([]bitvector.Vec3, words)
	for i := range mem {
		if i < len(p.MemData) {
			v, err := bitvector.FromBinary(p.MemData[i].Binary, &bits)
			if err == nil {
				mem[i] = v
				continue
			}
		}
		mem[i] = bitvector.Xes(bits)
	}

	m := &Memory{
		Bits:    bits,
		Offset:  p.Offset,
		Words:   words,
		Mem:     mem,
		lastClk: make(map[string]int32),
	}
	for i, rp := range p.RdPorts {
		name := "rd" + itoa(i)
		m.RdPorts = append(m.RdPorts, namedMemPort{Name: name, Pol: rp})
		if rp.Clock != nil {
			m.lastClk[name+"clk"] = 0
		}
	}
	for i, wp := range p.WrPorts {
		name := "wr" + itoa(i)
		m.WrPorts = append(m.WrPorts, namedMemPort{Name: name, Pol: wp})
		if wp.Clock != nil {
			m.lastClk[name+"clk"] = 0
		}
	}
	return m
}

func (m *Memory) isEnabled(in Inputs, name string, p MemPortPolarity) (bool, error) {
	if p.Enable == nil {
		return true, nil
	}
	v, err := need(in, name+"en", "Memory")
	if err != nil {
		return false, err
	}
	want := pol(*p.Enable)
	for _, b := range v.ToArray() {
		if b != want {
			return false, nil
		}
	}
	return true, nil
}

func (m *Memory) portActive(in Inputs, name string, p MemPortPolarity) (bool, error) {
	if p.Clock == nil {
		return true, nil
	}
	clk, err := need(in, name+"clk", "Memory")
	if err != nil {
		return false, err
	}
	last := m.lastClk[name+"clk"]
	return clk.Lsb() == pol(*p.Clock) && last == -pol(*p.Clock), nil
}

func (m *Memory) validAddr(n int32) bool { return n >= 0 && n < int32(m.Words) }

func (m *Memory) calcAddr(sig bitvector.Vec3) (int32, error) {
	if !sig.IsFullyDefined() {
		return -1, nil
	}
	n, err := sig.GetNumber()
	if err != nil {
		return 0, err
	}
	return int32(n) - int32(m.Offset), nil
}

func (m *Memory) combRead(in Inputs, name string, outputs map[string]bitvector.Vec3) error {
	sig, err := need(in, name+"addr", "Memory")
	if err != nil {
		return err
	}
	addr, err := m.calcAddr(sig)
	if err != nil {
		return err
	}
	if m.validAddr(addr) {
		outputs[name+"data"] = m.Mem[addr]
	} else {
		outputs[name+"data"] = bitvector.Xes(m.Bits)
	}
	return nil
}

func (m *Memory) writeValue(in Inputs, name string, p MemPortPolarity, oldval, val bitvector.Vec3) (bitvector.Vec3, error) {
	if p.Enable == nil {
		return val, nil
	}
	mask, err := need(in, name+"en", "Memory")
	if err != nil {
		return bitvector.Vec3{}, err
	}
	if !*p.Enable {
		mask = mask.Not()
	}
	masked, err := val.And(mask)
	if err != nil {
		return bitvector.Vec3{}, err
	}
	keep, err := oldval.And(mask.Not())
	if err != nil {
		return bitvector.Vec3{}, err
	}
	merged, err := masked.Or(keep)
	if err != nil {
		return bitvector.Vec3{}, err
	}
	merged.Normalize()
	return merged, nil
}

func (m *Memory) doRead(in Inputs, name string, p MemPortPolarity, outputs map[string]bitvector.Vec3) error {
	if err := m.combRead(in, name, outputs); err != nil {
		return err
	}
	selfAddr, err := need(in, name+"addr", "Memory")
	if err != nil {
		return err
	}
	for _, wr := range m.WrPorts {
		active, err := m.portActive(in, wr.Name, wr.Pol)
		if err != nil {
			return err
		}
		enabled, err := m.isEnabled(in, wr.Name, wr.Pol)
		if err != nil {
			return err
		}
		if !active || !enabled {
			continue
		}
		wrAddr, err := need(in, wr.Name+"addr", "Memory")
		if err != nil {
			return err
		}
		if !selfAddr.Equal(wrAddr) {
			continue
		}
		if p.Collision != nil && *p.Collision {
			v, err := m.writeValue(in, wr.Name, wr.Pol, outputs[name+"data"], bitvector.Xes(m.Bits))
			if err != nil {
				return err
			}
			outputs[name+"data"] = v
		}
		if p.Transparent != nil && *p.Transparent {
			wrData, err := need(in, wr.Name+"data", "Memory")
			if err != nil {
				return err
			}
			v, err := m.writeValue(in, wr.Name, wr.Pol, outputs[name+"data"], wrData)
			if err != nil {
				return err
			}
			outputs[name+"data"] = v
		}
	}
	return nil
}

func (m *Memory) doWrite(in Inputs, name string, p MemPortPolarity) (*MemWrite, error) {
	sig, err := need(in, name+"addr", "Memory")
	if err != nil {
		return nil, err
	}
	addr, err := m.calcAddr(sig)
	if err != nil {
		return nil, err
	}
	if !m.validAddr(addr) {
		return nil, nil
	}
	oldval := m.Mem[addr]
	val, err := need(in, name+"data", "Memory")
	if err != nil {
		return nil, err
	}
	newval, err := m.writeValue(in, name, p, oldval, val)
	if err != nil {
		return nil, err
	}
	changed := !oldval.Equal(newval)
	m.Mem[addr] = newval
	if !changed {
		return nil, nil
	}
	return &MemWrite{Addr: addr, Value: newval}, nil
}

// Eval runs one scheduler tick's worth of port activity: registered reads,
// then writes, then combinational reads, then synchronous/async read-port
// resets, in cell_memory.rs's order.
func (m *Memory) Eval(in Inputs) (Result, error) {
	outputs := make(map[string]bitvector.Vec3, len(m.RdPorts))
	var writes []MemWrite

	for _, rd := range m.RdPorts {
		if rd.Pol.Clock == nil {
			continue
		}
		enabled, err := m.isEnabled(in, rd.Name, rd.Pol)
		if err != nil {
			return Result{}, err
		}
		active, err := m.portActive(in, rd.Name, rd.Pol)
		if err != nil {
			return Result{}, err
		}
		if enabled && active {
			if err := m.doRead(in, rd.Name, rd.Pol, outputs); err != nil {
				return Result{}, err
			}
		}
	}

	for _, wr := range m.WrPorts {
		enabled, err := m.isEnabled(in, wr.Name, wr.Pol)
		if err != nil {
			return Result{}, err
		}
		active, err := m.portActive(in, wr.Name, wr.Pol)
		if err != nil {
			return Result{}, err
		}
		if enabled && active {
			w, err := m.doWrite(in, wr.Name, wr.Pol)
			if err != nil {
				return Result{}, err
			}
			if w != nil {
				writes = append(writes, *w)
			}
		}
	}

	for _, rd := range m.RdPorts {
		if rd.Pol.Clock != nil {
			continue
		}
		enabled, err := m.isEnabled(in, rd.Name, rd.Pol)
		if err != nil {
			return Result{}, err
		}
		if enabled {
			if err := m.combRead(in, rd.Name, outputs); err != nil {
				return Result{}, err
			}
		}
	}

	for _, rd := range m.RdPorts {
		if rd.Pol.Srst == nil {
			continue
		}
		active, err := m.portActive(in, rd.Name, rd.Pol)
		if err != nil {
			return Result{}, err
		}
		if !active {
			continue
		}
		sig, err := need(in, rd.Name+"srst", "Memory")
		if err != nil {
			return Result{}, err
		}
		if sig.Lsb() == pol(*rd.Pol.Srst) {
			v, err := bitvector.FromBinary(rd.Pol.SrstValue, &m.Bits)
			if err != nil {
				return Result{}, err
			}
			outputs[rd.Name+"data"] = v
		}
	}

	for _, rd := range m.RdPorts {
		if rd.Pol.Arst == nil {
			continue
		}
		sig, err := need(in, rd.Name+"arst", "Memory")
		if err != nil {
			return Result{}, err
		}
		if sig.Lsb() == pol(*rd.Pol.Arst) {
			v, err := bitvector.FromBinary(rd.Pol.ArstValue, &m.Bits)
			if err != nil {
				return Result{}, err
			}
			outputs[rd.Name+"data"] = v
		}
	}

	for _, rd := range m.RdPorts {
		if rd.Pol.Clock != nil {
			clk, err := need(in, rd.Name+"clk", "Memory")
			if err != nil {
				return Result{}, err
			}
			m.lastClk[rd.Name+"clk"] = clk.Lsb()
		}
	}
	for _, wr := range m.WrPorts {
		if wr.Pol.Clock != nil {
			clk, err := need(in, wr.Name+"clk", "Memory")
			if err != nil {
				return Result{}, err
			}
			m.lastClk[wr.Name+"clk"] = clk.Lsb()
		}
	}

	return Result{Others: outputs, MemWrites: writes}, nil
}

// SetMemory overwrites one word directly, for the manualMemChange command
// (spec §6), bypassing every write port's enable/polarity logic. addr is
// already offset-adjusted by the caller.
func (m *Memory) SetMemory(addr int32, v bitvector.Vec3) bool {
	if !m.validAddr(addr) {
		return false
	}
	m.Mem[addr] = v
	return true
}

// WordAt reads one memory word directly, for triggerMemoryUpdate payloads.
func (m *Memory) WordAt(addr int32) (bitvector.Vec3, bool) {
	if !m.validAddr(addr) {
		return bitvector.Vec3{}, false
	}
	return m.Mem[addr], true
}
