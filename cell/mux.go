package cell

import (
	"strconv"

	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/errs"
)

// MuxKind selects between the two Mux index conventions of spec §4.2.
type MuxKind int

const (
	// MuxBinary: "sel"'s unsigned value i selects port "inI" (index mux).
	MuxBinary MuxKind = iota
	// MuxOneHot: exactly one set bit at position p (0-based) selects port
	// "in{p+1}"; zero set bits, more than one set bit, or an undefined
	// selector all yield all-X.
	MuxOneHot
)

// Mux implements Mux/Mux1Hot. Grounded on cell_mux.rs's mux_op, mux_idx and
// mux1hot_idx, with one deliberate deviation: mux1hot_idx's Rust
// implementation routes an all-zero selector to "in0" (count_ones()<=1
// covers both zero and one set bit); spec §4.2 calls for an all-zero
// selector to produce all-X like any other non-one-hot selector, which is
// the behavior implemented here.
type Mux struct {
	DataBits uint32
	Kind     MuxKind
}

// Eval routes one "inN" port to "out" based on "sel".
func (m *Mux) Eval(in Inputs) (Result, error) {
	sel, err := need(in, "sel", "Mux")
	if err != nil {
		return Result{}, err
	}
	if !sel.IsFullyDefined() {
		return outResult(bitvector.Xes(m.DataBits))
	}

	var port string
	switch m.Kind {
	case MuxBinary:
		big, err := sel.ToBigInt()
		if err != nil {
			return Result{}, err
		}
		port = "in" + big.String()
	case MuxOneHot:
		bits := sel.ToArray()
		set := -1
		for i, b := range bits {
			if b == 1 {
				if set != -1 {
					return outResult(bitvector.Xes(m.DataBits))
				}
				set = i
			}
		}
		if set == -1 {
			return outResult(bitvector.Xes(m.DataBits))
		}
		port = "in" + strconv.Itoa(set+1)
	}

	v, ok := in[port]
	if !ok {
		return Result{}, errs.New(errs.LookupMiss, "Mux.Eval", "no input named %q", port)
	}
	return outResult(v)
}

// MuxSparse implements MuxSparse: the selector's lowercase hex string (no
// "0x" prefix, ToHex's native format) looked up in a table mapping hex
// values to the port name to route. Grounded on cell_mux.rs's
// sparse_mux_op.
type MuxSparse struct {
	DataBits uint32
	Table    map[string]string
}

// NewMuxSparse builds a MuxSparse from p.Inputs, which lists hex-key->port
// pairs as "hex=port" strings (spec §6's MuxSparse parameter payload); an
// entry without "=" is skipped.
func NewMuxSparse(p Params) *MuxSparse {
	table := make(map[string]string, len(p.Inputs))
	for _, entry := range p.Inputs {
		key, port, ok := splitOnce(entry, '=')
		if !ok {
			continue
		}
		table[key] = port
	}
	bits := p.Bits.In
	if bits == 0 {
		bits = 1
	}
	return &MuxSparse{DataBits: bits, Table: table}
}

// Eval routes the port named by sel's hex key, or all-X if no entry
// matches.
func (m *MuxSparse) Eval(in Inputs) (Result, error) {
	sel, err := need(in, "sel", "MuxSparse")
	if err != nil {
		return Result{}, err
	}
	port, ok := m.Table[sel.ToHex()]
	if !ok {
		return outResult(bitvector.Xes(m.DataBits))
	}
	v, ok := in[port]
	if !ok {
		return Result{}, errs.New(errs.LookupMiss, "MuxSparse.Eval", "no input named %q", port)
	}
	return outResult(v)
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
