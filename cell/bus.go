package cell

import (
	"strconv"

	"github.com/sarchlab/digitaljs/bitvector"
)

// fillBit builds a width-bit vector whose every bit is the given tri-state
// code (-1 low, 0 undefined, 1 high), mirroring vector3vl.rs's make_int.
func fillBit(width uint32, code int32) bitvector.Vec3 {
	switch code {
	case 1:
		return bitvector.Ones(width)
	case -1:
		return bitvector.Zeros(width)
	default:
		return bitvector.Xes(width)
	}
}

// Extend implements ZeroExtend/SignExtend: the input concatenated with
// OutWidth-in.Bits copies of either a low bit (zero extend) or the input's
// own sign bit (sign extend, X-propagating). Grounded on cell_bus.rs's
// bit_extend/zero_extend/sign_extend.
type Extend struct {
	OutWidth uint32
	Sign     bool
}

// Eval pads "in" up to OutWidth.
func (e *Extend) Eval(in Inputs) (Result, error) {
	v, err := need(in, "in", "Extend")
	if err != nil {
		return Result{}, err
	}
	if e.OutWidth <= v.Bits {
		return outResult(v)
	}
	pad := e.OutWidth - v.Bits
	code := int32(-1)
	if e.Sign {
		code = v.Msb()
	}
	return outResult(bitvector.Concat([]bitvector.Vec3{v, fillBit(pad, code)}))
}

// BusSlice implements BusSlice: slice([First, First+Count)) of "in", or
// Count bits of X if the input isn't fully defined. Grounded on
// cell_bus.rs's bus_slice.
type BusSlice struct {
	First, Count uint32
}

// Eval slices "in".
func (b *BusSlice) Eval(in Inputs) (Result, error) {
	v, err := need(in, "in", "BusSlice")
	if err != nil {
		return Result{}, err
	}
	if !v.IsFullyDefined() {
		return outResult(bitvector.Xes(b.Count))
	}
	return outResult(v.Slice(b.First, b.First+b.Count))
}

// BusGroup implements BusGroup: concatenates in0, in1, … inN-1 ascending,
// in0 landing at the low bits. Grounded on cell_bus.rs's bus_group.
type BusGroup struct{}

// Eval concatenates every "inI" port in ascending index order.
func (*BusGroup) Eval(in Inputs) (Result, error) {
	vs := make([]bitvector.Vec3, 0, len(in))
	for i := 0; ; i++ {
		v, ok := in["in"+strconv.Itoa(i)]
		if !ok {
			break
		}
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return Result{}, missingAnyInput("BusGroup")
	}
	return outResult(bitvector.Concat(vs))
}

// BusUngroup is the inverse of BusGroup: it has no counterpart in the
// original Rust sources (not implemented there at all), so it is built
// directly from spec §4.2's description — "in" is split into len(Sizes)
// named outputs out0..out(k-1), out0 taking the low Sizes[0] bits.
type BusUngroup struct {
	Sizes []uint32
}

// Eval slices "in" into its named fan-out ports.
func (b *BusUngroup) Eval(in Inputs) (Result, error) {
	v, err := need(in, "in", "BusUngroup")
	if err != nil {
		return Result{}, err
	}
	others := make(map[string]bitvector.Vec3, len(b.Sizes))
	var offset uint32
	for i, sz := range b.Sizes {
		name := "out" + strconv.Itoa(i)
		if offset+sz > v.Bits {
			others[name] = bitvector.Xes(sz)
			offset += sz
			continue
		}
		others[name] = v.Slice(offset, offset+sz)
		offset += sz
	}
	return Result{Others: others}, nil
}
