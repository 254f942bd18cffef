package cell

import (
	"testing"

	"github.com/sarchlab/digitaljs/bitvector"
)

func lit(t *testing.T, s string) bitvector.Vec3 {
	t.Helper()
	v, err := bitvector.FromBinary(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func boolPtr(b bool) *bool { return &b }

// bitsMSBFirst builds a vector from explicit tri-state codes (-1 low, 0
// undefined, 1 high), written most-significant bit first, so a test can
// construct a vector with only some bits undefined. FromBinary can't do
// this: any "x" in its input collapses the whole result to fully-undefined.
func bitsMSBFirst(codes ...int32) bitvector.Vec3 {
	vs := make([]bitvector.Vec3, len(codes))
	for i, c := range codes {
		vs[len(codes)-1-i] = fillBit(1, c)
	}
	return bitvector.Concat(vs)
}

// AND gate end-to-end scenario (spec §8.1/§8.2): two 4-bit inputs, including
// the X-propagation cases.
func TestAndGate(t *testing.T) {
	and := &NAry{Op: bitvector.Vec3.And}

	cases := []struct {
		name     string
		in0, in1 bitvector.Vec3
		want     bitvector.Vec3
	}{
		{"no X", lit(t, "1010"), lit(t, "1100"), lit(t, "1000")},
		{"X with a high partner bit stays X", bitsMSBFirst(1, 0, 1, -1), bitsMSBFirst(1, 1, 1, 1), bitsMSBFirst(1, 0, 1, -1)},
		{"X in the top and bottom bits with a high partner stays X", bitsMSBFirst(-1, 0, 1, -1), bitsMSBFirst(1, 1, 1, 1), bitsMSBFirst(-1, 0, 1, -1)},
	}
	for _, c := range cases {
		res, err := and.Eval(Inputs{"in0": c.in0, "in1": c.in1})
		if err != nil {
			t.Fatalf("And(%s): %v", c.name, err)
		}
		if !res.Out.Equal(c.want) {
			t.Errorf("And(%s) = %v, want %v", c.name, res.Out.ToArray(), c.want.ToArray())
		}
	}
}

// Adder overflow scenario (spec §8.4): 4-bit unsigned add wraps silently.
func TestAdderOverflowWraps(t *testing.T) {
	add := &ArithBinop{Op: addOp, BitsOut: 4, Sign: Sign{In1: false, In2: false}}
	in1 := bitvector.FromNumber(15, 4)
	in2 := bitvector.FromNumber(1, 4)
	res, err := add.Eval(Inputs{"in1": in1, "in2": in2})
	if err != nil {
		t.Fatal(err)
	}
	want := bitvector.Zeros(4)
	if !res.Out.Equal(want) {
		t.Errorf("15+1 (4-bit unsigned) = %v, want all-zero wraparound", res.Out.ToArray())
	}
}

// Division and modulo by zero never trap (spec §4.1): they return the
// numerator unchanged.
func TestDivModByZeroReturnsNumerator(t *testing.T) {
	num := bitvector.FromNumber(7, 8)
	zero := bitvector.Zeros(8)

	div := &ArithBinop{Op: divOp, BitsOut: 8}
	res, err := div.Eval(Inputs{"in1": num, "in2": zero})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Out.Equal(num) {
		t.Errorf("7/0 = %v, want numerator 7 unchanged", res.Out.ToArray())
	}

	mod := &ArithBinop{Op: modOp, BitsOut: 8}
	res, err = mod.Eval(Inputs{"in1": num, "in2": zero})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Out.Equal(num) {
		t.Errorf("7%%0 = %v, want numerator 7 unchanged", res.Out.ToArray())
	}
}

// Mux1Hot ambiguous selector scenario (spec §8.5): two bits set yields all-X
// of the declared width regardless of data.
func TestMux1HotAmbiguousSelectorIsAllX(t *testing.T) {
	m := &Mux{DataBits: 4, Kind: MuxOneHot}
	res, err := m.Eval(Inputs{
		"sel": lit(t, "0110"),
		"in1": lit(t, "1111"),
		"in2": lit(t, "0000"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Out.IsFullyDefined() {
		t.Errorf("Mux1Hot with two set bits = %v, want all-X", res.Out.ToArray())
	}
	if res.Out.Bits != 4 {
		t.Errorf("Mux1Hot result width = %d, want 4", res.Out.Bits)
	}
}

func TestMux1HotSingleBitSelectsOneBasedInput(t *testing.T) {
	m := &Mux{DataBits: 1, Kind: MuxOneHot}
	res, err := m.Eval(Inputs{
		"sel": lit(t, "0010"),
		"in1": lit(t, "0"),
		"in2": lit(t, "1"),
		"in3": lit(t, "0"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Out.IsHigh() {
		t.Errorf("Mux1Hot with bit 1 set should route in2, got %v", res.Out.ToArray())
	}
}

func TestMux1HotAllZeroSelectorIsAllX(t *testing.T) {
	m := &Mux{DataBits: 2, Kind: MuxOneHot}
	res, err := m.Eval(Inputs{
		"sel": lit(t, "0000"),
		"in1": lit(t, "01"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Out.IsFullyDefined() {
		t.Errorf("Mux1Hot with no set bits = %v, want all-X", res.Out.ToArray())
	}
}

func TestMuxBinarySelectsIndexedInput(t *testing.T) {
	m := &Mux{DataBits: 4, Kind: MuxBinary}
	res, err := m.Eval(Inputs{
		"sel": lit(t, "01"),
		"in0": lit(t, "0000"),
		"in1": lit(t, "1010"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Out.Equal(lit(t, "1010")) {
		t.Errorf("Mux(sel=1) = %v, want in1", res.Out.ToArray())
	}
}

func TestMuxBinaryUndefinedSelectorIsAllX(t *testing.T) {
	m := &Mux{DataBits: 4, Kind: MuxBinary}
	res, err := m.Eval(Inputs{"sel": lit(t, "x"), "in0": lit(t, "1111")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Out.IsFullyDefined() {
		t.Errorf("Mux with X selector = %v, want all-X", res.Out.ToArray())
	}
}

// DFF rising-edge latch scenario (spec §8.3): latches on 0->1 only, holds
// steady while the clock stays high, and keeps its output when data changes
// without a rising edge.
func TestDffRisingEdgeLatch(t *testing.T) {
	d := NewDff(Params{Bits: BitsSpec{Out: 8}, Polarity: Polarity{Clock: boolPtr(true)}})

	step := func(clk, in string) bitvector.Vec3 {
		res, err := d.Eval(Inputs{"clk": lit(t, clk), "in": lit(t, in)})
		if err != nil {
			t.Fatal(err)
		}
		return *res.Out
	}

	// clock low, data present but not yet latched.
	out := step("0", "00001111")
	if out.IsFullyDefined() {
		t.Errorf("Dff before any clock edge should still read reset value, got %v", out.ToArray())
	}

	// rising edge: latches.
	out = step("1", "00001111")
	if !out.Equal(lit(t, "00001111")) {
		t.Errorf("Dff after rising edge = %v, want 00001111", out.ToArray())
	}

	// clock stays high, data changes: must NOT latch (no edge).
	out = step("1", "11110000")
	if !out.Equal(lit(t, "00001111")) {
		t.Errorf("Dff with clock held high changed output to %v, want unchanged 00001111", out.ToArray())
	}

	// falling edge: no latch (this Dff only watches rising edges).
	out = step("0", "11110000")
	if !out.Equal(lit(t, "00001111")) {
		t.Errorf("Dff latched on a falling edge, got %v", out.ToArray())
	}

	// next rising edge: latches the new data.
	out = step("1", "11110000")
	if !out.Equal(lit(t, "11110000")) {
		t.Errorf("Dff after second rising edge = %v, want 11110000", out.ToArray())
	}
}

// Level-sensitive latch fallback (spec §9 Open Question): no clock polarity,
// enable present -> transparent while enabled, frozen otherwise.
func TestDffLevelSensitiveLatchWithoutClock(t *testing.T) {
	d := NewDff(Params{Bits: BitsSpec{Out: 4}, Polarity: Polarity{Enable: boolPtr(true)}})

	res, err := d.Eval(Inputs{"en": lit(t, "1"), "in": lit(t, "1010")})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Out.Equal(lit(t, "1010")) {
		t.Errorf("latch while enabled = %v, want 1010", res.Out.ToArray())
	}

	res, err = d.Eval(Inputs{"en": lit(t, "0"), "in": lit(t, "0101")})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Out.Equal(lit(t, "1010")) {
		t.Errorf("latch while disabled changed to %v, want frozen 1010", res.Out.ToArray())
	}
}

// Memory write-then-read scenario (spec §8.6): a clocked write port and a
// combinational read port, 8 words of 4 bits.
func TestMemoryWriteThenRead(t *testing.T) {
	m := NewMemory(Params{
		Bits:  BitsSpec{In: 4},
		Abits: 3,
		WrPorts: []MemPortPolarity{
			{Clock: boolPtr(true), Enable: boolPtr(true)},
		},
		RdPorts: []MemPortPolarity{
			{},
		},
	})

	addr2 := bitvector.FromNumber(2, 3)

	// rising edge write: addr=2, data=1011, en=1111 (fully enabled).
	res, err := m.Eval(Inputs{
		"wr0clk":  lit(t, "0"),
		"wr0addr": addr2,
		"wr0data": lit(t, "1011"),
		"wr0en":   lit(t, "1111"),
		"rd0addr": addr2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.MemWrites) != 0 {
		t.Fatalf("write before any clock edge should not fire, got %v", res.MemWrites)
	}

	res, err = m.Eval(Inputs{
		"wr0clk":  lit(t, "1"),
		"wr0addr": addr2,
		"wr0data": lit(t, "1011"),
		"wr0en":   lit(t, "1111"),
		"rd0addr": addr2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.MemWrites) != 1 {
		t.Fatalf("rising edge write produced %d MemWrites, want 1", len(res.MemWrites))
	}
	if res.MemWrites[0].Addr != 2 || !res.MemWrites[0].Value.Equal(lit(t, "1011")) {
		t.Errorf("MemWrite = %+v, want addr=2 value=1011", res.MemWrites[0])
	}

	// combinational read at the same address now sees the written value.
	data, ok := res.Others["rd0data"]
	if !ok {
		t.Fatalf("no rd0data in result")
	}
	if !data.Equal(lit(t, "1011")) {
		t.Errorf("rd0data = %v, want 1011", data.ToArray())
	}

	word, ok := m.WordAt(2)
	if !ok || !word.Equal(lit(t, "1011")) {
		t.Errorf("WordAt(2) = %v, ok=%v, want 1011", word.ToArray(), ok)
	}
}

func TestMemoryOutOfRangeReadIsAllX(t *testing.T) {
	m := NewMemory(Params{Bits: BitsSpec{In: 4}, Abits: 2, RdPorts: []MemPortPolarity{{}}})
	bigAddr := bitvector.FromNumber(200, 8)
	res, err := m.Eval(Inputs{"rd0addr": bigAddr})
	if err != nil {
		t.Fatal(err)
	}
	if res.Others["rd0data"].IsFullyDefined() {
		t.Errorf("out-of-range read = %v, want all-X", res.Others["rd0data"].ToArray())
	}
}

// FSM transition/output scenario: a two-state toggle FSM with a wildcard
// input pattern (one row per state), verifying state advance and the output
// of the state the register lands in.
func TestFSMTransitionAndWildcardOutput(t *testing.T) {
	fsmCell, err := NewFSM(Params{
		Bits:      BitsSpec{Out: 1},
		Polarity:  Polarity{Clock: boolPtr(true), Arst: boolPtr(true)},
		InitState: 0,
		Trans: []Transition{
			{StateIn: 0, CtrlIn: lit(t, "x"), CtrlOut: lit(t, "1"), StateOut: 1},
			{StateIn: 1, CtrlIn: lit(t, "x"), CtrlOut: lit(t, "0"), StateOut: 0},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	fsm := fsmCell.(*FSM)

	step := func(arst, clk, in string) bitvector.Vec3 {
		res, err := fsm.Eval(Inputs{"arst": lit(t, arst), "clk": lit(t, clk), "in": lit(t, in)})
		if err != nil {
			t.Fatal(err)
		}
		return *res.Out
	}

	step("1", "0", "0") // async reset
	if fsm.CurrentState() != 0 {
		t.Fatalf("after arst, state = %d, want 0", fsm.CurrentState())
	}

	out := step("0", "1", "0") // rising edge: 0 -> 1
	if fsm.CurrentState() != 1 {
		t.Errorf("after first rising edge, state = %d, want 1", fsm.CurrentState())
	}
	// Output reflects the state the register just landed in, not the one it
	// left: state 1's own wildcard transition emits low.
	if out.IsHigh() {
		t.Errorf("output after landing in state 1 = %v, want low", out.ToArray())
	}
	if fsm.LastTransition() != "tr0" {
		t.Errorf("LastTransition = %q, want tr0", fsm.LastTransition())
	}
}

func TestFSMMissingTransitionFallsBackToInitState(t *testing.T) {
	fsmCell, err := NewFSM(Params{
		Bits:      BitsSpec{Out: 1},
		Polarity:  Polarity{Clock: boolPtr(true), Arst: boolPtr(true)},
		InitState: 0,
		Trans: []Transition{
			{StateIn: 0, CtrlIn: lit(t, "1"), CtrlOut: lit(t, "1"), StateOut: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	fsm := fsmCell.(*FSM)

	_, err = fsm.Eval(Inputs{"arst": lit(t, "0"), "clk": lit(t, "0"), "in": lit(t, "0")})
	if err != nil {
		t.Fatal(err)
	}
	_, err = fsm.Eval(Inputs{"arst": lit(t, "0"), "clk": lit(t, "1"), "in": lit(t, "0")})
	if err != nil {
		t.Fatal(err)
	}
	if fsm.CurrentState() != 0 {
		t.Errorf("no matching transition should fall back to init state, got %d", fsm.CurrentState())
	}
}

// MuxSparse routes by the selector's hex key (spec §4.2/SPEC_FULL §D.1), or
// all-X when no entry matches.
func TestMuxSparse(t *testing.T) {
	m := NewMuxSparse(Params{Bits: BitsSpec{In: 4}, Inputs: []string{"a=in1", "f=in2"}})

	sel := bitvector.FromNumber(0xf, 4)
	res, err := m.Eval(Inputs{"sel": sel, "in2": lit(t, "1100")})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Out.Equal(lit(t, "1100")) {
		t.Errorf("MuxSparse(sel=f) = %v, want in2's value", res.Out.ToArray())
	}

	sel0 := bitvector.FromNumber(0, 4)
	res, err = m.Eval(Inputs{"sel": sel0})
	if err != nil {
		t.Fatal(err)
	}
	if res.Out.IsFullyDefined() {
		t.Errorf("MuxSparse with no matching key = %v, want all-X", res.Out.ToArray())
	}
}

// Clock cell toggles and always requests re-scheduling.
func TestClockTogglesAndRequestsReschedule(t *testing.T) {
	c := &Clock{}
	res, err := c.Eval(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Clock {
		t.Fatal("Clock.Eval did not set the Clock re-enqueue flag")
	}
	first := res.Out.Lsb()
	res, _ = c.Eval(nil)
	if res.Out.Lsb() == first {
		t.Error("Clock did not toggle between evaluations")
	}
}

// BusSlice/BusGroup round trip (spec §4.2 bus routing).
func TestBusSliceAndGroupRoundTrip(t *testing.T) {
	slice := &BusSlice{First: 2, Count: 2}
	res, err := slice.Eval(Inputs{"in": lit(t, "1011")})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Out.Equal(lit(t, "10")) {
		t.Errorf("BusSlice(2,2) of 1011 = %v, want 10", res.Out.ToArray())
	}

	group := &BusGroup{}
	res, err = group.Eval(Inputs{"in0": lit(t, "11"), "in1": lit(t, "00")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Out.Bits != 4 {
		t.Errorf("BusGroup width = %d, want 4", res.Out.Bits)
	}
}

func TestBusSliceOnUndefinedInputIsAllX(t *testing.T) {
	slice := &BusSlice{First: 0, Count: 2}
	res, err := slice.Eval(Inputs{"in": lit(t, "1x11")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Out.IsFullyDefined() {
		t.Errorf("BusSlice of a not-fully-defined input = %v, want all-X", res.Out.ToArray())
	}
}
