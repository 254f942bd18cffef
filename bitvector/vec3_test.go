package bitvector

import (
	"math/big"
	"testing"
)

func requireGet(t *testing.T, v Vec3) int32 {
	t.Helper()
	return v.Lsb()
}

func TestBinaryLogicTruthTables(t *testing.T) {
	// -1 = low, 0 = X, 1 = high, matching get()'s encoding.
	lit := func(v int32) Vec3 {
		vv, err := NewInt(1, v)
		if err != nil {
			t.Fatal(err)
		}
		return vv
	}

	cases := []struct {
		op       string
		a, b     int32
		wantBits int32
	}{
		{"and", 1, 1, 1}, {"and", 1, -1, -1}, {"and", -1, 1, -1}, {"and", -1, -1, -1},
		{"and", 1, 0, 0}, {"and", -1, 0, -1}, {"and", 0, 0, 0},
		{"or", 1, 1, 1}, {"or", 1, -1, 1}, {"or", -1, 1, 1}, {"or", -1, -1, -1},
		{"or", 1, 0, 1}, {"or", -1, 0, 0}, {"or", 0, 0, 0},
		{"xor", 1, 1, -1}, {"xor", 1, -1, 1}, {"xor", -1, 1, 1}, {"xor", -1, -1, -1},
		{"xor", 1, 0, 0}, {"xor", -1, 0, 0}, {"xor", 0, 0, 0},
		{"nand", 1, 1, -1}, {"nand", 1, -1, 1}, {"nand", -1, 1, 1}, {"nand", -1, -1, 1},
		{"nor", 1, 1, -1}, {"nor", 1, -1, -1}, {"nor", -1, 1, -1}, {"nor", -1, -1, 1},
		{"xnor", 1, 1, 1}, {"xnor", 1, -1, -1}, {"xnor", -1, 1, -1}, {"xnor", -1, -1, 1},
	}
	for _, c := range cases {
		av, bv := lit(c.a), lit(c.b)
		var got Vec3
		var err error
		switch c.op {
		case "and":
			got, err = av.And(bv)
		case "or":
			got, err = av.Or(bv)
		case "xor":
			got, err = av.Xor(bv)
		case "nand":
			got, err = av.Nand(bv)
		case "nor":
			got, err = av.Nor(bv)
		case "xnor":
			got, err = av.Xnor(bv)
		}
		if err != nil {
			t.Fatalf("%s(%d,%d): %v", c.op, c.a, c.b, err)
		}
		if requireGet(t, got) != c.wantBits {
			t.Errorf("%s(%d,%d) = %d, want %d", c.op, c.a, c.b, requireGet(t, got), c.wantBits)
		}
	}
}

func TestWidthMismatch(t *testing.T) {
	if _, err := Ones(4).And(Ones(8)); err == nil {
		t.Fatal("expected width mismatch error")
	}
}

func TestIsHighIsLowIsDefined(t *testing.T) {
	if !Ones(8).IsHigh() {
		t.Error("Ones(8) should be high")
	}
	if !Zeros(8).IsLow() {
		t.Error("Zeros(8) should be low")
	}
	if Xes(8).IsFullyDefined() {
		t.Error("Xes(8) should not be fully defined")
	}
	if !FromNumber(5, 8).IsFullyDefined() {
		t.Error("FromNumber result should be fully defined")
	}
}

func TestGetNumberRoundTrip(t *testing.T) {
	v := FromNumber(200, 9)
	n, err := v.GetNumber()
	if err != nil {
		t.Fatal(err)
	}
	if n != 200 {
		t.Errorf("got %d, want 200", n)
	}
	if _, err := Xes(4).GetNumber(); err == nil {
		t.Error("expected error reading a number from an undefined signal")
	}
}

func TestSliceAndConcat(t *testing.T) {
	v := FromNumber(0b10110110, 8)
	lo := v.Slice(0, 4)
	hi := v.Slice(4, 8)
	loN, _ := lo.GetNumber()
	hiN, _ := hi.GetNumber()
	if loN != 0b0110 || hiN != 0b1011 {
		t.Errorf("slices = %#x, %#x", loN, hiN)
	}

	back := Concat([]Vec3{lo, hi})
	backN, err := back.GetNumber()
	if err != nil {
		t.Fatal(err)
	}
	if backN != 0b10110110 {
		t.Errorf("concat round-trip = %#x, want %#x", backN, 0b10110110)
	}
}

func TestSliceUnaligned(t *testing.T) {
	v := FromNumber(0xABCD, 16)
	mid := v.Slice(4, 12)
	n, err := mid.GetNumber()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0xBC {
		t.Errorf("got %#x, want 0xbc", n)
	}
}

func TestConcatWideCrossWord(t *testing.T) {
	a := FromNumber(0x1, 3)
	b, err := FromHex("ffffffff", nil)
	if err != nil {
		t.Fatal(err)
	}
	v := Concat([]Vec3{a, b})
	if v.Bits != 35 {
		t.Fatalf("bits = %d, want 35", v.Bits)
	}
	n, err := v.Slice(0, 3).GetNumber()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0x1 {
		t.Errorf("low slice = %#x, want 1", n)
	}
}

func TestReductions(t *testing.T) {
	allOnes := Ones(8)
	if requireGet(t, allOnes.ReduceAnd()) != 1 {
		t.Error("reduce-and of all ones should be 1")
	}
	if requireGet(t, allOnes.ReduceOr()) != 1 {
		t.Error("reduce-or of all ones should be 1")
	}

	mixed := FromNumber(0b1110, 4) // one zero bit, rest ones
	if requireGet(t, mixed.ReduceAnd()) != -1 {
		t.Error("reduce-and with one zero bit should be 0")
	}
	if requireGet(t, mixed.ReduceOr()) != 1 {
		t.Error("reduce-or with any one bit should be 1")
	}

	withX := Xes(1)
	v := Concat([]Vec3{FromNumber(0b111, 3), withX})
	if requireGet(t, v.ReduceAnd()) != 0 {
		t.Error("reduce-and with no zero but an X bit should be X")
	}
	v = Concat([]Vec3{FromNumber(0, 3), withX})
	if requireGet(t, v.ReduceOr()) != 0 {
		t.Error("reduce-or with no one but an X bit should be X")
	}

	if requireGet(t, FromNumber(0b0110, 4).ReduceXor()) != -1 {
		t.Error("reduce-xor of two set bits should be 0 (even parity)")
	}
	if requireGet(t, FromNumber(0b0111, 4).ReduceXor()) != 1 {
		t.Error("reduce-xor of three set bits should be 1 (odd parity)")
	}
}

func TestHexRoundTrip(t *testing.T) {
	v, err := FromHex("1a2b", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.ToHex(); got != "1a2b" {
		t.Errorf("got %q, want 1a2b", got)
	}
}

func TestHexWithUndefinedNibble(t *testing.T) {
	lo, _ := NewStr(4, "x")
	hi := FromNumber(0xA, 4)
	v := Concat([]Vec3{lo, hi})
	if got := v.ToHex(); got != "ax" {
		t.Errorf("got %q, want ax", got)
	}
}

func TestBinaryDecodeAnyXMakesAllX(t *testing.T) {
	v, err := FromBinary("10x1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.IsFullyDefined() {
		t.Error("a literal containing x should decode to an all-undefined vector")
	}
	if v.Bits != 4 {
		t.Errorf("bits = %d, want 4", v.Bits)
	}
}

func TestBigIntRoundTrip(t *testing.T) {
	want := big.NewInt(123456789)
	v := FromBigInt(want, 40)
	got, err := v.ToBigInt()
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestBigIntRequiresFullyDefined(t *testing.T) {
	if _, err := Xes(8).ToBigInt(); err == nil {
		t.Error("expected error building a big integer from an undefined signal")
	}
}

func TestXmask(t *testing.T) {
	v := Concat([]Vec3{FromNumber(0b101, 3), Xes(1)})
	mask := v.Xmask()
	n := mask.ToArray()
	want := []int32{-1, -1, -1, 1}
	for i, w := range want {
		if n[i] != w {
			t.Errorf("xmask bit %d = %d, want %d", i, n[i], w)
		}
	}
}
