// Package bitvector implements a three-valued (0, 1, X) bit vector, the
// signal representation every gate in the cell library reads and writes.
//
// Each bit is stored twice, in an "a" word and a "b" word: low is (0,0),
// high is (1,1), and undefined is (0,1). A decoder that produces the
// alternate undefined encoding (1,0) is still valid — any consumer must
// treat a bit as undefined whenever its a and b words disagree, never by
// comparing against one specific encoding.
package bitvector

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strings"
)

// ErrWidthMismatch is returned by binary operations whose operands carry
// different widths.
var ErrWidthMismatch = errors.New("bitvector: width mismatch")

// Vec3 is a three-valued bit vector of a fixed width.
type Vec3 struct {
	Bits uint32
	A    []uint32
	B    []uint32
}

func wordnum(n uint32) uint32 { return n / 32 }
func bitnum(n uint32) uint32  { return n & 0x1f }

// Words returns the number of 32-bit words needed to hold bits bits.
func Words(bits uint32) uint32 { return (bits + 31) / 32 }

// New builds a Vec3 from raw word vectors without normalizing them.
func New(width uint32, a, b []uint32) Vec3 {
	return Vec3{Bits: width, A: a, B: b}
}

// NewBool returns a fully-defined vector of width bits, all 1 if init is
// true, all 0 otherwise.
func NewBool(width uint32, init bool) Vec3 {
	var av, bv uint32
	if init {
		av, bv = ^uint32(0), ^uint32(0)
	}
	n := Words(width)
	return Vec3{Bits: width, A: fill(n, av), B: fill(n, bv)}
}

// NewInt builds a vector whose every bit is set from init, which must be
// -1 (low), 0 (undefined), or 1 (high).
func NewInt(width uint32, init int32) (Vec3, error) {
	var av, bv uint32
	switch init {
	case 1:
		av, bv = ^uint32(0), ^uint32(0)
	case 0:
		av, bv = 0, ^uint32(0)
	case -1:
		av, bv = 0, 0
	default:
		return Vec3{}, fmt.Errorf("bitvector: expected -1, 0 or 1, got %d", init)
	}
	n := Words(width)
	return Vec3{Bits: width, A: fill(n, av), B: fill(n, bv)}, nil
}

// NewStr builds a vector whose every bit is "1", "0" or "x".
func NewStr(width uint32, init string) (Vec3, error) {
	var av, bv uint32
	switch init {
	case "1":
		av, bv = ^uint32(0), ^uint32(0)
	case "0":
		av, bv = 0, 0
	case "x":
		av, bv = 0, ^uint32(0)
	default:
		return Vec3{}, fmt.Errorf("bitvector: expected 1, 0 or x, got %q", init)
	}
	n := Words(width)
	return Vec3{Bits: width, A: fill(n, av), B: fill(n, bv)}, nil
}

func fill(n, v uint32) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Zeros returns a fully-defined all-low vector.
func Zeros(width uint32) Vec3 { v, _ := NewInt(width, -1); return v }

// Ones returns a fully-defined all-high vector.
func Ones(width uint32) Vec3 { v, _ := NewInt(width, 1); return v }

// Xes returns a fully-undefined vector.
func Xes(width uint32) Vec3 { v, _ := NewInt(width, 0); return v }

// Clone returns a deep copy, safe to mutate independently of v.
func (v Vec3) Clone() Vec3 {
	return Vec3{Bits: v.Bits, A: append([]uint32(nil), v.A...), B: append([]uint32(nil), v.B...)}
}

// Wire returns v's bit-vector wire format (spec §6): the width and the two
// normalized, little-endian word arrays a callback payload carries.
func (v Vec3) Wire() (bits uint32, avec, bvec []uint32) {
	n := v.Clone()
	n.Normalize()
	return n.Bits, n.A, n.B
}

// Concat packs vs end to end, the first vector at the low bit positions.
func Concat(vs []Vec3) Vec3 {
	var total uint32
	for _, v := range vs {
		total += v.Bits
	}
	n := Words(total)
	a := make([]uint32, n)
	b := make([]uint32, n)
	var offset uint32
	for _, v0 := range vs {
		v := v0.Clone()
		v.Normalize()
		for i := uint32(0); i < uint32(len(v.A)); i++ {
			wordIdx := (offset + i*32) / 32
			shift := offset % 32
			if shift == 0 {
				a[wordIdx] |= v.A[i]
				b[wordIdx] |= v.B[i]
				continue
			}
			a[wordIdx] |= v.A[i] << shift
			b[wordIdx] |= v.B[i] << shift
			if wordIdx+1 < n {
				a[wordIdx+1] |= v.A[i] >> (32 - shift)
				b[wordIdx+1] |= v.B[i] >> (32 - shift)
			}
		}
		offset += v.Bits
	}
	return Vec3{Bits: total, A: a, B: b}
}

// Slice extracts bits [s, e), clamped to the vector's width.
func (v Vec3) Slice(s, e uint32) Vec3 {
	if e > v.Bits {
		e = v.Bits
	}
	if s > e {
		e = s
	}
	width := e - s
	n := Words(width)
	a := make([]uint32, n)
	b := make([]uint32, n)
	for i := uint32(0); i < n; i++ {
		bitPos := s + i*32
		wordIdx := bitPos / 32
		shift := bitPos % 32
		var av, bv uint32
		if wordIdx < uint32(len(v.A)) {
			av = v.A[wordIdx] >> shift
			bv = v.B[wordIdx] >> shift
		}
		if shift != 0 && wordIdx+1 < uint32(len(v.A)) {
			av |= v.A[wordIdx+1] << (32 - shift)
			bv |= v.B[wordIdx+1] << (32 - shift)
		}
		a[i] = av
		b[i] = bv
	}
	return Vec3{Bits: width, A: a, B: b}
}

// Msb returns the most significant bit: -1 for low, 0 for undefined, 1 for high.
func (v Vec3) Msb() int32 {
	if v.Bits == 0 {
		return -1
	}
	return v.get(v.Bits - 1)
}

// Lsb returns the least significant bit: -1 for low, 0 for undefined, 1 for high.
func (v Vec3) Lsb() int32 { return v.get(0) }

func (v Vec3) get(n uint32) int32 {
	bn := bitnum(n)
	wn := wordnum(n)
	a := (v.A[wn] >> bn) & 1
	b := (v.B[wn] >> bn) & 1
	return int32(a) + int32(b) - 1
}

// GetNumber returns the vector's value as an unsigned integer. It fails if
// the vector is not fully defined or is wider than 32 bits.
func (v Vec3) GetNumber() (uint32, error) {
	if !v.IsFullyDefined() {
		return 0, errors.New("bitvector: attempted to read a number from an undefined signal")
	}
	if v.Bits > 32 {
		return 0, errors.New("bitvector: attempted to read a number wider than 32 bits")
	}
	n := v.Clone()
	n.Normalize()
	return n.A[0], nil
}

// IsHigh reports whether every bit is definite 1.
func (v Vec3) IsHigh() bool {
	if v.Bits == 0 {
		return true
	}
	mask := v.lastmask()
	hi := func(vec []uint32) bool {
		for i, w := range vec {
			if i == len(vec)-1 {
				if w&mask != mask {
					return false
				}
				continue
			}
			if w != ^uint32(0) {
				return false
			}
		}
		return true
	}
	return hi(v.A) && hi(v.B)
}

// IsLow reports whether every bit is definite 0.
func (v Vec3) IsLow() bool {
	if v.Bits == 0 {
		return true
	}
	mask := v.lastmask()
	lo := func(vec []uint32) bool {
		for i, w := range vec {
			if i == len(vec)-1 {
				if w&mask != 0 {
					return false
				}
				continue
			}
			if w != 0 {
				return false
			}
		}
		return true
	}
	return lo(v.A) && lo(v.B)
}

// IsDefined reports whether no bit of v is undefined. It is an alias of
// IsFullyDefined.
func (v Vec3) IsDefined() bool { return v.IsFullyDefined() }

// IsFullyDefined reports whether every bit is a definite 0 or 1.
func (v Vec3) IsFullyDefined() bool {
	if v.Bits == 0 {
		return true
	}
	mask := v.lastmask()
	for i := range v.A {
		x := v.A[i] ^ v.B[i]
		if i == len(v.A)-1 {
			x &= mask
		}
		if x != 0 {
			return false
		}
	}
	return true
}

func sameWidth(x, y Vec3, op string) error {
	if x.Bits != y.Bits {
		return fmt.Errorf("%w: %s on vectors of width %d and %d", ErrWidthMismatch, op, x.Bits, y.Bits)
	}
	return nil
}

// And computes the bitwise three-valued AND of x and y.
func (x Vec3) And(y Vec3) (Vec3, error) {
	if err := sameWidth(x, y, "and"); err != nil {
		return Vec3{}, err
	}
	return Vec3{Bits: x.Bits, A: zip(x.A, y.A, func(a, b uint32) uint32 { return a & b }),
		B: zip(x.B, y.B, func(a, b uint32) uint32 { return a & b })}, nil
}

// Or computes the bitwise three-valued OR of x and y.
func (x Vec3) Or(y Vec3) (Vec3, error) {
	if err := sameWidth(x, y, "or"); err != nil {
		return Vec3{}, err
	}
	return Vec3{Bits: x.Bits, A: zip(x.A, y.A, func(a, b uint32) uint32 { return a | b }),
		B: zip(x.B, y.B, func(a, b uint32) uint32 { return a | b })}, nil
}

// Xor computes the bitwise three-valued XOR of x and y. Unlike AND/OR this
// needs a cross term between the a and b words: a plain per-word XOR of a
// with a and b with b loses the "undefined poisons the result" behavior.
func (x Vec3) Xor(y Vec3) (Vec3, error) {
	if err := sameWidth(x, y, "xor"); err != nil {
		return Vec3{}, err
	}
	a := zip4(x.A, y.A, x.B, y.B, func(xa, ya, xb, yb uint32) uint32 { return (xa | ya) & (xb ^ yb) })
	b := zip4(x.A, y.A, x.B, y.B, func(xa, ya, xb, yb uint32) uint32 { return (xa & ya) ^ (xb | yb) })
	return Vec3{Bits: x.Bits, A: a, B: b}, nil
}

// Nand computes the bitwise three-valued NAND of x and y.
func (x Vec3) Nand(y Vec3) (Vec3, error) {
	r, err := x.And(y)
	if err != nil {
		return Vec3{}, fmt.Errorf("nand: %w", err)
	}
	return r.Not(), nil
}

// Nor computes the bitwise three-valued NOR of x and y.
func (x Vec3) Nor(y Vec3) (Vec3, error) {
	r, err := x.Or(y)
	if err != nil {
		return Vec3{}, fmt.Errorf("nor: %w", err)
	}
	return r.Not(), nil
}

// Xnor computes the bitwise three-valued XNOR of x and y.
func (x Vec3) Xnor(y Vec3) (Vec3, error) {
	r, err := x.Xor(y)
	if err != nil {
		return Vec3{}, fmt.Errorf("xnor: %w", err)
	}
	return r.Not(), nil
}

// Not computes the bitwise three-valued complement of v.
func (v Vec3) Not() Vec3 {
	return Vec3{Bits: v.Bits,
		A: mapWords(v.A, func(w uint32) uint32 { return ^w }),
		B: mapWords(v.B, func(w uint32) uint32 { return ^w })}
}

// Xmask returns a vector with a 1 at every undefined bit of v and 0
// elsewhere (in both its a and b words).
func (v Vec3) Xmask() Vec3 {
	x := zip(v.A, v.B, func(a, b uint32) uint32 { return a ^ b })
	return Vec3{Bits: v.Bits, A: x, B: append([]uint32(nil), x...)}
}

func zip(a, b []uint32, f func(uint32, uint32) uint32) []uint32 {
	out := make([]uint32, len(a))
	for i := range a {
		out[i] = f(a[i], b[i])
	}
	return out
}

func zip4(a, b, c, d []uint32, f func(uint32, uint32, uint32, uint32) uint32) []uint32 {
	out := make([]uint32, len(a))
	for i := range a {
		out[i] = f(a[i], b[i], c[i], d[i])
	}
	return out
}

func mapWords(a []uint32, f func(uint32) uint32) []uint32 {
	out := make([]uint32, len(a))
	for i, w := range a {
		out[i] = f(w)
	}
	return out
}

// reduceMasked walks every real bit (respecting the last-word mask) and
// reports whether it saw a definite 0, a definite 1, and an undefined bit.
func (v Vec3) reduceMasked() (sawZero, sawOne, sawX bool) {
	mask := v.lastmask()
	for i := range v.A {
		a, b := v.A[i], v.B[i]
		x := a ^ b
		zero := ^a & ^b
		one := a & b
		if i == len(v.A)-1 {
			// Bits past the real width read as (0,0), a spurious zero;
			// only the masked, real bits count.
			x &= mask
			zero &= mask
			one &= mask
		}
		if x != 0 {
			sawX = true
		}
		if zero != 0 {
			sawZero = true
		}
		if one != 0 {
			sawOne = true
		}
	}
	return
}

func bit1(v bool) Vec3 {
	if v {
		return Ones(1)
	}
	return Zeros(1)
}

// ReduceAnd folds v's bits with three-valued AND: 0 if any bit is a
// definite 0, else X if any bit is undefined, else 1.
func (v Vec3) ReduceAnd() Vec3 {
	sawZero, _, sawX := v.reduceMasked()
	switch {
	case sawZero:
		return bit1(false)
	case sawX:
		return Xes(1)
	default:
		return bit1(true)
	}
}

// ReduceOr folds v's bits with three-valued OR: 1 if any bit is a definite
// 1, else X if any bit is undefined, else 0.
func (v Vec3) ReduceOr() Vec3 {
	_, sawOne, sawX := v.reduceMasked()
	switch {
	case sawOne:
		return bit1(true)
	case sawX:
		return Xes(1)
	default:
		return bit1(false)
	}
}

// ReduceNand is the complement of ReduceAnd.
func (v Vec3) ReduceNand() Vec3 { return v.ReduceAnd().Not() }

// ReduceNor is the complement of ReduceOr.
func (v Vec3) ReduceNor() Vec3 { return v.ReduceOr().Not() }

// ReduceXor folds v's bits with three-valued XOR: the parity of its
// definite bits, or X if any bit is undefined.
func (v Vec3) ReduceXor() Vec3 {
	mask := v.lastmask()
	parity := 0
	sawX := false
	for i := range v.A {
		a, b := v.A[i], v.B[i]
		if i == len(v.A)-1 {
			a &= mask
			b &= mask
		}
		if a^b != 0 {
			sawX = true
		}
		parity ^= bits.OnesCount32(a&b) & 1
	}
	if sawX {
		return Xes(1)
	}
	return bit1(parity == 1)
}

// ReduceXnor is the complement of ReduceXor.
func (v Vec3) ReduceXnor() Vec3 { return v.ReduceXor().Not() }

// ToHex renders a normalized hex dump, lowest nibble last.
func (v Vec3) ToHex() string {
	n := v.Clone()
	n.Normalize()
	var out []byte
	bit := uint32(0)
	k := 0
	for bit < n.Bits {
		a := n.A[k]
		x := n.A[k] ^ n.B[k]
		k++
		for b := 0; b < 8 && bit < n.Bits; b++ {
			if x&(0xf<<(4*uint32(b))) != 0 {
				out = append(out, 'x')
			} else {
				out = append(out, "0123456789abcdef"[(a>>(4*uint32(b)))&0xf])
			}
			bit += 4
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// ToArray expands v into one tri-state value per bit: -1 low, 0 undefined,
// 1 high, ordered from the least significant bit.
func (v Vec3) ToArray() []int32 {
	out := make([]int32, 0, v.Bits)
	for i := uint32(0); i < v.Bits; i++ {
		out = append(out, v.get(i))
	}
	return out
}

// ToBigInt interprets v as an unsigned magnitude. It fails if v is not
// fully defined.
func (v Vec3) ToBigInt() (*big.Int, error) {
	if !v.IsFullyDefined() {
		return nil, errors.New("bitvector: attempted to build a big integer from an undefined signal")
	}
	n := v.Clone()
	n.Normalize()
	out := new(big.Int)
	word := new(big.Int)
	for i := len(n.A) - 1; i >= 0; i-- {
		out.Lsh(out, 32)
		word.SetUint64(uint64(n.A[i]))
		out.Or(out, word)
	}
	return out, nil
}

// FromBigInt packs the unsigned magnitude of number into a width-bit,
// fully-defined vector, truncating high bits that do not fit.
func FromBigInt(number *big.Int, width uint32) Vec3 {
	n := Words(width)
	a := make([]uint32, n)
	tmp := new(big.Int).Set(number)
	mask := big.NewInt(0xffffffff)
	word := new(big.Int)
	for i := uint32(0); i < n; i++ {
		word.And(tmp, mask)
		a[i] = uint32(word.Uint64())
		tmp.Rsh(tmp, 32)
	}
	v := Vec3{Bits: width, A: a, B: append([]uint32(nil), a...)}
	v.Normalize()
	return v
}

// FromNumber packs an unsigned, fully-defined value into a width-bit vector.
func FromNumber(number uint32, width uint32) Vec3 {
	v := Vec3{Bits: width, A: []uint32{number}, B: []uint32{number}}
	v.Normalize()
	return v
}

// FromHex decodes a hex string, most significant nibble first. If length is
// nil the width is inferred as 4 bits per hex digit.
func FromHex(data string, length *uint32) (Vec3, error) {
	width := uint32(len(data)) * 4
	if length != nil {
		width = *length
	}
	n := Words(width)
	words, err := packRadix(data, 16, 8)
	if err != nil {
		return Vec3{}, fmt.Errorf("bitvector: %w", err)
	}
	words = resize(words, int(n))
	return Vec3{Bits: width, A: words, B: append([]uint32(nil), words...)}, nil
}

// FromBinary decodes a binary string, most significant bit first. Any "x"
// character makes the whole vector undefined, matching the source format's
// all-or-nothing treatment of an unknown literal.
func FromBinary(data string, length *uint32) (Vec3, error) {
	width := uint32(len(data))
	if length != nil {
		width = *length
	}
	if strings.ContainsRune(data, 'x') {
		return Xes(width), nil
	}
	n := Words(width)
	words, err := packRadix(data, 2, 32)
	if err != nil {
		return Vec3{}, fmt.Errorf("bitvector: %w", err)
	}
	words = resize(words, int(n))
	return Vec3{Bits: width, A: words, B: append([]uint32(nil), words...)}, nil
}

// packRadix reverses data, chunks it chunkSize characters at a time (least
// significant chunk first), and parses each chunk as a base-radix integer.
func packRadix(data string, radix int, chunkSize int) ([]uint32, error) {
	rev := []byte(data)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	var out []uint32
	for i := 0; i < len(rev); i += chunkSize {
		end := i + chunkSize
		if end > len(rev) {
			end = len(rev)
		}
		chunk := append([]byte(nil), rev[i:end]...)
		for a, b := 0, len(chunk)-1; a < b; a, b = a+1, b-1 {
			chunk[a], chunk[b] = chunk[b], chunk[a]
		}
		w, err := parseUint32(string(chunk), radix)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func parseUint32(s string, radix int) (uint32, error) {
	verb := "%x"
	if radix == 2 {
		verb = "%b"
	}
	var v uint64
	if _, err := fmt.Sscanf(s, verb, &v); err != nil {
		return 0, fmt.Errorf("invalid base-%d literal %q: %w", radix, s, err)
	}
	return uint32(v), nil
}

func resize(words []uint32, n int) []uint32 {
	if len(words) >= n {
		return words[:n]
	}
	out := make([]uint32, n)
	copy(out, words)
	return out
}

// Normalize clears the bits beyond the vector's width in its last word, so
// equality and hex rendering ignore padding garbage.
func (v *Vec3) Normalize() {
	mask := v.lastmask()
	v.A[len(v.A)-1] &= mask
	v.B[len(v.B)-1] &= mask
}

func (v Vec3) lastmask() uint32 {
	if bitnum(v.Bits) == 0 {
		return ^uint32(0)
	}
	return ^uint32(0) >> (32 - bitnum(v.Bits))
}

// Equal reports whether x and y carry the same width and the same raw word
// vectors. Callers comparing vectors built from different arithmetic should
// normalize both sides first.
func (x Vec3) Equal(y Vec3) bool {
	if x.Bits != y.Bits || len(x.A) != len(y.A) || len(x.B) != len(y.B) {
		return false
	}
	for i := range x.A {
		if x.A[i] != y.A[i] || x.B[i] != y.B[i] {
			return false
		}
	}
	return true
}
