package cell

import "github.com/sarchlab/digitaljs/bitvector"

// Polarity carries the optional per-signal active-level flags a sequential
// cell's parameters may define (spec §4.2 Dff, §4.2 Fsm, §4.2 Memory). A nil
// field means the corresponding signal does not exist on the gate.
type Polarity struct {
	Clock *bool
	Enable *bool
	Clr    *bool
	Set    *bool
	Arst   *bool
	Aload  *bool
}

// Sign records which operands of an arithmetic cell are signed.
type Sign struct {
	In1 bool
	In2 bool
	In  bool // used by the …Const family, which has a single data operand
}

// BitsSpec is the "bits" parameter object: a gate may declare a single width
// or, for multi-port cells, one width per logical bus (in/out/sel).
type BitsSpec struct {
	In  uint32
	Out uint32
	Sel uint32
}

// SliceSpec parametrizes BusSlice.
type SliceSpec struct {
	First, Count, Total uint32
}

// ExtendSpec parametrizes ZeroExtend/SignExtend.
type ExtendSpec struct {
	Input, Output uint32
}

// Transition is one row of an FSM's transition table.
type Transition struct {
	StateIn  uint32
	CtrlIn   bitvector.Vec3
	CtrlOut  bitvector.Vec3
	StateOut uint32
}

// MemPortPolarity is the per-port polarity struct of a Memory cell's read or
// write port (spec §4.2 Memory, §9 Open Questions on srst/arst).
type MemPortPolarity struct {
	Enable      *bool
	Clock       *bool
	Transparent *bool
	Collision   *bool
	Srst        *bool
	SrstValue   string
	Arst        *bool
	ArstValue   string
}

// MemWord is one pre-expanded initializer word for a Memory cell's contents,
// after circuitfile has expanded any (count, literal) repeat-run entries
// from the "memdata" payload field (SPEC_FULL.md §D.4).
type MemWord struct {
	Binary string
}

// Params is the gate-parameters payload of spec §6, flattened into one
// struct covering every cell type's fields. Fields not meaningful for a
// given Type are left zero.
type Params struct {
	Type        string
	Label       string
	Net         string
	Propagation uint32

	Bits     BitsSpec
	ArstValue string
	Polarity Polarity
	LeftOp   bool
	Sign     Sign

	// Constant gate: the literal string ("0/1/x" or hex via Numbase).
	ConstantStr string
	Numbase     int

	// …Const arithmetic family: the fixed i32 operand.
	ConstantNum int32

	Abits   uint32
	Offset  uint32
	Words   uint32
	MemData []MemWord
	RdPorts []MemPortPolarity
	WrPorts []MemPortPolarity

	// MuxSparse: each Inputs entry is a "hex=port" pair naming the input port
	// a selector hex string routes to.
	Inputs []string

	InitState uint32
	Trans     []Transition

	Slice  SliceSpec
	Extend ExtendSpec
	Groups []uint32
}
