// Package cell implements the cell library of spec §4.2: one evaluator per
// gate family, each a small struct carrying its typed parameters (and, for
// sequential cells, its persistent state) and exposing a single Eval method.
// This mirrors the teacher's "sum type as one-struct-per-variant, evaluator
// as a method" guidance (spec §9) in place of the original Rust
// Operation enum's match dispatch (original_source/srcRust/operations.rs).
package cell

import (
	"log/slog"

	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/errs"
)

// Inputs is the named-port input snapshot a cell is evaluated against.
type Inputs map[string]bitvector.Vec3

// Result is the value(s) a cell evaluation produces: operations.rs's
// ReturnValue, translated field-for-field. Out is the single "out" port
// value most combinational cells return; Others carries any additional
// named output ports (memory read ports, bus-ungroup fan-out); Clock marks
// that the scheduler must re-enqueue the gate (only the Clock cell sets it).
type Result struct {
	Out    *bitvector.Vec3
	Others map[string]bitvector.Vec3
	Clock  bool

	// MemWrites records the (address, value) pairs a Memory cell actually
	// changed this evaluation, so the engine can drive the host's
	// triggerMemoryUpdate callback (spec §6) without the cell package
	// depending on the engine/api packages.
	MemWrites []MemWrite
}

// MemWrite is one memory-array write a Memory cell's evaluation performed.
type MemWrite struct {
	Addr  int32
	Value bitvector.Vec3
}

// outResult is a convenience constructor for the common single-"out" case.
func outResult(v bitvector.Vec3) (Result, error) {
	return Result{Out: &v}, nil
}

// Cell is implemented by every gate family's evaluator.
type Cell interface {
	Eval(in Inputs) (Result, error)
}

func need(in Inputs, port, cellType string) (bitvector.Vec3, error) {
	v, ok := in[port]
	if !ok {
		return bitvector.Vec3{}, errs.New(errs.MissingInput, cellType+".Eval", "missing required input %q", port)
	}
	return v, nil
}

func missingAnyInput(cellType string) error {
	return errs.New(errs.MissingInput, cellType+".Eval", "no input values")
}

// New builds the Cell for a gate's declared type and parameters, mirroring
// operations.rs's Operation::from_name dispatch.
func New(p Params) (Cell, error) {
	switch p.Type {
	case "Repeater":
		return &Unary{Op: func(v bitvector.Vec3) bitvector.Vec3 { return v }}, nil
	case "Not":
		return &Unary{Op: bitvector.Vec3.Not}, nil

	case "And":
		return &NAry{Op: bitvector.Vec3.And}, nil
	case "Or":
		return &NAry{Op: bitvector.Vec3.Or}, nil
	case "Xor":
		return &NAry{Op: bitvector.Vec3.Xor}, nil
	case "Nand":
		return &NAry{Op: bitvector.Vec3.Nand}, nil
	case "Nor":
		return &NAry{Op: bitvector.Vec3.Nor}, nil
	case "Xnor":
		return &NAry{Op: bitvector.Vec3.Xnor}, nil

	case "AndReduce":
		return &Reduce{Op: bitvector.Vec3.ReduceAnd}, nil
	case "OrReduce":
		return &Reduce{Op: bitvector.Vec3.ReduceOr}, nil
	case "XorReduce":
		return &Reduce{Op: bitvector.Vec3.ReduceXor}, nil
	case "NandReduce":
		return &Reduce{Op: bitvector.Vec3.ReduceNand}, nil
	case "NorReduce":
		return &Reduce{Op: bitvector.Vec3.ReduceNor}, nil
	case "XnorReduce":
		return &Reduce{Op: bitvector.Vec3.ReduceXnor}, nil

	case "ZeroExtend":
		return &Extend{OutWidth: p.Extend.Output, Sign: false}, nil
	case "SignExtend":
		return &Extend{OutWidth: p.Extend.Output, Sign: true}, nil

	case "BusSlice":
		return &BusSlice{First: p.Slice.First, Count: p.Slice.Count}, nil
	case "BusGroup":
		return &BusGroup{}, nil
	case "BusUngroup":
		sizes := p.Groups
		if len(sizes) == 0 {
			sizes = []uint32{1}
		}
		return &BusUngroup{Sizes: sizes}, nil

	case "Constant":
		lit := p.ConstantStr
		if lit == "" {
			lit = "0"
		}
		var v bitvector.Vec3
		var err error
		if p.Numbase == 16 {
			v, err = bitvector.FromHex(lit, nil)
		} else {
			v, err = bitvector.FromBinary(lit, nil)
		}
		if err != nil {
			return nil, errs.New(errs.UnsupportedEncoding, "Constant", "%v", err)
		}
		return &Constant{Value: v}, nil
	case "Clock":
		return &Clock{}, nil

	case "Dff":
		return NewDff(p), nil
	case "FSM":
		return NewFSM(p)

	case "Lt":
		return &Comp{Op: ltOp, Sign: p.Sign}, nil
	case "Le":
		return &Comp{Op: leOp, Sign: p.Sign}, nil
	case "Gt":
		return &Comp{Op: gtOp, Sign: p.Sign}, nil
	case "Ge":
		return &Comp{Op: geOp, Sign: p.Sign}, nil
	case "Eq":
		return &Comp{Op: eqOp, Sign: p.Sign}, nil
	case "Ne":
		return &Comp{Op: neOp, Sign: p.Sign}, nil

	case "LtConst":
		return &CompConst{Op: ltOp, Const: p.ConstantNum, LeftOp: p.LeftOp, Sign: p.Sign.In}, nil
	case "LeConst":
		return &CompConst{Op: leOp, Const: p.ConstantNum, LeftOp: p.LeftOp, Sign: p.Sign.In}, nil
	case "GtConst":
		return &CompConst{Op: gtOp, Const: p.ConstantNum, LeftOp: p.LeftOp, Sign: p.Sign.In}, nil
	case "GeConst":
		return &CompConst{Op: geOp, Const: p.ConstantNum, LeftOp: p.LeftOp, Sign: p.Sign.In}, nil
	case "EqConst":
		return &CompConst{Op: eqOp, Const: p.ConstantNum, LeftOp: p.LeftOp, Sign: p.Sign.In}, nil
	case "NeConst":
		return &CompConst{Op: neOp, Const: p.ConstantNum, LeftOp: p.LeftOp, Sign: p.Sign.In}, nil

	case "Negation":
		return &ArithMonop{Op: negationOp, BitsOut: outBits(p)}, nil
	case "UnaryPlus":
		return &ArithMonop{Op: unaryPlusOp, BitsOut: outBits(p)}, nil

	case "Addition":
		return &ArithBinop{Op: addOp, BitsOut: outBits(p), Sign: p.Sign}, nil
	case "Subtraction":
		return &ArithBinop{Op: subOp, BitsOut: outBits(p), Sign: p.Sign}, nil
	case "Multiplication":
		return &ArithBinop{Op: mulOp, BitsOut: outBits(p), Sign: p.Sign}, nil
	case "Division":
		return &ArithBinop{Op: divOp, BitsOut: outBits(p), Sign: p.Sign}, nil
	case "Modulo":
		return &ArithBinop{Op: modOp, BitsOut: outBits(p), Sign: p.Sign}, nil
	case "Power":
		return &ArithBinop{Op: powOp, BitsOut: outBits(p), Sign: p.Sign}, nil
	case "ShiftLeft":
		return &ArithShift{Op: shlOp, Opposite: shrOp, BitsOut: outBits(p), Sign: p.Sign}, nil
	case "ShiftRight":
		return &ArithShift{Op: shrOp, Opposite: shlOp, BitsOut: outBits(p), Sign: p.Sign}, nil

	case "AdditionConst":
		return &ArithConst{Op: addOp, Const: p.ConstantNum, LeftOp: p.LeftOp, BitsOut: outBits(p), Sign: p.Sign.In}, nil
	case "SubtractionConst":
		return &ArithConst{Op: subOp, Const: p.ConstantNum, LeftOp: p.LeftOp, BitsOut: outBits(p), Sign: p.Sign.In}, nil
	case "MultiplicationConst":
		return &ArithConst{Op: mulOp, Const: p.ConstantNum, LeftOp: p.LeftOp, BitsOut: outBits(p), Sign: p.Sign.In}, nil
	case "DivisionConst":
		return &ArithConst{Op: divOp, Const: p.ConstantNum, LeftOp: p.LeftOp, BitsOut: outBits(p), Sign: p.Sign.In}, nil
	case "ModuloConst":
		return &ArithConst{Op: modOp, Const: p.ConstantNum, LeftOp: p.LeftOp, BitsOut: outBits(p), Sign: p.Sign.In}, nil
	case "PowerConst":
		return &ArithConst{Op: powOp, Const: p.ConstantNum, LeftOp: p.LeftOp, BitsOut: outBits(p), Sign: p.Sign.In}, nil
	case "ShiftLeftConst":
		return &ArithShiftConst{Op: shlOp, Opposite: shrOp, Const: p.ConstantNum, LeftOp: p.LeftOp, BitsOut: outBits(p), Sign: p.Sign.In}, nil
	case "ShiftRightConst":
		return &ArithShiftConst{Op: shrOp, Opposite: shlOp, Const: p.ConstantNum, LeftOp: p.LeftOp, BitsOut: outBits(p), Sign: p.Sign.In}, nil

	case "Mux":
		return &Mux{DataBits: p.Bits.In, Kind: MuxBinary}, nil
	case "Mux1Hot":
		return &Mux{DataBits: p.Bits.In, Kind: MuxOneHot}, nil
	case "MuxSparse":
		return NewMuxSparse(p), nil

	case "Memory":
		return NewMemory(p), nil

	case "NumEntry", "NumDisplay", "Button", "Lamp", "Input", "Output", "Subcircuit":
		return &NoOp{}, nil

	default:
		slog.Warn("cell: unknown cell type requested", "type", p.Type)
		return nil, errs.New(errs.UnknownCellType, "New", "unknown cell type %q", p.Type)
	}
}

func outBits(p Params) uint32 {
	if p.Bits.Out != 0 {
		return p.Bits.Out
	}
	return 1
}

// NoOp is the evaluator for cell types the engine, not the library, drives
// (Input/Output/Button/Lamp/NumEntry/NumDisplay/Subcircuit). The scheduler
// does evaluate these gates when they are queued (AddGate queues every new
// gate), and the empty Result leaves their outputs untouched: their outputs
// change only via host commands such as ChangeInput and
// set_gate_input_signal's special-casing (spec §4.3). It exists so New
// never needs a nil Cell for a valid type.
type NoOp struct{}

// Eval returns no outputs.
func (NoOp) Eval(Inputs) (Result, error) { return Result{}, nil }
