package cell

import "github.com/sarchlab/digitaljs/bitvector"

// Unary evaluates a single-input, width-preserving gate (Not, Repeater).
// Grounded on original_source/srcRust/cell_gates.rs's gate_11.
type Unary struct {
	Op func(bitvector.Vec3) bitvector.Vec3
}

// Eval applies Op to the gate's one input port.
func (u *Unary) Eval(in Inputs) (Result, error) {
	v, err := firstValue(in, "Unary")
	if err != nil {
		return Result{}, err
	}
	return outResult(u.Op(v))
}

// NAry folds a binary logical op across every input port in insertion
// order (And/Or/Xor/Nand/Nor/Xnor). Grounded on cell_gates.rs's gate_x1.
// Go maps have no insertion order, so callers (graph.Gate) must present
// Inputs with a stable iteration contract; NAry itself sorts port names to
// keep evaluation deterministic regardless of map iteration order, matching
// spec §4.2's "must be deterministic" requirement for an associative fold.
type NAry struct {
	Op func(bitvector.Vec3, bitvector.Vec3) (bitvector.Vec3, error)
}

// Eval folds Op across all input ports in sorted-name order.
func (n *NAry) Eval(in Inputs) (Result, error) {
	names := sortedKeys(in)
	if len(names) == 0 {
		return Result{}, missingAnyInput("NAry")
	}
	acc := in[names[0]]
	for _, name := range names[1:] {
		var err error
		acc, err = n.Op(acc, in[name])
		if err != nil {
			return Result{}, err
		}
	}
	return outResult(acc)
}

// Reduce folds a single input's bits down to one bit (AndReduce, …).
// Grounded on cell_gates.rs's gate_reduce.
type Reduce struct {
	Op func(bitvector.Vec3) bitvector.Vec3
}

// Eval applies Op to the "in" port.
func (r *Reduce) Eval(in Inputs) (Result, error) {
	v, err := need(in, "in", "Reduce")
	if err != nil {
		return Result{}, err
	}
	return outResult(r.Op(v))
}

func firstValue(in Inputs, cellType string) (bitvector.Vec3, error) {
	names := sortedKeys(in)
	if len(names) == 0 {
		return bitvector.Vec3{}, missingAnyInput(cellType)
	}
	return in[names[0]], nil
}

func sortedKeys(in Inputs) []string {
	names := make([]string, 0, len(in))
	for k := range in {
		names = append(names, k)
	}
	// insertion sort is fine: port counts are tiny (a handful of fan-in).
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
