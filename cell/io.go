package cell

import "github.com/sarchlab/digitaljs/bitvector"

// Constant implements the Constant cell: a fixed value that never changes.
// Grounded on cell_io.rs's constant.
type Constant struct {
	Value bitvector.Vec3
}

// Eval always returns the same value.
func (c *Constant) Eval(Inputs) (Result, error) {
	return outResult(c.Value)
}

// Clock implements the Clock cell: a free-running source that flips its
// single output bit every evaluation and asks the scheduler to re-enqueue
// it (Result.Clock), so it keeps oscillating on its own without any input.
// Grounded on cell_io.rs's clock.
type Clock struct {
	state bool
}

// Eval toggles the clock and requests re-scheduling.
func (c *Clock) Eval(Inputs) (Result, error) {
	c.state = !c.state
	v := bitvector.NewBool(1, c.state)
	return Result{Out: &v, Clock: true}, nil
}
