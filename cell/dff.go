package cell

import "github.com/sarchlab/digitaljs/bitvector"

func pol(active bool) int32 {
	if active {
		return 1
	}
	return -1
}

// Dff implements the Dff cell: a clocked register with optional
// enable/set/clr/arst/aload inputs. It carries the persistent state
// (current output, last-seen clock level) the original's DffState struct
// does. Grounded on cell_dff.rs's DffState/dff.
//
// When Polarity.Clock is nil and Polarity.Enable is set, the main update
// block below runs unconditionally every tick and gates entirely on enable
// — which already makes it a level-sensitive transparent latch rather than
// an edge-triggered register, matching spec §9's Open Question resolution
// for this case.
type Dff struct {
	Bits      uint32
	ArstValue string
	Polarity  Polarity

	lastClk int32
	out     bitvector.Vec3
}

// NewDff builds a Dff evaluator, its output initialized to all-X like a
// freshly reset register.
func NewDff(p Params) *Dff {
	bits := outBits(p)
	return &Dff{
		Bits:      bits,
		ArstValue: p.ArstValue,
		Polarity:  p.Polarity,
		out:       bitvector.Xes(bits),
	}
}

func (d *Dff) applySR(v bitvector.Vec3, srbits, srbitmask *bitvector.Vec3) (Result, error) {
	if srbits == nil {
		return outResult(v)
	}
	masked, err := v.And(*srbitmask)
	if err != nil {
		return Result{}, err
	}
	out, err := masked.Or(*srbits)
	if err != nil {
		return Result{}, err
	}
	return outResult(out)
}

// Eval advances the register by one evaluation, matching cell_dff.rs's dff
// function's branch order: arst, then aload, then set/clr mask
// accumulation, then the clock-edge-gated (or level-gated) latch, with the
// set/clr mask reapplied to whatever value is about to be returned.
func (d *Dff) Eval(in Inputs) (Result, error) {
	lclk := int32(1)
	var srbits, srbitmask *bitvector.Vec3

	if d.Polarity.Clock != nil {
		lclk = d.lastClk
		clk, err := need(in, "clk", "Dff")
		if err != nil {
			return Result{}, err
		}
		d.lastClk = clk.Lsb()
	}

	if d.Polarity.Arst != nil {
		arst, err := need(in, "arst", "Dff")
		if err != nil {
			return Result{}, err
		}
		if arst.Lsb() == pol(*d.Polarity.Arst) {
			v, err := bitvector.FromBinary(d.ArstValue, &d.Bits)
			if err != nil {
				return Result{}, err
			}
			d.out = v
			return d.applySR(d.out, srbits, srbitmask)
		}
	}

	if d.Polarity.Aload != nil {
		aload, err := need(in, "aload", "Dff")
		if err != nil {
			return Result{}, err
		}
		if aload.Lsb() == pol(*d.Polarity.Aload) {
			ain, err := need(in, "ain", "Dff")
			if err != nil {
				return Result{}, err
			}
			return outResult(ain)
		}
	}

	if d.Polarity.Set != nil {
		dataSet, err := need(in, "set", "Dff")
		if err != nil {
			return Result{}, err
		}
		notSet := dataSet.Not()
		if *d.Polarity.Set {
			srbits, srbitmask = &dataSet, &notSet
		} else {
			srbits, srbitmask = &notSet, &dataSet
		}
	}

	if d.Polarity.Clr != nil {
		if srbits == nil {
			z := bitvector.Zeros(1)
			srbits = &z
		}
		clrRaw, err := need(in, "clr", "Dff")
		if err != nil {
			return Result{}, err
		}
		clrbitmask := clrRaw
		if *d.Polarity.Clr {
			clrbitmask = clrRaw.Not()
		}
		if srbitmask != nil {
			m, err := clrbitmask.And(*srbitmask)
			if err != nil {
				return Result{}, err
			}
			srbitmask = &m
		} else {
			srbitmask = &clrbitmask
		}
	}

	clockCond := d.Polarity.Clock == nil
	if !clockCond {
		clk, err := need(in, "clk", "Dff")
		if err != nil {
			return Result{}, err
		}
		clockCond = clk.Lsb() == pol(*d.Polarity.Clock) && lclk == -pol(*d.Polarity.Clock)
	}
	if clockCond {
		if d.Polarity.Enable != nil {
			en, err := need(in, "en", "Dff")
			if err != nil {
				return Result{}, err
			}
			if en.Lsb() == pol(*d.Polarity.Enable) {
				din, err := need(in, "in", "Dff")
				if err != nil {
					return Result{}, err
				}
				d.out = din
			}
		} else {
			din, err := need(in, "in", "Dff")
			if err != nil {
				return Result{}, err
			}
			d.out = din
		}
	}

	return d.applySR(d.out, srbits, srbitmask)
}
