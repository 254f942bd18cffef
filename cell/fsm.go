package cell

import (
	"github.com/sarchlab/digitaljs/bitvector"
	"github.com/sarchlab/digitaljs/errs"
)

// FSM implements the FSM cell: a clocked state register plus a transition
// table keyed by source state, matched by wildcard-masked equality against
// "in". Grounded on cell_fsm.rs's FsmState/fsm.
type FSM struct {
	BitsOut   uint32
	Polarity  Polarity
	InitState uint32
	ByState   map[uint32][]namedTransition

	currentState uint32
	lastClk      int32
	lastTrans    string
}

type namedTransition struct {
	ID string
	Transition
}

// NewFSM builds an FSM evaluator. It requires a clock and async-reset
// polarity, mirroring the required-field checks of cell_fsm.rs's
// FsmState::new; the output width defaults to 1 when unset.
func NewFSM(p Params) (Cell, error) {
	if p.Polarity.Clock == nil {
		return nil, missingParam("FSM", "clock polarity")
	}
	if p.Polarity.Arst == nil {
		return nil, missingParam("FSM", "async reset polarity")
	}
	byState := make(map[uint32][]namedTransition, len(p.Trans))
	for i, t := range p.Trans {
		byState[t.StateIn] = append(byState[t.StateIn], namedTransition{
			ID:         "tr" + itoa(i),
			Transition: t,
		})
	}
	return &FSM{
		BitsOut:      outBits(p),
		Polarity:     p.Polarity,
		InitState:    p.InitState,
		ByState:      byState,
		currentState: p.InitState,
	}, nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// nextTrans finds the first transition out of state whose ctrl_in matches
// dataIn under its own xmask wildcard, mirroring cell_fsm.rs's next_trans.
func (f *FSM) nextTrans(state uint32, dataIn bitvector.Vec3) (*namedTransition, error) {
	for i, t := range f.ByState[state] {
		xmask := t.CtrlIn.Xmask()
		lhs, err := dataIn.Or(xmask)
		if err != nil {
			return nil, err
		}
		rhs, err := t.CtrlIn.Or(xmask)
		if err != nil {
			return nil, err
		}
		if lhs.Equal(rhs) {
			return &f.ByState[state][i], nil
		}
	}
	return nil, nil
}

// nextOutput AND-aggregates ctrl_out across every transition whose ctrl_in
// matches dataIn (under the combined wildcard of the transition and the
// input itself), mirroring cell_fsm.rs's next_output.
func (f *FSM) nextOutput(state uint32, dataIn bitvector.Vec3) (bitvector.Vec3, error) {
	ixmask := dataIn.Xmask()
	xes := bitvector.Xes(f.BitsOut)

	var results []bitvector.Vec3
	for _, t := range f.ByState[state] {
		mask, err := t.CtrlIn.Xmask().Or(ixmask)
		if err != nil {
			return bitvector.Vec3{}, err
		}
		lhs, err := dataIn.Or(mask)
		if err != nil {
			return bitvector.Vec3{}, err
		}
		rhs, err := t.CtrlIn.Or(mask)
		if err != nil {
			return bitvector.Vec3{}, err
		}
		if lhs.Equal(rhs) {
			results = append(results, t.CtrlOut)
		}
	}
	if len(results) == 0 {
		return xes, nil
	}

	acc := results[0]
	for _, r := range results[1:] {
		eqs0, err := r.Xnor(acc)
		if err != nil {
			return bitvector.Vec3{}, err
		}
		eqs, err := eqs0.Or(xes)
		if err != nil {
			return bitvector.Vec3{}, err
		}
		lhs, err := r.And(eqs)
		if err != nil {
			return bitvector.Vec3{}, err
		}
		rhsMask, err := xes.And(eqs.Xmask())
		if err != nil {
			return bitvector.Vec3{}, err
		}
		acc, err = lhs.Or(rhsMask)
		if err != nil {
			return bitvector.Vec3{}, err
		}
	}
	return acc, nil
}

// Eval advances the FSM's state register on a clock edge (or resets it on
// async reset) and recomputes the aggregated output for the resulting
// state.
func (f *FSM) Eval(in Inputs) (Result, error) {
	arst, err := need(in, "arst", "FSM")
	if err != nil {
		return Result{}, err
	}
	clk, err := need(in, "clk", "FSM")
	if err != nil {
		return Result{}, err
	}
	dataIn, err := need(in, "in", "FSM")
	if err != nil {
		return Result{}, err
	}

	f.lastTrans = ""
	if arst.Lsb() == pol(*f.Polarity.Arst) {
		f.currentState = f.InitState
	} else {
		lastClk := f.lastClk
		if clk.Lsb() == pol(*f.Polarity.Clock) && lastClk == -pol(*f.Polarity.Clock) {
			t, err := f.nextTrans(f.currentState, dataIn)
			if err != nil {
				return Result{}, err
			}
			if t != nil {
				f.currentState = t.StateOut
				f.lastTrans = t.ID
			} else {
				f.currentState = f.InitState
			}
		}
	}
	f.lastClk = clk.Lsb()

	out, err := f.nextOutput(f.currentState, dataIn)
	if err != nil {
		return Result{}, err
	}
	return outResult(out)
}

// CurrentState returns the FSM's state register, for the engine's
// triggerFSMCurrentStateChange host callback.
func (f *FSM) CurrentState() uint32 { return f.currentState }

// LastTransition returns the id ("trN") of the transition taken on the most
// recent Eval, or "" if none fired, for the engine's
// triggerFSMNextTransChange host callback.
func (f *FSM) LastTransition() string { return f.lastTrans }

func missingParam(cellType, field string) error {
	return errs.New(errs.ParamMissing, "New", "%s cell has no %s", cellType, field)
}
