// Package circuitfile loads a static circuit description (graphs, gates,
// links, subcircuit bindings) from a YAML document into a running
// engine.Engine. Grounded on core/program.go's YAMLCoreProgram/YAMLEntry
// loader shape: a top-level document struct nesting typed entry structs,
// decoded in one yaml.Unmarshal call, then walked to build the runtime
// types (there, core.Program entries; here, engine/graph commands).
package circuitfile

import "github.com/sarchlab/digitaljs/cell"

// Document is the top-level YAML structure a circuit file contains.
type Document struct {
	Graphs []GraphDoc `yaml:"graphs"`
}

// GraphDoc describes one graph: its gates, links, and any subcircuit
// bindings among them.
type GraphDoc struct {
	ID          string           `yaml:"id"`
	Observed    bool             `yaml:"observed"`
	Gates       []GateDoc        `yaml:"gates"`
	Links       []LinkDoc        `yaml:"links"`
	Subcircuits []SubcircuitDoc  `yaml:"subcircuits"`
}

// PortDoc describes one port of a gate: id, direction ("in"/"out"), width.
type PortDoc struct {
	ID    string `yaml:"id"`
	Dir   string `yaml:"dir"`
	Width uint32 `yaml:"width"`
}

// GateDoc describes one gate: its cell type, declared ports, and
// type-specific parameters (spec §6's gate-parameters payload).
type GateDoc struct {
	ID          string     `yaml:"id"`
	Type        string     `yaml:"type"`
	Label       string     `yaml:"label"`
	Net         string     `yaml:"net"`
	Propagation uint32     `yaml:"propagation"`
	Ports       []PortDoc  `yaml:"ports"`
	Params      ParamsDoc  `yaml:"params"`
}

// LinkDoc connects one gate's output port to another gate's input port.
type LinkDoc struct {
	ID     string `yaml:"id"`
	FromID string `yaml:"from_id"`
	FromPort string `yaml:"from_port"`
	ToID   string `yaml:"to_id"`
	ToPort string `yaml:"to_port"`
}

// SubcircuitDoc binds a subgraph as one gate's hierarchical body.
type SubcircuitDoc struct {
	GateID    string         `yaml:"gate_id"`
	SubgraphID string        `yaml:"subgraph_id"`
	IOMap     []IOMapEntryDoc `yaml:"iomap"`
}

// IOMapEntryDoc binds one host-side port to the subgraph boundary cell id
// that mirrors it.
type IOMapEntryDoc struct {
	Port string `yaml:"port"`
	IOID string `yaml:"io_id"`
}

// BitsDoc is the "bits" parameter object, either a single shared width or
// one width per logical bus.
type BitsDoc struct {
	In  uint32 `yaml:"in"`
	Out uint32 `yaml:"out"`
	Sel uint32 `yaml:"sel"`
}

// SignDoc records which operands of an arithmetic cell are signed.
type SignDoc struct {
	In1 bool `yaml:"in1"`
	In2 bool `yaml:"in2"`
	In  bool `yaml:"in"`
}

// SliceDoc parametrizes BusSlice.
type SliceDoc struct {
	First uint32 `yaml:"first"`
	Count uint32 `yaml:"count"`
	Total uint32 `yaml:"total"`
}

// ExtendDoc parametrizes ZeroExtend/SignExtend.
type ExtendDoc struct {
	Input  uint32 `yaml:"input"`
	Output uint32 `yaml:"output"`
}

// PolarityDoc carries the optional per-signal active-level flags a
// sequential cell's parameters may define.
type PolarityDoc struct {
	Clock  *bool `yaml:"clock"`
	Enable *bool `yaml:"enable"`
	Clr    *bool `yaml:"clr"`
	Set    *bool `yaml:"set"`
	Arst   *bool `yaml:"arst"`
	Aload  *bool `yaml:"aload"`
}

// TransitionDoc is one row of an FSM's transition table, its control
// signals given as binary literal strings.
type TransitionDoc struct {
	StateIn  uint32 `yaml:"state_in"`
	CtrlIn   string `yaml:"ctrl_in"`
	CtrlOut  string `yaml:"ctrl_out"`
	StateOut uint32 `yaml:"state_out"`
}

// MemPortDoc is one read or write port's polarity/feature configuration on
// a Memory cell.
type MemPortDoc struct {
	Enable      *bool  `yaml:"enable"`
	Clock       *bool  `yaml:"clock"`
	Transparent *bool  `yaml:"transparent"`
	Collision   *bool  `yaml:"collision"`
	Srst        *bool  `yaml:"srst"`
	SrstValue   string `yaml:"srst_value"`
	Arst        *bool  `yaml:"arst"`
	ArstValue   string `yaml:"arst_value"`
}

// MemWordDoc is one memdata entry: either a single literal, or — the
// original digitaljs's repeat-run form (SPEC_FULL.md §D.4) — a literal
// repeated Count times when Count > 0.
type MemWordDoc struct {
	Literal string `yaml:"literal"`
	Count   int    `yaml:"count"`
}

// ParamsDoc is the YAML shape of a gate's type-specific parameters,
// flattened the way cell.Params is; expandParams converts it.
type ParamsDoc struct {
	Bits      BitsDoc     `yaml:"bits"`
	ArstValue string      `yaml:"arst_value"`
	Polarity  PolarityDoc `yaml:"polarity"`
	LeftOp    bool        `yaml:"left_op"`
	Sign      SignDoc     `yaml:"sign"`

	Constant string `yaml:"constant"`
	Numbase  int    `yaml:"numbase"`

	ConstantNum int32 `yaml:"constant_num"`

	Abits   uint32        `yaml:"abits"`
	Offset  uint32        `yaml:"offset"`
	Words   uint32        `yaml:"words"`
	MemData []MemWordDoc  `yaml:"memdata"`
	RdPorts []MemPortDoc  `yaml:"rdports"`
	WrPorts []MemPortDoc  `yaml:"wrports"`

	Inputs []string `yaml:"inputs"`

	InitState uint32          `yaml:"init_state"`
	Trans     []TransitionDoc `yaml:"trans_table"`

	Slice  SliceDoc  `yaml:"slice"`
	Extend ExtendDoc `yaml:"extend"`
	Groups []uint32  `yaml:"groups"`
}

// cellPolarity converts a PolarityDoc to cell.Polarity, field for field.
func (p PolarityDoc) cellPolarity() cell.Polarity {
	return cell.Polarity{
		Clock:  p.Clock,
		Enable: p.Enable,
		Clr:    p.Clr,
		Set:    p.Set,
		Arst:   p.Arst,
		Aload:  p.Aload,
	}
}
