// Package instr catalogs IR and platform instruction descriptors: arity,
// flow-control kind, flag effects, memory-access class, and encoders
// (spec.md §4.1). The registry is built once at process start by each
// platform package and treated as read-only afterward, mirroring the
// teacher's (vovakirdan-surge) instruction-ID-plus-struct pattern used for
// MIR opcodes in internal/mir/instr.go.
package instr

// Opcode identifies an instruction descriptor. Platform packages allocate
// their own disjoint Opcode ranges (see internal/platform/*).
type Opcode uint16

// FlowKind classifies how control leaves a node carrying this opcode.
type FlowKind uint8

const (
	FlowFallThrough FlowKind = iota
	FlowBranch
	FlowConditionalBranch
	FlowReturn
	FlowSwitch
)

// MemAccess classifies the memory side effect of an instruction.
type MemAccess uint8

const (
	MemNone MemAccess = iota
	MemRead
	MemWrite
	MemReadWrite
)

// Flag identifies one condition-code flag.
type Flag uint8

const (
	FlagZero Flag = 1 << iota
	FlagCarry
	FlagSign
	FlagOverflow
	FlagParity
)

// FlagEffect records which flags an instruction reads and which it
// (re)defines.
type FlagEffect struct {
	Reads    Flag
	Modifies Flag
}

// EncoderKind records which of the two-tier encoder forms spec.md §4.1
// describes a descriptor supports. The actual encoding is done by each
// platform's Platform.Encode (internal/platform/*), switching on Opcode —
// keeping it out of this package avoids a layering cycle (encoders need
// both instr and ir; instr must not need ir).
type EncoderKind uint8

const (
	// EncoderNone means the opcode never reaches emission directly (e.g.
	// IR-level ops replaced during platform lowering).
	EncoderNone EncoderKind = iota
	// EncoderLegacy means a fixed operand-order byte pattern encodes it.
	EncoderLegacy
	// EncoderGeneral means it needs the modR/M/SIB/REX emitter table.
	EncoderGeneral
)

// Descriptor is the catalog entry for one opcode: stable identity plus the
// shape and semantics every node using this opcode must respect.
type Descriptor struct {
	ID   Opcode
	Name string

	// DefaultResultCount/DefaultOperandCount fix the arity contract
	// (spec.md §4.1 "arity(opcode) = (rc, oc) is constant").
	DefaultResultCount  int
	DefaultOperandCount int

	Flow       FlowKind
	Flags      FlagEffect
	Mem        MemAccess
	ThreeToTwo bool // needs three-to-two-address conversion before platform lowering

	// Opposite is the inverted conditional opcode, or 0 (invalid) when
	// this opcode has none. opposite(opposite(x)) == x is a registry
	// invariant checked by Freeze.
	Opposite Opcode

	Encoding EncoderKind
}

// Table is a read-only, process-wide instruction registry. Each platform
// builds its own Table at init time via NewTable + Register calls, then
// never mutates it again — the same immutable-after-init discipline the
// teacher applies to its interned symbol/type tables.
type Table struct {
	byID map[Opcode]*Descriptor
}

// NewTable creates an empty, mutable-until-frozen instruction table.
func NewTable() *Table {
	return &Table{byID: make(map[Opcode]*Descriptor, 128)}
}

// Register adds a descriptor. It panics on a duplicate ID — a
// process-start bug, not a runtime condition. Opposite pairings are
// validated later, by Freeze.
func (t *Table) Register(d Descriptor) {
	if _, exists := t.byID[d.ID]; exists {
		panic("instr: duplicate opcode registration")
	}
	t.byID[d.ID] = &d
}

// Freeze validates every registered Opposite pairing is involutive and
// returns the table for chaining.
func (t *Table) Freeze() *Table {
	for id, d := range t.byID {
		if d.Opposite == 0 {
			continue
		}
		opp, ok := t.byID[d.Opposite]
		if !ok {
			panic("instr: opposite references unknown opcode")
		}
		if opp.Opposite != id {
			panic("instr: opposite pairing is not involutive")
		}
	}
	return t
}

// Lookup returns the descriptor for an opcode.
func (t *Table) Lookup(op Opcode) (*Descriptor, bool) {
	d, ok := t.byID[op]
	return d, ok
}

// Arity returns the constant (resultCount, operandCount) for an opcode.
func (t *Table) Arity(op Opcode) (int, int, bool) {
	d, ok := t.byID[op]
	if !ok {
		return 0, 0, false
	}
	return d.DefaultResultCount, d.DefaultOperandCount, true
}

// Opposite returns the inverted conditional opcode, if any.
func (t *Table) Opposite(op Opcode) (Opcode, bool) {
	d, ok := t.byID[op]
	if !ok || d.Opposite == 0 {
		return 0, false
	}
	return d.Opposite, true
}
