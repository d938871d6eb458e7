// Package ir implements the platform-independent operand and basic-block
// graph (spec.md §3, §4.2): nodes in a doubly-linked per-block list, and
// operands carrying type, residence, and SSA version. Modeled on the
// teacher's (vovakirdan-surge) internal/mir package — Func/Block/Instr/
// Operand/Place — generalized from its fixed MIR instruction set to an
// opcode-table-driven node shape per spec.md §4.1/§4.2.
package ir

import "mosa/internal/typesys"

// Residence distinguishes where an operand's value lives.
type Residence uint8

const (
	ResConstant Residence = iota
	ResVirtualRegister
	ResCPURegister
	ResStackLocal
	ResSymbol
)

// ConstKind distinguishes constant operand payloads.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstNull
	ConstSymbol
)

// VRegID identifies a virtual register, unique within one method.
type VRegID uint32

// NoVReg marks the absence of a virtual register.
const NoVReg VRegID = 0

// StackSlotID identifies a method-scoped stack local.
type StackSlotID uint32

// CPURegID identifies a physical register; platform packages define their
// own numbering and register files.
type CPURegID uint16

// NoCPUReg marks "no physical register assigned yet".
const NoCPUReg CPURegID = 0

// VReg is the pre-SSA virtual register entry: every SSA-versioned Operand
// with Residence == ResVirtualRegister points back at one via Parent,
// per spec.md §3 "Operand ... SSA version".
type VReg struct {
	ID   VRegID
	Type typesys.TypeID
}

// Operand is a tagged value: constant, virtual register (optionally
// SSA-versioned), CPU register, stack-local, or linker symbol. Spec.md §3:
// "Two operands are identity-equal iff they refer to the same underlying
// slot."
type Operand struct {
	Residence Residence
	Type      typesys.TypeID

	// Constant payload (Residence == ResConstant).
	ConstKind ConstKind
	IntValue  int64
	FloatBits uint64 // IEEE-754 double bit pattern regardless of Type; narrowed to single precision at the point of use (e.g. x86's movss)
	Symbol    string

	// Virtual register payload (Residence == ResVirtualRegister).
	VReg VRegID
	// SSAVersion > 0 marks this operand as a specific SSA definition of
	// VReg; version 0 means "the pre-SSA value" (spec.md §3).
	SSAVersion int32
	// SSAParent is the non-SSA virtual register this SSA operand was
	// renamed from. Valid only when SSAVersion > 0.
	SSAParent VRegID

	// CPU register payload (Residence == ResCPURegister).
	CPUReg CPURegID

	// Stack-local payload (Residence == ResStackLocal).
	Slot StackSlotID
}

// IsSSA reports whether this operand is an SSA-versioned virtual register.
func (o Operand) IsSSA() bool {
	return o.Residence == ResVirtualRegister && o.SSAVersion > 0
}

// Same reports identity equality: same underlying slot, per spec.md §3.
func (o Operand) Same(other Operand) bool {
	if o.Residence != other.Residence {
		return false
	}
	switch o.Residence {
	case ResVirtualRegister:
		return o.VReg == other.VReg && o.SSAVersion == other.SSAVersion
	case ResCPURegister:
		return o.CPUReg == other.CPUReg
	case ResStackLocal:
		return o.Slot == other.Slot
	case ResSymbol:
		return o.Symbol == other.Symbol
	case ResConstant:
		return o.ConstKind == other.ConstKind && o.IntValue == other.IntValue &&
			o.FloatBits == other.FloatBits && o.Symbol == other.Symbol
	default:
		return false
	}
}

// VRegOperand builds a pre-SSA virtual-register operand.
func VRegOperand(id VRegID, t typesys.TypeID) Operand {
	return Operand{Residence: ResVirtualRegister, Type: t, VReg: id}
}

// SSAOperand builds an SSA-versioned virtual-register operand.
func SSAOperand(id VRegID, t typesys.TypeID, version int32, parent VRegID) Operand {
	return Operand{Residence: ResVirtualRegister, Type: t, VReg: id, SSAVersion: version, SSAParent: parent}
}

// IntConst builds an integer constant operand.
func IntConst(v int64, t typesys.TypeID) Operand {
	return Operand{Residence: ResConstant, Type: t, ConstKind: ConstInt, IntValue: v}
}

// SymbolOperand builds a linker-symbol operand.
func SymbolOperand(name string, t typesys.TypeID) Operand {
	return Operand{Residence: ResSymbol, Type: t, Symbol: name}
}
