package x86

import "mosa/internal/instr"

// Opcode range 1000-1999 is x86's disjoint slice of the global Opcode
// space (spec.md §4.1).
const (
	OpMovRR      instr.Opcode = 1000 // dst(reg) <- src(reg)
	OpMovRI32    instr.Opcode = 1001 // dst(reg) <- imm32
	OpLoadStack  instr.Opcode = 1002 // dst(reg) <- [ebp + stack-slot]
	OpStoreStack instr.Opcode = 1003 // [ebp + stack-slot] <- src(reg)

	OpAddRR instr.Opcode = 1004
	OpSubRR instr.Opcode = 1005
	OpAndRR instr.Opcode = 1006
	OpOrRR  instr.Opcode = 1007
	OpXorRR instr.Opcode = 1008
	OpImulRR instr.Opcode = 1009

	OpCmpRR   instr.Opcode = 1010
	OpCmpRI32 instr.Opcode = 1011

	OpShlRI8 instr.Opcode = 1012
	OpShlRCL instr.Opcode = 1013
	OpShrRI8 instr.Opcode = 1014
	OpShrRCL instr.Opcode = 1015

	OpNegR instr.Opcode = 1016
	OpNotR instr.Opcode = 1017

	OpPush instr.Opcode = 1018
	OpPop  instr.Opcode = 1019

	OpCallSymbol instr.Opcode = 1020
	OpCallReg    instr.Opcode = 1021
	OpRet        instr.Opcode = 1022
	OpJmp        instr.Opcode = 1023

	OpJe  instr.Opcode = 1030
	OpJne instr.Opcode = 1031
	OpJl  instr.Opcode = 1032
	OpJge instr.Opcode = 1033
	OpJle instr.Opcode = 1034
	OpJg  instr.Opcode = 1035
	OpJb  instr.Opcode = 1036
	OpJae instr.Opcode = 1037
	OpJbe instr.Opcode = 1038
	OpJa  instr.Opcode = 1039

	OpMovssRR instr.Opcode = 1040
	OpMovsdRR instr.Opcode = 1041
	OpAddssRR instr.Opcode = 1042
	OpSubssRR instr.Opcode = 1043
	OpMulssRR instr.Opcode = 1044
	OpDivssRR instr.Opcode = 1045
	OpAddsdRR instr.Opcode = 1046
	OpSubsdRR instr.Opcode = 1047
	OpMulsdRR instr.Opcode = 1048
	OpDivsdRR instr.Opcode = 1049

	OpNop instr.Opcode = 1050

	OpLoadMemOff  instr.Opcode = 1051 // dst(reg) <- [base(reg) + offset(imm32 const)]
	OpStoreMemOff instr.Opcode = 1052 // [base(reg) + offset(imm32 const)] <- src(reg)
)

// table is built once at package init and never mutated again (spec.md §9
// "Global mutable caches ... treat as immutable process-wide state with an
// explicit init step").
var table = buildTable()

func buildTable() *instr.Table {
	t := instr.NewTable()
	reg := func(id instr.Opcode, name string, rc, oc int, flow instr.FlowKind, mem instr.MemAccess) {
		t.Register(instr.Descriptor{ID: id, Name: name, DefaultResultCount: rc, DefaultOperandCount: oc, Flow: flow, Mem: mem, Encoding: instr.EncoderLegacy})
	}

	reg(OpMovRR, "mov", 1, 1, instr.FlowFallThrough, instr.MemNone)
	reg(OpMovRI32, "mov", 1, 1, instr.FlowFallThrough, instr.MemNone)
	reg(OpLoadStack, "mov", 1, 1, instr.FlowFallThrough, instr.MemRead)
	reg(OpStoreStack, "mov", 0, 2, instr.FlowFallThrough, instr.MemWrite)

	for id, name := range map[instr.Opcode]string{
		OpAddRR: "add", OpSubRR: "sub", OpAndRR: "and", OpOrRR: "or",
		OpXorRR: "xor", OpImulRR: "imul",
	} {
		flags := instr.FlagEffect{Modifies: instr.FlagZero | instr.FlagSign | instr.FlagCarry | instr.FlagOverflow}
		t.Register(instr.Descriptor{ID: id, Name: name, DefaultResultCount: 1, DefaultOperandCount: 1, Flow: instr.FlowFallThrough, Mem: instr.MemNone, Flags: flags, Encoding: instr.EncoderLegacy})
	}

	t.Register(instr.Descriptor{ID: OpCmpRR, Name: "cmp", DefaultResultCount: 0, DefaultOperandCount: 2, Flow: instr.FlowFallThrough, Mem: instr.MemNone, Flags: instr.FlagEffect{Modifies: instr.FlagZero | instr.FlagSign | instr.FlagCarry | instr.FlagOverflow}, Encoding: instr.EncoderLegacy})
	t.Register(instr.Descriptor{ID: OpCmpRI32, Name: "cmp", DefaultResultCount: 0, DefaultOperandCount: 2, Flow: instr.FlowFallThrough, Mem: instr.MemNone, Flags: instr.FlagEffect{Modifies: instr.FlagZero | instr.FlagSign | instr.FlagCarry | instr.FlagOverflow}, Encoding: instr.EncoderLegacy})

	reg(OpShlRI8, "shl", 1, 1, instr.FlowFallThrough, instr.MemNone)
	reg(OpShlRCL, "shl", 1, 1, instr.FlowFallThrough, instr.MemNone)
	reg(OpShrRI8, "shr", 1, 1, instr.FlowFallThrough, instr.MemNone)
	reg(OpShrRCL, "shr", 1, 1, instr.FlowFallThrough, instr.MemNone)

	reg(OpNegR, "neg", 1, 0, instr.FlowFallThrough, instr.MemNone)
	reg(OpNotR, "not", 1, 0, instr.FlowFallThrough, instr.MemNone)

	reg(OpPush, "push", 0, 1, instr.FlowFallThrough, instr.MemWrite)
	reg(OpPop, "pop", 1, 0, instr.FlowFallThrough, instr.MemRead)

	reg(OpCallSymbol, "call", 1, 1, instr.FlowFallThrough, instr.MemReadWrite)
	reg(OpCallReg, "call", 1, 1, instr.FlowFallThrough, instr.MemReadWrite)
	reg(OpRet, "ret", 0, 1, instr.FlowReturn, instr.MemNone)
	reg(OpJmp, "jmp", 0, 1, instr.FlowBranch, instr.MemNone)

	jcc := func(id, opp instr.Opcode, name string) {
		t.Register(instr.Descriptor{ID: id, Name: name, DefaultResultCount: 0, DefaultOperandCount: 1, Flow: instr.FlowConditionalBranch, Mem: instr.MemNone, Flags: instr.FlagEffect{Reads: instr.FlagZero | instr.FlagSign | instr.FlagCarry | instr.FlagOverflow}, Opposite: opp, Encoding: instr.EncoderLegacy})
	}
	jcc(OpJe, OpJne, "je")
	jcc(OpJne, OpJe, "jne")
	jcc(OpJl, OpJge, "jl")
	jcc(OpJge, OpJl, "jge")
	jcc(OpJle, OpJg, "jle")
	jcc(OpJg, OpJle, "jg")
	jcc(OpJb, OpJae, "jb")
	jcc(OpJae, OpJb, "jae")
	jcc(OpJbe, OpJa, "jbe")
	jcc(OpJa, OpJbe, "ja")

	for id, name := range map[instr.Opcode]string{
		OpMovssRR: "movss", OpMovsdRR: "movsd",
		OpAddssRR: "addss", OpSubssRR: "subss", OpMulssRR: "mulss", OpDivssRR: "divss",
		OpAddsdRR: "addsd", OpSubsdRR: "subsd", OpMulsdRR: "mulsd", OpDivsdRR: "divsd",
	} {
		reg(id, name, 1, 1, instr.FlowFallThrough, instr.MemNone)
	}

	reg(OpNop, "nop", 0, 0, instr.FlowFallThrough, instr.MemNone)

	reg(OpLoadMemOff, "mov", 1, 2, instr.FlowFallThrough, instr.MemRead)
	reg(OpStoreMemOff, "mov", 0, 3, instr.FlowFallThrough, instr.MemWrite)

	return t.Freeze()
}

// Table returns the x86 instruction descriptor registry.
func Table() *instr.Table { return table }
