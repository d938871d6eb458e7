package arm

import "mosa/internal/instr"

// Opcode range 2000-2999 is ARM's disjoint slice of the global Opcode
// space (spec.md §4.1).
const (
	OpMovRR  instr.Opcode = 2000
	OpMovRI  instr.Opcode = 2001
	OpLdrOff instr.Opcode = 2002 // dst <- [base, #imm12]
	OpStrOff instr.Opcode = 2003 // [base, #imm12] <- src

	OpAddRRR instr.Opcode = 2004
	OpSubRRR instr.Opcode = 2005
	OpAndRRR instr.Opcode = 2006
	OpOrrRRR instr.Opcode = 2007
	OpEorRRR instr.Opcode = 2008
	OpMulRRR instr.Opcode = 2009

	OpCmpRR instr.Opcode = 2010
	OpCmpRI instr.Opcode = 2011

	OpLslRI instr.Opcode = 2012
	OpLslRR instr.Opcode = 2013
	OpLsrRI instr.Opcode = 2014
	OpLsrRR instr.Opcode = 2015

	OpMvnRR instr.Opcode = 2016
	OpRsbRI instr.Opcode = 2017 // Rd <- #imm - Rm (imm always 0: negation)

	OpBlSymbol instr.Opcode = 2020
	OpBlxReg   instr.Opcode = 2021
	OpBxLR     instr.Opcode = 2022
	OpB        instr.Opcode = 2023

	OpBeq instr.Opcode = 2030
	OpBne instr.Opcode = 2031
	OpBlt instr.Opcode = 2032
	OpBge instr.Opcode = 2033
	OpBle instr.Opcode = 2034
	OpBgt instr.Opcode = 2035
	OpBlo instr.Opcode = 2036
	OpBhs instr.Opcode = 2037
	OpBls instr.Opcode = 2038
	OpBhi instr.Opcode = 2039

	OpNop instr.Opcode = 2050
)

var table = buildTable()

func buildTable() *instr.Table {
	t := instr.NewTable()
	reg := func(id instr.Opcode, name string, rc, oc int, flow instr.FlowKind, mem instr.MemAccess) {
		t.Register(instr.Descriptor{ID: id, Name: name, DefaultResultCount: rc, DefaultOperandCount: oc, Flow: flow, Mem: mem, Encoding: instr.EncoderLegacy})
	}

	reg(OpMovRR, "mov", 1, 1, instr.FlowFallThrough, instr.MemNone)
	reg(OpMovRI, "mov", 1, 1, instr.FlowFallThrough, instr.MemNone)
	reg(OpLdrOff, "ldr", 1, 2, instr.FlowFallThrough, instr.MemRead)
	reg(OpStrOff, "str", 0, 3, instr.FlowFallThrough, instr.MemWrite)

	flags := instr.FlagEffect{Modifies: instr.FlagZero | instr.FlagSign | instr.FlagCarry | instr.FlagOverflow}
	for id, name := range map[instr.Opcode]string{
		OpAddRRR: "add", OpSubRRR: "sub", OpAndRRR: "and", OpOrrRRR: "orr",
		OpEorRRR: "eor", OpMulRRR: "mul",
	} {
		t.Register(instr.Descriptor{ID: id, Name: name, DefaultResultCount: 1, DefaultOperandCount: 2, Flow: instr.FlowFallThrough, Mem: instr.MemNone, Flags: flags, Encoding: instr.EncoderLegacy})
	}

	t.Register(instr.Descriptor{ID: OpCmpRR, Name: "cmp", DefaultResultCount: 0, DefaultOperandCount: 2, Flow: instr.FlowFallThrough, Mem: instr.MemNone, Flags: flags, Encoding: instr.EncoderLegacy})
	t.Register(instr.Descriptor{ID: OpCmpRI, Name: "cmp", DefaultResultCount: 0, DefaultOperandCount: 2, Flow: instr.FlowFallThrough, Mem: instr.MemNone, Flags: flags, Encoding: instr.EncoderLegacy})

	reg(OpLslRI, "lsl", 1, 2, instr.FlowFallThrough, instr.MemNone)
	reg(OpLslRR, "lsl", 1, 2, instr.FlowFallThrough, instr.MemNone)
	reg(OpLsrRI, "lsr", 1, 2, instr.FlowFallThrough, instr.MemNone)
	reg(OpLsrRR, "lsr", 1, 2, instr.FlowFallThrough, instr.MemNone)

	reg(OpMvnRR, "mvn", 1, 1, instr.FlowFallThrough, instr.MemNone)
	reg(OpRsbRI, "rsb", 1, 1, instr.FlowFallThrough, instr.MemNone)

	reg(OpBlSymbol, "bl", 1, 1, instr.FlowFallThrough, instr.MemReadWrite)
	reg(OpBlxReg, "blx", 1, 1, instr.FlowFallThrough, instr.MemReadWrite)
	reg(OpBxLR, "bx", 0, 0, instr.FlowReturn, instr.MemNone)
	reg(OpB, "b", 0, 1, instr.FlowBranch, instr.MemNone)

	bcc := func(id, opp instr.Opcode, name string) {
		t.Register(instr.Descriptor{ID: id, Name: name, DefaultResultCount: 0, DefaultOperandCount: 1, Flow: instr.FlowConditionalBranch, Mem: instr.MemNone, Flags: instr.FlagEffect{Reads: flags.Modifies}, Opposite: opp, Encoding: instr.EncoderLegacy})
	}
	bcc(OpBeq, OpBne, "beq")
	bcc(OpBne, OpBeq, "bne")
	bcc(OpBlt, OpBge, "blt")
	bcc(OpBge, OpBlt, "bge")
	bcc(OpBle, OpBgt, "ble")
	bcc(OpBgt, OpBle, "bgt")
	bcc(OpBlo, OpBhs, "blo")
	bcc(OpBhs, OpBlo, "bhs")
	bcc(OpBls, OpBhi, "bls")
	bcc(OpBhi, OpBls, "bhi")

	reg(OpNop, "nop", 0, 0, instr.FlowFallThrough, instr.MemNone)

	return t.Freeze()
}

// Table returns the ARM instruction descriptor registry.
func Table() *instr.Table { return table }
