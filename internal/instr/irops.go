package instr

// IR-level opcodes occupy the low range (1-999). Every platform package
// allocates its own disjoint range above 1000 for lowered instructions
// (spec.md §4.1: "Platform packages allocate their own disjoint Opcode
// ranges"). IRTable is built once at package init and frozen, matching the
// read-only-after-init discipline spec.md §9 calls out for the instruction
// registry.
const (
	OpPhi          Opcode = 1 // SSA phi pseudo-instruction (see internal/ir.OpPhi)
	OpMove         Opcode = 2 // dst <- src, scalar
	OpMoveCompound Opcode = 3 // dst <- src, multi-word value type (spec.md §4.5)
	OpLoadConst    Opcode = 4
	OpLoadLocal    Opcode = 5
	OpStoreLocal   Opcode = 6
	OpLoadField    Opcode = 7
	OpStoreField   Opcode = 8
	OpLoadElem     Opcode = 9
	OpStoreElem    Opcode = 10

	OpAddI Opcode = 20
	OpSubI Opcode = 21
	OpMulI Opcode = 22
	OpDivI Opcode = 23
	OpRemI Opcode = 24
	OpAndI Opcode = 25
	OpOrI  Opcode = 26
	OpXorI Opcode = 27
	OpShlI Opcode = 28
	OpShrI Opcode = 29
	OpNegI Opcode = 30
	OpNotI Opcode = 31

	OpAddF Opcode = 40
	OpSubF Opcode = 41
	OpMulF Opcode = 42
	OpDivF Opcode = 43

	OpAddI64 Opcode = 50 // pre-expansion 64-bit ops, removed on 32-bit targets
	OpSubI64 Opcode = 51
	OpMulI64 Opcode = 52

	OpCompareIntBranch  Opcode = 60 // conditional branch on integer compare
	OpCompareFloatBranch Opcode = 61
	OpJmp               Opcode = 62
	OpReturn            Opcode = 63
	OpSwitch            Opcode = 64
	OpCall              Opcode = 65
	OpCallVirtual       Opcode = 66
	OpCallInterface     Opcode = 67

	OpNop Opcode = 90
)

// IRTable is the generic, platform-independent instruction table: the CIL
// decoder and the optimization passes (§4.4 stages 1-5) build and
// transform nodes from this table exclusively; platform lowering (stage 6)
// replaces them with a target's own table.
var IRTable = buildIRTable()

func buildIRTable() *Table {
	t := NewTable()
	reg := func(id Opcode, name string, rc, oc int, flow FlowKind, mem MemAccess) {
		t.Register(Descriptor{ID: id, Name: name, DefaultResultCount: rc, DefaultOperandCount: oc, Flow: flow, Mem: mem})
	}

	reg(OpPhi, "phi", 1, 0, FlowFallThrough, MemNone)
	reg(OpMove, "move", 1, 1, FlowFallThrough, MemNone)
	reg(OpMoveCompound, "move.compound", 1, 1, FlowFallThrough, MemReadWrite)
	reg(OpLoadConst, "ldc", 1, 1, FlowFallThrough, MemNone)
	reg(OpLoadLocal, "ldloc", 1, 1, FlowFallThrough, MemRead)
	reg(OpStoreLocal, "stloc", 0, 2, FlowFallThrough, MemWrite)
	reg(OpLoadField, "ldfld", 1, 2, FlowFallThrough, MemRead)
	reg(OpStoreField, "stfld", 0, 3, FlowFallThrough, MemWrite)
	reg(OpLoadElem, "ldelem", 1, 2, FlowFallThrough, MemRead)
	reg(OpStoreElem, "stelem", 0, 3, FlowFallThrough, MemWrite)

	for id, name := range map[Opcode]string{
		OpAddI: "add.i", OpSubI: "sub.i", OpMulI: "mul.i", OpDivI: "div.i",
		OpRemI: "rem.i", OpAndI: "and.i", OpOrI: "or.i", OpXorI: "xor.i",
		OpShlI: "shl.i", OpShrI: "shr.i",
	} {
		reg(id, name, 1, 2, FlowFallThrough, MemNone)
	}
	reg(OpNegI, "neg.i", 1, 1, FlowFallThrough, MemNone)
	reg(OpNotI, "not.i", 1, 1, FlowFallThrough, MemNone)

	for id, name := range map[Opcode]string{
		OpAddF: "add.f", OpSubF: "sub.f", OpMulF: "mul.f", OpDivF: "div.f",
	} {
		reg(id, name, 1, 2, FlowFallThrough, MemNone)
	}

	// The 64-bit ops carry their operands and results pre-split into 32-bit
	// halves (lo, hi) rather than one opaque 64-bit slot, since the IR has
	// no native 64-bit register residence on a 32-bit target: operands are
	// [aLo, aHi, bLo, bHi], results are [resultLo, resultHi]. This lets
	// opt.ExpandLongInt (spec.md §4.4 stage 4 "long-integer expansion")
	// rewrite a node into 32-bit arithmetic without needing to split an
	// operand it doesn't already have split.
	for id, name := range map[Opcode]string{
		OpAddI64: "add.i64", OpSubI64: "sub.i64", OpMulI64: "mul.i64",
	} {
		reg(id, name, 2, 4, FlowFallThrough, MemNone)
	}

	reg(OpCompareIntBranch, "cmp.br.i", 0, 3, FlowConditionalBranch, MemNone)
	reg(OpCompareFloatBranch, "cmp.br.f", 0, 3, FlowConditionalBranch, MemNone)
	reg(OpJmp, "jmp", 0, 1, FlowBranch, MemNone)
	reg(OpReturn, "ret", 0, 1, FlowReturn, MemNone)
	// Switch and the call family are, like Phi, variadic-operand
	// exceptions to the fixed-arity contract: DefaultOperandCount is a
	// template only (target/case-0), and callers pass the node's real
	// operand count to ir.NewNode directly (spec.md §4.2's phi carve-out
	// extended to call sites and switch targets).
	reg(OpSwitch, "switch", 0, 1, FlowSwitch, MemNone)
	reg(OpCall, "call", 1, 1, FlowFallThrough, MemReadWrite)
	reg(OpCallVirtual, "callvirt", 1, 1, FlowFallThrough, MemReadWrite)
	reg(OpCallInterface, "callintf", 1, 1, FlowFallThrough, MemReadWrite)
	reg(OpNop, "nop", 0, 0, FlowFallThrough, MemNone)

	return t.Freeze()
}
