package x86

import (
	"testing"

	"mosa/internal/instr"
)

// TestOppositeIsInvolutive reproduces spec.md §8's universal invariant
// "∀ conditional opcode c: opposite(opposite(c)) = c" for every x86
// conditional branch descriptor.
func TestOppositeIsInvolutive(t *testing.T) {
	tbl := Table()
	conds := []instr.Opcode{OpJe, OpJne, OpJl, OpJge, OpJle, OpJg, OpJb, OpJae, OpJbe, OpJa}

	for _, id := range conds {
		opp, ok := tbl.Opposite(id)
		if !ok {
			t.Fatalf("opcode %v has no opposite", id)
		}
		back, ok := tbl.Opposite(opp)
		if !ok {
			t.Fatalf("opposite %v of %v has no opposite", opp, id)
		}
		if back != id {
			t.Fatalf("opposite(opposite(%v)) = %v, want %v", id, back, id)
		}
	}
}

// TestArityIsConstant reproduces spec.md §4.1's "arity(opcode) = (rc, oc)
// is constant" contract for a representative cross-section of opcodes.
func TestArityIsConstant(t *testing.T) {
	tbl := Table()
	cases := []struct {
		op     instr.Opcode
		rc, oc int
	}{
		{OpMovRR, 1, 1},
		{OpStoreStack, 0, 2},
		{OpCmpRR, 0, 2},
		{OpPush, 0, 1},
		{OpPop, 1, 0},
		{OpCallSymbol, 1, 1},
		{OpRet, 0, 1},
		{OpJmp, 0, 1},
		{OpJe, 0, 1},
		{OpNop, 0, 0},
		{OpLoadMemOff, 1, 2},
		{OpStoreMemOff, 0, 3},
	}

	for _, tc := range cases {
		rc, oc, ok := tbl.Arity(tc.op)
		if !ok {
			t.Fatalf("opcode %v not registered", tc.op)
		}
		if rc != tc.rc || oc != tc.oc {
			t.Fatalf("arity(%v) = (%d,%d), want (%d,%d)", tc.op, rc, oc, tc.rc, tc.oc)
		}
	}
}

// TestConditionalBranchesHaveOppositeAndReadFlags checks that every
// conditional-branch descriptor both carries an opposite and reads the
// flags it needs (spec.md §4.1's flag-effect contract).
func TestConditionalBranchesHaveOppositeAndReadFlags(t *testing.T) {
	tbl := Table()
	for _, id := range []instr.Opcode{OpJe, OpJne, OpJl, OpJge, OpJle, OpJg, OpJb, OpJae, OpJbe, OpJa} {
		d, ok := tbl.Lookup(id)
		if !ok {
			t.Fatalf("opcode %v not registered", id)
		}
		if d.Flow != instr.FlowConditionalBranch {
			t.Fatalf("opcode %v flow = %v, want FlowConditionalBranch", id, d.Flow)
		}
		if d.Flags.Reads == 0 {
			t.Fatalf("opcode %v reads no flags", id)
		}
		if d.Opposite == 0 {
			t.Fatalf("opcode %v has no opposite registered", id)
		}
	}
}
