package arm

import (
	"testing"

	"mosa/internal/instr"
)

// TestOppositeIsInvolutive reproduces spec.md §8's universal invariant
// "∀ conditional opcode c: opposite(opposite(c)) = c" for every ARM
// conditional branch descriptor.
func TestOppositeIsInvolutive(t *testing.T) {
	tbl := Table()
	conds := []instr.Opcode{OpBeq, OpBne, OpBlt, OpBge, OpBle, OpBgt, OpBlo, OpBhs, OpBls, OpBhi}

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
		{OpStrOff, 0, 3},
		{OpLdrOff, 1, 2},
		{OpBxLR, 0, 0},
		{OpB, 0, 1},
		{OpBeq, 0, 1},
		{OpBlSymbol, 1, 1},
		{OpNop, 0, 0},
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
