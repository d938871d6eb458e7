package ssa

import (
	"testing"

	"mosa/internal/instr"
	"mosa/internal/ir"
)

func TestConstructInsertsPhiAndRenamesAtDiamondMerge(t *testing.T) {
	g := ir.NewGraph()
	entry, left, _, merge := buildDiamond(g)

	entryDef := ir.NewNode(instr.OpLoadConst, 1, 1)
	entryDef.Results[0] = ir.VRegOperand(1, 0)
	entryDef.Operands[0] = ir.IntConst(0, 0)
	g.Append(g.Block(entry), entryDef)

	leftDef := ir.NewNode(instr.OpAddI, 1, 2)
	leftDef.Results[0] = ir.VRegOperand(1, 0)
	leftDef.Operands[0] = ir.VRegOperand(1, 0)
	leftDef.Operands[1] = ir.IntConst(1, 0)
	g.Append(g.Block(left), leftDef)

	use := ir.NewNode(instr.OpReturn, 0, 1)
	use.Operands[0] = ir.VRegOperand(1, 0)
	g.Append(g.Block(merge), use)

	Construct(g, entry)

	mergeBlock := g.Block(merge)
	phi := mergeBlock.First()
	if phi == nil || phi.Op != ir.OpPhi {
		t.Fatalf("expected a phi node at the top of the merge block, got %v", phi)
	}
	if len(phi.Operands) != len(mergeBlock.Preds) {
		t.Fatalf("expected phi to carry one operand per predecessor (%d), got %d", len(mergeBlock.Preds), len(phi.Operands))
	}
	for i, op := range phi.Operands {
		if !op.IsSSA() {
			t.Fatalf("expected phi operand %d to be SSA-versioned, got %+v", i, op)
		}
	}

	if !use.Operands[0].IsSSA() {
		t.Fatalf("expected the use in the merge block to be rewritten to the phi's SSA value")
	}
	if use.Operands[0].VReg != phi.Results[0].VReg || use.Operands[0].SSAVersion != phi.Results[0].SSAVersion {
		t.Fatalf("expected the use to reference the phi's own SSA definition, use=%+v phi=%+v", use.Operands[0], phi.Results[0])
	}

	if !entryDef.Results[0].IsSSA() || !leftDef.Results[0].IsSSA() {
		t.Fatalf("expected both definitions of vreg 1 to be SSA-versioned after renaming")
	}
	if entryDef.Results[0].SSAVersion == leftDef.Results[0].SSAVersion {
		t.Fatalf("expected entry's and left's definitions to carry distinct SSA versions")
	}
}
