package opt

import (
	"testing"

	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/typesys"
)

func TestConstantFoldAdd(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()

	n := ir.NewNode(instr.OpAddI, 1, 2)
	n.Operands[0] = ir.IntConst(2, typesys.NoTypeID)
	n.Operands[1] = ir.IntConst(3, typesys.NoTypeID)
	n.Results[0] = ir.VRegOperand(0, typesys.NoTypeID)
	g.Append(b, n)

	if got := ConstantFold(g); got != 1 {
		t.Fatalf("expected 1 fold, got %d", got)
	}
	if n.Op != instr.OpLoadConst {
		t.Fatalf("expected node rewritten to OpLoadConst, got %v", n.Op)
	}
	if n.Operands[0].IntValue != 5 {
		t.Fatalf("expected folded value 5, got %d", n.Operands[0].IntValue)
	}
}

func TestConstantFoldSkipsNonConstantOperands(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()

	n := ir.NewNode(instr.OpAddI, 1, 2)
	n.Operands[0] = ir.VRegOperand(1, typesys.NoTypeID)
	n.Operands[1] = ir.IntConst(3, typesys.NoTypeID)
	n.Results[0] = ir.VRegOperand(2, typesys.NoTypeID)
	g.Append(b, n)

	if got := ConstantFold(g); got != 0 {
		t.Fatalf("expected 0 folds when an operand is non-constant, got %d", got)
	}
	if n.Op != instr.OpAddI {
		t.Fatalf("node should be left untouched, got %v", n.Op)
	}
}
