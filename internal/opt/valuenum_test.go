package opt

import (
	"testing"

	"mosa/internal/instr"
	"mosa/internal/ir"
)

func TestValueNumberMergesIdenticalPureNodes(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()

	first := ir.NewNode(instr.OpAddI, 1, 2)
	first.Operands[0] = ir.VRegOperand(1, 0)
	first.Operands[1] = ir.VRegOperand(2, 0)
	first.Results[0] = ir.VRegOperand(3, 0)
	g.Append(b, first)

	dup := ir.NewNode(instr.OpAddI, 1, 2)
	dup.Operands[0] = ir.VRegOperand(1, 0)
	dup.Operands[1] = ir.VRegOperand(2, 0)
	dup.Results[0] = ir.VRegOperand(4, 0)
	g.Append(b, dup)

	use := ir.NewNode(instr.OpReturn, 0, 1)
	use.Operands[0] = ir.VRegOperand(4, 0)
	g.Append(b, use)

	if got := ValueNumber(g); got != 1 {
		t.Fatalf("expected 1 redundant node removed, got %d", got)
	}
	if !dup.Empty {
		t.Fatalf("expected the duplicate node to be emptied")
	}
	if use.Operands[0].VReg != 3 {
		t.Fatalf("expected the use to be rewritten to the canonical result (vreg 3), got %d", use.Operands[0].VReg)
	}
}

func TestValueNumberKeepsDistinctOperandsSeparate(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()

	a := ir.NewNode(instr.OpAddI, 1, 2)
	a.Operands[0] = ir.VRegOperand(1, 0)
	a.Operands[1] = ir.IntConst(1, 0)
	a.Results[0] = ir.VRegOperand(3, 0)
	g.Append(b, a)

	b2 := ir.NewNode(instr.OpAddI, 1, 2)
	b2.Operands[0] = ir.VRegOperand(1, 0)
	b2.Operands[1] = ir.IntConst(2, 0)
	b2.Results[0] = ir.VRegOperand(4, 0)
	g.Append(b, b2)

	if got := ValueNumber(g); got != 0 {
		t.Fatalf("expected 0 merges for nodes with different constant operands, got %d", got)
	}
}
