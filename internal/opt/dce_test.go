package opt

import (
	"testing"

	"mosa/internal/instr"
	"mosa/internal/ir"
)

func TestDeadCodeEliminationRemovesUnusedPureNode(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()

	dead := ir.NewNode(instr.OpAddI, 1, 2)
	dead.Operands[0] = ir.IntConst(1, 0)
	dead.Operands[1] = ir.IntConst(2, 0)
	dead.Results[0] = ir.VRegOperand(1, 0)
	g.Append(b, dead)

	ret := ir.NewNode(instr.OpReturn, 0, 1)
	ret.Operands[0] = ir.IntConst(0, 0)
	g.Append(b, ret)

	if got := DeadCodeElimination(g); got != 1 {
		t.Fatalf("expected 1 dead node removed, got %d", got)
	}
	if !dead.Empty {
		t.Fatalf("expected the unused node to be emptied")
	}
}

func TestDeadCodeEliminationKeepsUsedNode(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()

	live := ir.NewNode(instr.OpAddI, 1, 2)
	live.Operands[0] = ir.IntConst(1, 0)
	live.Operands[1] = ir.IntConst(2, 0)
	live.Results[0] = ir.VRegOperand(1, 0)
	g.Append(b, live)

	ret := ir.NewNode(instr.OpReturn, 0, 1)
	ret.Operands[0] = ir.VRegOperand(1, 0)
	g.Append(b, ret)

	if got := DeadCodeElimination(g); got != 0 {
		t.Fatalf("expected 0 nodes removed when the result is used, got %d", got)
	}
	if live.Empty {
		t.Fatalf("expected the used node to survive")
	}
}

func TestDeadCodeEliminationChainsToFixpoint(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()

	a := ir.NewNode(instr.OpAddI, 1, 2)
	a.Operands[0] = ir.IntConst(1, 0)
	a.Operands[1] = ir.IntConst(2, 0)
	a.Results[0] = ir.VRegOperand(1, 0)
	g.Append(b, a)

	// uses a's result but is itself unused, so removing it should let a
	// become dead in the same DeadCodeElimination call.
	chain := ir.NewNode(instr.OpNegI, 1, 1)
	chain.Operands[0] = ir.VRegOperand(1, 0)
	chain.Results[0] = ir.VRegOperand(2, 0)
	g.Append(b, chain)

	if got := DeadCodeElimination(g); got != 2 {
		t.Fatalf("expected both nodes removed across fixpoint iterations, got %d", got)
	}
}
