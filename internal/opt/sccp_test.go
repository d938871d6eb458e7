package opt

import (
	"testing"

	"mosa/internal/instr"
	"mosa/internal/ir"
)

func TestPropagatePropagatesLoadConstIntoUse(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()

	load := ir.NewNode(instr.OpLoadConst, 1, 1)
	load.Operands[0] = ir.IntConst(7, 0)
	load.Results[0] = ir.VRegOperand(1, 0)
	g.Append(b, load)

	use := ir.NewNode(instr.OpReturn, 0, 1)
	use.Operands[0] = ir.VRegOperand(1, 0)
	g.Append(b, use)

	if got := Propagate(g); got != 1 {
		t.Fatalf("expected 1 propagation, got %d", got)
	}
	if use.Operands[0].Residence != ir.ResConstant || use.Operands[0].IntValue != 7 {
		t.Fatalf("expected the use to be rewritten to constant 7, got %+v", use.Operands[0])
	}
}

func TestPropagateCollapsesConstantBranchToJump(t *testing.T) {
	g := ir.NewGraph()
	entry, left, right, _ := buildDiamondForSCCP(g)

	term := ir.NewNode(instr.OpCompareIntBranch, 0, 3)
	term.Operands[0] = ir.IntConst(1, 0)
	term.Operands[1] = ir.IntConst(2, 0)
	term.Operands[2] = ir.Operand{Residence: ir.ResConstant, ConstKind: ir.ConstInt, IntValue: int64(ir.CompareLT)}
	g.Append(g.Block(entry), term)

	Propagate(g)

	entryBlock := g.Block(entry)
	if entryBlock.LastLive().Op != instr.OpJmp {
		t.Fatalf("expected the compare-branch to collapse into a jump, got %v", entryBlock.LastLive().Op)
	}
	if len(entryBlock.Succs) != 1 || entryBlock.Succs[0] != left {
		t.Fatalf("expected the surviving edge to be the taken (left) branch, got %v", entryBlock.Succs)
	}
	rightBlock := g.Block(right)
	for _, p := range rightBlock.Preds {
		if p == entry {
			t.Fatalf("expected the dead edge from entry to right to be pruned")
		}
	}
}

// buildDiamondForSCCP mirrors buildDiamond from the ssa package locally,
// since opt cannot import a _test.go helper from another package.
func buildDiamondForSCCP(g *ir.Graph) (entry, left, right, merge ir.BlockID) {
	e := g.NewBlock()
	l := g.NewBlock()
	r := g.NewBlock()
	m := g.NewBlock()

	e.Succs = []ir.BlockID{l.ID, r.ID}
	l.Preds = []ir.BlockID{e.ID}
	r.Preds = []ir.BlockID{e.ID}
	l.Succs = []ir.BlockID{m.ID}
	r.Succs = []ir.BlockID{m.ID}
	m.Preds = []ir.BlockID{l.ID, r.ID}

	return e.ID, l.ID, r.ID, m.ID
}
