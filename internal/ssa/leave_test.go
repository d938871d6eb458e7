package ssa

import (
	"testing"

	"mosa/internal/instr"
	"mosa/internal/ir"
)

type fakeMoveEmitter struct{ moves int }

func (f *fakeMoveEmitter) NewMove(dst, src ir.Operand, compound bool) *ir.Node {
	f.moves++
	n := ir.NewNode(instr.OpMove, 1, 1)
	n.Results[0] = dst
	n.Operands[0] = src
	return n
}

func TestLeaveReplacesPhiWithCopiesOnEachIncomingEdge(t *testing.T) {
	g := ir.NewGraph()
	_, left, right, merge := buildDiamond(g)

	const vreg1 ir.VRegID = 1
	phi := ir.NewNode(ir.OpPhi, 1, 2)
	phi.Results[0] = ir.SSAOperand(vreg1, 0, 3, vreg1)
	phi.Operands[0] = ir.SSAOperand(vreg1, 0, 1, vreg1)
	phi.Operands[1] = ir.SSAOperand(vreg1, 0, 2, vreg1)
	phi.PhiBlocks = []ir.BlockID{left, right}
	g.Prepend(g.Block(merge), phi)

	vregs := ir.NewVRegTable()
	mv := &fakeMoveEmitter{}

	if err := Leave(g, vregs, nil, mv); err != nil {
		t.Fatalf("leave: %v", err)
	}

	if !phi.Empty {
		t.Fatalf("expected the phi node to be emptied after Leave")
	}
	if mv.moves != 2 {
		t.Fatalf("expected one copy per incoming edge (2), got %d", mv.moves)
	}

	leftMove := g.Block(left).FirstLive()
	if leftMove == nil || leftMove.Op != instr.OpMove {
		t.Fatalf("expected a move copy inserted into the left predecessor block")
	}
	rightMove := g.Block(right).FirstLive()
	if rightMove == nil || rightMove.Op != instr.OpMove {
		t.Fatalf("expected a move copy inserted into the right predecessor block")
	}
	if leftMove.Results[0].Same(rightMove.Results[0]) == false {
		t.Fatalf("expected both copies to target the same non-SSA destination register")
	}
	if leftMove.Operands[0].Residence == ir.ResVirtualRegister && leftMove.Operands[0].IsSSA() {
		t.Fatalf("expected the copy's source operand to be rewritten away from SSA form")
	}
}
