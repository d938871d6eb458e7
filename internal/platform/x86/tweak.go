package x86

import "mosa/internal/ir"

// Tweak implements platform.Platform.Tweak (spec.md §4.4 stage 7):
// encoding-level constraints Lower doesn't enforce because they depend on
// operand residence, which Lower leaves untouched. Grounded on the same
// per-instruction walk shape as lower.go.
func Tweak(g *ir.Graph, vregs *ir.VRegTable) error {
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			switch n.Op {
			case OpCmpRR, OpCmpRI32:
				if n.Operands[0].Residence == ir.ResConstant {
					hoistOperand(g, n, 0, vregs)
				}
			case OpShlRI8, OpShrRI8:
				n.Operands[0].IntValue &= 0x1f
			case OpCallReg:
				if op := n.Operands[0]; op.Residence != ir.ResVirtualRegister && op.Residence != ir.ResCPURegister {
					hoistOperand(g, n, 0, vregs)
				}
			}
		}
	}
	return nil
}

// hoistOperand inserts a move of n.Operands[i] into a fresh virtual
// register immediately before n, then rewrites the operand to reference it
// (spec.md §4.4 stage 7 "split through a virtual register").
func hoistOperand(g *ir.Graph, n *ir.Node, i int, vregs *ir.VRegTable) {
	src := n.Operands[i]
	tmp := ir.VRegOperand(vregs.New(src.Type), src.Type)
	mov := lowerMove(tmp, src)
	g.InsertBefore(n, mov)
	n.Operands[i] = tmp
}
