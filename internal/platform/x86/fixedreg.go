package x86

import "mosa/internal/ir"

// AssignFixedRegisters implements platform.Platform.AssignFixedRegisters
// (spec.md §4.4 stage 8): binds operands the x86 ABI pins to one specific
// physical register before linear-scan ever runs, so the allocator never
// has to special-case them.
func AssignFixedRegisters(g *ir.Graph) error {
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			switch n.Op {
			case OpShlRCL, OpShrRCL:
				pinShiftCount(g, n)
			case OpCallSymbol, OpCallReg:
				pinCallReturn(g, n)
			}
		}
	}
	return nil
}

func pinShiftCount(g *ir.Graph, n *ir.Node) {
	cl := ir.Operand{Residence: ir.ResCPURegister, CPUReg: ECX, Type: n.Operands[0].Type}
	mov := lowerMove(cl, n.Operands[0])
	g.InsertBefore(n, mov)
	n.Operands[0] = cl
}

// pinCallReturn forces the call's own result slot to EAX, the cdecl
// return register, then copies it out into the vreg the rest of the
// method expects to read — the classic fixed-result-plus-copy pattern so
// linear-scan never needs to know ABI return conventions.
func pinCallReturn(g *ir.Graph, n *ir.Node) {
	if n.ResultCount == 0 {
		return
	}
	dst := n.Results[0]
	if dst.Residence == ir.ResCPURegister && dst.CPUReg == EAX {
		return
	}
	eax := ir.Operand{Residence: ir.ResCPURegister, CPUReg: EAX, Type: dst.Type}
	n.Results[0] = eax
	copyOut := lowerMove(dst, eax)
	g.InsertAfter(n, copyOut)
}
