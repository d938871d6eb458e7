package arm

import "mosa/internal/ir"

// AssignFixedRegisters implements platform.Platform.AssignFixedRegisters
// (spec.md §4.4 stage 8): AAPCS pins a call's return value to R0 before
// linear-scan ever runs.
func AssignFixedRegisters(g *ir.Graph) error {
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			if n.Op == OpBlSymbol || n.Op == OpBlxReg {
				pinCallReturn(g, n)
			}
		}
	}
	return nil
}

func pinCallReturn(g *ir.Graph, n *ir.Node) {
	if n.ResultCount == 0 {
		return
	}
	dst := n.Results[0]
	if dst.Residence == ir.ResCPURegister && dst.CPUReg == R0 {
		return
	}
	r0 := ir.Operand{Residence: ir.ResCPURegister, CPUReg: R0, Type: dst.Type}
	n.Results[0] = r0
	copyOut := lowerMove(dst, r0)
	g.InsertAfter(n, copyOut)
}
