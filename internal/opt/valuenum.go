package opt

import (
	"fmt"
	"strings"

	"mosa/internal/instr"
	"mosa/internal/ir"
)

// pureOpcodes lists IR opcodes whose result depends only on their operand
// values — safe to value-number, since re-evaluating one of these anywhere
// dominated by the same inputs cannot change program behavior. Loads,
// stores, calls, and branches are excluded: they carry ordering or
// side-effect dependencies this signature scheme does not track.
var pureOpcodes = map[instr.Opcode]bool{
	instr.OpAddI: true, instr.OpSubI: true, instr.OpMulI: true, instr.OpDivI: true,
	instr.OpRemI: true, instr.OpAndI: true, instr.OpOrI: true, instr.OpXorI: true,
	instr.OpShlI: true, instr.OpShrI: true, instr.OpNegI: true, instr.OpNotI: true,
	instr.OpAddF: true, instr.OpSubF: true, instr.OpMulF: true, instr.OpDivF: true,
	instr.OpLoadConst: true,
}

// ValueNumber finds groups of pure nodes with identical opcode and operand
// signature and rewrites every use of a later node's result to the first
// (canonical) one's result, then empties the now-redundant node (spec.md
// §4.4 stage 4 "value numbering"). Since the graph is in SSA form, two
// identity-equal operands always name the same value, so a plain signature
// map is sufficient — no separate congruence-class fixpoint is needed.
func ValueNumber(g *ir.Graph) int {
	canonical := make(map[string]ir.Operand)
	replace := make(map[ir.VRegID]ir.Operand)
	removed := 0

	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty || n.Op == ir.OpPhi || !pureOpcodes[n.Op] {
				continue
			}
			for i := range n.Operands {
				if r, ok := replace[n.Operands[i].VReg]; ok && n.Operands[i].Residence == ir.ResVirtualRegister {
					n.Operands[i] = r
				}
			}
			if n.ResultCount != 1 {
				continue
			}
			sig := signature(n)
			if c, ok := canonical[sig]; ok {
				if r := n.Results[0]; r.Residence == ir.ResVirtualRegister {
					replace[r.VReg] = c
				}
				ir.Empty(n)
				removed++
				continue
			}
			canonical[sig] = n.Results[0]
		}
	}

	if len(replace) == 0 {
		return removed
	}
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			for i := range n.Operands {
				if r, ok := replace[n.Operands[i].VReg]; ok && n.Operands[i].Residence == ir.ResVirtualRegister {
					n.Operands[i] = r
				}
			}
		}
	}
	return removed
}

func signature(n *ir.Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|", n.Op)
	for _, o := range n.Operands {
		fmt.Fprintf(&sb, "%d:%d:%d:%d:%s;", o.Residence, o.VReg, o.SSAVersion, o.IntValue, o.Symbol)
	}
	return sb.String()
}
