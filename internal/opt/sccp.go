package opt

import (
	"mosa/internal/instr"
	"mosa/internal/ir"
)

// Propagate implements a simplified sparse conditional constant propagation
// (spec.md §4.4 stage 4): since the graph is in SSA form, every virtual
// register has exactly one defining node, so "sparse" propagation reduces to
// a single forward walk recording which registers are provably constant and
// substituting their uses, then evaluating any compare-branch whose operands
// both resolved constant into an unconditional jump. It does not (unlike a
// textbook worklist SCCP) remove the now-unreachable block's node list, only
// its edge from the branching block; no pass in this package removes the
// unreachable block itself.
func Propagate(g *ir.Graph) int {
	known := make(map[ir.VRegID]ir.Operand)
	n := 0

	for _, b := range g.Blocks() {
		for node := b.First(); node != nil; node = node.Next() {
			if node.Empty || node.Op == ir.OpPhi {
				continue
			}
			for i := range node.Operands {
				op := &node.Operands[i]
				if op.Residence != ir.ResVirtualRegister {
					continue
				}
				if c, ok := known[op.VReg]; ok {
					*op = c
					n++
				}
			}
			if node.Op == instr.OpLoadConst && node.ResultCount == 1 {
				if r := node.Results[0]; r.Residence == ir.ResVirtualRegister {
					known[r.VReg] = node.Operands[0]
				}
			}
			if foldNode(node) {
				n++
				if r := node.Results[0]; node.Op == instr.OpLoadConst && r.Residence == ir.ResVirtualRegister {
					known[r.VReg] = node.Operands[0]
				}
			}
		}
		evaluateBranch(g, b)
	}
	return n
}

// evaluateBranch collapses a block's trailing compare-branch into an
// unconditional jump when both its compared operands are constants, and
// prunes the now-dead edge from the block graph.
func evaluateBranch(g *ir.Graph, b *ir.Block) {
	term := b.LastLive()
	if term == nil || (term.Op != instr.OpCompareIntBranch && term.Op != instr.OpCompareFloatBranch) {
		return
	}
	if len(term.Operands) != 3 {
		return
	}
	lhs, rhs, kindOp := term.Operands[0], term.Operands[1], term.Operands[2]
	if lhs.Residence != ir.ResConstant || rhs.Residence != ir.ResConstant {
		return
	}
	kind := ir.CompareKind(kindOp.IntValue)
	var taken bool
	if term.Op == instr.OpCompareIntBranch {
		taken = evalIntCompare(kind, lhs.IntValue, rhs.IntValue)
	} else {
		taken = evalFloatCompare(kind, asFloat(lhs), asFloat(rhs))
	}
	if len(b.Succs) != 2 {
		return
	}
	keep, drop := b.Succs[0], b.Succs[1]
	if !taken {
		keep, drop = drop, keep
	}

	term.Op = instr.OpJmp
	term.Operands = []ir.Operand{{Residence: ir.ResConstant, ConstKind: ir.ConstInt, IntValue: int64(keep)}}
	b.Succs = []ir.BlockID{keep}
	if db := g.Block(drop); db != nil {
		filtered := db.Preds[:0]
		for _, p := range db.Preds {
			if p != b.ID {
				filtered = append(filtered, p)
			}
		}
		db.Preds = filtered
	}
}

func evalIntCompare(kind ir.CompareKind, a, b int64) bool {
	switch kind {
	case ir.CompareEQ:
		return a == b
	case ir.CompareNE:
		return a != b
	case ir.CompareLT:
		return a < b
	case ir.CompareLE:
		return a <= b
	case ir.CompareGT:
		return a > b
	case ir.CompareGE:
		return a >= b
	case ir.CompareULT:
		return uint64(a) < uint64(b)
	case ir.CompareULE:
		return uint64(a) <= uint64(b)
	case ir.CompareUGT:
		return uint64(a) > uint64(b)
	case ir.CompareUGE:
		return uint64(a) >= uint64(b)
	}
	return false
}

func evalFloatCompare(kind ir.CompareKind, a, b float64) bool {
	switch kind {
	case ir.CompareEQ:
		return a == b
	case ir.CompareNE:
		return a != b
	case ir.CompareLT:
		return a < b
	case ir.CompareLE:
		return a <= b
	case ir.CompareGT:
		return a > b
	case ir.CompareGE:
		return a >= b
	default:
		return false
	}
}
