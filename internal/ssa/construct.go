package ssa

import (
	"mosa/internal/ir"
	"mosa/internal/typesys"
)

// Construct builds SSA form over g: phi nodes are inserted at dominance
// frontiers for every virtual register defined in more than one block, then
// every virtual register is renamed to carry an SSA version (spec.md §4.4
// stage 3). g's block edges (Preds/Succs) must already be computed.
func Construct(g *ir.Graph, entry ir.BlockID) *DomInfo {
	dom := Compute(g, entry)
	defBlocks := collectDefBlocks(g)
	insertPhis(g, dom, defBlocks)
	rename(g, dom, entry)
	return dom
}

func collectDefBlocks(g *ir.Graph) map[ir.VRegID]map[ir.BlockID]bool {
	out := make(map[ir.VRegID]map[ir.BlockID]bool)
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			for i := 0; i < n.ResultCount; i++ {
				r := n.Results[i]
				if r.Residence != ir.ResVirtualRegister {
					continue
				}
				if out[r.VReg] == nil {
					out[r.VReg] = make(map[ir.BlockID]bool)
				}
				out[r.VReg][b.ID] = true
			}
		}
	}
	return out
}

func insertPhis(g *ir.Graph, dom *DomInfo, defBlocks map[ir.VRegID]map[ir.BlockID]bool) {
	for vreg, defs := range defBlocks {
		if len(defs) < 2 {
			continue
		}
		hasPhi := make(map[ir.BlockID]bool)
		worklist := make([]ir.BlockID, 0, len(defs))
		for b := range defs {
			worklist = append(worklist, b)
		}
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, d := range dom.Frontier(b) {
				if hasPhi[d] {
					continue
				}
				hasPhi[d] = true
				insertPhiNode(g, d, vreg)
				if !defs[d] {
					worklist = append(worklist, d)
				}
			}
		}
	}
}

func insertPhiNode(g *ir.Graph, b ir.BlockID, vreg ir.VRegID) {
	blk := g.Block(b)
	preds := blk.Preds
	n := ir.NewNode(ir.OpPhi, 1, len(preds))
	n.Results[0] = ir.VRegOperand(vreg, typeOfVReg(g, vreg))
	n.PhiBlocks = append([]ir.BlockID(nil), preds...)
	g.Prepend(blk, n)
}

// typeOfVReg finds the declared type of vreg by scanning one of its
// existing definitions; the graph has no separate vreg table reference, so
// this is a best-effort scan used only to stamp the phi result's type.
func typeOfVReg(g *ir.Graph, vreg ir.VRegID) (t typesys.TypeID) {
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			for i := 0; i < n.ResultCount; i++ {
				if n.Results[i].Residence == ir.ResVirtualRegister && n.Results[i].VReg == vreg {
					return n.Results[i].Type
				}
			}
		}
	}
	return
}

type ssaState struct {
	counter map[ir.VRegID]int32
	stack   map[ir.VRegID][]int32
}

func newSSAState() *ssaState {
	return &ssaState{counter: make(map[ir.VRegID]int32), stack: make(map[ir.VRegID][]int32)}
}

func (s *ssaState) push(v ir.VRegID) int32 {
	s.counter[v]++
	ver := s.counter[v]
	s.stack[v] = append(s.stack[v], ver)
	return ver
}

func (s *ssaState) top(v ir.VRegID) int32 {
	st := s.stack[v]
	if len(st) == 0 {
		return 0
	}
	return st[len(st)-1]
}

func (s *ssaState) pop(v ir.VRegID) {
	st := s.stack[v]
	if len(st) > 0 {
		s.stack[v] = st[:len(st)-1]
	}
}

func rename(g *ir.Graph, dom *DomInfo, entry ir.BlockID) {
	state := newSSAState()
	children := make(map[ir.BlockID][]ir.BlockID)
	for _, b := range g.Blocks() {
		if b.ID == entry {
			continue
		}
		children[dom.Idom(b.ID)] = append(children[dom.Idom(b.ID)], b.ID)
	}

	var walk func(ir.BlockID)
	walk = func(bid ir.BlockID) {
		b := g.Block(bid)
		var defined []ir.VRegID

		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			if n.Op != ir.OpPhi {
				for i := range n.Operands {
					op := &n.Operands[i]
					if op.Residence == ir.ResVirtualRegister && !op.IsSSA() {
						parent := op.VReg
						op.SSAVersion = state.top(parent)
						op.SSAParent = parent
					}
				}
			}
			for i := 0; i < n.ResultCount; i++ {
				r := &n.Results[i]
				if r.Residence == ir.ResVirtualRegister {
					parent := r.VReg
					ver := state.push(parent)
					r.SSAVersion = ver
					r.SSAParent = parent
					defined = append(defined, parent)
				}
			}
		}

		for _, succ := range b.Succs {
			sb := g.Block(succ)
			predIdx := -1
			for i, p := range sb.Preds {
				if p == bid {
					predIdx = i
					break
				}
			}
			if predIdx < 0 {
				continue
			}
			for n := sb.First(); n != nil; n = n.Next() {
				if n.Empty || n.Op != ir.OpPhi {
					continue
				}
				parent := n.Results[0].SSAParent
				if parent == ir.NoVReg {
					parent = n.Results[0].VReg
				}
				n.Operands[predIdx] = ir.SSAOperand(parent, n.Results[0].Type, state.top(parent), parent)
			}
		}

		for _, c := range children[bid] {
			walk(c)
		}

		for _, v := range defined {
			state.pop(v)
		}
	}
	walk(entry)
}
