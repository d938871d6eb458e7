// Package ssa implements SSA construction and Leave-SSA (spec.md §4.4
// stage 3, §4.5): phi insertion at dominance frontiers, virtual-register
// renaming, and the reverse transform that eliminates phis before platform
// lowering. Modeled on the teacher's (vovakirdan-surge) internal/mir
// control-flow utilities (internal/mir/simplify_cfg.go's block-graph
// walking style), generalized to the dominance machinery spec.md requires
// that the teacher's MIR — already SSA-free by construction — never needed.
package ssa

import "mosa/internal/ir"

// DomInfo holds a computed dominator tree plus the per-block dominance
// frontier sets SSA construction inserts phis from.
type DomInfo struct {
	order    []ir.BlockID // reverse postorder
	idom     map[ir.BlockID]ir.BlockID
	frontier map[ir.BlockID][]ir.BlockID
}

// Idom returns b's immediate dominator, or NoBlockID for the entry block.
func (d *DomInfo) Idom(b ir.BlockID) ir.BlockID {
	if d == nil {
		return ir.NoBlockID
	}
	if v, ok := d.idom[b]; ok {
		return v
	}
	return ir.NoBlockID
}

// Frontier returns b's dominance frontier.
func (d *DomInfo) Frontier(b ir.BlockID) []ir.BlockID {
	if d == nil {
		return nil
	}
	return d.frontier[b]
}

// Dominates reports whether a dominates b (reflexively).
func (d *DomInfo) Dominates(a, b ir.BlockID) bool {
	if d == nil {
		return a == b
	}
	for cur := b; cur != ir.NoBlockID; cur = d.Idom(cur) {
		if cur == a {
			return true
		}
		if cur == d.Idom(cur) {
			break
		}
	}
	return a == b
}

// Compute builds the dominator tree and dominance frontiers for g, entered
// at entry, using the standard Cooper/Harvey/Kennedy iterative algorithm
// (simple and adequate at method-sized graphs; spec.md does not mandate a
// specific algorithm).
func Compute(g *ir.Graph, entry ir.BlockID) *DomInfo {
	order, postIdx := reversePostorder(g, entry)

	idom := map[ir.BlockID]ir.BlockID{entry: entry}
	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom ir.BlockID = ir.NoBlockID
			blk := g.Block(b)
			for _, p := range blk.Preds {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == ir.NoBlockID {
					newIdom = p
					continue
				}
				newIdom = intersect(idom, postIdx, newIdom, p)
			}
			if newIdom != ir.NoBlockID && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, entry)

	frontier := make(map[ir.BlockID][]ir.BlockID)
	for _, b := range order {
		blk := g.Block(b)
		if len(blk.Preds) < 2 {
			continue
		}
		for _, p := range blk.Preds {
			runner := p
			for runner != idom[b] && runner != entry {
				frontier[runner] = appendUnique(frontier[runner], b)
				next, ok := idom[runner]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}

	return &DomInfo{order: order, idom: idom, frontier: frontier}
}

func appendUnique(s []ir.BlockID, v ir.BlockID) []ir.BlockID {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func intersect(idom map[ir.BlockID]ir.BlockID, postIdx map[ir.BlockID]int, a, b ir.BlockID) ir.BlockID {
	for a != b {
		for postIdx[a] > postIdx[b] {
			a = idom[a]
		}
		for postIdx[b] > postIdx[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(g *ir.Graph, entry ir.BlockID) ([]ir.BlockID, map[ir.BlockID]int) {
	var post []ir.BlockID
	visited := make(map[ir.BlockID]bool)
	var visit func(ir.BlockID)
	visit = func(b ir.BlockID) {
		if visited[b] {
			return
		}
		visited[b] = true
		blk := g.Block(b)
		if blk != nil {
			for _, s := range blk.Succs {
				visit(s)
			}
		}
		post = append(post, b)
	}
	visit(entry)

	order := make([]ir.BlockID, len(post))
	idx := make(map[ir.BlockID]int, len(post))
	for i, b := range post {
		rp := len(post) - 1 - i
		order[rp] = b
		idx[b] = rp
	}
	return order, idx
}
