package ssa

import (
	"testing"

	"mosa/internal/ir"
)

// buildDiamond wires entry -> {left, right} -> merge, returning the block IDs.
func buildDiamond(g *ir.Graph) (entry, left, right, merge ir.BlockID) {
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

func TestDominanceDiamond(t *testing.T) {
	g := ir.NewGraph()
	entry, left, right, merge := buildDiamond(g)

	info := Compute(g, entry)

	if info.Idom(left) != entry {
		t.Fatalf("expected entry to idom left, got %v", info.Idom(left))
	}
	if info.Idom(right) != entry {
		t.Fatalf("expected entry to idom right, got %v", info.Idom(right))
	}
	if info.Idom(merge) != entry {
		t.Fatalf("expected entry to idom merge (neither arm alone dominates it), got %v", info.Idom(merge))
	}
	if !info.Dominates(entry, merge) {
		t.Fatalf("expected entry to dominate merge")
	}
	if info.Dominates(left, merge) {
		t.Fatalf("left does not dominate merge since right bypasses it")
	}
}

func TestDominanceFrontierAtDiamondMerge(t *testing.T) {
	g := ir.NewGraph()
	entry, left, right, merge := buildDiamond(g)

	info := Compute(g, entry)

	leftFrontier := info.Frontier(left)
	if len(leftFrontier) != 1 || leftFrontier[0] != merge {
		t.Fatalf("expected left's dominance frontier to be {merge}, got %v", leftFrontier)
	}
	rightFrontier := info.Frontier(right)
	if len(rightFrontier) != 1 || rightFrontier[0] != merge {
		t.Fatalf("expected right's dominance frontier to be {merge}, got %v", rightFrontier)
	}
}
