package ir

import (
	"testing"

	"mosa/internal/instr"
)

func TestNewGraphHasPreHeaderAndExit(t *testing.T) {
	g := NewGraph()
	if len(g.Blocks()) != 2 {
		t.Fatalf("expected 2 blocks on a fresh graph, got %d", len(g.Blocks()))
	}
	pre := g.Block(g.PreHeader)
	if pre == nil || !pre.IsPreHeader {
		t.Fatalf("expected PreHeader block to be marked IsPreHeader")
	}
	exit := g.Block(g.Exit)
	if exit == nil || !exit.IsExit {
		t.Fatalf("expected Exit block to be marked IsExit")
	}
}

func TestAppendBuildsLinkedList(t *testing.T) {
	g := NewGraph()
	b := g.NewBlock()

	n1 := NewNode(instr.OpNop, 0, 0)
	n2 := NewNode(instr.OpNop, 0, 0)
	g.Append(b, n1)
	g.Append(b, n2)

	if b.Len() != 2 {
		t.Fatalf("expected 2 nodes in block, got %d", b.Len())
	}
	if b.First() != n1 || b.Last() != n2 {
		t.Fatalf("expected head=n1 tail=n2")
	}
	if n1.Next() != n2 || n2.Prev() != n1 {
		t.Fatalf("expected n1<->n2 doubly linked")
	}
	if n1.Block() != b.ID {
		t.Fatalf("expected n1.Block() == %d, got %d", b.ID, n1.Block())
	}
}

func TestLiveTraversalSkipsEmptyNodes(t *testing.T) {
	g := NewGraph()
	b := g.NewBlock()

	n1 := NewNode(instr.OpNop, 0, 0)
	tomb := NewNode(instr.OpNop, 0, 0)
	tomb.Empty = true
	n2 := NewNode(instr.OpNop, 0, 0)

	g.Append(b, n1)
	g.Append(b, tomb)
	g.Append(b, n2)

	if b.Len() != 3 {
		t.Fatalf("expected 3 nodes including the tombstone, got %d", b.Len())
	}
	if b.FirstLive() != n1 {
		t.Fatalf("expected FirstLive to be n1")
	}
	if n1.NextLive() != n2 {
		t.Fatalf("expected NextLive to skip the empty tombstone")
	}
	if b.LastLive() != n2 {
		t.Fatalf("expected LastLive to be n2")
	}
}

func TestBlockLookupOutOfRange(t *testing.T) {
	g := NewGraph()
	if g.Block(BlockID(999)) != nil {
		t.Fatalf("expected nil for an out-of-range block id")
	}
	if g.Block(BlockID(-1)) != nil {
		t.Fatalf("expected nil for a negative block id")
	}
}

func TestPhisReturnsContiguousRunAtBlockTop(t *testing.T) {
	g := NewGraph()
	b := g.NewBlock()

	phi1 := NewNode(OpPhi, 1, 0)
	phi2 := NewNode(OpPhi, 1, 0)
	body := NewNode(instr.OpNop, 0, 0)

	g.Append(b, phi1)
	g.Append(b, phi2)
	g.Append(b, body)

	phis := b.Phis()
	if len(phis) != 2 || phis[0] != phi1 || phis[1] != phi2 {
		t.Fatalf("expected the two leading phis, got %v", phis)
	}
}
