package ir

// Block is a basic block: a doubly-linked node list with a single entry
// (first live node) and single exit terminator (last live node), plus
// incoming/outgoing edges computed from terminators (spec.md §3, §4.2).
type Block struct {
	ID   BlockID
	head *Node
	tail *Node

	Preds []BlockID
	Succs []BlockID

	// IsPreHeader/IsExit mark the two synthetic blocks the graph
	// construction adds (spec.md §3 "unique pre-header and ... exit
	// block added during construction").
	IsPreHeader bool
	IsExit      bool
}

// First returns the block's first node (including empty placeholders).
func (b *Block) First() *Node {
	if b == nil {
		return nil
	}
	return b.head
}

// Last returns the block's last node — the terminator when the block is
// well-formed.
func (b *Block) Last() *Node {
	if b == nil {
		return nil
	}
	return b.tail
}

// FirstLive returns the first non-empty node.
func (b *Block) FirstLive() *Node {
	for n := b.First(); n != nil; n = n.Next() {
		if !n.Empty {
			return n
		}
	}
	return nil
}

// LastLive returns the last non-empty node — the block's effective
// terminator.
func (b *Block) LastLive() *Node {
	for n := b.Last(); n != nil; n = n.Prev() {
		if !n.Empty {
			return n
		}
	}
	return nil
}

// Len counts every node in the block, including empty placeholders.
func (b *Block) Len() int {
	n := 0
	for cur := b.First(); cur != nil; cur = cur.Next() {
		n++
	}
	return n
}

// Phis returns the contiguous run of Phi nodes at the top of the block
// (spec.md §4.2 "Phi nodes appear only at the top of blocks, contiguous").
func (b *Block) Phis() []*Node {
	var out []*Node
	for n := b.FirstLive(); n != nil; n = n.NextLive() {
		if n.Op != OpPhi {
			break
		}
		out = append(out, n)
	}
	return out
}
