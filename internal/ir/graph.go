package ir

import "mosa/internal/instr"

// Graph owns one method's block list plus the intrusive node pool backing
// it. Node/Block mutation always goes through Graph so prev/next/block
// bookkeeping stays consistent (spec.md §4.2 "Operations").
type Graph struct {
	blocks    []*Block
	nextBlock BlockID

	PreHeader BlockID
	Exit      BlockID
}

// NewGraph creates an empty graph with a pre-header and exit block already
// present, per spec.md §3.
func NewGraph() *Graph {
	g := &Graph{nextBlock: 0}
	pre := g.NewBlock()
	pre.IsPreHeader = true
	g.PreHeader = pre.ID
	exit := g.NewBlock()
	exit.IsExit = true
	g.Exit = exit.ID
	return g
}

// NewBlock appends a fresh, empty block to the graph.
func (g *Graph) NewBlock() *Block {
	b := &Block{ID: g.nextBlock}
	g.nextBlock++
	g.blocks = append(g.blocks, b)
	return b
}

// Block returns the block with the given ID, or nil.
func (g *Graph) Block(id BlockID) *Block {
	if g == nil || id < 0 || int(id) >= len(g.blocks) {
		return nil
	}
	return g.blocks[id]
}

// Blocks returns every block in creation order.
func (g *Graph) Blocks() []*Block { return g.blocks }

// NewNode allocates a node with the given result and operand counts; it does
// not consult any instruction table. It is not yet attached to any block.
func NewNode(op instr.Opcode, resultCount, operandCount int) *Node {
	return &Node{Op: op, ResultCount: resultCount, Operands: make([]Operand, operandCount)}
}

// Append adds n at the end of b's list.
func (g *Graph) Append(b *Block, n *Node) {
	n.block = b.ID
	if b.tail == nil {
		b.head, b.tail = n, n
		return
	}
	n.prev = b.tail
	b.tail.next = n
	b.tail = n
}

// Prepend adds n at the start of b's list (used to keep phis contiguous at
// the top, per spec.md §4.2).
func (g *Graph) Prepend(b *Block, n *Node) {
	n.block = b.ID
	if b.head == nil {
		b.head, b.tail = n, n
		return
	}
	n.next = b.head
	b.head.prev = n
	b.head = n
}

// InsertBefore splices n immediately before cursor.
func (g *Graph) InsertBefore(cursor, n *Node) {
	b := g.Block(cursor.block)
	n.block = cursor.block
	n.prev = cursor.prev
	n.next = cursor
	if cursor.prev != nil {
		cursor.prev.next = n
	} else {
		b.head = n
	}
	cursor.prev = n
}

// InsertAfter splices n immediately after cursor.
func (g *Graph) InsertAfter(cursor, n *Node) {
	b := g.Block(cursor.block)
	n.block = cursor.block
	n.next = cursor.next
	n.prev = cursor
	if cursor.next != nil {
		cursor.next.prev = n
	} else {
		b.tail = n
	}
	cursor.next = n
}

// Empty turns n into a no-op placeholder in place, preserving its position
// so intrusive iterators held by other passes stay valid (spec.md §5
// "Resource discipline": later stages reuse empty-node slots rather than
// freeing them).
func Empty(n *Node) {
	n.Op = 0
	n.Results = [2]Operand{}
	n.ResultCount = 0
	n.Operands = nil
	n.PhiBlocks = nil
	n.Empty = true
}

// SplitAt splits b into two blocks at cursor: nodes from cursor onward move
// into a freshly created successor block, which inherits b's outgoing
// edges and the original terminator. Used to materialize protected-region
// boundaries (spec.md §4.4 stage 2).
func (g *Graph) SplitAt(b *Block, cursor *Node) *Block {
	tail := g.NewBlock()
	if cursor == nil {
		return tail
	}
	tail.head = cursor
	tail.tail = b.tail
	if cursor.prev != nil {
		cursor.prev.next = nil
		b.tail = cursor.prev
	} else {
		b.head, b.tail = nil, nil
	}
	cursor.prev = nil
	for n := tail.head; n != nil; n = n.next {
		n.block = tail.ID
	}
	tail.Succs = b.Succs
	b.Succs = []BlockID{tail.ID}
	return tail
}

// ComputeEdges recomputes Preds/Succs for every block from each block's
// effective terminator. Terminator target blocks are supplied by callers
// via the targets callback since Graph itself carries
// no opcode-specific knowledge of which operand slot holds a branch
// target.
func (g *Graph) ComputeEdges(targets func(term *Node) []BlockID) {
	for _, b := range g.blocks {
		b.Succs = nil
	}
	for _, b := range g.blocks {
		b.Preds = nil
	}
	for _, b := range g.blocks {
		term := b.LastLive()
		if term == nil {
			continue
		}
		succs := targets(term)
		b.Succs = succs
		for _, s := range succs {
			if sb := g.Block(s); sb != nil {
				sb.Preds = append(sb.Preds, b.ID)
			}
		}
	}
}
