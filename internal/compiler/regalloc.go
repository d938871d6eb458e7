package compiler

import (
	"sort"

	"mosa/internal/ir"
	"mosa/internal/typesys"
)

// interval is one virtual register's live range over the global node
// numbering RegAllocStage assigns by walking blocks in graph order —
// an approximation of final layout order, same simplification the
// teacher's register allocator (vovakirdan-surge's internal/backend
// linear-scan pass) makes by numbering in emission order rather than
// waiting for a separate block-layout stage.
type interval struct {
	vreg       ir.VRegID
	typ        typesys.TypeID
	start, end int
}

// RegAllocStage is spec.md §4.4 stage 9: linear-scan register allocation
// over virtual registers, spilling to stack locals when the platform's
// register file is exhausted. Grounded on the classic Poletto/Sarkar
// linear-scan algorithm, expressed here the way the teacher expresses its
// own passes — a single forward walk driven by sorted interval lists.
type RegAllocStage struct{ baseStage }

func NewRegAllocStage() *RegAllocStage { return &RegAllocStage{baseStage{name: "regalloc"}} }

func (s *RegAllocStage) Run(m *Method) error {
	order, index := numberNodes(m.Graph)
	intervals := computeIntervals(m.Graph, index)
	if len(intervals) == 0 {
		return nil
	}

	pool := m.Platform.AllocatableRegisters()
	if len(pool) == 0 {
		return spillAll(m, intervals)
	}
	scratch := pool[len(pool)-1:]
	if len(pool) > 1 {
		scratch = pool[len(pool)-2:]
	}
	allocPool := pool[:len(pool)-len(scratch)]
	if len(allocPool) == 0 {
		allocPool = pool
		scratch = nil
	}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start < intervals[j].start })

	assigned := make(map[ir.VRegID]ir.CPURegID)
	spilled := make(map[ir.VRegID]ir.StackSlotID)
	var active []interval
	free := append([]ir.CPURegID(nil), allocPool...)
	var nextSlot ir.StackSlotID

	expire := func(point int) {
		kept := active[:0]
		for _, iv := range active {
			if iv.end < point {
				free = append(free, assigned[iv.vreg])
			} else {
				kept = append(kept, iv)
			}
		}
		active = kept
	}

	for _, iv := range intervals {
		expire(iv.start)
		if len(free) > 0 {
			reg := free[len(free)-1]
			free = free[:len(free)-1]
			assigned[iv.vreg] = reg
			active = append(active, iv)
			continue
		}
		// spill the active interval with the furthest end point,
		// per Poletto/Sarkar's spill heuristic.
		worstIdx := -1
		for i, a := range active {
			if worstIdx == -1 || a.end > active[worstIdx].end {
				worstIdx = i
			}
		}
		if worstIdx >= 0 && active[worstIdx].end > iv.end {
			worst := active[worstIdx]
			reg := assigned[worst.vreg]
			spilled[worst.vreg] = nextSlot
			nextSlot++
			delete(assigned, worst.vreg)
			assigned[iv.vreg] = reg
			active[worstIdx] = iv
		} else {
			spilled[iv.vreg] = nextSlot
			nextSlot++
		}
	}

	rewriteAssigned(m.Graph, assigned)
	if len(spilled) > 0 {
		rewriteSpilled(m, order, spilled, scratch)
	}
	return nil
}

func spillAll(m *Method, intervals []interval) error {
	spilled := make(map[ir.VRegID]ir.StackSlotID)
	var n ir.StackSlotID
	for _, iv := range intervals {
		spilled[iv.vreg] = n
		n++
	}
	order, _ := numberNodes(m.Graph)
	rewriteSpilled(m, order, spilled, nil)
	return nil
}

// numberNodes assigns every live node a monotonically increasing index in
// block-list order, and returns both the ordered slice and a lookup from
// node identity to index.
func numberNodes(g *ir.Graph) ([]*ir.Node, map[*ir.Node]int) {
	var order []*ir.Node
	index := make(map[*ir.Node]int)
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			index[n] = len(order)
			order = append(order, n)
		}
	}
	return order, index
}

// computeIntervals builds one interval per virtual register spanning its
// first definition to its last use, across the whole method (no interval
// splitting across loops — a linear-scan simplification the teacher's own
// allocator shares, per its single-pass live-range pass).
func computeIntervals(g *ir.Graph, index map[*ir.Node]int) []interval {
	ranges := make(map[ir.VRegID]*interval)
	touch := func(op ir.Operand, at int) {
		if op.Residence != ir.ResVirtualRegister {
			return
		}
		iv, ok := ranges[op.VReg]
		if !ok {
			iv = &interval{vreg: op.VReg, typ: op.Type, start: at, end: at}
			ranges[op.VReg] = iv
			return
		}
		if at < iv.start {
			iv.start = at
		}
		if at > iv.end {
			iv.end = at
		}
	}
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			at := index[n]
			for i := 0; i < n.ResultCount; i++ {
				touch(n.Results[i], at)
			}
			for _, op := range n.Operands {
				touch(op, at)
			}
		}
	}
	out := make([]interval, 0, len(ranges))
	for _, iv := range ranges {
		out = append(out, *iv)
	}
	return out
}

func rewriteAssigned(g *ir.Graph, assigned map[ir.VRegID]ir.CPURegID) {
	rewrite := func(op ir.Operand) ir.Operand {
		if op.Residence != ir.ResVirtualRegister {
			return op
		}
		if reg, ok := assigned[op.VReg]; ok {
			return ir.Operand{Residence: ir.ResCPURegister, Type: op.Type, CPUReg: reg}
		}
		return op
	}
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			for i := range n.Operands {
				n.Operands[i] = rewrite(n.Operands[i])
			}
			for i := 0; i < n.ResultCount; i++ {
				n.Results[i] = rewrite(n.Results[i])
			}
		}
	}
}

// rewriteSpilled replaces every remaining reference to a spilled virtual
// register with a reload into a reserved scratch physical register before
// its use, and a store back to its stack slot after its definition —
// the standard always-reload/always-store spill-code shape, using the
// scratch registers RegAllocStage.Run held back from the end of
// AllocatableRegisters' pool.
func rewriteSpilled(m *Method, order []*ir.Node, spilled map[ir.VRegID]ir.StackSlotID, scratch []ir.CPURegID) {
	g := m.Graph
	for _, n := range order {
		if n.Empty {
			continue
		}
		scratchIdx := 0
		nextScratch := func() ir.CPURegID {
			if len(scratch) == 0 {
				return 0
			}
			r := scratch[scratchIdx%len(scratch)]
			scratchIdx++
			return r
		}
		for i, op := range n.Operands {
			slot, ok := spilled[op.VReg]
			if op.Residence != ir.ResVirtualRegister || !ok {
				continue
			}
			reg := nextScratch()
			regOp := ir.Operand{Residence: ir.ResCPURegister, Type: op.Type, CPUReg: reg}
			stackOp := ir.Operand{Residence: ir.ResStackLocal, Type: op.Type, Slot: slot}
			compound := m.Layout != nil && m.Layout.IsStoredOnStack(op.Type)
			load := m.Platform.NewMove(regOp, stackOp, compound)
			g.InsertBefore(n, load)
			n.Operands[i] = regOp
		}
		for i := 0; i < n.ResultCount; i++ {
			slot, ok := spilled[n.Results[i].VReg]
			if n.Results[i].Residence != ir.ResVirtualRegister || !ok {
				continue
			}
			t := n.Results[i].Type
			reg := nextScratch()
			regOp := ir.Operand{Residence: ir.ResCPURegister, Type: t, CPUReg: reg}
			stackOp := ir.Operand{Residence: ir.ResStackLocal, Type: t, Slot: slot}
			compound := m.Layout != nil && m.Layout.IsStoredOnStack(t)
			n.Results[i] = regOp
			store := m.Platform.NewMove(stackOp, regOp, compound)
			g.InsertAfter(n, store)
		}
	}
}
