package ssa

import (
	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/layout"
)

// terminatorOpcodes are the opcodes a "terminator group" (spec.md §4.5) may
// consist of: copies for a phi's incoming edge are inserted immediately
// before this trailing contiguous run. This package's init registers the
// IR-level jump, compare-branch and switch opcodes; platform packages
// register their own conditional-branch and jump opcodes the same way via
// RegisterTerminatorOpcode.
var terminatorOpcodes = make(map[instr.Opcode]bool)

func init() {
	for _, op := range []instr.Opcode{instr.OpJmp, instr.OpCompareIntBranch, instr.OpCompareFloatBranch, instr.OpSwitch} {
		RegisterTerminatorOpcode(op)
	}
}

// RegisterTerminatorOpcode marks op as a member of the "terminator group"
// Leave must insert phi-resolution copies before.
func RegisterTerminatorOpcode(op instr.Opcode) { terminatorOpcodes[op] = true }

func isTerminatorOp(op instr.Opcode) bool { return terminatorOpcodes[op] }

// MoveEmitter supplies the platform-specific scalar and compound move
// opcodes Leave-SSA needs to materialize phi-resolution copies (spec.md
// §4.5: "If IsStoredOnStack(type) use MoveCompound; else use the
// type-appropriate scalar move").
type MoveEmitter interface {
	// NewMove returns a fresh node computing dst <- src, using a compound
	// move when compound is true.
	NewMove(dst, src ir.Operand, compound bool) *ir.Node
}

// Leave eliminates SSA form from g: every phi is replaced by copies on each
// incoming edge, then every SSA operand is rewritten to its non-SSA
// replacement (spec.md §4.5). vregs is the method's virtual-register table,
// used to allocate the fresh non-SSA registers SSA versions above 0 need.
func Leave(g *ir.Graph, vregs *ir.VRegTable, tl *layout.MosaTypeLayout, mv MoveEmitter) error {
	replacement := make(map[ir.VRegID]map[int32]ir.Operand)

	lookup := func(op ir.Operand) ir.Operand {
		if op.Residence != ir.ResVirtualRegister || !op.IsSSA() {
			return op
		}
		if op.SSAVersion == 0 {
			return ir.VRegOperand(op.SSAParent, op.Type)
		}
		byVer, ok := replacement[op.SSAParent]
		if !ok {
			byVer = make(map[int32]ir.Operand)
			replacement[op.SSAParent] = byVer
		}
		repl, ok := byVer[op.SSAVersion]
		if !ok {
			repl = ir.VRegOperand(vregs.New(op.Type), op.Type)
			byVer[op.SSAVersion] = repl
		}
		return repl
	}

	for _, b := range g.Blocks() {
		phis := b.Phis()
		for _, phi := range phis {
			dst := lookup(phi.Results[0])
			for i, srcRaw := range phi.Operands {
				src := lookup(srcRaw)
				if src.Same(dst) {
					continue
				}
				predID := phi.PhiBlocks[i]
				pred := g.Block(predID)
				compound := false
				if tl != nil {
					compound = tl.IsStoredOnStack(dst.Type)
				}
				copyNode := mv.NewMove(dst, src, compound)
				insertBeforeTerminatorGroup(g, pred, copyNode)
			}
			ir.Empty(phi)
		}
	}

	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			for i := range n.Operands {
				n.Operands[i] = lookup(n.Operands[i])
			}
			for i := 0; i < n.ResultCount; i++ {
				n.Results[i] = lookup(n.Results[i])
			}
		}
	}

	return nil
}

// insertBeforeTerminatorGroup splices n immediately before the block's
// trailing contiguous run of terminator-group opcodes (spec.md §4.5).
func insertBeforeTerminatorGroup(g *ir.Graph, b *ir.Block, n *ir.Node) {
	cursor := b.LastLive()
	if cursor == nil || !isTerminatorOp(cursor.Op) {
		g.Append(b, n)
		return
	}
	for {
		prev := cursor.PrevLive()
		if prev == nil || !isTerminatorOp(prev.Op) {
			break
		}
		cursor = prev
	}
	g.InsertBefore(cursor, n)
}

// freshAllocator hands out virtual register IDs counting upward from
// 1<<20. Nothing in this package calls it: Leave takes the fresh non-SSA
// registers SSA versions above 0 need from the method's ir.VRegTable.
type freshAllocator struct{ n ir.VRegID }

func newFreshAllocator() *freshAllocator { return &freshAllocator{n: 1 << 20} }

func (f *freshAllocator) next() ir.VRegID {
	f.n++
	return f.n
}
