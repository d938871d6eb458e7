package opt

import (
	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/typesys"
)

// Callee is a candidate for inlining: a method's already-compiled IR graph
// (pre-SSA-deconstruction, so Leave-SSA still runs once over the combined
// result) plus its virtual-register table. Inline asks the CalleeProvider
// for it by the linker symbol the caller's OpCall target operand carries
// in its Symbol field.
type Callee struct {
	Method typesys.MethodID
	Graph  *ir.Graph
	VRegs  *ir.VRegTable
	Params []ir.VRegID
}

// CalleeProvider resolves a call target's linker symbol to its compiled
// body. compiler.BuildPipeline passes on whatever provider its caller
// gives it; internal/compiler has no implementation of its own, and the
// mosa CLI passes nil, so Inline leaves every call in place there.
type CalleeProvider interface {
	Callee(symbol string) (Callee, bool)
}

// maxInlineNodes caps how large a callee can be before Inline gives up on
// it: splicing a large callee's block list into every call site would grow
// the method faster than it could ever pay for itself in removed call
// overhead.
const maxInlineNodes = 24

// Inline replaces OpCall nodes whose target resolves to a small,
// single-block, branch-free callee with a direct copy of the callee's body,
// renaming every virtual register through vregs so there is no collision
// with the caller's own numbering (spec.md §4.4 stage 4 "inlining"). Calls
// to virtual/interface targets, multi-block callees, and callees the
// provider doesn't know about are left untouched — devirtualizing a call is
// a separate, harder analysis this pass does not attempt. Returns how many
// call sites were inlined.
func Inline(g *ir.Graph, vregs *ir.VRegTable, provider CalleeProvider) int {
	if provider == nil {
		return 0
	}
	n := 0
	for _, b := range g.Blocks() {
		for node := b.First(); node != nil; node = node.Next() {
			if node.Empty || node.Op != instr.OpCall {
				continue
			}
			target := node.Operands[0]
			if target.Residence != ir.ResSymbol {
				continue
			}
			callee, ok := provider.Callee(target.Symbol)
			if !ok || !inlinable(callee.Graph) {
				continue
			}
			inlineCallSite(g, vregs, node, callee)
			n++
		}
	}
	return n
}

// inlinable reports whether callee is a single real block (ignoring the
// synthetic pre-header/exit pair every graph carries) ending in a plain
// return, with no internal branch — the only shape this pass splices
// without having to rewire block edges at the call site.
func inlinable(g *ir.Graph) bool {
	var body []*ir.Block
	for _, b := range g.Blocks() {
		if b.IsPreHeader || b.IsExit {
			continue
		}
		body = append(body, b)
	}
	if len(body) != 1 {
		return false
	}
	b := body[0]
	if b.Len() > maxInlineNodes {
		return false
	}
	term := b.LastLive()
	return term != nil && term.Op == instr.OpReturn
}

// inlineCallSite splices callee's single block's live nodes in before node,
// renaming every virtual register it defines or uses to a fresh register in
// the caller's table, binding the call's arguments to the callee's
// parameters with ordinary moves, and rewriting the callee's return value
// into a move to the call's own result.
func inlineCallSite(g *ir.Graph, vregs *ir.VRegTable, node *ir.Node, callee Callee) {
	rename := make(map[ir.VRegID]ir.VRegID)
	remap := func(op ir.Operand) ir.Operand {
		if op.Residence != ir.ResVirtualRegister {
			return op
		}
		fresh, ok := rename[op.VReg]
		if !ok {
			fresh = vregs.New(callee.VRegs.Type(op.VReg))
			rename[op.VReg] = fresh
		}
		return ir.VRegOperand(fresh, op.Type)
	}

	args := node.Operands[1:]
	for i, p := range callee.Params {
		if i >= len(args) {
			break
		}
		mov := ir.NewNode(instr.OpMove, 1, 1)
		mov.Results[0] = remap(ir.VRegOperand(p, callee.VRegs.Type(p)))
		mov.Operands[0] = args[i]
		g.InsertBefore(node, mov)
	}

	body := bodyBlock(callee.Graph)
	for n := body.First(); n != nil; n = n.Next() {
		if n.Empty {
			continue
		}
		if n.Op == instr.OpReturn {
			if len(n.Operands) == 1 && node.ResultCount == 1 {
				mov := ir.NewNode(instr.OpMove, 1, 1)
				mov.Results[0] = node.Results[0]
				mov.Operands[0] = remap(n.Operands[0])
				g.InsertBefore(node, mov)
			}
			continue
		}
		clone := ir.NewNode(n.Op, n.ResultCount, len(n.Operands))
		for i, o := range n.Operands {
			clone.Operands[i] = remap(o)
		}
		for i := 0; i < n.ResultCount; i++ {
			clone.Results[i] = remap(n.Results[i])
		}
		clone.AssocType = n.AssocType
		g.InsertBefore(node, clone)
	}
	ir.Empty(node)
}

func bodyBlock(g *ir.Graph) *ir.Block {
	for _, b := range g.Blocks() {
		if !b.IsPreHeader && !b.IsExit {
			return b
		}
	}
	return nil
}
