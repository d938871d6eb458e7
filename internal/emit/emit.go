// Package emit implements the code emitter (spec.md §4.6): it walks a
// finished IR graph in block order, hands each node to the platform's
// encoder, streams the resulting bytes through the linker, and records
// per-node section offsets for debug maps. Modeled on the teacher's
// (vovakirdan-surge) internal/backend/llvm writer — one pass per method
// that allocates a linker symbol up front and then streams instruction
// bytes through it — generalized from LLVM IR text to platform-native
// byte encoding.
package emit

import (
	"bytes"
	"fmt"

	"mosa/internal/ir"
	"mosa/internal/linker"
	"mosa/internal/platform"
)

// NodeOffset records where one instruction node's bytes landed within its
// method's symbol, for debug maps (spec.md §4.6 "Record the final section
// offset for each node").
type NodeOffset struct {
	Node   *ir.Node
	Offset int
}

// Result is everything CodeEmitter.Emit produces for one method.
type Result struct {
	Symbol      string
	Size        int
	NodeOffsets []NodeOffset
	// BlockSymbols maps each block to the linker symbol name Emit
	// registered for its first byte, the same table EncodeContext's
	// BlockSymbol callback resolves branch targets through.
	BlockSymbols map[ir.BlockID]string
}

// CodeEmitter drives spec.md §4.6 over one platform's encoder.
type CodeEmitter struct {
	Platform platform.Platform
	Linker   linker.AssemblyLinker
}

func New(p platform.Platform, l linker.AssemblyLinker) *CodeEmitter {
	return &CodeEmitter{Platform: p, Linker: l}
}

// Emit encodes every live node of g, in block order, into a single
// contiguous byte stream allocated under symbol in the text section, and
// returns the per-node and per-block offset tables the linker/debug layer
// need. Each node's result/operand counts are asserted against its
// descriptor before encoding, per spec.md §4.6.
func (e *CodeEmitter) Emit(symbol string, g *ir.Graph) (*Result, error) {
	table := e.Platform.Table()
	blockSyms := make(map[ir.BlockID]string, len(g.Blocks()))
	for _, b := range g.Blocks() {
		if b.IsPreHeader || b.IsExit {
			continue
		}
		blockSyms[b.ID] = fmt.Sprintf("%s$block%d", symbol, b.ID)
	}

	var buf bytes.Buffer
	var offsets []NodeOffset
	ctx := platform.EncodeContext{
		Linker: e.Linker,
		Symbol: symbol,
		BlockSymbol: func(id ir.BlockID) string { return blockSyms[id] },
	}

	for _, b := range g.Blocks() {
		if b.IsPreHeader || b.IsExit {
			continue
		}
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			desc, ok := table.Lookup(n.Op)
			if !ok {
				return nil, fmt.Errorf("emit: opcode %d has no descriptor", n.Op)
			}
			if n.ResultCount != desc.DefaultResultCount || len(n.Operands) != desc.DefaultOperandCount {
				return nil, fmt.Errorf("emit: node %v arity %d/%d does not match descriptor %s (%d/%d)",
					n.Op, n.ResultCount, len(n.Operands), desc.Name, desc.DefaultResultCount, desc.DefaultOperandCount)
			}
			ctx.Offset = buf.Len()
			offsets = append(offsets, NodeOffset{Node: n, Offset: ctx.Offset})
			if err := e.Platform.Encode(n, &buf, ctx); err != nil {
				return nil, fmt.Errorf("emit: %s at offset %d: %w", desc.Name, ctx.Offset, err)
			}
		}
	}

	w, err := e.Linker.Allocate(symbol, linker.SectionText, buf.Len(), 4)
	if err != nil {
		return nil, fmt.Errorf("emit: allocate %s: %w", symbol, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("emit: write %s: %w", symbol, err)
	}

	return &Result{
		Symbol:       symbol,
		Size:         buf.Len(),
		NodeOffsets:  offsets,
		BlockSymbols: blockSyms,
	}, nil
}
