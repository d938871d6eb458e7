// Package platform defines the architecture-abstracted interface the
// stage pipeline's lowering, tweak, fixed-register-assignment, and
// emission stages (spec.md §4.4 stages 6-8, §4.6) drive through. Each
// concrete platform (internal/platform/x86, internal/platform/arm)
// implements Platform once at init time and is otherwise read-only,
// mirroring the teacher's (vovakirdan-surge) per-target backend split
// between internal/backend/llvm (one emitter) and internal/vm (another) —
// generalized here to a common interface both native backends satisfy.
package platform

import (
	"bytes"

	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/layout"
	"mosa/internal/linker"
)

// EncodeContext carries what an instruction encoder needs beyond the node
// itself: the linker to request relocations through, the enclosing
// method's own symbol name (so self-relative relocations can name
// InSymbol), and the node's byte offset within that symbol's stream.
type EncodeContext struct {
	Linker linker.AssemblyLinker
	Symbol string
	Offset int

	// BlockSymbol resolves a branch/jump target's block within the
	// enclosing method to the linker symbol internal/emit registered for
	// that block's first byte, so Encode can request a relocation without
	// knowing the emitter's symbol-naming scheme.
	BlockSymbol func(ir.BlockID) string
}

// Platform is the architecture-specific back half of the pipeline: it owns
// an instr.Table of lowered opcodes, lowers generic IR nodes to them
// (stage 6), enforces encoding constraints (stage 7), binds
// fixed-physical-register operands (stage 8), supplies the allocatable
// register file for linear-scan (stage 9), and encodes nodes to bytes plus
// relocation requests (§4.6).
type Platform interface {
	Name() string
	Table() *instr.Table

	// PointerSize is the pointer width in bytes this platform reports (4
	// for both the x86 and the ARM platform here); StackLayoutStage uses
	// it as the size of one stack slot when computing the frame size.
	PointerSize() int

	// Lower replaces every generic IR node in g with one or more
	// platform-specific instruction nodes (spec.md §4.4 stage 6:
	// "one-to-one or one-to-many mapping").
	Lower(g *ir.Graph, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) error

	// Tweak enforces target encoding constraints after lowering (spec.md
	// §4.4 stage 7): e.g. moving constants into virtual registers before
	// Cmp, coercing shift-count constants to 8-bit, splitting calls whose
	// target is a non-symbol non-register operand through a virtual
	// register.
	Tweak(g *ir.Graph, vregs *ir.VRegTable) error

	// AssignFixedRegisters binds operands constrained to specific
	// physical registers (spec.md §4.4 stage 8): shift-by-CL, call return
	// in EAX:EDX, and similar ABI pins.
	AssignFixedRegisters(g *ir.Graph) error

	// AllocatableRegisters lists the general-purpose physical registers
	// linear-scan (stage 9) may assign, in preference order.
	AllocatableRegisters() []ir.CPURegID

	// RegisterName renders a physical register for disassembly/trace
	// output.
	RegisterName(r ir.CPURegID) string

	// NewMove builds a dst <- src copy node in this platform's own
	// instruction table; register allocation uses it for spill and fill
	// copies. compound marks a value MosaTypeLayout.IsStoredOnStack
	// reports true for; the x86 and ARM implementations ignore it and
	// build one scalar move.
	NewMove(dst, src ir.Operand, compound bool) *ir.Node

	// Encode writes n's encoded bytes to buf and requests any
	// relocations n's symbol/address operands need through ctx.Linker
	// (spec.md §4.6).
	Encode(n *ir.Node, buf *bytes.Buffer, ctx EncodeContext) error
}
