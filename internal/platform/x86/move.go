package x86

import "mosa/internal/ir"

// NewMove implements platform.Platform.NewMove (and satisfies
// ssa.MoveEmitter); register allocation builds its spill and fill copies
// through it. It always returns a single scalar move from lowerMove:
// compound is ignored, so a multi-word value is not copied word by word
// here (an IR move.compound node is expanded by Lower instead).
func NewMove(dst, src ir.Operand, compound bool) *ir.Node {
	return lowerMove(dst, src)
}
