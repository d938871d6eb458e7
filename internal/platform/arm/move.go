package arm

import "mosa/internal/ir"

// NewMove implements platform.Platform.NewMove (and satisfies
// ssa.MoveEmitter). Like the x86 version it ignores compound and always
// returns a single scalar move.
func NewMove(dst, src ir.Operand, compound bool) *ir.Node {
	return lowerMove(dst, src)
}
