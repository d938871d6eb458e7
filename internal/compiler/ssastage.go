package compiler

import (
	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/merr"
	"mosa/internal/ssa"
)

// SSAConstructStage is spec.md §4.4 stage 3: phi insertion and renaming
// into SSA form. Grounded on internal/ssa/construct.go.
type SSAConstructStage struct{ baseStage }

func NewSSAConstructStage() *SSAConstructStage {
	return &SSAConstructStage{baseStage{name: "ssa-construct"}}
}

func (s *SSAConstructStage) Run(m *Method) error {
	ssa.Construct(m.Graph, m.Graph.PreHeader)
	m.IsInSSAForm = true
	return nil
}

// SSALeaveStage is spec.md §4.5: phi elimination and SSA-version removal,
// run after optimization and before platform lowering so lowering only
// ever sees plain virtual registers. Grounded on internal/ssa/leave.go.
type SSALeaveStage struct{ baseStage }

func NewSSALeaveStage() *SSALeaveStage { return &SSALeaveStage{baseStage{name: "ssa-leave"}} }

func (s *SSALeaveStage) Run(m *Method) error {
	if err := ssa.Leave(m.Graph, m.VRegs, m.Layout, irMoves{}); err != nil {
		return merr.Invariant("ssa-leave", m.Symbol, "%v", err)
	}
	m.IsInSSAForm = false
	return nil
}

// irMoves builds Leave-SSA's phi copies as generic IR moves (move.compound
// for values kept on the stack, move otherwise), so the lowering stage
// that follows expands them like any other IR node.
type irMoves struct{}

func (irMoves) NewMove(dst, src ir.Operand, compound bool) *ir.Node {
	op := instr.OpMove
	if compound {
		op = instr.OpMoveCompound
	}
	n := ir.NewNode(op, 1, 1)
	n.Results[0] = dst
	n.Operands[0] = src
	n.AssocType = dst.Type
	return n
}
