package x86

import (
	"bytes"

	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/layout"
	"mosa/internal/platform"
	"mosa/internal/ssa"
)

func init() {
	ssa.RegisterTerminatorOpcode(OpJmp)
	ssa.RegisterTerminatorOpcode(OpRet)
	for _, op := range []instr.Opcode{OpJe, OpJne, OpJl, OpJge, OpJle, OpJg, OpJb, OpJae, OpJbe, OpJa} {
		ssa.RegisterTerminatorOpcode(op)
	}
}

// Platform32 is the 32-bit x86 platform.Platform implementation (spec.md
// §4.6).
type Platform32 struct{}

// New returns the 32-bit x86 platform.
func New() *Platform32 { return &Platform32{} }

func (Platform32) Name() string { return "x86" }

func (Platform32) Table() *instr.Table { return Table() }

func (Platform32) PointerSize() int { return 4 }

func (Platform32) Lower(g *ir.Graph, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) error {
	return Lower(g, vregs, tl)
}

func (Platform32) Tweak(g *ir.Graph, vregs *ir.VRegTable) error {
	return Tweak(g, vregs)
}

func (Platform32) AssignFixedRegisters(g *ir.Graph) error {
	return AssignFixedRegisters(g)
}

func (Platform32) AllocatableRegisters() []ir.CPURegID { return allocatable }

func (Platform32) RegisterName(r ir.CPURegID) string { return regNames[r] }

func (Platform32) NewMove(dst, src ir.Operand, compound bool) *ir.Node {
	return NewMove(dst, src, compound)
}

func (Platform32) Encode(n *ir.Node, buf *bytes.Buffer, ctx platform.EncodeContext) error {
	return Encode(n, buf, ctx)
}

var _ platform.Platform = Platform32{}
