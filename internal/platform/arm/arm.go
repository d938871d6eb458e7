package arm

import (
	"bytes"

	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/layout"
	"mosa/internal/platform"
	"mosa/internal/ssa"
)

func init() {
	ssa.RegisterTerminatorOpcode(OpB)
	ssa.RegisterTerminatorOpcode(OpBxLR)
	for _, op := range []instr.Opcode{OpBeq, OpBne, OpBlt, OpBge, OpBle, OpBgt, OpBlo, OpBhs, OpBls, OpBhi} {
		ssa.RegisterTerminatorOpcode(op)
	}
}

// Platform is the representative ARMv6/v8 platform.Platform
// implementation (spec.md §4.6). A single type serves both ARMv6 and
// ARMv8 since this subset doesn't touch the instructions that differ
// between them (NEON, 64-bit extension registers); layout.Target's own
// ARMv6()/ARMv8() split already carries the pointer-size/alignment
// distinction that does matter here.
type Platform struct{}

// New returns the ARM platform.
func New() *Platform { return &Platform{} }

func (Platform) Name() string { return "arm" }

func (Platform) Table() *instr.Table { return Table() }

func (Platform) PointerSize() int { return 4 }

func (Platform) Lower(g *ir.Graph, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) error {
	return Lower(g, vregs, tl)
}

func (Platform) Tweak(g *ir.Graph, vregs *ir.VRegTable) error {
	return Tweak(g, vregs)
}

func (Platform) AssignFixedRegisters(g *ir.Graph) error {
	return AssignFixedRegisters(g)
}

func (Platform) AllocatableRegisters() []ir.CPURegID { return allocatable }

func (Platform) RegisterName(r ir.CPURegID) string { return regNames[r] }

func (Platform) NewMove(dst, src ir.Operand, compound bool) *ir.Node {
	return NewMove(dst, src, compound)
}

func (Platform) Encode(n *ir.Node, buf *bytes.Buffer, ctx platform.EncodeContext) error {
	return Encode(n, buf, ctx)
}

var _ platform.Platform = Platform{}
