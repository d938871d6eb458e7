package compiler

import (
	"testing"

	"mosa/internal/ir"
	"mosa/internal/platform/x86"
	"mosa/internal/typesys"
)

// TestRegAllocEliminatesVirtualRegisters reproduces spec.md §8's universal
// invariant "∀ method after register allocation: every operand residence
// is physical register, constant, or stack-local — no virtual registers
// remain." It builds a block with more simultaneously live virtual
// registers (6) than x86's allocatable pool after scratch reservation (4),
// forcing at least one spill, then checks no ResVirtualRegister operand
// survives.
func TestRegAllocEliminatesVirtualRegisters(t *testing.T) {
	const n = 6
	g := ir.NewGraph()
	b := g.NewBlock()

	vregs := make([]ir.VRegID, n)
	for i := 0; i < n; i++ {
		vregs[i] = ir.VRegID(i + 1)
		def := ir.NewNode(x86.OpMovRI32, 1, 1)
		def.Results[0] = ir.VRegOperand(vregs[i], typesys.NoTypeID)
		def.Operands[0] = ir.IntConst(int64(i), typesys.NoTypeID)
		g.Append(b, def)
	}
	for i := 0; i < n; i++ {
		use := ir.NewNode(x86.OpPush, 0, 1)
		use.Operands[0] = ir.VRegOperand(vregs[i], typesys.NoTypeID)
		g.Append(b, use)
	}
	ret := ir.NewNode(x86.OpRet, 0, 1)
	ret.Operands[0] = ir.IntConst(0, typesys.NoTypeID)
	g.Append(b, ret)

	m := NewMethod(1, "$method$Test", nil, nil, x86.New())
	m.Graph = g
	m.VRegs = ir.NewVRegTable()

	stage := NewRegAllocStage()
	if err := stage.Run(m); err != nil {
		t.Fatalf("RegAllocStage.Run: %v", err)
	}

	sawSpill := false
	for _, blk := range g.Blocks() {
		for node := blk.First(); node != nil; node = node.Next() {
			if node.Empty {
				continue
			}
			for _, op := range node.Operands {
				if op.Residence == ir.ResVirtualRegister {
					t.Fatalf("operand still references virtual register %d after register allocation", op.VReg)
				}
				if op.Residence == ir.ResStackLocal {
					sawSpill = true
				}
			}
			for i := 0; i < node.ResultCount; i++ {
				if node.Results[i].Residence == ir.ResVirtualRegister {
					t.Fatalf("result still references virtual register %d after register allocation", node.Results[i].VReg)
				}
			}
		}
	}
	if !sawSpill {
		t.Fatalf("expected at least one spilled virtual register with 6 live vregs over a 4-register allocatable pool")
	}
}
