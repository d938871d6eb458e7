// Package arm implements a representative ARMv6/v8 Platform (spec.md §4.6,
// SPEC_FULL.md supplemented feature 2): load/store, data-processing, and
// branch opcodes, enough to exercise lowering/tweak/fixed-register/emission
// without claiming full ISA coverage. Mirrors internal/platform/x86's
// package shape; diverges where ARM's 3-address, condition-coded
// instruction set differs from x86's 2-address one.
package arm

import "mosa/internal/ir"

const (
	R0 ir.CPURegID = iota + 1
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
)

var regNames = map[ir.CPURegID]string{
	R0: "r0", R1: "r1", R2: "r2", R3: "r3", R4: "r4", R5: "r5", R6: "r6",
	R7: "r7", R8: "r8", R9: "r9", R10: "r10", R11: "r11", R12: "r12",
	SP: "sp", LR: "lr", PC: "pc",
}

func regCode(r ir.CPURegID) byte { return byte(r - 1) }

// allocatable excludes SP/LR/PC; R11 is kept free as the frame pointer
// stack layout uses for locals.
var allocatable = []ir.CPURegID{R0, R1, R2, R3, R4, R5, R6, R7, R8, R9, R10, R12}
