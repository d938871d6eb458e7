package arm

import (
	"bytes"
	"fmt"

	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/linker"
	"mosa/internal/platform"
)

const condAL byte = 0xE

// Encode implements platform.Platform.Encode for the ARM subset: each node
// renders to exactly one 32-bit little-endian instruction word (spec.md
// §4.1's EmitLegacy form — ARM has no variable-length general encoder to
// fall back to, unlike x86's ModR/M table).
func Encode(n *ir.Node, buf *bytes.Buffer, ctx platform.EncodeContext) error {
	reg := func(o ir.Operand) (byte, error) {
		if o.Residence != ir.ResCPURegister {
			return 0, fmt.Errorf("arm encode: operand not a physical register: %+v", o)
		}
		return regCode(o.CPUReg), nil
	}

	switch n.Op {
	case OpMovRR:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		src, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		writeWord(buf, dataProc(condAL, 0xD, 0, 0, 0, dst, uint32(src)))
		return nil

	case OpMovRI:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		// 8-bit literal window; Tweak hoists anything larger through a
		// register, at the cost of truncating very large constants in
		// this representative table.
		writeWord(buf, dataProc(condAL, 0xD, 1, 0, 0, dst, uint32(n.Operands[0].IntValue)&0xFF))
		return nil

	case OpLdrOff:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		base, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		writeWord(buf, ldrStr(condAL, true, base, dst, int32(n.Operands[1].IntValue)))
		return nil

	case OpStrOff:
		base, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		src, err := reg(n.Operands[2])
		if err != nil {
			return err
		}
		writeWord(buf, ldrStr(condAL, false, base, src, int32(n.Operands[1].IntValue)))
		return nil

	case OpAddRRR, OpSubRRR, OpAndRRR, OpOrrRRR, OpEorRRR:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		rn, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		rm, err := reg(n.Operands[1])
		if err != nil {
			return err
		}
		writeWord(buf, dataProc(condAL, dpOpcode(n.Op), 0, 0, rn, dst, uint32(rm)))
		return nil

	case OpMulRRR:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		rm, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		rs, err := reg(n.Operands[1])
		if err != nil {
			return err
		}
		word := uint32(condAL)<<28 | uint32(dst)<<16 | uint32(rs)<<8 | 0x9<<4 | uint32(rm)
		writeWord(buf, word)
		return nil

	case OpCmpRR:
		rn, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		rm, err := reg(n.Operands[1])
		if err != nil {
			return err
		}
		writeWord(buf, dataProc(condAL, 0xA, 0, 1, rn, 0, uint32(rm)))
		return nil

	case OpCmpRI:
		rn, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		writeWord(buf, dataProc(condAL, 0xA, 1, 1, rn, 0, uint32(n.Operands[1].IntValue)&0xFF))
		return nil

	case OpLslRI, OpLsrRI:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		rm, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		shiftType := uint32(0)
		if n.Op == OpLsrRI {
			shiftType = 1
		}
		operand2 := (uint32(n.Operands[1].IntValue)&0x1f)<<7 | shiftType<<5 | uint32(rm)
		writeWord(buf, dataProc(condAL, 0xD, 0, 0, 0, dst, operand2))
		return nil

	case OpLslRR, OpLsrRR:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		rm, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		rs, err := reg(n.Operands[1])
		if err != nil {
			return err
		}
		shiftType := uint32(0)
		if n.Op == OpLsrRR {
			shiftType = 1
		}
		operand2 := uint32(rs)<<8 | shiftType<<5 | 1<<4 | uint32(rm)
		writeWord(buf, dataProc(condAL, 0xD, 0, 0, 0, dst, operand2))
		return nil

	case OpMvnRR:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		rm, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		writeWord(buf, dataProc(condAL, 0xF, 0, 0, 0, dst, uint32(rm)))
		return nil

	case OpRsbRI:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		rn, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		writeWord(buf, dataProc(condAL, 0x3, 1, 0, rn, dst, 0))
		return nil

	case OpBlSymbol:
		local := buf.Len()
		writeWord(buf, uint32(condAL)<<28|0x5<<25|1<<24)
		return ctx.Linker.Link(linker.Relocation{
			Type:         linker.LinkRelativeToNext,
			InSymbol:     ctx.Symbol,
			Offset:       ctx.Offset + local,
			RelativeBase: 8,
			Scale:        4,
			BitWidth:     24,
			TargetSymbol: n.Operands[0].Symbol,
		})

	case OpBlxReg:
		rm, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		writeWord(buf, uint32(condAL)<<28|0x012FFF30|uint32(rm))
		return nil

	case OpBxLR:
		writeWord(buf, uint32(condAL)<<28|0x012FFF10|uint32(regCode(LR)))
		return nil

	case OpB:
		return writeBlockBranchReloc(buf, ctx, condAL, n.Operands[0])

	case OpBeq, OpBne, OpBlt, OpBge, OpBle, OpBgt, OpBlo, OpBhs, OpBls, OpBhi:
		return writeBlockBranchReloc(buf, ctx, bccCond(n.Op), n.Operands[0])

	case OpNop:
		writeWord(buf, uint32(condAL)<<28|0x0320F000)
		return nil
	}
	return fmt.Errorf("arm encode: unhandled opcode %d", n.Op)
}

func dpOpcode(op instr.Opcode) byte {
	switch op {
	case OpAddRRR:
		return 0x4
	case OpSubRRR:
		return 0x2
	case OpAndRRR:
		return 0x0
	case OpOrrRRR:
		return 0xC
	case OpEorRRR:
		return 0x1
	}
	return 0
}

func bccCond(op instr.Opcode) byte {
	switch op {
	case OpBeq:
		return 0x0
	case OpBne:
		return 0x1
	case OpBlo:
		return 0x3
	case OpBhs:
		return 0x2
	case OpBle:
		return 0xD
	case OpBgt:
		return 0xC
	case OpBlt:
		return 0xB
	case OpBge:
		return 0xA
	case OpBls:
		return 0x9
	case OpBhi:
		return 0x8
	}
	return condAL
}

func dataProc(cond, opcode byte, i, s byte, rn, rd byte, operand2 uint32) uint32 {
	return uint32(cond)<<28 | uint32(i)<<25 | uint32(opcode)<<21 | uint32(s)<<20 |
		uint32(rn)<<16 | uint32(rd)<<12 | (operand2 & 0xFFF)
}

func ldrStr(cond byte, load bool, base, rd byte, offset int32) uint32 {
	u := uint32(1)
	abs := offset
	if offset < 0 {
		u = 0
		abs = -offset
	}
	l := uint32(0)
	if load {
		l = 1
	}
	imm12 := uint32(abs) & 0xFFF
	return uint32(cond)<<28 | 0x1<<26 | 1<<24 /* P */ | u<<23 | l<<20 |
		uint32(base)<<16 | uint32(rd)<<12 | imm12
}

func writeWord(buf *bytes.Buffer, w uint32) {
	buf.WriteByte(byte(w))
	buf.WriteByte(byte(w >> 8))
	buf.WriteByte(byte(w >> 16))
	buf.WriteByte(byte(w >> 24))
}

func writeBlockBranchReloc(buf *bytes.Buffer, ctx platform.EncodeContext, cond byte, target ir.Operand) error {
	local := buf.Len()
	writeWord(buf, uint32(cond)<<28|0x5<<25)
	sym := ctx.BlockSymbol(ir.BlockID(target.IntValue))
	return ctx.Linker.Link(linker.Relocation{
		Type:         linker.LinkRelativeToNext,
		InSymbol:     ctx.Symbol,
		Offset:       ctx.Offset + local,
		RelativeBase: 8,
		Scale:        4,
		BitWidth:     24,
		TargetSymbol: sym,
	})
}
