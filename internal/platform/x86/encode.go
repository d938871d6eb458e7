package x86

import (
	"bytes"
	"fmt"

	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/linker"
	"mosa/internal/platform"
)

// Encode implements platform.Platform.Encode: it renders one lowered node
// to its fixed EmitLegacy byte pattern (spec.md §4.1's "two-tier encoder
// model"), requesting a relocation through ctx.Linker for any symbol or
// branch-target operand. buf is expected to be empty on entry — the
// emitter (internal/emit) appends its contents to the method's symbol
// stream starting at ctx.Offset, which is also the base every relocation
// Offset here is computed against.
func Encode(n *ir.Node, buf *bytes.Buffer, ctx platform.EncodeContext) error {
	reg := func(o ir.Operand) (byte, error) {
		if o.Residence != ir.ResCPURegister {
			return 0, fmt.Errorf("x86 encode: operand not a physical register: %+v", o)
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
		buf.WriteByte(0x8B)
		buf.WriteByte(modrm(3, dst, src))
		return nil

	case OpMovRI32:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		buf.WriteByte(0xB8 + dst)
		return writeConstOrReloc(buf, ctx, n.Operands[0], buf.Len())

	case OpLoadStack:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		buf.WriteByte(0x8B)
		writeMemOperand(buf, dst, regCode(EBP), stackSlotOffset(n.Operands[0].Slot))
		return nil

	case OpStoreStack:
		if n.Operands[1].Residence == ir.ResConstant {
			buf.WriteByte(0xC7)
			writeMemOperand(buf, 0, regCode(EBP), stackSlotOffset(n.Operands[0].Slot))
			return writeConstOrReloc(buf, ctx, n.Operands[1], buf.Len())
		}
		src, err := reg(n.Operands[1])
		if err != nil {
			return err
		}
		buf.WriteByte(0x89)
		writeMemOperand(buf, src, regCode(EBP), stackSlotOffset(n.Operands[0].Slot))
		return nil

	case OpLoadMemOff:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		base, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		buf.WriteByte(0x8B)
		writeMemOperand(buf, dst, base, int32(n.Operands[1].IntValue))
		return nil

	case OpStoreMemOff:
		base, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		src, err := reg(n.Operands[2])
		if err != nil {
			return err
		}
		buf.WriteByte(0x89)
		writeMemOperand(buf, src, base, int32(n.Operands[1].IntValue))
		return nil

	case OpAddRR, OpSubRR, OpAndRR, OpOrRR, OpXorRR:
		return encodeTwoAddress(buf, n, reg, aluOpcode(n.Op))

	case OpImulRR:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		src, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		buf.WriteByte(0x0F)
		buf.WriteByte(0xAF)
		buf.WriteByte(modrm(3, dst, src))
		return nil

	case OpCmpRR:
		lhs, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		rhs, err := reg(n.Operands[1])
		if err != nil {
			return err
		}
		buf.WriteByte(0x39)
		buf.WriteByte(modrm(3, rhs, lhs))
		return nil

	case OpCmpRI32:
		lhs, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		buf.WriteByte(0x81)
		buf.WriteByte(modrm(3, 7, lhs))
		return writeConstOrReloc(buf, ctx, n.Operands[1], buf.Len())

	case OpShlRI8, OpShrRI8:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		ext := byte(4)
		if n.Op == OpShrRI8 {
			ext = 5
		}
		buf.WriteByte(0xC1)
		buf.WriteByte(modrm(3, ext, dst))
		buf.WriteByte(byte(n.Operands[0].IntValue))
		return nil

	case OpShlRCL, OpShrRCL:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		ext := byte(4)
		if n.Op == OpShrRCL {
			ext = 5
		}
		buf.WriteByte(0xD3)
		buf.WriteByte(modrm(3, ext, dst))
		return nil

	case OpNegR, OpNotR:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		ext := byte(3)
		if n.Op == OpNotR {
			ext = 2
		}
		buf.WriteByte(0xF7)
		buf.WriteByte(modrm(3, ext, dst))
		return nil

	case OpPush:
		o := n.Operands[0]
		switch o.Residence {
		case ir.ResConstant:
			buf.WriteByte(0x68)
			return writeConstOrReloc(buf, ctx, o, buf.Len())
		case ir.ResStackLocal:
			buf.WriteByte(0xFF)
			writeMemOperand(buf, 6, regCode(EBP), stackSlotOffset(o.Slot))
			return nil
		default:
			r, err := reg(o)
			if err != nil {
				return err
			}
			buf.WriteByte(0x50 + r)
			return nil
		}

	case OpPop:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		buf.WriteByte(0x58 + dst)
		return nil

	case OpCallSymbol:
		buf.WriteByte(0xE8)
		return writeRelReloc(buf, ctx, n.Operands[0].Symbol)

	case OpCallReg:
		r, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		buf.WriteByte(0xFF)
		buf.WriteByte(modrm(3, 2, r))
		return nil

	case OpRet:
		buf.WriteByte(0xC3)
		return nil

	case OpJmp:
		buf.WriteByte(0xE9)
		return writeBlockReloc(buf, ctx, n.Operands[0])

	case OpJe, OpJne, OpJl, OpJge, OpJle, OpJg, OpJb, OpJae, OpJbe, OpJa:
		buf.WriteByte(0x0F)
		buf.WriteByte(jccByte(n.Op))
		return writeBlockReloc(buf, ctx, n.Operands[0])

	case OpMovssRR, OpMovsdRR, OpAddssRR, OpSubssRR, OpMulssRR, OpDivssRR,
		OpAddsdRR, OpSubsdRR, OpMulsdRR, OpDivsdRR:
		dst, err := reg(n.Results[0])
		if err != nil {
			return err
		}
		src, err := reg(n.Operands[0])
		if err != nil {
			return err
		}
		prefix, op2 := sseEncoding(n.Op)
		buf.WriteByte(prefix)
		buf.WriteByte(0x0F)
		buf.WriteByte(op2)
		buf.WriteByte(modrm(3, dst, src))
		return nil

	case OpNop:
		buf.WriteByte(0x90)
		return nil
	}
	return fmt.Errorf("x86 encode: unhandled opcode %d", n.Op)
}

func encodeTwoAddress(buf *bytes.Buffer, n *ir.Node, reg func(ir.Operand) (byte, error), opcode byte) error {
	dst, err := reg(n.Results[0])
	if err != nil {
		return err
	}
	src, err := reg(n.Operands[0])
	if err != nil {
		return err
	}
	buf.WriteByte(opcode)
	buf.WriteByte(modrm(3, src, dst))
	return nil
}

func aluOpcode(op instr.Opcode) byte {
	switch op {
	case OpAddRR:
		return 0x01
	case OpSubRR:
		return 0x29
	case OpAndRR:
		return 0x21
	case OpOrRR:
		return 0x09
	case OpXorRR:
		return 0x31
	}
	return 0
}

func jccByte(op instr.Opcode) byte {
	switch op {
	case OpJe:
		return 0x84
	case OpJne:
		return 0x85
	case OpJl:
		return 0x8C
	case OpJge:
		return 0x8D
	case OpJle:
		return 0x8E
	case OpJg:
		return 0x8F
	case OpJb:
		return 0x82
	case OpJae:
		return 0x83
	case OpJbe:
		return 0x86
	case OpJa:
		return 0x87
	}
	return 0
}

func sseEncoding(op instr.Opcode) (prefix, op2 byte) {
	switch op {
	case OpMovssRR:
		return 0xF3, 0x10
	case OpMovsdRR:
		return 0xF2, 0x10
	case OpAddssRR:
		return 0xF3, 0x58
	case OpSubssRR:
		return 0xF3, 0x5C
	case OpMulssRR:
		return 0xF3, 0x59
	case OpDivssRR:
		return 0xF3, 0x5E
	case OpAddsdRR:
		return 0xF2, 0x58
	case OpSubsdRR:
		return 0xF2, 0x5C
	case OpMulsdRR:
		return 0xF2, 0x59
	case OpDivsdRR:
		return 0xF2, 0x5E
	}
	return 0, 0
}

// modrm builds a ModR/M byte; mod 3 selects register-direct addressing.
func modrm(mod, regField, rm byte) byte {
	return mod<<6 | (regField&7)<<3 | rm&7
}

// writeMemOperand writes the ModR/M (mod=10, disp32 present) plus, when
// base is ESP, the mandatory SIB byte ESP-as-base requires, plus the
// disp32 itself.
func writeMemOperand(buf *bytes.Buffer, regField, base byte, disp int32) {
	buf.WriteByte(modrm(2, regField, base))
	if base == regCode(ESP) {
		buf.WriteByte(0x24) // SIB: scale=00, index=100 (none), base=100 (ESP)
	}
	writeI32(buf, uint32(disp))
}

// stackSlotOffset maps a stack slot to its EBP-relative displacement:
// locals grow downward from the frame pointer in word-sized units (the
// concrete frame layout a stack-layout stage would otherwise assign).
func stackSlotOffset(slot ir.StackSlotID) int32 {
	return -(int32(slot) + 1) * 4
}

func writeI32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 24))
}

// writeConstOrReloc writes a constant operand's 4-byte payload, or — for a
// symbol constant — zeroes plus an absolute relocation request at
// ctx.Offset+localOffset.
func writeConstOrReloc(buf *bytes.Buffer, ctx platform.EncodeContext, o ir.Operand, localOffset int) error {
	if o.ConstKind == ir.ConstSymbol {
		writeI32(buf, 0)
		return ctx.Linker.Link(linker.Relocation{
			Type:         linker.LinkAbsolute,
			InSymbol:     ctx.Symbol,
			Offset:       ctx.Offset + localOffset,
			TargetSymbol: o.Symbol,
		})
	}
	writeI32(buf, uint32(o.IntValue))
	return nil
}

// writeRelReloc requests a call-relative relocation for a direct call to a
// linker symbol.
func writeRelReloc(buf *bytes.Buffer, ctx platform.EncodeContext, target string) error {
	local := buf.Len()
	writeI32(buf, 0)
	return ctx.Linker.Link(linker.Relocation{
		Type:         linker.LinkRelativeToNext,
		InSymbol:     ctx.Symbol,
		Offset:       ctx.Offset + local,
		RelativeBase: 4,
		TargetSymbol: target,
	})
}

// writeBlockReloc requests a near-jump-relative relocation for a jmp/Jcc
// whose target is a block within the same method, resolved through
// ctx.BlockSymbol.
func writeBlockReloc(buf *bytes.Buffer, ctx platform.EncodeContext, target ir.Operand) error {
	local := buf.Len()
	writeI32(buf, 0)
	sym := ctx.BlockSymbol(ir.BlockID(target.IntValue))
	return ctx.Linker.Link(linker.Relocation{
		Type:         linker.LinkRelativeToNext,
		InSymbol:     ctx.Symbol,
		Offset:       ctx.Offset + local,
		RelativeBase: 4,
		TargetSymbol: sym,
	})
}
