package arm

import (
	"fmt"

	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/layout"
	"mosa/internal/typesys"
)

// Lower implements platform.Platform.Lower for the ARM subset (spec.md
// §4.4 stage 6). ARM's native 3-address form means arithmetic needs no
// destination-aliasing move the way x86's 2-address form does.
func Lower(g *ir.Graph, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) error {
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty || n.Op == ir.OpPhi {
				continue
			}
			repl, err := lowerNode(b, n, vregs, tl)
			if err != nil {
				return fmt.Errorf("arm lower: block %d: %w", b.ID, err)
			}
			if repl == nil {
				continue
			}
			for _, r := range repl {
				g.InsertBefore(n, r)
			}
			ir.Empty(n)
		}
	}
	return nil
}

func blockTarget(id ir.BlockID) ir.Operand {
	return ir.Operand{Residence: ir.ResConstant, ConstKind: ir.ConstInt, IntValue: int64(id)}
}

func lowerMove(dst, src ir.Operand) *ir.Node {
	switch {
	case dst.Residence == ir.ResStackLocal:
		m := ir.NewNode(OpStrOff, 0, 3)
		m.Operands[0] = ir.Operand{Residence: ir.ResCPURegister, CPUReg: R11}
		m.Operands[1] = ir.IntConst(int64(dst.Slot)*4, typesys.NoTypeID)
		m.Operands[2] = src
		return m
	case src.Residence == ir.ResStackLocal:
		m := ir.NewNode(OpLdrOff, 1, 2)
		m.Results[0] = dst
		m.Operands[0] = ir.Operand{Residence: ir.ResCPURegister, CPUReg: R11}
		m.Operands[1] = ir.IntConst(int64(src.Slot)*4, typesys.NoTypeID)
		return m
	case src.Residence == ir.ResConstant:
		m := ir.NewNode(OpMovRI, 1, 1)
		m.Results[0] = dst
		m.Operands[0] = src
		return m
	default:
		m := ir.NewNode(OpMovRR, 1, 1)
		m.Results[0] = dst
		m.Operands[0] = src
		return m
	}
}

func binOpcode(op instr.Opcode) instr.Opcode {
	switch op {
	case instr.OpAddI:
		return OpAddRRR
	case instr.OpSubI:
		return OpSubRRR
	case instr.OpAndI:
		return OpAndRRR
	case instr.OpOrI:
		return OpOrrRRR
	case instr.OpXorI:
		return OpEorRRR
	case instr.OpMulI:
		return OpMulRRR
	}
	return 0
}

func compareBcc(kind ir.CompareKind) instr.Opcode {
	switch kind {
	case ir.CompareEQ:
		return OpBeq
	case ir.CompareNE:
		return OpBne
	case ir.CompareLT:
		return OpBlt
	case ir.CompareLE:
		return OpBle
	case ir.CompareGT:
		return OpBgt
	case ir.CompareGE:
		return OpBge
	case ir.CompareULT:
		return OpBlo
	case ir.CompareULE:
		return OpBls
	case ir.CompareUGT:
		return OpBhi
	case ir.CompareUGE:
		return OpBhs
	}
	return OpBeq
}

func lowerNode(b *ir.Block, n *ir.Node, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) ([]*ir.Node, error) {
	switch n.Op {
	case instr.OpMove, instr.OpMoveCompound:
		return []*ir.Node{lowerMove(n.Results[0], n.Operands[0])}, nil

	case instr.OpLoadConst:
		m := ir.NewNode(OpMovRI, 1, 1)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		return []*ir.Node{m}, nil

	case instr.OpLoadLocal:
		return []*ir.Node{lowerMove(n.Results[0], n.Operands[0])}, nil
	case instr.OpStoreLocal:
		return []*ir.Node{lowerMove(n.Operands[0], n.Operands[1])}, nil

	case instr.OpLoadField:
		off, err := tl.FieldOffset(typesys.FieldID(n.Operands[1].IntValue))
		if err != nil {
			return nil, err
		}
		m := ir.NewNode(OpLdrOff, 1, 2)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		m.Operands[1] = ir.IntConst(int64(off), typesys.NoTypeID)
		return []*ir.Node{m}, nil

	case instr.OpStoreField:
		off, err := tl.FieldOffset(typesys.FieldID(n.Operands[1].IntValue))
		if err != nil {
			return nil, err
		}
		m := ir.NewNode(OpStrOff, 0, 3)
		m.Operands[0] = n.Operands[0]
		m.Operands[1] = ir.IntConst(int64(off), typesys.NoTypeID)
		m.Operands[2] = n.Operands[2]
		return []*ir.Node{m}, nil

	case instr.OpLoadElem, instr.OpStoreElem:
		elemSize, err := tl.TypeSize(n.AssocType)
		if err != nil {
			return nil, err
		}
		scaled := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
		addr := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
		mul := ir.NewNode(OpMulRRR, 1, 2)
		mul.Results[0] = scaled
		mul.Operands[0] = n.Operands[1]
		mul.Operands[1] = ir.IntConst(int64(elemSize), typesys.NoTypeID)
		add := ir.NewNode(OpAddRRR, 1, 2)
		add.Results[0] = addr
		add.Operands[0] = n.Operands[0]
		add.Operands[1] = scaled
		if n.Op == instr.OpLoadElem {
			load := ir.NewNode(OpLdrOff, 1, 2)
			load.Results[0] = n.Results[0]
			load.Operands[0] = addr
			load.Operands[1] = ir.IntConst(0, typesys.NoTypeID)
			return []*ir.Node{mul, add, load}, nil
		}
		store := ir.NewNode(OpStrOff, 0, 3)
		store.Operands[0] = addr
		store.Operands[1] = ir.IntConst(0, typesys.NoTypeID)
		store.Operands[2] = n.Operands[2]
		return []*ir.Node{mul, add, store}, nil

	case instr.OpAddI, instr.OpSubI, instr.OpAndI, instr.OpOrI, instr.OpXorI, instr.OpMulI:
		m := ir.NewNode(binOpcode(n.Op), 1, 2)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		m.Operands[1] = n.Operands[1]
		return []*ir.Node{m}, nil

	case instr.OpShlI, instr.OpShrI:
		isImm := n.Operands[1].Residence == ir.ResConstant
		var op instr.Opcode
		switch {
		case n.Op == instr.OpShlI && isImm:
			op = OpLslRI
		case n.Op == instr.OpShlI:
			op = OpLslRR
		case isImm:
			op = OpLsrRI
		default:
			op = OpLsrRR
		}
		m := ir.NewNode(op, 1, 2)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		m.Operands[1] = n.Operands[1]
		return []*ir.Node{m}, nil

	case instr.OpNegI:
		m := ir.NewNode(OpRsbRI, 1, 1)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		return []*ir.Node{m}, nil

	case instr.OpNotI:
		m := ir.NewNode(OpMvnRR, 1, 1)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		return []*ir.Node{m}, nil

	case instr.OpCompareIntBranch, instr.OpCompareFloatBranch:
		var cmp *ir.Node
		if n.Operands[1].Residence == ir.ResConstant {
			cmp = ir.NewNode(OpCmpRI, 0, 2)
		} else {
			cmp = ir.NewNode(OpCmpRR, 0, 2)
		}
		cmp.Operands[0] = n.Operands[0]
		cmp.Operands[1] = n.Operands[1]
		kind := ir.CompareKind(n.Operands[2].IntValue)
		bcc := ir.NewNode(compareBcc(kind), 0, 1)
		bcc.Operands[0] = blockTarget(b.Succs[0])
		return []*ir.Node{cmp, bcc}, nil

	case instr.OpJmp:
		m := ir.NewNode(OpB, 0, 1)
		m.Operands[0] = blockTarget(b.Succs[0])
		return []*ir.Node{m}, nil

	case instr.OpReturn:
		var moves []*ir.Node
		if len(n.Operands) == 1 {
			ret := ir.Operand{Residence: ir.ResCPURegister, CPUReg: R0, Type: n.Operands[0].Type}
			moves = append(moves, lowerMove(ret, n.Operands[0]))
		}
		moves = append(moves, ir.NewNode(OpBxLR, 0, 0))
		return moves, nil

	case instr.OpCall, instr.OpCallVirtual, instr.OpCallInterface:
		return lowerCall(n, vregs, tl)

	case instr.OpNop:
		return []*ir.Node{ir.NewNode(OpNop, 0, 0)}, nil
	}
	return nil, fmt.Errorf("unsupported IR opcode %d", n.Op)
}

const interfaceTablePtrOffset = 0

func lowerCall(n *ir.Node, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) ([]*ir.Node, error) {
	target := n.Operands[0]
	args := n.Operands[1:]

	argRegs := []ir.CPURegID{R0, R1, R2, R3}
	var setup []*ir.Node
	for i, a := range args {
		if i >= len(argRegs) {
			break // spec's representative subset caps register-passed args at 4, AAPCS's own limit
		}
		dst := ir.Operand{Residence: ir.ResCPURegister, CPUReg: argRegs[i], Type: a.Type}
		setup = append(setup, lowerMove(dst, a))
	}

	var callNode *ir.Node
	switch n.Op {
	case instr.OpCall:
		callNode = ir.NewNode(OpBlSymbol, 1, 1)
		callNode.Operands[0] = target
	case instr.OpCallVirtual:
		if _, err := tl.MethodTable(n.AssocType); err != nil {
			return nil, err
		}
		fnPtr := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
		load := ir.NewNode(OpLdrOff, 1, 2)
		load.Results[0] = fnPtr
		load.Operands[0] = ir.Operand{Residence: ir.ResCPURegister, CPUReg: R0}
		load.Operands[1] = ir.IntConst(target.IntValue*4, typesys.NoTypeID)
		setup = append(setup, load)
		callNode = ir.NewNode(OpBlxReg, 1, 1)
		callNode.Operands[0] = fnPtr
	case instr.OpCallInterface:
		ifaceSlot := tl.InterfaceSlot(n.AssocType)
		itPtr := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
		loadTable := ir.NewNode(OpLdrOff, 1, 2)
		loadTable.Results[0] = itPtr
		loadTable.Operands[0] = ir.Operand{Residence: ir.ResCPURegister, CPUReg: R0}
		loadTable.Operands[1] = ir.IntConst(int64(interfaceTablePtrOffset+ifaceSlot*4), typesys.NoTypeID)
		fnPtr := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
		loadFn := ir.NewNode(OpLdrOff, 1, 2)
		loadFn.Results[0] = fnPtr
		loadFn.Operands[0] = itPtr
		loadFn.Operands[1] = ir.IntConst(target.IntValue*4, typesys.NoTypeID)
		setup = append(setup, loadTable, loadFn)
		callNode = ir.NewNode(OpBlxReg, 1, 1)
		callNode.Operands[0] = fnPtr
	}
	callNode.Results[0] = n.Results[0]
	setup = append(setup, callNode)
	return setup, nil
}
