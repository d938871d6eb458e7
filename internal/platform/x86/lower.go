package x86

import (
	"fmt"

	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/layout"
	"mosa/internal/typesys"
)

// Lower implements platform.Platform.Lower (spec.md §4.4 stage 6): it
// walks every live node in g and replaces generic instr.IRTable opcodes
// with one or more x86 table opcodes, leaving operand residences (virtual
// register, stack local, constant) untouched — fixed-register binding and
// allocation are later stages. Grounded on the teacher's (vovakirdan-surge)
// internal/backend/llvm instruction-by-instruction emission walk, adapted
// from one-pass text emission to an in-place node replacement pass.
func Lower(g *ir.Graph, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) error {
	for _, b := range g.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty || n.Op == ir.OpPhi {
				continue
			}
			repl, err := lowerNode(g, b, n, vregs, tl)
			if err != nil {
				return fmt.Errorf("x86 lower: block %d: %w", b.ID, err)
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

func lowerNode(g *ir.Graph, b *ir.Block, n *ir.Node, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) ([]*ir.Node, error) {
	switch n.Op {
	case instr.OpMove:
		return []*ir.Node{lowerMove(n.Results[0], n.Operands[0])}, nil

	case instr.OpMoveCompound:
		words, err := lowerCompoundMove(n.Results[0], n.Operands[0], n.AssocType, tl, vregs)
		if err != nil {
			return nil, err
		}
		return words, nil

	case instr.OpLoadConst:
		m := ir.NewNode(OpMovRI32, 1, 1)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		return []*ir.Node{m}, nil

	case instr.OpLoadLocal:
		m := ir.NewNode(OpLoadStack, 1, 1)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		return []*ir.Node{m}, nil

	case instr.OpStoreLocal:
		m := ir.NewNode(OpStoreStack, 0, 2)
		m.Operands[0] = n.Operands[0]
		m.Operands[1] = n.Operands[1]
		return []*ir.Node{m}, nil

	case instr.OpLoadField:
		off, err := tl.FieldOffset(typesys.FieldID(n.Operands[1].IntValue))
		if err != nil {
			return nil, err
		}
		m := ir.NewNode(OpLoadMemOff, 1, 2)
		m.Results[0] = n.Results[0]
		m.Operands[0] = n.Operands[0]
		m.Operands[1] = ir.IntConst(int64(off), typesys.NoTypeID)
		return []*ir.Node{m}, nil

	case instr.OpStoreField:
		off, err := tl.FieldOffset(typesys.FieldID(n.Operands[1].IntValue))
		if err != nil {
			return nil, err
		}
		m := ir.NewNode(OpStoreMemOff, 0, 3)
		m.Operands[0] = n.Operands[0]
		m.Operands[1] = ir.IntConst(int64(off), typesys.NoTypeID)
		m.Operands[2] = n.Operands[2]
		return []*ir.Node{m}, nil

	case instr.OpLoadElem, instr.OpStoreElem:
		return lowerElem(n, vregs, tl)

	case instr.OpAddI, instr.OpSubI, instr.OpAndI, instr.OpOrI, instr.OpXorI, instr.OpMulI:
		return lowerBinArith(n), nil

	case instr.OpShlI, instr.OpShrI:
		return lowerShift(n), nil

	case instr.OpNegI:
		mov := lowerMove(n.Results[0], n.Operands[0])
		m := ir.NewNode(OpNegR, 1, 0)
		m.Results[0] = n.Results[0]
		return []*ir.Node{mov, m}, nil

	case instr.OpNotI:
		mov := lowerMove(n.Results[0], n.Operands[0])
		m := ir.NewNode(OpNotR, 1, 0)
		m.Results[0] = n.Results[0]
		return []*ir.Node{mov, m}, nil

	case instr.OpAddF, instr.OpSubF, instr.OpMulF, instr.OpDivF:
		return lowerBinFloat(n, tl)

	case instr.OpCompareIntBranch:
		return lowerCompareBranch(b, n, false), nil
	case instr.OpCompareFloatBranch:
		return lowerCompareBranch(b, n, true), nil

	case instr.OpJmp:
		m := ir.NewNode(OpJmp, 0, 1)
		m.Operands[0] = blockTarget(b.Succs[0])
		return []*ir.Node{m}, nil

	case instr.OpReturn:
		var moves []*ir.Node
		if len(n.Operands) == 1 {
			ret := ir.Operand{Residence: ir.ResCPURegister, CPUReg: EAX, Type: n.Operands[0].Type}
			moves = append(moves, lowerMove(ret, n.Operands[0]))
		}
		moves = append(moves, ir.NewNode(OpRet, 0, 1))
		return moves, nil

	case instr.OpCall, instr.OpCallVirtual, instr.OpCallInterface:
		return lowerCall(n, vregs, tl)

	case instr.OpNop:
		return []*ir.Node{ir.NewNode(OpNop, 0, 0)}, nil
	}
	return nil, fmt.Errorf("unsupported IR opcode %d", n.Op)
}

func lowerMove(dst, src ir.Operand) *ir.Node {
	switch {
	case dst.Residence == ir.ResStackLocal:
		m := ir.NewNode(OpStoreStack, 0, 2)
		m.Operands[0] = dst
		m.Operands[1] = src
		return m
	case src.Residence == ir.ResStackLocal:
		m := ir.NewNode(OpLoadStack, 1, 1)
		m.Results[0] = dst
		m.Operands[0] = src
		return m
	case src.Residence == ir.ResConstant:
		m := ir.NewNode(OpMovRI32, 1, 1)
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

// lowerCompoundMove copies a multi-word value word-by-word through a
// scratch vreg, since the representative x86 table has no block-copy
// opcode (spec.md §4.5 "compound move").
func lowerCompoundMove(dst, src ir.Operand, t typesys.TypeID, tl *layout.MosaTypeLayout, vregs *ir.VRegTable) ([]*ir.Node, error) {
	size, err := tl.TypeSize(t)
	if err != nil {
		return nil, err
	}
	words := (size + 3) / 4
	var out []*ir.Node
	scratch := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
	for i := 0; i < words; i++ {
		srcWord := src
		srcWord.Slot += ir.StackSlotID(i)
		dstWord := dst
		dstWord.Slot += ir.StackSlotID(i)
		out = append(out, lowerMove(scratch, srcWord), lowerMove(dstWord, scratch))
	}
	return out, nil
}

func lowerElem(n *ir.Node, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) ([]*ir.Node, error) {
	elemSize, err := tl.TypeSize(n.AssocType)
	if err != nil {
		return nil, err
	}
	scaled := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
	addr := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)

	movIdx := lowerMove(scaled, n.Operands[1])
	scale := ir.NewNode(OpImulRR, 1, 1)
	scale.Results[0] = scaled
	scale.Operands[0] = ir.IntConst(int64(elemSize), typesys.NoTypeID)

	movBase := lowerMove(addr, n.Operands[0])
	add := ir.NewNode(OpAddRR, 1, 1)
	add.Results[0] = addr
	add.Operands[0] = scaled

	if n.Op == instr.OpLoadElem {
		load := ir.NewNode(OpLoadMemOff, 1, 2)
		load.Results[0] = n.Results[0]
		load.Operands[0] = addr
		load.Operands[1] = ir.IntConst(0, typesys.NoTypeID)
		return []*ir.Node{movIdx, scale, movBase, add, load}, nil
	}
	store := ir.NewNode(OpStoreMemOff, 0, 3)
	store.Operands[0] = addr
	store.Operands[1] = ir.IntConst(0, typesys.NoTypeID)
	store.Operands[2] = n.Operands[2]
	return []*ir.Node{movIdx, scale, movBase, add, store}, nil
}

func binOpcode(op instr.Opcode) instr.Opcode {
	switch op {
	case instr.OpAddI:
		return OpAddRR
	case instr.OpSubI:
		return OpSubRR
	case instr.OpAndI:
		return OpAndRR
	case instr.OpOrI:
		return OpOrRR
	case instr.OpXorI:
		return OpXorRR
	case instr.OpMulI:
		return OpImulRR
	}
	return 0
}

func lowerBinArith(n *ir.Node) []*ir.Node {
	mov := lowerMove(n.Results[0], n.Operands[0])
	op := ir.NewNode(binOpcode(n.Op), 1, 1)
	op.Results[0] = n.Results[0]
	op.Operands[0] = n.Operands[1]
	return []*ir.Node{mov, op}
}

func floatOpcode(op instr.Opcode, double bool) instr.Opcode {
	switch op {
	case instr.OpAddF:
		if double {
			return OpAddsdRR
		}
		return OpAddssRR
	case instr.OpSubF:
		if double {
			return OpSubsdRR
		}
		return OpSubssRR
	case instr.OpMulF:
		if double {
			return OpMulsdRR
		}
		return OpMulssRR
	case instr.OpDivF:
		if double {
			return OpDivsdRR
		}
		return OpDivssRR
	}
	return 0
}

func lowerBinFloat(n *ir.Node, tl *layout.MosaTypeLayout) ([]*ir.Node, error) {
	size, err := tl.TypeSize(n.Results[0].Type)
	if err != nil {
		return nil, err
	}
	double := size == 8
	movOp := OpMovssRR
	if double {
		movOp = OpMovsdRR
	}
	mov := ir.NewNode(movOp, 1, 1)
	mov.Results[0] = n.Results[0]
	mov.Operands[0] = n.Operands[0]
	op := ir.NewNode(floatOpcode(n.Op, double), 1, 1)
	op.Results[0] = n.Results[0]
	op.Operands[0] = n.Operands[1]
	return []*ir.Node{mov, op}, nil
}

func lowerShift(n *ir.Node) []*ir.Node {
	mov := lowerMove(n.Results[0], n.Operands[0])
	isShl := n.Op == instr.OpShlI
	var op *ir.Node
	switch {
	case isShl && n.Operands[1].Residence == ir.ResConstant:
		op = ir.NewNode(OpShlRI8, 1, 1)
	case isShl:
		op = ir.NewNode(OpShlRCL, 1, 1)
	case n.Operands[1].Residence == ir.ResConstant:
		op = ir.NewNode(OpShrRI8, 1, 1)
	default:
		op = ir.NewNode(OpShrRCL, 1, 1)
	}
	op.Operands[0] = n.Operands[1]
	op.Results[0] = n.Results[0]
	return []*ir.Node{mov, op}
}

func compareJcc(kind ir.CompareKind) instr.Opcode {
	switch kind {
	case ir.CompareEQ:
		return OpJe
	case ir.CompareNE:
		return OpJne
	case ir.CompareLT:
		return OpJl
	case ir.CompareLE:
		return OpJle
	case ir.CompareGT:
		return OpJg
	case ir.CompareGE:
		return OpJge
	case ir.CompareULT:
		return OpJb
	case ir.CompareULE:
		return OpJbe
	case ir.CompareUGT:
		return OpJa
	case ir.CompareUGE:
		return OpJae
	}
	return OpJe
}

func lowerCompareBranch(b *ir.Block, n *ir.Node, float bool) []*ir.Node {
	// The representative SSE table has no dedicated ucomiss/ucomisd
	// encoder; float and int comparisons share CmpRR/CmpRI32 here, a
	// simplification a fuller encoder table would replace.
	var cmp *ir.Node
	if !float && n.Operands[1].Residence == ir.ResConstant {
		cmp = ir.NewNode(OpCmpRI32, 0, 2)
	} else {
		cmp = ir.NewNode(OpCmpRR, 0, 2)
	}
	cmp.Operands[0] = n.Operands[0]
	cmp.Operands[1] = n.Operands[1]

	kind := ir.CompareKind(n.Operands[2].IntValue)
	jcc := ir.NewNode(compareJcc(kind), 0, 1)
	jcc.Operands[0] = blockTarget(b.Succs[0])
	return []*ir.Node{cmp, jcc}
}

// interfaceTablePtrOffset is the fixed byte offset, within every object
// header, of the dense array of per-interface method-table pointers
// (spec.md §4.3's "dense slot per type" interface-slot scheme) — a
// simplification of the full object-header layout, which is out of this
// representative subset's scope.
const interfaceTablePtrOffset = 0

func lowerCall(n *ir.Node, vregs *ir.VRegTable, tl *layout.MosaTypeLayout) ([]*ir.Node, error) {
	target := n.Operands[0]
	args := n.Operands[1:]

	var setup []*ir.Node
	// Push arguments right-to-left, the cdecl-style convention this
	// representative subset settles on (spec.md Open Questions leave the
	// calling convention unspecified).
	for i := len(args) - 1; i >= 0; i-- {
		p := ir.NewNode(OpPush, 0, 1)
		p.Operands[0] = args[i]
		setup = append(setup, p)
	}

	var callNode *ir.Node
	switch n.Op {
	case instr.OpCall:
		callNode = ir.NewNode(OpCallSymbol, 1, 1)
		callNode.Operands[0] = target

	case instr.OpCallVirtual:
		// target.IntValue is the vtable slot already resolved against
		// tl.MethodTable(n.AssocType) by the method-reference resolution
		// that ran ahead of lowering.
		if _, err := tl.MethodTable(n.AssocType); err != nil {
			return nil, err
		}
		fnPtr := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
		load := ir.NewNode(OpLoadMemOff, 1, 2)
		load.Results[0] = fnPtr
		load.Operands[0] = args[0]
		load.Operands[1] = ir.IntConst(target.IntValue*4, typesys.NoTypeID)
		setup = append(setup, load)
		callNode = ir.NewNode(OpCallReg, 1, 1)
		callNode.Operands[0] = fnPtr

	case instr.OpCallInterface:
		// n.AssocType is the interface type; target.IntValue is the
		// method's fixed position within that interface's own method
		// table, the same for every implementer.
		ifaceSlot := tl.InterfaceSlot(n.AssocType)
		itPtr := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
		loadTable := ir.NewNode(OpLoadMemOff, 1, 2)
		loadTable.Results[0] = itPtr
		loadTable.Operands[0] = args[0]
		loadTable.Operands[1] = ir.IntConst(int64(interfaceTablePtrOffset+ifaceSlot*4), typesys.NoTypeID)

		fnPtr := ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
		loadFn := ir.NewNode(OpLoadMemOff, 1, 2)
		loadFn.Results[0] = fnPtr
		loadFn.Operands[0] = itPtr
		loadFn.Operands[1] = ir.IntConst(target.IntValue*4, typesys.NoTypeID)

		setup = append(setup, loadTable, loadFn)
		callNode = ir.NewNode(OpCallReg, 1, 1)
		callNode.Operands[0] = fnPtr
	}
	callNode.Results[0] = n.Results[0]
	setup = append(setup, callNode)
	return setup, nil
}
