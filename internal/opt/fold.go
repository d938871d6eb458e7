// Package opt implements the optional IR optimization passes spec.md §4.4
// stage 4 runs, in order, over a method's SSA-form graph: constant folding,
// sparse conditional constant propagation, value numbering, dead-code
// elimination, inlining, and long-integer expansion. Modeled on the
// teacher's internal/mir pass shape (one file per transformation, each a
// plain function over *ir.Graph) generalized from surge's fixed MIR op set
// to the opcode-table-driven IR this compiler uses.
package opt

import (
	"math"

	"mosa/internal/instr"
	"mosa/internal/ir"
)

// ConstantFold rewrites every arithmetic node whose operands are all
// constants into a single OpLoadConst carrying the computed value, keeping
// the node's original result operand so later passes (and uses already
// wired to it) see no identity change. Reports how many nodes it folded.
func ConstantFold(g *ir.Graph) int {
	n := 0
	for _, b := range g.Blocks() {
		for node := b.First(); node != nil; node = node.Next() {
			if node.Empty {
				continue
			}
			if foldNode(node) {
				n++
			}
		}
	}
	return n
}

func foldNode(node *ir.Node) bool {
	if node.ResultCount != 1 || len(node.Operands) == 0 {
		return false
	}
	for _, op := range node.Operands {
		if op.Residence != ir.ResConstant {
			return false
		}
	}

	var result ir.Operand
	ok := true
	switch node.Op {
	case instr.OpAddI:
		result = intConst(node, node.Operands[0].IntValue+node.Operands[1].IntValue)
	case instr.OpSubI:
		result = intConst(node, node.Operands[0].IntValue-node.Operands[1].IntValue)
	case instr.OpMulI:
		result = intConst(node, node.Operands[0].IntValue*node.Operands[1].IntValue)
	case instr.OpDivI:
		if node.Operands[1].IntValue == 0 {
			return false
		}
		result = intConst(node, node.Operands[0].IntValue/node.Operands[1].IntValue)
	case instr.OpRemI:
		if node.Operands[1].IntValue == 0 {
			return false
		}
		result = intConst(node, node.Operands[0].IntValue%node.Operands[1].IntValue)
	case instr.OpAndI:
		result = intConst(node, node.Operands[0].IntValue&node.Operands[1].IntValue)
	case instr.OpOrI:
		result = intConst(node, node.Operands[0].IntValue|node.Operands[1].IntValue)
	case instr.OpXorI:
		result = intConst(node, node.Operands[0].IntValue^node.Operands[1].IntValue)
	case instr.OpShlI:
		result = intConst(node, node.Operands[0].IntValue<<uint(node.Operands[1].IntValue&0x3f))
	case instr.OpShrI:
		result = intConst(node, node.Operands[0].IntValue>>uint(node.Operands[1].IntValue&0x3f))
	case instr.OpNegI:
		result = intConst(node, -node.Operands[0].IntValue)
	case instr.OpNotI:
		result = intConst(node, ^node.Operands[0].IntValue)
	case instr.OpAddF:
		result = floatConst(node, asFloat(node.Operands[0])+asFloat(node.Operands[1]))
	case instr.OpSubF:
		result = floatConst(node, asFloat(node.Operands[0])-asFloat(node.Operands[1]))
	case instr.OpMulF:
		result = floatConst(node, asFloat(node.Operands[0])*asFloat(node.Operands[1]))
	case instr.OpDivF:
		if asFloat(node.Operands[1]) == 0 {
			return false
		}
		result = floatConst(node, asFloat(node.Operands[0])/asFloat(node.Operands[1]))
	default:
		ok = false
	}
	if !ok {
		return false
	}

	dst := node.Results[0]
	node.Op = instr.OpLoadConst
	node.Operands = []ir.Operand{result}
	node.Results[0] = dst
	return true
}

func intConst(node *ir.Node, v int64) ir.Operand {
	return ir.IntConst(v, node.Results[0].Type)
}

func floatConst(node *ir.Node, v float64) ir.Operand {
	return ir.Operand{
		Residence: ir.ResConstant, Type: node.Results[0].Type,
		ConstKind: ir.ConstFloat, FloatBits: math.Float64bits(v),
	}
}

func asFloat(o ir.Operand) float64 { return math.Float64frombits(o.FloatBits) }
