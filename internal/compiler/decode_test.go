package compiler

import (
	"encoding/binary"
	"testing"

	"mosa/internal/instr"
	"mosa/internal/typesys"
)

func newTestMethod(body []byte, paramCount, localCount int, hasResult bool) *Method {
	ts := typesys.NewInterner()
	i4 := ts.DefineType(typesys.Type{Name: "i4", Kind: typesys.ElemPrimitive, Primitive: typesys.PrimI4})
	frozen := ts.Freeze()

	m := NewMethod(0, "test", frozen, nil, nil)
	m.Body = body
	for i := 0; i < paramCount; i++ {
		m.Params = append(m.Params, i4)
	}
	for i := 0; i < localCount; i++ {
		m.Locals = append(m.Locals, i4)
	}
	if hasResult {
		m.Result = i4
	}
	return m
}

// sum builds ldarg 0, ldarg 1, add, ret.
func TestDecodeStraightLineArithmetic(t *testing.T) {
	body := []byte{
		cilLdArg, 0,
		cilLdArg, 1,
		cilAdd,
		cilRet,
	}
	m := newTestMethod(body, 2, 0, true)
	if err := NewDecodeStage().Run(m); err != nil {
		t.Fatalf("decode: %v", err)
	}

	blocks, nodes := countLiveGraph(m.Graph)
	if blocks != 3 { // preheader + one real block + exit
		t.Fatalf("expected 3 blocks, got %d", blocks)
	}
	if nodes != 3 { // entry jmp, add, ret (ldarg only pushes, doesn't emit a node)
		t.Fatalf("expected 3 live nodes, got %d", nodes)
	}
}

func TestDecodeConditionalBranchWiresBothTargets(t *testing.T) {
	// ldarg 0, ldarg 1, blt +offset, ldc.i4 0, ret (fallthrough), ldc.i4 1, ret (taken)
	body := make([]byte, 0, 32)
	body = append(body, cilLdArg, 0, cilLdArg, 1)
	bltAt := len(body)
	body = append(body, cilBlt, 0, 0, 0, 0) // patched below
	fallStart := len(body)
	body = append(body, cilLdcI4, 0, 0, 0, 0, cilRet)
	takenStart := len(body)
	body = append(body, cilLdcI4, 0, 0, 0, 0, cilRet)
	binary.LittleEndian.PutUint32(body[bltAt+1:], uint32(takenStart))
	_ = fallStart

	m := newTestMethod(body, 2, 0, true)
	if err := NewDecodeStage().Run(m); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var branchBlock *struct{ succs int }
	for _, b := range m.Graph.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			if n.Op == instr.OpCompareIntBranch {
				if len(b.Succs) != 2 {
					t.Fatalf("compare-branch block expected 2 successors, got %d", len(b.Succs))
				}
				branchBlock = &struct{ succs int }{len(b.Succs)}
			}
		}
	}
	if branchBlock == nil {
		t.Fatalf("no compare-branch node found in decoded graph")
	}
}

func TestDecodeRejectsNonEmptyStackAtBoundary(t *testing.T) {
	// ldarg 0 leaves a value on the stack, then an unconditional branch to
	// a leader with no way to consume it first.
	body := []byte{
		cilLdArg, 0,
		cilBr, 0, 0, 0, 0,
	}
	binary.LittleEndian.PutUint32(body[3:], uint32(len(body)))
	body = append(body, cilRet)

	m := newTestMethod(body, 1, 0, false)
	if err := NewDecodeStage().Run(m); err == nil {
		t.Fatalf("expected an error for non-empty operand stack at a block boundary")
	}
}

func TestDecodeCallWithResult(t *testing.T) {
	name := "Helper.Compute"
	body := []byte{cilLdArg, 0}
	body = append(body, cilCall, byte(len(name)))
	body = append(body, []byte(name)...)
	body = append(body, 1, 1) // argc=1, hasResult=true
	body = append(body, cilRet)

	m := newTestMethod(body, 1, 0, true)
	if err := NewDecodeStage().Run(m); err != nil {
		t.Fatalf("decode: %v", err)
	}

	found := false
	for _, b := range m.Graph.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			if n.Op == instr.OpCall {
				found = true
				if len(n.Operands) != 2 {
					t.Fatalf("expected call with symbol + 1 arg, got %d operands", len(n.Operands))
				}
				if n.ResultCount != 1 {
					t.Fatalf("expected 1 result for hasResult call, got %d", n.ResultCount)
				}
			}
		}
	}
	if !found {
		t.Fatalf("no call node decoded")
	}
}
