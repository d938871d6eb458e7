package emit

import (
	"testing"

	"mosa/internal/ir"
	"mosa/internal/linker"
	"mosa/internal/platform/x86"
)

func TestEmitEncodesNopAndAllocatesSection(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()
	g.Append(b, ir.NewNode(x86.OpNop, 0, 0))

	l := linker.New(linker.Config{BaseAddress: 0x1000})
	e := New(x86.New(), l)

	result, err := e.Emit("test_symbol", g)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if result.Size != 1 {
		t.Fatalf("expected 1 byte emitted, got %d", result.Size)
	}
	if len(result.NodeOffsets) != 1 || result.NodeOffsets[0].Offset != 0 {
		t.Fatalf("expected one node offset at 0, got %+v", result.NodeOffsets)
	}

	var text *linker.Section
	for _, s := range l.Sections() {
		if s.Kind == linker.SectionText {
			text = s
		}
	}
	if text == nil {
		t.Fatalf("expected a text section to exist")
	}
	if got := text.Bytes(); len(got) != 1 || got[0] != 0x90 {
		t.Fatalf("expected section bytes [0x90], got %v", got)
	}
}

func TestEmitRejectsArityMismatch(t *testing.T) {
	g := ir.NewGraph()
	b := g.NewBlock()
	// OpNop is registered with 0 results / 0 operands; force a mismatch.
	n := ir.NewNode(x86.OpNop, 1, 0)
	g.Append(b, n)

	l := linker.New(linker.Config{BaseAddress: 0x1000})
	e := New(x86.New(), l)

	if _, err := e.Emit("test_symbol", g); err == nil {
		t.Fatalf("expected an arity mismatch error")
	}
}
