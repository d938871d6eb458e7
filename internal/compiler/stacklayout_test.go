package compiler

import (
	"testing"

	"mosa/internal/ir"
)

func TestMaxSlotCountIgnoresNonStackOperands(t *testing.T) {
	count := maxSlotCount(0, ir.VRegOperand(0, 0))
	if count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
}

func TestMaxSlotCountTracksHighWaterMark(t *testing.T) {
	count := 0
	count = maxSlotCount(count, ir.Operand{Residence: ir.ResStackLocal, Slot: 2})
	count = maxSlotCount(count, ir.Operand{Residence: ir.ResStackLocal, Slot: 0})
	count = maxSlotCount(count, ir.Operand{Residence: ir.ResStackLocal, Slot: 5})
	if count != 6 {
		t.Fatalf("expected high-water count 6 (slot 5 => 6 slots), got %d", count)
	}
}

func TestFrameSizeRoundsUpToAlignment(t *testing.T) {
	if got := frameSize(3, 4); got != 12 {
		t.Fatalf("3 slots * 4 bytes, already aligned: expected 12, got %d", got)
	}
	if got := frameSize(1, 8); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	if got := frameSize(0, 4); got != 0 {
		t.Fatalf("expected 0 for no slots, got %d", got)
	}
}
