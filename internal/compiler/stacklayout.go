package compiler

import (
	"fortio.org/safecast"

	"mosa/internal/ir"
)

// StackLayoutStage is spec.md §4.4 stage 10: it records the method's total
// frame size from the highest stack-local slot in use; it does not rewrite
// slots into offsets. Grounded on x86/encode.go's stackSlotOffset convention
// (dense, zero-based slot IDs counted from the frame base); this stage
// owns the slot-count half of that convention so every platform's
// stackSlotOffset only has to apply the arithmetic, not discover how
// many slots exist.
type StackLayoutStage struct{ baseStage }

func NewStackLayoutStage() *StackLayoutStage { return &StackLayoutStage{baseStage{name: "stack-layout"}} }

func (s *StackLayoutStage) Run(m *Method) error {
	count := 0
	for _, b := range m.Graph.Blocks() {
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			for _, op := range n.Operands {
				count = maxSlotCount(count, op)
			}
			for i := 0; i < n.ResultCount; i++ {
				count = maxSlotCount(count, n.Results[i])
			}
		}
	}
	m.FrameSize = frameSize(count, m.Platform.PointerSize())
	return nil
}

// maxSlotCount folds op's stack slot (if any) into the running high-water
// count. Slot is a uint32; safecast.Conv catches the practically
// impossible case of a slot count overflowing int on a 32-bit host rather
// than silently wrapping, the same guard the teacher applies to every
// interned-table length it narrows (internal/types/interner.go).
func maxSlotCount(count int, op ir.Operand) int {
	if op.Residence != ir.ResStackLocal {
		return count
	}
	slot, err := safecast.Conv[int](op.Slot)
	if err != nil {
		return count
	}
	if n := slot + 1; n > count {
		return n
	}
	return count
}

// frameSize rounds slotCount stack slots of ptrSize bytes each up to the
// platform's natural stack alignment.
func frameSize(slotCount, ptrSize int) int {
	raw := slotCount * ptrSize
	align := ptrSize
	if align < 4 {
		align = 4
	}
	if raw%align != 0 {
		raw += align - raw%align
	}
	return raw
}
