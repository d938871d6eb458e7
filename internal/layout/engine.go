package layout

import (
	"sync"

	"mosa/internal/typesys"
)

// MosaTypeLayout resolves every type lazily on first query, memoizes the
// result, and serves all queries through a single mutex (spec.md §5
// "MosaTypeLayout is the only non-trivially shared data structure ... a
// per-type lock would deadlock" because base/interface resolution is
// mutually recursive).
type MosaTypeLayout struct {
	mu sync.Mutex

	ts     typesys.TypeSystem
	target Target

	entries   map[typesys.TypeID]*Entry
	resolving map[typesys.TypeID]int // type -> position in the active resolution stack

	ifaceSlot     map[typesys.TypeID]int
	nextIfaceSlot int

	overriddenMemo map[typesys.MethodID]bool
}

// New creates a layout engine for ts at the given pointer target. Nothing
// is resolved until first queried.
func New(ts typesys.TypeSystem, target Target) *MosaTypeLayout {
	return &MosaTypeLayout{
		ts:             ts,
		target:         target,
		entries:        make(map[typesys.TypeID]*Entry),
		resolving:      make(map[typesys.TypeID]int),
		ifaceSlot:      make(map[typesys.TypeID]int),
		overriddenMemo: make(map[typesys.MethodID]bool),
	}
}

// resolve returns the memoized Entry for id, computing it (and
// transitively its base/interfaces) if this is the first query. Must be
// called with mu held.
func (l *MosaTypeLayout) resolve(id typesys.TypeID) (*Entry, *Error) {
	if e, ok := l.entries[id]; ok {
		return e, nil
	}
	if pos, active := l.resolving[id]; active {
		// A per-type lock would deadlock here (spec.md §5); this guard
		// instead catches the bug case spec.md §9 calls out: no real
		// cycle can close in memory for value types, so reaching this
		// means a loader produced an impossible graph.
		cycle := []typesys.TypeID{id}
		_ = pos
		return nil, &Error{Kind: ErrRecursiveUnsized, Type: id, Cycle: cycle}
	}
	l.resolving[id] = len(l.resolving)
	defer delete(l.resolving, id)

	e, err := l.computeEntry(id)
	if err != nil {
		return nil, err
	}
	l.entries[id] = e
	return e, nil
}

// Entry exposes the full memoized layout for a type, resolving it first if
// needed. Exported for stages that need the whole method table at once.
func (l *MosaTypeLayout) Entry(id typesys.TypeID) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, err := l.resolve(id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// TypeSize returns a type's resolved size in bytes.
func (l *MosaTypeLayout) TypeSize(id typesys.TypeID) (int, error) {
	e, err := l.Entry(id)
	if err != nil {
		return 0, err
	}
	return e.Size, nil
}

// FieldOffset returns the byte offset of a non-static field, or 0 for a
// static field (spec.md §4.3 contract). The field's declared offset is
// resolved on its *owner* type, not any subclass.
func (l *MosaTypeLayout) FieldOffset(fid typesys.FieldID) (int, error) {
	f, ok := l.ts.Field(fid)
	if !ok {
		return 0, &Error{Kind: ErrUnresolvedType, Context: ": unknown field"}
	}
	if f.Static {
		return 0, nil
	}
	e, err := l.Entry(f.Owner)
	if err != nil {
		return 0, err
	}
	return e.FieldOffset[fid], nil
}

// MethodTable returns the type's vtable: slot index -> method.
func (l *MosaTypeLayout) MethodTable(id typesys.TypeID) ([]typesys.MethodID, error) {
	e, err := l.Entry(id)
	if err != nil {
		return nil, err
	}
	return e.MethodTable, nil
}

// InterfaceSlot returns the dense slot index assigned to an interface type,
// assigning one on first request (spec.md §4.3 step 3).
func (l *MosaTypeLayout) InterfaceSlot(iface typesys.TypeID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interfaceSlotLocked(iface)
}

func (l *MosaTypeLayout) interfaceSlotLocked(iface typesys.TypeID) int {
	if s, ok := l.ifaceSlot[iface]; ok {
		return s
	}
	s := l.nextIfaceSlot
	l.nextIfaceSlot++
	l.ifaceSlot[iface] = s
	return s
}

// InterfaceMethodTable returns the implementation method table a type
// built for one of its implemented interfaces.
func (l *MosaTypeLayout) InterfaceMethodTable(id, iface typesys.TypeID) ([]typesys.MethodID, error) {
	e, err := l.Entry(id)
	if err != nil {
		return nil, err
	}
	return e.InterfaceMethodTables[iface], nil
}

// IsMethodOverridden reports whether m's slot in owner's method table is
// marked overridden, and memoizes hits (spec.md §4.3 contract). An
// overriding method marks its slot on every ancestor's entry as it is
// resolved, so only descendants resolved so far are seen.
func (l *MosaTypeLayout) IsMethodOverridden(owner typesys.TypeID, m typesys.MethodID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.overriddenMemo[m] {
		return true, nil
	}

	e, err := l.resolve(owner)
	if err != nil {
		return false, err
	}
	slot := -1
	for i, mid := range e.MethodTable {
		if mid == m {
			slot = i
			break
		}
	}
	result := slot >= 0 && e.Overridden[slot]
	if result {
		l.overriddenMemo[m] = true
	}
	return result, nil
}

// IsStoredOnStack reports whether spec.md §3's "IsStoredOnStack(T)" holds:
// true for user value types, except a single-field value type wrapping a
// reference (those pass like the reference itself); scalars at or below
// native pointer size pass in registers.
func (l *MosaTypeLayout) IsStoredOnStack(id typesys.TypeID) bool {
	tt, ok := l.ts.Lookup(id)
	if !ok {
		return false
	}
	if tt.Kind != typesys.ElemValueType {
		return false
	}
	if len(tt.Fields) == 1 {
		f, ok := l.ts.Field(tt.Fields[0])
		if ok {
			if ft, ok := l.ts.Lookup(f.Type); ok && (ft.Kind == typesys.ElemClass || ft.Primitive == typesys.PrimObject) {
				return false
			}
		}
	}
	size, err := l.TypeSize(id)
	if err != nil {
		return true
	}
	return size > l.target.PtrSize || len(tt.Fields) != 1
}

// IsCompoundType reports spec.md §4.3's "IsCompoundType(T)": a user value
// type larger than native pointer size, or a primitive larger than 8
// bytes — used by SSA deconstruction to pick MoveCompound vs scalar move.
func (l *MosaTypeLayout) IsCompoundType(id typesys.TypeID) (bool, error) {
	tt, ok := l.ts.Lookup(id)
	if !ok {
		return false, &Error{Kind: ErrUnresolvedType, Type: id}
	}
	if tt.Kind == typesys.ElemPrimitive {
		return typesys.PrimitiveSize(tt.Primitive) > 8, nil
	}
	if tt.Kind != typesys.ElemValueType {
		return false, nil
	}
	size, err := l.TypeSize(id)
	if err != nil {
		return false, err
	}
	return size > l.target.PtrSize, nil
}
