package layout

import "mosa/internal/typesys"

// Entry is the memoized layout result for one type (spec.md §4.3).
type Entry struct {
	Size int

	// FieldOffset maps every non-static field of this type (including
	// inherited ones are NOT repeated here; only T's own fields) to its
	// byte offset.
	FieldOffset map[typesys.FieldID]int

	// MethodTable is the type's full vtable: slot index -> method. It is
	// always at least as long as the base type's (spec.md §8).
	MethodTable []typesys.MethodID

	// Overridden marks, for each slot, whether some descendant has since
	// overridden the method originally placed there.
	Overridden map[int]bool

	// InterfaceMethodTables maps each implemented interface to its
	// per-slot implementation method table.
	InterfaceMethodTables map[typesys.TypeID][]typesys.MethodID
}

func newEntry() *Entry {
	return &Entry{
		FieldOffset:           make(map[typesys.FieldID]int),
		Overridden:            make(map[int]bool),
		InterfaceMethodTables: make(map[typesys.TypeID][]typesys.MethodID),
	}
}
