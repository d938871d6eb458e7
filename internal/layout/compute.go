package layout

import (
	"mosa/internal/typesys"
)

// computeEntry implements spec.md §4.3's per-type algorithm. Caller holds
// mu and has already registered id in the resolving set.
func (l *MosaTypeLayout) computeEntry(id typesys.TypeID) (*Entry, *Error) {
	tt, ok := l.ts.Lookup(id)
	if !ok {
		return nil, &Error{Kind: ErrUnresolvedType, Type: id}
	}

	// Step 1: pointer and array types get a single pointer-sized entry;
	// their element type is not resolved here. Ghost/module types
	// contribute nothing of their own (base chain terminates at them).
	if tt.Kind == typesys.ElemPointer || tt.Kind == typesys.ElemArray {
		return &Entry{Size: l.target.PtrSize}, nil
	}
	if tt.IsGhost(l.ts.IsSystemObject(id)) {
		return newEntry(), nil
	}

	// Step 2: resolve base first.
	var baseEntry *Entry
	if tt.BaseType != typesys.NoTypeID {
		be, err := l.resolve(tt.BaseType)
		if err != nil {
			return nil, err
		}
		baseEntry = be
	}

	e := newEntry()

	// Step 3: dense interface slot assignment for directly declared
	// interfaces.
	for _, iface := range tt.Interfaces {
		l.interfaceSlotLocked(iface)
	}

	// Steps 4-6: size and field offsets.
	switch {
	case tt.Kind == typesys.ElemPrimitive:
		e.Size = primitiveOrPtrSize(tt.Primitive, l.target.PtrSize)
	case tt.IsExplicitLayout:
		l.layoutExplicit(tt, e)
	default:
		l.layoutSequential(tt, baseEntry, e)
	}

	// Step 7: method table.
	l.buildMethodTable(id, tt, baseEntry, e)

	// Step 8: interface method tables.
	for _, iface := range tt.Interfaces {
		l.buildInterfaceMethodTable(id, tt, iface, e)
	}
	if baseEntry != nil {
		for iface, tbl := range baseEntry.InterfaceMethodTables {
			if _, has := e.InterfaceMethodTables[iface]; !has {
				e.InterfaceMethodTables[iface] = tbl
			}
		}
	}

	return e, nil
}

func primitiveOrPtrSize(p typesys.Primitive, ptrSize int) int {
	if s := typesys.PrimitiveSize(p); s != 0 {
		return s
	}
	return ptrSize // PrimPtr / PrimObject
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	if r := n % align; r != 0 {
		return n + (align - r)
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// layoutExplicit places each field at its declared offset (spec.md §4.3
// step 5).
func (l *MosaTypeLayout) layoutExplicit(tt typesys.Type, e *Entry) {
	size := 0
	for _, fid := range tt.Fields {
		f, ok := l.ts.Field(fid)
		if !ok || f.Static {
			continue
		}
		off := 0
		if f.ExplicitOffset != nil {
			off = *f.ExplicitOffset
		}
		fSize := 0
		if fe, err := l.resolve(f.Type); err == nil {
			fSize = fe.Size
		}
		e.FieldOffset[fid] = off
		size = maxInt(size, off+fSize)
	}
	if tt.ClassSize > 0 {
		size = maxInt(size, tt.ClassSize)
	}
	e.Size = size
}

// layoutSequential places fields in declaration order with packing
// (spec.md §4.3 step 6).
func (l *MosaTypeLayout) layoutSequential(tt typesys.Type, base *Entry, e *Entry) {
	packing := tt.PackingSize
	if packing <= 0 {
		packing = l.target.PtrAlign
	}

	size := 0
	if tt.Kind == typesys.ElemClass && base != nil {
		size = base.Size
	}

	for _, fid := range tt.Fields {
		f, ok := l.ts.Field(fid)
		if !ok || f.Static {
			continue
		}
		fSize := 0
		if fe, err := l.resolve(f.Type); err == nil {
			fSize = fe.Size
		}
		e.FieldOffset[fid] = size
		size += fSize
		if r := size % packing; r != 0 {
			size += packing - r
		}
	}
	e.Size = size
}

// buildMethodTable implements spec.md §4.3 step 7.
func (l *MosaTypeLayout) buildMethodTable(id typesys.TypeID, tt typesys.Type, base *Entry, e *Entry) {
	if base != nil {
		e.MethodTable = append(e.MethodTable, base.MethodTable...)
		for slot, ov := range base.Overridden {
			if ov {
				e.Overridden[slot] = true
			}
		}
	}

	for _, mid := range tt.Methods {
		m, ok := l.ts.Method(mid)
		if !ok {
			continue
		}
		switch {
		case m.Flags.Has(typesys.MFVirtual) && m.Flags.Has(typesys.MFNewSlot):
			e.MethodTable = append(e.MethodTable, mid)

		case m.Flags.Has(typesys.MFVirtual):
			slot := l.findOverrideSlot(e.MethodTable, m)
			if slot < 0 {
				e.MethodTable = append(e.MethodTable, mid)
				break
			}
			e.MethodTable[slot] = mid
			e.Overridden[slot] = true
			for cur := tt.BaseType; cur != typesys.NoTypeID; {
				be, ok := l.entries[cur]
				if !ok || slot >= len(be.MethodTable) {
					break
				}
				be.Overridden[slot] = true
				bt, ok := l.ts.Lookup(cur)
				if !ok {
					break
				}
				cur = bt.BaseType
			}

		case m.Flags.Has(typesys.MFRTSpecialName), (!m.Flags.Has(typesys.MFInternalCall) && !m.Flags.Has(typesys.MFExternCall) && !m.Flags.Has(typesys.MFVirtual)):
			e.MethodTable = append(e.MethodTable, mid)
		}
	}
	_ = id
}

// findOverrideSlot locates the base slot an overriding method replaces, by
// name equality and signature equality (sameSignature: parameter types
// compared elementwise, plus the result type). A non-generic match is
// preferred over a generic one, per spec.md §4.3 step 7.
func (l *MosaTypeLayout) findOverrideSlot(table []typesys.MethodID, m typesys.Method) int {
	candidate := -1
	for i, mid := range table {
		om, ok := l.ts.Method(mid)
		if !ok || om.Name != m.Name {
			continue
		}
		if !sameSignature(om, m) {
			continue
		}
		if !om.Flags.Has(typesys.MFGeneric) {
			return i
		}
		if candidate < 0 {
			candidate = i
		}
	}
	return candidate
}

func sameSignature(a, b typesys.Method) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return a.Result == b.Result
}

// buildInterfaceMethodTable implements spec.md §4.3 step 8: first an
// implicit-match scan (same clean name, equal signature, skipping methods
// declared with an explicit-interface Overrides target), then explicit
// overrides declared on T's own methods.
func (l *MosaTypeLayout) buildInterfaceMethodTable(id typesys.TypeID, tt typesys.Type, iface typesys.TypeID, e *Entry) {
	ifaceType, ok := l.ts.Lookup(iface)
	if !ok {
		return
	}
	tbl := make([]typesys.MethodID, len(ifaceType.Methods))

	for slot, imid := range ifaceType.Methods {
		im, ok := l.ts.Method(imid)
		if !ok {
			continue
		}
		if impl := l.findImplicitImplementation(id, im); impl != typesys.NoMethodID {
			tbl[slot] = impl
		}
	}

	for _, mid := range tt.Methods {
		m, ok := l.ts.Method(mid)
		if !ok || len(m.Overrides) == 0 {
			continue
		}
		for _, overridden := range m.Overrides {
			for slot, imid := range ifaceType.Methods {
				if imid == overridden {
					tbl[slot] = mid
				}
			}
		}
	}

	e.InterfaceMethodTables[iface] = tbl
}

// findImplicitImplementation walks id and its ancestors for a method with
// the same clean name and signature as the interface method im, skipping
// methods that are themselves explicit-interface implementations
// (non-empty Overrides).
func (l *MosaTypeLayout) findImplicitImplementation(id typesys.TypeID, im typesys.Method) typesys.MethodID {
	for cur := id; cur != typesys.NoTypeID; {
		tt, ok := l.ts.Lookup(cur)
		if !ok {
			break
		}
		for _, mid := range tt.Methods {
			m, ok := l.ts.Method(mid)
			if !ok || len(m.Overrides) != 0 {
				continue
			}
			if m.Name == im.Name && sameSignature(m, im) {
				return mid
			}
		}
		cur = tt.BaseType
	}
	return typesys.NoMethodID
}
