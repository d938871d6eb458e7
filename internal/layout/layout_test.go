package layout

import (
	"testing"

	"mosa/internal/typesys"
)

// buildObjectRoot defines System.Object, the ghost-exempt root of the
// reference-type hierarchy every other fixture type in this file derives
// from (directly or as a value type's nominal base), matching how the CLR's
// own primitives and value types ultimately chain to System.Object.
func buildObjectRoot(in *typesys.Interner) typesys.TypeID {
	obj := in.DefineType(typesys.Type{Name: "Object", Kind: typesys.ElemClass, ClassSize: -1})
	in.SetObjectType(obj)
	return obj
}

func i4(in *typesys.Interner) typesys.TypeID {
	return in.DefineType(typesys.Type{Name: "i4", Kind: typesys.ElemPrimitive, Primitive: typesys.PrimI4})
}

func i1(in *typesys.Interner) typesys.TypeID {
	return in.DefineType(typesys.Type{Name: "i1", Kind: typesys.ElemPrimitive, Primitive: typesys.PrimI1})
}

// TestSequentialLayoutDefaultPacking reproduces spec.md §8 scenario 1's
// first case: S{i4 a; i1 b; i4 c} with no PackingSize override on a 4-byte
// pointer target yields offset(a)=0, offset(b)=4, offset(c)=8, size=12.
func TestSequentialLayoutDefaultPacking(t *testing.T) {
	in := typesys.NewInterner()
	obj := buildObjectRoot(in)
	ti4 := i4(in)
	ti1 := i1(in)

	s := in.DefineType(typesys.Type{Name: "S", Kind: typesys.ElemValueType, BaseType: obj})
	fa := in.DefineField(typesys.Field{Name: "a", Owner: s, Type: ti4})
	fb := in.DefineField(typesys.Field{Name: "b", Owner: s, Type: ti1})
	fc := in.DefineField(typesys.Field{Name: "c", Owner: s, Type: ti4})
	in.Freeze()

	l := New(in, X86())

	size, err := l.TypeSize(s)
	if err != nil {
		t.Fatalf("TypeSize: %v", err)
	}
	if size != 12 {
		t.Fatalf("size = %d, want 12", size)
	}
	want := map[typesys.FieldID]int{fa: 0, fb: 4, fc: 8}
	for fid, off := range want {
		got, err := l.FieldOffset(fid)
		if err != nil {
			t.Fatalf("FieldOffset(%v): %v", fid, err)
		}
		if got != off {
			t.Fatalf("FieldOffset(%v) = %d, want %d", fid, got, off)
		}
	}
}

// TestSequentialLayoutPacking1 reproduces spec.md §8 scenario 1's second
// case: the same S with PackingSize=1 yields offset(a)=0, offset(b)=4,
// offset(c)=5, size=9 (no alignment padding at all).
func TestSequentialLayoutPacking1(t *testing.T) {
	in := typesys.NewInterner()
	obj := buildObjectRoot(in)
	ti4 := i4(in)
	ti1 := i1(in)

	s := in.DefineType(typesys.Type{Name: "S", Kind: typesys.ElemValueType, BaseType: obj, PackingSize: 1})
	fa := in.DefineField(typesys.Field{Name: "a", Owner: s, Type: ti4})
	fb := in.DefineField(typesys.Field{Name: "b", Owner: s, Type: ti1})
	fc := in.DefineField(typesys.Field{Name: "c", Owner: s, Type: ti4})
	in.Freeze()

	l := New(in, X86())

	size, err := l.TypeSize(s)
	if err != nil {
		t.Fatalf("TypeSize: %v", err)
	}
	if size != 9 {
		t.Fatalf("size = %d, want 9", size)
	}
	want := map[typesys.FieldID]int{fa: 0, fb: 4, fc: 5}
	for fid, off := range want {
		got, _ := l.FieldOffset(fid)
		if got != off {
			t.Fatalf("FieldOffset(%v) = %d, want %d", fid, got, off)
		}
	}
}

// TestExplicitLayout reproduces spec.md §8 scenario 2: E{[0] i4 x; [0] i4 y;
// [8] i1 z} with ClassSize=16 yields size=16, offset(x)=0, offset(y)=0,
// offset(z)=8 — fields are placed exactly where declared, never reordered
// or packed.
func TestExplicitLayout(t *testing.T) {
	in := typesys.NewInterner()
	obj := buildObjectRoot(in)
	ti4 := i4(in)
	ti1 := i1(in)

	off0, off8 := 0, 8
	e := in.DefineType(typesys.Type{
		Name: "E", Kind: typesys.ElemClass, BaseType: obj,
		IsExplicitLayout: true, ClassSize: 16,
	})
	fx := in.DefineField(typesys.Field{Name: "x", Owner: e, Type: ti4, ExplicitOffset: &off0})
	fy := in.DefineField(typesys.Field{Name: "y", Owner: e, Type: ti4, ExplicitOffset: &off0})
	fz := in.DefineField(typesys.Field{Name: "z", Owner: e, Type: ti1, ExplicitOffset: &off8})
	in.Freeze()

	l := New(in, X86())

	size, err := l.TypeSize(e)
	if err != nil {
		t.Fatalf("TypeSize: %v", err)
	}
	if size != 16 {
		t.Fatalf("size = %d, want 16", size)
	}
	want := map[typesys.FieldID]int{fx: 0, fy: 0, fz: 8}
	for fid, off := range want {
		got, _ := l.FieldOffset(fid)
		if got != off {
			t.Fatalf("FieldOffset(%v) = %d, want %d", fid, got, off)
		}
	}
}

// TestVirtualDispatch reproduces spec.md §8 scenario 3:
// class A { virtual M1(); virtual M2(); }
// class B:A { override M1(); virtual M3(); }
// yields methodTable(B) = [B.M1, A.M2, B.M3] and IsMethodOverridden(A.M1).
func TestVirtualDispatch(t *testing.T) {
	in := typesys.NewInterner()
	obj := buildObjectRoot(in)

	a := in.DefineType(typesys.Type{Name: "A", Kind: typesys.ElemClass, BaseType: obj})
	am1 := in.DefineMethod(typesys.Method{Name: "M1", Owner: a, Flags: typesys.MFVirtual | typesys.MFNewSlot})
	am2 := in.DefineMethod(typesys.Method{Name: "M2", Owner: a, Flags: typesys.MFVirtual | typesys.MFNewSlot})

	b := in.DefineType(typesys.Type{Name: "B", Kind: typesys.ElemClass, BaseType: a})
	bm1 := in.DefineMethod(typesys.Method{Name: "M1", Owner: b, Flags: typesys.MFVirtual})
	bm3 := in.DefineMethod(typesys.Method{Name: "M3", Owner: b, Flags: typesys.MFVirtual | typesys.MFNewSlot})
	in.Freeze()

	l := New(in, X86())

	table, err := l.MethodTable(b)
	if err != nil {
		t.Fatalf("MethodTable: %v", err)
	}
	want := []typesys.MethodID{bm1, am2, bm3}
	if len(table) != len(want) {
		t.Fatalf("methodTable(B) = %v, want %v", table, want)
	}
	for i, mid := range want {
		if table[i] != mid {
			t.Fatalf("methodTable(B)[%d] = %v, want %v", i, table[i], mid)
		}
	}

	overridden, err := l.IsMethodOverridden(a, am1)
	if err != nil {
		t.Fatalf("IsMethodOverridden: %v", err)
	}
	if !overridden {
		t.Fatalf("expected A.M1 to be marked overridden")
	}

	overridden2, err := l.IsMethodOverridden(a, am2)
	if err != nil {
		t.Fatalf("IsMethodOverridden: %v", err)
	}
	if overridden2 {
		t.Fatalf("expected A.M2 to not be marked overridden")
	}
}

// TestMethodTableLengthInvariant checks spec.md §8's universal invariant:
// for any type with a base, its method table is at least as long as its
// base's, and the prefix agrees on every non-overridden slot.
func TestMethodTableLengthInvariant(t *testing.T) {
	in := typesys.NewInterner()
	obj := buildObjectRoot(in)

	a := in.DefineType(typesys.Type{Name: "A", Kind: typesys.ElemClass, BaseType: obj})
	in.DefineMethod(typesys.Method{Name: "M1", Owner: a, Flags: typesys.MFVirtual | typesys.MFNewSlot})

	b := in.DefineType(typesys.Type{Name: "B", Kind: typesys.ElemClass, BaseType: a})
	in.Freeze()

	l := New(in, X86())

	aTable, err := l.MethodTable(a)
	if err != nil {
		t.Fatalf("MethodTable(A): %v", err)
	}
	bTable, err := l.MethodTable(b)
	if err != nil {
		t.Fatalf("MethodTable(B): %v", err)
	}
	if len(bTable) < len(aTable) {
		t.Fatalf("methodTable(B) shorter than methodTable(A): %d < %d", len(bTable), len(aTable))
	}
	for i := range aTable {
		if aTable[i] != bTable[i] {
			t.Fatalf("methodTable(B)[%d] = %v diverges from methodTable(A)[%d] = %v with no override", i, bTable[i], i, aTable[i])
		}
	}
}

// TestFieldOffsetWithinTypeSize checks spec.md §8's universal invariant
// fieldOffset(f) + fieldSize(f) <= typeSize(T) for every non-static field.
func TestFieldOffsetWithinTypeSize(t *testing.T) {
	in := typesys.NewInterner()
	obj := buildObjectRoot(in)
	ti4 := i4(in)
	ti1 := i1(in)

	s := in.DefineType(typesys.Type{Name: "S", Kind: typesys.ElemValueType, BaseType: obj})
	fa := in.DefineField(typesys.Field{Name: "a", Owner: s, Type: ti4})
	fb := in.DefineField(typesys.Field{Name: "b", Owner: s, Type: ti1})
	in.Freeze()

	l := New(in, X86())
	size, err := l.TypeSize(s)
	if err != nil {
		t.Fatalf("TypeSize: %v", err)
	}
	for _, fid := range []typesys.FieldID{fa, fb} {
		f, _ := in.Field(fid)
		off, err := l.FieldOffset(fid)
		if err != nil {
			t.Fatalf("FieldOffset: %v", err)
		}
		fsize, err := l.TypeSize(f.Type)
		if err != nil {
			t.Fatalf("TypeSize(field type): %v", err)
		}
		if off+fsize > size {
			t.Fatalf("field %v offset %d + size %d exceeds type size %d", fid, off, fsize, size)
		}
	}
}

// TestStaticFieldOffsetIsZero checks spec.md §4.3's contract that
// GetFieldOffset is defined only for non-static fields and returns 0 for a
// static one.
func TestStaticFieldOffsetIsZero(t *testing.T) {
	in := typesys.NewInterner()
	obj := buildObjectRoot(in)
	ti4 := i4(in)

	s := in.DefineType(typesys.Type{Name: "S", Kind: typesys.ElemValueType, BaseType: obj})
	f := in.DefineField(typesys.Field{Name: "counter", Owner: s, Type: ti4, Static: true})
	in.Freeze()

	l := New(in, X86())
	off, err := l.FieldOffset(f)
	if err != nil {
		t.Fatalf("FieldOffset: %v", err)
	}
	if off != 0 {
		t.Fatalf("static field offset = %d, want 0", off)
	}
}

// TestIsCompoundType checks spec.md §4.3's contract: a user value type
// larger than the native pointer size is compound; a scalar at or below
// pointer size is not.
func TestIsCompoundType(t *testing.T) {
	in := typesys.NewInterner()
	obj := buildObjectRoot(in)
	ti4 := i4(in)

	small := in.DefineType(typesys.Type{Name: "Small", Kind: typesys.ElemValueType, BaseType: obj})
	in.DefineField(typesys.Field{Name: "a", Owner: small, Type: ti4})

	big := in.DefineType(typesys.Type{Name: "Big", Kind: typesys.ElemValueType, BaseType: obj})
	in.DefineField(typesys.Field{Name: "a", Owner: big, Type: ti4})
	in.DefineField(typesys.Field{Name: "b", Owner: big, Type: ti4})
	in.DefineField(typesys.Field{Name: "c", Owner: big, Type: ti4})
	in.Freeze()

	l := New(in, X86())

	smallCompound, err := l.IsCompoundType(small)
	if err != nil {
		t.Fatalf("IsCompoundType(Small): %v", err)
	}
	if smallCompound {
		t.Fatalf("Small (4 bytes on a 4-byte pointer target) should not be compound")
	}

	bigCompound, err := l.IsCompoundType(big)
	if err != nil {
		t.Fatalf("IsCompoundType(Big): %v", err)
	}
	if !bigCompound {
		t.Fatalf("Big (12 bytes on a 4-byte pointer target) should be compound")
	}
}
