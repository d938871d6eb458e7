package typesys

import "testing"

func TestPrimitiveSizes(t *testing.T) {
	cases := []struct {
		p    Primitive
		size int
	}{
		{PrimBool, 1}, {PrimI1, 1}, {PrimU1, 1},
		{PrimChar, 2}, {PrimI2, 2}, {PrimU2, 2},
		{PrimI4, 4}, {PrimU4, 4}, {PrimR4, 4},
		{PrimI8, 8}, {PrimU8, 8}, {PrimR8, 8},
		{PrimPtr, 0}, {PrimObject, 0},
	}
	for _, tc := range cases {
		if got := PrimitiveSize(tc.p); got != tc.size {
			t.Fatalf("PrimitiveSize(%v) = %d, want %d", tc.p, got, tc.size)
		}
	}
}

func TestInternerDefineAndLookup(t *testing.T) {
	in := NewInterner()
	obj := in.DefineType(Type{Name: "Object", Kind: ElemClass})
	in.SetObjectType(obj)

	a := in.DefineType(Type{Name: "A", Kind: ElemClass, BaseType: obj})
	f := in.DefineField(Field{Name: "x", Owner: a, Type: obj})
	m := in.DefineMethod(Method{Name: "DoThing", Owner: a, Flags: MFVirtual | MFNewSlot})
	in.Freeze()

	got, ok := in.Lookup(a)
	if !ok {
		t.Fatalf("expected to find type A")
	}
	if got.Name != "A" || got.BaseType != obj {
		t.Fatalf("unexpected type record: %+v", got)
	}
	if len(got.Fields) != 1 || got.Fields[0] != f {
		t.Fatalf("expected A.Fields == [%v], got %v", f, got.Fields)
	}
	if len(got.Methods) != 1 || got.Methods[0] != m {
		t.Fatalf("expected A.Methods == [%v], got %v", m, got.Methods)
	}

	if !in.IsSystemObject(obj) {
		t.Fatalf("expected Object to be the system object root")
	}
	if in.IsSystemObject(a) {
		t.Fatalf("expected A to not be the system object root")
	}
}

func TestInternerLookupOfInvalidIDFails(t *testing.T) {
	in := NewInterner()
	in.Freeze()
	if _, ok := in.Lookup(NoTypeID); ok {
		t.Fatalf("expected NoTypeID to fail lookup")
	}
	if _, ok := in.Lookup(TypeID(999)); ok {
		t.Fatalf("expected out-of-range TypeID to fail lookup")
	}
	if _, ok := in.Method(NoMethodID); ok {
		t.Fatalf("expected NoMethodID to fail lookup")
	}
}

func TestIsGhostRules(t *testing.T) {
	module := Type{Kind: ElemModule}
	if !module.IsGhost(false) {
		t.Fatalf("expected a module pseudo-type to be a ghost")
	}

	iface := Type{Kind: ElemInterface}
	if iface.IsGhost(false) {
		t.Fatalf("expected an interface to never be a ghost")
	}

	object := Type{Kind: ElemClass}
	if object.IsGhost(true) {
		t.Fatalf("expected System.Object (no base) to not be a ghost")
	}

	baseless := Type{Kind: ElemClass}
	if !baseless.IsGhost(false) {
		t.Fatalf("expected a non-Object, non-interface type with no base to be a ghost")
	}

	withBase := Type{Kind: ElemClass, BaseType: TypeID(7)}
	if withBase.IsGhost(false) {
		t.Fatalf("expected a type with a base to not be a ghost")
	}
}

func TestDefineTypeDefaultsClassSizeToUnset(t *testing.T) {
	in := NewInterner()
	id := in.DefineType(Type{Name: "S", Kind: ElemValueType})
	got, _ := in.Lookup(id)
	if got.ClassSize != -1 {
		t.Fatalf("expected ClassSize to default to -1 (unset), got %d", got.ClassSize)
	}
}
