package typesys

// TypeSystem is the external collaborator the compiler core consumes. It is
// produced by an assembly/metadata loader outside the core's scope; the core
// only ever reads from it.
type TypeSystem interface {
	// AllTypes returns every type known to the system, in declaration order.
	AllTypes() []TypeID
	// TypeModules returns the module pseudo-types (one per loaded assembly).
	TypeModules() []TypeID
	// GetOpenGeneric returns the open generic definition a constructed
	// generic instance was built from, if any.
	GetOpenGeneric(id TypeID) (TypeID, bool)

	Lookup(id TypeID) (Type, bool)
	Field(id FieldID) (Field, bool)
	Method(id MethodID) (Method, bool)

	// IsSystemObject reports whether id is the root of the reference-type
	// hierarchy (has no base, but is not a ghost type).
	IsSystemObject(id TypeID) bool
}

// Interner is a concrete, in-memory TypeSystem used to build fixtures for
// tests and for the CLI's standalone compile mode. Once Freeze is called it
// behaves as read-only immutable state, matching the instruction-descriptor
// registry's init-once discipline.
type Interner struct {
	types   []Type
	fields  []Field
	methods []Method
	modules []TypeID
	objectType TypeID
	frozen  bool
}

// NewInterner creates an empty, mutable type system builder.
func NewInterner() *Interner {
	in := &Interner{}
	// reserve slot 0 as the invalid sentinel for every table.
	in.types = append(in.types, Type{Name: "<invalid>"})
	in.fields = append(in.fields, Field{})
	in.methods = append(in.methods, Method{})
	return in
}

// DefineType appends a new type and returns its stable TypeID.
func (in *Interner) DefineType(t Type) TypeID {
	if in.frozen {
		panic("typesys: DefineType after Freeze")
	}
	if t.ClassSize == 0 {
		t.ClassSize = -1
	}
	id := TypeID(len(in.types))
	in.types = append(in.types, t)
	if t.Kind == ElemModule {
		in.modules = append(in.modules, id)
	}
	return id
}

// SetObjectType marks id as System.Object, the root of the reference-type
// hierarchy.
func (in *Interner) SetObjectType(id TypeID) { in.objectType = id }

// DefineField appends a field, links it to its owner type, and returns its ID.
func (in *Interner) DefineField(f Field) FieldID {
	if in.frozen {
		panic("typesys: DefineField after Freeze")
	}
	id := FieldID(len(in.fields))
	in.fields = append(in.fields, f)
	owner := &in.types[f.Owner]
	owner.Fields = append(owner.Fields, id)
	return id
}

// DefineMethod appends a method, links it to its owner type, and returns its ID.
func (in *Interner) DefineMethod(m Method) MethodID {
	if in.frozen {
		panic("typesys: DefineMethod after Freeze")
	}
	id := MethodID(len(in.methods))
	in.methods = append(in.methods, m)
	owner := &in.types[m.Owner]
	owner.Methods = append(owner.Methods, id)
	return id
}

// Freeze marks the builder read-only. Queries are safe for concurrent use
// only after Freeze has been called, mirroring the instruction table's
// init-once-then-read-only-forever discipline.
func (in *Interner) Freeze() *Interner {
	in.frozen = true
	return in
}

func (in *Interner) AllTypes() []TypeID {
	ids := make([]TypeID, 0, len(in.types)-1)
	for i := 1; i < len(in.types); i++ {
		ids = append(ids, TypeID(i))
	}
	return ids
}

func (in *Interner) TypeModules() []TypeID { return in.modules }

func (in *Interner) GetOpenGeneric(id TypeID) (TypeID, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.OpenGeneric == NoTypeID {
		return NoTypeID, false
	}
	return t.OpenGeneric, true
}

func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

func (in *Interner) Field(id FieldID) (Field, bool) {
	if int(id) <= 0 || int(id) >= len(in.fields) {
		return Field{}, false
	}
	return in.fields[id], true
}

func (in *Interner) Method(id MethodID) (Method, bool) {
	if id == NoMethodID || int(id) >= len(in.methods) {
		return Method{}, false
	}
	return in.methods[id], true
}

func (in *Interner) IsSystemObject(id TypeID) bool {
	return in.objectType != NoTypeID && id == in.objectType
}
