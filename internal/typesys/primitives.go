package typesys

// Builtins holds the TypeIDs of the primitive scalar types, seeded once per
// Interner so callers never have to re-intern them.
type Builtins struct {
	Bool, Char                         TypeID
	I1, U1, I2, U2, I4, U4, I8, U8     TypeID
	R4, R8                             TypeID
	Ptr, Object                        TypeID
}

// SeedPrimitives defines every built-in scalar and returns their TypeIDs.
// Call once per Interner before defining user types.
func SeedPrimitives(in *Interner) Builtins {
	def := func(name string, p Primitive) TypeID {
		return in.DefineType(Type{Name: name, Kind: ElemPrimitive, Primitive: p, ClassSize: -1})
	}
	return Builtins{
		Bool:   def("bool", PrimBool),
		Char:   def("char", PrimChar),
		I1:     def("i1", PrimI1),
		U1:     def("u1", PrimU1),
		I2:     def("i2", PrimI2),
		U2:     def("u2", PrimU2),
		I4:     def("i4", PrimI4),
		U4:     def("u4", PrimU4),
		I8:     def("i8", PrimI8),
		U8:     def("u8", PrimU8),
		R4:     def("r4", PrimR4),
		R8:     def("r8", PrimR8),
		Ptr:    def("native int", PrimPtr),
		Object: def("object", PrimObject),
	}
}
