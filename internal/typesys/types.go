// Package typesys models the metadata graph the compiler core consumes:
// types, fields and methods as already resolved by an external loader.
// The core never parses assemblies; it only walks this graph.
package typesys

import "fmt"

// TypeID identifies a type inside a TypeSystem. The zero value is invalid.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// FieldID identifies a field inside a TypeSystem.
type FieldID uint32

// MethodID identifies a method inside a TypeSystem.
type MethodID uint32

// NoMethodID marks the absence of a method (e.g. no base method to override).
const NoMethodID MethodID = 0

// ElementKind distinguishes primitive and structural type shapes.
type ElementKind uint8

const (
	// ElemClass is an ordinary reference type.
	ElemClass ElementKind = iota
	// ElemValueType is a user value type (struct).
	ElemValueType
	// ElemInterface is an interface type.
	ElemInterface
	// ElemPrimitive is a built-in scalar (i1, i2, i4, i8, r4, r8, object, ptr).
	ElemPrimitive
	// ElemPointer is an unmanaged pointer modifier (T*).
	ElemPointer
	// ElemArray is a vector/array modifier (T[]).
	ElemArray
	// ElemModule is the pseudo-type holding a module's global fields/methods.
	ElemModule
)

// Primitive enumerates the built-in scalar types, independent of any
// user-defined type. Width is in bytes.
type Primitive uint8

const (
	PrimInvalid Primitive = iota
	PrimBool
	PrimChar
	PrimI1
	PrimU1
	PrimI2
	PrimU2
	PrimI4
	PrimU4
	PrimI8
	PrimU8
	PrimR4
	PrimR8
	PrimPtr    // native int / native pointer, width == ptr size
	PrimObject // managed reference, width == ptr size
)

// PrimitiveSize returns the fixed size in bytes of a primitive, or 0 for
// PrimPtr/PrimObject whose size depends on the target's pointer size.
func PrimitiveSize(p Primitive) int {
	switch p {
	case PrimBool, PrimI1, PrimU1:
		return 1
	case PrimChar, PrimI2, PrimU2:
		return 2
	case PrimI4, PrimU4, PrimR4:
		return 4
	case PrimI8, PrimU8, PrimR8:
		return 8
	default:
		return 0
	}
}

// Field describes a static or instance field declaration.
type Field struct {
	Name     string
	Owner    TypeID
	Type     TypeID
	Static   bool
	// ExplicitOffset is non-nil when the declaring type uses explicit layout
	// and the field carries a [FieldOffset] style annotation.
	ExplicitOffset *int
}

// MethodFlags captures the dispatch-relevant method attributes.
type MethodFlags uint16

const (
	MFVirtual MethodFlags = 1 << iota
	MFNewSlot
	MFStatic
	MFRTSpecialName // e.g. .cctor, .ctor
	MFInternalCall  // implemented by the runtime, has no CIL body
	MFExternCall    // P/Invoke style, has no CIL body
	MFGeneric
)

func (f MethodFlags) Has(m MethodFlags) bool { return f&m != 0 }

// Method describes a method declaration, independent of its slot assignment
// (slots are computed by the layout engine and stored alongside it).
type Method struct {
	Name    string
	Owner   TypeID
	Flags   MethodFlags
	Params  []TypeID
	Result  TypeID
	// Overrides lists methods on other (interface) types this method
	// explicitly implements, i.e. C#'s InterfaceName.MethodName syntax.
	Overrides []MethodID
	// Body is the method's CIL-style bytecode, or nil for internal/extern
	// methods that the core cannot lower.
	Body []byte
}

// Type describes one entry of the metadata graph.
type Type struct {
	Name      string
	Namespace string
	Kind      ElementKind
	Primitive Primitive

	BaseType   TypeID   // NoTypeID for System.Object, interfaces, and primitives
	Interfaces []TypeID // directly declared interfaces (not transitively expanded)
	Fields     []FieldID
	Methods    []MethodID

	// GenericParams lists the type's own generic parameter names; non-empty
	// marks an open generic definition.
	GenericParams []string
	// OpenGeneric is set on a constructed generic instance and points back
	// at its open generic definition.
	OpenGeneric TypeID

	// Elem is the element type for ElemPointer/ElemArray modifiers.
	Elem TypeID

	IsExplicitLayout bool
	PackingSize      int // 0 means "use native pointer alignment"
	ClassSize        int // -1 means "unset"
}

// IsGhost reports whether t is a pseudo-type the layout engine must skip:
// a module type or a type with no base that is neither System.Object, an
// interface, nor a primitive (primitives carry no base type here but are
// sized like any other type).
func (t Type) IsGhost(isSystemObject bool) bool {
	if t.Kind == ElemModule {
		return true
	}
	if t.Kind == ElemInterface || t.Kind == ElemPrimitive || isSystemObject {
		return false
	}
	return t.BaseType == NoTypeID
}

func (k ElementKind) String() string {
	switch k {
	case ElemClass:
		return "class"
	case ElemValueType:
		return "valuetype"
	case ElemInterface:
		return "interface"
	case ElemPrimitive:
		return "primitive"
	case ElemPointer:
		return "pointer"
	case ElemArray:
		return "array"
	case ElemModule:
		return "module"
	default:
		return fmt.Sprintf("ElementKind(%d)", k)
	}
}
