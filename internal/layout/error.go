package layout

import (
	"fmt"
	"strings"

	"mosa/internal/typesys"
)

// ErrorKind enumerates layout-resolution failure modes.
type ErrorKind uint8

const (
	// ErrRecursiveUnsized marks a value type that would need infinite
	// size to resolve (spec.md §9 "Cyclic type-layout graph": the guard
	// only fires on a bug, since value types cannot truly contain
	// themselves).
	ErrRecursiveUnsized ErrorKind = iota + 1
	// ErrMissingInterfaceMethod marks a type that implements an
	// interface without implementing one of its methods.
	ErrMissingInterfaceMethod
	// ErrUnresolvedType marks a dangling TypeID the TypeSystem doesn't
	// know about.
	ErrUnresolvedType
)

// Error is a structured type-system error (spec.md §7 "Bad input").
type Error struct {
	Kind    ErrorKind
	Type    typesys.TypeID
	Cycle   []typesys.TypeID
	Method  typesys.MethodID
	Iface   typesys.TypeID
	Context string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("type#%d: recursive value type has infinite size", e.Type)
		}
		parts := make([]string, 0, len(e.Cycle))
		for _, id := range e.Cycle {
			parts = append(parts, fmt.Sprintf("type#%d", id))
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(parts, " -> "))
	case ErrMissingInterfaceMethod:
		return fmt.Sprintf("type#%d does not implement method#%d of interface#%d", e.Type, e.Method, e.Iface)
	case ErrUnresolvedType:
		return fmt.Sprintf("unresolved type#%d%s", e.Type, e.Context)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}
