// Package manifest loads a TOML description of an already-parsed
// type-and-method graph (spec.md §1 non-goal: "it operates on an
// already-parsed type-and-method graph", never on source assemblies).
// It exists only for the CLI's standalone compile/disasm modes, where
// there is no real metadata loader in scope — the same role the
// teacher's (vovakirdan-surge) surge.toml project manifest plays for its
// own build pipeline, adapted from package/run config to a method table.
package manifest

import (
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"

	"mosa/internal/typesys"
)

// Manifest is the on-disk shape: a target string and a flat list of
// methods, each carrying its body as a hex string plus its parameter,
// local, and result primitive names.
type Manifest struct {
	Target  string         `toml:"target"`
	Methods []MethodConfig `toml:"method"`
}

// MethodConfig describes one method's signature and body.
type MethodConfig struct {
	Symbol string   `toml:"symbol"`
	Body   string   `toml:"body"` // hex-encoded bytecode, see internal/compiler's decoder grammar
	Params []string `toml:"params"`
	Locals []string `toml:"locals"`
	Result string   `toml:"result"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return &m, nil
}

// primitiveNames maps the manifest's primitive spellings to typesys
// primitives; "void" has no typesys.Primitive counterpart and is handled
// by the caller as typesys.NoTypeID.
var primitiveNames = map[string]typesys.Primitive{
	"bool": typesys.PrimBool,
	"i1":   typesys.PrimI1,
	"u1":   typesys.PrimU1,
	"i2":   typesys.PrimI2,
	"u2":   typesys.PrimU2,
	"i4":   typesys.PrimI4,
	"u4":   typesys.PrimU4,
	"i8":   typesys.PrimI8,
	"u8":   typesys.PrimU8,
	"r4":   typesys.PrimR4,
	"r8":   typesys.PrimR8,
	"ptr":  typesys.PrimPtr,
}

// BuildTypeSystem interns one type per distinct primitive name the
// manifest's methods reference and returns both the frozen TypeSystem and
// a name-to-TypeID lookup table for resolving each method's signature.
func BuildTypeSystem(m *Manifest) (*typesys.Interner, map[string]typesys.TypeID, error) {
	in := typesys.NewInterner()
	ids := make(map[string]typesys.TypeID)
	intern := func(name string) (typesys.TypeID, error) {
		if name == "" || name == "void" {
			return typesys.NoTypeID, nil
		}
		if id, ok := ids[name]; ok {
			return id, nil
		}
		prim, ok := primitiveNames[name]
		if !ok {
			return typesys.NoTypeID, fmt.Errorf("manifest: unknown primitive type %q", name)
		}
		id := in.DefineType(typesys.Type{Name: name, Kind: typesys.ElemPrimitive, Primitive: prim})
		ids[name] = id
		return id, nil
	}

	for _, mc := range m.Methods {
		for _, p := range mc.Params {
			if _, err := intern(p); err != nil {
				return nil, nil, err
			}
		}
		for _, l := range mc.Locals {
			if _, err := intern(l); err != nil {
				return nil, nil, err
			}
		}
		if _, err := intern(mc.Result); err != nil {
			return nil, nil, err
		}
	}
	return in.Freeze(), ids, nil
}

// DecodeBody hex-decodes a method's manifest body into bytecode.
func DecodeBody(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("manifest: invalid body hex: %w", err)
	}
	return b, nil
}

// ResolveTypes maps a list of manifest primitive names to their interned
// TypeIDs, in order.
func ResolveTypes(names []string, ids map[string]typesys.TypeID) []typesys.TypeID {
	out := make([]typesys.TypeID, len(names))
	for i, n := range names {
		out[i] = ids[n]
	}
	return out
}
