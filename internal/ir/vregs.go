package ir

import "mosa/internal/typesys"

// VRegTable monotonically allocates virtual registers for one method. A
// register's type never changes once allocated (spec.md §3 "Lifecycles").
type VRegTable struct {
	regs []VReg
}

// NewVRegTable creates an empty table; index 0 is reserved as NoVReg.
func NewVRegTable() *VRegTable {
	return &VRegTable{regs: []VReg{{ID: NoVReg}}}
}

// New allocates a fresh virtual register of type t.
func (t *VRegTable) New(typ typesys.TypeID) VRegID {
	id := VRegID(len(t.regs))
	t.regs = append(t.regs, VReg{ID: id, Type: typ})
	return id
}

// Type returns the type a virtual register was allocated with.
func (t *VRegTable) Type(id VRegID) typesys.TypeID {
	if id == NoVReg || int(id) >= len(t.regs) {
		return typesys.NoTypeID
	}
	return t.regs[id].Type
}

// Len reports how many virtual registers have been allocated.
func (t *VRegTable) Len() int { return len(t.regs) - 1 }
