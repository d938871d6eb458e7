package compiler

import "mosa/internal/merr"

// LowerStage is spec.md §4.4 stage 6: replaces generic IR nodes with
// platform-specific instructions via the one registered Platform.
type LowerStage struct{ baseStage }

func NewLowerStage() *LowerStage { return &LowerStage{baseStage{name: "lower"}} }

func (s *LowerStage) Run(m *Method) error {
	if err := m.Platform.Lower(m.Graph, m.VRegs, m.Layout); err != nil {
		return merr.Invariant("lower", m.Symbol, "%v", err)
	}
	return nil
}

// TweakStage is spec.md §4.4 stage 7: enforces the platform's encoding
// constraints after lowering.
type TweakStage struct{ baseStage }

func NewTweakStage() *TweakStage { return &TweakStage{baseStage{name: "tweak"}} }

func (s *TweakStage) Run(m *Method) error {
	if err := m.Platform.Tweak(m.Graph, m.VRegs); err != nil {
		return merr.Invariant("tweak", m.Symbol, "%v", err)
	}
	return nil
}

// FixedRegisterStage is spec.md §4.4 stage 8: binds operands constrained
// to specific physical registers before linear-scan runs.
type FixedRegisterStage struct{ baseStage }

func NewFixedRegisterStage() *FixedRegisterStage {
	return &FixedRegisterStage{baseStage{name: "fixed-registers"}}
}

func (s *FixedRegisterStage) Run(m *Method) error {
	if err := m.Platform.AssignFixedRegisters(m.Graph); err != nil {
		return merr.Invariant("fixed-registers", m.Symbol, "%v", err)
	}
	return nil
}
