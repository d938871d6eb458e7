package compiler

import (
	"mosa/internal/emit"
	"mosa/internal/linker"
	"mosa/internal/merr"
	"mosa/internal/stats"
)

// EmitStage is spec.md §4.4 stage 11: the final stage, streaming the
// method's finished instruction graph through the code emitter into the
// linker. Grounded on internal/emit.CodeEmitter.
type EmitStage struct {
	baseStage
	Linker linker.AssemblyLinker
}

func NewEmitStage(l linker.AssemblyLinker) *EmitStage {
	return &EmitStage{baseStage: baseStage{name: "emit"}, Linker: l}
}

func (s *EmitStage) Run(m *Method) error {
	ce := emit.New(m.Platform, s.Linker)
	result, err := ce.Emit(m.Symbol, m.Graph)
	if err != nil {
		return merr.Invariant("emit", m.Symbol, "%v", err)
	}
	if m.Counters != nil {
		m.Counters.Record(stats.StageCounts{Stage: "emit", Method: m.Symbol, Instructions: len(result.NodeOffsets)})
	}
	return nil
}
