// Package compiler implements the per-method driver and stage pipeline
// (spec.md §4.4): a Method owns one method's IR graph, virtual-register
// table, and stage logs, and a Pipeline runs the canonical ordered stage
// list over it. Modeled on the teacher's (vovakirdan-surge) internal/mir
// Func as the per-unit compilation state and internal/driver's
// phase-by-phase diagnose pipeline as the stage-sequencing shape.
package compiler

import (
	"mosa/internal/ir"
	"mosa/internal/layout"
	"mosa/internal/merr"
	"mosa/internal/platform"
	"mosa/internal/stats"
	"mosa/internal/typesys"
)

// Method is the per-method compiler state spec.md §3 describes: block
// list, virtual-register table, parameters, locals, SSA-form flag,
// protected-region flag, and stage output logs keyed by stage name.
type Method struct {
	ID     typesys.MethodID
	Symbol string // linker symbol name, from IAssemblyLinker.CreateSymbolName

	TS       typesys.TypeSystem
	Layout   *layout.MosaTypeLayout
	Platform platform.Platform

	// Body is the method's CIL-style bytecode (typesys.Method.Body);
	// nil for internal/extern methods, which never reach the pipeline.
	Body   []byte
	Params []typesys.TypeID
	Locals []typesys.TypeID
	Result typesys.TypeID

	Graph *ir.Graph
	VRegs *ir.VRegTable

	// ParamVRegs/LocalVRegs map each parameter/local index to the virtual
	// register the decoder allocated for it, so later stages (stack
	// layout) can find them without re-scanning the graph.
	ParamVRegs []ir.VRegID
	LocalVRegs []ir.VRegID

	IsInSSAForm         bool
	HasProtectedRegions bool
	HasCompileError     bool

	// FrameSize is the stack-layout stage's output: total frame bytes a
	// prologue must reserve, already rounded to the platform's stack
	// alignment (spec.md §4.4 stage 10).
	FrameSize int

	// Protected lists CIL-style try-region byte ranges (spec.md §4.4
	// stage 2). The exception-handling stage only checks whether the list
	// is non-empty; it does not split blocks at these offsets. Populated
	// by the caller from metadata outside this package's scope.
	Protected []ProtectedRegion

	Counters *stats.Counters

	// Logs holds each stage's textual dump, keyed by stage name (spec.md
	// §4.4 "Stages publish a textual dump via a trace listener keyed by
	// (method, stage name)").
	Logs map[string]string

	Err *merr.Error
}

// ProtectedRegion names a try-region as a half-open byte range within
// Body, mirroring CIL exception-handling clause tables.
type ProtectedRegion struct {
	StartOffset, EndOffset int
}

// NewMethod creates an empty Method ready for the decoder stage.
func NewMethod(id typesys.MethodID, symbol string, ts typesys.TypeSystem, tl *layout.MosaTypeLayout, p platform.Platform) *Method {
	return &Method{
		ID:       id,
		Symbol:   symbol,
		TS:       ts,
		Layout:   tl,
		Platform: p,
		VRegs:    ir.NewVRegTable(),
		Logs:     make(map[string]string),
	}
}

// Log records a stage's textual dump, overwriting any prior entry for the
// same stage name (a method may be recompiled under a resumed pipeline in
// tests).
func (m *Method) Log(stage, text string) {
	if m.Logs == nil {
		m.Logs = make(map[string]string)
	}
	m.Logs[stage] = text
}

// Fail records err as the method's terminal error and marks it failed.
// Subsequent stages must check HasCompileError before running (spec.md
// §7 "errors are fatal for that method").
func (m *Method) Fail(err *merr.Error) {
	m.Err = err
	m.HasCompileError = true
}
