package compiler

import (
	"mosa/internal/linker"
	"mosa/internal/opt"
	"mosa/internal/trace"
)

// BuildPipeline assembles the canonical, fixed stage order spec.md §4.4
// names: decode, exception-region splitting, SSA construction,
// optimization, SSA deconstruction, platform lowering, tweak,
// fixed-register assignment, register allocation, stack layout, and code
// emission.
func BuildPipeline(optOpts opt.Options, callees opt.CalleeProvider, l linker.AssemblyLinker, tracer trace.Tracer) *Pipeline {
	return &Pipeline{
		Tracer: tracer,
		Stages: []Stage{
			NewDecodeStage(),
			NewExceptionStage(),
			NewSSAConstructStage(),
			NewOptimizeStage(optOpts, callees),
			NewSSALeaveStage(),
			NewLowerStage(),
			NewTweakStage(),
			NewFixedRegisterStage(),
			NewRegAllocStage(),
			NewStackLayoutStage(),
			NewEmitStage(l),
		},
	}
}
