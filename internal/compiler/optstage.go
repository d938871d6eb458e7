package compiler

import "mosa/internal/opt"

// OptimizeStage is spec.md §4.4 stage 4: runs the toggled optimization
// passes over the method's IR. Grounded on internal/opt/pipeline.go,
// which already encodes the fold/propagate/value-number/dead-code/
// inline/long-int ordering and the two-pass re-run.
type OptimizeStage struct {
	baseStage
	Options opt.Options
	Callees opt.CalleeProvider
}

func NewOptimizeStage(options opt.Options, callees opt.CalleeProvider) *OptimizeStage {
	options.Callees = callees
	return &OptimizeStage{baseStage: baseStage{name: "optimize"}, Options: options, Callees: callees}
}

func (s *OptimizeStage) Run(m *Method) error {
	opt.Run(m.Graph, m.VRegs, s.Options)
	return nil
}
