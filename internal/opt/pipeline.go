package opt

import "mosa/internal/ir"

// Options toggles each optimization independently, matching spec.md §4.4
// stage 4's "(optional, in order)" and its options-driven per-stage
// enablement (spec.md §4.4 "each stage may be toggled by options").
type Options struct {
	ConstantFold   bool
	ConstantProp   bool
	ValueNumber    bool
	DeadCode       bool
	Inline         bool
	LongIntExpand  bool
	// TwoPass reruns fold/propagate/value-numbering/dead-code once more
	// after the first pass settles, since inlining and value numbering can
	// each expose fresh constant-folding and dead-code opportunities the
	// first pass couldn't see yet (spec.md §4.4 "two-pass re-runs when
	// enabled").
	TwoPass bool

	PointerSize int // 4 or 8; gates LongIntExpand (spec.md "64→32 on 32-bit targets")
	Callees     CalleeProvider
}

// Run executes the enabled optimizations over g in spec.md §4.4's stage-4
// order: constant folding, sparse conditional constant propagation, value
// numbering, dead-code elimination, inlining, long-integer expansion. A
// second pass of the first four only runs when opts.TwoPass is set, since
// inlining/expansion can introduce new foldable or dead code.
func Run(g *ir.Graph, vregs *ir.VRegTable, opts Options) {
	local := func() {
		if opts.ConstantFold {
			ConstantFold(g)
		}
		if opts.ConstantProp {
			Propagate(g)
		}
		if opts.ValueNumber {
			ValueNumber(g)
		}
		if opts.DeadCode {
			DeadCodeElimination(g)
		}
	}

	local()
	if opts.Inline {
		Inline(g, vregs, opts.Callees)
	}
	if opts.LongIntExpand {
		ExpandLongInt(g, vregs, opts.PointerSize)
	}
	if opts.TwoPass {
		local()
	}
}
