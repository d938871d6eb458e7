// Package options defines the compiler's configuration surface: pass
// toggles, target triple, trace level, and worker count, loadable from a
// TOML manifest the same way the teacher (vovakirdan-surge) loads
// surge.toml via internal/project (github.com/BurntSushi/toml).
package options

import (
	"fmt"
	"runtime"

	"github.com/BurntSushi/toml"

	"mosa/internal/layout"
	"mosa/internal/trace"
)

// Target names a compilation target triple: architecture plus pointer
// width, independent of OS (spec.md §1 lists x86, x64, ARMv6/v8).
type Target string

const (
	TargetX86   Target = "x86"
	TargetX64   Target = "x64"
	TargetARMv6 Target = "armv6"
	TargetARMv8 Target = "armv8"
)

// LayoutTarget returns the layout.Target a compilation target resolves
// field offsets against.
func (t Target) LayoutTarget() layout.Target {
	switch t {
	case TargetX64:
		return layout.X64()
	case TargetARMv6:
		return layout.ARMv6()
	case TargetARMv8:
		return layout.ARMv8()
	default:
		return layout.X86()
	}
}

// Valid reports whether t names a supported target.
func (t Target) Valid() bool {
	switch t {
	case TargetX86, TargetX64, TargetARMv6, TargetARMv8:
		return true
	default:
		return false
	}
}

// PassToggles enables/disables the optional IR optimization stages listed
// in spec.md §4.4 step 4. The zero value has every pass off; Default()
// turns on ConstantFold, SCCP, ValueNumber and DeadCode. CIL decode, SSA
// construction/deconstruction, platform lowering, tweak, register
// allocation, stack layout, and emission always run.
type PassToggles struct {
	ConstantFold bool `toml:"constant_fold"`
	SCCP         bool `toml:"sccp"`
	ValueNumber  bool `toml:"value_number"`
	DeadCode     bool `toml:"dead_code"`
	Inline       bool `toml:"inline"`
	LongIntSplit bool `toml:"long_int_split"` // 64->32 expansion, forced on for 32-bit targets
	TwoPass      bool `toml:"two_pass"`       // re-run the optimization set once more
}

// Options is the top-level configuration the compiler driver reads,
// modeled on the teacher's project.ModuleManifest [package]/[modules]
// split: top-level target, workers, trace_level, trace_output and
// cancel_on_error keys plus a [passes] table.
type Options struct {
	Target Target      `toml:"-"`
	TargetRaw string    `toml:"target"`
	Workers   int       `toml:"workers"`
	Passes    PassToggles `toml:"passes"`
	TraceLevel string   `toml:"trace_level"`
	TraceOutputPath string `toml:"trace_output"`
	CancelOnError bool `toml:"cancel_on_error"` // spec.md §5 "global option" aborting the queue on first method failure
}

// Default returns the baseline configuration: x64 target, GOMAXPROCS
// workers, constant folding, SCCP, value numbering and dead-code
// elimination enabled (inlining, long-int split and two-pass off), trace
// off.
func Default() Options {
	return Options{
		Target:    TargetX64,
		TargetRaw: string(TargetX64),
		Workers:   runtime.GOMAXPROCS(0),
		Passes: PassToggles{
			ConstantFold: true,
			SCCP:         true,
			ValueNumber:  true,
			DeadCode:     true,
		},
		TraceLevel: "off",
	}
}

// Load reads a TOML manifest into Options, starting from Default() for any
// field the manifest omits.
func Load(path string) (Options, error) {
	opts := Default()
	meta, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return Options{}, fmt.Errorf("options: failed to decode %q: %w", path, err)
	}
	_ = meta
	if opts.TargetRaw != "" {
		opts.Target = Target(opts.TargetRaw)
	}
	if !opts.Target.Valid() {
		return Options{}, fmt.Errorf("options: unsupported target %q", opts.Target)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Target == TargetX86 || opts.Target == TargetARMv6 {
		opts.Passes.LongIntSplit = true
	}
	return opts, nil
}

// TraceLevelValue parses TraceLevel into a trace.Level, defaulting to
// LevelOff on an empty or unrecognized string.
func (o Options) TraceLevelValue() trace.Level {
	lvl, err := trace.ParseLevel(o.TraceLevel)
	if err != nil {
		return trace.LevelOff
	}
	return lvl
}
