package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mosa/internal/compiler"
	"mosa/internal/layout"
	"mosa/internal/linker"
	"mosa/internal/manifest"
	"mosa/internal/opt"
	"mosa/internal/options"
	"mosa/internal/platform"
	"mosa/internal/platform/arm"
	"mosa/internal/platform/x86"
	"mosa/internal/stats"
	"mosa/internal/trace"
)

var (
	compileConfigPath string
	compileOutputPath string
)

func init() {
	compileCmd.Flags().StringVar(&compileConfigPath, "config", "", "path to a mosa.toml pass-toggle config (defaults built in)")
	compileCmd.Flags().StringVarP(&compileOutputPath, "output", "o", "a.out", "output object path")
}

var compileCmd = &cobra.Command{
	Use:   "compile <manifest.toml>",
	Short: "Compile a method-graph manifest into a native object",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	useUI, _ := cmd.Flags().GetBool("ui")

	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}

	opts := options.Default()
	if compileConfigPath != "" {
		opts, err = options.Load(compileConfigPath)
		if err != nil {
			return err
		}
	}
	if m.Target != "" {
		opts.Target = options.Target(m.Target)
		opts.TargetRaw = m.Target
	}
	if !opts.Target.Valid() {
		return fmt.Errorf("compile: unsupported target %q", opts.TargetRaw)
	}

	plat, err := platformFor(opts.Target)
	if err != nil {
		return err
	}

	ts, typeIDs, err := manifest.BuildTypeSystem(m)
	if err != nil {
		return err
	}
	tl := layout.New(ts, opts.Target.LayoutTarget())

	l := linker.New(linker.Config{BaseAddress: 0x100000})
	tracer, err := trace.New(trace.Config{Level: opts.TraceLevelValue(), Mode: trace.ModeStream, Format: trace.FormatAuto, OutputPath: opts.TraceOutputPath})
	if err != nil {
		return fmt.Errorf("compile: trace: %w", err)
	}
	defer tracer.Close()
	counters := stats.New()

	methods := make([]*compiler.Method, 0, len(m.Methods))
	for _, mc := range m.Methods {
		body, err := manifest.DecodeBody(mc.Body)
		if err != nil {
			return err
		}
		method := compiler.NewMethod(0, mc.Symbol, ts, tl, plat)
		method.Body = body
		method.Params = manifest.ResolveTypes(mc.Params, typeIDs)
		method.Locals = manifest.ResolveTypes(mc.Locals, typeIDs)
		method.Result = typeIDs[mc.Result]
		method.Counters = counters
		methods = append(methods, method)
	}

	pipeline := compiler.BuildPipeline(passToggles(opts), nil, l, tracer)
	pool := compiler.NewPool(pipeline, opts.Workers)

	runFn := func() error { return pool.Run(context.Background(), methods) }
	if useUI && !quiet {
		symbols := make([]string, len(methods))
		for i, method := range methods {
			symbols[i] = method.Symbol
		}
		if err := runCompileWithUI(pipeline, symbols, runFn); err != nil {
			return err
		}
	} else if err := runFn(); err != nil {
		return err
	}

	if err := l.Finalize(); err != nil {
		return fmt.Errorf("compile: link: %w", err)
	}

	if err := writeObject(compileOutputPath, l); err != nil {
		return err
	}

	if !quiet {
		printSummary(cmd, methods, pool)
	}
	if pool.Failed > 0 {
		return fmt.Errorf("compile: %d of %d methods failed", pool.Failed, len(methods))
	}
	return nil
}

func platformFor(t options.Target) (platform.Platform, error) {
	switch t {
	case options.TargetX86:
		return x86.New(), nil
	case options.TargetARMv6, options.TargetARMv8:
		return arm.New(), nil
	default:
		return nil, fmt.Errorf("compile: target %q has no platform encoder in this build (x64 is layout-only, see DESIGN.md)", t)
	}
}

func passToggles(o options.Options) opt.Options {
	pt := o.Passes
	return opt.Options{
		ConstantFold:  pt.ConstantFold,
		ConstantProp:  pt.SCCP,
		ValueNumber:   pt.ValueNumber,
		DeadCode:      pt.DeadCode,
		Inline:        pt.Inline,
		LongIntExpand: pt.LongIntSplit,
		TwoPass:       pt.TwoPass,
		PointerSize:   o.Target.LayoutTarget().PtrSize,
	}
}

func writeObject(path string, l *linker.Linker) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("compile: create %s: %w", path, err)
	}
	defer f.Close()
	for _, sec := range l.Sections() {
		if _, err := f.Write(sec.Bytes()); err != nil {
			return fmt.Errorf("compile: write %s: %w", path, err)
		}
	}
	return nil
}

func printSummary(cmd *cobra.Command, methods []*compiler.Method, pool *compiler.Pool) {
	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	for _, m := range methods {
		if m.HasCompileError {
			bad.Fprintf(out, "FAIL %s: %s\n", m.Symbol, m.Err.Error())
			continue
		}
		ok.Fprintf(out, "OK   %s (frame %d bytes)\n", m.Symbol, m.FrameSize)
	}
	fmt.Fprintf(out, "%d compiled, %d failed\n", pool.Compiled, pool.Failed)
}
