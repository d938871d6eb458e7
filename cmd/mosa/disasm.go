package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mosa/internal/compiler"
	"mosa/internal/instr"
	"mosa/internal/ir"
	"mosa/internal/layout"
	"mosa/internal/manifest"
	"mosa/internal/options"
)

var disasmStage string

func init() {
	disasmCmd.Flags().StringVar(&disasmStage, "stage", "ssa", "graph snapshot to print (decode|ssa|lower)")
}

// disasmCmd prints a method's instruction graph in a readable block-by-block
// listing, the way the teacher's tokenizeCmd dumps a token stream rather than
// a binary blob (cmd/surge/tokenize.go). It runs only the prefix of the
// pipeline needed to reach --stage, never the full compile, so it works even
// on targets with no platform encoder (e.g. x64, see DESIGN.md).
var disasmCmd = &cobra.Command{
	Use:   "disasm <manifest.toml> <symbol>",
	Short: "Print a method's decoded instruction graph",
	Args:  cobra.ExactArgs(2),
	RunE:  runDisasm,
}

func runDisasm(cmd *cobra.Command, args []string) error {
	man, err := manifest.Load(args[0])
	if err != nil {
		return err
	}
	symbol := args[1]

	var mc *manifest.MethodConfig
	for i := range man.Methods {
		if man.Methods[i].Symbol == symbol {
			mc = &man.Methods[i]
			break
		}
	}
	if mc == nil {
		return fmt.Errorf("disasm: no method %q in %s", symbol, args[0])
	}

	target := options.TargetX86
	if man.Target != "" {
		target = options.Target(man.Target)
	}
	if !target.Valid() {
		return fmt.Errorf("disasm: unsupported target %q", man.Target)
	}

	ts, typeIDs, err := manifest.BuildTypeSystem(man)
	if err != nil {
		return err
	}
	tl := layout.New(ts, target.LayoutTarget())

	plat, err := platformFor(target)
	if err != nil && disasmStage != "decode" && disasmStage != "ssa" {
		return err
	}

	method := compiler.NewMethod(0, mc.Symbol, ts, tl, plat)
	method.Body, err = manifest.DecodeBody(mc.Body)
	if err != nil {
		return err
	}
	method.Params = manifest.ResolveTypes(mc.Params, typeIDs)
	method.Locals = manifest.ResolveTypes(mc.Locals, typeIDs)
	method.Result = typeIDs[mc.Result]

	stages := []compiler.Stage{compiler.NewDecodeStage(), compiler.NewExceptionStage()}
	if disasmStage != "decode" {
		stages = append(stages, compiler.NewSSAConstructStage())
	}
	if disasmStage == "lower" {
		stages = append(stages, compiler.NewSSALeaveStage(), compiler.NewLowerStage(), compiler.NewTweakStage())
	}
	for _, stage := range stages {
		if err := stage.Run(method); err != nil {
			return fmt.Errorf("disasm: %s: %w", stage.Name(), err)
		}
	}

	printGraph(cmd, method)
	return nil
}

var (
	blockStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	opStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func printGraph(cmd *cobra.Command, m *compiler.Method) {
	out := cmd.OutOrStdout()
	for _, b := range m.Graph.Blocks() {
		label := fmt.Sprintf("block%d", b.ID)
		if b.IsPreHeader {
			label = "preheader"
		} else if b.IsExit {
			label = "exit"
		}
		fmt.Fprintf(out, "%s  preds=%v succs=%v\n", blockStyle.Render(label), b.Preds, b.Succs)
		for n := b.First(); n != nil; n = n.Next() {
			if n.Empty {
				continue
			}
			fmt.Fprintf(out, "  %s\n", formatNode(n))
		}
	}
}

func formatNode(n *ir.Node) string {
	name := fmt.Sprintf("op%d", n.Op)
	if desc, ok := instr.IRTable.Lookup(n.Op); ok {
		name = desc.Name
	}
	results := ""
	for i := 0; i < n.ResultCount; i++ {
		if i > 0 {
			results += ", "
		}
		results += formatOperand(n.Results[i])
	}
	operands := ""
	for i, op := range n.Operands {
		if i > 0 {
			operands += ", "
		}
		operands += formatOperand(op)
	}
	if results != "" {
		return fmt.Sprintf("%s = %s %s", results, opStyle.Render(name), operands)
	}
	return fmt.Sprintf("%s %s", opStyle.Render(name), operands)
}

func formatOperand(op ir.Operand) string {
	switch op.Residence {
	case ir.ResConstant:
		if op.ConstKind == ir.ConstFloat {
			return fmt.Sprintf("%v", op.FloatBits)
		}
		return fmt.Sprintf("%d", op.IntValue)
	case ir.ResVirtualRegister:
		if op.SSAVersion > 0 {
			return fmt.Sprintf("v%d.%d", op.SSAParent, op.SSAVersion)
		}
		return fmt.Sprintf("v%d", op.VReg)
	case ir.ResCPURegister:
		return fmt.Sprintf("r%d", op.CPUReg)
	case ir.ResStackLocal:
		return fmt.Sprintf("[slot%d]", op.Slot)
	case ir.ResSymbol:
		return op.Symbol
	default:
		return "?"
	}
}
