package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/minilab/mlc/pkg/cli"
	"github.com/minilab/mlc/pkg/compile"
	"github.com/minilab/mlc/pkg/config"
	"github.com/minilab/mlc/pkg/vm"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "mlc: internal error: %v\n", r)
			os.Exit(2)
		}
	}()

	app := cli.NewApp("mlc")
	app.Synopsis = "[options] <input.ml>"
	app.Description = "A compiler and virtual machine for the MiniLang language. Compiles through tokens, AST, three-address code, and accumulator assembly down to bytecode."

	var (
		noOpt    bool
		run      bool
		inputs   []int64
		emit     string
		emitAll  bool
		outDir   string
		traceIR  bool
		traceASM bool
		traceVM  bool
	)

	fs := app.FlagSet
	fs.Bool(&noOpt, "no-opt", "", false, "Disable constant folding and branch pruning.")
	fs.Bool(&run, "run", "r", false, "Execute the program on the VM after compilation.")
	fs.Ints(&inputs, "inputs", "i", "Preload input integers for 'read' statements.", "n...")
	fs.String(&emit, "emit", "e", "", "Serialize one stage to stdout (tokens|ast|ir|asm|machine).", "stage")
	fs.Bool(&emitAll, "emit-all", "", false, "Write every stage artifact into --out-dir.")
	fs.String(&outDir, "out-dir", "", "", "Directory for --emit-all artifacts.", "dir")
	fs.Bool(&traceIR, "trace-ir", "", false, "Print the IR after generation.")
	fs.Bool(&traceASM, "trace-asm", "", false, "Print the assembly after generation.")
	fs.Bool(&traceVM, "trace-vm", "", false, "Print per-instruction VM state snapshots.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(args []string) error {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "mlc: expected exactly one source file")
			app.PrintHelp(os.Stderr)
			return fmt.Errorf("no input file")
		}
		if noOpt {
			cfg.SetOptimize(false)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		cfg.TraceIR, cfg.TraceASM, cfg.TraceVM = traceIR, traceASM, traceVM

		source, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "mlc: could not read '%s': %v\n", args[0], err)
			return err
		}

		artifacts, err := compile.Compile(args[0], string(source), cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return err
		}

		for _, warning := range artifacts.Warnings {
			fmt.Fprintln(os.Stderr, warning)
		}

		if cfg.TraceIR {
			text, _ := artifacts.EmitStage(config.EmitIR)
			fmt.Print(text)
		}
		if cfg.TraceASM {
			text, _ := artifacts.EmitStage(config.EmitASM)
			fmt.Print(text)
		}

		if emit != "" {
			text, err := artifacts.EmitStage(config.Emit(emit))
			if err != nil {
				fmt.Fprintf(os.Stderr, "mlc: %v\n", err)
				return err
			}
			fmt.Print(text)
			return nil
		}

		if emitAll {
			if outDir == "" {
				fmt.Fprintln(os.Stderr, "mlc: --emit-all requires --out-dir")
				return fmt.Errorf("missing --out-dir")
			}
			if err := writeArtifacts(artifacts, outDir); err != nil {
				fmt.Fprintf(os.Stderr, "mlc: %v\n", err)
				return err
			}
		}

		if run {
			opts := []vm.Option{}
			if len(inputs) > 0 {
				opts = append(opts, vm.WithInputs(inputs))
			}
			if cfg.TraceVM {
				opts = append(opts, vm.WithTrace())
			}
			result, err := vm.New(artifacts.Machine, opts...).Run()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			if cfg.TraceVM {
				for _, entry := range result.Trace {
					fmt.Println(entry)
				}
			}
			for _, out := range result.Outputs {
				fmt.Println(out)
			}
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func writeArtifacts(artifacts *compile.Artifacts, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, stage := range compile.StageFiles() {
		text, err := artifacts.EmitStage(stage.Stage)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, stage.Name), []byte(text), 0o644); err != nil {
			return err
		}
	}
	return nil
}
