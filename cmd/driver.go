// Package cmd is the top-level "driver" package for the firefly CIR
// compiler: it parses command-line arguments, manages compiler state, and
// runs the phases of compilation in order.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/takasehideki/firefly/cir"
	"github.com/takasehideki/firefly/llc"
	"github.com/takasehideki/firefly/lower"
	"github.com/takasehideki/firefly/passes"
	"github.com/takasehideki/firefly/pipeline"
	"github.com/takasehideki/firefly/report"
	"github.com/takasehideki/firefly/syntax"
)

// Compiler represents the overall state and configuration of a compilation.
type Compiler struct {
	// The path to the input CIR file.
	inputPath string

	// The validated build profile.
	profile *pipeline.Profile
}

// NewCompiler creates a compiler for the given input file and profile.
func NewCompiler(inputPath string, profile *pipeline.Profile) *Compiler {
	return &Compiler{inputPath: inputPath, profile: profile}
}

// Compile runs all phases of compilation.  Expected failures (unreadable
// input, parse errors, pass errors, missing tools) are reported and stop the
// compiler; internal invariant violations reach the installed fatal error
// handler instead.
func (c *Compiler) Compile() {
	mod := c.parse()
	if report.AnyErrors() {
		os.Exit(1)
	}

	report.ReportInfo("Compiling", "%s (profile: %s)", c.inputPath, c.profile.Name)

	if c.profile.Format == pipeline.FormatLLVM && c.profile.TargetTriple != "" {
		report.ReportWarning(c.inputPath, "target triple `%s` only applies to native output", c.profile.TargetTriple)
	}

	convert := c.runPasses(mod)
	if report.AnyErrors() {
		os.Exit(1)
	}

	llPath := c.emitLLVM(convert)
	if c.profile.Format == pipeline.FormatLLVM {
		report.ReportInfo("Finished", "wrote %s", llPath)
		return
	}

	c.codegen(llPath)
}

// parse loads and parses the input CIR file.  Parse errors are reported and
// leave the returned module nil; callers must consult report.AnyErrors before
// using it.
func (c *Compiler) parse() *cir.Module {
	file, err := os.Open(c.inputPath)
	if err != nil {
		report.ReportFatal("failed to open input file: %s", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(c.inputPath), ".cir")
	mod, err := syntax.ParseModule(name, file)
	if err != nil {
		report.ReportError(c.inputPath, err)
		return nil
	}

	return mod
}

// runPasses builds the profile's pass pipeline and runs it over the module,
// returning the lowering pass so its output can be retrieved.
func (c *Compiler) runPasses(mod *cir.Module) *passes.ConvertCIRToLLVM {
	pm := passes.NewManager()

	var convert *passes.ConvertCIRToLLVM
	for _, name := range c.profile.Passes {
		// The lowering pass is configured from the profile; everything else
		// comes straight from the registry.
		if name == "convert-cir-to-llvm" {
			convert = passes.NewConvertCIRToLLVM(lower.Options{Nanboxing: c.profile.Nanboxing})
			pm.Add(convert)
			continue
		}

		if err := pm.AddByName(name); err != nil {
			report.ReportFatal("invalid pass pipeline: %s", err)
		}
	}

	if convert == nil {
		report.ReportFatal("the pass pipeline does not lower to LLVM")
	}

	if err := pm.Run(mod); err != nil {
		report.ReportError(c.inputPath, err)
	}

	return convert
}

// emitLLVM writes the lowered module's IR text and returns the output path.
func (c *Compiler) emitLLVM(convert *passes.ConvertCIRToLLVM) string {
	llPath := c.outputPath(".ll")
	if c.profile.Format != pipeline.FormatLLVM {
		// Native output: the IR file is an intermediate next to the final
		// output.
		llPath = strings.TrimSuffix(c.inputPath, ".cir") + ".ll"
	}

	if err := os.WriteFile(llPath, []byte(convert.Output.String()), 0o644); err != nil {
		report.ReportFatal("failed to write LLVM IR output: %s", err)
	}

	return llPath
}

// codegen runs the external LLVM toolchain on the emitted IR file.
func (c *Compiler) codegen(llPath string) {
	switch c.profile.Format {
	case pipeline.FormatASM:
		outPath := c.outputPath(".s")
		if err := llc.CompileModule(llPath, outPath, llc.AssemblyFile, c.profile.TargetTriple); err != nil {
			report.ReportFatal("%s", err)
		}

		report.ReportInfo("Finished", "wrote %s", outPath)
	case pipeline.FormatObj:
		outPath := c.outputPath(".o")
		if err := llc.CompileModule(llPath, outPath, llc.ObjectFile, c.profile.TargetTriple); err != nil {
			report.ReportFatal("%s", err)
		}

		report.ReportInfo("Finished", "wrote %s", outPath)
	case pipeline.FormatExe:
		objPath := strings.TrimSuffix(c.inputPath, ".cir") + ".o"
		if err := llc.CompileModule(llPath, objPath, llc.ObjectFile, c.profile.TargetTriple); err != nil {
			report.ReportFatal("%s", err)
		}

		outPath := c.outputPath("")
		if err := llc.LinkExecutable([]string{objPath}, outPath); err != nil {
			report.ReportFatal("%s", err)
		}

		report.ReportInfo("Finished", "wrote %s", outPath)
	}
}

// outputPath determines the final output path for the given extension,
// preferring the profile's explicit output path when set.
func (c *Compiler) outputPath(ext string) string {
	if c.profile.OutputPath != "" {
		return c.profile.OutputPath
	}

	return strings.TrimSuffix(c.inputPath, ".cir") + ext
}
