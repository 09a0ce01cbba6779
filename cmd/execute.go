package cmd

import (
	"os"

	"github.com/ComedicChimera/olive"

	"github.com/takasehideki/firefly/pipeline"
	"github.com/takasehideki/firefly/report"
)

// Version is the current compiler version.
const Version = "0.1.0"

// Execute runs the main `fireflyc` application.
func Execute() {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("fireflyc", "fireflyc compiles CIR modules to native code", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	buildCmd := cli.AddSubcommand("build", "compile a CIR module", true)
	buildCmd.AddPrimaryArg("input-path", "the path to the CIR file to build", true)
	buildCmd.AddStringArg("profile", "p", "the path to the build profile to use", false)
	buildCmd.AddStringArg("output", "o", "the path to write output to", false)
	buildCmd.AddSelectorArg("outmode", "m", "the output mode", false, []string{"llvm", "asm", "obj", "exe"})
	buildCmd.AddStringArg("target", "t", "the LLVM target triple to compile for", false)
	buildCmd.AddFlag("nanbox", "nb", "use the nanboxed term encoding")

	cli.AddSubcommand("version", "print the compiler version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.ReportFatal("%s", err)
	}

	// process the inputed command line
	report.InitReporter(report.LogLevelFromName(result.Arguments["loglevel"].(string)))
	report.InstallFatalErrorHandler()

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		execBuildCommand(subResult)
	case "version":
		report.ReportInfo("Version", "fireflyc %s", Version)
	}
}

// execBuildCommand executes the build subcommand and handles all errors.
func execBuildCommand(result *olive.ArgParseResult) {
	inputPath, _ := result.PrimaryArg()

	// load the build profile
	profile := pipeline.DefaultProfile()
	if profArgVal, ok := result.Arguments["profile"]; ok {
		var err error
		profile, err = pipeline.LoadProfile(profArgVal.(string))
		if err != nil {
			report.ReportFatal("%s", err)
		}
	}

	// command line arguments override the profile
	if outArgVal, ok := result.Arguments["output"]; ok {
		profile.OutputPath = outArgVal.(string)
	}

	if modeArgVal, ok := result.Arguments["outmode"]; ok {
		format, err := pipeline.FormatFromName(modeArgVal.(string))
		if err != nil {
			report.ReportFatal("%s", err)
		}

		profile.Format = format
	}

	if targetArgVal, ok := result.Arguments["target"]; ok {
		profile.TargetTriple = targetArgVal.(string)
	}

	if result.HasFlag("nanbox") {
		profile.Nanboxing = true
	}

	// build the input module
	c := NewCompiler(inputPath, profile)
	c.Compile()
}
