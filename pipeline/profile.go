// Package pipeline loads build profiles: TOML files describing how a CIR
// module should be compiled, from the pass pipeline to run through to the
// output format to produce.
package pipeline

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// tomlProfileFile represents the profile file as it is encoded in TOML.
type tomlProfileFile struct {
	Profile *tomlProfile `toml:"profile"`
}

// tomlProfile represents a build profile as it is encoded in TOML.
type tomlProfile struct {
	Name         string   `toml:"name"`
	TargetTriple string   `toml:"target-triple,omitempty"`
	OutputPath   string   `toml:"output,omitempty"`
	Format       string   `toml:"format,omitempty"`
	Nanboxing    bool     `toml:"nanboxing"`
	Passes       []string `toml:"passes,omitempty"`
	Debug        bool     `toml:"debug"`
}

// Profile describes a validated build configuration.
type Profile struct {
	// Name is the profile's display name.
	Name string

	// TargetTriple is the LLVM target triple to compile for.  Empty means
	// the host target.
	TargetTriple string

	// OutputPath is the path compilation output is written to.
	OutputPath string

	// Format must be one of the enumerated output formats below.
	Format int

	// Nanboxing selects the nanboxed term encoding.
	Nanboxing bool

	// Passes is the pass pipeline to run, in order.
	Passes []string

	// Debug indicates whether debug output should be produced.
	Debug bool
}

// Enumeration of output formats.
const (
	FormatLLVM = iota // LLVM IR text (default)
	FormatASM         // native assembly
	FormatObj         // object file
	FormatExe         // linked executable
)

// formatNames maps format names as written in profiles to format values.
var formatNames = map[string]int{
	"llvm": FormatLLVM,
	"asm":  FormatASM,
	"obj":  FormatObj,
	"exe":  FormatExe,
}

// DefaultPasses is the pass pipeline used when a profile does not specify
// one.
var DefaultPasses = []string{"verify", "simplify", "inject-yield-points", "convert-cir-to-llvm"}

// -----------------------------------------------------------------------------

// FormatFromName converts an output format name to its format value.
func FormatFromName(name string) (int, error) {
	format, ok := formatNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown output format `%s`", name)
	}

	return format, nil
}

// DefaultProfile returns the profile used when no profile file is given.
func DefaultProfile() *Profile {
	return &Profile{
		Name:   "default",
		Format: FormatLLVM,
		Passes: append([]string(nil), DefaultPasses...),
	}
}

// LoadProfile loads and validates the profile file at path.
func LoadProfile(path string) (*Profile, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	tpf := &tomlProfileFile{}
	if err := toml.Unmarshal(buff, tpf); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	if tpf.Profile == nil {
		return nil, fmt.Errorf("profile file is missing its [profile] table")
	}

	return profileFromToml(tpf.Profile)
}

// profileFromToml validates a raw TOML profile and applies defaults.
func profileFromToml(tp *tomlProfile) (*Profile, error) {
	prof := &Profile{
		Name:         tp.Name,
		TargetTriple: tp.TargetTriple,
		OutputPath:   tp.OutputPath,
		Nanboxing:    tp.Nanboxing,
		Passes:       tp.Passes,
		Debug:        tp.Debug,
	}

	if prof.Name == "" {
		prof.Name = "default"
	}

	if tp.Format == "" {
		prof.Format = FormatLLVM
	} else {
		format, err := FormatFromName(tp.Format)
		if err != nil {
			return nil, err
		}

		prof.Format = format
	}

	if len(prof.Passes) == 0 {
		prof.Passes = append([]string(nil), DefaultPasses...)
	}

	// Every profile must end by lowering, otherwise there is nothing to
	// write out.
	if prof.Passes[len(prof.Passes)-1] != "convert-cir-to-llvm" {
		return nil, fmt.Errorf("the final pass of a pipeline must be `convert-cir-to-llvm`")
	}

	return prof, nil
}
