package passes

import (
	"github.com/llir/llvm/ir"

	"github.com/takasehideki/firefly/cir"
	"github.com/takasehideki/firefly/lower"
)

// ConvertCIRToLLVM lowers a CIR module into an LLVM module.  As the final
// pass of a pipeline it does not modify the CIR module; the result is
// retrieved from Output after a successful run.
type ConvertCIRToLLVM struct {
	opts lower.Options

	// Output is the lowered LLVM module.  It is set by Run.
	Output *ir.Module
}

// NewConvertCIRToLLVM creates a new lowering pass.  With no arguments the
// default configuration is used, which is identical to passing a zero
// Options value: nanboxing disabled.
func NewConvertCIRToLLVM(opts ...lower.Options) *ConvertCIRToLLVM {
	p := &ConvertCIRToLLVM{}
	if len(opts) > 0 {
		p.opts = opts[0]
	}

	return p
}

func (p *ConvertCIRToLLVM) Name() string {
	return "convert-cir-to-llvm"
}

// Options returns the pass's lowering configuration.
func (p *ConvertCIRToLLVM) Options() lower.Options {
	return p.opts
}

func (p *ConvertCIRToLLVM) Run(mod *cir.Module) error {
	out, err := lower.Lower(mod, p.opts)
	if err != nil {
		return err
	}

	p.Output = out
	return nil
}
