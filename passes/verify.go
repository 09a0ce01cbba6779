package passes

import (
	"fmt"

	"github.com/takasehideki/firefly/cir"
)

// Verify checks that a CIR module is well-formed: every defined function has
// a terminated body, branch targets belong to the enclosing function, operand
// types line up, and call sites match their callee signatures.
type Verify struct{}

// NewVerify creates a new verification pass.
func NewVerify() *Verify {
	return &Verify{}
}

func (v *Verify) Name() string {
	return "verify"
}

func (v *Verify) Run(mod *cir.Module) error {
	for _, fn := range mod.Funcs {
		if fn.External {
			if len(fn.Blocks) > 0 {
				return fmt.Errorf("external function `%s` has a body", fn.Name)
			}

			continue
		}

		if err := v.verifyFunc(fn); err != nil {
			return err
		}
	}

	return nil
}

func (v *Verify) verifyFunc(fn *cir.Func) error {
	if len(fn.Blocks) == 0 {
		return fmt.Errorf("function `%s` has no body", fn.Name)
	}

	for _, block := range fn.Blocks {
		term, ok := block.Terminator()
		if !ok {
			return fmt.Errorf("block `%s` of function `%s` is not terminated", block.Name, fn.Name)
		}

		for _, instr := range block.Instrs {
			if instr.IsTerminator() && instr != term {
				return fmt.Errorf("block `%s` of function `%s` has a terminator before its end", block.Name, fn.Name)
			}

			if err := v.verifyInstr(fn, block, instr); err != nil {
				return err
			}
		}
	}

	return nil
}

func (v *Verify) verifyInstr(fn *cir.Func, block *cir.Block, instr *cir.Instr) error {
	fail := func(format string, args ...interface{}) error {
		loc := fmt.Sprintf("`%s` in block `%s` of function `%s`", cir.OpName(instr.Op), block.Name, fn.Name)
		return fmt.Errorf("%s: %s", loc, fmt.Sprintf(format, args...))
	}

	switch instr.Op {
	case cir.OpAdd, cir.OpSub, cir.OpMul, cir.OpDiv:
		if len(instr.Operands) != 2 {
			return fail("expected 2 operands, found %d", len(instr.Operands))
		}

		if !cir.IsNumeric(instr.Typ) {
			return fail("type specifier `%s` is not numeric", instr.Typ.Repr())
		}

		for _, operand := range instr.Operands {
			if !cir.TypesEqual(operand.Type(), instr.Typ) {
				return fail("operand type `%s` does not match specifier `%s`", operand.Type().Repr(), instr.Typ.Repr())
			}
		}
	case cir.OpNeg:
		if len(instr.Operands) != 1 {
			return fail("expected 1 operand, found %d", len(instr.Operands))
		}

		if !cir.IsNumeric(instr.Typ) {
			return fail("type specifier `%s` is not numeric", instr.Typ.Repr())
		}
	case cir.OpEq, cir.OpNe, cir.OpLt, cir.OpLe, cir.OpGt, cir.OpGe:
		if len(instr.Operands) != 2 {
			return fail("expected 2 operands, found %d", len(instr.Operands))
		}

		for _, operand := range instr.Operands {
			if !cir.TypesEqual(operand.Type(), instr.Typ) {
				return fail("operand type `%s` does not match specifier `%s`", operand.Type().Repr(), instr.Typ.Repr())
			}
		}
	case cir.OpLoad:
		if len(instr.Operands) != 1 || !cir.TypesEqual(instr.Operands[0].Type(), cir.PrimPtr) {
			return fail("expected a single pointer operand")
		}
	case cir.OpStore:
		if len(instr.Operands) != 2 {
			return fail("expected 2 operands, found %d", len(instr.Operands))
		}

		if !cir.TypesEqual(instr.Operands[0].Type(), instr.Typ) {
			return fail("stored value type `%s` does not match specifier `%s`", instr.Operands[0].Type().Repr(), instr.Typ.Repr())
		}

		if !cir.TypesEqual(instr.Operands[1].Type(), cir.PrimPtr) {
			return fail("store destination is not a pointer")
		}
	case cir.OpCall:
		callee, ok := instr.Operands[0].(*cir.FuncRef)
		if !ok {
			return fail("callee is not a function reference")
		}

		if len(instr.Operands)-1 != len(callee.Fn.Params) {
			return fail("call to `%s` passes %d arguments, expected %d",
				callee.Fn.Name, len(instr.Operands)-1, len(callee.Fn.Params))
		}

		for i, param := range callee.Fn.Params {
			if !cir.TypesEqual(instr.Operands[i+1].Type(), param.Typ) {
				return fail("argument %d of call to `%s` has type `%s`, expected `%s`",
					i, callee.Fn.Name, instr.Operands[i+1].Type().Repr(), param.Typ.Repr())
			}
		}

		if !cir.TypesEqual(instr.Typ, callee.Fn.ReturnType) {
			return fail("call specifier `%s` does not match return type `%s` of `%s`",
				instr.Typ.Repr(), callee.Fn.ReturnType.Repr(), callee.Fn.Name)
		}
	case cir.OpPack:
		if !cir.IsNumeric(instr.Typ) {
			return fail("type specifier `%s` is not numeric", instr.Typ.Repr())
		}

		if len(instr.Operands) != 1 || !cir.TypesEqual(instr.Operands[0].Type(), instr.Typ) {
			return fail("expected a single operand matching the type specifier")
		}
	case cir.OpUnpack:
		if !cir.IsNumeric(instr.Typ) {
			return fail("type specifier `%s` is not numeric", instr.Typ.Repr())
		}

		if len(instr.Operands) != 1 || !cir.IsTerm(instr.Operands[0].Type()) {
			return fail("expected a single term operand")
		}
	case cir.OpTypeOf:
		if len(instr.Operands) != 1 || !cir.IsTerm(instr.Operands[0].Type()) {
			return fail("expected a single term operand")
		}
	case cir.OpRet:
		if cir.TypesEqual(fn.ReturnType, cir.PrimUnit) {
			if len(instr.Operands) != 0 {
				return fail("unit function returns a value")
			}
		} else {
			if len(instr.Operands) != 1 {
				return fail("expected 1 return operand, found %d", len(instr.Operands))
			}

			if !cir.TypesEqual(instr.Operands[0].Type(), fn.ReturnType) {
				return fail("returned type `%s` does not match function return type `%s`",
					instr.Operands[0].Type().Repr(), fn.ReturnType.Repr())
			}
		}
	case cir.OpBrIf:
		if len(instr.Operands) != 1 || !cir.TypesEqual(instr.Operands[0].Type(), cir.PrimI1) {
			return fail("condition is not an i1 value")
		}

		fallthrough
	case cir.OpBr:
		for _, target := range instr.Targets {
			if found, ok := fn.Block(target.Name); !ok || found != target {
				return fail("branch target `%s` is not a block of the enclosing function", target.Name)
			}
		}
	}

	return nil
}
