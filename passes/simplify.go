package passes

import (
	"math"

	"github.com/takasehideki/firefly/cir"
)

// Simplify performs constant folding and trivial control-flow cleanup: binary
// and unary arithmetic over constants is evaluated, comparisons over
// constants become boolean constants, conditional branches on constant
// conditions become unconditional, and blocks unreachable from the entry are
// removed.
type Simplify struct{}

// NewSimplify creates a new simplification pass.
func NewSimplify() *Simplify {
	return &Simplify{}
}

func (s *Simplify) Name() string {
	return "simplify"
}

func (s *Simplify) Run(mod *cir.Module) error {
	for _, fn := range mod.Funcs {
		if fn.External {
			continue
		}

		s.simplifyFunc(fn)
	}

	return nil
}

func (s *Simplify) simplifyFunc(fn *cir.Func) {
	// folded maps an instruction to the constant it folded to.  Operand
	// rewriting chases the map so chains of folds collapse in one sweep.
	folded := make(map[*cir.Instr]cir.Value)

	for _, block := range fn.Blocks {
		kept := block.Instrs[:0]

		for _, instr := range block.Instrs {
			for i, operand := range instr.Operands {
				if prev, ok := operand.(*cir.Instr); ok {
					if c, ok := folded[prev]; ok {
						instr.Operands[i] = c
					}
				}
			}

			if c, ok := s.foldInstr(instr); ok {
				folded[instr] = c
				continue
			}

			if instr.Op == cir.OpBrIf {
				if cond, ok := instr.Operands[0].(*cir.ConstInt); ok {
					target := instr.Targets[0]
					if cond.Val == 0 {
						target = instr.Targets[1]
					}

					instr.Op = cir.OpBr
					instr.Operands = nil
					instr.Targets = []*cir.Block{target}
				}
			}

			kept = append(kept, instr)
		}

		block.Instrs = kept
	}

	s.pruneUnreachable(fn)
}

// foldInstr attempts to evaluate instr at compile time.  It returns the
// constant result if folding succeeded.
func (s *Simplify) foldInstr(instr *cir.Instr) (cir.Value, bool) {
	switch instr.Op {
	case cir.OpAdd, cir.OpSub, cir.OpMul, cir.OpDiv,
		cir.OpEq, cir.OpNe, cir.OpLt, cir.OpLe, cir.OpGt, cir.OpGe:
		if len(instr.Operands) != 2 {
			return nil, false
		}
	case cir.OpNeg:
		if len(instr.Operands) != 1 {
			return nil, false
		}
	default:
		return nil, false
	}

	if xi, ok := instr.Operands[0].(*cir.ConstInt); ok {
		if instr.Op == cir.OpNeg {
			if xi.Val == math.MinInt64 || !fitsInt(-xi.Val, xi.Typ) {
				return nil, false
			}

			return &cir.ConstInt{Typ: xi.Typ, Val: -xi.Val}, true
		}

		yi, ok := instr.Operands[1].(*cir.ConstInt)
		if !ok {
			return nil, false
		}

		return foldIntOp(instr.Op, xi, yi)
	}

	if xf, ok := instr.Operands[0].(*cir.ConstFloat); ok {
		if instr.Op == cir.OpNeg {
			return &cir.ConstFloat{Val: -xf.Val}, true
		}

		yf, ok := instr.Operands[1].(*cir.ConstFloat)
		if !ok {
			return nil, false
		}

		return foldFloatOp(instr.Op, xf, yf)
	}

	return nil, false
}

// foldIntOp evaluates a binary integer op.  Folds whose result wraps or
// does not fit the operand type are refused and left for the runtime.
func foldIntOp(op cir.Op, x, y *cir.ConstInt) (cir.Value, bool) {
	boolConst := func(v bool) (cir.Value, bool) {
		c := &cir.ConstInt{Typ: cir.PrimI1}
		if v {
			c.Val = 1
		}

		return c, true
	}

	intConst := func(v int64) (cir.Value, bool) {
		if !fitsInt(v, x.Typ) {
			return nil, false
		}

		return &cir.ConstInt{Typ: x.Typ, Val: v}, true
	}

	switch op {
	case cir.OpAdd:
		r := x.Val + y.Val
		if (x.Val >= 0) == (y.Val >= 0) && (r >= 0) != (x.Val >= 0) {
			return nil, false
		}

		return intConst(r)
	case cir.OpSub:
		r := x.Val - y.Val
		if (x.Val >= 0) != (y.Val >= 0) && (r >= 0) != (x.Val >= 0) {
			return nil, false
		}

		return intConst(r)
	case cir.OpMul:
		if x.Val == -1 && y.Val == math.MinInt64 {
			return nil, false
		}

		r := x.Val * y.Val
		if x.Val != 0 && r/x.Val != y.Val {
			return nil, false
		}

		return intConst(r)
	case cir.OpDiv:
		// Fold of a division by zero would hide a runtime trap, and the
		// one overflowing quotient has no representable result.
		if y.Val == 0 || (x.Val == math.MinInt64 && y.Val == -1) {
			return nil, false
		}

		return intConst(x.Val / y.Val)
	case cir.OpEq:
		return boolConst(x.Val == y.Val)
	case cir.OpNe:
		return boolConst(x.Val != y.Val)
	case cir.OpLt:
		return boolConst(x.Val < y.Val)
	case cir.OpLe:
		return boolConst(x.Val <= y.Val)
	case cir.OpGt:
		return boolConst(x.Val > y.Val)
	case cir.OpGe:
		return boolConst(x.Val >= y.Val)
	}

	return nil, false
}

func foldFloatOp(op cir.Op, x, y *cir.ConstFloat) (cir.Value, bool) {
	boolConst := func(v bool) (cir.Value, bool) {
		c := &cir.ConstInt{Typ: cir.PrimI1}
		if v {
			c.Val = 1
		}

		return c, true
	}

	switch op {
	case cir.OpAdd:
		return &cir.ConstFloat{Val: x.Val + y.Val}, true
	case cir.OpSub:
		return &cir.ConstFloat{Val: x.Val - y.Val}, true
	case cir.OpMul:
		return &cir.ConstFloat{Val: x.Val * y.Val}, true
	case cir.OpDiv:
		return &cir.ConstFloat{Val: x.Val / y.Val}, true
	case cir.OpEq:
		return boolConst(x.Val == y.Val)
	case cir.OpNe:
		return boolConst(x.Val != y.Val)
	case cir.OpLt:
		return boolConst(x.Val < y.Val)
	case cir.OpLe:
		return boolConst(x.Val <= y.Val)
	case cir.OpGt:
		return boolConst(x.Val > y.Val)
	case cir.OpGe:
		return boolConst(x.Val >= y.Val)
	}

	return nil, false
}

// fitsInt reports whether v is representable in the given integral type.
func fitsInt(v int64, typ cir.PrimType) bool {
	switch typ {
	case cir.PrimI1:
		return v == 0 || v == 1
	case cir.PrimI8:
		return math.MinInt8 <= v && v <= math.MaxInt8
	case cir.PrimI32:
		return math.MinInt32 <= v && v <= math.MaxInt32
	default:
		return true
	}
}

// pruneUnreachable removes blocks not reachable from the entry block.
func (s *Simplify) pruneUnreachable(fn *cir.Func) {
	if len(fn.Blocks) == 0 {
		return
	}

	reachable := make(map[*cir.Block]bool)

	var visit func(b *cir.Block)
	visit = func(b *cir.Block) {
		if reachable[b] {
			return
		}
		reachable[b] = true

		for _, succ := range b.Successors() {
			visit(succ)
		}
	}
	visit(fn.Blocks[0])

	kept := fn.Blocks[:0]
	for _, block := range fn.Blocks {
		if reachable[block] {
			kept = append(kept, block)
		}
	}

	fn.Blocks = kept
}
