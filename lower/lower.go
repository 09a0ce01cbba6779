package lower

import (
	"fmt"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/takasehideki/firefly/cir"
)

// Options configures the CIR to LLVM conversion.
type Options struct {
	// Nanboxing selects the nanboxed term encoding instead of the default
	// tagged-pointer encoding.
	Nanboxing bool
}

// Lower converts a CIR module into an LLVM module.
func Lower(mod *cir.Module, opts Options) (*ir.Module, error) {
	l := &lowerer{
		opts:       opts,
		src:        mod,
		dest:       ir.NewModule(),
		funcs:      make(map[*cir.Func]*ir.Func),
		intrinsics: make(map[string]*ir.Func),
	}

	l.dest.SourceFilename = mod.Name

	l.emitAtomTable()

	// Declare every function up front so call sites can reference functions
	// defined later in the module.
	for _, fn := range mod.Funcs {
		l.declareFunc(fn)
	}

	for _, fn := range mod.Funcs {
		if fn.External {
			continue
		}

		if err := l.lowerFunc(fn); err != nil {
			return nil, err
		}
	}

	return l.dest, nil
}

// lowerer holds the state of a single module conversion.
type lowerer struct {
	opts Options

	src  *cir.Module
	dest *ir.Module

	funcs      map[*cir.Func]*ir.Func
	intrinsics map[string]*ir.Func

	// Per-function state.
	values map[cir.Value]value.Value
	blocks map[*cir.Block]*ir.Block
	block  *ir.Block
}

// -----------------------------------------------------------------------------

// emitAtomTable emits the module's atom table: one private string global per
// atom plus the table and count globals the runtime walks to recover names.
func (l *lowerer) emitAtomTable() {
	atoms := l.src.AtomTable()
	if len(atoms) == 0 {
		return
	}

	ptrs := make([]constant.Constant, len(atoms))
	for id, name := range atoms {
		data := constant.NewCharArrayFromString(name + "\x00")

		g := l.dest.NewGlobalDef(".atom."+strconv.Itoa(id), data)
		g.Immutable = true
		g.Linkage = enum.LinkagePrivate

		ptrs[id] = constant.NewGetElementPtr(
			data.Typ, g,
			constant.NewInt(types.I64, 0), constant.NewInt(types.I64, 0),
		)
	}

	table := l.dest.NewGlobalDef("__firefly_atom_table",
		constant.NewArray(types.NewArray(uint64(len(ptrs)), types.I8Ptr), ptrs...))
	table.Immutable = true

	count := l.dest.NewGlobalDef("__firefly_atom_count",
		constant.NewInt(types.I64, int64(len(atoms))))
	count.Immutable = true
}

// declareFunc declares fn in the destination module.
func (l *lowerer) declareFunc(fn *cir.Func) {
	params := make([]*ir.Param, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = ir.NewParam(param.Name, l.lowerType(param.Typ))
	}

	l.funcs[fn] = l.dest.NewFunc(fn.Name, l.lowerType(fn.ReturnType), params...)
}

// lowerFunc lowers the body of a defined function.
func (l *lowerer) lowerFunc(fn *cir.Func) error {
	llFn := l.funcs[fn]

	l.values = make(map[cir.Value]value.Value)
	l.blocks = make(map[*cir.Block]*ir.Block)

	for i, param := range fn.Params {
		l.values[param] = llFn.Params[i]
	}

	for _, block := range fn.Blocks {
		l.blocks[block] = llFn.NewBlock(block.Name)
	}

	for _, block := range fn.Blocks {
		l.block = l.blocks[block]

		for _, instr := range block.Instrs {
			result, err := l.lowerInstr(fn, instr)
			if err != nil {
				return fmt.Errorf("function `%s`: %w", fn.Name, err)
			}

			if result != nil {
				l.values[instr] = result
			}
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// lowerInstr lowers a single instruction, returning the LLVM value it
// produces, if any.
func (l *lowerer) lowerInstr(fn *cir.Func, instr *cir.Instr) (value.Value, error) {
	switch instr.Op {
	case cir.OpAdd, cir.OpSub, cir.OpMul, cir.OpDiv:
		x, err := l.lowerValue(instr.Operands[0])
		if err != nil {
			return nil, err
		}

		y, err := l.lowerValue(instr.Operands[1])
		if err != nil {
			return nil, err
		}

		if cir.IsFloat(instr.Typ) {
			switch instr.Op {
			case cir.OpAdd:
				return l.block.NewFAdd(x, y), nil
			case cir.OpSub:
				return l.block.NewFSub(x, y), nil
			case cir.OpMul:
				return l.block.NewFMul(x, y), nil
			default:
				return l.block.NewFDiv(x, y), nil
			}
		}

		switch instr.Op {
		case cir.OpAdd:
			return l.block.NewAdd(x, y), nil
		case cir.OpSub:
			return l.block.NewSub(x, y), nil
		case cir.OpMul:
			return l.block.NewMul(x, y), nil
		default:
			return l.block.NewSDiv(x, y), nil
		}
	case cir.OpNeg:
		x, err := l.lowerValue(instr.Operands[0])
		if err != nil {
			return nil, err
		}

		if cir.IsFloat(instr.Typ) {
			return l.block.NewFNeg(x), nil
		}

		intType, _ := l.lowerType(instr.Typ).(*types.IntType)
		return l.block.NewSub(constant.NewInt(intType, 0), x), nil
	case cir.OpEq, cir.OpNe, cir.OpLt, cir.OpLe, cir.OpGt, cir.OpGe:
		return l.lowerCmp(instr)
	case cir.OpLocal:
		return l.block.NewAlloca(l.lowerType(instr.Typ)), nil
	case cir.OpLoad:
		ptr, err := l.lowerPtr(instr.Operands[0], l.lowerType(instr.Typ))
		if err != nil {
			return nil, err
		}

		return l.block.NewLoad(l.lowerType(instr.Typ), ptr), nil
	case cir.OpStore:
		val, err := l.lowerValue(instr.Operands[0])
		if err != nil {
			return nil, err
		}

		ptr, err := l.lowerPtr(instr.Operands[1], l.lowerType(instr.Typ))
		if err != nil {
			return nil, err
		}

		l.block.NewStore(val, ptr)
		return nil, nil
	case cir.OpCall:
		callee, err := l.lowerValue(instr.Operands[0])
		if err != nil {
			return nil, err
		}

		args := make([]value.Value, len(instr.Operands)-1)
		for i, operand := range instr.Operands[1:] {
			if args[i], err = l.lowerValue(operand); err != nil {
				return nil, err
			}
		}

		call := l.block.NewCall(callee, args...)
		if cir.TypesEqual(instr.Typ, cir.PrimUnit) {
			return nil, nil
		}

		return call, nil
	case cir.OpPack:
		return l.lowerPack(instr)
	case cir.OpUnpack:
		return l.lowerUnpack(instr)
	case cir.OpTypeOf:
		return l.lowerTypeOf(instr)
	case cir.OpYield:
		l.block.NewCall(l.yieldIntrinsic())
		return nil, nil
	case cir.OpRet:
		if len(instr.Operands) == 0 {
			l.block.NewRet(nil)
			return nil, nil
		}

		val, err := l.lowerValue(instr.Operands[0])
		if err != nil {
			return nil, err
		}

		l.block.NewRet(val)
		return nil, nil
	case cir.OpBr:
		l.block.NewBr(l.blocks[instr.Targets[0]])
		return nil, nil
	case cir.OpBrIf:
		cond, err := l.lowerValue(instr.Operands[0])
		if err != nil {
			return nil, err
		}

		l.block.NewCondBr(cond, l.blocks[instr.Targets[0]], l.blocks[instr.Targets[1]])
		return nil, nil
	}

	return nil, fmt.Errorf("cannot lower op `%s`", cir.OpName(instr.Op))
}

// lowerCmp lowers a comparison instruction.
func (l *lowerer) lowerCmp(instr *cir.Instr) (value.Value, error) {
	x, err := l.lowerValue(instr.Operands[0])
	if err != nil {
		return nil, err
	}

	y, err := l.lowerValue(instr.Operands[1])
	if err != nil {
		return nil, err
	}

	if cir.IsFloat(instr.Typ) {
		preds := map[cir.Op]enum.FPred{
			cir.OpEq: enum.FPredOEQ,
			cir.OpNe: enum.FPredONE,
			cir.OpLt: enum.FPredOLT,
			cir.OpLe: enum.FPredOLE,
			cir.OpGt: enum.FPredOGT,
			cir.OpGe: enum.FPredOGE,
		}

		return l.block.NewFCmp(preds[instr.Op], x, y), nil
	}

	preds := map[cir.Op]enum.IPred{
		cir.OpEq: enum.IPredEQ,
		cir.OpNe: enum.IPredNE,
		cir.OpLt: enum.IPredSLT,
		cir.OpLe: enum.IPredSLE,
		cir.OpGt: enum.IPredSGT,
		cir.OpGe: enum.IPredSGE,
	}

	return l.block.NewICmp(preds[instr.Op], x, y), nil
}

// lowerPack lowers a term-encoding instruction.  The shape of the emitted
// code is where the two term encodings diverge most visibly: nanboxing packs
// a float with a single bitcast while the tagged encoding must box it on the
// heap through a runtime call.
func (l *lowerer) lowerPack(instr *cir.Instr) (value.Value, error) {
	// Constant operands encode at compile time.
	if ci, ok := instr.Operands[0].(*cir.ConstInt); ok {
		word, ok := EncodeFixnum(ci.Val, l.opts.Nanboxing)
		if !ok {
			return nil, fmt.Errorf("fixnum %d does not fit the term encoding", ci.Val)
		}

		return constant.NewInt(types.I64, int64(word)), nil
	}

	src, err := l.lowerValue(instr.Operands[0])
	if err != nil {
		return nil, err
	}

	if cir.IsFloat(instr.Typ) {
		if l.opts.Nanboxing {
			return l.block.NewBitCast(src, types.I64), nil
		}

		return l.block.NewCall(l.boxFloatIntrinsic(), src), nil
	}

	// Integral pack: widen to the term word, then tag.
	wide := src
	if intType, ok := l.lowerType(instr.Typ).(*types.IntType); ok && intType.BitSize < 64 {
		if intType.BitSize == 1 {
			wide = l.block.NewZExt(src, types.I64)
		} else {
			wide = l.block.NewSExt(src, types.I64)
		}
	}

	if l.opts.Nanboxing {
		// The tagged base word exceeds MaxInt64, so it cannot be converted
		// as a constant expression.
		base := NanboxBase | TagFixnum<<nanboxTagShift
		payload := l.block.NewAnd(wide, constant.NewInt(types.I64, int64(nanboxPayloadMask)))
		return l.block.NewOr(payload, constant.NewInt(types.I64, int64(base))), nil
	}

	shifted := l.block.NewShl(wide, constant.NewInt(types.I64, taggedTagBits))
	return l.block.NewOr(shifted, constant.NewInt(types.I64, TagFixnum)), nil
}

// lowerUnpack lowers a term-decoding instruction.
func (l *lowerer) lowerUnpack(instr *cir.Instr) (value.Value, error) {
	word, err := l.lowerValue(instr.Operands[0])
	if err != nil {
		return nil, err
	}

	if cir.IsFloat(instr.Typ) {
		if l.opts.Nanboxing {
			return l.block.NewBitCast(word, types.Double), nil
		}

		return l.block.NewCall(l.unboxFloatIntrinsic(), word), nil
	}

	var wide value.Value
	if l.opts.Nanboxing {
		// Sign-extend the 48-bit payload.
		shiftUp := l.block.NewShl(word, constant.NewInt(types.I64, 64-NanboxPayloadBits))
		wide = l.block.NewAShr(shiftUp, constant.NewInt(types.I64, 64-NanboxPayloadBits))
	} else {
		wide = l.block.NewAShr(word, constant.NewInt(types.I64, taggedTagBits))
	}

	if intType, ok := l.lowerType(instr.Typ).(*types.IntType); ok && intType.BitSize < 64 {
		return l.block.NewTrunc(wide, intType), nil
	}

	return wide, nil
}

// lowerTypeOf lowers a type-tag inspection.  The tagged encoding answers
// inline from the low bits; nanboxing defers to the runtime, which must also
// distinguish unboxed floats from the boxed NaN space.
func (l *lowerer) lowerTypeOf(instr *cir.Instr) (value.Value, error) {
	word, err := l.lowerValue(instr.Operands[0])
	if err != nil {
		return nil, err
	}

	if l.opts.Nanboxing {
		return l.block.NewCall(l.typeOfIntrinsic(), word), nil
	}

	tag := l.block.NewAnd(word, constant.NewInt(types.I64, int64(taggedTagMask)))
	return l.block.NewTrunc(tag, types.I32), nil
}

// -----------------------------------------------------------------------------

// lowerValue lowers an operand value.
func (l *lowerer) lowerValue(v cir.Value) (value.Value, error) {
	switch val := v.(type) {
	case *cir.ConstInt:
		intType, _ := l.lowerType(val.Typ).(*types.IntType)
		return constant.NewInt(intType, val.Val), nil
	case *cir.ConstFloat:
		return constant.NewFloat(types.Double, val.Val), nil
	case *cir.ConstAtom:
		word, ok := EncodeAtom(int64(val.ID), l.opts.Nanboxing)
		if !ok {
			return nil, fmt.Errorf("atom ID %d does not fit the term encoding", val.ID)
		}

		return constant.NewInt(types.I64, int64(word)), nil
	case *cir.FuncRef:
		return l.funcs[val.Fn], nil
	default:
		if ll, ok := l.values[v]; ok {
			return ll, nil
		}

		return nil, fmt.Errorf("operand `%s` has no lowered value", v.Repr())
	}
}

// lowerPtr lowers a pointer operand, bitcasting it to point at elemType when
// the underlying stack slot was allocated at a different type.  CIR pointers
// are untyped; LLVM's are not.
func (l *lowerer) lowerPtr(v cir.Value, elemType types.Type) (value.Value, error) {
	ptr, err := l.lowerValue(v)
	if err != nil {
		return nil, err
	}

	want := types.NewPointer(elemType)
	if ptr.Type().Equal(want) {
		return ptr, nil
	}

	return l.block.NewBitCast(ptr, want), nil
}

// lowerType maps a CIR type onto its LLVM representation.  Term values are
// 64-bit machine words under both encodings.
func (l *lowerer) lowerType(typ cir.Type) types.Type {
	switch t := typ.(type) {
	case cir.PrimType:
		switch t {
		case cir.PrimI1:
			return types.I1
		case cir.PrimI8:
			return types.I8
		case cir.PrimI32:
			return types.I32
		case cir.PrimI64:
			return types.I64
		case cir.PrimF64:
			return types.Double
		case cir.PrimTerm:
			return types.I64
		case cir.PrimPtr:
			return types.I8Ptr
		case cir.PrimUnit:
			return types.Void
		}
	case *cir.FuncType:
		params := make([]types.Type, len(t.ParamTypes))
		for i, pt := range t.ParamTypes {
			params[i] = l.lowerType(pt)
		}

		return types.NewPointer(types.NewFunc(l.lowerType(t.ReturnType), params...))
	}

	panic(fmt.Sprintf("cannot lower type `%s`", typ.Repr()))
}
