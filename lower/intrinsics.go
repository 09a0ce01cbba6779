package lower

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Names of the runtime builtins the generated code links against.  Their
// implementations live in the runtime library, not in this compiler.
const (
	// BuiltinYield is the cooperative scheduling check inserted by the
	// inject-yield-points pass.
	BuiltinYield = "__firefly_builtin_yield"

	// BuiltinTypeOf recovers the type tag of a nanboxed term word; the
	// tagged-pointer encoding answers typeof inline instead.
	BuiltinTypeOf = "__firefly_builtin_typeof"

	// BuiltinBoxFloat and BuiltinUnboxFloat heap-box floats under the
	// tagged-pointer encoding, where floats do not fit in the term word.
	BuiltinBoxFloat   = "__firefly_builtin_box_float"
	BuiltinUnboxFloat = "__firefly_builtin_unbox_float"
)

// intrinsic returns the declaration of the named runtime builtin, declaring
// it in the destination module on first use.
func (l *lowerer) intrinsic(name string, returnType types.Type, paramTypes ...types.Type) *ir.Func {
	if fn, ok := l.intrinsics[name]; ok {
		return fn
	}

	params := make([]*ir.Param, len(paramTypes))
	for i, pt := range paramTypes {
		params[i] = ir.NewParam("", pt)
	}

	fn := l.dest.NewFunc(name, returnType, params...)
	l.intrinsics[name] = fn

	return fn
}

func (l *lowerer) yieldIntrinsic() *ir.Func {
	return l.intrinsic(BuiltinYield, types.Void)
}

func (l *lowerer) typeOfIntrinsic() *ir.Func {
	return l.intrinsic(BuiltinTypeOf, types.I32, types.I64)
}

func (l *lowerer) boxFloatIntrinsic() *ir.Func {
	return l.intrinsic(BuiltinBoxFloat, types.I64, types.Double)
}

func (l *lowerer) unboxFloatIntrinsic() *ir.Func {
	return l.intrinsic(BuiltinUnboxFloat, types.Double, types.I64)
}
