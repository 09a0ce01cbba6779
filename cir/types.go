package cir

import "strings"

// Type represents a CIR data type.
type Type interface {
	// Repr returns the string representation of the type.
	Repr() string
}

// PrimType represents a primitive CIR type.  It must be one of the enumerated
// primitive type kinds below.
type PrimType int

// Enumeration of primitive type kinds.
const (
	PrimI1 PrimType = iota // 1-bit integer (boolean)
	PrimI8                 // 8-bit signed integer
	PrimI32                // 32-bit signed integer
	PrimI64                // 64-bit signed integer
	PrimF64                // 64-bit IEEE 754 float
	PrimTerm               // opaque, pointer-width term word
	PrimPtr                // untyped pointer
	PrimUnit               // no value (used as a "void" return type)
)

// primNames is the table of primitive type names.  It is indexed by PrimType
// and doubles as the keyword table used by the CIR parser.
var primNames = []string{
	"i1",
	"i8",
	"i32",
	"i64",
	"f64",
	"term",
	"ptr",
	"unit",
}

func (pt PrimType) Repr() string {
	return primNames[pt]
}

// -----------------------------------------------------------------------------

// FuncType represents the type of a CIR function.
type FuncType struct {
	ParamTypes []Type
	ReturnType Type
}

func (ft *FuncType) Repr() string {
	sb := strings.Builder{}
	sb.WriteRune('(')

	for i, pt := range ft.ParamTypes {
		sb.WriteString(pt.Repr())

		if i < len(ft.ParamTypes)-1 {
			sb.WriteString(", ")
		}
	}

	sb.WriteString(") ")
	sb.WriteString(ft.ReturnType.Repr())

	return sb.String()
}

// -----------------------------------------------------------------------------

// TypesEqual returns whether two CIR types are identical.
func TypesEqual(a, b Type) bool {
	switch v := a.(type) {
	case PrimType:
		w, ok := b.(PrimType)
		return ok && v == w
	case *FuncType:
		w, ok := b.(*FuncType)
		if !ok || len(v.ParamTypes) != len(w.ParamTypes) {
			return false
		}

		for i, pt := range v.ParamTypes {
			if !TypesEqual(pt, w.ParamTypes[i]) {
				return false
			}
		}

		return TypesEqual(v.ReturnType, w.ReturnType)
	}

	return false
}

// IsIntegral returns whether typ is an integral primitive type.
func IsIntegral(typ Type) bool {
	if pt, ok := typ.(PrimType); ok {
		return pt == PrimI1 || pt == PrimI8 || pt == PrimI32 || pt == PrimI64
	}

	return false
}

// IsFloat returns whether typ is a floating-point primitive type.
func IsFloat(typ Type) bool {
	pt, ok := typ.(PrimType)
	return ok && pt == PrimF64
}

// IsNumeric returns whether typ supports arithmetic instructions.
func IsNumeric(typ Type) bool {
	return IsIntegral(typ) || IsFloat(typ)
}

// IsTerm returns whether typ is the opaque term type.
func IsTerm(typ Type) bool {
	pt, ok := typ.(PrimType)
	return ok && pt == PrimTerm
}
