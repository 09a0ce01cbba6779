package cir

import "strconv"

// Value represents a single discrete value usable as an instruction operand:
// a constant, a function parameter, a function reference, or the result of a
// previous instruction.
type Value interface {
	// Repr returns the operand representation of the value.
	Repr() string

	// Type returns the CIR type of the value.
	Type() Type
}

// -----------------------------------------------------------------------------

// ConstInt is an integer or boolean constant.
type ConstInt struct {
	Typ PrimType
	Val int64
}

func (ci *ConstInt) Repr() string {
	if ci.Typ == PrimI1 {
		if ci.Val != 0 {
			return "true"
		}

		return "false"
	}

	return strconv.FormatInt(ci.Val, 10)
}

func (ci *ConstInt) Type() Type {
	return ci.Typ
}

// ConstFloat is a floating-point constant.
type ConstFloat struct {
	Val float64
}

func (cf *ConstFloat) Repr() string {
	return strconv.FormatFloat(cf.Val, 'g', -1, 64)
}

func (cf *ConstFloat) Type() Type {
	return PrimF64
}

// ConstAtom is an atom constant.  Atoms are interned into the atom table of
// their enclosing module: ID is the atom's index within that table.
type ConstAtom struct {
	Name string
	ID   int
}

func (ca *ConstAtom) Repr() string {
	return ":" + ca.Name
}

func (ca *ConstAtom) Type() Type {
	return PrimTerm
}

// -----------------------------------------------------------------------------

// Param represents a function parameter.
type Param struct {
	Name string
	Typ  Type
}

func (p *Param) Repr() string {
	return "%" + p.Name
}

func (p *Param) Type() Type {
	return p.Typ
}

// FuncRef is a reference to a function as a value, as used in call callees.
type FuncRef struct {
	Fn *Func
}

func (fr *FuncRef) Repr() string {
	return "@" + fr.Fn.Name
}

func (fr *FuncRef) Type() Type {
	return fr.Fn.Type()
}

// -----------------------------------------------------------------------------

// reprOperands builds the comma-separated operand list used by instruction
// and call representations.
func reprOperands(operands []Value) string {
	s := ""
	for i, operand := range operands {
		s += operand.Repr()

		if i < len(operands)-1 {
			s += ", "
		}
	}

	return s
}
