package cir

import "strings"

// Instr represents a single CIR instruction.  Instructions that produce a
// value are bound to an SSA name and implement Value so later instructions
// can use them as operands.
type Instr struct {
	// Name is the SSA name the instruction's result is bound to.  It is empty
	// for instructions which produce no value.
	Name string

	// Op is the instruction's op code.  It must be one of the enumerated op
	// codes below.
	Op Op

	// Typ is the type specifier of the instruction: the type the instruction
	// operates over and, for value-producing instructions, the type it
	// yields.  Comparisons always yield i1 regardless of their specifier.
	Typ Type

	// Operands are the values the instruction is applied to.
	Operands []Value

	// Targets are the successor blocks of a branch terminator.
	Targets []*Block
}

// Op is a CIR instruction op code.
type Op int

// Enumeration of instruction op codes.
const (
	// Arithmetic
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpNeg

	// Comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Memory
	OpLocal
	OpLoad
	OpStore

	// Function calling
	OpCall

	// Term encoding
	OpPack
	OpUnpack
	OpTypeOf

	// Scheduling
	OpYield

	// Terminators
	OpRet
	OpBr
	OpBrIf
)

// opNames is the table of op code names.  It is indexed by Op and doubles as
// the instruction keyword table used by the CIR parser.
var opNames = []string{
	"add",
	"sub",
	"mul",
	"div",
	"neg",

	"eq",
	"ne",
	"lt",
	"le",
	"gt",
	"ge",

	"local",
	"load",
	"store",

	"call",

	"pack",
	"unpack",
	"typeof",

	"yield",

	"ret",
	"br",
	"brif",
}

// OpName returns the mnemonic of the given op code.
func OpName(op Op) string {
	return opNames[op]
}

// -----------------------------------------------------------------------------

func (in *Instr) Repr() string {
	return "%" + in.Name
}

// Type returns the type of the value the instruction produces.  Instructions
// which produce no value have type unit.
func (in *Instr) Type() Type {
	switch in.Op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return PrimI1
	case OpLocal:
		return PrimPtr
	case OpPack:
		return PrimTerm
	case OpTypeOf:
		return PrimI32
	case OpStore, OpYield, OpRet, OpBr, OpBrIf:
		return PrimUnit
	default:
		return in.Typ
	}
}

// IsTerminator returns whether the instruction terminates a block.
func (in *Instr) IsTerminator() bool {
	switch in.Op {
	case OpRet, OpBr, OpBrIf:
		return true
	default:
		return false
	}
}

// ProducesValue returns whether the instruction yields a result that can be
// bound to an SSA name.
func (in *Instr) ProducesValue() bool {
	switch in.Op {
	case OpStore, OpYield, OpRet, OpBr, OpBrIf:
		return false
	case OpCall:
		return !TypesEqual(in.Type(), PrimUnit)
	default:
		return true
	}
}

// define returns the full textual form of the instruction as it appears in a
// block body (as opposed to Repr, which is its operand form).
func (in *Instr) define() string {
	sb := strings.Builder{}

	if in.ProducesValue() {
		sb.WriteRune('%')
		sb.WriteString(in.Name)
		sb.WriteString(" = ")
	}

	sb.WriteString(opNames[in.Op])

	// Calls use the form `call <ret-type> @callee(<operands>)` where the
	// callee is the first operand.
	if in.Op == OpCall {
		sb.WriteRune(' ')
		sb.WriteString(in.Typ.Repr())
		sb.WriteRune(' ')
		sb.WriteString(in.Operands[0].Repr())
		sb.WriteRune('(')
		sb.WriteString(reprOperands(in.Operands[1:]))
		sb.WriteRune(')')
		return sb.String()
	}

	if in.Typ != nil {
		sb.WriteRune(' ')
		sb.WriteString(in.Typ.Repr())
	}

	if len(in.Operands) > 0 {
		sb.WriteRune(' ')
		sb.WriteString(reprOperands(in.Operands))
	}

	if len(in.Targets) > 0 {
		if len(in.Operands) > 0 {
			sb.WriteRune(',')
		}

		for i, target := range in.Targets {
			sb.WriteRune(' ')
			sb.WriteString(target.Name)

			if i < len(in.Targets)-1 {
				sb.WriteRune(',')
			}
		}
	}

	return sb.String()
}
