package cir

import "strings"

// Module represents a single unit of CIR.  Modules are distinct translation
// units: all symbols not immediately defined in the module are declared as
// external and resolved later by the linker.
type Module struct {
	// Name is the name of the module.
	Name string

	// Funcs is the list of functions declared or defined in the module.
	Funcs []*Func

	// atoms is the module's atom table.  Atom constants store an index into
	// this table; the table itself is emitted into the lowered module so the
	// runtime can recover atom names.
	atoms   []string
	atomIDs map[string]int
}

// NewModule creates a new, empty CIR module named name.
func NewModule(name string) *Module {
	return &Module{
		Name:    name,
		atomIDs: make(map[string]int),
	}
}

// InternAtom interns an atom name into the module's atom table and returns
// its atom constant.  Interning the same name twice yields the same ID.
func (m *Module) InternAtom(name string) *ConstAtom {
	if id, ok := m.atomIDs[name]; ok {
		return &ConstAtom{Name: name, ID: id}
	}

	id := len(m.atoms)
	m.atoms = append(m.atoms, name)
	m.atomIDs[name] = id

	return &ConstAtom{Name: name, ID: id}
}

// AtomTable returns the module's atom table in ID order.
func (m *Module) AtomTable() []string {
	return m.atoms
}

// Func returns the function named name if one is declared in the module.
func (m *Module) Func(name string) (*Func, bool) {
	for _, fn := range m.Funcs {
		if fn.Name == name {
			return fn, true
		}
	}

	return nil, false
}

func (m *Module) Repr() string {
	sb := strings.Builder{}

	// Write the external declarations first: defined functions never appear
	// at the top of the textual form.
	for _, fn := range m.Funcs {
		if fn.External {
			sb.WriteString(fn.reprDecl())
			sb.WriteRune('\n')
		}
	}

	for _, fn := range m.Funcs {
		if fn.External {
			continue
		}

		sb.WriteRune('\n')
		sb.WriteString(fn.Repr())
	}

	return sb.String()
}

// -----------------------------------------------------------------------------

// Func represents a CIR function: a declaration together with an optional
// body of basic blocks.
type Func struct {
	Name       string
	Params     []*Param
	ReturnType Type

	// External marks the function as externally defined: it has no body and
	// will be resolved by the linker.
	External bool

	// NoYield marks the function as exempt from yield point injection.
	NoYield bool

	// Blocks is the function's body.  The first block is the entry block.
	Blocks []*Block
}

// Type returns the function's type.
func (fn *Func) Type() Type {
	paramTypes := make([]Type, len(fn.Params))
	for i, param := range fn.Params {
		paramTypes[i] = param.Typ
	}

	return &FuncType{ParamTypes: paramTypes, ReturnType: fn.ReturnType}
}

// Block returns the block labeled name if it exists in the function.
func (fn *Func) Block(name string) (*Block, bool) {
	for _, b := range fn.Blocks {
		if b.Name == name {
			return b, true
		}
	}

	return nil, false
}

// reprDecl returns the textual form of the function's declaration.
func (fn *Func) reprDecl() string {
	sb := strings.Builder{}

	if fn.External {
		sb.WriteString("extern ")
	}

	sb.WriteString("func ")

	if fn.NoYield {
		sb.WriteString("noyield ")
	}

	sb.WriteRune('@')
	sb.WriteString(fn.Name)
	sb.WriteRune('(')

	for i, param := range fn.Params {
		sb.WriteString(param.Typ.Repr())

		if !fn.External {
			sb.WriteString(" %")
			sb.WriteString(param.Name)
		}

		if i < len(fn.Params)-1 {
			sb.WriteString(", ")
		}
	}

	sb.WriteString(") ")
	sb.WriteString(fn.ReturnType.Repr())

	return sb.String()
}

func (fn *Func) Repr() string {
	if fn.External {
		return fn.reprDecl()
	}

	sb := strings.Builder{}
	sb.WriteString(fn.reprDecl())
	sb.WriteString(" {\n")

	for _, b := range fn.Blocks {
		sb.WriteString(b.Repr())
	}

	sb.WriteString("}\n")
	return sb.String()
}
