package cir

import "strconv"

// Builder provides a convenience API for constructing CIR modules
// programmatically.  It tracks a current function and insertion block and
// allocates fresh SSA names on demand.
type Builder struct {
	mod *Module

	fn    *Func
	block *Block

	nameCounter int
}

// NewBuilder creates a builder appending to the given module.
func NewBuilder(mod *Module) *Builder {
	return &Builder{mod: mod}
}

// Module returns the module the builder appends to.
func (b *Builder) Module() *Module {
	return b.mod
}

// NewFunc adds a new defined function to the module along with its entry
// block and positions the builder at the start of that block.
func (b *Builder) NewFunc(name string, returnType Type, params ...*Param) *Func {
	fn := &Func{
		Name:       name,
		Params:     params,
		ReturnType: returnType,
	}
	b.mod.Funcs = append(b.mod.Funcs, fn)

	b.fn = fn
	b.nameCounter = 0
	b.NewBlock("entry")

	return fn
}

// NewExtern adds an external function declaration to the module.
func (b *Builder) NewExtern(name string, returnType Type, paramTypes ...Type) *Func {
	params := make([]*Param, len(paramTypes))
	for i, pt := range paramTypes {
		params[i] = &Param{Name: "arg" + strconv.Itoa(i), Typ: pt}
	}

	fn := &Func{
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		External:   true,
	}
	b.mod.Funcs = append(b.mod.Funcs, fn)

	return fn
}

// NewBlock appends a new block to the current function and makes it the
// insertion block.
func (b *Builder) NewBlock(name string) *Block {
	block := &Block{Name: name}
	b.fn.Blocks = append(b.fn.Blocks, block)
	b.block = block

	return block
}

// SetBlock repositions the builder at the end of the given block.
func (b *Builder) SetBlock(block *Block) {
	b.block = block
}

// -----------------------------------------------------------------------------

// append appends an instruction to the insertion block, allocating a fresh
// SSA name if the instruction produces a value.
func (b *Builder) append(in *Instr) *Instr {
	if in.ProducesValue() && in.Name == "" {
		in.Name = strconv.Itoa(b.nameCounter)
		b.nameCounter++
	}

	b.block.Instrs = append(b.block.Instrs, in)
	return in
}

// Arith appends a binary arithmetic instruction.  The type specifier is taken
// from the left operand.
func (b *Builder) Arith(op Op, x, y Value) *Instr {
	return b.append(&Instr{Op: op, Typ: x.Type(), Operands: []Value{x, y}})
}

// Neg appends a negation instruction.
func (b *Builder) Neg(x Value) *Instr {
	return b.append(&Instr{Op: OpNeg, Typ: x.Type(), Operands: []Value{x}})
}

// Cmp appends a comparison instruction yielding i1.
func (b *Builder) Cmp(op Op, x, y Value) *Instr {
	return b.append(&Instr{Op: op, Typ: x.Type(), Operands: []Value{x, y}})
}

// Local appends a stack slot allocation of the given element type.
func (b *Builder) Local(elemType Type) *Instr {
	return b.append(&Instr{Op: OpLocal, Typ: elemType})
}

// Load appends a load of elemType from ptr.
func (b *Builder) Load(elemType Type, ptr Value) *Instr {
	return b.append(&Instr{Op: OpLoad, Typ: elemType, Operands: []Value{ptr}})
}

// Store appends a store of val to ptr.
func (b *Builder) Store(val, ptr Value) *Instr {
	return b.append(&Instr{Op: OpStore, Typ: val.Type(), Operands: []Value{val, ptr}})
}

// Call appends a call to fn with the given arguments.
func (b *Builder) Call(fn *Func, args ...Value) *Instr {
	operands := append([]Value{&FuncRef{Fn: fn}}, args...)
	return b.append(&Instr{Op: OpCall, Typ: fn.ReturnType, Operands: operands})
}

// Pack appends a term-encoding instruction for val.
func (b *Builder) Pack(val Value) *Instr {
	return b.append(&Instr{Op: OpPack, Typ: val.Type(), Operands: []Value{val}})
}

// Unpack appends a term-decoding instruction yielding resultType.
func (b *Builder) Unpack(resultType Type, t Value) *Instr {
	return b.append(&Instr{Op: OpUnpack, Typ: resultType, Operands: []Value{t}})
}

// TypeOf appends a term type-tag inspection instruction.
func (b *Builder) TypeOf(t Value) *Instr {
	return b.append(&Instr{Op: OpTypeOf, Operands: []Value{t}})
}

// Yield appends a yield point.
func (b *Builder) Yield() *Instr {
	return b.append(&Instr{Op: OpYield})
}

// Ret appends a return terminator.  vals is empty for unit returns.
func (b *Builder) Ret(vals ...Value) *Instr {
	return b.append(&Instr{Op: OpRet, Operands: vals})
}

// Br appends an unconditional branch to target.
func (b *Builder) Br(target *Block) *Instr {
	return b.append(&Instr{Op: OpBr, Targets: []*Block{target}})
}

// BrIf appends a conditional branch on cond.
func (b *Builder) BrIf(cond Value, then, otherwise *Block) *Instr {
	return b.append(&Instr{Op: OpBrIf, Operands: []Value{cond}, Targets: []*Block{then, otherwise}})
}
