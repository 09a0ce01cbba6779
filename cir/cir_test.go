package cir

import (
	"strings"
	"testing"
)

// buildMaxFunc builds the two-block `max` function used by several tests:
// it returns the larger of its two i64 arguments through a stack slot.
func buildMaxFunc(b *Builder) *Func {
	a := &Param{Name: "a", Typ: PrimI64}
	bp := &Param{Name: "b", Typ: PrimI64}
	fn := b.NewFunc("max", PrimI64, a, bp)
	entry := fn.Blocks[0]

	thenBlock := b.NewBlock("then")
	elseBlock := b.NewBlock("else")

	b.SetBlock(entry)
	cond := b.Cmp(OpGt, a, bp)
	b.BrIf(cond, thenBlock, elseBlock)

	b.SetBlock(thenBlock)
	b.Ret(a)

	b.SetBlock(elseBlock)
	b.Ret(bp)

	return fn
}

func TestBuilderNames(t *testing.T) {
	b := NewBuilder(NewModule("test"))
	fn := b.NewFunc("f", PrimI64, &Param{Name: "x", Typ: PrimI64})

	add := b.Arith(OpAdd, fn.Params[0], &ConstInt{Typ: PrimI64, Val: 1})
	mul := b.Arith(OpMul, add, add)
	b.Store(mul, b.Local(PrimI64))
	b.Ret(mul)

	if add.Name != "0" {
		t.Errorf("expected first SSA name to be %%0, got %%%s", add.Name)
	}

	if mul.Name != "1" {
		t.Errorf("expected second SSA name to be %%1, got %%%s", mul.Name)
	}

	// Stores produce no value and must not consume a name.
	entry := fn.Blocks[0]
	store := entry.Instrs[3]
	if store.Op != OpStore || store.Name != "" {
		t.Errorf("expected unnamed store, got `%s`", store.define())
	}
}

func TestInstrTypes(t *testing.T) {
	b := NewBuilder(NewModule("test"))
	fn := b.NewFunc("f", PrimTerm, &Param{Name: "x", Typ: PrimI64})
	x := fn.Params[0]

	testCases := []struct {
		instr    *Instr
		expected Type
	}{
		{b.Arith(OpAdd, x, x), PrimI64},
		{b.Cmp(OpLt, x, x), PrimI1},
		{b.Local(PrimF64), PrimPtr},
		{b.Pack(x), PrimTerm},
		{b.Yield(), PrimUnit},
	}
	pack := testCases[3].instr
	testCases = append(testCases,
		struct {
			instr    *Instr
			expected Type
		}{b.TypeOf(pack), PrimI32},
	)

	for _, tc := range testCases {
		if !TypesEqual(tc.instr.Type(), tc.expected) {
			t.Errorf("expected `%s` to have type %s, got %s", OpName(tc.instr.Op), tc.expected.Repr(), tc.instr.Type().Repr())
		}
	}
}

func TestTerminators(t *testing.T) {
	b := NewBuilder(NewModule("test"))
	fn := buildMaxFunc(b)

	for _, block := range fn.Blocks {
		term, ok := block.Terminator()
		if !ok {
			t.Fatalf("block `%s` is unterminated", block.Name)
		}

		if !term.IsTerminator() {
			t.Errorf("`%s` not recognized as a terminator", OpName(term.Op))
		}
	}

	entry := fn.Blocks[0]
	succs := entry.Successors()
	if len(succs) != 2 || succs[0].Name != "then" || succs[1].Name != "else" {
		t.Errorf("wrong successors for entry block: %v", succs)
	}
}

func TestInternAtom(t *testing.T) {
	mod := NewModule("test")

	ok1 := mod.InternAtom("ok")
	errAtom := mod.InternAtom("error")
	ok2 := mod.InternAtom("ok")

	if ok1.ID != ok2.ID {
		t.Errorf("interning `ok` twice produced IDs %d and %d", ok1.ID, ok2.ID)
	}

	if errAtom.ID == ok1.ID {
		t.Errorf("`ok` and `error` share atom ID %d", ok1.ID)
	}

	table := mod.AtomTable()
	if len(table) != 2 || table[ok1.ID] != "ok" || table[errAtom.ID] != "error" {
		t.Errorf("wrong atom table: %v", table)
	}
}

func TestFuncTypesEqual(t *testing.T) {
	f1 := &FuncType{ParamTypes: []Type{PrimI64, PrimTerm}, ReturnType: PrimUnit}
	f2 := &FuncType{ParamTypes: []Type{PrimI64, PrimTerm}, ReturnType: PrimUnit}
	f3 := &FuncType{ParamTypes: []Type{PrimI64}, ReturnType: PrimUnit}

	if !TypesEqual(f1, f2) {
		t.Errorf("%s != %s", f1.Repr(), f2.Repr())
	}

	if TypesEqual(f1, f3) {
		t.Errorf("%s == %s", f1.Repr(), f3.Repr())
	}

	if TypesEqual(f1, PrimI64) {
		t.Errorf("%s == i64", f1.Repr())
	}
}

func TestModuleRepr(t *testing.T) {
	mod := NewModule("test")
	b := NewBuilder(mod)

	buildMaxFunc(b)
	b.NewExtern("print", PrimUnit, PrimTerm)

	expected := strings.Join([]string{
		"extern func @print(term) unit",
		"",
		"func @max(i64 %a, i64 %b) i64 {",
		"entry:",
		"  %0 = gt i64 %a, %b",
		"  brif %0, then, else",
		"then:",
		"  ret %a",
		"else:",
		"  ret %b",
		"}",
		"",
	}, "\n")

	if got := mod.Repr(); got != expected {
		t.Errorf("wrong module representation:\n%s", got)
	}
}

func TestConstRepr(t *testing.T) {
	testCases := []struct {
		val      Value
		expected string
	}{
		{&ConstInt{Typ: PrimI64, Val: -42}, "-42"},
		{&ConstInt{Typ: PrimI1, Val: 1}, "true"},
		{&ConstInt{Typ: PrimI1, Val: 0}, "false"},
		{&ConstFloat{Val: 2.5}, "2.5"},
		{&ConstAtom{Name: "ok", ID: 0}, ":ok"},
	}

	for _, tc := range testCases {
		if got := tc.val.Repr(); got != tc.expected {
			t.Errorf("expected `%s`, got `%s`", tc.expected, got)
		}
	}
}
