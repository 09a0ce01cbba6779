package passes

import (
	"strings"
	"testing"

	"github.com/takasehideki/firefly/cir"
)

func TestVerifyAcceptsWellFormed(t *testing.T) {
	mod := parseSrc(t, `extern func @print(term) unit

func @main(i64 %n) term {
entry:
  %0 = add i64 %n, 1
  %1 = pack i64 %0
  call unit @print(%1)
  %2 = le i64 %0, 0
  brif %2, low, high
low:
  ret :underflow
high:
  ret %1
}
`)

	if err := NewVerify().Run(mod); err != nil {
		t.Errorf("unexpected error: %s", err)
	}
}

func TestVerifyRejections(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		expected string
	}{
		{
			"unterminated block",
			"func @f() unit {\nentry:\n  yield\n}\n",
			"not terminated",
		},
		{
			"operand type mismatch",
			"func @f(f64 %x) unit {\nentry:\n  %0 = add i64 %x, 1\n  ret\n}\n",
			"does not match specifier",
		},
		{
			"non-numeric arithmetic",
			"func @f(ptr %p) unit {\nentry:\n  %0 = add ptr %p, %p\n  ret\n}\n",
			"not numeric",
		},
		{
			"call arity mismatch",
			"extern func @print(term) unit\nfunc @f() unit {\nentry:\n  call unit @print()\n  ret\n}\n",
			"passes 0 arguments, expected 1",
		},
		{
			"call argument type mismatch",
			"extern func @print(term) unit\nfunc @f(i64 %n) unit {\nentry:\n  call unit @print(%n)\n  ret\n}\n",
			"has type `i64`, expected `term`",
		},
		{
			"call return type mismatch",
			"extern func @id(i64) i64\nfunc @f() unit {\nentry:\n  %0 = call term @id(1)\n  ret\n}\n",
			"does not match return type",
		},
		{
			"pack of non-numeric",
			"func @f(term %t) unit {\nentry:\n  %0 = pack term %t\n  ret\n}\n",
			"not numeric",
		},
		{
			"unpack of non-term",
			"func @f(i64 %n) unit {\nentry:\n  %0 = unpack i64 %n\n  ret\n}\n",
			"expected a single term operand",
		},
		{
			"load of non-pointer",
			"func @f(i64 %n) unit {\nentry:\n  %0 = load i64 %n\n  ret\n}\n",
			"expected a single pointer operand",
		},
		{
			"store to non-pointer",
			"func @f(i64 %n) unit {\nentry:\n  store i64 1, %n\n  ret\n}\n",
			"store destination is not a pointer",
		},
		{
			"brif on non-bool",
			"func @f(i64 %n) unit {\nentry:\n  brif %n, a, b\na:\n  ret\nb:\n  ret\n}\n",
			"condition is not an i1 value",
		},
		{
			"missing return value",
			"func @f() i64 {\nentry:\n  ret\n}\n",
			"expected 1 return operand",
		},
		{
			"unit function returning value",
			"func @f() unit {\nentry:\n  ret 1\n}\n",
			"unit function returns a value",
		},
		{
			"wrong return type",
			"func @f(f64 %x) i64 {\nentry:\n  ret %x\n}\n",
			"does not match function return type",
		},
	}

	for _, tc := range testCases {
		mod := parseSrc(t, tc.src)

		err := NewVerify().Run(mod)
		if err == nil {
			t.Errorf("%s: expected an error", tc.name)
			continue
		}

		if !strings.Contains(err.Error(), tc.expected) {
			t.Errorf("%s: expected error containing `%s`, got `%s`", tc.name, tc.expected, err)
		}
	}
}

func TestVerifyMidBlockTerminator(t *testing.T) {
	mod := parseSrc(t, `func @f() unit {
entry:
  yield
  ret
}
`)

	// Splice in an early return ahead of the real terminator.
	fn, _ := mod.Func("f")
	entry := fn.Blocks[0]
	entry.Instrs = append([]*cir.Instr{{Op: cir.OpRet}}, entry.Instrs...)

	err := NewVerify().Run(mod)
	if err == nil || !strings.Contains(err.Error(), "terminator before its end") {
		t.Errorf("expected a mid-block terminator error, got %v", err)
	}
}

func TestVerifyExternalWithBody(t *testing.T) {
	mod := cir.NewModule("test")
	b := cir.NewBuilder(mod)
	fn := b.NewExtern("host", cir.PrimUnit)
	fn.Blocks = append(fn.Blocks, &cir.Block{Name: "entry"})

	err := NewVerify().Run(mod)
	if err == nil || !strings.Contains(err.Error(), "has a body") {
		t.Errorf("expected an external body error, got %v", err)
	}
}

func TestVerifyForeignBranchTarget(t *testing.T) {
	mod := parseSrc(t, `func @f() unit {
entry:
  br next
next:
  ret
}

func @g() unit {
entry:
  ret
}
`)

	// Point g's terminator at a block belonging to f.
	f, _ := mod.Func("f")
	g, _ := mod.Func("g")
	g.Blocks[0].Instrs[0] = &cir.Instr{Op: cir.OpBr, Targets: []*cir.Block{f.Blocks[1]}}

	err := NewVerify().Run(mod)
	if err == nil || !strings.Contains(err.Error(), "not a block of the enclosing function") {
		t.Errorf("expected a foreign branch target error, got %v", err)
	}
}
