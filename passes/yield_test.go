package passes

import (
	"testing"

	"github.com/takasehideki/firefly/cir"
)

const spinSrc = `func @spin(i64 %n) unit {
entry:
  br loop
loop:
  %0 = eq i64 %n, 0
  brif %0, done, loop
done:
  ret
}
`

func countYields(fn *cir.Func) int {
	count := 0
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			if instr.Op == cir.OpYield {
				count++
			}
		}
	}

	return count
}

func TestYieldInjection(t *testing.T) {
	mod := parseSrc(t, spinSrc)

	if err := NewInjectYieldPoints().Run(mod); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	fn, _ := mod.Func("spin")

	// One yield at the function entry.
	entry := fn.Blocks[0]
	if entry.Instrs[0].Op != cir.OpYield {
		t.Errorf("entry block does not start with a yield")
	}

	// One yield before the back-edge terminator of the loop block.
	loop, _ := fn.Block("loop")
	n := len(loop.Instrs)
	if loop.Instrs[n-2].Op != cir.OpYield {
		t.Errorf("no yield on the loop back edge:\n%s", loop.Repr())
	}

	// The exit block has no back edge and gets no yield.
	done, _ := fn.Block("done")
	for _, instr := range done.Instrs {
		if instr.Op == cir.OpYield {
			t.Errorf("yield injected into the loop exit block")
		}
	}

	if count := countYields(fn); count != 2 {
		t.Errorf("expected 2 yield points, got %d", count)
	}
}

func TestYieldInjectionIsIdempotent(t *testing.T) {
	mod := parseSrc(t, spinSrc)

	p := NewInjectYieldPoints()
	for i := 0; i < 3; i++ {
		if err := p.Run(mod); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}

	fn, _ := mod.Func("spin")
	if count := countYields(fn); count != 2 {
		t.Errorf("expected 2 yield points after repeated runs, got %d", count)
	}
}

func TestYieldEntryOnly(t *testing.T) {
	mod := parseSrc(t, `func @straight(i64 %n) i64 {
entry:
  %0 = add i64 %n, 1
  ret %0
}
`)

	if err := NewInjectYieldPoints().Run(mod); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	fn, _ := mod.Func("straight")
	if count := countYields(fn); count != 1 {
		t.Errorf("expected a single entry yield, got %d", count)
	}

	if fn.Blocks[0].Instrs[0].Op != cir.OpYield {
		t.Errorf("entry block does not start with a yield")
	}
}

func TestYieldSkipsExemptFuncs(t *testing.T) {
	mod := parseSrc(t, `extern func @host(i64) unit

func noyield @raw(i64 %n) unit {
entry:
  br entry
}
`)

	if err := NewInjectYieldPoints().Run(mod); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	raw, _ := mod.Func("raw")
	if count := countYields(raw); count != 0 {
		t.Errorf("yield injected into a noyield function")
	}

	host, _ := mod.Func("host")
	if len(host.Blocks) != 0 {
		t.Errorf("external declaration grew a body")
	}
}
