package passes

import (
	"strings"
	"testing"

	"github.com/takasehideki/firefly/cir"
	"github.com/takasehideki/firefly/syntax"
)

// parseSrc parses a CIR fixture, failing the test on error.
func parseSrc(t *testing.T, src string) *cir.Module {
	t.Helper()

	mod, err := syntax.ParseModule("test", strings.NewReader(src))
	if err != nil {
		t.Fatalf("fixture failed to parse: %s", err)
	}

	return mod
}

func TestRegistryNames(t *testing.T) {
	expected := []string{"convert-cir-to-llvm", "inject-yield-points", "simplify", "verify"}

	names := Names()
	if len(names) != len(expected) {
		t.Fatalf("expected %d registered passes, got %v", len(expected), names)
	}

	for i, name := range expected {
		if names[i] != name {
			t.Errorf("expected pass `%s` at position %d, got `%s`", name, i, names[i])
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	factory, ok := Lookup("convert-cir-to-llvm")
	if !ok {
		t.Fatalf("`convert-cir-to-llvm` not registered")
	}

	// Factories return fresh, independently owned instances.
	p1 := factory().(*ConvertCIRToLLVM)
	p2 := factory().(*ConvertCIRToLLVM)
	if p1 == p2 {
		t.Errorf("factory returned the same instance twice")
	}

	if p1.Name() != "convert-cir-to-llvm" {
		t.Errorf("wrong pass name `%s`", p1.Name())
	}

	if _, ok := Lookup("no-such-pass"); ok {
		t.Errorf("lookup of an unregistered pass succeeded")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("duplicate registration did not panic")
		}
	}()

	Register("verify", func() Pass { return NewVerify() })
}

func TestManagerAddByName(t *testing.T) {
	pm := NewManager()
	if err := pm.AddByName("verify", "simplify"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	err := pm.AddByName("no-such-pass")
	if err == nil || !strings.Contains(err.Error(), "unknown pass `no-such-pass`") {
		t.Errorf("expected an unknown pass error, got %v", err)
	}
}

func TestManagerWrapsPassErrors(t *testing.T) {
	mod := parseSrc(t, `func @f() unit {
entry:
  yield
  ret
}
`)

	// Break the module so verification fails.
	fn, _ := mod.Func("f")
	fn.Blocks[0].Instrs = fn.Blocks[0].Instrs[:1]

	pm := NewManager()
	if err := pm.AddByName("verify"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	err := pm.Run(mod)
	if err == nil {
		t.Fatalf("expected verification to fail")
	}

	if !strings.HasPrefix(err.Error(), "verify: ") {
		t.Errorf("pass error not attributed to its pass: %s", err)
	}
}
