package passes

import "sort"

// Factory constructs a fresh pass instance.  Every call returns a distinct,
// independently owned instance.
type Factory func() Pass

// registry maps pass names to factories.  It replaces generated registration
// boilerplate with an explicit table populated at package initialization.
var registry = map[string]Factory{}

// Register registers a pass factory under the given name.  Registering the
// same name twice panics: it is a wiring mistake, not a runtime condition.
func Register(name string, factory Factory) {
	if _, ok := registry[name]; ok {
		panic("pass `" + name + "` registered multiple times")
	}

	registry[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	factory, ok := registry[name]
	return factory, ok
}

// Names returns the names of all registered passes in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

func init() {
	Register("verify", func() Pass { return NewVerify() })
	Register("simplify", func() Pass { return NewSimplify() })
	Register("inject-yield-points", func() Pass { return NewInjectYieldPoints() })
	Register("convert-cir-to-llvm", func() Pass { return NewConvertCIRToLLVM() })
}
