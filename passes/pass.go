// Package passes defines the CIR transformation pass interface, the pass
// manager that runs pipelines of passes over a module, and the registry that
// maps pass names to factories.
package passes

import (
	"fmt"

	"github.com/takasehideki/firefly/cir"
	"github.com/takasehideki/firefly/report"
)

// Pass is a unit of CIR transformation or analysis run by the pass manager
// over a module.  A pass instance is uniquely owned by the manager it is
// added to and must not be shared across managers.
type Pass interface {
	// Name returns the registry name of the pass.
	Name() string

	// Run applies the pass to the module in place.  A returned error stops
	// the pipeline; it signals erroneous input, not an internal failure.
	Run(mod *cir.Module) error
}

// Manager runs a sequence of passes over a module in order.
type Manager struct {
	passes []Pass
}

// NewManager creates an empty pass manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends a pass to the manager's pipeline, taking ownership of it.
func (pm *Manager) Add(p Pass) {
	pm.passes = append(pm.passes, p)
}

// AddByName looks up each named pass in the registry and appends a fresh
// instance of it to the pipeline.
func (pm *Manager) AddByName(names ...string) error {
	for _, name := range names {
		factory, ok := Lookup(name)
		if !ok {
			return fmt.Errorf("unknown pass `%s`", name)
		}

		pm.Add(factory())
	}

	return nil
}

// Run applies the pipeline to mod, stopping at the first pass error.  A panic
// escaping a pass is an internal invariant violation: it is routed to the
// installed fatal error handler and the process aborts.
func (pm *Manager) Run(mod *cir.Module) error {
	for _, p := range pm.passes {
		if err := pm.runOne(p, mod); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}

	return nil
}

func (pm *Manager) runOne(p Pass, mod *cir.Module) error {
	defer report.CatchFatal(p.Name())
	return p.Run(mod)
}
