package passes

import "github.com/takasehideki/firefly/cir"

// InjectYieldPoints inserts cooperative scheduling yield points into every
// defined function: one at the function entry and one on every loop back
// edge.  The lowering turns each yield point into a call to the runtime's
// yield builtin, which gives the scheduler a chance to preempt long-running
// or non-terminating code.
//
// Functions marked noyield and external declarations are left untouched, and
// a yield is never inserted directly next to an existing one.
type InjectYieldPoints struct{}

// NewInjectYieldPoints creates a new yield point injection pass.
func NewInjectYieldPoints() *InjectYieldPoints {
	return &InjectYieldPoints{}
}

func (p *InjectYieldPoints) Name() string {
	return "inject-yield-points"
}

func (p *InjectYieldPoints) Run(mod *cir.Module) error {
	for _, fn := range mod.Funcs {
		if fn.External || fn.NoYield || len(fn.Blocks) == 0 {
			continue
		}

		p.injectFunc(fn)
	}

	return nil
}

func (p *InjectYieldPoints) injectFunc(fn *cir.Func) {
	// Entry yield: charge one scheduling check per function activation.
	entry := fn.Blocks[0]
	if len(entry.Instrs) == 0 || entry.Instrs[0].Op != cir.OpYield {
		entry.Instrs = append([]*cir.Instr{{Op: cir.OpYield}}, entry.Instrs...)
	}

	// Back-edge yields: a loop must pass a yield point on every iteration.
	for _, block := range backEdgeSources(fn) {
		n := len(block.Instrs)
		if n >= 2 && block.Instrs[n-2].Op == cir.OpYield {
			continue
		}

		term := block.Instrs[n-1]
		block.Instrs = append(block.Instrs[:n-1], &cir.Instr{Op: cir.OpYield}, term)
	}
}

// backEdgeSources returns the blocks whose terminator takes a CFG back edge:
// an edge to a block currently on the DFS stack.
func backEdgeSources(fn *cir.Func) []*cir.Block {
	const (
		unvisited = iota
		onStack
		done
	)

	state := make(map[*cir.Block]int)
	var sources []*cir.Block
	marked := make(map[*cir.Block]bool)

	var visit func(b *cir.Block)
	visit = func(b *cir.Block) {
		state[b] = onStack

		for _, succ := range b.Successors() {
			switch state[succ] {
			case unvisited:
				visit(succ)
			case onStack:
				if !marked[b] {
					marked[b] = true
					sources = append(sources, b)
				}
			}
		}

		state[b] = done
	}
	visit(fn.Blocks[0])

	return sources
}
