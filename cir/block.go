package cir

import "strings"

// Block represents a basic block: a straight-line sequence of instructions
// ending in exactly one terminator.
type Block struct {
	// Name is the block's label.  Labels are unique within their function.
	Name string

	Instrs []*Instr
}

// Terminator returns the block's terminating instruction if the block is
// properly terminated.
func (b *Block) Terminator() (*Instr, bool) {
	if len(b.Instrs) == 0 {
		return nil, false
	}

	last := b.Instrs[len(b.Instrs)-1]
	return last, last.IsTerminator()
}

// Successors returns the successor blocks of this block.
func (b *Block) Successors() []*Block {
	if term, ok := b.Terminator(); ok {
		return term.Targets
	}

	return nil
}

func (b *Block) Repr() string {
	sb := strings.Builder{}

	sb.WriteString(b.Name)
	sb.WriteString(":\n")

	for _, instr := range b.Instrs {
		sb.WriteString("  ")
		sb.WriteString(instr.define())
		sb.WriteRune('\n')
	}

	return sb.String()
}
