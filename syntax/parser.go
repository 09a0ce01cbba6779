package syntax

import (
	"fmt"
	"io"
	"strconv"

	"github.com/takasehideki/firefly/cir"
)

// Parser parses textual CIR into a CIR module.  The grammar matches the
// output of the module's Repr methods, so parse and print round-trip.
type Parser struct {
	lexer *Lexer
	tok   *Token

	// ahead buffers one token of lookahead used to tell block labels and
	// instructions apart.
	ahead *Token

	mod *cir.Module

	// Per-function parse state.
	fn     *cir.Func
	locals map[string]cir.Value

	// pendingBranches records branch instructions whose target labels have
	// not yet been resolved to blocks.  They are resolved at the end of each
	// function body, so branches may reference blocks defined later.
	pendingBranches []pendingBranch

	// pendingCalls records call instructions whose callees have not yet been
	// resolved, allowing calls to functions defined later in the module.
	pendingCalls []pendingCall
}

type pendingBranch struct {
	instr  *cir.Instr
	labels []string
	line   int
}

type pendingCall struct {
	instr *cir.Instr
	name  string
	line  int
}

// ParseModule parses an entire CIR module named name from r.
func ParseModule(name string, r io.Reader) (*cir.Module, error) {
	p := &Parser{
		lexer: NewLexer(r),
		mod:   cir.NewModule(name),
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	for p.tok.Kind != TokEOF {
		if err := p.parseDecl(); err != nil {
			return nil, err
		}
	}

	if err := p.resolveCalls(); err != nil {
		return nil, err
	}

	return p.mod, nil
}

// -----------------------------------------------------------------------------

// parseDecl parses a top-level declaration: an external function declaration
// or a function definition.
func (p *Parser) parseDecl() error {
	external := false
	if p.tok.Kind == TokIdent && p.tok.Value == "extern" {
		external = true

		if err := p.next(); err != nil {
			return err
		}
	}

	if err := p.expectIdent("func"); err != nil {
		return err
	}

	noYield := false
	if p.tok.Kind == TokIdent && p.tok.Value == "noyield" {
		noYield = true

		if err := p.next(); err != nil {
			return err
		}
	}

	if p.tok.Kind != TokGlobal {
		return p.errorf("expected a function name, found %s", KindName(p.tok.Kind))
	}

	fn := &cir.Func{
		Name:     p.tok.Value,
		External: external,
		NoYield:  noYield,
	}

	if err := p.next(); err != nil {
		return err
	}

	if err := p.parseParams(fn); err != nil {
		return err
	}

	returnType, err := p.parseType()
	if err != nil {
		return err
	}
	fn.ReturnType = returnType

	if _, ok := p.mod.Func(fn.Name); ok {
		return p.errorf("function `%s` declared multiple times", fn.Name)
	}
	p.mod.Funcs = append(p.mod.Funcs, fn)

	if external {
		return nil
	}

	return p.parseBody(fn)
}

// parseParams parses a function's parameter list.  External declarations give
// only parameter types; definitions name each parameter.
func (p *Parser) parseParams(fn *cir.Func) error {
	if err := p.expect(TokLParen); err != nil {
		return err
	}

	for p.tok.Kind != TokRParen {
		typ, err := p.parseType()
		if err != nil {
			return err
		}

		param := &cir.Param{Typ: typ}
		if fn.External {
			param.Name = "arg" + strconv.Itoa(len(fn.Params))
		} else {
			if p.tok.Kind != TokLocal {
				return p.errorf("expected a parameter name, found %s", KindName(p.tok.Kind))
			}

			param.Name = p.tok.Value
			if err := p.next(); err != nil {
				return err
			}
		}

		fn.Params = append(fn.Params, param)

		if p.tok.Kind == TokComma {
			if err := p.next(); err != nil {
				return err
			}
		} else if p.tok.Kind != TokRParen {
			return p.errorf("expected `,` or `)`, found %s", KindName(p.tok.Kind))
		}
	}

	return p.next()
}

// parseBody parses a function body: a braced list of labeled blocks.
func (p *Parser) parseBody(fn *cir.Func) error {
	if err := p.expect(TokLBrace); err != nil {
		return err
	}

	p.fn = fn
	p.locals = make(map[string]cir.Value)
	p.pendingBranches = p.pendingBranches[:0]

	for _, param := range fn.Params {
		p.locals[param.Name] = param
	}

	for p.tok.Kind != TokRBrace {
		if err := p.parseBlock(); err != nil {
			return err
		}
	}

	if len(fn.Blocks) == 0 {
		return p.errorf("function `%s` has an empty body", fn.Name)
	}

	if err := p.resolveBranches(); err != nil {
		return err
	}

	return p.next()
}

// parseBlock parses a labeled block and its instructions.
func (p *Parser) parseBlock() error {
	if p.tok.Kind != TokIdent {
		return p.errorf("expected a block label, found %s", KindName(p.tok.Kind))
	}

	block := &cir.Block{Name: p.tok.Value}
	if _, ok := p.fn.Block(block.Name); ok {
		return p.errorf("block label `%s` defined multiple times", block.Name)
	}
	p.fn.Blocks = append(p.fn.Blocks, block)

	if err := p.next(); err != nil {
		return err
	}

	if err := p.expect(TokColon); err != nil {
		return err
	}

	// A block extends until the next label or the closing brace.
	for {
		atInstr, err := p.atInstr()
		if err != nil {
			return err
		}

		if !atInstr {
			break
		}

		instr, err := p.parseInstr()
		if err != nil {
			return err
		}

		block.Instrs = append(block.Instrs, instr)
	}

	return nil
}

// atInstr reports whether the current token begins an instruction rather
// than the next block's label.  Labels and op codes are both bare
// identifiers, so a mnemonic used as a label is only recognizable by the
// `:` that follows it; no instruction ever has a lone `:` after its op code.
func (p *Parser) atInstr() (bool, error) {
	if p.tok.Kind == TokLocal {
		return true, nil
	}

	if p.tok.Kind != TokIdent || !isOpName(p.tok.Value) {
		return false, nil
	}

	ahead, err := p.peekTok()
	if err != nil {
		return false, err
	}

	return ahead.Kind != TokColon, nil
}

// parseInstr parses a single instruction, optionally bound to an SSA name.
func (p *Parser) parseInstr() (*cir.Instr, error) {
	name := ""
	if p.tok.Kind == TokLocal {
		name = p.tok.Value

		if err := p.next(); err != nil {
			return nil, err
		}

		if err := p.expect(TokAssign); err != nil {
			return nil, err
		}
	}

	if p.tok.Kind != TokIdent {
		return nil, p.errorf("expected an op code, found %s", KindName(p.tok.Kind))
	}

	op, ok := opByName(p.tok.Value)
	if !ok {
		return nil, p.errorf("unknown op code `%s`", p.tok.Value)
	}
	line := p.tok.Line

	if err := p.next(); err != nil {
		return nil, err
	}

	instr := &cir.Instr{Name: name, Op: op}

	var err error
	switch op {
	case cir.OpCall:
		err = p.parseCall(instr, line)
	case cir.OpBr:
		err = p.parseBranchTargets(instr, 1, line)
	case cir.OpBrIf:
		err = p.parseBrIf(instr, line)
	case cir.OpYield:
		// No operands.
	case cir.OpRet, cir.OpTypeOf:
		err = p.parseOperands(instr, nil)
	default:
		// All remaining ops take a leading type specifier.
		instr.Typ, err = p.parseType()
		if err == nil && op != cir.OpLocal {
			err = p.parseOperands(instr, instr.Typ)
		}
	}
	if err != nil {
		return nil, err
	}

	if instr.ProducesValue() {
		if instr.Name == "" {
			return nil, p.errorf("op `%s` produces a value and must be bound to a name", cir.OpName(op))
		}

		if _, ok := p.locals[instr.Name]; ok {
			return nil, p.errorf("local `%s` bound multiple times", instr.Name)
		}

		p.locals[instr.Name] = instr
	} else if instr.Name != "" {
		return nil, p.errorf("op `%s` produces no value and cannot be bound", cir.OpName(op))
	}

	return instr, nil
}

// parseCall parses `call <ret-type> @callee(<args>)`.
func (p *Parser) parseCall(instr *cir.Instr, line int) error {
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	instr.Typ = typ

	if p.tok.Kind != TokGlobal {
		return p.errorf("expected a callee name, found %s", KindName(p.tok.Kind))
	}

	callee := p.tok.Value
	if err := p.next(); err != nil {
		return err
	}

	// The callee slot is filled in when calls are resolved at end of module.
	instr.Operands = []cir.Value{nil}
	p.pendingCalls = append(p.pendingCalls, pendingCall{instr: instr, name: callee, line: line})

	if err := p.expect(TokLParen); err != nil {
		return err
	}

	for p.tok.Kind != TokRParen {
		operand, err := p.parseOperand(cir.PrimI64)
		if err != nil {
			return err
		}

		instr.Operands = append(instr.Operands, operand)

		if p.tok.Kind == TokComma {
			if err := p.next(); err != nil {
				return err
			}
		} else if p.tok.Kind != TokRParen {
			return p.errorf("expected `,` or `)`, found %s", KindName(p.tok.Kind))
		}
	}

	return p.next()
}

// parseBrIf parses `brif <cond>, <then>, <else>`.
func (p *Parser) parseBrIf(instr *cir.Instr, line int) error {
	cond, err := p.parseOperand(cir.PrimI1)
	if err != nil {
		return err
	}
	instr.Operands = []cir.Value{cond}

	if err := p.expect(TokComma); err != nil {
		return err
	}

	return p.parseBranchTargets(instr, 2, line)
}

// parseBranchTargets parses count comma-separated target labels.
func (p *Parser) parseBranchTargets(instr *cir.Instr, count int, line int) error {
	labels := make([]string, count)
	for i := 0; i < count; i++ {
		if p.tok.Kind != TokIdent {
			return p.errorf("expected a target label, found %s", KindName(p.tok.Kind))
		}

		labels[i] = p.tok.Value
		if err := p.next(); err != nil {
			return err
		}

		if i < count-1 {
			if err := p.expect(TokComma); err != nil {
				return err
			}
		}
	}

	p.pendingBranches = append(p.pendingBranches, pendingBranch{instr: instr, labels: labels, line: line})
	return nil
}

// parseOperands parses the comma-separated operand list of an instruction.
// litType is the type bare numeric literals adopt, if integral.
func (p *Parser) parseOperands(instr *cir.Instr, litType cir.Type) error {
	for p.tok.Kind == TokLocal || p.tok.Kind == TokIntLit || p.tok.Kind == TokFloatLit ||
		p.tok.Kind == TokAtom || (p.tok.Kind == TokIdent && (p.tok.Value == "true" || p.tok.Value == "false")) {
		operand, err := p.parseOperand(litType)
		if err != nil {
			return err
		}

		instr.Operands = append(instr.Operands, operand)

		if p.tok.Kind != TokComma {
			break
		}

		if err := p.next(); err != nil {
			return err
		}
	}

	return nil
}

// parseOperand parses a single operand value.
func (p *Parser) parseOperand(litType cir.Type) (cir.Value, error) {
	switch p.tok.Kind {
	case TokLocal:
		val, ok := p.locals[p.tok.Value]
		if !ok {
			return nil, p.errorf("undefined local `%s`", p.tok.Value)
		}

		return val, p.next()
	case TokIntLit:
		n, err := strconv.ParseInt(p.tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal `%s`", p.tok.Value)
		}

		typ := cir.PrimI64
		if pt, ok := litType.(cir.PrimType); ok && cir.IsIntegral(pt) {
			typ = pt
		}

		return &cir.ConstInt{Typ: typ, Val: n}, p.next()
	case TokFloatLit:
		f, err := strconv.ParseFloat(p.tok.Value, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal `%s`", p.tok.Value)
		}

		return &cir.ConstFloat{Val: f}, p.next()
	case TokAtom:
		return p.mod.InternAtom(p.tok.Value), p.next()
	case TokIdent:
		switch p.tok.Value {
		case "true":
			return &cir.ConstInt{Typ: cir.PrimI1, Val: 1}, p.next()
		case "false":
			return &cir.ConstInt{Typ: cir.PrimI1, Val: 0}, p.next()
		}
	}

	return nil, p.errorf("expected an operand, found %s", KindName(p.tok.Kind))
}

// parseType parses a primitive type name.
func (p *Parser) parseType() (cir.Type, error) {
	if p.tok.Kind != TokIdent {
		return nil, p.errorf("expected a type, found %s", KindName(p.tok.Kind))
	}

	pt, ok := primByName(p.tok.Value)
	if !ok {
		return nil, p.errorf("unknown type `%s`", p.tok.Value)
	}

	return pt, p.next()
}

// -----------------------------------------------------------------------------

// resolveBranches resolves the recorded branch target labels of the current
// function to blocks.
func (p *Parser) resolveBranches() error {
	for _, pb := range p.pendingBranches {
		pb.instr.Targets = make([]*cir.Block, len(pb.labels))

		for i, label := range pb.labels {
			block, ok := p.fn.Block(label)
			if !ok {
				return fmt.Errorf("%d: undefined block label `%s` in function `%s`", pb.line, label, p.fn.Name)
			}

			pb.instr.Targets[i] = block
		}
	}

	return nil
}

// resolveCalls resolves the recorded callee names to functions.
func (p *Parser) resolveCalls() error {
	for _, pc := range p.pendingCalls {
		fn, ok := p.mod.Func(pc.name)
		if !ok {
			return fmt.Errorf("%d: call to undefined function `%s`", pc.line, pc.name)
		}

		pc.instr.Operands[0] = &cir.FuncRef{Fn: fn}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (p *Parser) next() error {
	if p.ahead != nil {
		p.tok, p.ahead = p.ahead, nil
		return nil
	}

	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}

	p.tok = tok
	return nil
}

// peekTok returns the token after the current one without consuming it.
func (p *Parser) peekTok() (*Token, error) {
	if p.ahead == nil {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}

		p.ahead = tok
	}

	return p.ahead, nil
}

func (p *Parser) expect(kind int) error {
	if p.tok.Kind != kind {
		return p.errorf("expected %s, found %s", KindName(kind), KindName(p.tok.Kind))
	}

	return p.next()
}

func (p *Parser) expectIdent(value string) error {
	if p.tok.Kind != TokIdent || p.tok.Value != value {
		return p.errorf("expected `%s`, found %s", value, KindName(p.tok.Kind))
	}

	return p.next()
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%d:%d: %s", p.tok.Line, p.tok.Col, fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// opTable maps op mnemonics to op codes.  It is built from the op name table
// in the cir package so the two can never drift apart.
var opTable = func() map[string]cir.Op {
	table := make(map[string]cir.Op)
	for op := cir.OpAdd; op <= cir.OpBrIf; op++ {
		table[cir.OpName(op)] = op
	}

	return table
}()

func isOpName(name string) bool {
	_, ok := opTable[name]
	return ok
}

func opByName(name string) (cir.Op, bool) {
	op, ok := opTable[name]
	return op, ok
}

// primTable maps primitive type names to types.
var primTable = map[string]cir.PrimType{
	"i1":   cir.PrimI1,
	"i8":   cir.PrimI8,
	"i32":  cir.PrimI32,
	"i64":  cir.PrimI64,
	"f64":  cir.PrimF64,
	"term": cir.PrimTerm,
	"ptr":  cir.PrimPtr,
	"unit": cir.PrimUnit,
}

func primByName(name string) (cir.PrimType, bool) {
	pt, ok := primTable[name]
	return pt, ok
}
