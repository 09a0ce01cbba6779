package syntax

// Token represents a single lexical token of CIR source.
type Token struct {
	Kind  int
	Value string

	// Line and Col are the 1-indexed position of the token's first character.
	Line, Col int
}

// Enumeration of token kinds.
const (
	TokEOF = iota

	TokIdent  // bare identifier: keywords, type names, op codes, labels
	TokGlobal // @name
	TokLocal  // %name
	TokAtom   // :name
	TokIntLit
	TokFloatLit

	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokComma
	TokColon
	TokAssign
)

// tokenKindNames maps token kinds to user-facing names for error messages.
var tokenKindNames = []string{
	"end of file",
	"identifier",
	"global name",
	"local name",
	"atom",
	"integer literal",
	"float literal",
	"`(`",
	"`)`",
	"`{`",
	"`}`",
	"`,`",
	"`:`",
	"`=`",
}

// KindName returns the user-facing name of the given token kind.
func KindName(kind int) string {
	return tokenKindNames[kind]
}
