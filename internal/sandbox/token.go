package sandbox

// tokenKind enumerates the lexical tokens the sandbox grammar accepts.
// The grammar deliberately has no productions for attribute access ('.'),
// subscripting ('['), imports, or def/class/lambda — those constructs are
// therefore unparseable rather than merely rejected post-parse.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent

	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokDSlash // //
	tokPercent
	tokDStar // **

	tokLT
	tokLE
	tokGT
	tokGE
	tokEQ
	tokNE

	tokAnd
	tokOr
	tokNot
	tokIf
	tokElse

	tokLParen
	tokRParen
	tokComma
	tokAssign
	tokReturn
	tokSemicolon
	tokNewline
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

var keywords = map[string]tokenKind{
	"and":    tokAnd,
	"or":     tokOr,
	"not":    tokNot,
	"if":     tokIf,
	"else":   tokElse,
	"return": tokReturn,
}
