package lang

import "fmt"

// TokenKind tags every lexeme the Lexer produces.
type TokenKind int

const (
	EOF TokenKind = iota
	EndStatement // synthetic line terminator, carries that line's indentation

	// Delimiters
	LeftParen
	RightParen
	LeftBracket
	RightBracket
	Pipe
	Comma

	// Literals
	LiteralNil
	LiteralBool
	LiteralNumber
	LiteralString
	LiteralChar

	Identifier

	// Keywords
	Var
	Const
	Fn
	Class
	Super
	If
	Elif
	Else
	While
	For
	In
	Break
	Continue
	Return
	Print

	// Operators
	Bang
	Plus
	Minus
	Star
	Slash
	Equal
	EqualEqual
	BangEqual
	Or
	And
	Less
	Greater
	LessEqual
	GreaterEqual
	Dot
	DotDot
	DotDotEqual

	Error
)

var kindNames = [...]string{
	EOF:            "EOF",
	EndStatement:   "EndStatement",
	LeftParen:      "LeftParen",
	RightParen:     "RightParen",
	LeftBracket:    "LeftBracket",
	RightBracket:   "RightBracket",
	Pipe:           "Pipe",
	Comma:          "Comma",
	LiteralNil:     "LiteralNil",
	LiteralBool:    "LiteralBool",
	LiteralNumber:  "LiteralNumber",
	LiteralString:  "LiteralString",
	LiteralChar:    "LiteralChar",
	Identifier:     "Identifier",
	Var:            "Var",
	Const:          "Const",
	Fn:             "Fn",
	Class:          "Class",
	Super:          "Super",
	If:             "If",
	Elif:           "Elif",
	Else:           "Else",
	While:          "While",
	For:            "For",
	In:             "In",
	Break:          "Break",
	Continue:       "Continue",
	Return:         "Return",
	Print:          "Print",
	Bang:           "Bang",
	Plus:           "Plus",
	Minus:          "Minus",
	Star:           "Star",
	Slash:          "Slash",
	Equal:          "Equal",
	EqualEqual:     "EqualEqual",
	BangEqual:      "BangEqual",
	Or:             "Or",
	And:            "And",
	Less:           "Less",
	Greater:        "Greater",
	LessEqual:      "LessEqual",
	GreaterEqual:   "GreaterEqual",
	Dot:            "Dot",
	DotDot:         "DotDot",
	DotDotEqual:    "DotDotEqual",
	Error:          "Error",
}

func (k TokenKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

var keywords = map[string]TokenKind{
	"var":      Var,
	"const":    Const,
	"fn":       Fn,
	"class":    Class,
	"super":    Super,
	"if":       If,
	"elif":     Elif,
	"else":     Else,
	"while":    While,
	"for":      For,
	"in":       In,
	"break":    Break,
	"continue": Continue,
	"return":   Return,
	"print":    Print,
	"or":       Or,
	"and":      And,
	"nil":      LiteralNil,
	"true":     LiteralBool,
	"false":    LiteralBool,
}

// Token is a single lexeme, annotated with the indentation of the line it
// occurred on.
type Token struct {
	Kind        TokenKind
	Indentation int
	Source      string
	Line        int

	// LiteralValue is populated only for literal kinds.
	LiteralValue Value
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q indent=%d line=%d", t.Kind, t.Source, t.Indentation, t.Line)
}
