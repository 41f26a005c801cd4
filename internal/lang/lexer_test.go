package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeIndentationOnEndStatement(t *testing.T) {
	tokens := Tokenize("var x = 1\n  print x\n")

	var terminators []Token
	for _, tok := range tokens {
		if tok.Kind == EndStatement {
			terminators = append(terminators, tok)
		}
	}

	require.Len(t, terminators, 2)
	assert.Equal(t, 0, terminators[0].Indentation)
	assert.Equal(t, 2, terminators[1].Indentation)
}

func TestTokenizeBlankLinesProduceNoTerminator(t *testing.T) {
	tokens := Tokenize("var x = 1\n\n   \nvar y = 2\n")

	count := 0
	for _, tok := range tokens {
		if tok.Kind == EndStatement {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestTokenizeKeywordsAndLiterals(t *testing.T) {
	tokens := Tokenize("if true and false\n")
	kinds := make([]TokenKind, 0, len(tokens))
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{If, LiteralBool, And, LiteralBool, EndStatement, EOF}, kinds)
}

func TestTokenizeUnterminatedStringIsAnErrorToken(t *testing.T) {
	tokens := Tokenize(`var s = "oops`)
	found := false
	for _, tok := range tokens {
		if tok.Kind == Error {
			found = true
		}
	}
	assert.True(t, found, "expected an Error token for the unterminated string")
}

func TestTokenizeRangeOperators(t *testing.T) {
	tokens := Tokenize("1..5\n1..=5\n")
	var rangeKinds []TokenKind
	for _, tok := range tokens {
		if tok.Kind == DotDot || tok.Kind == DotDotEqual {
			rangeKinds = append(rangeKinds, tok.Kind)
		}
	}
	assert.Equal(t, []TokenKind{DotDot, DotDotEqual}, rangeKinds)
}
