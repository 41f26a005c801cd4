package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptySourceProducesEmptyProgram(t *testing.T) {
	prog, diags := Parse(Tokenize(""))
	require.Empty(t, diags)
	assert.Empty(t, prog.Children)
}

func TestParseListLiteral(t *testing.T) {
	prog, diags := Parse(Tokenize("[1, 2, 3]\n"))
	require.Empty(t, diags)
	require.Len(t, prog.Children, 1)
	_, ok := prog.Children[0].(*ListExpr)
	assert.True(t, ok)
}

func TestParseElifChainBuildsNestedIf(t *testing.T) {
	prog, diags := Parse(Tokenize("if a\n  1\nelif b\n  2\nelse\n  3\n"))
	require.Empty(t, diags)
	require.Len(t, prog.Children, 1)

	top, ok := prog.Children[0].(*If)
	require.True(t, ok)
	mid, ok := top.Else.(*If)
	require.True(t, ok)
	_, ok = mid.Else.(*Block)
	assert.True(t, ok)
}

func TestParseRecoversAfterSyntaxError(t *testing.T) {
	// The first line is malformed (dangling '='); the second is valid and
	// should still show up in the program once the parser resynchronizes.
	prog, diags := Parse(Tokenize("var x =\nvar y = 1\n"))
	require.NotEmpty(t, diags)
	require.Len(t, prog.Children, 1)
	vi, ok := prog.Children[0].(*VarInit)
	require.True(t, ok)
	assert.Equal(t, "y", vi.Name)
}

func TestParseInvalidAssignmentTargetIsASyntaxError(t *testing.T) {
	_, diags := Parse(Tokenize("1 + 2 = 3\n"))
	require.NotEmpty(t, diags)
	d, ok := AsDiagnostic(diags[0])
	require.True(t, ok)
	assert.Equal(t, KindSyntax, d.Kind)
}

func TestParseLambdaExpressionSingleLine(t *testing.T) {
	prog, diags := Parse(Tokenize("var f = |x, y| x + y\n"))
	require.Empty(t, diags)
	require.Len(t, prog.Children, 1)
	vi, ok := prog.Children[0].(*VarInit)
	require.True(t, ok)
	lambda, ok := vi.Init.(*Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, lambda.ArgNames)
	assert.False(t, lambda.IsVarargs)
}

func TestParseBreakOutsideLoopIsASyntaxError(t *testing.T) {
	_, diags := Parse(Tokenize("break\n"))
	require.NotEmpty(t, diags)
	d, ok := AsDiagnostic(diags[0])
	require.True(t, ok)
	assert.Equal(t, KindSyntax, d.Kind)
}

func TestParseContinueOutsideLoopIsASyntaxError(t *testing.T) {
	_, diags := Parse(Tokenize("continue\n"))
	require.NotEmpty(t, diags)
	d, ok := AsDiagnostic(diags[0])
	require.True(t, ok)
	assert.Equal(t, KindSyntax, d.Kind)
}

func TestParseReturnOutsideFunctionIsASyntaxError(t *testing.T) {
	_, diags := Parse(Tokenize("return 1\n"))
	require.NotEmpty(t, diags)
	d, ok := AsDiagnostic(diags[0])
	require.True(t, ok)
	assert.Equal(t, KindSyntax, d.Kind)
}

func TestParseBreakInsideLoopIsFine(t *testing.T) {
	prog, diags := Parse(Tokenize("while true\n  break\n"))
	require.Empty(t, diags)
	require.Len(t, prog.Children, 1)
}

func TestParseReturnInsideLambdaIsFineEvenNestedInALoop(t *testing.T) {
	prog, diags := Parse(Tokenize("while true\n  fn f()\n    return 1\n"))
	require.Empty(t, diags)
	require.Len(t, prog.Children, 1)
}

func TestParseBreakInsideLambdaNestedInALoopIsStillAnError(t *testing.T) {
	_, diags := Parse(Tokenize("while true\n  fn f()\n    break\n"))
	require.NotEmpty(t, diags)
	d, ok := AsDiagnostic(diags[0])
	require.True(t, ok)
	assert.Equal(t, KindSyntax, d.Kind)
}

func TestParseClassWithSuperclassAndClassMethod(t *testing.T) {
	prog, diags := Parse(Tokenize("class Cat(Animal)\n  fn init()\n    1\n  fn class.describe()\n    2\n"))
	require.Empty(t, diags)
	require.Len(t, prog.Children, 1)
	cd, ok := prog.Children[0].(*ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "Animal", cd.Super)
	require.Len(t, cd.Methods, 1)
	assert.Equal(t, "init", cd.Methods[0].Name)
	require.Len(t, cd.ClassMethods, 1)
	assert.Equal(t, "describe", cd.ClassMethods[0].Name)
}
