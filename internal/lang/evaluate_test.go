package lang

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run tokenizes, parses, and evaluates source, returning everything written
// to the script's print sink. Any parse or runtime failure fails the test
// immediately so each case only has to assert on the happy path.
func run(t *testing.T, source string) string {
	t.Helper()
	tokens := Tokenize(source)
	for _, tok := range tokens {
		require.NotEqual(t, Error, tok.Kind, "unexpected lexical error token: %s", tok.Source)
	}

	prog, diags := Parse(tokens)
	require.Empty(t, diags, "unexpected parse diagnostics: %v", diags)

	var out bytes.Buffer
	env := NewGlobalEnvironment(&out)
	var runErr error
	EvalProgram(prog, env, func(err error) {
		if runErr == nil {
			runErr = err
		}
	})
	require.NoError(t, runErr)
	return out.String()
}

func TestArithmeticAndAssignment(t *testing.T) {
	out := run(t, "var x = 1\nx = x + 2\nprint x\n")
	assert.Equal(t, "3\n", out)
}

func TestVarargsLambdaSumsAllArguments(t *testing.T) {
	out := run(t, strings.Join([]string{
		"fn sum(*nums)",
		"  var total = 0",
		"  for n in nums",
		"    total = total + n",
		"  total",
		"print sum(1, 2, 3)",
		"",
	}, "\n"))
	assert.Equal(t, "6\n", out)
}

func TestForLoopWritesBackListElementMutation(t *testing.T) {
	out := run(t, strings.Join([]string{
		"var xs = [1, 2, 3]",
		"for x in xs",
		"  x = x * 2",
		"print xs",
		"",
	}, "\n"))
	assert.Equal(t, "[2, 4, 6]\n", out)
}

func TestInclusiveRangeCountsEndpointOnce(t *testing.T) {
	out := run(t, strings.Join([]string{
		"var count = 0",
		"for i in 1..=5",
		"  count = count + 1",
		"print count",
		"",
	}, "\n"))
	assert.Equal(t, "5\n", out)
}

func TestExclusiveRangeExcludesEndpoint(t *testing.T) {
	out := run(t, strings.Join([]string{
		"var count = 0",
		"for i in 1..5",
		"  count = count + 1",
		"print count",
		"",
	}, "\n"))
	assert.Equal(t, "4\n", out)
}

func TestLogicalAndOfTwoTrueOperands(t *testing.T) {
	out := run(t, "print (1 == 1) and (2 == 2)\n")
	assert.Equal(t, "true\n", out)
}

func TestSingleInheritanceWithSuperInit(t *testing.T) {
	out := run(t, strings.Join([]string{
		"class Animal",
		"  fn init(name)",
		"    self.name = name",
		"  fn speak()",
		"    print self.name",
		"",
		"class Dog(Animal)",
		"  fn init(name)",
		"    super(name)",
		"    self.trained = true",
		"",
		"var d = Dog(\"Rex\")",
		"d.speak()",
		"",
	}, "\n"))
	assert.Equal(t, "Rex\n", out)
}

func TestBreakExitsLoopEarly(t *testing.T) {
	out := run(t, strings.Join([]string{
		"var i = 0",
		"while i < 10",
		"  if i == 3",
		"    break",
		"  i = i + 1",
		"print i",
		"",
	}, "\n"))
	assert.Equal(t, "3\n", out)
}

func TestContinueSkipsRestOfIteration(t *testing.T) {
	out := run(t, strings.Join([]string{
		"var sum = 0",
		"for i in 0..5",
		"  if i == 2",
		"    continue",
		"  sum = sum + i",
		"print sum",
		"",
	}, "\n"))
	assert.Equal(t, "8\n", out)
}

func TestListSubscriptOutOfRangeIsAnIndexError(t *testing.T) {
	tokens := Tokenize("var xs = [1, 2]\nprint xs[5]\n")
	prog, diags := Parse(tokens)
	require.Empty(t, diags)

	var out bytes.Buffer
	env := NewGlobalEnvironment(&out)
	var err error
	EvalProgram(prog, env, func(e error) { err = e })
	require.Error(t, err)
	d, ok := AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, KindIndex, d.Kind)
}

func TestEqualityIsDeepForLists(t *testing.T) {
	out := run(t, "print [1, 2, [3]] == [1, 2, [3]]\n")
	assert.Equal(t, "true\n", out)
}

func TestLambdaValuesCompareByIdentityNotStructure(t *testing.T) {
	out := run(t, strings.Join([]string{
		"const a = |x| x",
		"const b = |x| x",
		"print a == b",
		"print a == a",
		"",
	}, "\n"))
	assert.Equal(t, "false\ntrue\n", out)
}

func TestNamedFunctionRecursesByItsOwnName(t *testing.T) {
	out := run(t, strings.Join([]string{
		"fn fact(n)",
		"  if n == 0",
		"    return 1",
		"  return n * fact(n - 1)",
		"print fact(5)",
		"",
	}, "\n"))
	assert.Equal(t, "120\n", out)
}

func TestStringConcatAppendsStringFormsOfAnyValueInPlace(t *testing.T) {
	out := run(t, strings.Join([]string{
		"var s = \"abc\"",
		"s.concat(\"de\", 'f')",
		"print s",
		"",
	}, "\n"))
	assert.Equal(t, "abcdef\n", out)
}

func TestListBuiltinMethodsAddInsertFindRemove(t *testing.T) {
	out := run(t, strings.Join([]string{
		"var xs = [1, 2, 3]",
		"xs.add(4)",
		"xs.insert(0, 0)",
		"print xs",
		"print xs.find(3)",
		"print xs.find(99)",
		"xs.remove(0)",
		"print xs",
		"",
	}, "\n"))
	assert.Equal(t, "[0, 1, 2, 3, 4]\n3\n-1\n[1, 2, 3, 4]\n", out)
}

func TestInitReturningNonNilIsAnError(t *testing.T) {
	tokens := Tokenize(strings.Join([]string{
		"class Bad",
		"  fn init()",
		"    return 1",
		"Bad()",
		"",
	}, "\n"))
	prog, diags := Parse(tokens)
	require.Empty(t, diags)

	var out bytes.Buffer
	env := NewGlobalEnvironment(&out)
	var err error
	EvalProgram(prog, env, func(e error) { err = e })
	require.Error(t, err)
	d, ok := AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, KindType, d.Kind)
}

func TestTopLevelFunctionsSeeEachOtherThroughTheGlobalFrame(t *testing.T) {
	out := run(t, strings.Join([]string{
		"fn helper()",
		"  return 1",
		"fn main()",
		"  return helper()",
		"print main()",
		"",
	}, "\n"))
	assert.Equal(t, "1\n", out)
}

func TestTopLevelFunctionSeesAGlobalVariable(t *testing.T) {
	out := run(t, strings.Join([]string{
		"var total = 10",
		"fn addOne()",
		"  return total + 1",
		"print addOne()",
		"",
	}, "\n"))
	assert.Equal(t, "11\n", out)
}

func TestRuntimeErrorAbortsOnlyItsOwnTopLevelStatement(t *testing.T) {
	tokens := Tokenize(strings.Join([]string{
		"print oops",
		"print \"after\"",
		"",
	}, "\n"))
	prog, diags := Parse(tokens)
	require.Empty(t, diags)

	var out bytes.Buffer
	env := NewGlobalEnvironment(&out)
	var errs []error
	EvalProgram(prog, env, func(e error) { errs = append(errs, e) })
	require.Len(t, errs, 1)
	assert.Equal(t, "after\n", out.String())
}
