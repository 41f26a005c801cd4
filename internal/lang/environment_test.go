package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentAssignReadBack(t *testing.T) {
	env := NewGlobalEnvironment(nil)
	require.NoError(t, env.Define("x", NumberValue(1)))
	require.NoError(t, env.Assign("x", NumberValue(2)))

	v, err := env.Get("x")
	require.NoError(t, err)
	assert.Equal(t, NumberValue(2), v)
}

func TestEnvironmentConstCannotBeReassigned(t *testing.T) {
	env := NewGlobalEnvironment(nil)
	require.NoError(t, env.DefineConst("pi", NumberValue(3.14)))

	err := env.Assign("pi", NumberValue(0))
	require.Error(t, err)
	d, ok := AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, KindNameResolution, d.Kind)
}

func TestEnvironmentDuplicateDefineRejected(t *testing.T) {
	env := NewGlobalEnvironment(nil)
	require.NoError(t, env.Define("x", Nil))
	err := env.Define("x", Nil)
	require.Error(t, err)
}

func TestChildEnvironmentFallsBackToGlobal(t *testing.T) {
	global := NewGlobalEnvironment(nil)
	require.NoError(t, global.Define("g", NumberValue(9)))
	child := NewChildEnvironment(global)

	v, err := child.Get("g")
	require.NoError(t, err)
	assert.Equal(t, NumberValue(9), v)
}

func TestDetachedEnvironmentHasNoParentButReachesGlobal(t *testing.T) {
	global := NewGlobalEnvironment(nil)
	require.NoError(t, global.Define("g", NumberValue(1)))
	caller := NewChildEnvironment(global)
	require.NoError(t, caller.Define("local", NumberValue(2)))

	detached := NewDetachedEnvironment(global)
	_, err := detached.Get("local")
	assert.Error(t, err, "a detached scope must not see its caller's locals")

	v, err := detached.Get("g")
	require.NoError(t, err)
	assert.Equal(t, NumberValue(1), v)
}

func TestEnvironmentUnresolvedIdentifier(t *testing.T) {
	env := NewGlobalEnvironment(nil)
	_, err := env.Get("missing")
	require.Error(t, err)
	d, ok := AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, KindNameResolution, d.Kind)
}
